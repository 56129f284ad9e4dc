package molecule

import (
	"fmt"
	"hash/fnv"
	"math/bits"
	"sort"

	"github.com/turtacn/MolVista/pkg/errors"
	mtypes "github.com/turtacn/MolVista/pkg/types/molecule"
)

// Fingerprint represents a molecular fingerprint as a packed bit vector:
// bit i lives in byte i/8 at position i%8.
type Fingerprint struct {
	Type      mtypes.FingerprintType `json:"type"`
	Bits      []byte                 `json:"bits"`
	Length    int                    `json:"length"`
	NumOnBits int                    `json:"num_on_bits"`
}

// NewFingerprint constructs a Fingerprint from raw bit data.
func NewFingerprint(fpType mtypes.FingerprintType, data []byte, length int) *Fingerprint {
	onBits := 0
	for _, b := range data {
		onBits += bits.OnesCount8(b)
	}
	return &Fingerprint{Type: fpType, Bits: data, Length: length, NumOnBits: onBits}
}

// GetBit returns true if the bit at the given index is set.
func (fp *Fingerprint) GetBit(index int) bool {
	if index < 0 || index >= fp.Length {
		return false
	}
	return (fp.Bits[index/8] & (1 << uint(index%8))) != 0
}

// ToFloat64s expands the bit vector into a dense {0,1} float slice for the
// embedding matrix.
func (fp *Fingerprint) ToFloat64s() []float64 {
	out := make([]float64, fp.Length)
	for i := 0; i < fp.Length; i++ {
		if fp.GetBit(i) {
			out[i] = 1
		}
	}
	return out
}

func setBit(data []byte, index int) {
	data[index/8] |= 1 << uint(index%8)
}

// ComputeFingerprint generates the configured fingerprint type for a SMILES
// string.  Unknown types fall back to Morgan.
func ComputeFingerprint(smiles string, fpType mtypes.FingerprintType, radius, nBits int) (*Fingerprint, error) {
	switch fpType {
	case mtypes.FPTopological:
		return TopologicalFingerprint(smiles, 7, nBits)
	default:
		return MorganFingerprint(smiles, radius, nBits)
	}
}

// MorganFingerprint computes a simplified Morgan (circular) fingerprint by
// iteratively hashing each atom's neighborhood out to the given radius.
// A production system would use RDKit's GetMorganFingerprintAsBitVect; this
// graph-derived version preserves the locality property that makes Morgan
// fingerprints useful for similarity maps.
func MorganFingerprint(smiles string, radius, nBits int) (*Fingerprint, error) {
	if radius < 0 {
		radius = 2
	}
	if nBits <= 0 {
		nBits = 2048
	}

	g, err := ParseSMILES(smiles)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFingerprintFailed, "fingerprint generation failed")
	}

	// Adjacency with bond orders.
	type edge struct {
		to    int
		order int
		arom  bool
	}
	adj := make([][]edge, len(g.Atoms))
	for _, b := range g.Bonds {
		adj[b.From] = append(adj[b.From], edge{to: b.To, order: b.Order, arom: b.Aromatic})
		adj[b.To] = append(adj[b.To], edge{to: b.From, order: b.Order, arom: b.Aromatic})
	}

	// Initial invariants: element, aromaticity, degree, charge, H count.
	inv := make([]uint64, len(g.Atoms))
	for i, a := range g.Atoms {
		inv[i] = hash64(fmt.Sprintf("%s|%t|%d|%d|%d", a.Symbol, a.Aromatic, len(adj[i]), a.Charge, a.HCount))
	}

	data := make([]byte, (nBits+7)/8)
	for _, v := range inv {
		setBit(data, int(v%uint64(nBits)))
	}

	// Iterative neighborhood expansion.
	for r := 1; r <= radius; r++ {
		next := make([]uint64, len(inv))
		for i := range inv {
			neigh := make([]string, 0, len(adj[i]))
			for _, e := range adj[i] {
				order := e.order
				if e.arom {
					order = 4
				}
				neigh = append(neigh, fmt.Sprintf("%d:%d", order, inv[e.to]))
			}
			sort.Strings(neigh)
			next[i] = hash64(fmt.Sprintf("%d|%d|%v", r, inv[i], neigh))
			setBit(data, int(next[i]%uint64(nBits)))
		}
		inv = next
	}

	return NewFingerprint(mtypes.FPMorgan, data, nBits), nil
}

// TopologicalFingerprint hashes all linear atom paths up to maxLen bonds,
// in the manner of the RDKit path-based fingerprint.
func TopologicalFingerprint(smiles string, maxLen, nBits int) (*Fingerprint, error) {
	if maxLen <= 0 {
		maxLen = 7
	}
	if nBits <= 0 {
		nBits = 2048
	}

	g, err := ParseSMILES(smiles)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFingerprintFailed, "fingerprint generation failed")
	}

	adj := make([][]int, len(g.Atoms))
	bondOf := make(map[[2]int]Bond, len(g.Bonds))
	for _, b := range g.Bonds {
		adj[b.From] = append(adj[b.From], b.To)
		adj[b.To] = append(adj[b.To], b.From)
		bondOf[[2]int{b.From, b.To}] = b
		bondOf[[2]int{b.To, b.From}] = b
	}

	data := make([]byte, (nBits+7)/8)
	visited := make([]bool, len(g.Atoms))

	var walk func(at int, path string, depth int)
	walk = func(at int, path string, depth int) {
		setBit(data, int(hash64(path)%uint64(nBits)))
		if depth == maxLen {
			return
		}
		visited[at] = true
		for _, nb := range adj[at] {
			if visited[nb] {
				continue
			}
			b := bondOf[[2]int{at, nb}]
			order := b.Order
			if b.Aromatic {
				order = 4
			}
			walk(nb, fmt.Sprintf("%s%d%s", path, order, g.Atoms[nb].Symbol), depth+1)
		}
		visited[at] = false
	}

	for i, a := range g.Atoms {
		walk(i, a.Symbol, 0)
	}

	return NewFingerprint(mtypes.FPTopological, data, nBits), nil
}

// TanimotoSimilarity returns the Jaccard index of two fingerprints in
// [0.0, 1.0].  Both must share type and length.
func TanimotoSimilarity(fp1, fp2 *Fingerprint) (float64, error) {
	if fp1.Type != fp2.Type || fp1.Length != fp2.Length {
		return 0, errors.InvalidParam("fingerprints must have same type and length")
	}
	inter, union := 0, 0
	for i := range fp1.Bits {
		inter += bits.OnesCount8(fp1.Bits[i] & fp2.Bits[i])
		union += bits.OnesCount8(fp1.Bits[i] | fp2.Bits[i])
	}
	if union == 0 {
		return 0, nil
	}
	return float64(inter) / float64(union), nil
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
