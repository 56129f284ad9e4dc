package molecule

import (
	"math"

	"github.com/turtacn/MolVista/pkg/errors"
	mtypes "github.com/turtacn/MolVista/pkg/types/molecule"
)

// atomicMasses holds standard atomic weights for the elements the parser
// emits.  Unknown elements fall back to carbon's mass.
var atomicMasses = map[string]float64{
	"H": 1.008, "B": 10.811, "C": 12.011, "N": 14.007, "O": 15.999,
	"F": 18.998, "Na": 22.990, "Mg": 24.305, "Al": 26.982, "Si": 28.086,
	"P": 30.974, "S": 32.065, "Cl": 35.453, "Ca": 40.078, "Fe": 55.845,
	"Cu": 63.546, "Zn": 65.380, "Se": 78.971, "Br": 79.904, "I": 126.904,
	"Li": 6.941, "*": 12.011,
}

// logPContribs are per-atom lipophilicity contributions, a coarse Crippen-style
// additive scheme.
var logPContribs = map[string]float64{
	"C": 0.20, "N": -0.70, "O": -0.45, "S": 0.45, "P": -0.40,
	"F": 0.14, "Cl": 0.65, "Br": 0.86, "I": 1.10, "B": 0.10,
}

// ComputeDescriptors calculates the fixed core descriptor set for a SMILES
// string.  All values are heuristic approximations of their RDKit
// counterparts; they preserve ordering and rough magnitude, which is what the
// dashboard's comparative plots need.
//
// Returns a CodeDescriptorFailed error when the structure cannot be parsed.
func ComputeDescriptors(smiles string) (map[string]float64, error) {
	g, err := ParseSMILES(smiles)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDescriptorFailed, "descriptor calculation failed")
	}

	desc := make(map[string]float64, 11)

	desc[mtypes.DescMW] = molecularWeight(g)
	desc[mtypes.DescLogP] = logP(g)
	desc[mtypes.DescTPSA] = tpsa(g)
	desc[mtypes.DescHBA] = float64(hAcceptors(g))
	desc[mtypes.DescHBD] = float64(hDonors(g))
	desc[mtypes.DescRotBonds] = float64(rotatableBonds(g))
	desc[mtypes.DescNumRings] = float64(g.RingCount())
	desc[mtypes.DescHeavyAtoms] = float64(len(g.Atoms))

	if f, ok := fsp3(g); ok {
		desc[mtypes.DescFsp3] = f
	}

	desc[mtypes.DescQED] = qed(desc)
	desc[mtypes.DescSAScore] = saScore(g, desc)

	return desc, nil
}

// molecularWeight sums atomic masses plus implicit hydrogens.
func molecularWeight(g *Graph) float64 {
	mw := 0.0
	for _, a := range g.Atoms {
		m, ok := atomicMasses[a.Symbol]
		if !ok {
			m = atomicMasses["C"]
		}
		mw += m + float64(a.HCount)*atomicMasses["H"]
	}
	return mw
}

// logP sums per-atom contributions; aromatic carbons are slightly more
// lipophilic than aliphatic ones.
func logP(g *Graph) float64 {
	sum := 0.0
	for _, a := range g.Atoms {
		c, ok := logPContribs[a.Symbol]
		if !ok {
			continue
		}
		if a.Symbol == "C" && a.Aromatic {
			c = 0.29
		}
		sum += c
		if a.Charge != 0 {
			sum -= 0.9
		}
	}
	return sum
}

// tpsa approximates topological polar surface area with Ertl-style per-group
// contributions for N and O.
func tpsa(g *Graph) float64 {
	sum := 0.0
	for i, a := range g.Atoms {
		switch a.Symbol {
		case "O":
			if a.HCount > 0 {
				sum += 20.23 // hydroxyl
			} else if hasDoubleBond(g, i) {
				sum += 17.07 // carbonyl
			} else {
				sum += 9.23 // ether
			}
		case "N":
			switch {
			case a.HCount >= 2:
				sum += 26.02
			case a.HCount == 1:
				sum += 12.03
			case a.Aromatic:
				sum += 12.89
			default:
				sum += 3.24
			}
		}
	}
	return sum
}

// hasDoubleBond reports whether atom i sits on a double bond.
func hasDoubleBond(g *Graph, i int) bool {
	for _, b := range g.Bonds {
		if (b.From == i || b.To == i) && b.Order == 2 {
			return true
		}
	}
	return false
}

// hAcceptors counts N and O atoms (Lipinski convention).
func hAcceptors(g *Graph) int {
	n := 0
	for _, a := range g.Atoms {
		if a.Symbol == "N" || a.Symbol == "O" {
			n++
		}
	}
	return n
}

// hDonors counts N-H and O-H groups (Lipinski convention).
func hDonors(g *Graph) int {
	n := 0
	for _, a := range g.Atoms {
		if (a.Symbol == "N" || a.Symbol == "O") && a.HCount > 0 {
			n++
		}
	}
	return n
}

// rotatableBonds counts single, acyclic bonds between two non-terminal heavy
// atoms.
func rotatableBonds(g *Graph) int {
	deg := make([]int, len(g.Atoms))
	for _, b := range g.Bonds {
		deg[b.From]++
		deg[b.To]++
	}
	n := 0
	for _, b := range g.Bonds {
		if b.Order == 1 && !b.Aromatic && !b.InRing && deg[b.From] > 1 && deg[b.To] > 1 {
			n++
		}
	}
	return n
}

// fsp3 returns the fraction of carbons with only single, non-aromatic bonds.
// ok is false when the molecule contains no carbon.
func fsp3(g *Graph) (float64, bool) {
	carbons, sp3 := 0, 0
	for i, a := range g.Atoms {
		if a.Symbol != "C" {
			continue
		}
		carbons++
		if a.Aromatic {
			continue
		}
		saturated := true
		for _, b := range g.Bonds {
			if (b.From == i || b.To == i) && (b.Order > 1 || b.Aromatic) {
				saturated = false
				break
			}
		}
		if saturated {
			sp3++
		}
	}
	if carbons == 0 {
		return 0, false
	}
	return float64(sp3) / float64(carbons), true
}

// desirability is a flat-top gaussian: 1 inside [lo,hi], decaying outside
// with width w.
func desirability(x, lo, hi, w float64) float64 {
	switch {
	case x < lo:
		d := (x - lo) / w
		return math.Exp(-d * d)
	case x > hi:
		d := (x - hi) / w
		return math.Exp(-d * d)
	default:
		return 1.0
	}
}

// qed combines descriptor desirabilities into a [0,1] drug-likeness score,
// a coarse stand-in for the Bickerton QED metric.
func qed(desc map[string]float64) float64 {
	terms := []float64{
		desirability(desc[mtypes.DescMW], 160, 480, 120),
		desirability(desc[mtypes.DescLogP], -0.4, 5.0, 1.6),
		desirability(desc[mtypes.DescTPSA], 20, 130, 50),
		desirability(desc[mtypes.DescHBA], 0, 9, 2),
		desirability(desc[mtypes.DescHBD], 0, 5, 1.5),
		desirability(desc[mtypes.DescRotBonds], 0, 9, 3),
		desirability(desc[mtypes.DescNumRings], 1, 4, 1.2),
	}
	// Geometric mean keeps a single bad property influential.
	logSum := 0.0
	for _, t := range terms {
		if t < 1e-6 {
			t = 1e-6
		}
		logSum += math.Log(t)
	}
	return math.Exp(logSum / float64(len(terms)))
}

// saScore estimates synthetic accessibility on the conventional 1 (easy) to
// 10 (hard) scale from size, ring complexity, and heteroatom load.
func saScore(g *Graph, desc map[string]float64) float64 {
	score := 1.0
	score += desc[mtypes.DescHeavyAtoms] * 0.05
	score += desc[mtypes.DescNumRings] * 0.35

	hetero := 0
	for _, a := range g.Atoms {
		if a.Symbol != "C" && a.Symbol != "H" {
			hetero++
		}
	}
	score += float64(hetero) * 0.12

	for _, a := range g.Atoms {
		if a.Charge != 0 {
			score += 0.4
		}
	}

	if score > 10 {
		score = 10
	}
	return score
}
