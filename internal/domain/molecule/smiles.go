// Package molecule provides the lightweight cheminformatics core for
// MolVista: SMILES validation and graph extraction, heuristic descriptor
// calculation, fingerprints for chemical-space analysis, and 2D depiction.
//
// The implementations here are deliberately simplified, SMILES-derived
// approximations; a production deployment would delegate to RDKit or an
// equivalent chemistry toolkit behind the same interfaces.
package molecule

import (
	"regexp"
	"strings"

	"github.com/turtacn/MolVista/pkg/errors"
)

// Atom is one heavy atom parsed from a SMILES string.
type Atom struct {
	Symbol   string // element symbol, e.g. "C", "N", "Cl"
	Aromatic bool
	Charge   int
	// HCount is the number of implicit hydrogens, filled by finalize.
	HCount int
	// InRing is true when the atom participates in at least one cycle.
	InRing bool
}

// Bond connects two atoms by index into Graph.Atoms.
type Bond struct {
	From, To int
	// Order is 1, 2, or 3; aromatic bonds carry Order 1 with Aromatic set.
	Order    int
	Aromatic bool
	// InRing is true when the bond lies on a cycle (not a bridge).
	InRing bool
}

// Graph is the molecular graph extracted from a SMILES string.  Hydrogens
// are implicit.
type Graph struct {
	Atoms []Atom
	Bonds []Bond
}

// validSMILESChars defines the allowed character set for SMILES notation.
// This is a coarse pre-check; structural errors are caught by the parser.
var validSMILESChars = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]()=#$:/\\%.*]+$`)

// ValidateSMILES performs structural validation of a SMILES string: character
// set, balanced brackets, and parseability into an atom graph.  It returns
// the canonical-ish trimmed form or a CodeInvalidSMILES error.
func ValidateSMILES(smiles string) (string, error) {
	smiles = strings.TrimSpace(smiles)
	if smiles == "" {
		return "", errors.New(errors.CodeInvalidSMILES, "SMILES string cannot be empty")
	}
	if !validSMILESChars.MatchString(smiles) {
		return "", errors.New(errors.CodeInvalidSMILES, "SMILES contains invalid characters").
			WithDetail("smiles=" + smiles)
	}
	if err := validateBrackets(smiles); err != nil {
		return "", err
	}
	if _, err := ParseSMILES(smiles); err != nil {
		return "", err
	}
	return smiles, nil
}

// validateBrackets checks that all brackets in the SMILES string are balanced.
func validateBrackets(smiles string) error {
	var stack []rune
	closers := map[rune]rune{')': '(', ']': '['}

	for _, ch := range smiles {
		switch ch {
		case '(', '[':
			stack = append(stack, ch)
		case ')', ']':
			if len(stack) == 0 || stack[len(stack)-1] != closers[ch] {
				return errors.New(errors.CodeInvalidSMILES, "unmatched brackets in SMILES").
					WithDetail("smiles=" + smiles)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) != 0 {
		return errors.New(errors.CodeInvalidSMILES, "unclosed brackets in SMILES").
			WithDetail("smiles=" + smiles)
	}
	return nil
}

// twoLetterElements are the organic-subset and common bracket elements whose
// symbols span two characters.  Checked before single-letter symbols.
var twoLetterElements = []string{"Cl", "Br", "Si", "Se", "Na", "Li", "Mg", "Ca", "Al", "Zn", "Fe", "Cu"}

// aromaticSymbols maps lowercase aromatic SMILES atoms to their elements.
var aromaticSymbols = map[byte]string{'b': "B", 'c': "C", 'n': "N", 'o': "O", 'p': "P", 's': "S"}

// organicSubset are the elements writable without brackets.
var organicSubset = map[byte]string{
	'B': "B", 'C': "C", 'N': "N", 'O': "O", 'P': "P", 'S': "S", 'F': "F", 'I': "I", 'H': "H",
}

// ParseSMILES extracts the heavy-atom graph from a SMILES string.  Branches,
// ring closures (single-digit and %nn), bond orders, aromatic lowercase
// atoms, and bracket atoms with charges are handled; stereo markers (/ \ @)
// are accepted and ignored.  This is not a full SMILES implementation — it is
// sufficient for heuristic descriptor and fingerprint calculation.
func ParseSMILES(smiles string) (*Graph, error) {
	g := &Graph{}

	var (
		prev      = -1            // index of the atom to bond the next atom to
		stack     []int           // branch points
		ringOpen  = map[int]int{} // ring-closure label → atom index
		ringBond  = map[int]int{} // ring-closure label → pending bond order
		pendOrder = 1
		pendArom  = false
		havePend  = false
	)

	addAtom := func(a Atom) {
		g.Atoms = append(g.Atoms, a)
		idx := len(g.Atoms) - 1
		if prev >= 0 {
			order, arom := 1, false
			if havePend {
				order, arom = pendOrder, pendArom
			} else if a.Aromatic && g.Atoms[prev].Aromatic {
				arom = true
			}
			g.Bonds = append(g.Bonds, Bond{From: prev, To: idx, Order: order, Aromatic: arom})
		}
		prev = idx
		havePend = false
		pendOrder, pendArom = 1, false
	}

	closeRing := func(label int) error {
		if open, ok := ringOpen[label]; ok {
			if prev < 0 {
				return errors.New(errors.CodeInvalidSMILES, "ring closure before any atom")
			}
			order := 1
			if o, ok := ringBond[label]; ok {
				order = o
			} else if havePend {
				order = pendOrder
				havePend = false
			}
			arom := g.Atoms[open].Aromatic && g.Atoms[prev].Aromatic
			g.Bonds = append(g.Bonds, Bond{From: open, To: prev, Order: order, Aromatic: arom})
			delete(ringOpen, label)
			delete(ringBond, label)
		} else {
			if prev < 0 {
				return errors.New(errors.CodeInvalidSMILES, "ring opening before any atom")
			}
			ringOpen[label] = prev
			if havePend {
				ringBond[label] = pendOrder
				havePend = false
			}
		}
		return nil
	}

	i := 0
	for i < len(smiles) {
		ch := smiles[i]
		switch {
		case ch == '(':
			if prev < 0 {
				return nil, errors.New(errors.CodeInvalidSMILES, "branch opened before any atom")
			}
			stack = append(stack, prev)
			i++
		case ch == ')':
			if len(stack) == 0 {
				return nil, errors.New(errors.CodeInvalidSMILES, "unmatched branch close")
			}
			prev = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			i++
		case ch == '-' || ch == ':':
			pendOrder, havePend = 1, true
			pendArom = ch == ':'
			i++
		case ch == '=':
			pendOrder, havePend = 2, true
			i++
		case ch == '#' || ch == '$':
			pendOrder, havePend = 3, true
			i++
		case ch == '/' || ch == '\\' || ch == '.':
			// Stereo markers ignored; dot separates components.
			if ch == '.' {
				prev = -1
			}
			i++
		case ch >= '0' && ch <= '9':
			if err := closeRing(int(ch - '0')); err != nil {
				return nil, err
			}
			i++
		case ch == '%':
			if i+2 >= len(smiles) || smiles[i+1] < '0' || smiles[i+1] > '9' || smiles[i+2] < '0' || smiles[i+2] > '9' {
				return nil, errors.New(errors.CodeInvalidSMILES, "malformed %nn ring closure")
			}
			label := int(smiles[i+1]-'0')*10 + int(smiles[i+2]-'0')
			if err := closeRing(label); err != nil {
				return nil, err
			}
			i += 3
		case ch == '[':
			end := strings.IndexByte(smiles[i:], ']')
			if end < 0 {
				return nil, errors.New(errors.CodeInvalidSMILES, "unclosed bracket atom")
			}
			atom, err := parseBracketAtom(smiles[i+1 : i+end])
			if err != nil {
				return nil, err
			}
			addAtom(atom)
			i += end + 1
		case ch == '*':
			addAtom(Atom{Symbol: "*"})
			i++
		default:
			// Organic-subset atom, possibly two letters.
			matched := false
			for _, el := range twoLetterElements {
				if strings.HasPrefix(smiles[i:], el) {
					addAtom(Atom{Symbol: el})
					i += len(el)
					matched = true
					break
				}
			}
			if matched {
				break
			}
			if el, ok := aromaticSymbols[ch]; ok {
				addAtom(Atom{Symbol: el, Aromatic: true})
				i++
				break
			}
			if el, ok := organicSubset[ch]; ok {
				addAtom(Atom{Symbol: el})
				i++
				break
			}
			return nil, errors.New(errors.CodeInvalidSMILES, "unexpected character in SMILES").
				WithDetail("char=" + string(ch))
		}
	}

	if len(stack) != 0 {
		return nil, errors.New(errors.CodeInvalidSMILES, "unclosed branch in SMILES")
	}
	if len(ringOpen) != 0 {
		return nil, errors.New(errors.CodeInvalidSMILES, "unclosed ring bond in SMILES")
	}
	if len(g.Atoms) == 0 {
		return nil, errors.New(errors.CodeInvalidSMILES, "no atoms found in SMILES")
	}

	g.finalize()
	return g, nil
}

// parseBracketAtom interprets the contents between [ and ]: isotope (ignored),
// symbol, chirality (ignored), explicit H count, and charge.
func parseBracketAtom(body string) (Atom, error) {
	if body == "" {
		return Atom{}, errors.New(errors.CodeInvalidSMILES, "empty bracket atom")
	}
	i := 0
	// Skip isotope digits.
	for i < len(body) && body[i] >= '0' && body[i] <= '9' {
		i++
	}
	if i >= len(body) {
		return Atom{}, errors.New(errors.CodeInvalidSMILES, "bracket atom has no element symbol")
	}

	atom := Atom{}
	rest := body[i:]
	matched := ""
	for _, el := range twoLetterElements {
		if strings.HasPrefix(rest, el) {
			matched = el
			break
		}
	}
	if matched != "" {
		atom.Symbol = matched
		i += len(matched)
	} else {
		ch := rest[0]
		if el, ok := aromaticSymbols[ch]; ok {
			atom.Symbol = el
			atom.Aromatic = true
		} else if ch >= 'A' && ch <= 'Z' {
			sym := string(ch)
			if len(rest) > 1 && rest[1] >= 'a' && rest[1] <= 'z' && rest[1] != 'h' {
				sym += string(rest[1])
				i++
			}
			atom.Symbol = sym
		} else {
			return Atom{}, errors.New(errors.CodeInvalidSMILES, "invalid bracket atom symbol").
				WithDetail("body=" + body)
		}
		i++
	}

	// Remaining modifiers: chirality, H count, charge.
	for i < len(body) {
		switch body[i] {
		case '@':
			i++
		case 'H':
			atom.HCount = 1
			i++
			if i < len(body) && body[i] >= '0' && body[i] <= '9' {
				atom.HCount = int(body[i] - '0')
				i++
			}
		case '+':
			atom.Charge++
			i++
			if i < len(body) && body[i] >= '0' && body[i] <= '9' {
				atom.Charge = int(body[i] - '0')
				i++
			}
		case '-':
			atom.Charge--
			i++
			if i < len(body) && body[i] >= '0' && body[i] <= '9' {
				atom.Charge = -int(body[i] - '0')
				i++
			}
		default:
			i++
		}
	}
	return atom, nil
}

// defaultValences for implicit hydrogen estimation.
var defaultValences = map[string]int{
	"B": 3, "C": 4, "N": 3, "O": 2, "P": 3, "S": 2,
	"F": 1, "Cl": 1, "Br": 1, "I": 1,
}

// finalize computes implicit hydrogen counts and marks ring membership.
func (g *Graph) finalize() {
	// Bond order sums per atom; aromatic bonds contribute 1.5.
	orderSum := make([]float64, len(g.Atoms))
	degree := make([]int, len(g.Atoms))
	for _, b := range g.Bonds {
		o := float64(b.Order)
		if b.Aromatic {
			o = 1.5
		}
		orderSum[b.From] += o
		orderSum[b.To] += o
		degree[b.From]++
		degree[b.To]++
	}

	for i := range g.Atoms {
		a := &g.Atoms[i]
		if a.HCount > 0 {
			continue // explicit from bracket atom
		}
		val, ok := defaultValences[a.Symbol]
		if !ok {
			continue
		}
		// Aromatic atoms donate one electron to the ring system.
		used := int(orderSum[i] + 0.5)
		h := val - used - abs(a.Charge)
		if a.Symbol == "N" && a.Charge > 0 {
			h = val + a.Charge - used
		}
		if h > 0 {
			a.HCount = h
		}
	}

	g.markRings()
}

// markRings flags atoms and bonds that lie on cycles.  A bond is a ring bond
// iff it is not a bridge; bridges are found with a DFS lowlink pass.
func (g *Graph) markRings() {
	n := len(g.Atoms)
	adj := make([][]int, n) // adjacency as bond indices
	for bi, b := range g.Bonds {
		adj[b.From] = append(adj[b.From], bi)
		adj[b.To] = append(adj[b.To], bi)
	}

	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	timer := 0

	var dfs func(u, parentBond int)
	dfs = func(u, parentBond int) {
		disc[u] = timer
		low[u] = timer
		timer++
		for _, bi := range adj[u] {
			if bi == parentBond {
				continue
			}
			b := g.Bonds[bi]
			v := b.From
			if v == u {
				v = b.To
			}
			if disc[v] == -1 {
				dfs(v, bi)
				if low[v] < low[u] {
					low[u] = low[v]
				}
				if low[v] <= disc[u] {
					g.Bonds[bi].InRing = true
				}
			} else {
				if disc[v] < low[u] {
					low[u] = disc[v]
				}
				if disc[v] < disc[u] {
					g.Bonds[bi].InRing = true
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		if disc[i] == -1 {
			dfs(i, -1)
		}
	}

	for _, b := range g.Bonds {
		if b.InRing {
			g.Atoms[b.From].InRing = true
			g.Atoms[b.To].InRing = true
		}
	}
}

// Degree returns the heavy-atom degree of atom i.
func (g *Graph) Degree(i int) int {
	d := 0
	for _, b := range g.Bonds {
		if b.From == i || b.To == i {
			d++
		}
	}
	return d
}

// RingCount returns the cyclomatic number (SSSR size) of the graph.
func (g *Graph) RingCount() int {
	components := g.componentCount()
	rings := len(g.Bonds) - len(g.Atoms) + components
	if rings < 0 {
		return 0
	}
	return rings
}

func (g *Graph) componentCount() int {
	n := len(g.Atoms)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, b := range g.Bonds {
		rf, rt := find(b.From), find(b.To)
		if rf != rt {
			parent[rf] = rt
		}
	}
	comps := 0
	for i := range parent {
		if find(i) == i {
			comps++
		}
	}
	return comps
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
