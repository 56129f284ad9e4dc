package docking

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/turtacn/MolVista/internal/infrastructure/logging"
	"github.com/turtacn/MolVista/pkg/errors"
)

// Waters and common ions removed during receptor cleanup.  Alternative
// conformations are always resolved; everything else stays so cofactors in
// the binding site survive.
var (
	waterResidues = map[string]bool{
		"HOH": true, "WAT": true, "H2O": true, "TIP": true, "SOL": true,
	}
	ionResidues = map[string]bool{
		"CA": true, "MG": true, "ZN": true, "FE": true, "MN": true,
		"CU": true, "NA": true, "K": true, "CL": true, "SO4": true,
		"PO4": true, "CO3": true, "NO3": true, "BR": true, "I": true,
		"F": true,
	}
)

// pdbAtom is one ATOM/HETATM record with the fields cleanup cares about.
type pdbAtom struct {
	line      string
	occupancy float64
	altLoc    byte
}

// atomKey identifies an atom position independent of its conformer.
type atomKey struct {
	chain, resNum, resName, atomName string
}

// CleanReceptorPDB rewrites a receptor PDB for docking preparation: for
// each atom with alternative conformations only the highest-occupancy
// conformer is kept (its altLoc column cleared), and water and common ion
// HETATM records are dropped.  Docking preparation tools reject altLoc
// duplicates, so a raw PDB receptor goes through here before the first run.
func CleanReceptorPDB(inPath, outPath string, log logging.Logger) error {
	in, err := os.Open(inPath)
	if err != nil {
		return errors.Wrap(err, errors.CodeDockingUnavailable, "cannot open receptor structure").
			WithDetail("path=" + inPath)
	}
	defer in.Close()

	var order []atomKey
	var tail []string
	best := map[atomKey]pdbAtom{}
	altSeen, dropped := 0, 0

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM"):
			res := field(line, 17, 20)
			if strings.HasPrefix(line, "HETATM") && (waterResidues[res] || ionResidues[res]) {
				dropped++
				continue
			}
			key := atomKey{
				chain:    field(line, 21, 22),
				resNum:   field(line, 22, 26),
				resName:  res,
				atomName: field(line, 12, 16),
			}
			atom := pdbAtom{line: line, occupancy: occupancy(line), altLoc: altLoc(line)}
			prev, seen := best[key]
			if !seen {
				order = append(order, key)
				best[key] = atom
				continue
			}
			altSeen++
			if atom.occupancy > prev.occupancy {
				best[key] = atom
			}
		case strings.HasPrefix(line, "ANISOU"):
			// Anisotropic records reference a conformer by serial; after
			// conformer selection they no longer line up, so drop them.
			continue
		case strings.HasPrefix(line, "END"):
			tail = append(tail, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.CodeDockingUnavailable, "cannot read receptor structure").
			WithDetail("path=" + inPath)
	}
	if len(order) == 0 {
		return errors.New(errors.CodeDockingUnavailable, "receptor structure contains no atom records").
			WithDetail("path=" + inPath)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, errors.CodeDockingUnavailable, "cannot write cleaned receptor").
			WithDetail("path=" + outPath)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	for _, key := range order {
		atom := best[key]
		line := atom.line
		if atom.altLoc != ' ' && len(line) > 16 {
			line = line[:16] + " " + line[17:]
		}
		if _, err := w.WriteString(line + "\n"); err != nil {
			return errors.Wrap(err, errors.CodeDockingUnavailable, "cannot write cleaned receptor")
		}
	}
	for _, line := range tail {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return errors.Wrap(err, errors.CodeDockingUnavailable, "cannot write cleaned receptor")
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, errors.CodeDockingUnavailable, "cannot write cleaned receptor")
	}

	log.Info("receptor cleaned",
		logging.String("path", outPath),
		logging.Int("atoms", len(order)),
		logging.Int("alt_conformers_resolved", altSeen),
		logging.Int("waters_ions_removed", dropped))
	return nil
}

// field extracts a column range from a fixed-width PDB line, tolerating
// short lines.
func field(line string, from, to int) string {
	if len(line) < from {
		return ""
	}
	if len(line) < to {
		to = len(line)
	}
	return strings.TrimSpace(line[from:to])
}

func occupancy(line string) float64 {
	v, err := strconv.ParseFloat(field(line, 54, 60), 64)
	if err != nil {
		return 0
	}
	return v
}

func altLoc(line string) byte {
	if len(line) > 16 && line[16] != ' ' {
		return line[16]
	}
	return ' '
}
