package docking

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/turtacn/MolVista/internal/domain/molecule"
	"github.com/turtacn/MolVista/pkg/errors"
)

// adTypes maps element symbols to AutoDock atom types where they differ
// from the bare symbol.
var adTypes = map[string]string{
	"H": "HD",
	"N": "NA",
	"O": "OA",
	"S": "SA",
}

// WriteLigandPDBQT renders a SMILES string as a minimal rigid PDBQT ligand
// file.  Coordinates come from a deterministic helical embedding of the
// molecular graph; this is a docking-input approximation, not a real 3D
// conformer, and a production setup would prepare ligands with Open Babel
// or Meeko instead.
func WriteLigandPDBQT(path, smiles, name string) error {
	g, err := molecule.ParseSMILES(smiles)
	if err != nil {
		return errors.Wrap(err, errors.CodeLigandPrepFailed, "ligand preparation failed").
			WithDetail("name=" + name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "REMARK  Name = %s\n", name)
	fmt.Fprintf(&sb, "REMARK  SMILES = %s\n", smiles)
	sb.WriteString("ROOT\n")

	for i, a := range g.Atoms {
		x, y, z := helicalCoord(i)
		adType := a.Symbol
		if t, ok := adTypes[a.Symbol]; ok {
			adType = t
		}
		fmt.Fprintf(&sb, "ATOM  %5d %-4s LIG A   1    %8.3f%8.3f%8.3f  0.00  0.00    %+6.3f %-2s\n",
			i+1, atomName(a.Symbol, i), x, y, z, float64(a.Charge), adType)
	}

	sb.WriteString("ENDROOT\n")
	sb.WriteString("TORSDOF 0\n")

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return errors.Wrap(err, errors.CodeLigandPrepFailed, "cannot write ligand file").
			WithDetail("path=" + path)
	}
	return nil
}

// helicalCoord spreads atom i along a gentle helix so no two atoms overlap.
func helicalCoord(i int) (x, y, z float64) {
	t := float64(i)
	return 1.5 * t * math.Cos(t), 1.5 * t * math.Sin(t), 0.5 * t
}

// atomName builds the four-character PDB atom name field, e.g. "C1", "O12".
func atomName(symbol string, i int) string {
	name := fmt.Sprintf("%s%d", symbol, i+1)
	if len(name) > 4 {
		name = name[:4]
	}
	return name
}
