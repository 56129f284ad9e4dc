package docking

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolVista/internal/config"
	"github.com/turtacn/MolVista/internal/testutil"
	"github.com/turtacn/MolVista/pkg/errors"
)

func pdbLine(record string, serial int, atomName, altLoc, resName, chain string, resNum int, occ float64) string {
	return fmt.Sprintf("%-6s%5d %-4s%1s%3s %1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %1s",
		record, serial, atomName, altLoc, resName, chain, resNum,
		1.0, 2.0, 3.0, occ, 20.0, atomName[:1])
}

func writeReceptor(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receptor.pdb")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func cleanedLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestCleanReceptorPDB_KeepsHighestOccupancyConformer(t *testing.T) {
	in := writeReceptor(t,
		pdbLine("ATOM", 1, "N", "A", "SER", "A", 1, 0.40),
		pdbLine("ATOM", 2, "N", "B", "SER", "A", 1, 0.60),
		pdbLine("ATOM", 3, "CA", " ", "SER", "A", 1, 1.00),
		"END",
	)
	out := filepath.Join(t.TempDir(), "clean.pdb")

	require.NoError(t, CleanReceptorPDB(in, out, testutil.NewMockLogger()))

	lines := cleanedLines(t, out)
	require.Len(t, lines, 3) // one N conformer, CA, END
	// The B conformer wins on occupancy and its altLoc column is blanked.
	assert.Equal(t, byte(' '), lines[0][16])
	assert.Contains(t, lines[0], "0.60")
	assert.NotContains(t, strings.Join(lines, "\n"), "0.40")
	assert.Equal(t, "END", lines[2])
}

func TestCleanReceptorPDB_RemovesWatersAndIons(t *testing.T) {
	in := writeReceptor(t,
		pdbLine("ATOM", 1, "CA", " ", "GLY", "A", 1, 1.00),
		pdbLine("HETATM", 2, "O", " ", "HOH", "A", 101, 1.00),
		pdbLine("HETATM", 3, "ZN", " ", "ZN", "A", 102, 1.00),
		pdbLine("HETATM", 4, "FE", " ", "HEM", "A", 103, 1.00),
	)
	out := filepath.Join(t.TempDir(), "clean.pdb")

	require.NoError(t, CleanReceptorPDB(in, out, testutil.NewMockLogger()))

	content := strings.Join(cleanedLines(t, out), "\n")
	assert.NotContains(t, content, "HOH")
	assert.NotContains(t, content, " ZN ")
	// Non-water, non-ion cofactors stay in the binding site.
	assert.Contains(t, content, "HEM")
	assert.Contains(t, content, "GLY")
}

func TestCleanReceptorPDB_DropsAnisotropicRecords(t *testing.T) {
	in := writeReceptor(t,
		pdbLine("ATOM", 1, "CA", " ", "ALA", "A", 1, 1.00),
		"ANISOU    1  CA  ALA A   1     1000   1000   1000      0      0      0       C",
	)
	out := filepath.Join(t.TempDir(), "clean.pdb")

	require.NoError(t, CleanReceptorPDB(in, out, testutil.NewMockLogger()))
	assert.NotContains(t, strings.Join(cleanedLines(t, out), "\n"), "ANISOU")
}

func TestCleanReceptorPDB_NoAtomsIsError(t *testing.T) {
	in := writeReceptor(t, "REMARK nothing here", "END")
	out := filepath.Join(t.TempDir(), "clean.pdb")

	err := CleanReceptorPDB(in, out, testutil.NewMockLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDockingUnavailable))
}

func TestCleanReceptorPDB_MissingInput(t *testing.T) {
	err := CleanReceptorPDB(filepath.Join(t.TempDir(), "absent.pdb"),
		filepath.Join(t.TempDir(), "clean.pdb"), testutil.NewMockLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDockingUnavailable))
}

func TestPrepareReceptor_CleansRawPDB(t *testing.T) {
	raw := writeReceptor(t,
		pdbLine("ATOM", 1, "CA", " ", "ALA", "A", 1, 1.00),
		pdbLine("HETATM", 2, "O", " ", "HOH", "A", 50, 1.00),
	)
	outDir := t.TempDir()
	engine := NewVinaEngine(config.DockingConfig{
		ProteinPath: raw,
		OutputDir:   outDir,
		Timeout:     time.Minute,
		BindingSite: config.BindingSiteConfig{
			Center: []float64{0, 0, 0},
			Size:   []float64{20, 20, 20},
		},
	}, testutil.NewMockLogger())

	require.NoError(t, engine.prepareReceptor())

	cleaned := filepath.Join(outDir, "receptor_cleaned.pdb")
	assert.Equal(t, cleaned, engine.receptorPath())
	content := strings.Join(cleanedLines(t, cleaned), "\n")
	assert.NotContains(t, content, "HOH")

	args := engine.buildArgs("lig.pdbqt", "out.pdbqt")
	assert.Contains(t, args, cleaned)
}

func TestPrepareReceptor_PassesThroughPDBQT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receptor.pdbqt")
	require.NoError(t, os.WriteFile(path, []byte("ATOM\n"), 0o644))

	engine := NewVinaEngine(config.DockingConfig{
		ProteinPath: path,
		OutputDir:   t.TempDir(),
		Timeout:     time.Minute,
	}, testutil.NewMockLogger())

	require.NoError(t, engine.prepareReceptor())
	assert.Equal(t, path, engine.receptorPath())
}
