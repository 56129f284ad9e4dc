package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolVista/internal/testutil"
	"github.com/turtacn/MolVista/pkg/errors"
)

const sampleSDF = `Ethanol
  MolVista

  3  2  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.5000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    2.2500    1.2990    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0  0  0  0
  2  3  1  0  0  0  0
M  END
> <SMILES>
CCO

> <pIC50>
5.2

> <Series>
alcohols

$$$$
Benzene
  MolVista

  6  6  0  0  0  0  0  0  0  0999 V2000
M  END
> <smiles>
c1ccccc1

> <pIC50>
4.1

$$$$
`

func TestReadSDF_ParsesEntries(t *testing.T) {
	path := writeTemp(t, "compounds.sdf", sampleSDF)
	entries, err := ReadSDF(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Ethanol", entries[0].Title)
	assert.Equal(t, "CCO", entries[0].Fields["SMILES"])
	assert.Equal(t, "5.2", entries[0].Fields["pIC50"])
	assert.Equal(t, "alcohols", entries[0].Fields["Series"])

	smiles, ok := entries[1].SMILES()
	assert.True(t, ok, "lowercase smiles tag must be accepted")
	assert.Equal(t, "c1ccccc1", smiles)
}

func TestReadSDF_MissingFile(t *testing.T) {
	_, err := ReadSDF(filepath.Join(t.TempDir(), "nope.sdf"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInputUnreadable))
}

func TestReadSDF_EmptyFile(t *testing.T) {
	path := writeTemp(t, "empty.sdf", "\n\n")
	_, err := ReadSDF(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInputParse))
}

func TestReadSDFRecords_MapsFields(t *testing.T) {
	path := writeTemp(t, "compounds.sdf", sampleSDF)
	log := testutil.NewMockLogger()
	records, err := ReadSDFRecords(path, log)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Ethanol", records[0].Name)
	assert.Equal(t, "CCO", records[0].SMILES)
	assert.Equal(t, 5.2, records[0].Properties["pic50"])
	// Non-numeric data fields stay absent from numeric properties.
	_, ok := records[0].Properties["series"]
	assert.False(t, ok)
}

func TestReadSDFRecords_MissingSMILESField(t *testing.T) {
	path := writeTemp(t, "compounds.sdf", `NoSmilesHere
  MolVista

M  END
> <pIC50>
3.0

$$$$
`)
	log := testutil.NewMockLogger()
	records, err := ReadSDFRecords(path, log)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].SMILES)
	assert.Equal(t, 1, log.CountLevel("warn"))
}

func TestConvertSDFToCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "compounds.sdf")
	require.NoError(t, os.WriteFile(in, []byte(sampleSDF), 0o644))
	out := filepath.Join(dir, "compounds.csv")

	log := testutil.NewMockLogger()
	n, err := ConvertSDFToCSV(in, out, log)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := ReadCSV(out, CSVOptions{SMILESColumn: "SMILES", NameColumn: "Name"}, log)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "CCO", records[0].SMILES)
	assert.Equal(t, "Ethanol", records[0].Name)
	assert.Equal(t, 5.2, records[0].Properties["pic50"])
	assert.Equal(t, "c1ccccc1", records[1].SMILES)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, "sdf", DetectFormat("in.SDF"))
	assert.Equal(t, "sdf", DetectFormat("in.mol"))
	assert.Equal(t, "csv", DetectFormat("table.csv"))
	assert.Equal(t, "csv", DetectFormat("table.txt"))
}

func TestLoad_DispatchesOnExtension(t *testing.T) {
	log := testutil.NewMockLogger()
	sdfPath := writeTemp(t, "a.sdf", sampleSDF)
	records, err := Load(sdfPath, CSVOptions{}, log)
	require.NoError(t, err)
	assert.Equal(t, "CCO", records[0].SMILES)

	csvPath := writeTemp(t, "a.csv", "SMILES\nCCN\n")
	records, err = Load(csvPath, CSVOptions{SMILESColumn: "SMILES"}, log)
	require.NoError(t, err)
	assert.Equal(t, "CCN", records[0].SMILES)
}
