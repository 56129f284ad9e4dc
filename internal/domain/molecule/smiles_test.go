package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolVista/pkg/errors"
)

func TestValidateSMILES_Accepts(t *testing.T) {
	valid := []string{
		"C",
		"CCO",
		"c1ccccc1",
		"CC(=O)Oc1ccccc1C(=O)O",
		"C1CCCCC1",
		"[NH4+]",
		"CC(C)Cc1ccc(cc1)C(C)C(=O)O",
		"C/C=C/C",
		"[Na+].[Cl-]",
		"C%10CCCCC%10",
	}
	for _, s := range valid {
		got, err := ValidateSMILES(s)
		assert.NoError(t, err, "smiles %q", s)
		assert.Equal(t, s, got)
	}
}

func TestValidateSMILES_TrimsWhitespace(t *testing.T) {
	got, err := ValidateSMILES("  CCO \n")
	require.NoError(t, err)
	assert.Equal(t, "CCO", got)
}

func TestValidateSMILES_Rejects(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"C(",
		"C)",
		"C1CC",
		"[CH",
		"C&C",
		"%1",
		"1CC",
	}
	for _, s := range invalid {
		_, err := ValidateSMILES(s)
		assert.Error(t, err, "smiles %q", s)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidSMILES), "smiles %q", s)
	}
}

func TestParseSMILES_Ethanol(t *testing.T) {
	g, err := ParseSMILES("CCO")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 3)
	require.Len(t, g.Bonds, 2)

	assert.Equal(t, "C", g.Atoms[0].Symbol)
	assert.Equal(t, "O", g.Atoms[2].Symbol)
	assert.Equal(t, 3, g.Atoms[0].HCount)
	assert.Equal(t, 2, g.Atoms[1].HCount)
	assert.Equal(t, 1, g.Atoms[2].HCount)
	assert.Equal(t, 0, g.RingCount())
}

func TestParseSMILES_Benzene(t *testing.T) {
	g, err := ParseSMILES("c1ccccc1")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 6)
	require.Len(t, g.Bonds, 6)

	for i, a := range g.Atoms {
		assert.Equal(t, "C", a.Symbol)
		assert.True(t, a.Aromatic, "atom %d", i)
		assert.True(t, a.InRing, "atom %d", i)
		assert.Equal(t, 1, a.HCount, "atom %d", i)
	}
	for i, b := range g.Bonds {
		assert.True(t, b.Aromatic, "bond %d", i)
		assert.True(t, b.InRing, "bond %d", i)
	}
	assert.Equal(t, 1, g.RingCount())
}

func TestParseSMILES_Branches(t *testing.T) {
	// Isobutane: central carbon carries three methyls.
	g, err := ParseSMILES("CC(C)C")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 4)
	require.Len(t, g.Bonds, 3)
	assert.Equal(t, 3, g.Degree(1))
	assert.Equal(t, 1, g.Atoms[1].HCount)
}

func TestParseSMILES_BondOrders(t *testing.T) {
	g, err := ParseSMILES("C=C")
	require.NoError(t, err)
	require.Len(t, g.Bonds, 1)
	assert.Equal(t, 2, g.Bonds[0].Order)
	assert.Equal(t, 2, g.Atoms[0].HCount)

	g, err = ParseSMILES("C#N")
	require.NoError(t, err)
	require.Len(t, g.Bonds, 1)
	assert.Equal(t, 3, g.Bonds[0].Order)
	assert.Equal(t, 1, g.Atoms[0].HCount)
	assert.Equal(t, 0, g.Atoms[1].HCount)
}

func TestParseSMILES_BracketAtoms(t *testing.T) {
	g, err := ParseSMILES("[NH4+]")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 1)
	assert.Equal(t, "N", g.Atoms[0].Symbol)
	assert.Equal(t, 4, g.Atoms[0].HCount)
	assert.Equal(t, 1, g.Atoms[0].Charge)

	g, err = ParseSMILES("[O-]")
	require.NoError(t, err)
	assert.Equal(t, -1, g.Atoms[0].Charge)

	g, err = ParseSMILES("[13CH4]")
	require.NoError(t, err)
	assert.Equal(t, "C", g.Atoms[0].Symbol)
	assert.Equal(t, 4, g.Atoms[0].HCount)
}

func TestParseSMILES_TwoLetterElements(t *testing.T) {
	g, err := ParseSMILES("ClCCBr")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 4)
	assert.Equal(t, "Cl", g.Atoms[0].Symbol)
	assert.Equal(t, "Br", g.Atoms[3].Symbol)
}

func TestParseSMILES_DisconnectedComponents(t *testing.T) {
	g, err := ParseSMILES("[Na+].[Cl-]")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 2)
	assert.Empty(t, g.Bonds)
	assert.Equal(t, 0, g.RingCount())
}

func TestParseSMILES_FusedRings(t *testing.T) {
	// Naphthalene has two fused rings.
	g, err := ParseSMILES("c1ccc2ccccc2c1")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 10)
	assert.Equal(t, 2, g.RingCount())
	for i := range g.Atoms {
		assert.True(t, g.Atoms[i].InRing, "atom %d", i)
	}
}

func TestParseSMILES_RingBondNotOnBridge(t *testing.T) {
	// Methylcyclohexane: the exocyclic methyl bond must not be marked.
	g, err := ParseSMILES("CC1CCCCC1")
	require.NoError(t, err)
	assert.False(t, g.Atoms[0].InRing)
	assert.False(t, g.Bonds[0].InRing)
	assert.True(t, g.Atoms[1].InRing)
	assert.Equal(t, 1, g.RingCount())
}
