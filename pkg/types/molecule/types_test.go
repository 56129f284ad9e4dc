package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintType_IsValid(t *testing.T) {
	assert.True(t, FPMorgan.IsValid())
	assert.True(t, FPTopological.IsValid())
	assert.False(t, FingerprintType("maccs").IsValid())
	assert.False(t, FingerprintType("").IsValid())
}

func TestCoreDescriptorKeys(t *testing.T) {
	keys := CoreDescriptorKeys()
	assert.Len(t, keys, 11)
	assert.Equal(t, DescMW, keys[0])
	// All keys carry a display label.
	for _, k := range keys {
		assert.NotEqual(t, "", DescriptorLabel(k))
	}
}

func TestDescriptorLabel_Unknown(t *testing.T) {
	assert.Equal(t, "binding_affinity", DescriptorLabel("binding_affinity"))
}

func TestDescriptorUnit(t *testing.T) {
	assert.Equal(t, "Da", DescriptorUnit(DescMW))
	assert.Equal(t, "Å²", DescriptorUnit(DescTPSA))
	assert.Equal(t, "", DescriptorUnit(DescQED))
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Binding Affinity", "binding_affinity"},
		{"IC50", "ic50"},
		{"  pKa  ", "pka"},
		{"Half-Life", "half_life"},
		{"logp", "logp"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeKey(tt.in), tt.in)
	}
}
