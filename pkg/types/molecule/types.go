// Package molecule defines the shared vocabulary for molecular data used
// across layers: descriptor keys, fingerprint types, and the helpers that
// normalise user-supplied property names.  No behaviour beyond plain data
// lives here.
package molecule

import "strings"

// FingerprintType identifies the fingerprint algorithm used for chemical
// space analysis.
type FingerprintType string

const (
	FPMorgan      FingerprintType = "morgan"
	FPTopological FingerprintType = "topological"
)

// IsValid reports whether the fingerprint type is supported.
func (t FingerprintType) IsValid() bool {
	switch t {
	case FPMorgan, FPTopological:
		return true
	default:
		return false
	}
}

func (t FingerprintType) String() string { return string(t) }

// Core descriptor keys.  These are the fixed set computed for every compound;
// user-supplied property columns are carried alongside under their normalised
// names.  A missing key means "not computed", never zero.
const (
	DescMW         = "mw"         // molecular weight (Da)
	DescLogP       = "logp"       // lipophilicity estimate
	DescTPSA       = "tpsa"       // topological polar surface area (Å²)
	DescQED        = "qed"        // drug-likeness score [0,1]
	DescSAScore    = "sascore"    // synthetic accessibility [1,10]
	DescHBA        = "hba"        // hydrogen-bond acceptors
	DescHBD        = "hbd"        // hydrogen-bond donors
	DescRotBonds   = "rotbonds"   // rotatable bonds
	DescNumRings   = "numrings"   // ring count
	DescHeavyAtoms = "heavyatoms" // non-hydrogen atom count
	DescFsp3       = "fsp3"       // fraction of sp3 carbons [0,1]
)

// CoreDescriptorKeys returns the fixed descriptor set in display order.
func CoreDescriptorKeys() []string {
	return []string{
		DescMW, DescLogP, DescTPSA, DescQED, DescSAScore,
		DescHBA, DescHBD, DescRotBonds, DescNumRings,
		DescHeavyAtoms, DescFsp3,
	}
}

// descriptorLabels maps descriptor keys to human-readable labels for the
// dashboard detail panel and axis titles.
var descriptorLabels = map[string]string{
	DescMW:         "Molecular Weight",
	DescLogP:       "LogP",
	DescTPSA:       "TPSA",
	DescQED:        "QED",
	DescSAScore:    "SA Score",
	DescHBA:        "H-Bond Acceptors",
	DescHBD:        "H-Bond Donors",
	DescRotBonds:   "Rotatable Bonds",
	DescNumRings:   "Ring Count",
	DescHeavyAtoms: "Heavy Atoms",
	DescFsp3:       "Fsp3",
}

// descriptorUnits maps descriptor keys to display units.  Keys without an
// entry are dimensionless.
var descriptorUnits = map[string]string{
	DescMW:   "Da",
	DescTPSA: "Å²",
}

// DescriptorLabel returns the display label for a descriptor key.  Unknown
// keys (user-supplied properties) are returned as-is.
func DescriptorLabel(key string) string {
	if l, ok := descriptorLabels[key]; ok {
		return l
	}
	return key
}

// DescriptorUnit returns the display unit for a descriptor key, or "" when
// the value is dimensionless.
func DescriptorUnit(key string) string {
	return descriptorUnits[key]
}

// NormalizeKey converts an arbitrary property column name into the canonical
// descriptor-map key form: lowercase, spaces and hyphens replaced with
// underscores.  CSV headers like "Binding Affinity" become "binding_affinity".
func NormalizeKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}
