// Package dataset defines the compound record model shared by the analysis
// pipeline and the dashboard renderer.  Records carry a stable zero-based
// index, assigned once after input filtering, that every plot and panel uses
// as the cross-highlighting key.
package dataset

import (
	"sort"

	"github.com/turtacn/MolVista/pkg/errors"
)

// Embedding kinds stored on a record.
const (
	EmbedPCA  = "pca"
	EmbedTSNE = "tsne"
)

// DockingResult holds the outcome of one ligand's docking run.
type DockingResult struct {
	// Score is the best-mode binding affinity in kcal/mol (more negative
	// is stronger).
	Score float64 `json:"score"`
	// PoseRank is the mode the score came from, 1-based.
	PoseRank int `json:"pose_rank"`
	// PoseFile is the local path of the output pose file, if kept.
	PoseFile string `json:"pose_file,omitempty"`
	// PoseRef is an object-store reference for the uploaded pose.
	PoseRef string `json:"pose_ref,omitempty"`
}

// Neighbor points at the most structurally similar other compound in the
// dataset, measured by fingerprint Tanimoto similarity.
type Neighbor struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// Record is a single compound after successful loading.  Index is its
// position in the filtered dataset and never changes once assigned.
//
// Descriptors and Properties deliberately omit keys that could not be
// computed or parsed; consumers must treat a missing key as "not available",
// never as zero.
type Record struct {
	Index       int                   `json:"index"`
	Name        string                `json:"name"`
	SMILES      string                `json:"smiles"`
	Descriptors map[string]float64    `json:"descriptors,omitempty"`
	Properties  map[string]float64    `json:"properties,omitempty"`
	Embeddings  map[string][2]float64 `json:"embeddings,omitempty"`
	Docking     *DockingResult        `json:"docking,omitempty"`
	Neighbor    *Neighbor             `json:"neighbor,omitempty"`
	// Image is a self-contained data URI depiction, empty when depiction
	// failed.
	Image string `json:"image,omitempty"`
}

// Value looks up a descriptor or property by key, descriptors first.
func (r *Record) Value(key string) (float64, bool) {
	if v, ok := r.Descriptors[key]; ok {
		return v, true
	}
	v, ok := r.Properties[key]
	return v, ok
}

// SetEmbedding stores a 2D coordinate under the given kind.
func (r *Record) SetEmbedding(kind string, x, y float64) {
	if r.Embeddings == nil {
		r.Embeddings = make(map[string][2]float64, 2)
	}
	r.Embeddings[kind] = [2]float64{x, y}
}

// Skip records one input row that was dropped before index assignment.
type Skip struct {
	// Position is the 1-based data row number in the source file.
	Position int    `json:"position"`
	SMILES   string `json:"smiles"`
	Reason   string `json:"reason"`
}

// Collection is the assembled dataset: records in input order with
// contiguous indices, plus the skip report for everything filtered out.
type Collection struct {
	Records []*Record `json:"records"`
	Skipped []Skip    `json:"skipped,omitempty"`
}

// NewCollection assigns contiguous indices 0..len(records)-1 in the order
// given and returns the collection.  Order must already be input order;
// duplicated SMILES stay as distinct records.
func NewCollection(records []*Record, skipped []Skip) (*Collection, error) {
	if len(records) == 0 {
		return nil, errors.New(errors.CodeNoUsableRecords, "no usable compound records after filtering")
	}
	for i, r := range records {
		r.Index = i
	}
	return &Collection{Records: records, Skipped: skipped}, nil
}

// Len returns the number of usable records.
func (c *Collection) Len() int { return len(c.Records) }

// HasEmbedding reports whether every record carries the given embedding kind.
func (c *Collection) HasEmbedding(kind string) bool {
	if len(c.Records) == 0 {
		return false
	}
	for _, r := range c.Records {
		if _, ok := r.Embeddings[kind]; !ok {
			return false
		}
	}
	return true
}

// DockedCount returns how many records carry a docking result.
func (c *Collection) DockedCount() int {
	n := 0
	for _, r := range c.Records {
		if r.Docking != nil {
			n++
		}
	}
	return n
}

// NumericKeys returns the sorted union of descriptor and property keys
// present on at least one record.  Plot definitions are validated against
// this set.
func (c *Collection) NumericKeys() []string {
	seen := map[string]struct{}{}
	for _, r := range c.Records {
		for k := range r.Descriptors {
			seen[k] = struct{}{}
		}
		for k := range r.Properties {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasKey reports whether any record carries the given descriptor or
// property key.
func (c *Collection) HasKey(key string) bool {
	for _, r := range c.Records {
		if _, ok := r.Value(key); ok {
			return true
		}
	}
	return false
}
