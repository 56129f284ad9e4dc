// Package chemspace projects fingerprint vectors into 2D chemical-space
// coordinates.  PCA runs through gonum's stat.PC; t-SNE is delegated to the
// go-tsne implementation of Barnes-Hut t-SNE.
package chemspace

import (
	"fmt"

	"github.com/danaugrs/go-tsne/tsne"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/turtacn/MolVista/internal/config"
	"github.com/turtacn/MolVista/pkg/errors"
)

// MinTSNESamples is the smallest dataset t-SNE runs on.  Below this the
// neighbor distributions are too sparse for a meaningful embedding and the
// stage is skipped with a notice.
const MinTSNESamples = 10

// MinPCASamples is the smallest dataset PCA runs on.  A single observation
// has no variance to decompose; the stage is skipped with a notice.
const MinPCASamples = 2

// ShouldRunTSNE reports whether the dataset is large enough for t-SNE.
func ShouldRunTSNE(n int) bool { return n >= MinTSNESamples }

// ShouldRunPCA reports whether the dataset is large enough for PCA.
func ShouldRunPCA(n int) bool { return n >= MinPCASamples }

// EffectivePerplexity caps the configured perplexity at n/4 so small
// datasets keep a valid neighbor count.
func EffectivePerplexity(configured float64, n int) float64 {
	if limit := float64(n) / 4; configured > limit {
		return limit
	}
	return configured
}

// BuildMatrix packs per-compound vectors into a dense row-major matrix.
// All vectors must share a length.
func BuildMatrix(vectors [][]float64) (*mat.Dense, error) {
	if len(vectors) == 0 {
		return nil, errors.InvalidParam("no vectors to embed")
	}
	cols := len(vectors[0])
	if cols == 0 {
		return nil, errors.InvalidParam("zero-length fingerprint vectors")
	}
	m := mat.NewDense(len(vectors), cols, nil)
	for i, v := range vectors {
		if len(v) != cols {
			return nil, errors.InvalidParam(
				fmt.Sprintf("vector %d has length %d, want %d", i, len(v), cols))
		}
		m.SetRow(i, v)
	}
	return m, nil
}

// Standardize centers each column and scales it to unit variance in place.
// Constant columns are left centered only.
func Standardize(m *mat.Dense) {
	rows, cols := m.Dims()
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		mean, std := stat.MeanStdDev(col, nil)
		for i := 0; i < rows; i++ {
			v := col[i] - mean
			if std > 0 {
				v /= std
			}
			m.Set(i, j, v)
		}
	}
}

// PCA projects the observation matrix onto its first nComponents principal
// axes and returns the projected coordinates together with the fraction of
// variance captured by each kept component.
func PCA(m *mat.Dense, nComponents int) ([][]float64, []float64, error) {
	rows, cols := m.Dims()
	if !ShouldRunPCA(rows) {
		return nil, nil, errors.New(errors.CodeStageDisabled,
			fmt.Sprintf("PCA requires at least %d compounds", MinPCASamples))
	}
	k := nComponents
	if k > cols {
		k = cols
	}
	if k > rows {
		k = rows
	}
	if k < 1 {
		return nil, nil, errors.InvalidParam("n_components must be positive")
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(m, nil); !ok {
		return nil, nil, errors.New(errors.CodePipelineFailed, "principal component decomposition failed")
	}

	var vec mat.Dense
	pc.VectorsTo(&vec)

	var proj mat.Dense
	proj.Mul(m, vec.Slice(0, cols, 0, k))

	coords := make([][]float64, rows)
	for i := range coords {
		coords[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			coords[i][j] = proj.At(i, j)
		}
	}

	vars := pc.VarsTo(nil)
	total := 0.0
	for _, v := range vars {
		total += v
	}
	explained := make([]float64, k)
	if total > 0 {
		for j := 0; j < k; j++ {
			explained[j] = vars[j] / total
		}
	}
	return coords, explained, nil
}

// TSNE embeds the observation matrix into 2D.  The caller is expected to
// gate on ShouldRunTSNE first; running below the minimum is an error here.
func TSNE(m *mat.Dense, cfg config.TSNEConfig) ([][]float64, error) {
	rows, _ := m.Dims()
	if !ShouldRunTSNE(rows) {
		return nil, errors.New(errors.CodeStageDisabled,
			fmt.Sprintf("t-SNE requires at least %d compounds", MinTSNESamples))
	}

	perplexity := EffectivePerplexity(cfg.Perplexity, rows)
	t := tsne.NewTSNE(2, perplexity, cfg.LearningRate, cfg.MaxIter, false)
	embedding := t.EmbedData(m, nil)

	coords := make([][]float64, rows)
	for i := range coords {
		coords[i] = []float64{embedding.At(i, 0), embedding.At(i, 1)}
	}
	return coords, nil
}
