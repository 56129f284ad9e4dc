package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "molvista.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfigFile(t, `
input:
  csv_file: compounds.csv
  smiles_column: Structure
  property_columns: [IC50, Solubility]
analysis:
  calculate_descriptors: true
  chemical_space:
    pca:
      enabled: true
      n_components: 3
    tsne:
      enabled: true
      perplexity: 15
visualization:
  output_file: out.html
  title: Screening Set
  property_plots:
    main:
      x_axis: mw
      y_axis: tpsa
      color_by: qed
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "compounds.csv", cfg.Input.CSVFile)
	assert.Equal(t, "Structure", cfg.Input.SMILESColumn)
	assert.Equal(t, []string{"IC50", "Solubility"}, cfg.Input.PropertyColumns)
	assert.Equal(t, 3, cfg.Analysis.ChemicalSpace.PCA.NComponents)
	assert.Equal(t, 15.0, cfg.Analysis.ChemicalSpace.TSNE.Perplexity)
	assert.Equal(t, "out.html", cfg.Visualization.OutputFile)
	assert.Equal(t, "tpsa", cfg.Visualization.PropertyPlots["main"].YAxis)

	// Defaults filled for unset fields.
	assert.Equal(t, "Name", cfg.Input.NameColumn)
	assert.Equal(t, 2048, cfg.Analysis.Fingerprints.NBits)
}

func TestLoad_UnknownKeysIgnored(t *testing.T) {
	path := writeConfigFile(t, `
input:
  csv_file: c.csv
  some_future_option: 42
totally_unknown_section:
  x: 1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "c.csv", cfg.Input.CSVFile)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "input: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MOLVISTA_INPUT_CSV_FILE", "env.csv")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env.csv", cfg.Input.CSVFile)

	// Stage toggles default to on unless explicitly disabled.
	assert.True(t, cfg.Analysis.CalculateDescriptors)
	assert.True(t, cfg.Analysis.ChemicalSpace.PCA.Enabled)
	assert.True(t, cfg.Analysis.ChemicalSpace.TSNE.Enabled)
}

func TestLoadFromEnv_TypedKeys(t *testing.T) {
	t.Setenv("MOLVISTA_INPUT_CSV_FILE", "env.csv")
	t.Setenv("MOLVISTA_PERFORMANCE_WORKERS", "3")
	t.Setenv("MOLVISTA_ANALYSIS_CHEMICAL_SPACE_TSNE_ENABLED", "false")
	t.Setenv("MOLVISTA_DOCKING_TIMEOUT", "90s")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Performance.Workers)
	assert.False(t, cfg.Analysis.ChemicalSpace.TSNE.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Docking.Timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
input:
  csv_file: file.csv
  smiles_column: Structure
`)
	t.Setenv("MOLVISTA_INPUT_SMILES_COLUMN", "Canonical")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file.csv", cfg.Input.CSVFile)
	assert.Equal(t, "Canonical", cfg.Input.SMILESColumn)
}

func TestLoad_ExplicitDisableWins(t *testing.T) {
	path := writeConfigFile(t, `
input:
  csv_file: c.csv
analysis:
  chemical_space:
    tsne:
      enabled: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Analysis.ChemicalSpace.TSNE.Enabled)
	assert.True(t, cfg.Analysis.ChemicalSpace.PCA.Enabled)
}

func TestFinalize_Validates(t *testing.T) {
	cfg := &Config{}
	err := Finalize(cfg)
	assert.ErrorContains(t, err, "input.csv_file")

	cfg.Input.CSVFile = "x.csv"
	assert.NoError(t, Finalize(cfg))
}
