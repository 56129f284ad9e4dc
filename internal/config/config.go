// Package config defines all configuration structures for MolVista.  No I/O
// or parsing logic lives here — only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/MolVista/internal/infrastructure/logging"
)

// InputConfig describes the compound table to analyse.
type InputConfig struct {
	// CSVFile is the input table.  Required for an analysis run.
	CSVFile string `mapstructure:"csv_file"`

	// SMILESColumn is the header of the column holding the structure
	// encoding.  Rows whose value fails SMILES validation are skipped.
	SMILESColumn string `mapstructure:"smiles_column"`

	// NameColumn is the optional display-name column; absent names are
	// generated as Compound_<n>.
	NameColumn string `mapstructure:"name_column"`

	// PropertyColumns lists additional numeric columns to carry into each
	// record's descriptor map under their normalised names.
	PropertyColumns []string `mapstructure:"property_columns"`
}

// PCAConfig controls the linear chemical-space projection.
type PCAConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	NComponents int  `mapstructure:"n_components"`
}

// TSNEConfig controls the non-linear chemical-space projection.  t-SNE is
// additionally gated on a minimum usable-compound count at run time.
type TSNEConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Perplexity   float64 `mapstructure:"perplexity"`
	LearningRate float64 `mapstructure:"learning_rate"`
	MaxIter      int     `mapstructure:"max_iter"`
}

// ChemicalSpaceConfig groups the projection settings.
type ChemicalSpaceConfig struct {
	PCA  PCAConfig  `mapstructure:"pca"`
	TSNE TSNEConfig `mapstructure:"tsne"`
}

// FingerprintConfig controls fingerprint generation for chemical space.
type FingerprintConfig struct {
	Type   string `mapstructure:"type"` // "morgan" | "topological"
	Radius int    `mapstructure:"radius"`
	NBits  int    `mapstructure:"n_bits"`
}

// AnalysisConfig groups descriptor and chemical-space settings.
type AnalysisConfig struct {
	CalculateDescriptors bool                `mapstructure:"calculate_descriptors"`
	ChemicalSpace        ChemicalSpaceConfig `mapstructure:"chemical_space"`
	Fingerprints         FingerprintConfig   `mapstructure:"fingerprints"`
}

// BindingSiteConfig defines the docking search box.
type BindingSiteConfig struct {
	Center []float64 `mapstructure:"center"` // x, y, z
	Size   []float64 `mapstructure:"size"`   // x, y, z
}

// DockingParameters are passed through to the docking executable.
type DockingParameters struct {
	Exhaustiveness int `mapstructure:"exhaustiveness"`
	NumModes       int `mapstructure:"num_modes"`
	EnergyRange    int `mapstructure:"energy_range"`
}

// DockingConfig controls the optional docking stage.
type DockingConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// ProteinPath is the receptor structure file (PDB/PDBQT).
	ProteinPath string `mapstructure:"protein_structure_path"`

	// ExecutablePath is the Vina-compatible docking binary.  An empty value
	// means "look up 'vina' on PATH".
	ExecutablePath string `mapstructure:"docking_executable_path"`

	BindingSite BindingSiteConfig `mapstructure:"binding_site"`
	Parameters  DockingParameters `mapstructure:"parameters"`

	// OutputDir receives per-compound pose and log files.
	OutputDir string `mapstructure:"output_dir"`

	// Timeout bounds a single docking invocation; on expiry the compound is
	// recorded as a soft docking failure and the run continues.
	Timeout time.Duration `mapstructure:"timeout"`
}

// PlotConfig defines one property scatter plot.  Field names are normalised
// descriptor keys and are validated against the keys actually present in the
// assembled record set.
type PlotConfig struct {
	XAxis   string `mapstructure:"x_axis"`
	YAxis   string `mapstructure:"y_axis"`
	ColorBy string `mapstructure:"color_by"`
}

// VisualizationConfig controls dashboard output.
type VisualizationConfig struct {
	OutputFile    string                `mapstructure:"output_file"`
	Title         string                `mapstructure:"title"`
	PropertyPlots map[string]PlotConfig `mapstructure:"property_plots"`
}

// PoseStoreConfig optionally publishes docking poses and the sidecar table to
// an S3-compatible object store.
type PoseStoreConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`
}

// ExportConfig controls the optional sidecar CSV and artifact upload.
type ExportConfig struct {
	Enabled   bool            `mapstructure:"enabled"`
	File      string          `mapstructure:"file"`
	PoseStore PoseStoreConfig `mapstructure:"pose_store"`
}

// PerformanceConfig bounds intra-stage parallelism.
type PerformanceConfig struct {
	// Workers is the errgroup pool size for per-compound work.  Zero means
	// "one per CPU".
	Workers int `mapstructure:"workers"`
}

// Config is the root configuration for a MolVista run.
type Config struct {
	Input         InputConfig         `mapstructure:"input"`
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Docking       DockingConfig       `mapstructure:"docking"`
	Visualization VisualizationConfig `mapstructure:"visualization"`
	Export        ExportConfig        `mapstructure:"export"`
	Performance   PerformanceConfig   `mapstructure:"performance"`
	Log           logging.LogConfig   `mapstructure:"log"`
}

// Validate checks structural correctness of the configuration.  Everything it
// rejects is a fatal error per the pipeline failure policy; data-dependent
// checks (plot fields versus present descriptor keys) happen at assembly.
func (c *Config) Validate() error {
	if c.Input.CSVFile == "" {
		return fmt.Errorf("input.csv_file is required")
	}
	if c.Input.SMILESColumn == "" {
		return fmt.Errorf("input.smiles_column must not be empty")
	}

	if c.Analysis.ChemicalSpace.PCA.Enabled && c.Analysis.ChemicalSpace.PCA.NComponents < 2 {
		return fmt.Errorf("analysis.chemical_space.pca.n_components must be >= 2, got %d",
			c.Analysis.ChemicalSpace.PCA.NComponents)
	}
	if c.Analysis.ChemicalSpace.TSNE.Enabled && c.Analysis.ChemicalSpace.TSNE.Perplexity <= 0 {
		return fmt.Errorf("analysis.chemical_space.tsne.perplexity must be positive")
	}
	if c.Analysis.Fingerprints.NBits <= 0 {
		return fmt.Errorf("analysis.fingerprints.n_bits must be positive")
	}

	if c.Docking.Enabled {
		if c.Docking.ProteinPath == "" {
			return fmt.Errorf("docking.protein_structure_path is required when docking is enabled")
		}
		if len(c.Docking.BindingSite.Center) != 3 {
			return fmt.Errorf("docking.binding_site.center must have exactly 3 values, got %d",
				len(c.Docking.BindingSite.Center))
		}
		if len(c.Docking.BindingSite.Size) != 3 {
			return fmt.Errorf("docking.binding_site.size must have exactly 3 values, got %d",
				len(c.Docking.BindingSite.Size))
		}
		if c.Docking.Timeout <= 0 {
			return fmt.Errorf("docking.timeout must be positive")
		}
	}

	if c.Visualization.OutputFile == "" {
		return fmt.Errorf("visualization.output_file must not be empty")
	}
	for name, plot := range c.Visualization.PropertyPlots {
		if plot.XAxis == "" || plot.YAxis == "" {
			return fmt.Errorf("visualization.property_plots.%s: x_axis and y_axis are required", name)
		}
	}

	if c.Export.PoseStore.Enabled {
		if c.Export.PoseStore.Endpoint == "" || c.Export.PoseStore.Bucket == "" {
			return fmt.Errorf("export.pose_store requires endpoint and bucket when enabled")
		}
	}

	if c.Performance.Workers < 0 {
		return fmt.Errorf("performance.workers must not be negative")
	}

	return nil
}
