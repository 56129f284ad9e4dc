// Package config provides configuration loading, defaults, and validation for
// MolVista.
package config

import (
	"runtime"
	"time"

	mtypes "github.com/turtacn/MolVista/pkg/types/molecule"
)

// Default value constants.
const (
	DefaultSMILESColumn = "SMILES"
	DefaultNameColumn   = "Name"

	DefaultPCAComponents  = 2
	DefaultTSNEPerplexity = 30.0
	DefaultTSNELearnRate  = 300.0
	DefaultTSNEMaxIter    = 300

	DefaultFingerprintType   = "morgan"
	DefaultFingerprintRadius = 2
	DefaultFingerprintBits   = 2048

	DefaultExhaustiveness = 8
	DefaultNumModes       = 9
	DefaultEnergyRange    = 3
	DefaultDockingDir     = "docking_results"
	DefaultDockingTimeout = 5 * time.Minute

	DefaultOutputFile = "molecular_analysis_dashboard.html"
	DefaultTitle      = "Molecular Visualization and Analysis"

	DefaultExportFile = "analysis_results.csv"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// NewDefault returns a Config with every field set to its documented default
// and descriptors, PCA, and t-SNE enabled.  Used when no config file is given
// and as the base for sample-config generation.
func NewDefault() *Config {
	cfg := &Config{}
	cfg.Analysis.CalculateDescriptors = true
	cfg.Analysis.ChemicalSpace.PCA.Enabled = true
	cfg.Analysis.ChemicalSpace.TSNE.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-value field in cfg with the documented
// default.  Fields already set by the caller are left unchanged so explicit
// configuration always wins.  It must run after unmarshalling and before
// Validate() so optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Input
	if cfg.Input.SMILESColumn == "" {
		cfg.Input.SMILESColumn = DefaultSMILESColumn
	}
	if cfg.Input.NameColumn == "" {
		cfg.Input.NameColumn = DefaultNameColumn
	}

	// Analysis
	if cfg.Analysis.ChemicalSpace.PCA.NComponents == 0 {
		cfg.Analysis.ChemicalSpace.PCA.NComponents = DefaultPCAComponents
	}
	if cfg.Analysis.ChemicalSpace.TSNE.Perplexity == 0 {
		cfg.Analysis.ChemicalSpace.TSNE.Perplexity = DefaultTSNEPerplexity
	}
	if cfg.Analysis.ChemicalSpace.TSNE.LearningRate == 0 {
		cfg.Analysis.ChemicalSpace.TSNE.LearningRate = DefaultTSNELearnRate
	}
	if cfg.Analysis.ChemicalSpace.TSNE.MaxIter == 0 {
		cfg.Analysis.ChemicalSpace.TSNE.MaxIter = DefaultTSNEMaxIter
	}
	if cfg.Analysis.Fingerprints.Type == "" {
		cfg.Analysis.Fingerprints.Type = DefaultFingerprintType
	}
	if cfg.Analysis.Fingerprints.Radius == 0 {
		cfg.Analysis.Fingerprints.Radius = DefaultFingerprintRadius
	}
	if cfg.Analysis.Fingerprints.NBits == 0 {
		cfg.Analysis.Fingerprints.NBits = DefaultFingerprintBits
	}

	// Docking
	if cfg.Docking.Parameters.Exhaustiveness == 0 {
		cfg.Docking.Parameters.Exhaustiveness = DefaultExhaustiveness
	}
	if cfg.Docking.Parameters.NumModes == 0 {
		cfg.Docking.Parameters.NumModes = DefaultNumModes
	}
	if cfg.Docking.Parameters.EnergyRange == 0 {
		cfg.Docking.Parameters.EnergyRange = DefaultEnergyRange
	}
	if cfg.Docking.OutputDir == "" {
		cfg.Docking.OutputDir = DefaultDockingDir
	}
	if cfg.Docking.Timeout == 0 {
		cfg.Docking.Timeout = DefaultDockingTimeout
	}

	// Visualization
	if cfg.Visualization.OutputFile == "" {
		cfg.Visualization.OutputFile = DefaultOutputFile
	}
	if cfg.Visualization.Title == "" {
		cfg.Visualization.Title = DefaultTitle
	}
	if len(cfg.Visualization.PropertyPlots) == 0 {
		cfg.Visualization.PropertyPlots = map[string]PlotConfig{
			"primary_plot": {
				XAxis:   mtypes.DescMW,
				YAxis:   mtypes.DescLogP,
				ColorBy: mtypes.DescQED,
			},
		}
	}

	// Export
	if cfg.Export.File == "" {
		cfg.Export.File = DefaultExportFile
	}

	// Performance
	if cfg.Performance.Workers == 0 {
		cfg.Performance.Workers = runtime.NumCPU()
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
