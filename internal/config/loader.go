package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all MolVista settings.
const envPrefix = "MOLVISTA"

// envKeys lists every configuration key so each one can be bound to its
// MOLVISTA_ environment variable.  Viper's Unmarshal only visits keys it
// knows about, so AutomaticEnv alone is not enough: a key never mentioned in
// a file or default would silently ignore its env override.  Map-valued
// sections (visualization.property_plots) are file-only.
var envKeys = []string{
	"input.csv_file",
	"input.smiles_column",
	"input.name_column",
	"input.property_columns",
	"analysis.calculate_descriptors",
	"analysis.chemical_space.pca.enabled",
	"analysis.chemical_space.pca.n_components",
	"analysis.chemical_space.tsne.enabled",
	"analysis.chemical_space.tsne.perplexity",
	"analysis.chemical_space.tsne.learning_rate",
	"analysis.chemical_space.tsne.max_iter",
	"analysis.fingerprints.type",
	"analysis.fingerprints.radius",
	"analysis.fingerprints.n_bits",
	"docking.enabled",
	"docking.protein_structure_path",
	"docking.docking_executable_path",
	"docking.binding_site.center",
	"docking.binding_site.size",
	"docking.parameters.exhaustiveness",
	"docking.parameters.num_modes",
	"docking.parameters.energy_range",
	"docking.output_dir",
	"docking.timeout",
	"visualization.output_file",
	"visualization.title",
	"export.enabled",
	"export.file",
	"export.pose_store.enabled",
	"export.pose_store.endpoint",
	"export.pose_store.access_key",
	"export.pose_store.secret_key",
	"export.pose_store.bucket",
	"export.pose_store.use_ssl",
	"export.pose_store.prefix",
	"performance.workers",
	"log.level",
	"log.format",
	"log.output_paths",
	"log.error_output_paths",
}

// newViper builds a pre-configured Viper instance: YAML file type, MOLVISTA_
// env prefix, automatic env binding, and a key replacer mapping "." → "_" so
// nested keys like "input.csv_file" resolve to "MOLVISTA_INPUT_CSV_FILE".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key) // only errors on an empty key
	}

	// Boolean stage toggles default to on; ApplyDefaults cannot tell an
	// explicit false from an unset field, so these live here.
	v.SetDefault("analysis.calculate_descriptors", true)
	v.SetDefault("analysis.chemical_space.pca.enabled", true)
	v.SetDefault("analysis.chemical_space.tsne.enabled", true)
	return v
}

// Load reads the YAML file at configPath, merges MOLVISTA_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.  Unknown keys in the file are ignored.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from MOLVISTA_* environment variables
// and defaults, with no config file required.  Useful for quick runs where
// the CLI flags supply the input and output paths.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// unmarshalAndFinalize unmarshals viper state into a Config, applies
// defaults, and validates.  Validation is skipped for configs that have no
// input file yet — CLI flags may still supply one; callers re-validate
// through Finalize before running the pipeline.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// Finalize applies defaults and validates cfg.  Call after all CLI flag
// overrides have been merged in; a validation failure here is fatal.
func Finalize(cfg *Config) error {
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}
