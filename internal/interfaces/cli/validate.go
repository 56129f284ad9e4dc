package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolVista/internal/config"
	"github.com/turtacn/MolVista/internal/domain/molecule"
	"github.com/turtacn/MolVista/internal/infrastructure/input"
	"github.com/turtacn/MolVista/pkg/errors"
)

// sampleConfigYAML is the annotated configuration written by --write-sample.
const sampleConfigYAML = `# MolVista configuration.
# Every key can also be set via environment variables with the MOLVISTA_
# prefix, e.g. MOLVISTA_INPUT_CSV_FILE.

input:
  csv_file: compounds.csv
  smiles_column: SMILES
  name_column: Name
  # property_columns: [pIC50, Solubility]   # default: every other column

analysis:
  calculate_descriptors: true
  chemical_space:
    pca:
      enabled: true
      n_components: 2
    tsne:
      enabled: true
      perplexity: 30
      learning_rate: 300
      max_iter: 300
  fingerprints:
    type: morgan        # morgan | topological
    radius: 2
    n_bits: 2048

docking:
  enabled: false
  protein_structure_path: receptor.pdbqt
  # docking_executable_path: /usr/local/bin/vina   # default: vina on PATH
  binding_site:
    center: [12.5, -3.2, 25.0]
    size: [20.0, 20.0, 20.0]
  parameters:
    exhaustiveness: 8
    num_modes: 9
    energy_range: 3
  output_dir: docking_results
  timeout: 5m

visualization:
  output_file: molecular_analysis_dashboard.html
  title: Molecular Visualization and Analysis
  property_plots:
    mw_vs_logp:
      x_axis: mw
      y_axis: logp
      color_by: tpsa

export:
  enabled: false
  file: analysis_results.csv
  pose_store:
    enabled: false
    endpoint: localhost:9000
    access_key: ""
    secret_key: ""
    bucket: molvista
    use_ssl: false
    prefix: runs

performance:
  workers: 0            # 0 = one per CPU

log:
  level: info
  format: console       # console | json
`

// NewValidateCmd creates the validate subcommand: configuration and input
// checking without running the pipeline.
func NewValidateCmd(root *RootOptions) *cobra.Command {
	var writeSample string

	cmd := &cobra.Command{
		Use:   "validate [input-file]",
		Short: "Check configuration and input without running the pipeline",
		Long: "Validate loads the configuration, checks it for structural problems, and,\n" +
			"when an input file is given, parses every row and reports how many\n" +
			"compounds would survive a run.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if writeSample != "" {
				return runWriteSample(cmd, writeSample)
			}
			return runValidate(cmd, args, root)
		},
	}

	cmd.Flags().StringVar(&writeSample, "write-sample", "", "write an annotated sample config to the given path and exit")

	return cmd
}

func runWriteSample(cmd *cobra.Command, path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.New(errors.CodeInvalidParam, "refusing to overwrite existing file").
			WithDetail("path=" + path)
	}
	if err := os.WriteFile(path, []byte(sampleConfigYAML), 0o644); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "cannot write sample config")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sample configuration written to %s\n", path)
	return nil
}

func runValidate(cmd *cobra.Command, args []string, root *RootOptions) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "cannot load configuration")
	}
	if len(args) == 1 {
		cfg.Input.CSVFile = args[0]
	}
	if err := config.Finalize(cfg); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "invalid configuration")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration: OK")

	log, err := newLogger(cfg, root)
	if err != nil {
		return err
	}

	raw, err := input.Load(cfg.Input.CSVFile, input.CSVOptions{
		SMILESColumn:    cfg.Input.SMILESColumn,
		NameColumn:      cfg.Input.NameColumn,
		PropertyColumns: cfg.Input.PropertyColumns,
	}, log)
	if err != nil {
		return err
	}

	valid := 0
	for _, rec := range raw {
		if _, err := molecule.ValidateSMILES(rec.SMILES); err == nil {
			valid++
		} else {
			fmt.Fprintf(out, "Row %d: invalid SMILES %q\n", rec.Row, rec.SMILES)
		}
	}
	fmt.Fprintf(out, "Input: %d rows, %d valid SMILES, %d invalid\n", len(raw), valid, len(raw)-valid)

	if valid == 0 {
		return errors.New(errors.CodeNoUsableRecords, "no compound in the input would survive a run")
	}
	return nil
}
