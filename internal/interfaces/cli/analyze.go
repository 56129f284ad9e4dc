package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolVista/internal/application/pipeline"
	"github.com/turtacn/MolVista/internal/config"
	"github.com/turtacn/MolVista/pkg/errors"
)

// analyzeOptions holds the analyze-specific flag values; only flags the user
// actually set override the configuration file.
type analyzeOptions struct {
	output        string
	smilesColumn  string
	nameColumn    string
	properties    []string
	noDocking     bool
	noDescriptors bool
	noPCA         bool
	noTSNE        bool
	exportData    bool
	exportFile    string
}

// NewAnalyzeCmd creates the analyze subcommand: the full pipeline run.
func NewAnalyzeCmd(root *RootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [input-file]",
		Short: "Run the analysis pipeline and write the dashboard",
		Long: "Analyze loads the compound table, computes descriptors and chemical-space\n" +
			"projections, optionally docks each compound, and writes a self-contained\n" +
			"HTML dashboard.  Per-compound problems skip the compound; the run only\n" +
			"fails on configuration or input errors.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "dashboard output file")
	f.StringVar(&opts.smilesColumn, "smiles-column", "", "header of the SMILES column")
	f.StringVar(&opts.nameColumn, "name-column", "", "header of the compound name column")
	f.StringSliceVar(&opts.properties, "properties", nil, "extra numeric columns to carry into the analysis")
	f.BoolVar(&opts.noDocking, "no-docking", false, "skip the docking stage")
	f.BoolVar(&opts.noDescriptors, "no-descriptors", false, "skip descriptor calculation")
	f.BoolVar(&opts.noPCA, "no-pca", false, "skip the PCA projection")
	f.BoolVar(&opts.noTSNE, "no-tsne", false, "skip the t-SNE projection")
	f.BoolVar(&opts.exportData, "export-data", false, "also write the results table as CSV")
	f.StringVar(&opts.exportFile, "export-file", "", "results table path (implies --export-data)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, root *RootOptions, opts *analyzeOptions) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "cannot load configuration")
	}
	mergeAnalyzeFlags(cmd, cfg, args, opts)
	if err := config.Finalize(cfg); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "invalid configuration")
	}

	log, err := newLogger(cfg, root)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.New(cfg, log).Run(ctx)
	if err != nil {
		return err
	}

	printSummary(cmd, res)
	return nil
}

// mergeAnalyzeFlags overlays set flags and the positional input file onto the
// loaded configuration.
func mergeAnalyzeFlags(cmd *cobra.Command, cfg *config.Config, args []string, opts *analyzeOptions) {
	if len(args) == 1 {
		cfg.Input.CSVFile = args[0]
	}
	f := cmd.Flags()
	if f.Changed("output") {
		cfg.Visualization.OutputFile = opts.output
	}
	if f.Changed("smiles-column") {
		cfg.Input.SMILESColumn = opts.smilesColumn
	}
	if f.Changed("name-column") {
		cfg.Input.NameColumn = opts.nameColumn
	}
	if f.Changed("properties") {
		cfg.Input.PropertyColumns = opts.properties
	}
	if opts.noDocking {
		cfg.Docking.Enabled = false
	}
	if opts.noDescriptors {
		cfg.Analysis.CalculateDescriptors = false
	}
	if opts.noPCA {
		cfg.Analysis.ChemicalSpace.PCA.Enabled = false
	}
	if opts.noTSNE {
		cfg.Analysis.ChemicalSpace.TSNE.Enabled = false
	}
	if opts.exportData || f.Changed("export-file") {
		cfg.Export.Enabled = true
	}
	if f.Changed("export-file") {
		cfg.Export.File = opts.exportFile
	}
}

// printSummary writes the run outcome to stdout.  Soft failures show up here
// and still exit zero; only fatal errors reach the caller.
func printSummary(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	rep := res.Report

	fmt.Fprintf(out, "Analyzed %d of %d compounds", rep.Usable, rep.LoadedRows)
	if n := len(rep.Skipped); n > 0 {
		fmt.Fprintf(out, " (%d skipped)", n)
	}
	fmt.Fprintln(out)

	if rep.Docked > 0 || rep.DockFailed > 0 {
		fmt.Fprintf(out, "Docked %d compounds", rep.Docked)
		if rep.DockFailed > 0 {
			fmt.Fprintf(out, ", %d failed", rep.DockFailed)
		}
		fmt.Fprintln(out)
	}
	for _, notice := range rep.Notices {
		fmt.Fprintf(out, "Note: %s\n", notice)
	}

	fmt.Fprintf(out, "Dashboard written to %s\n", res.OutputPath)
	if res.ExportPath != "" {
		fmt.Fprintf(out, "Results table written to %s\n", res.ExportPath)
	}
}
