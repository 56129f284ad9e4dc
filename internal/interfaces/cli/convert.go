package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolVista/internal/infrastructure/input"
	"github.com/turtacn/MolVista/pkg/errors"
)

// NewConvertCmd creates the convert subcommand: SDF library to CSV input.
func NewConvertCmd(root *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "convert <input.sdf>",
		Short: "Convert an SDF library to the CSV input format",
		Long: "Convert reads an SDF file, extracts the SMILES field and every data tag\n" +
			"from each entry, and writes a CSV table that analyze accepts directly.\n" +
			"Entries without a SMILES field are dropped with a warning.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], output, root)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output CSV path (default: input name with .csv)")

	return cmd
}

func runConvert(cmd *cobra.Command, inPath, outPath string, root *RootOptions) error {
	if input.DetectFormat(inPath) != "sdf" {
		return errors.New(errors.CodeInvalidParam, "convert expects an SDF file").
			WithDetail("path=" + inPath)
	}
	if outPath == "" {
		outPath = defaultCSVPath(inPath)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "cannot load configuration")
	}
	log, err := newLogger(cfg, root)
	if err != nil {
		return err
	}

	n, err := input.ConvertSDFToCSV(inPath, outPath, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Converted %d compounds to %s\n", n, outPath)
	return nil
}

func defaultCSVPath(inPath string) string {
	for _, ext := range []string{".sdf", ".sd", ".mol", ".SDF"} {
		if strings.HasSuffix(inPath, ext) {
			return strings.TrimSuffix(inPath, ext) + ".csv"
		}
	}
	return inPath + ".csv"
}
