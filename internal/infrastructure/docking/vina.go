// Package docking wraps an AutoDock-Vina-compatible executable as an
// optional pipeline stage.  The adapter prepares ligand files, invokes the
// binary per compound with a deadline, and parses the affinity table from
// its stdout.  Docking failures are soft: each compound either gets a
// result or a coded error the orchestrator downgrades to a warning.
package docking

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/turtacn/MolVista/internal/config"
	"github.com/turtacn/MolVista/internal/domain/dataset"
	"github.com/turtacn/MolVista/internal/infrastructure/logging"
	"github.com/turtacn/MolVista/pkg/errors"
)

// Engine runs docking for single ligands.  The interface exists so the
// pipeline and tests can swap in fakes for the external binary.
type Engine interface {
	// Available probes whether the engine can run at all; the returned
	// error explains why not.
	Available() error
	// Dock runs one ligand and returns the best-mode affinity.
	Dock(ctx context.Context, ligand Ligand) (*dataset.DockingResult, error)
}

// Ligand identifies one prepared input to a docking run.
type Ligand struct {
	Index  int
	Name   string
	SMILES string
}

// VinaEngine shells out to an AutoDock Vina compatible binary.
type VinaEngine struct {
	cfg config.DockingConfig
	log logging.Logger

	exe string

	// receptor is the prepared receptor path; raw PDB inputs are cleaned
	// once and the cleaned copy used for every run.
	receptor string
}

// NewVinaEngine resolves the executable path and prepares the output
// directory.  Resolution failures are reported by Available, not here, so
// the caller can degrade gracefully.
func NewVinaEngine(cfg config.DockingConfig, log logging.Logger) *VinaEngine {
	exe := cfg.ExecutablePath
	if exe == "" {
		exe = "vina"
	}
	return &VinaEngine{cfg: cfg, log: log.Named("docking"), exe: exe}
}

// Available checks the executable and receptor file, then prepares the
// receptor for use: raw PDB inputs are cleaned of alternative conformations,
// waters, and common ions before the first run.
func (v *VinaEngine) Available() error {
	if _, err := exec.LookPath(v.exe); err != nil {
		return errors.Wrap(err, errors.CodeDockingUnavailable, "docking executable not found").
			WithDetail("executable=" + v.exe)
	}
	if _, err := os.Stat(v.cfg.ProteinPath); err != nil {
		return errors.Wrap(err, errors.CodeDockingUnavailable, "receptor structure not found").
			WithDetail("path=" + v.cfg.ProteinPath)
	}
	return v.prepareReceptor()
}

// prepareReceptor decides which receptor file the runs use.  Receptors that
// are already in PDBQT form pass through untouched; a .pdb receptor is
// cleaned into the output directory once.
func (v *VinaEngine) prepareReceptor() error {
	if v.receptor != "" {
		return nil
	}
	if !strings.EqualFold(filepath.Ext(v.cfg.ProteinPath), ".pdb") {
		v.receptor = v.cfg.ProteinPath
		return nil
	}
	if err := os.MkdirAll(v.cfg.OutputDir, 0o755); err != nil {
		return errors.Wrap(err, errors.CodeDockingUnavailable, "cannot create docking output directory")
	}
	cleaned := filepath.Join(v.cfg.OutputDir, "receptor_cleaned.pdb")
	if err := CleanReceptorPDB(v.cfg.ProteinPath, cleaned, v.log); err != nil {
		return err
	}
	v.receptor = cleaned
	return nil
}

// receptorPath falls back to the configured path when Dock is called
// without a prior Available check.
func (v *VinaEngine) receptorPath() string {
	if v.receptor != "" {
		return v.receptor
	}
	return v.cfg.ProteinPath
}

// Dock prepares the ligand file, runs the binary under the configured
// timeout, and parses the best affinity from stdout.
func (v *VinaEngine) Dock(ctx context.Context, ligand Ligand) (*dataset.DockingResult, error) {
	if err := os.MkdirAll(v.cfg.OutputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeDockingFailed, "cannot create docking output directory")
	}

	base := fmt.Sprintf("ligand_%d", ligand.Index)
	ligandPath := filepath.Join(v.cfg.OutputDir, base+".pdbqt")
	outPath := filepath.Join(v.cfg.OutputDir, base+"_out.pdbqt")

	if err := WriteLigandPDBQT(ligandPath, ligand.SMILES, ligand.Name); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	args := v.buildArgs(ligandPath, outPath)
	cmd := exec.CommandContext(runCtx, v.exe, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	v.log.Debug("running docking",
		logging.String("ligand", ligand.Name),
		logging.Int("index", ligand.Index))

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, errors.New(errors.CodeDockingTimeout, "docking run exceeded timeout").
			WithDetail(fmt.Sprintf("ligand=%s timeout=%s", ligand.Name, v.cfg.Timeout))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDockingFailed, "docking run failed").
			WithDetail(fmt.Sprintf("ligand=%s stderr=%s", ligand.Name, firstLine(stderr.String())))
	}

	result, err := ParseAffinity(stdout.String())
	if err != nil {
		return nil, err
	}
	result.PoseFile = outPath
	return result, nil
}

func (v *VinaEngine) buildArgs(ligandPath, outPath string) []string {
	c := v.cfg.BindingSite.Center
	s := v.cfg.BindingSite.Size
	return []string{
		"--receptor", v.receptorPath(),
		"--ligand", ligandPath,
		"--center_x", formatCoord(c[0]),
		"--center_y", formatCoord(c[1]),
		"--center_z", formatCoord(c[2]),
		"--size_x", formatCoord(s[0]),
		"--size_y", formatCoord(s[1]),
		"--size_z", formatCoord(s[2]),
		"--exhaustiveness", strconv.Itoa(v.cfg.Parameters.Exhaustiveness),
		"--num_modes", strconv.Itoa(v.cfg.Parameters.NumModes),
		"--energy_range", strconv.Itoa(v.cfg.Parameters.EnergyRange),
		"--out", outPath,
	}
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ParseAffinity extracts the best docking mode from Vina's stdout table:
//
//	mode |   affinity | dist from best mode
//	     | (kcal/mol) | rmsd l.b.| rmsd u.b.
//	-----+------------+----------+----------
//	   1       -7.2      0.000      0.000
//
// The first data row after the header carries the best affinity.
func ParseAffinity(output string) (*dataset.DockingResult, error) {
	lines := strings.Split(output, "\n")
	inTable := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !inTable {
			if strings.HasPrefix(trimmed, "mode") && strings.Contains(trimmed, "affinity") {
				inTable = true
			}
			continue
		}
		// Skip the units and separator lines.
		if trimmed == "" || strings.HasPrefix(trimmed, "|") || strings.HasPrefix(trimmed, "-") ||
			strings.HasPrefix(trimmed, "+") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			continue
		}
		mode, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		affinity, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errors.New(errors.CodeDockingParseFailed, "cannot parse affinity column").
				WithDetail("line=" + trimmed)
		}
		return &dataset.DockingResult{Score: affinity, PoseRank: mode}, nil
	}
	return nil, errors.New(errors.CodeDockingParseFailed, "no affinity table in docking output")
}
