// Package pipeline orchestrates an analysis run: load, per-compound
// computation, chemical-space embedding, optional docking, assembly,
// rendering, and export.  Failure handling follows a three-tier policy:
// per-compound problems drop the compound, unavailable optional stages
// degrade with a single notice, and only configuration or loading problems
// abort the run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/MolVista/internal/application/chemspace"
	"github.com/turtacn/MolVista/internal/application/dashboard"
	"github.com/turtacn/MolVista/internal/config"
	"github.com/turtacn/MolVista/internal/domain/dataset"
	"github.com/turtacn/MolVista/internal/domain/molecule"
	"github.com/turtacn/MolVista/internal/infrastructure/docking"
	"github.com/turtacn/MolVista/internal/infrastructure/input"
	"github.com/turtacn/MolVista/internal/infrastructure/logging"
	miniostore "github.com/turtacn/MolVista/internal/infrastructure/storage/minio"
	"github.com/turtacn/MolVista/pkg/errors"
	mtypes "github.com/turtacn/MolVista/pkg/types/molecule"
)

// Uploader publishes run artifacts; the minio store implements it and tests
// substitute fakes.
type Uploader interface {
	UploadFile(ctx context.Context, path, contentType string) (string, error)
	UploadPose(ctx context.Context, path string) (string, error)
}

// Report summarises the non-fatal events of a run for the CLI exit summary.
type Report struct {
	LoadedRows  int            `json:"loaded_rows"`
	Usable      int            `json:"usable"`
	Skipped     []dataset.Skip `json:"skipped,omitempty"`
	Docked      int            `json:"docked"`
	DockFailed  int            `json:"dock_failed"`
	PCASkipped  bool           `json:"pca_skipped"`
	TSNESkipped bool           `json:"tsne_skipped"`
	Notices     []string       `json:"notices,omitempty"`
}

// Result is the successful outcome of a run.
type Result struct {
	Collection *dataset.Collection
	OutputPath string
	ExportPath string
	Report     Report
}

// Pipeline is the run orchestrator.  Engine and Store are swappable for
// tests; when nil they are built from configuration.
type Pipeline struct {
	cfg *config.Config
	log logging.Logger

	Engine docking.Engine
	Store  Uploader

	runID string
}

func New(cfg *config.Config, log logging.Logger) *Pipeline {
	runID := uuid.NewString()
	return &Pipeline{
		cfg:   cfg,
		log:   log.Named("pipeline").With(logging.String("run_id", runID)),
		runID: runID,
	}
}

// computed is the per-compound result of the parallel computation stage,
// held at the raw record's position so input order survives the pool.
type computed struct {
	record      *dataset.Record
	fingerprint *molecule.Fingerprint
	skip        *dataset.Skip
}

// Run executes all stages and writes the dashboard.  The returned error is
// always fatal; soft failures land in Result.Report instead.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	report := Report{}

	// Load.
	raw, err := input.Load(p.cfg.Input.CSVFile, input.CSVOptions{
		SMILESColumn:    p.cfg.Input.SMILESColumn,
		NameColumn:      p.cfg.Input.NameColumn,
		PropertyColumns: p.cfg.Input.PropertyColumns,
	}, p.log)
	if err != nil {
		return nil, err
	}
	report.LoadedRows = len(raw)

	// Per-compound computation, bounded by the worker pool.  Slots keep the
	// source position so survivors come out in input order.
	needFingerprints := p.cfg.Analysis.ChemicalSpace.PCA.Enabled || p.cfg.Analysis.ChemicalSpace.TSNE.Enabled
	slots := make([]computed, len(raw))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i := range raw {
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			slots[i] = p.computeOne(raw[i], needFingerprints)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.CodePipelineFailed, "compound processing interrupted")
	}

	var records []*dataset.Record
	var fingerprints []*molecule.Fingerprint
	for _, slot := range slots {
		if slot.skip != nil {
			report.Skipped = append(report.Skipped, *slot.skip)
			continue
		}
		records = append(records, slot.record)
		fingerprints = append(fingerprints, slot.fingerprint)
	}
	for _, s := range report.Skipped {
		p.log.Warn("skipping compound",
			logging.Int("row", s.Position),
			logging.String("smiles", s.SMILES),
			logging.String("reason", s.Reason))
	}

	// Assembly: freeze indices in surviving input order.
	col, err := dataset.NewCollection(records, report.Skipped)
	if err != nil {
		return nil, err
	}
	report.Usable = col.Len()
	p.log.Info("assembled dataset",
		logging.Int("usable", report.Usable),
		logging.Int("skipped", len(report.Skipped)))

	// Embedding, plus the nearest-neighbor annotation the detail panel shows.
	if needFingerprints {
		p.annotateNeighbors(col, fingerprints)
		if err := p.embed(col, fingerprints, &report); err != nil {
			return nil, err
		}
	}

	// Docking, plus pose publication when an artifact store is configured,
	// so pose references make it into the dashboard and the export table.
	if p.cfg.Docking.Enabled {
		p.dock(ctx, col, &report)
		if report.Docked > 0 && p.cfg.Export.PoseStore.Enabled {
			p.uploadPoses(ctx, col, &report)
		}
	}

	// Plot validation against the assembled keys, then render.
	defs := dashboard.PlotDefs(p.cfg.Visualization)
	if err := dashboard.ValidatePlots(col, defs); err != nil {
		return nil, err
	}
	html, err := dashboard.NewRenderer(p.log).Render(p.cfg.Visualization.Title, col, defs, p.cfg.Docking.Enabled)
	if err != nil {
		return nil, err
	}
	outPath := p.cfg.Visualization.OutputFile
	if err := os.WriteFile(outPath, html, 0o644); err != nil {
		return nil, errors.Wrap(err, errors.CodeRenderFailed, "cannot write dashboard file").
			WithDetail("path=" + outPath)
	}
	p.log.Info("dashboard written", logging.String("path", outPath))

	result := &Result{Collection: col, OutputPath: outPath}

	// Export.
	if p.cfg.Export.Enabled {
		exportPath := p.cfg.Export.File
		if err := WriteResultsCSV(exportPath, col); err != nil {
			return nil, err
		}
		result.ExportPath = exportPath
		p.log.Info("results table written", logging.String("path", exportPath))
	}
	if p.cfg.Export.PoseStore.Enabled {
		p.uploadArtifacts(ctx, result, &report)
	}

	result.Report = report
	return result, nil
}

func (p *Pipeline) workers() int {
	if p.cfg.Performance.Workers > 0 {
		return p.cfg.Performance.Workers
	}
	return runtime.NumCPU()
}

// computeOne validates one raw row and computes its descriptors,
// fingerprint, and depiction.  Any failure that prevents analysis yields a
// skip; depiction failures only cost the structure image.
func (p *Pipeline) computeOne(raw input.RawRecord, needFingerprint bool) computed {
	smiles, err := molecule.ValidateSMILES(raw.SMILES)
	if err != nil {
		return computed{skip: &dataset.Skip{Position: raw.Row, SMILES: raw.SMILES, Reason: "invalid SMILES"}}
	}

	rec := &dataset.Record{
		SMILES:     smiles,
		Name:       raw.Name,
		Properties: raw.Properties,
	}

	if p.cfg.Analysis.CalculateDescriptors {
		desc, err := molecule.ComputeDescriptors(smiles)
		if err != nil {
			return computed{skip: &dataset.Skip{Position: raw.Row, SMILES: raw.SMILES, Reason: "descriptor calculation failed"}}
		}
		rec.Descriptors = desc
	}

	var fp *molecule.Fingerprint
	if needFingerprint {
		f, err := molecule.ComputeFingerprint(smiles,
			mtypes.FingerprintType(p.cfg.Analysis.Fingerprints.Type),
			p.cfg.Analysis.Fingerprints.Radius,
			p.cfg.Analysis.Fingerprints.NBits)
		if err != nil {
			return computed{skip: &dataset.Skip{Position: raw.Row, SMILES: raw.SMILES, Reason: "fingerprint generation failed"}}
		}
		fp = f
	}

	if img, err := molecule.Depict(smiles); err == nil {
		rec.Image = img
	} else {
		p.log.Debug("depiction failed", logging.String("smiles", smiles), logging.Err(err))
	}

	return computed{record: rec, fingerprint: fp}
}

// annotateNeighbors tags every record with its most similar companion in
// the dataset by fingerprint Tanimoto similarity.  A singleton dataset has
// no companion and stays unannotated.
func (p *Pipeline) annotateNeighbors(col *dataset.Collection, fingerprints []*molecule.Fingerprint) {
	if col.Len() < 2 {
		return
	}
	for i, rec := range col.Records {
		bestIdx, bestSim := -1, -1.0
		for j := range fingerprints {
			if j == i {
				continue
			}
			sim, err := molecule.TanimotoSimilarity(fingerprints[i], fingerprints[j])
			if err != nil {
				continue
			}
			if sim > bestSim {
				bestIdx, bestSim = j, sim
			}
		}
		if bestIdx >= 0 {
			other := col.Records[bestIdx]
			rec.Neighbor = &dataset.Neighbor{
				Index:      other.Index,
				Name:       other.Name,
				Similarity: bestSim,
			}
		}
	}
}

// embed projects the fingerprint matrix with PCA and, when the dataset is
// large enough, t-SNE.
func (p *Pipeline) embed(col *dataset.Collection, fingerprints []*molecule.Fingerprint, report *Report) error {
	vectors := make([][]float64, len(fingerprints))
	for i, fp := range fingerprints {
		vectors[i] = fp.ToFloat64s()
	}
	m, err := chemspace.BuildMatrix(vectors)
	if err != nil {
		return errors.Wrap(err, errors.CodePipelineFailed, "cannot build fingerprint matrix")
	}
	chemspace.Standardize(m)

	if p.cfg.Analysis.ChemicalSpace.PCA.Enabled {
		if !chemspace.ShouldRunPCA(col.Len()) {
			report.PCASkipped = true
			notice := fmt.Sprintf("PCA skipped: %d compounds, need at least %d",
				col.Len(), chemspace.MinPCASamples)
			report.Notices = append(report.Notices, notice)
			p.log.Warn(notice)
		} else {
			coords, explained, err := chemspace.PCA(m, p.cfg.Analysis.ChemicalSpace.PCA.NComponents)
			if err != nil {
				return err
			}
			for i, rec := range col.Records {
				rec.SetEmbedding(dataset.EmbedPCA, coords[i][0], coords[i][1])
			}
			p.log.Info("PCA projection complete",
				logging.Float64("pc1_variance", explained[0]),
				logging.Float64("pc2_variance", explained[1]))
		}
	}

	if p.cfg.Analysis.ChemicalSpace.TSNE.Enabled {
		if !chemspace.ShouldRunTSNE(col.Len()) {
			report.TSNESkipped = true
			notice := fmt.Sprintf("t-SNE skipped: %d compounds, need at least %d",
				col.Len(), chemspace.MinTSNESamples)
			report.Notices = append(report.Notices, notice)
			p.log.Warn(notice)
		} else {
			coords, err := chemspace.TSNE(m, p.cfg.Analysis.ChemicalSpace.TSNE)
			if err != nil {
				return err
			}
			for i, rec := range col.Records {
				rec.SetEmbedding(dataset.EmbedTSNE, coords[i][0], coords[i][1])
			}
			p.log.Info("t-SNE projection complete", logging.Int("compounds", col.Len()))
		}
	}
	return nil
}

// dock runs the external engine for every record.  An unavailable engine
// disables the stage with one notice; per-compound failures cost only that
// compound's result.
func (p *Pipeline) dock(ctx context.Context, col *dataset.Collection, report *Report) {
	engine := p.Engine
	if engine == nil {
		engine = docking.NewVinaEngine(p.cfg.Docking, p.log)
	}

	if err := engine.Available(); err != nil {
		notice := "docking disabled: " + err.Error()
		report.Notices = append(report.Notices, notice)
		p.log.Warn(notice)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	results := make([]*dataset.DockingResult, col.Len())
	failures := make([]error, col.Len())
	for i, rec := range col.Records {
		i, rec := i, rec
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := engine.Dock(gctx, docking.Ligand{Index: rec.Index, Name: rec.Name, SMILES: rec.SMILES})
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are per-slot

	for i, rec := range col.Records {
		switch {
		case results[i] != nil:
			rec.Docking = results[i]
			report.Docked++
		case failures[i] != nil:
			report.DockFailed++
			p.log.Warn("docking failed for compound",
				logging.Int("index", rec.Index),
				logging.String("name", rec.Name),
				logging.Err(failures[i]))
		}
	}
	p.log.Info("docking stage complete",
		logging.Int("docked", report.Docked),
		logging.Int("failed", report.DockFailed))
}

// store lazily builds the artifact uploader; a connection failure degrades
// the run with one notice instead of failing it.
func (p *Pipeline) store(ctx context.Context, report *Report) Uploader {
	if p.Store != nil {
		return p.Store
	}
	s, err := miniostore.New(ctx, p.cfg.Export.PoseStore, p.log)
	if err != nil {
		notice := "artifact upload disabled: " + err.Error()
		report.Notices = append(report.Notices, notice)
		p.log.Warn(notice)
		return nil
	}
	p.Store = s
	return s
}

// uploadPoses publishes docking pose files and records their object
// references on the results.
func (p *Pipeline) uploadPoses(ctx context.Context, col *dataset.Collection, report *Report) {
	store := p.store(ctx, report)
	if store == nil {
		return
	}
	for _, rec := range col.Records {
		if rec.Docking == nil || rec.Docking.PoseFile == "" {
			continue
		}
		if _, err := os.Stat(rec.Docking.PoseFile); err != nil {
			continue // engine did not leave a pose behind
		}
		ref, err := store.UploadPose(ctx, rec.Docking.PoseFile)
		if err != nil {
			p.log.Warn("pose upload failed",
				logging.String("pose", filepath.Base(rec.Docking.PoseFile)),
				logging.Err(err))
			continue
		}
		rec.Docking.PoseRef = ref
	}
}

// uploadArtifacts publishes the dashboard document and the sidecar table.
// Upload problems degrade the run, they never fail it.
func (p *Pipeline) uploadArtifacts(ctx context.Context, result *Result, report *Report) {
	store := p.store(ctx, report)
	if store == nil {
		return
	}
	if _, err := store.UploadFile(ctx, result.OutputPath, "text/html"); err != nil {
		p.log.Warn("dashboard upload failed", logging.Err(err))
	}
	if result.ExportPath != "" {
		if _, err := store.UploadFile(ctx, result.ExportPath, "text/csv"); err != nil {
			p.log.Warn("results table upload failed", logging.Err(err))
		}
	}
}
