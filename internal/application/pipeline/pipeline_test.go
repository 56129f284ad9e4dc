package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolVista/internal/config"
	"github.com/turtacn/MolVista/internal/domain/dataset"
	"github.com/turtacn/MolVista/internal/infrastructure/docking"
	"github.com/turtacn/MolVista/internal/testutil"
	"github.com/turtacn/MolVista/pkg/errors"
)

// fakeEngine docks every ligand with a fixed score unless its name is listed
// in fail, and optionally leaves a pose file behind.
type fakeEngine struct {
	availErr error
	fail     map[string]bool
	poseDir  string
}

func (e *fakeEngine) Available() error { return e.availErr }

func (e *fakeEngine) Dock(_ context.Context, lig docking.Ligand) (*dataset.DockingResult, error) {
	if e.fail[lig.Name] {
		return nil, errors.New(errors.CodeDockingFailed, "engine rejected ligand")
	}
	res := &dataset.DockingResult{Score: -5.0 - float64(lig.Index)*0.1, PoseRank: 1}
	if e.poseDir != "" {
		pose := filepath.Join(e.poseDir, fmt.Sprintf("pose_%d.pdbqt", lig.Index))
		if err := os.WriteFile(pose, []byte("ROOT\nENDROOT\n"), 0o644); err != nil {
			return nil, err
		}
		res.PoseFile = pose
	}
	return res, nil
}

// fakeUploader records uploads and hands back predictable references.
type fakeUploader struct {
	files []string
	poses []string
}

func (u *fakeUploader) UploadFile(_ context.Context, path, _ string) (string, error) {
	u.files = append(u.files, path)
	return "bucket/run/" + filepath.Base(path), nil
}

func (u *fakeUploader) UploadPose(_ context.Context, path string) (string, error) {
	u.poses = append(u.poses, path)
	return "bucket/run/poses/" + filepath.Base(path), nil
}

func writeInputCSV(t *testing.T, dir string, rows [][2]string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("SMILES,Name\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%s\n", r[0], r[1])
	}
	path := filepath.Join(dir, "compounds.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func testConfig(dir, csvPath string) *config.Config {
	cfg := &config.Config{}
	cfg.Input.CSVFile = csvPath
	cfg.Input.SMILESColumn = "SMILES"
	cfg.Input.NameColumn = "Name"
	cfg.Analysis.CalculateDescriptors = true
	cfg.Analysis.ChemicalSpace.PCA.Enabled = true
	cfg.Analysis.ChemicalSpace.PCA.NComponents = 2
	cfg.Analysis.Fingerprints.Type = "morgan"
	cfg.Analysis.Fingerprints.Radius = 2
	cfg.Analysis.Fingerprints.NBits = 128
	cfg.Visualization.OutputFile = filepath.Join(dir, "dashboard.html")
	cfg.Visualization.Title = "Test Run"
	cfg.Visualization.PropertyPlots = map[string]config.PlotConfig{
		"mw_vs_logp": {XAxis: "mw", YAxis: "logp", ColorBy: "tpsa"},
	}
	cfg.Performance.Workers = 2
	return cfg
}

// alkanes returns n structurally distinct, definitely valid molecules.
func alkanes(n int) [][2]string {
	rows := make([][2]string, n)
	for i := range rows {
		rows[i] = [2]string{"C" + strings.Repeat("C", i) + "O", fmt.Sprintf("Alcohol_%d", i+1)}
	}
	return rows
}

func TestRunSoftFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeInputCSV(t, dir, [][2]string{
		{"CCO", "Ethanol"},
		{"not_a_smiles(", "Broken"},
		{"c1ccccc1", "Benzene"},
	})
	p := New(testConfig(dir, csvPath), testutil.NewMockLogger())

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Report.LoadedRows)
	assert.Equal(t, 2, res.Report.Usable)
	require.Len(t, res.Report.Skipped, 1)
	assert.Equal(t, "not_a_smiles(", res.Report.Skipped[0].SMILES)
	assert.Equal(t, "invalid SMILES", res.Report.Skipped[0].Reason)

	require.Len(t, res.Collection.Records, 2)
	assert.Equal(t, "Ethanol", res.Collection.Records[0].Name)
	assert.Equal(t, "Benzene", res.Collection.Records[1].Name)
}

func TestRunSingleCompoundDegradesChemicalSpace(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeInputCSV(t, dir, [][2]string{{"CCO", "Ethanol"}})
	p := New(testConfig(dir, csvPath), testutil.NewMockLogger())

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.Usable)
	assert.True(t, res.Report.PCASkipped)
	require.Len(t, res.Report.Notices, 1)
	assert.Contains(t, res.Report.Notices[0], "PCA skipped")
	assert.False(t, res.Collection.HasEmbedding(dataset.EmbedPCA))
	assert.Nil(t, res.Collection.Records[0].Neighbor)

	html, readErr := os.ReadFile(res.OutputPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(html), "Ethanol")
}

func TestRunAnnotatesNearestNeighbors(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeInputCSV(t, dir, [][2]string{
		{"CCO", "Ethanol"},
		{"CCCO", "Propanol"},
		{"c1ccccc1", "Benzene"},
	})
	p := New(testConfig(dir, csvPath), testutil.NewMockLogger())

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, res.Report.Usable)

	ethanol := res.Collection.Records[0]
	propanol := res.Collection.Records[1]
	require.NotNil(t, ethanol.Neighbor)
	require.NotNil(t, propanol.Neighbor)

	// The two alcohols share most fragments; benzene shares almost none.
	assert.Equal(t, "Propanol", ethanol.Neighbor.Name)
	assert.Equal(t, propanol.Index, ethanol.Neighbor.Index)
	assert.Equal(t, "Ethanol", propanol.Neighbor.Name)
	assert.Greater(t, ethanol.Neighbor.Similarity, 0.0)
	assert.LessOrEqual(t, ethanol.Neighbor.Similarity, 1.0)

	html, readErr := os.ReadFile(res.OutputPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(html), `"neighbor"`)
}

func TestRunNoUsableRecordsIsFatal(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeInputCSV(t, dir, [][2]string{
		{"garbage(", "A"},
		{"also)bad", "B"},
	})
	p := New(testConfig(dir, csvPath), testutil.NewMockLogger())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNoUsableRecords))
	assert.True(t, errors.IsFatal(err))
}

func TestRunPreservesInputOrderUnderWorkers(t *testing.T) {
	dir := t.TempDir()
	rows := alkanes(12)
	csvPath := writeInputCSV(t, dir, rows)
	cfg := testConfig(dir, csvPath)
	cfg.Performance.Workers = 4
	p := New(cfg, testutil.NewMockLogger())

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 12, res.Collection.Len())
	for i, rec := range res.Collection.Records {
		assert.Equal(t, i, rec.Index)
		assert.Equal(t, rows[i][1], rec.Name)
	}
}

func TestRunTSNEGatedOnDatasetSize(t *testing.T) {
	run := func(n int) (*Result, error) {
		dir := t.TempDir()
		csvPath := writeInputCSV(t, dir, alkanes(n))
		cfg := testConfig(dir, csvPath)
		cfg.Analysis.ChemicalSpace.TSNE.Enabled = true
		cfg.Analysis.ChemicalSpace.TSNE.Perplexity = 30
		cfg.Analysis.ChemicalSpace.TSNE.LearningRate = 100
		cfg.Analysis.ChemicalSpace.TSNE.MaxIter = 30
		return New(cfg, testutil.NewMockLogger()).Run(context.Background())
	}

	small, err := run(9)
	require.NoError(t, err)
	assert.True(t, small.Report.TSNESkipped)
	assert.False(t, small.Collection.HasEmbedding(dataset.EmbedTSNE))
	require.Len(t, small.Report.Notices, 1)
	assert.Contains(t, small.Report.Notices[0], "t-SNE skipped")

	big, err := run(10)
	require.NoError(t, err)
	assert.False(t, big.Report.TSNESkipped)
	assert.True(t, big.Collection.HasEmbedding(dataset.EmbedTSNE))
	assert.Empty(t, big.Report.Notices)
}

func TestRunDockingUnavailableDegradesWithOneNotice(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeInputCSV(t, dir, alkanes(3))
	cfg := testConfig(dir, csvPath)
	cfg.Docking.Enabled = true
	p := New(cfg, testutil.NewMockLogger())
	p.Engine = &fakeEngine{availErr: errors.New(errors.CodeDockingUnavailable, "vina not on PATH")}

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Report.Docked)
	require.Len(t, res.Report.Notices, 1)
	assert.Contains(t, res.Report.Notices[0], "docking disabled")
}

func TestRunDockingSoftFailuresPerCompound(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeInputCSV(t, dir, alkanes(4))
	cfg := testConfig(dir, csvPath)
	cfg.Docking.Enabled = true
	p := New(cfg, testutil.NewMockLogger())
	p.Engine = &fakeEngine{fail: map[string]bool{"Alcohol_2": true}}

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Report.Docked)
	assert.Equal(t, 1, res.Report.DockFailed)
	assert.Nil(t, res.Collection.Records[1].Docking)
	require.NotNil(t, res.Collection.Records[0].Docking)
	assert.InDelta(t, -5.0, res.Collection.Records[0].Docking.Score, 1e-9)

	html, readErr := os.ReadFile(res.OutputPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(html), "Docking")
}

func TestRunExportsResultsCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeInputCSV(t, dir, [][2]string{
		{"CCO", "Ethanol"},
		{"c1ccccc1", "Benzene"},
	})
	cfg := testConfig(dir, csvPath)
	cfg.Export.Enabled = true
	cfg.Export.File = filepath.Join(dir, "results.csv")
	p := New(cfg, testutil.NewMockLogger())

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.Export.File, res.ExportPath)

	f, err := os.Open(cfg.Export.File)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	assert.Equal(t, []string{"index", "name", "smiles"}, header[:3])
	assert.Contains(t, header, "mw")
	assert.Contains(t, header, "pca_x")
	assert.Contains(t, header, "docking_score")

	assert.Equal(t, []string{"0", "Ethanol", "CCO"}, rows[1][:3])
	assert.Equal(t, []string{"1", "Benzene", "c1ccccc1"}, rows[2][:3])

	// Benzene has no sp3 carbons relative to ethanol's fsp3=1; the key is
	// still in the union, so benzene keeps a value and methane-free keys
	// never collapse to zero.  Docking is off, so those cells stay empty.
	col := indexOf(header, "docking_score")
	require.GreaterOrEqual(t, col, 0)
	assert.Equal(t, "", rows[1][col])
	assert.Equal(t, "", rows[2][col])
}

func TestRunUploadsPosesAndArtifacts(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeInputCSV(t, dir, alkanes(3))
	cfg := testConfig(dir, csvPath)
	cfg.Docking.Enabled = true
	cfg.Export.Enabled = true
	cfg.Export.File = filepath.Join(dir, "results.csv")
	cfg.Export.PoseStore.Enabled = true
	cfg.Export.PoseStore.Endpoint = "localhost:9000"
	cfg.Export.PoseStore.Bucket = "molvista"

	uploader := &fakeUploader{}
	p := New(cfg, testutil.NewMockLogger())
	p.Engine = &fakeEngine{poseDir: dir}
	p.Store = uploader

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Report.Docked)
	assert.Len(t, uploader.poses, 3)
	for _, rec := range res.Collection.Records {
		require.NotNil(t, rec.Docking)
		assert.NotEmpty(t, rec.Docking.PoseRef)
	}
	// Dashboard plus sidecar table.
	require.Len(t, uploader.files, 2)
	assert.Equal(t, res.OutputPath, uploader.files[0])
	assert.Equal(t, res.ExportPath, uploader.files[1])

	// Pose references survive into the export table.
	data, err := os.ReadFile(res.ExportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bucket/run/poses/pose_0.pdbqt")
}

func TestRunRejectsUnknownPlotField(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeInputCSV(t, dir, alkanes(3))
	cfg := testConfig(dir, csvPath)
	cfg.Visualization.PropertyPlots = map[string]config.PlotConfig{
		"bad": {XAxis: "mw", YAxis: "no_such_key"},
	}
	p := New(cfg, testutil.NewMockLogger())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidPlotField))
}

func TestRunWritesDashboard(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeInputCSV(t, dir, [][2]string{
		{"CCO", "Ethanol"},
		{"CC(=O)O", "Acetic acid"},
	})
	cfg := testConfig(dir, csvPath)
	p := New(cfg, testutil.NewMockLogger())

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	html, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "Test Run")
	assert.Contains(t, page, "Ethanol")
	assert.Contains(t, page, `data-idx="0"`)
	assert.Contains(t, page, `data-idx="1"`)
	assert.Contains(t, page, "mv-records")
}

func indexOf(ss []string, want string) int {
	for i, s := range ss {
		if s == want {
			return i
		}
	}
	return -1
}
