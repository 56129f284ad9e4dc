// Package dashboard renders the final self-contained HTML report.  All plot
// markers carry the record's stable index; an embedded script joins them
// into per-plot registries so hovering any marker highlights the same
// compound in every view and fills the detail panel.
package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"

	"github.com/turtacn/MolVista/internal/config"
	"github.com/turtacn/MolVista/internal/domain/dataset"
	"github.com/turtacn/MolVista/internal/infrastructure/logging"
	"github.com/turtacn/MolVista/pkg/errors"
	mtypes "github.com/turtacn/MolVista/pkg/types/molecule"
)

// PlotDef is one configured property scatter.
type PlotDef struct {
	ID      string
	Title   string
	X       string
	Y       string
	ColorBy string
}

// PlotDefs flattens the configured property plots into a deterministic,
// name-sorted list.
func PlotDefs(cfg config.VisualizationConfig) []PlotDef {
	names := make([]string, 0, len(cfg.PropertyPlots))
	for name := range cfg.PropertyPlots {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]PlotDef, 0, len(names))
	for _, name := range names {
		p := cfg.PropertyPlots[name]
		defs = append(defs, PlotDef{
			ID:      "plot-" + mtypes.NormalizeKey(name),
			Title:   name,
			X:       mtypes.NormalizeKey(p.XAxis),
			Y:       mtypes.NormalizeKey(p.YAxis),
			ColorBy: mtypes.NormalizeKey(p.ColorBy),
		})
	}
	return defs
}

// ValidatePlots checks every plot field against the keys actually present
// in the dataset.  An unknown field is fatal: rendering a plot against a
// key no record carries would silently produce an empty panel.
func ValidatePlots(col *dataset.Collection, defs []PlotDef) error {
	for _, def := range defs {
		for _, key := range []string{def.X, def.Y, def.ColorBy} {
			if key == "" {
				continue
			}
			if !col.HasKey(key) {
				return errors.New(errors.CodeInvalidPlotField, "plot references an unknown property").
					WithDetail(fmt.Sprintf("plot=%s field=%s available=%v", def.Title, key, col.NumericKeys()))
			}
		}
	}
	return nil
}

// Renderer builds the HTML document.
type Renderer struct {
	log logging.Logger
}

func NewRenderer(log logging.Logger) *Renderer {
	return &Renderer{log: log.Named("dashboard")}
}

// recordView is the JSON shape embedded for the detail panel.
type recordView struct {
	Index       int                   `json:"index"`
	Name        string                `json:"name"`
	SMILES      string                `json:"smiles"`
	Descriptors map[string]float64    `json:"descriptors,omitempty"`
	Properties  map[string]float64    `json:"properties,omitempty"`
	Embeddings  map[string][2]float64 `json:"embeddings,omitempty"`
	Docking     *dockingView          `json:"docking,omitempty"`
	Neighbor    *neighborView         `json:"neighbor,omitempty"`
	Image       string                `json:"image,omitempty"`
}

type neighborView struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

type dockingView struct {
	Score    float64 `json:"score"`
	PoseRank int     `json:"pose_rank"`
	PoseRef  string  `json:"pose_ref,omitempty"`
}

type fieldView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Unit  string `json:"unit,omitempty"`
}

type plotView struct {
	ID    string
	Title string
	SVG   template.HTML
	N     int
}

type dockRow struct {
	Index    int
	Name     string
	Score    float64
	PoseRank int
	BarWidth int // percentage for the affinity bar
}

type viewData struct {
	Title         string
	Count         int
	SkippedCount  int
	DockedCount   int
	PropertyPlots []plotView
	PCAPlot       *plotView
	TSNEPlot      *plotView
	ShowDocking   bool
	DockingRows   []dockRow
	RecordsJSON   template.JS
	FieldsJSON    template.JS
}

// Render produces the dashboard document.  The output is a pure function of
// its inputs: equal records, plot definitions, and docking flag yield
// byte-identical HTML.
func (rd *Renderer) Render(title string, col *dataset.Collection, defs []PlotDef, dockingEnabled bool) ([]byte, error) {
	if err := ValidatePlots(col, defs); err != nil {
		return nil, err
	}

	data := viewData{
		Title:        title,
		Count:        col.Len(),
		SkippedCount: len(col.Skipped),
		DockedCount:  col.DockedCount(),
	}

	for _, def := range defs {
		pts := propertyPoints(col.Records, def.X, def.Y, def.ColorBy)
		data.PropertyPlots = append(data.PropertyPlots, plotView{
			ID:    def.ID,
			Title: def.Title,
			SVG:   scatterSVG(pts, axisTitle(def.X), axisTitle(def.Y), def.ColorBy != ""),
			N:     len(pts),
		})
	}

	if col.HasEmbedding(dataset.EmbedPCA) {
		pts := embeddingPoints(col.Records, dataset.EmbedPCA, mtypes.DescQED)
		data.PCAPlot = &plotView{
			ID:    "plot-pca",
			Title: "PCA",
			SVG:   scatterSVG(pts, "PC1", "PC2", true),
			N:     len(pts),
		}
	}
	if col.HasEmbedding(dataset.EmbedTSNE) {
		pts := embeddingPoints(col.Records, dataset.EmbedTSNE, mtypes.DescQED)
		data.TSNEPlot = &plotView{
			ID:    "plot-tsne",
			Title: "t-SNE",
			SVG:   scatterSVG(pts, "t-SNE 1", "t-SNE 2", true),
			N:     len(pts),
		}
	}

	data.ShowDocking = dockingEnabled && data.DockedCount > 0
	if data.ShowDocking {
		data.DockingRows = dockingRows(col.Records)
	}

	recordsJSON, err := marshalJSON(recordViews(col.Records))
	if err != nil {
		return nil, err
	}
	fieldsJSON, err := marshalJSON(fieldViews(col))
	if err != nil {
		return nil, err
	}
	data.RecordsJSON = recordsJSON
	data.FieldsJSON = fieldsJSON

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, errors.CodeRenderFailed, "dashboard template failed")
	}

	rd.log.Info("rendered dashboard",
		logging.Int("compounds", data.Count),
		logging.Int("plots", len(data.PropertyPlots)),
		logging.Bool("docking_tab", data.ShowDocking))
	return buf.Bytes(), nil
}

func recordViews(records []*dataset.Record) []recordView {
	out := make([]recordView, len(records))
	for i, r := range records {
		v := recordView{
			Index:       r.Index,
			Name:        r.Name,
			SMILES:      r.SMILES,
			Descriptors: r.Descriptors,
			Properties:  r.Properties,
			Embeddings:  r.Embeddings,
			Image:       r.Image,
		}
		if r.Docking != nil {
			v.Docking = &dockingView{
				Score:    r.Docking.Score,
				PoseRank: r.Docking.PoseRank,
				PoseRef:  r.Docking.PoseRef,
			}
		}
		if r.Neighbor != nil {
			v.Neighbor = &neighborView{
				Index:      r.Neighbor.Index,
				Name:       r.Neighbor.Name,
				Similarity: r.Neighbor.Similarity,
			}
		}
		out[i] = v
	}
	return out
}

// fieldViews lists the detail-panel fields: the fixed core descriptor set
// first, then any extra property keys in sorted order.
func fieldViews(col *dataset.Collection) []fieldView {
	core := mtypes.CoreDescriptorKeys()
	seen := make(map[string]bool, len(core))
	var out []fieldView
	for _, key := range core {
		seen[key] = true
		out = append(out, fieldView{Key: key, Label: mtypes.DescriptorLabel(key), Unit: mtypes.DescriptorUnit(key)})
	}
	for _, key := range col.NumericKeys() {
		if seen[key] {
			continue
		}
		out = append(out, fieldView{Key: key, Label: mtypes.DescriptorLabel(key), Unit: mtypes.DescriptorUnit(key)})
	}
	return out
}

// dockingRows orders docked compounds from strongest to weakest binding.
func dockingRows(records []*dataset.Record) []dockRow {
	var rows []dockRow
	best := 0.0
	for _, r := range records {
		if r.Docking == nil {
			continue
		}
		rows = append(rows, dockRow{
			Index:    r.Index,
			Name:     r.Name,
			Score:    r.Docking.Score,
			PoseRank: r.Docking.PoseRank,
		})
		if r.Docking.Score < best {
			best = r.Docking.Score
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score < rows[j].Score })
	for i := range rows {
		if best < 0 {
			rows[i].BarWidth = int(rows[i].Score / best * 100)
		}
		if rows[i].BarWidth < 2 {
			rows[i].BarWidth = 2
		}
	}
	return rows
}

// marshalJSON embeds a value as script-safe JSON.  encoding/json escapes
// angle brackets, so the payload cannot break out of its script element.
func marshalJSON(v any) (template.JS, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeRenderFailed, "cannot embed dashboard data")
	}
	return template.JS(raw), nil
}
