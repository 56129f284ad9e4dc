package dashboard

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/turtacn/MolVista/internal/domain/dataset"
	mtypes "github.com/turtacn/MolVista/pkg/types/molecule"
)

const (
	plotWidth    = 460
	plotHeight   = 360
	marginLeft   = 56
	marginRight  = 16
	marginTop    = 16
	marginBottom = 44
	markerRadius = 5
)

// point is one renderable marker: the record index plus plot coordinates.
type point struct {
	Index int
	X, Y  float64
	Color float64 // color-by value, NaN when absent
}

// scatterSVG renders a complete scatter plot as SVG markup.  Every marker
// carries data-idx so the embedded script can join it into the
// highlight registry.  Records missing either plotted key get no marker.
func scatterSVG(points []point, xLabel, yLabel string, colored bool) template.HTML {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg class="mv-canvas" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`,
		plotWidth, plotHeight)

	innerW := float64(plotWidth - marginLeft - marginRight)
	innerH := float64(plotHeight - marginTop - marginBottom)

	if len(points) == 0 {
		fmt.Fprintf(&sb, `<text x="%d" y="%d" text-anchor="middle" class="mv-empty">no data</text>`,
			plotWidth/2, plotHeight/2)
		sb.WriteString(`</svg>`)
		return template.HTML(sb.String())
	}

	xMin, xMax := dataRange(points, func(p point) float64 { return p.X })
	yMin, yMax := dataRange(points, func(p point) float64 { return p.Y })
	cMin, cMax := colorRange(points)

	sx := func(v float64) float64 {
		return float64(marginLeft) + (v-xMin)/(xMax-xMin)*innerW
	}
	sy := func(v float64) float64 {
		return float64(marginTop) + innerH - (v-yMin)/(yMax-yMin)*innerH
	}

	// Axes.
	fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="mv-axis"/>`,
		marginLeft, plotHeight-marginBottom, plotWidth-marginRight, plotHeight-marginBottom)
	fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="mv-axis"/>`,
		marginLeft, marginTop, marginLeft, plotHeight-marginBottom)

	for _, t := range ticks(xMin, xMax) {
		x := sx(t)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" class="mv-tick"/>`,
			x, plotHeight-marginBottom, x, plotHeight-marginBottom+5)
		fmt.Fprintf(&sb, `<text x="%.1f" y="%d" text-anchor="middle" class="mv-ticklabel">%s</text>`,
			x, plotHeight-marginBottom+18, formatTick(t))
	}
	for _, t := range ticks(yMin, yMax) {
		y := sy(t)
		fmt.Fprintf(&sb, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" class="mv-tick"/>`,
			marginLeft-5, y, marginLeft, y)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" text-anchor="end" dominant-baseline="central" class="mv-ticklabel">%s</text>`,
			marginLeft-8, y, formatTick(t))
	}

	fmt.Fprintf(&sb, `<text x="%d" y="%d" text-anchor="middle" class="mv-axislabel">%s</text>`,
		marginLeft+int(innerW)/2, plotHeight-8, template.HTMLEscapeString(xLabel))
	fmt.Fprintf(&sb, `<text x="14" y="%d" text-anchor="middle" class="mv-axislabel" transform="rotate(-90 14 %d)">%s</text>`,
		marginTop+int(innerH)/2, marginTop+int(innerH)/2, template.HTMLEscapeString(yLabel))

	// Markers, in index order so output is deterministic.
	for _, p := range points {
		fill := "#4477aa"
		if colored && !math.IsNaN(p.Color) {
			fill = viridis((p.Color - cMin) / math.Max(cMax-cMin, 1e-12))
		}
		fmt.Fprintf(&sb, `<circle class="mv-marker" data-idx="%d" cx="%.2f" cy="%.2f" r="%d" fill="%s"/>`,
			p.Index, sx(p.X), sy(p.Y), markerRadius, fill)
	}

	sb.WriteString(`</svg>`)
	return template.HTML(sb.String())
}

// dataRange pads the min/max of a coordinate so markers stay off the axes.
func dataRange(points []point, get func(point) float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		v := get(p)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func colorRange(points []point) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if math.IsNaN(p.Color) {
			continue
		}
		lo = math.Min(lo, p.Color)
		hi = math.Max(hi, p.Color)
	}
	if lo > hi {
		return 0, 1
	}
	return lo, hi
}

// ticks picks about five round tick values across [lo, hi].
func ticks(lo, hi float64) []float64 {
	span := hi - lo
	if span <= 0 {
		return []float64{lo}
	}
	step := math.Pow(10, math.Floor(math.Log10(span/5)))
	for span/step > 8 {
		step *= 2
	}
	var out []float64
	for v := math.Ceil(lo/step) * step; v <= hi; v += step {
		out = append(out, v)
	}
	return out
}

func formatTick(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e6 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2g", v)
}

// viridis maps t in [0,1] to a hex color on a perceptually ordered ramp.
func viridis(t float64) string {
	t = math.Max(0, math.Min(1, t))
	stops := [][3]float64{
		{68, 1, 84}, {59, 82, 139}, {33, 145, 140}, {94, 201, 98}, {253, 231, 37},
	}
	pos := t * float64(len(stops)-1)
	i := int(pos)
	if i >= len(stops)-1 {
		i = len(stops) - 2
	}
	f := pos - float64(i)
	r := stops[i][0] + (stops[i+1][0]-stops[i][0])*f
	g := stops[i][1] + (stops[i+1][1]-stops[i][1])*f
	b := stops[i][2] + (stops[i+1][2]-stops[i][2])*f
	return fmt.Sprintf("#%02x%02x%02x", int(r), int(g), int(b))
}

// propertyPoints collects markers for a descriptor/property scatter.
func propertyPoints(records []*dataset.Record, xKey, yKey, colorKey string) []point {
	var pts []point
	for _, r := range records {
		x, okX := r.Value(xKey)
		y, okY := r.Value(yKey)
		if !okX || !okY {
			continue
		}
		c := math.NaN()
		if colorKey != "" {
			if v, ok := r.Value(colorKey); ok {
				c = v
			}
		}
		pts = append(pts, point{Index: r.Index, X: x, Y: y, Color: c})
	}
	return pts
}

// embeddingPoints collects markers for a chemical-space projection.
func embeddingPoints(records []*dataset.Record, kind, colorKey string) []point {
	var pts []point
	for _, r := range records {
		coord, ok := r.Embeddings[kind]
		if !ok {
			continue
		}
		c := math.NaN()
		if colorKey != "" {
			if v, ok := r.Value(colorKey); ok {
				c = v
			}
		}
		pts = append(pts, point{Index: r.Index, X: coord[0], Y: coord[1], Color: c})
	}
	return pts
}

// axisTitle renders a key as a human label with units where known.
func axisTitle(key string) string {
	label := mtypes.DescriptorLabel(key)
	if unit := mtypes.DescriptorUnit(key); unit != "" {
		return label + " (" + unit + ")"
	}
	return label
}
