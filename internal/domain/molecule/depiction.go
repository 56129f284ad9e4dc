package molecule

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"github.com/turtacn/MolVista/pkg/errors"
)

const (
	depictWidth  = 240
	depictHeight = 200
	bondLength   = 34.0
)

// Depict renders a schematic 2D structure drawing of a SMILES string as an
// SVG data URI suitable for direct embedding in an <img> tag.  The layout is
// a simple force-free radial embedding; a production deployment would use
// RDKit's MolDraw2DSVG for publication-quality depictions.
func Depict(smiles string) (string, error) {
	g, err := ParseSMILES(smiles)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeDepictionFailed, "depiction failed")
	}
	if len(g.Atoms) == 0 {
		return "", errors.New(errors.CodeDepictionFailed, "depiction failed").
			WithDetail("molecule has no atoms")
	}

	xs, ys := layoutCoordinates(g)
	svg := renderSVG(g, xs, ys)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg)), nil
}

// layoutCoordinates places atoms by BFS from atom 0, fanning children out
// around the incoming direction.  Crude but stable and deterministic.
func layoutCoordinates(g *Graph) ([]float64, []float64) {
	n := len(g.Atoms)
	adj := make([][]int, n)
	for _, b := range g.Bonds {
		adj[b.From] = append(adj[b.From], b.To)
		adj[b.To] = append(adj[b.To], b.From)
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	angle := make([]float64, n)
	placed := make([]bool, n)

	for start := 0; start < n; start++ {
		if placed[start] {
			continue
		}
		// New component starts below anything placed so far.
		xs[start], ys[start] = 0, 0
		if start > 0 {
			minY := 0.0
			for i := 0; i < start; i++ {
				if placed[i] && ys[i] > minY {
					minY = ys[i]
				}
			}
			ys[start] = minY + bondLength*1.5
		}
		placed[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			unplaced := 0
			for _, nb := range adj[cur] {
				if !placed[nb] {
					unplaced++
				}
			}
			if unplaced == 0 {
				continue
			}
			spread := math.Pi / 3 * float64(unplaced-1)
			a := angle[cur] - spread/2
			for _, nb := range adj[cur] {
				if placed[nb] {
					continue
				}
				// Alternate zig-zag for chains.
				theta := a
				if unplaced == 1 {
					theta = angle[cur] + math.Pi/6*zig(cur)
				}
				xs[nb] = xs[cur] + bondLength*math.Cos(theta)
				ys[nb] = ys[cur] + bondLength*math.Sin(theta)
				angle[nb] = theta
				placed[nb] = true
				queue = append(queue, nb)
				a += math.Pi / 3
			}
		}
	}

	fitToCanvas(xs, ys)
	return xs, ys
}

func zig(i int) float64 {
	if i%2 == 0 {
		return 1
	}
	return -1
}

func fitToCanvas(xs, ys []float64) {
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := range xs {
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}
	spanX := math.Max(maxX-minX, 1)
	spanY := math.Max(maxY-minY, 1)
	margin := 20.0
	scale := math.Min((depictWidth-2*margin)/spanX, (depictHeight-2*margin)/spanY)
	if scale > 1 {
		scale = 1
	}
	for i := range xs {
		xs[i] = (xs[i]-minX)*scale + (depictWidth-spanX*scale)/2
		ys[i] = (ys[i]-minY)*scale + (depictHeight-spanY*scale)/2
	}
}

var atomColors = map[string]string{
	"N":  "#3050F8",
	"O":  "#FF0D0D",
	"S":  "#FFC832",
	"P":  "#FF8000",
	"F":  "#90E050",
	"Cl": "#1FF01F",
	"Br": "#A62929",
	"I":  "#940094",
}

func renderSVG(g *Graph, xs, ys []float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		depictWidth, depictHeight, depictWidth, depictHeight)
	sb.WriteString(`<rect width="100%" height="100%" fill="white"/>`)

	for _, b := range g.Bonds {
		x1, y1 := xs[b.From], ys[b.From]
		x2, y2 := xs[b.To], ys[b.To]
		switch {
		case b.Aromatic:
			fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#444" stroke-width="1.5"/>`, x1, y1, x2, y2)
			ox, oy := offset(x1, y1, x2, y2, 3)
			fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#444" stroke-width="1" stroke-dasharray="3,3"/>`, x1+ox, y1+oy, x2+ox, y2+oy)
		case b.Order >= 2:
			ox, oy := offset(x1, y1, x2, y2, 2)
			fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#444" stroke-width="1.5"/>`, x1-ox, y1-oy, x2-ox, y2-oy)
			fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#444" stroke-width="1.5"/>`, x1+ox, y1+oy, x2+ox, y2+oy)
			if b.Order == 3 {
				fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#444" stroke-width="1.5"/>`, x1, y1, x2, y2)
			}
		default:
			fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#444" stroke-width="1.5"/>`, x1, y1, x2, y2)
		}
	}

	// Heteroatom labels only; bare carbons stay implicit like a skeletal
	// formula.
	for i, a := range g.Atoms {
		if a.Symbol == "C" && a.Charge == 0 {
			continue
		}
		color, ok := atomColors[a.Symbol]
		if !ok {
			color = "#222"
		}
		label := a.Symbol
		if a.Charge > 0 {
			label += "+"
		} else if a.Charge < 0 {
			label += "-"
		}
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="8" fill="white"/>`, xs[i], ys[i])
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-family="sans-serif" font-size="11" fill="%s">%s</text>`,
			xs[i], ys[i], color, label)
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}

func offset(x1, y1, x2, y2, d float64) (float64, float64) {
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return 0, 0
	}
	return -dy / length * d, dx / length * d
}
