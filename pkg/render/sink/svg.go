package sink

import (
	"bytes"
	"cmp"
	"fmt"
	"html"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/layerscope/pkg/animate"
	"github.com/matzehuels/layerscope/pkg/frame"
)

// View selects the orthographic projection plane.
type View string

const (
	// ViewSide looks along -X: depth runs left to right, Y is up.
	ViewSide View = "side"
	// ViewTop looks along -Y: depth runs left to right, X is up.
	ViewTop View = "top"
	// ViewFront looks along the depth axis: X right, Y up.
	ViewFront View = "front"
)

// ParseView parses a view name, defaulting to [ViewSide].
func ParseView(s string) View {
	switch v := View(s); v {
	case ViewSide, ViewTop, ViewFront:
		return v
	}
	return ViewSide
}

const (
	defaultSVGWidth  = 1200.0
	defaultSVGHeight = 700.0
	svgMargin        = 40.0
	minNeuronRadius  = 1.5
)

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width, height float64
	view          View
	background    string
	labels        bool
	title         string
}

func WithSize(w, h float64) SVGOption {
	return func(r *svgRenderer) {
		if w > 0 && h > 0 {
			r.width, r.height = w, h
		}
	}
}
func WithView(v View) SVGOption             { return func(r *svgRenderer) { r.view = ParseView(string(v)) } }
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }
func WithoutLabels() SVGOption              { return func(r *svgRenderer) { r.labels = false } }
func WithTitle(title string) SVGOption      { return func(r *svgRenderer) { r.title = title } }

// RenderSVG draws an orthographic snapshot of one frame. Hidden primitives
// are skipped; everything else is painted back to front along the dropped
// axis.
func RenderSVG(f frame.Frame, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	p := r.projector(f)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		r.width, r.height, r.width, r.height)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.background)
	if r.title != "" {
		fmt.Fprintf(&buf, `  <title>%s</title>`+"\n", html.EscapeString(r.title))
	}

	buf.WriteString(`  <g id="cones">` + "\n")
	for i, c := range f.Cones {
		renderCone(&buf, p, i, c.Origin, c.Tip(), c.Radius)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g id="connections" fill="none">` + "\n")
	for _, c := range f.Connections {
		if c.Visible {
			renderCurve(&buf, p, c.Curve, c.Material, 0.6)
		}
	}
	for _, b := range f.Beams {
		if b.Visible {
			renderCurve(&buf, p, b.Curve, b.Material, 1.2)
		}
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g id="neurons">` + "\n")
	for _, n := range sortedNeurons(f.Neurons, r.view) {
		renderDot(&buf, p, n.Position, n.Scale, n.Material)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g id="particles">` + "\n")
	for _, pt := range f.Particles {
		if pt.Visible {
			renderDot(&buf, p, pt.Position, pt.Scale, pt.Material)
		}
	}
	for _, pt := range f.ConeParticles {
		if pt.Visible {
			renderDot(&buf, p, pt.Position, pt.Scale, pt.Material)
		}
	}
	buf.WriteString("  </g>\n")

	if r.labels {
		renderLabels(&buf, p, f.Layers)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{
		width:      defaultSVGWidth,
		height:     defaultSVGHeight,
		view:       ViewSide,
		background: "#0b1020",
		labels:     true,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// =============================================================================
// Projection
// =============================================================================

type projector struct {
	view   View
	scale  float64
	cx, cy float64
	w, h   float64
}

// plane drops the view axis and returns (u, v, depth) with v pointing up.
func plane(view View, p r3.Vec) (u, v, d float64) {
	switch view {
	case ViewTop:
		return p.Z, p.X, p.Y
	case ViewFront:
		return p.X, p.Y, -p.Z
	default:
		return p.Z, p.Y, p.X
	}
}

func (r svgRenderer) projector(f frame.Frame) projector {
	minU, minV := math.Inf(1), math.Inf(1)
	maxU, maxV := math.Inf(-1), math.Inf(-1)
	grow := func(p r3.Vec) {
		u, v, _ := plane(r.view, p)
		minU, maxU = math.Min(minU, u), math.Max(maxU, u)
		minV, maxV = math.Min(minV, v), math.Max(maxV, v)
	}
	for _, n := range f.Neurons {
		grow(n.Position)
	}
	for _, l := range f.Layers {
		grow(l.Position)
	}
	for _, c := range f.Cones {
		grow(c.Origin)
		grow(c.Tip())
	}

	pr := projector{view: r.view, w: r.width, h: r.height, scale: 1}
	if math.IsInf(minU, 0) {
		pr.cx, pr.cy = r.width/2, r.height/2
		return pr
	}
	spanU := math.Max(maxU-minU, 1)
	spanV := math.Max(maxV-minV, 1)
	pr.scale = math.Min((r.width-2*svgMargin)/spanU, (r.height-2*svgMargin)/spanV)
	pr.cx = r.width/2 - pr.scale*(minU+maxU)/2
	pr.cy = r.height/2 + pr.scale*(minV+maxV)/2
	return pr
}

func (p projector) point(v r3.Vec) (x, y float64) {
	u, w, _ := plane(p.view, v)
	return p.cx + u*p.scale, p.cy - w*p.scale
}

// =============================================================================
// Primitives
// =============================================================================

func sortedNeurons(ns []frame.Neuron, view View) []frame.Neuron {
	out := make([]frame.Neuron, 0, len(ns))
	for _, n := range ns {
		if n.Visible {
			out = append(out, n)
		}
	}
	slices.SortStableFunc(out, func(a, b frame.Neuron) int {
		_, _, da := plane(view, a.Position)
		_, _, db := plane(view, b.Position)
		return cmp.Compare(da, db)
	})
	return out
}

func renderDot(buf *bytes.Buffer, p projector, pos r3.Vec, scale float64, m animate.Material) {
	x, y := p.point(pos)
	rad := math.Max(scale*p.scale/2, minNeuronRadius)
	fmt.Fprintf(buf, `    <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" fill-opacity="%.3f"/>`+"\n",
		x, y, rad, m.Color, m.Opacity)
}

func renderCurve(buf *bytes.Buffer, p projector, c animate.Bezier, m animate.Material, width float64) {
	x0, y0 := p.point(c.Start)
	x1, y1 := p.point(c.Control)
	x2, y2 := p.point(c.End)
	fmt.Fprintf(buf, `    <path d="M%.2f,%.2f Q%.2f,%.2f %.2f,%.2f" stroke="%s" stroke-opacity="%.3f" stroke-width="%.1f"/>`+"\n",
		x0, y0, x1, y1, x2, y2, m.Color, m.Opacity, width)
}

func renderCone(buf *bytes.Buffer, p projector, i int, origin, tip r3.Vec, radius float64) {
	ox, oy := p.point(origin)
	tx, ty := p.point(tip)
	// Perpendicular to the cone axis in screen space.
	dx, dy := tx-ox, ty-oy
	n := math.Hypot(dx, dy)
	if n == 0 {
		fmt.Fprintf(buf, `    <circle id="cone-%d" cx="%.2f" cy="%.2f" r="%.2f" fill="#e0f2fe" fill-opacity="0.08"/>`+"\n",
			i, ox, oy, radius*p.scale)
		return
	}
	px, py := -dy/n*radius*p.scale, dx/n*radius*p.scale
	fmt.Fprintf(buf, `    <polygon id="cone-%d" points="%.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="#e0f2fe" fill-opacity="0.08"/>`+"\n",
		i, ox, oy, tx+px, ty+py, tx-px, ty-py)
}

func renderLabels(buf *bytes.Buffer, p projector, layers []frame.Layer) {
	buf.WriteString(`  <g id="labels" font-family="sans-serif" font-size="12" text-anchor="middle">` + "\n")
	for _, l := range layers {
		if l.Label == "" {
			continue
		}
		x, _ := p.point(l.Position)
		fill := "#cbd5e1"
		if l.InScope || l.Current {
			fill = "#ffffff"
		}
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" fill="%s">%s</text>`+"\n",
			x, p.h-svgMargin/3, fill, html.EscapeString(l.Label))
	}
	buf.WriteString("  </g>\n")
}
