package sink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/layerscope/pkg/animate"
	"github.com/matzehuels/layerscope/pkg/lightcone"
	"github.com/matzehuels/layerscope/pkg/render"
	"github.com/matzehuels/layerscope/pkg/scene"
)

// GraphOptions configures the layer graph.
type GraphOptions struct {
	// Detailed adds kind, unit counts and sampled connection counts to
	// node and edge labels. When false, only the layer label is shown.
	Detailed bool

	// Scope highlights the light cone: in-scope layers are filled with the
	// family accent, the selected layer is drawn bold, everything else is
	// greyed out. An inactive scope draws every layer normally.
	Scope lightcone.Scope
}

// ToDOT converts a scene's layer sequence to Graphviz DOT. Layers are laid
// out left to right in depth order; attention layers carry their head count.
func ToDOT(s *scene.Scene, opts GraphOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#64748b\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("\n")
	if s == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	accent := animate.Hex(animate.FamilyAccent(s.Family))
	heads := make(map[int]int, len(s.Attention))
	for _, a := range s.Attention {
		heads[a.Layer] = a.Heads
	}

	for i, slot := range s.Layout.Layers {
		label := fmtLayerLabel(slot.Label, string(slot.Kind), slot.Units, slot.Actual, heads[i], opts.Detailed)
		attrs := fmtLayerAttrs(i, label, accent, opts.Scope)
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(i, slot.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	pairs := make(map[int]int, len(s.Pairs))
	for _, p := range s.Pairs {
		pairs[p.From] = len(p.Connections)
	}
	for i := 0; i+1 < len(s.Layout.Layers); i++ {
		from, to := s.Layout.Layers[i], s.Layout.Layers[i+1]
		var attrs []string
		if n, ok := pairs[i]; ok && opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("label=%q", strconv.Itoa(n)))
		}
		if opts.Scope.Active() {
			if opts.Scope.Contains(i) && opts.Scope.Contains(i+1) {
				attrs = append(attrs, "penwidth=2.5", fmt.Sprintf("color=%q", accent))
			} else {
				attrs = append(attrs, "style=dashed", "color=\"#cbd5e1\"")
			}
		}
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", nodeID(i, from.ID), nodeID(i+1, to.ID), strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(i, from.ID), nodeID(i+1, to.ID))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(i int, id string) string {
	if id == "" {
		return "layer_" + strconv.Itoa(i)
	}
	return id
}

func fmtLayerLabel(label, kind string, units, actual, heads int, detailed bool) string {
	if !detailed {
		return label
	}
	parts := []string{label, kind}
	if actual > units {
		parts = append(parts, fmt.Sprintf("%d of %d units", units, actual))
	} else {
		parts = append(parts, fmt.Sprintf("%d units", units))
	}
	if heads > 0 {
		parts = append(parts, fmt.Sprintf("%d heads", heads))
	}
	return strings.Join(parts, "\n")
}

func fmtLayerAttrs(i int, label, accent string, scope lightcone.Scope) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if !scope.Active() {
		return attrs
	}
	switch {
	case i == scope.Selected:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", accent), "penwidth=3", "fontcolor=white")
	case scope.Contains(i):
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", accent), "fontcolor=white")
	default:
		attrs = append(attrs, "fillcolor=\"#f1f5f9\"", "fontcolor=\"#94a3b8\"", "color=\"#cbd5e1\"")
	}
	return attrs
}

// RenderGraphSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
func RenderGraphSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderGraphPNG renders a DOT graph as PNG via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderGraphPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderGraphSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites Graphviz's pt-sized root element so the SVG
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
