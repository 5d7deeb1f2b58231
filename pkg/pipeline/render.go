package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/layerscope/pkg/engine"
	"github.com/matzehuels/layerscope/pkg/frame"
	"github.com/matzehuels/layerscope/pkg/model"
	"github.com/matzehuels/layerscope/pkg/render/sink"
	"github.com/matzehuels/layerscope/pkg/scene"
)

// Render generates output artifacts in the requested formats.
//
// Frame-based formats (json, jsonl) encode the whole sequence; snapshot
// formats (svg, png, pdf) draw the frame selected by opts.Frame; graph
// formats (dot, graph) draw the layer sequence with the light cone the
// visual state selects.
func Render(ctx context.Context, s *scene.Scene, m *model.Model, frames []frame.Frame, opts Options) (map[string][]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("render: nil scene")
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(ctx, format, s, m, frames, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, format string, s *scene.Scene, m *model.Model, frames []frame.Frame, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return sink.RenderJSON(frames,
			sink.WithJSONScene(s),
			sink.WithJSONFPS(opts.FPS),
			sink.WithJSONState(opts.Visual))
	case FormatJSONL:
		var buf bytes.Buffer
		if err := sink.WriteJSONLines(&buf, frames); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatSVG:
		return sink.RenderSVG(snapshot(frames, opts), buildSVGOptions(s, opts)...), nil
	case FormatPNG:
		return sink.RenderPNG(ctx, snapshot(frames, opts),
			sink.WithPNGSVGOptions(buildSVGOptions(s, opts)...),
			sink.WithScale(opts.Scale))
	case FormatPDF:
		return sink.RenderPDF(ctx, snapshot(frames, opts), buildSVGOptions(s, opts)...)
	case FormatDOT:
		return []byte(sink.ToDOT(s, graphOptions(s, m, opts))), nil
	case FormatGraph:
		return sink.RenderGraphSVG(ctx, sink.ToDOT(s, graphOptions(s, m, opts)))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func snapshot(frames []frame.Frame, opts Options) frame.Frame {
	if len(frames) == 0 {
		return frame.Frame{}
	}
	return frames[opts.SnapshotIndex(len(frames))]
}

func buildSVGOptions(s *scene.Scene, opts Options) []sink.SVGOption {
	return []sink.SVGOption{
		sink.WithSize(opts.Width, opts.Height),
		sink.WithView(sink.ParseView(opts.View)),
		sink.WithTitle(s.Name),
	}
}

func graphOptions(s *scene.Scene, m *model.Model, opts Options) sink.GraphOptions {
	st := engine.DefaultState()
	if opts.Visual != nil {
		st = *opts.Visual
	}
	return sink.GraphOptions{
		Detailed: opts.Detailed,
		Scope:    engine.ScopeFor(st, m, len(s.Layout.Layers)),
	}
}
