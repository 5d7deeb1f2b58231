// Package sink writes computed frames and scenes to output formats.
//
// # Overview
//
// A "sink" transforms a [frame.Frame] (or a whole run of them) into a file
// a human or another tool can consume. This package provides:
//
//   - JSON: frame streams for external renderers and regression diffs
//   - SVG: orthographic snapshots of a single frame
//   - PNG/PDF: snapshot raster and print output (requires rsvg-convert)
//   - Graph: a Graphviz layer graph with light-cone highlighting
//
// # JSON Output
//
// [RenderJSON] exports a slice of frames as one document; [WriteJSONLines]
// streams them one per line:
//
//	data, err := sink.RenderJSON(frames,
//	    sink.WithJSONScene(s),
//	    sink.WithJSONFPS(60),
//	)
//
// # SVG Output
//
// [RenderSVG] projects a frame onto one of three planes ([ViewSide],
// [ViewTop], [ViewFront]) and paints cones, curves, neurons and particles
// back to front:
//
//	svg := sink.RenderSVG(f, sink.WithView(sink.ViewTop), sink.WithSize(1600, 900))
//
// # SVG Options
//
//   - [WithSize]: Canvas size in pixels
//   - [WithView]: Projection plane
//   - [WithBackground]: Background fill
//   - [WithoutLabels]: Omit layer labels
//   - [WithTitle]: Document title
//
// # Layer Graph
//
// [ToDOT] describes the layer sequence as a left-to-right DOT digraph;
// [RenderGraphSVG] lays it out with the embedded Graphviz:
//
//	dot := sink.ToDOT(s, sink.GraphOptions{Detailed: true, Scope: scope})
//	svg, err := sink.RenderGraphSVG(ctx, dot)
//
// [frame.Frame]: github.com/matzehuels/layerscope/pkg/frame.Frame
package sink
