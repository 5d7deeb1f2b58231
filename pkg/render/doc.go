// Package render turns computed frames and scenes into files.
//
// # Overview
//
// The animation core produces primitive transforms; this package and its
// [sink] subpackage write them out for tools that are not a live renderer:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Frame sinks (in [sink]): JSON frame streams, orthographic SVG
//     snapshots, and a Graphviz layer graph
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg := sink.RenderSVG(f, sink.WithView(sink.ViewSide))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [sink]: github.com/matzehuels/layerscope/pkg/render/sink
package render
