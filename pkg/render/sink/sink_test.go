package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/layerscope/pkg/clock"
	"github.com/matzehuels/layerscope/pkg/frame"
	"github.com/matzehuels/layerscope/pkg/lightcone"
	"github.com/matzehuels/layerscope/pkg/model"
	"github.com/matzehuels/layerscope/pkg/scene"
)

func testScene(t *testing.T, name string) *scene.Scene {
	t.Helper()
	m, err := model.Preset(name)
	if err != nil {
		t.Fatal(err)
	}
	return scene.Build(m, scene.DefaultOptions(), nil)
}

func testFrames(s *scene.Scene, n int, st frame.Settings) []frame.Frame {
	c := clock.New(clock.DefaultCycle)
	c.Play()
	out := make([]frame.Frame, n)
	for i := range n {
		c.Tick(1.0/30, 1)
		out[i] = frame.Compute(s, c.Snapshot(), st)
	}
	return out
}

func TestRenderJSON(t *testing.T) {
	s := testScene(t, model.PresetMLP)
	frames := testFrames(s, 3, frame.DefaultSettings())

	data, err := RenderJSON(frames, WithJSONScene(s), WithJSONFPS(30))
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}

	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if out.Model != s.Name || out.ModelHash != s.ModelHash || out.SceneHash != s.Hash() {
		t.Errorf("scene identity = %q %q %q", out.Model, out.ModelHash, out.SceneHash)
	}
	if out.FPS != 30 {
		t.Errorf("FPS = %v, want 30", out.FPS)
	}
	if len(out.Frames) != 3 {
		t.Fatalf("Frames count = %d, want 3", len(out.Frames))
	}
	if len(out.Frames[0].Neurons) != len(frames[0].Neurons) {
		t.Errorf("neurons = %d, want %d", len(out.Frames[0].Neurons), len(frames[0].Neurons))
	}
	if len(out.Layers) != 4 || out.Layers[0].Connections != 8*16 {
		t.Errorf("Layers = %+v", out.Layers)
	}
	if !bytes.Contains(data, []byte("\n  ")) {
		t.Error("default output should be indented")
	}
}

func TestRenderJSONWithOptions(t *testing.T) {
	data, err := RenderJSON(nil, WithJSONCompact(), WithJSONState(map[string]any{"speed": 2}))
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}
	if bytes.Contains(data, []byte("\n")) {
		t.Error("compact output should be a single line")
	}
	if !bytes.Contains(data, []byte(`"frames":[]`)) {
		t.Errorf("nil frames should encode as an empty array: %s", data)
	}
	if !bytes.Contains(data, []byte(`"speed":2`)) {
		t.Errorf("state missing: %s", data)
	}
}

func TestWriteJSONLines(t *testing.T) {
	s := testScene(t, model.PresetBERTTiny)
	frames := testFrames(s, 4, frame.DefaultSettings())

	var buf bytes.Buffer
	if err := WriteJSONLines(&buf, frames); err != nil {
		t.Fatalf("WriteJSONLines() error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4", len(lines))
	}
	var f frame.Frame
	if err := json.Unmarshal([]byte(lines[2]), &f); err != nil {
		t.Fatalf("line 2: %v", err)
	}
	if f.Time != frames[2].Time {
		t.Errorf("Time = %v, want %v", f.Time, frames[2].Time)
	}
}

func TestRenderSVG(t *testing.T) {
	s := testScene(t, model.PresetMLP)
	st := frame.DefaultSettings()
	st.Scope = lightcone.ComputeScope(1, lightcone.Forward, 1, len(s.Layout.Layers))
	f := testFrames(s, 1, st)[0]

	tests := []struct {
		name string
		opts []SVGOption
		want []string
	}{
		{"default", nil, []string{`width="1200"`, `id="neurons"`, `id="cone-0"`, "<text"}},
		{"top view", []SVGOption{WithView(ViewTop)}, []string{`<circle`}},
		{"sized", []SVGOption{WithSize(400, 300)}, []string{`viewBox="0 0 400.0 300.0"`}},
		{"titled", []SVGOption{WithTitle("a<b")}, []string{"<title>a&lt;b</title>"}},
		{"background", []SVGOption{WithBackground("#fff")}, []string{`fill="#fff"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svg := string(RenderSVG(f, tt.opts...))
			if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>\n") {
				t.Fatal("output is not a complete svg document")
			}
			for _, w := range tt.want {
				if !strings.Contains(svg, w) {
					t.Errorf("svg missing %q", w)
				}
			}
			if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
				t.Error("svg contains non-finite coordinates")
			}
		})
	}

	t.Run("without labels", func(t *testing.T) {
		if strings.Contains(string(RenderSVG(f, WithoutLabels())), "<text") {
			t.Error("labels should be omitted")
		}
	})

	t.Run("neuron count", func(t *testing.T) {
		svg := string(RenderSVG(f, WithoutLabels()))
		neurons := svg[strings.Index(svg, `id="neurons"`):strings.Index(svg, `id="particles"`)]
		if got := strings.Count(neurons, "<circle"); got != len(f.Neurons) {
			t.Errorf("neuron circles = %d, want %d", got, len(f.Neurons))
		}
	})
}

func TestRenderSVGEmpty(t *testing.T) {
	svg := string(RenderSVG(frame.Frame{}))
	if !strings.Contains(svg, "</svg>") || strings.Contains(svg, "<circle") {
		t.Errorf("empty frame svg = %s", svg)
	}
}

func TestParseView(t *testing.T) {
	tests := map[string]View{"side": ViewSide, "top": ViewTop, "front": ViewFront, "": ViewSide, "iso": ViewSide}
	for in, want := range tests {
		if got := ParseView(in); got != want {
			t.Errorf("ParseView(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToDOT(t *testing.T) {
	s := testScene(t, model.PresetMLP)

	t.Run("plain", func(t *testing.T) {
		dot := ToDOT(s, GraphOptions{})
		if !strings.HasPrefix(dot, "digraph G {") {
			t.Error("should be a digraph")
		}
		if got := strings.Count(dot, "->"); got != 3 {
			t.Errorf("edges = %d, want 3", got)
		}
		if strings.Contains(dot, "fillcolor=\"#f1f5f9\"") {
			t.Error("inactive scope should not grey out layers")
		}
	})

	t.Run("detailed", func(t *testing.T) {
		dot := ToDOT(s, GraphOptions{Detailed: true})
		if !strings.Contains(dot, `16 units`) || !strings.Contains(dot, `label="128"`) {
			t.Errorf("detailed dot missing counts:\n%s", dot)
		}
	})

	t.Run("light cone", func(t *testing.T) {
		scope := lightcone.ComputeScope(1, lightcone.Forward, 1, len(s.Layout.Layers))
		dot := ToDOT(s, GraphOptions{Scope: scope})
		if !strings.Contains(dot, "penwidth=3") {
			t.Error("selected layer should be bold")
		}
		if got := strings.Count(dot, "fillcolor=\"#f1f5f9\""); got != 2 {
			t.Errorf("greyed layers = %d, want 2", got)
		}
		if got := strings.Count(dot, "style=dashed"); got != 2 {
			t.Errorf("dashed edges = %d, want 2", got)
		}
	})

	t.Run("transformer heads", func(t *testing.T) {
		dot := ToDOT(testScene(t, model.PresetBERTTiny), GraphOptions{Detailed: true})
		if !strings.Contains(dot, "2 heads") {
			t.Errorf("attention layers should show heads:\n%s", dot)
		}
	})

	t.Run("nil scene", func(t *testing.T) {
		if dot := ToDOT(nil, GraphOptions{}); strings.Contains(dot, "->") {
			t.Error("nil scene should have no edges")
		}
	})
}

func TestRenderGraphSVG(t *testing.T) {
	s := testScene(t, model.PresetMLP)
	svg, err := RenderGraphSVG(context.Background(), ToDOT(s, GraphOptions{}))
	if err != nil {
		t.Fatalf("RenderGraphSVG() error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("hidden_1")) {
		t.Error("graph svg should contain the layer nodes")
	}

	if _, err := RenderGraphSVG(context.Background(), "digraph {"); err == nil {
		t.Error("malformed DOT should fail")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg></svg>")); string(got) != "<svg></svg>" {
		t.Error("svg without viewBox should pass through")
	}
}
