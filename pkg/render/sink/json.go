package sink

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/matzehuels/layerscope/pkg/frame"
	"github.com/matzehuels/layerscope/pkg/scene"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	scene   *scene.Scene
	fps     float64
	compact bool
	state   any
}

// WithJSONScene records the scene identity (name, family, hashes, seed) in
// the output so a consumer can tie the frames back to a model.
func WithJSONScene(s *scene.Scene) JSONOption { return func(r *jsonRenderer) { r.scene = s } }

// WithJSONFPS records the sampling rate the frames were produced at.
func WithJSONFPS(fps float64) JSONOption { return func(r *jsonRenderer) { r.fps = fps } }

// WithJSONCompact disables indentation.
func WithJSONCompact() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

// WithJSONState records the visualization state the frames were computed
// with, for reproducibility.
func WithJSONState(st any) JSONOption { return func(r *jsonRenderer) { r.state = st } }

type jsonOutput struct {
	Model     string        `json:"model,omitempty"`
	Family    string        `json:"family,omitempty"`
	ModelHash string        `json:"model_hash,omitempty"`
	SceneHash string        `json:"scene_hash,omitempty"`
	Seed      uint64        `json:"seed,omitempty"`
	FPS       float64       `json:"fps,omitempty"`
	State     any           `json:"state,omitempty"`
	Layers    []jsonLayer   `json:"layers,omitempty"`
	Frames    []frame.Frame `json:"frames"`
}

type jsonLayer struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Units       int    `json:"units"`
	Actual      int    `json:"actual"`
	Connections int    `json:"connections,omitempty"`
}

// RenderJSON exports a sequence of frames as a single JSON document.
//
// The document carries the frames verbatim plus, with [WithJSONScene], the
// scene identity and a per-layer summary. RenderJSON returns an error only
// if marshaling fails, which cannot happen for frames produced by
// [frame.Compute] because every value they hold is finite.
func RenderJSON(frames []frame.Frame, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		FPS:    r.fps,
		State:  r.state,
		Frames: frames,
	}
	if out.Frames == nil {
		out.Frames = []frame.Frame{}
	}
	if s := r.scene; s != nil {
		out.Model = s.Name
		out.Family = string(s.Family)
		out.ModelHash = s.ModelHash
		out.SceneHash = s.Hash()
		out.Seed = s.Seed
		out.Layers = buildJSONLayers(s)
	}

	if r.compact {
		return json.Marshal(out)
	}
	return json.MarshalIndent(out, "", "  ")
}

func buildJSONLayers(s *scene.Scene) []jsonLayer {
	out := make([]jsonLayer, len(s.Layout.Layers))
	for i, slot := range s.Layout.Layers {
		out[i] = jsonLayer{
			Index:  i,
			ID:     slot.ID,
			Kind:   string(slot.Kind),
			Units:  slot.Units,
			Actual: slot.Actual,
		}
	}
	for _, p := range s.Pairs {
		if p.From >= 0 && p.From < len(out) {
			out[p.From].Connections = len(p.Connections)
		}
	}
	return out
}

// WriteJSONLines streams frames to w as newline-delimited JSON, one frame
// per line.
func WriteJSONLines(w io.Writer, frames []frame.Frame) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i := range frames {
		if err := enc.Encode(&frames[i]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
