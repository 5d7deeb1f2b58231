// Package model defines the network architectures layerscope visualizes.
//
// A [Model] is a discriminated union over three families (fully connected,
// convolutional, transformer). Every family carries an ordered sequence of
// [Layer] values; the order defines the scene's depth axis. Family-specific
// configuration lives in optional fields ([TransformerConfig]) rather than in
// separate Go types so models round-trip through TOML and JSON unchanged.
//
// Models are read-only inputs. The animation core never mutates them and
// identifies them by content hash ([Model.Hash]).
package model

import (
	"encoding/json"

	"github.com/matzehuels/layerscope/pkg/cache"
	"github.com/matzehuels/layerscope/pkg/errors"
)

// Family is the network family tag.
type Family string

const (
	FamilyFullyConnected Family = "fully_connected"
	FamilyConvolutional  Family = "convolutional"
	FamilyTransformer    Family = "transformer"
)

// Known reports whether f is one of the supported families.
func (f Family) Known() bool {
	switch f {
	case FamilyFullyConnected, FamilyConvolutional, FamilyTransformer:
		return true
	}
	return false
}

// LayerKind is the family-specific layer tag.
type LayerKind string

// Fully connected kinds.
const (
	KindInput  LayerKind = "input"
	KindHidden LayerKind = "hidden"
	KindOutput LayerKind = "output"
)

// Convolutional kinds. Input, dense and output are shared.
const (
	KindConv2D  LayerKind = "conv2d"
	KindPool    LayerKind = "pool"
	KindFlatten LayerKind = "flatten"
	KindDense   LayerKind = "dense"
)

// Transformer kinds.
const (
	KindEmbedding   LayerKind = "embedding"
	KindAttention   LayerKind = "attention"
	KindFeedForward LayerKind = "feed_forward"
	KindLayerNorm   LayerKind = "layer_norm"
)

// Spatial reports whether layers of this kind carry a W×H×C volume.
func (k LayerKind) Spatial() bool {
	return k == KindConv2D || k == KindPool
}

// Layer is one stage in a network's depth sequence.
type Layer struct {
	ID    string    `json:"id" toml:"id"`
	Kind  LayerKind `json:"kind" toml:"kind"`
	Label string    `json:"label,omitempty" toml:"label"`

	// Units is the neuron count for fully connected and dense layers.
	Units int `json:"units,omitempty" toml:"units"`

	// Width, Height and Channels describe a convolutional volume.
	Width    int `json:"width,omitempty" toml:"width"`
	Height   int `json:"height,omitempty" toml:"height"`
	Channels int `json:"channels,omitempty" toml:"channels"`

	// Heads overrides the model-level head count for an attention layer.
	Heads int `json:"heads,omitempty" toml:"heads"`

	Activation string `json:"activation,omitempty" toml:"activation"`
}

// IsVolume reports whether the layer is described by a W×H×C volume rather
// than a neuron count. Convolutional input layers usually are.
func (l Layer) IsVolume() bool {
	return l.Kind.Spatial() || (l.Units == 0 && l.Channels > 0)
}

// DisplayLabel returns the label if set, otherwise the ID.
func (l Layer) DisplayLabel() string {
	if l.Label != "" {
		return l.Label
	}
	return l.ID
}

// TransformerConfig is the transformer-specific top-level configuration.
type TransformerConfig struct {
	DModel    int `json:"d_model" toml:"d_model"`
	NHeads    int `json:"n_heads" toml:"n_heads"`
	NLayers   int `json:"n_layers" toml:"n_layers"`
	SeqLength int `json:"seq_length,omitempty" toml:"seq_length"`
	VocabSize int `json:"vocab_size,omitempty" toml:"vocab_size"`
}

// Metadata is optional provenance information.
type Metadata struct {
	Parameters  int64  `json:"parameters,omitempty" toml:"parameters"`
	Provenance  string `json:"provenance,omitempty" toml:"provenance"`
	Description string `json:"description,omitempty" toml:"description"`
}

// Model is the network being visualized.
type Model struct {
	Name        string             `json:"name" toml:"name"`
	Family      Family             `json:"family" toml:"family"`
	Layers      []Layer            `json:"layers" toml:"layers"`
	Transformer *TransformerConfig `json:"transformer,omitempty" toml:"transformer"`
	Meta        Metadata           `json:"meta,omitempty" toml:"meta"`
}

// Validate checks the structural invariants: at least one layer and unique,
// well-formed layer ids. Shape compatibility between consecutive layers is
// deliberately not checked.
func (m *Model) Validate() error {
	if len(m.Layers) == 0 {
		return errors.New(errors.ErrCodeInvalidModel, "model %q has no layers", m.Name)
	}
	seen := make(map[string]int, len(m.Layers))
	for i, l := range m.Layers {
		if err := errors.ValidateLayerID(l.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidModel, err, "layer %d", i)
		}
		if j, dup := seen[l.ID]; dup {
			return errors.New(errors.ErrCodeInvalidModel, "duplicate layer id %q (layers %d and %d)", l.ID, j, i)
		}
		seen[l.ID] = i
	}
	return nil
}

// LayerIndex returns the position of the layer with the given id, or -1.
func (m *Model) LayerIndex(id string) int {
	for i, l := range m.Layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Heads returns the attention head count for layer i, falling back to the
// model-level config and finally to 1.
func (m *Model) Heads(i int) int {
	if i >= 0 && i < len(m.Layers) && m.Layers[i].Heads > 0 {
		return m.Layers[i].Heads
	}
	if m.Transformer != nil && m.Transformer.NHeads > 0 {
		return m.Transformer.NHeads
	}
	return 1
}

// SeqLength returns the number of token slots to display for a transformer.
func (m *Model) SeqLength() int {
	if m.Transformer != nil && m.Transformer.SeqLength > 0 {
		return m.Transformer.SeqLength
	}
	return DefaultSeqLength
}

// DefaultSeqLength is the token count shown when a transformer config omits it.
const DefaultSeqLength = 8

// Marshal encodes the model as canonical JSON.
func (m *Model) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Hash returns the content hash of the model. Two models with the same
// content share a hash regardless of pointer identity.
func (m *Model) Hash() string {
	data, _ := m.Marshal()
	return cache.Hash(data)
}

// ParameterCount returns Meta.Parameters when set, otherwise an estimate from
// the layer shapes (dense weights plus biases, conv filters as 3×3 kernels).
func (m *Model) ParameterCount() int64 {
	if m.Meta.Parameters > 0 {
		return m.Meta.Parameters
	}
	var total int64
	prevUnits := 0
	prevChannels := 0
	for _, l := range m.Layers {
		switch {
		case l.Kind == KindConv2D:
			in := max(prevChannels, 1)
			total += int64(in*9*l.Channels + l.Channels)
			prevChannels = l.Channels
			prevUnits = l.Width * l.Height * l.Channels
		case l.IsVolume():
			prevChannels = l.Channels
			prevUnits = l.Width * l.Height * l.Channels
		case l.Units > 0:
			if prevUnits > 0 {
				total += int64(prevUnits*l.Units + l.Units)
			}
			prevUnits = l.Units
		}
	}
	return total
}
