package model

import (
	"slices"

	"github.com/matzehuels/layerscope/pkg/errors"
)

// Preset names.
const (
	PresetMLP         = "mlp"
	PresetMNISTMLP    = "mnist-mlp"
	PresetLeNet5      = "lenet5"
	PresetAlexNetLite = "alexnet-lite"
	PresetGPT2Small   = "gpt2-small"
	PresetBERTTiny    = "bert-tiny"
)

var presets = map[string]func() *Model{
	PresetMLP:         mlp,
	PresetMNISTMLP:    mnistMLP,
	PresetLeNet5:      lenet5,
	PresetAlexNetLite: alexnetLite,
	PresetGPT2Small:   gpt2Small,
	PresetBERTTiny:    bertTiny,
}

// PresetNames returns the built-in preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Preset returns a fresh copy of the named built-in model.
func Preset(name string) (*Model, error) {
	if err := errors.ValidatePresetName(name); err != nil {
		return nil, err
	}
	build, ok := presets[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownPreset, "unknown preset %q", name)
	}
	return build(), nil
}

// FullyConnected builds a fully connected model from a list of layer widths.
// The first layer is tagged input, the last output, everything else hidden.
func FullyConnected(name string, sizes ...int) *Model {
	m := &Model{Name: name, Family: FamilyFullyConnected}
	for i, n := range sizes {
		kind := KindHidden
		switch i {
		case 0:
			kind = KindInput
		case len(sizes) - 1:
			kind = KindOutput
		}
		m.Layers = append(m.Layers, Layer{
			ID:    layerID(kind, i),
			Kind:  kind,
			Units: n,
		})
	}
	return m
}

func layerID(kind LayerKind, i int) string {
	return string(kind) + "_" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

func mlp() *Model {
	m := FullyConnected("Simple MLP", 8, 16, 12, 4)
	m.Meta.Description = "Small multilayer perceptron"
	return m
}

func mnistMLP() *Model {
	m := FullyConnected("MNIST MLP", 784, 128, 64, 10)
	m.Layers[0].Label = "pixels"
	m.Layers[3].Label = "digits"
	m.Meta = Metadata{
		Provenance:  "MNIST",
		Description: "Dense classifier over flattened 28×28 images",
	}
	return m
}

func lenet5() *Model {
	return &Model{
		Name:   "LeNet-5",
		Family: FamilyConvolutional,
		Layers: []Layer{
			{ID: "input", Kind: KindInput, Width: 32, Height: 32, Channels: 1},
			{ID: "c1", Kind: KindConv2D, Label: "C1", Width: 28, Height: 28, Channels: 6, Activation: "tanh"},
			{ID: "s2", Kind: KindPool, Label: "S2", Width: 14, Height: 14, Channels: 6},
			{ID: "c3", Kind: KindConv2D, Label: "C3", Width: 10, Height: 10, Channels: 16, Activation: "tanh"},
			{ID: "s4", Kind: KindPool, Label: "S4", Width: 5, Height: 5, Channels: 16},
			{ID: "c5", Kind: KindDense, Label: "C5", Units: 120, Activation: "tanh"},
			{ID: "f6", Kind: KindDense, Label: "F6", Units: 84, Activation: "tanh"},
			{ID: "output", Kind: KindOutput, Units: 10},
		},
		Meta: Metadata{
			Parameters:  61706,
			Provenance:  "LeCun et al., 1998",
			Description: "Handwritten digit recognition",
		},
	}
}

func alexnetLite() *Model {
	return &Model{
		Name:   "AlexNet (lite)",
		Family: FamilyConvolutional,
		Layers: []Layer{
			{ID: "input", Kind: KindInput, Width: 227, Height: 227, Channels: 3},
			{ID: "conv1", Kind: KindConv2D, Width: 55, Height: 55, Channels: 96, Activation: "relu"},
			{ID: "pool1", Kind: KindPool, Width: 27, Height: 27, Channels: 96},
			{ID: "conv2", Kind: KindConv2D, Width: 27, Height: 27, Channels: 256, Activation: "relu"},
			{ID: "pool2", Kind: KindPool, Width: 13, Height: 13, Channels: 256},
			{ID: "conv3", Kind: KindConv2D, Width: 13, Height: 13, Channels: 384, Activation: "relu"},
			{ID: "flatten", Kind: KindFlatten, Units: 4096},
			{ID: "fc1", Kind: KindDense, Units: 4096, Activation: "relu"},
			{ID: "output", Kind: KindOutput, Units: 1000},
		},
		Meta: Metadata{
			Parameters: 60_000_000,
			Provenance: "Krizhevsky et al., 2012",
		},
	}
}

func gpt2Small() *Model {
	m := &Model{
		Name:        "GPT-2 Small",
		Family:      FamilyTransformer,
		Transformer: &TransformerConfig{DModel: 768, NHeads: 12, NLayers: 12, SeqLength: 8, VocabSize: 50257},
		Meta: Metadata{
			Parameters: 124_000_000,
			Provenance: "OpenAI, 2019",
		},
	}
	m.Layers = append(m.Layers, Layer{ID: "embed", Kind: KindEmbedding, Label: "Token + Position"})
	for i := range 2 {
		n := itoa(i)
		m.Layers = append(m.Layers,
			Layer{ID: "ln_" + n + "a", Kind: KindLayerNorm},
			Layer{ID: "attn_" + n, Kind: KindAttention, Label: "Attention " + n},
			Layer{ID: "ln_" + n + "b", Kind: KindLayerNorm},
			Layer{ID: "mlp_" + n, Kind: KindFeedForward, Label: "MLP " + n},
		)
	}
	m.Layers = append(m.Layers, Layer{ID: "lm_head", Kind: KindOutput, Label: "LM Head"})
	return m
}

func bertTiny() *Model {
	return &Model{
		Name:        "BERT Tiny",
		Family:      FamilyTransformer,
		Transformer: &TransformerConfig{DModel: 128, NHeads: 2, NLayers: 2, SeqLength: 6, VocabSize: 30522},
		Layers: []Layer{
			{ID: "embed", Kind: KindEmbedding},
			{ID: "attn_0", Kind: KindAttention},
			{ID: "ffn_0", Kind: KindFeedForward},
			{ID: "attn_1", Kind: KindAttention},
			{ID: "ffn_1", Kind: KindFeedForward},
			{ID: "pooler", Kind: KindOutput},
		},
		Meta: Metadata{Parameters: 4_400_000, Provenance: "Turc et al., 2019"},
	}
}
