package animate

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/layerscope/pkg/model"
)

// MaxHeads is the number of attention heads with a distinct colour. Heads
// beyond it are not drawn.
const MaxHeads = 4

var (
	headColors = [MaxHeads]colorful.Color{
		mustHex("#f472b6"), // pink
		mustHex("#38bdf8"), // sky
		mustHex("#a3e635"), // lime
		mustHex("#fbbf24"), // amber
	}

	positiveWeight = mustHex("#60a5fa")
	negativeWeight = mustHex("#f97316")
	neutralWeight  = mustHex("#64748b")

	activationCold = mustHex("#1e3a8a")
	activationHot  = mustHex("#fde047")

	background = mustHex("#0b1020")

	familyAccents = map[model.Family]colorful.Color{
		model.FamilyFullyConnected: mustHex("#818cf8"),
		model.FamilyConvolutional:  mustHex("#34d399"),
		model.FamilyTransformer:    mustHex("#f472b6"),
	}
	defaultAccent = mustHex("#94a3b8")
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// HeadColor returns the colour of attention head h. Heads wrap around the
// palette.
func HeadColor(h int) colorful.Color {
	return headColors[((h%MaxHeads)+MaxHeads)%MaxHeads]
}

// WeightColor blends from a neutral slate toward blue for positive weights
// and orange for negative ones, by magnitude.
func WeightColor(w float64) colorful.Color {
	if math.IsNaN(w) {
		return neutralWeight
	}
	target := positiveWeight
	if w < 0 {
		target = negativeWeight
	}
	return neutralWeight.BlendLab(target, clamp01(math.Abs(w))).Clamped()
}

// ActivationColor maps an activation in [0,1] onto a cold-to-hot ramp.
func ActivationColor(a float64) colorful.Color {
	return activationCold.BlendHcl(activationHot, clamp01(a)).Clamped()
}

// FamilyAccent returns the layer-plate colour for a model family.
func FamilyAccent(f model.Family) colorful.Color {
	if c, ok := familyAccents[f]; ok {
		return c
	}
	return defaultAccent
}

// Dim blends c toward the scene background. factor 1 leaves c unchanged and
// 0 yields the background.
func Dim(c colorful.Color, factor float64) colorful.Color {
	return background.BlendRgb(c, clamp01(factor)).Clamped()
}

// Hex formats a colour for the renderer.
func Hex(c colorful.Color) string {
	return c.Clamped().Hex()
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}
