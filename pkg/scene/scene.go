// Package scene derives the static, per-model data every frame reads:
// the layout, sampled connections with their curves, synthetic activations,
// data-flow particle assignments and attention links.
//
// A Scene is built once per model load and never mutated afterwards. All
// pseudo-randomness is seeded from the model's content hash, so building the
// same model twice yields identical scenes.
package scene

import (
	"math/rand/v2"
	"strconv"

	"github.com/matzehuels/layerscope/pkg/animate"
	"github.com/matzehuels/layerscope/pkg/layout"
	"github.com/matzehuels/layerscope/pkg/model"
	"github.com/matzehuels/layerscope/pkg/sampler"
)

const (
	DefaultParticlesPerPair = 12
	DefaultConeParticles    = 48
)

// Options controls scene derivation.
type Options struct {
	Layout           layout.Options `json:"layout"`
	DensityCap       int            `json:"density_cap"`
	ParticlesPerPair int            `json:"particles_per_pair"`
	ConeParticles    int            `json:"cone_particles"`
}

// DefaultOptions returns the standard scene options.
func DefaultOptions() Options {
	return Options{
		Layout:           layout.DefaultOptions(),
		DensityCap:       sampler.DefaultCap,
		ParticlesPerPair: DefaultParticlesPerPair,
		ConeParticles:    DefaultConeParticles,
	}
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	o.Layout.SetDefaults()
	if o.DensityCap <= 0 {
		o.DensityCap = sampler.DefaultCap
	}
	if o.ParticlesPerPair < 0 {
		o.ParticlesPerPair = 0
	} else if o.ParticlesPerPair == 0 {
		o.ParticlesPerPair = DefaultParticlesPerPair
	}
	if o.ConeParticles <= 0 {
		o.ConeParticles = DefaultConeParticles
	}
}

// Pair is the connection set between layer From and layer To = From+1.
type Pair struct {
	From        int                  `json:"from"`
	To          int                  `json:"to"`
	Connections []sampler.Connection `json:"connections"`
	Curves      []animate.Bezier     `json:"curves"`
	Particles   []Particle           `json:"particles"`
}

// Particle assigns a data-flow particle to one connection of a pair. Seed
// indexes the per-particle delay hash.
type Particle struct {
	Connection int `json:"connection"`
	Seed       int `json:"seed"`
}

// AttentionLink is one synthetic attention edge between token slots.
type AttentionLink struct {
	Head     int     `json:"head"`
	From     int     `json:"from"`
	To       int     `json:"to"`
	Strength float64 `json:"strength"`
}

// Attention holds the links drawn inside one attention layer.
type Attention struct {
	Layer int             `json:"layer"`
	Heads int             `json:"heads"`
	Links []AttentionLink `json:"links"`
}

// Scene is the derived static data for one model.
type Scene struct {
	ModelHash   string        `json:"model_hash"`
	Name        string        `json:"name"`
	Family      model.Family  `json:"family"`
	Seed        uint64        `json:"seed"`
	Options     Options       `json:"options"`
	Layout      layout.Layout `json:"layout"`
	Pairs       []Pair        `json:"pairs"`
	Activations [][]float64   `json:"activations"`
	Attention   []Attention   `json:"attention"`
}

// Build derives a scene for m. When samples is non-nil, connection samples
// are read through it so repeated builds of the same model share one set of
// weights; its cap then takes precedence over opts.DensityCap.
func Build(m *model.Model, opts Options, samples *sampler.Cache) *Scene {
	opts.SetDefaults()
	s := &Scene{Options: opts}
	if m == nil {
		s.Layout = layout.Build(nil, opts.Layout)
		return s
	}

	s.ModelHash = m.Hash()
	s.Name = m.Name
	s.Family = m.Family
	s.Seed = SeedFromHash(s.ModelHash)
	s.Layout = layout.Build(m, opts.Layout)
	s.Activations = activations(s.Layout, s.Seed)

	switch m.Family {
	case model.FamilyFullyConnected, model.FamilyConvolutional:
		s.Pairs = densePairs(s, opts, samples)
	case model.FamilyTransformer:
		s.Pairs = residualPairs(s, opts)
		s.Attention = attention(m, s)
	}
	return s
}

// Hash returns the scene's identity for cache keys: the model hash plus the
// options that shaped it.
func (s *Scene) Hash() string {
	o := s.Options
	return s.ModelHash + ":" + strconv.FormatFloat(o.Layout.LayerSpacing, 'g', -1, 64) +
		":" + strconv.FormatFloat(o.Layout.UnitSpacing, 'g', -1, 64) +
		":" + strconv.Itoa(o.Layout.MaxPerRow) + ":" + strconv.Itoa(o.Layout.MaxUnits) +
		":" + strconv.Itoa(o.DensityCap) + ":" + strconv.Itoa(o.ParticlesPerPair) +
		":" + strconv.Itoa(o.ConeParticles)
}

// ConnectionCount returns the number of sampled connections across pairs.
func (s *Scene) ConnectionCount() int {
	n := 0
	for _, p := range s.Pairs {
		n += len(p.Connections)
	}
	return n
}

// SeedFromHash folds a hex content hash into a PRNG seed.
func SeedFromHash(hash string) uint64 {
	if len(hash) > 16 {
		hash = hash[:16]
	}
	v, err := strconv.ParseUint(hash, 16, 64)
	if err != nil {
		var h uint64 = 14695981039346656037
		for i := 0; i < len(hash); i++ {
			h ^= uint64(hash[i])
			h *= 1099511628211
		}
		return h
	}
	return v
}

func densePairs(s *Scene, opts Options, samples *sampler.Cache) []Pair {
	layers := s.Layout.Layers
	if len(layers) < 2 {
		return nil
	}
	pairs := make([]Pair, 0, len(layers)-1)
	for i := 0; i+1 < len(layers); i++ {
		a, b := layers[i], layers[i+1]
		var conns []sampler.Connection
		if samples != nil {
			conns = samples.Get(s.ModelHash, s.Seed, i, a.Units, b.Units)
		} else {
			conns = sampler.Sample(a.Units, b.Units, opts.DensityCap, sampler.PairSeed(s.Seed, i))
		}
		pairs = append(pairs, newPair(i, a, b, conns, opts.ParticlesPerPair))
	}
	return pairs
}

// residualPairs links token slot j of each transformer sub-layer to slot j
// of the next one.
func residualPairs(s *Scene, opts Options) []Pair {
	layers := s.Layout.Layers
	if len(layers) < 2 {
		return nil
	}
	pairs := make([]Pair, 0, len(layers)-1)
	for i := 0; i+1 < len(layers); i++ {
		a, b := layers[i], layers[i+1]
		n := min(a.Units, b.Units)
		rng := rand.New(rand.NewPCG(sampler.PairSeed(s.Seed, i), s.Seed))
		conns := make([]sampler.Connection, n)
		for j := range conns {
			conns[j] = sampler.Connection{Src: j, Dst: j, Weight: 0.4 + 0.6*rng.Float64()}
		}
		pairs = append(pairs, newPair(i, a, b, conns, opts.ParticlesPerPair))
	}
	return pairs
}

func newPair(i int, a, b layout.LayerSlot, conns []sampler.Connection, perPair int) Pair {
	p := Pair{From: i, To: i + 1, Connections: conns}
	p.Curves = make([]animate.Bezier, len(conns))
	for k, c := range conns {
		p.Curves[k] = animate.ArcBetween(a.Positions[c.Src], b.Positions[c.Dst], animate.DefaultLift)
	}
	n := min(perPair, len(conns))
	p.Particles = make([]Particle, n)
	for k := range p.Particles {
		p.Particles[k] = Particle{
			Connection: k * len(conns) / n,
			Seed:       i*perPair + k,
		}
	}
	return p
}

func activations(l layout.Layout, seed uint64) [][]float64 {
	out := make([][]float64, len(l.Layers))
	for i, slot := range l.Layers {
		rng := rand.New(rand.NewPCG(seed, uint64(i)+1))
		acts := make([]float64, slot.Units)
		for u := range acts {
			acts[u] = 0.15 + 0.85*rng.Float64()
		}
		out[i] = acts
	}
	return out
}

// attention generates causal links for every attention layer: per drawn
// head, each query token attends to one earlier-or-equal token.
func attention(m *model.Model, s *Scene) []Attention {
	var out []Attention
	for i, l := range m.Layers {
		if l.Kind != model.KindAttention {
			continue
		}
		tokens := s.Layout.Layers[i].Units
		heads := min(m.Heads(i), animate.MaxHeads)
		rng := rand.New(rand.NewPCG(s.Seed^0xa77e, uint64(i)))
		att := Attention{Layer: i, Heads: heads}
		for h := range heads {
			for q := range tokens {
				att.Links = append(att.Links, AttentionLink{
					Head:     h,
					From:     q,
					To:       rng.IntN(q + 1),
					Strength: rng.Float64(),
				})
			}
		}
		out = append(out, att)
	}
	return out
}
