// Package pkg provides the core libraries for Layerscope neural network
// visualization.
//
// # Overview
//
// Layerscope lays a neural network model out in 3D space and animates data
// flowing through it: pulsing activations, weighted connections, particles
// travelling between layers, attention beams and a light cone around a
// selected layer. The library computes positions, colors and scales for
// every primitive; drawing them is left to a renderer. The pkg directory is
// organized into four areas:
//
//  1. [model] - Model descriptions, built-in presets and file loading
//  2. Animation core - [layout], [sampler], [scene], [animate], [clock],
//     [lightcone], [frame] and [engine]
//  3. [pipeline] - Orchestration (load → scene → simulate → render)
//  4. [render] - Offline outputs (JSON frames, SVG snapshots, layer graphs)
//
// # Architecture
//
// The typical data flow through Layerscope:
//
//	Preset or model file
//	         ↓
//	    [model] package (validate, hash)
//	         ↓
//	    [layout] + [sampler] → [scene] (static geometry, cached per model)
//	         ↓
//	    [clock] + [lightcone] → [frame] (per-tick primitive transforms)
//	         ↓
//	    [render/sink] (JSON, SVG, PNG, PDF, DOT)
//
// # Quick Start
//
// Build a scene and compute one frame:
//
//	m, _ := model.Resolve("lenet5")
//	s := scene.Build(m, scene.DefaultOptions(), nil)
//
//	c := clock.New(clock.DefaultCycle)
//	c.Play()
//	c.Tick(0.5, 1)
//
//	f := frame.Compute(s, c.Snapshot(), frame.DefaultSettings())
//	svg := sink.RenderSVG(f, sink.WithView(sink.ViewSide))
//
// Drive a live visualization with the engine:
//
//	e := engine.New(engine.Options{})
//	_ = e.LoadModel(m)
//	e.Play()
//	e.SelectLayer("c3")
//	for {
//	    f := e.Tick(1.0 / 60)
//	    draw(f, e.Camera())
//	}
//
// # Main Packages
//
// [layout] - Layer depths along the z axis and per-layer unit grids. Units
// beyond the display cap are not drawn; partial rows are centered.
//
// [sampler] - Deterministic strided connection sampling between consecutive
// layers, capped per pair, with a cache keyed by layer sizes and seed.
//
// [scene] - The static geometry for one model: layer slots, sampled
// connections with weights, attention links and the content hash used to
// key caches.
//
// [animate] - Pure animation functions: activation pulses, data-flow particle
// paths along Bézier curves, connection line materials and color helpers.
//
// [clock] - The play/pause/stop/step state machine with clamped deltas and a
// speed multiplier.
//
// [lightcone] - Forward and backward reach from a selected layer, with
// per-layer boost and dim factors.
//
// [frame] - Combines scene, clock and settings into primitive transforms.
//
// [engine] - Stateful driver owning the clock, camera rig, visual state and
// scene cache. Emits [observability] events on state transitions.
//
// # Infrastructure
//
// [pipeline] - The offline pipeline used by the CLI. Each stage is cached
// through [cache] keyed by content hashes.
//
// [cache] - File, memory and null caches with typed keys and TTLs.
//
// [errors] - Coded errors and input validation.
//
// [observability] - Pipeline, cache and event hooks.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/frame/...     # Specific package
//	go test -run Example ./...  # Examples only
//
// [model]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/model
// [layout]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/layout
// [sampler]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/sampler
// [scene]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/scene
// [animate]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/animate
// [clock]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/clock
// [lightcone]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/lightcone
// [frame]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/frame
// [engine]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/engine
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/layerscope/pkg/observability
package pkg
