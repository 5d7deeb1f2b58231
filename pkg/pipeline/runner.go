package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerscope/pkg/cache"
	"github.com/matzehuels/layerscope/pkg/clock"
	"github.com/matzehuels/layerscope/pkg/engine"
	"github.com/matzehuels/layerscope/pkg/frame"
	"github.com/matzehuels/layerscope/pkg/model"
	"github.com/matzehuels/layerscope/pkg/observability"
	"github.com/matzehuels/layerscope/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → scene → simulate → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	m, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Model = m
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.LayerCount = len(m.Layers)

	r.Logger.Info("loaded model",
		"model", m.Name,
		"family", m.Family,
		"layers", len(m.Layers),
		"duration", result.Stats.LoadTime)

	// Stage 2: Scene
	sceneStart := time.Now()
	s, sceneHit, err := r.BuildSceneWithCacheInfo(ctx, m, opts)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	result.Scene = s
	result.Stats.SceneTime = time.Since(sceneStart)
	result.Stats.UnitCount = s.Layout.UnitCount()
	result.Stats.ConnectionCount = s.ConnectionCount()
	result.CacheInfo.SceneHit = sceneHit

	r.Logger.Info("built scene",
		"units", result.Stats.UnitCount,
		"connections", result.Stats.ConnectionCount,
		"cached", sceneHit,
		"duration", result.Stats.SceneTime)

	// Stage 3: Simulate
	simStart := time.Now()
	frames, framesHit, err := r.SimulateWithCacheInfo(ctx, s, m, opts)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	result.Frames = frames
	result.FramesHash = framesHash(s, frames)
	result.Stats.SimulateTime = time.Since(simStart)
	result.Stats.FrameCount = len(frames)
	if len(frames) > 0 {
		last := frames[len(frames)-1]
		result.Stats.Primitives = last.Count()
	}
	result.CacheInfo.FramesHit = framesHit

	r.Logger.Info("simulated frames",
		"frames", len(frames),
		"fps", opts.FPS,
		"cached", framesHit,
		"duration", result.Stats.SimulateTime)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, s, m, frames, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load resolves opts.Model into a validated model. Models are cheap to
// resolve, so this stage is not cached.
func (r *Runner) Load(ctx context.Context, opts Options) (*model.Model, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Model)
	start := time.Now()

	m, err := model.Resolve(opts.Model)
	layers := 0
	if m != nil {
		layers = len(m.Layers)
	}
	hooks.OnLoadComplete(ctx, opts.Model, layers, time.Since(start), err)
	return m, err
}

// BuildSceneWithCacheInfo derives the scene for m with caching and returns cache hit info.
func (r *Runner) BuildSceneWithCacheInfo(ctx context.Context, m *model.Model, opts Options) (*scene.Scene, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("nil model")
	}
	opts.SetSceneDefaults()
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnSceneStart(ctx, m.Name, len(m.Layers))
	start := time.Now()

	cacheKey := r.Keyer.SceneKey(m.Hash(), opts.SceneKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var s scene.Scene
			if err := json.Unmarshal(data, &s); err == nil {
				observability.Cache().OnCacheHit(ctx, "scene")
				hooks.OnSceneComplete(ctx, m.Name, time.Since(start), nil)
				return &s, true, nil // Cache hit
			}
			// If deserialization fails, fall through to rebuild
		}
		observability.Cache().OnCacheMiss(ctx, "scene")
	}

	s := scene.Build(m, opts.SceneOptions(), nil)

	// Cache the result
	if data, err := json.Marshal(s); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLScene); err == nil {
			observability.Cache().OnCacheSet(ctx, "scene", len(data))
		}
	}

	hooks.OnSceneComplete(ctx, m.Name, time.Since(start), nil)
	return s, false, nil // Cache miss
}

// BuildScene is a convenience wrapper that calls BuildSceneWithCacheInfo and discards the cache hit info.
func (r *Runner) BuildScene(ctx context.Context, m *model.Model, opts Options) (*scene.Scene, error) {
	s, _, err := r.BuildSceneWithCacheInfo(ctx, m, opts)
	return s, err
}

// SimulateWithCacheInfo plays the animation clock at opts.FPS for opts.Frames
// frames with caching and returns cache hit info.
func (r *Runner) SimulateWithCacheInfo(ctx context.Context, s *scene.Scene, m *model.Model, opts Options) ([]frame.Frame, bool, error) {
	if s == nil {
		return nil, false, fmt.Errorf("nil scene")
	}
	if err := opts.ValidateForSimulate(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnSimulateStart(ctx, s.Name, opts.Frames)
	start := time.Now()

	cacheKey := r.Keyer.FramesKey(s.Hash(), opts.FramesKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var frames []frame.Frame
			if err := json.Unmarshal(data, &frames); err == nil {
				observability.Cache().OnCacheHit(ctx, "frames")
				hooks.OnSimulateComplete(ctx, s.Name, time.Since(start), nil)
				return frames, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "frames")
	}

	frames, err := Simulate(ctx, s, m, opts)
	if err != nil {
		hooks.OnSimulateComplete(ctx, s.Name, time.Since(start), err)
		return nil, false, err
	}

	if data, err := json.Marshal(frames); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLFrames); err == nil {
			observability.Cache().OnCacheSet(ctx, "frames", len(data))
		}
	}

	hooks.OnSimulateComplete(ctx, s.Name, time.Since(start), nil)
	return frames, false, nil
}

// Simulate is a convenience wrapper that calls SimulateWithCacheInfo and discards the cache hit info.
func (r *Runner) Simulate(ctx context.Context, s *scene.Scene, m *model.Model, opts Options) ([]frame.Frame, error) {
	frames, _, err := r.SimulateWithCacheInfo(ctx, s, m, opts)
	return frames, err
}

// Simulate computes opts.Frames frames of s without caching. The clock is
// played from zero and advanced by 1/FPS seconds before every frame, scaled
// by the visual state's speed. Cancelling ctx stops the run.
func Simulate(ctx context.Context, s *scene.Scene, m *model.Model, opts Options) ([]frame.Frame, error) {
	opts.SetSimulateDefaults()
	settings := engine.SettingsFor(*opts.Visual, m, len(s.Layout.Layers))

	c := clock.New(clock.DefaultCycle)
	c.Play()
	dt := 1 / opts.FPS
	frames := make([]frame.Frame, 0, opts.Frames)
	for range opts.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.Tick(dt, opts.Visual.Speed)
		frames = append(frames, frame.Compute(s, c.Snapshot(), settings))
	}
	return frames, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *scene.Scene, m *model.Model, frames []frame.Frame, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	hash := framesHash(s, frames)

	// Try to get all formats from cache
	allCached := !opts.Refresh
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		if !allCached {
			break
		}
		cacheKey := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
		return artifacts, true, nil // All artifacts from cache
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := Render(ctx, s, m, frames, opts)
	if err != nil {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, s *scene.Scene, m *model.Model, frames []frame.Frame, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, s, m, frames, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// framesHash identifies a frame sequence together with the scene it was
// computed from, so graph artifacts of different scenes never collide.
func framesHash(s *scene.Scene, frames []frame.Frame) string {
	var sceneHash string
	if s != nil {
		sceneHash = s.Hash()
	}
	h, err := cache.HashJSON(frames, sceneHash)
	if err != nil {
		return ""
	}
	return h
}
