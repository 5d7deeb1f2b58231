package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerscope/pkg/observability"
)

// EnableDebugHooks routes pipeline stage timings and cache traffic to the
// CLI logger at debug level.
func (c *CLI) EnableDebugHooks() {
	observability.SetPipelineHooks(pipelineLogHooks{c.Logger})
	observability.SetCacheHooks(cacheLogHooks{c.Logger})
}

type pipelineLogHooks struct{ l *log.Logger }

func (h pipelineLogHooks) OnLoadStart(_ context.Context, source string) {
	h.l.Debug("load started", "source", source)
}

func (h pipelineLogHooks) OnLoadComplete(_ context.Context, source string, layers int, d time.Duration, err error) {
	h.done("load", d, err, "source", source, "layers", layers)
}

func (h pipelineLogHooks) OnSceneStart(_ context.Context, model string, layers int) {
	h.l.Debug("scene started", "model", model, "layers", layers)
}

func (h pipelineLogHooks) OnSceneComplete(_ context.Context, model string, d time.Duration, err error) {
	h.done("scene", d, err, "model", model)
}

func (h pipelineLogHooks) OnSimulateStart(_ context.Context, model string, frames int) {
	h.l.Debug("simulate started", "model", model, "frames", frames)
}

func (h pipelineLogHooks) OnSimulateComplete(_ context.Context, model string, d time.Duration, err error) {
	h.done("simulate", d, err, "model", model)
}

func (h pipelineLogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.l.Debug("render started", "formats", formats)
}

func (h pipelineLogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.done("render", d, err, "formats", formats)
}

func (h pipelineLogHooks) done(stage string, d time.Duration, err error, kv ...any) {
	kv = append(kv, "duration", d.Round(time.Microsecond))
	if err != nil {
		h.l.Debug(stage+" failed", append(kv, "err", err)...)
		return
	}
	h.l.Debug(stage+" finished", kv...)
}

type cacheLogHooks struct{ l *log.Logger }

func (h cacheLogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.l.Debug("cache hit", "kind", keyType)
}

func (h cacheLogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.l.Debug("cache miss", "kind", keyType)
}

func (h cacheLogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.l.Debug("cache set", "kind", keyType, "bytes", size)
}

var (
	_ observability.PipelineHooks = pipelineLogHooks{}
	_ observability.CacheHooks    = cacheLogHooks{}
)
