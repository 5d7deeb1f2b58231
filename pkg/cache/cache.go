// Package cache stores derived visualization data keyed by content hash.
//
// Scenes (layout positions, connection samples, seeds) are pure functions of
// a model and its layout options, so they can be cached under a key derived
// from the model's content hash. A model swap produces a different hash and
// therefore a different key; nothing is ever mutated in place.
//
// Three implementations are provided:
//   - [MemoryCache]: in-process map, used by the engine and tests
//   - [FileCache]: JSON files under a directory, used by the CLI
//   - [NullCache]: never stores anything (caching disabled)
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}

// Default TTLs for each kind of cached data.
const (
	TTLScene    = 7 * 24 * time.Hour
	TTLFrames   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// SceneKeyOpts holds the layout options that affect a built scene.
type SceneKeyOpts struct {
	LayerSpacing float64 `json:"layer_spacing"`
	UnitSpacing  float64 `json:"unit_spacing"`
	MaxPerRow    int     `json:"max_per_row"`
	MaxUnits     int     `json:"max_units"`
	DensityCap   int     `json:"density_cap"`
}

// FramesKeyOpts holds the simulation parameters that affect a frame sequence.
type FramesKeyOpts struct {
	Frames    int     `json:"frames"`
	FPS       float64 `json:"fps"`
	Speed     float64 `json:"speed"`
	Selection string  `json:"selection,omitempty"`
	ConeMode  string  `json:"cone_mode,omitempty"`
	ConeDepth int     `json:"cone_depth,omitempty"`
	Toggles   string  `json:"toggles,omitempty"`
}

// ArtifactKeyOpts holds the render parameters that affect an output artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Frame    int     `json:"frame,omitempty"`
	View     string  `json:"view,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
}

// Keyer derives cache keys. Implementations must be deterministic.
type Keyer interface {
	SceneKey(modelHash string, opts SceneKeyOpts) string
	FramesKey(sceneHash string, opts FramesKeyOpts) string
	ArtifactKey(framesHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SceneKey generates a key for a built scene.
func (DefaultKeyer) SceneKey(modelHash string, opts SceneKeyOpts) string {
	return hashKey("scene", modelHash, opts)
}

// FramesKey generates a key for a simulated frame sequence.
func (DefaultKeyer) FramesKey(sceneHash string, opts FramesKeyOpts) string {
	return hashKey("frames", sceneHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (DefaultKeyer) ArtifactKey(framesHash string, opts ArtifactKeyOpts) string {
	return hashKey(fmt.Sprintf("artifact:%s", opts.Format), framesHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}
