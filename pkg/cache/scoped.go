package cache

// ScopedKeyer prefixes every key of an inner Keyer. The CLI scopes keys by
// release so that frames cached by an older build are never replayed by a
// newer one whose animation math changed.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v0.4.0:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SceneKey generates a prefixed key for scene caching.
func (k *ScopedKeyer) SceneKey(modelHash string, opts SceneKeyOpts) string {
	return k.prefix + k.inner.SceneKey(modelHash, opts)
}

// FramesKey generates a prefixed key for frame sequence caching.
func (k *ScopedKeyer) FramesKey(sceneHash string, opts FramesKeyOpts) string {
	return k.prefix + k.inner.FramesKey(sceneHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(framesHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(framesHash, opts)
}
