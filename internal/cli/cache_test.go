package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	// Verify the expected structure: $HOME/.cache/layerscope
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", "layerscope")
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != filepath.Join(xdg, "layerscope") {
		t.Errorf("cacheDir() = %q, should honour XDG_CACHE_HOME", dir)
	}
}

func TestCacheClearCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir := filepath.Join(xdg, "layerscope", "ab")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"one.json", "two.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	entries, _ := os.ReadDir(filepath.Join(xdg, "layerscope"))
	if len(entries) != 0 {
		t.Errorf("cache dir should be empty, has %d entries", len(entries))
	}
}

func TestCachePathCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	var out strings.Builder
	root := New(os.Stderr, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != filepath.Join(xdg, "layerscope") {
		t.Errorf("cache path = %q", out.String())
	}
}

func TestCacheStatsAfterLayout(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	captureOutput(t)

	root := New(os.Stderr, LogInfo).RootCommand()
	root.SetArgs([]string{"layout", "mlp"})
	if err := root.Execute(); err != nil {
		t.Fatalf("layout: %v", err)
	}

	var stats strings.Builder
	root = New(os.Stderr, LogInfo).RootCommand()
	root.SetOut(&stats)
	root.SetArgs([]string{"cache", "stats"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	if !strings.Contains(stats.String(), "scene") {
		t.Errorf("stats table missing scene row:\n%s", stats.String())
	}

	root = New(os.Stderr, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "prune"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache prune: %v", err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:           "0 B",
		1023:        "1023 B",
		1024:        "1.0 KiB",
		1536:        "1.5 KiB",
		5 * 1 << 20: "5.0 MiB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
