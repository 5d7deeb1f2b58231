package buildinfo

import (
	"strings"
	"testing"
)

func TestScope(t *testing.T) {
	resolve()
	prevV, prevC := Version, Commit
	t.Cleanup(func() { Version, Commit = prevV, prevC })

	tests := []struct {
		version, commit, want string
	}{
		{"v1.2.0", "0123456789abcdef0123", "v1.2.0"},
		{"dev", "0123456789abcdef0123", "dev-0123456789ab"},
		{"dev", "none", "dev"},
	}
	for _, tt := range tests {
		Version, Commit = tt.version, tt.commit
		if got := Scope(); got != tt.want {
			t.Errorf("Scope() with %s/%s = %q, want %q", tt.version, tt.commit, got, tt.want)
		}
	}
}

func TestTemplate(t *testing.T) {
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} version "+Current()) {
		t.Errorf("Template() = %q", tmpl)
	}
}
