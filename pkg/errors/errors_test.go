package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidModel, "model %q has no layers", "empty")

	if err.Code != ErrCodeInvalidModel {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidModel)
	}

	expected := `INVALID_MODEL: model "empty" has no layers`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(ErrCodeFileNotFound, cause, "open model.toml")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if !strings.HasSuffix(err.Error(), ": permission denied") {
		t.Errorf("Error() = %q, should end with cause", err.Error())
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidModel, "test"),
			code:     ErrCodeInvalidModel,
			expected: true,
		},
		{
			name:     "different code",
			err:      New(ErrCodeInvalidModel, "test"),
			code:     ErrCodeUnknownPreset,
			expected: false,
		},
		{
			name:     "wrapped by fmt",
			err:      fmt.Errorf("load: %w", New(ErrCodeFileNotFound, "missing")),
			code:     ErrCodeFileNotFound,
			expected: true,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			code:     ErrCodeInternal,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrCodeUnknownPreset, "unknown preset %q", "vgg"))

	if got := GetCode(err); got != ErrCodeUnknownPreset {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeUnknownPreset)
	}
	if got := UserMessage(err); got != `unknown preset "vgg"` {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := GetCode(errors.New("x")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
	if got := UserMessage(errors.New("x")); got != "x" {
		t.Errorf("UserMessage(plain) = %q, want x", got)
	}
}

func TestValidateLayerID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"dense_1", false},
		{"conv1", false},
		{"", true},
		{"has space", true},
		{"tab\tid", true},
		{strings.Repeat("a", 129), true},
	}
	for _, tt := range tests {
		err := ValidateLayerID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateLayerID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidModel) {
			t.Errorf("ValidateLayerID(%q) code = %v", tt.id, GetCode(err))
		}
	}
}

func TestValidatePresetName(t *testing.T) {
	if err := ValidatePresetName("lenet5"); err != nil {
		t.Errorf("ValidatePresetName(lenet5) = %v", err)
	}
	for _, name := range []string{"", "../x", "a b"} {
		if err := ValidatePresetName(name); !Is(err, ErrCodeUnknownPreset) {
			t.Errorf("ValidatePresetName(%q) = %v, want UNKNOWN_PRESET", name, err)
		}
	}
}

func TestUserMessageWithCause(t *testing.T) {
	err := Wrap(ErrCodeFileNotFound, errors.New("no such file or directory"), "model file %s", "net.toml")
	if got := UserMessage(err); got != "model file net.toml: no such file or directory" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid model", New(ErrCodeInvalidModel, "no layers"), ExitUsage},
		{"unknown preset", fmt.Errorf("load: %w", New(ErrCodeUnknownPreset, "vgg")), ExitUsage},
		{"missing file", Wrap(ErrCodeFileNotFound, errors.New("enoent"), "x.toml"), ExitUsage},
		{"no converter", New(ErrCodeUnsupported, "png"), ExitUnsupported},
		{"internal", New(ErrCodeInternal, "boom"), ExitFailure},
		{"plain", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
