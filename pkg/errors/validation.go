package errors

import (
	"strings"
	"unicode"
)

// ValidateLayerID checks that a layer id is usable as a map key and as a
// renderer handle name. Ids must be non-empty, at most 128 bytes and free
// of control characters and whitespace.
func ValidateLayerID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidModel, "layer id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidModel, "layer id too long (max 128 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidModel, "layer id %q contains whitespace or control characters", id)
		}
	}
	return nil
}

// ValidatePresetName rejects names that can never match a built-in preset.
func ValidatePresetName(name string) error {
	if name == "" {
		return New(ErrCodeUnknownPreset, "preset name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\ ") {
		return New(ErrCodeUnknownPreset, "preset name %q contains invalid characters", name)
	}
	return nil
}
