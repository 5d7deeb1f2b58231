package model

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/layerscope/pkg/errors"
)

// Supported model file formats.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
)

// Load reads a model file and validates it. The format is chosen by file
// extension: .toml or .json.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "model file %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return Decode(data, format)
}

// Decode parses and validates model data in the given format.
func Decode(data []byte, format string) (*Model, error) {
	var m Model
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml model")
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json model")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported model format %q (want toml or json)", format)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Resolve returns the preset with the given name, or loads the argument as a
// file when it looks like a path.
func Resolve(nameOrPath string) (*Model, error) {
	if ext := filepath.Ext(nameOrPath); ext == ".toml" || ext == ".json" {
		return Load(nameOrPath)
	}
	return Preset(nameOrPath)
}
