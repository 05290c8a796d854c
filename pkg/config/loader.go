package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.Errorf("unsupported config file extension %q", filepath.Ext(path))
}

// Load reads, parses and validates the file at path.
func Load(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	return Parse(data, format)
}

// Parse decodes data in the given format and validates the result. Unknown keys are
// rejected.
func Parse(data []byte, format Format) (*File, error) {
	file := Defaults()

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(file); err != nil {
			return nil, errors.Wrap(err, "failed to parse YAML config")
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), file)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse TOML config")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Errorf("unknown TOML keys: %v", undecoded)
		}
	default:
		return nil, errors.Errorf("unsupported config format %q", format)
	}

	if err := validate.Struct(file); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return file, nil
}

// Defaults returns a File with default logging settings.
func Defaults() *File {
	return &File{
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}
