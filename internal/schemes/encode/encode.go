// Package encode renders scheme documents as JSON, YAML or TOML, chosen by
// the extension of the requested path.
package encode

import (
	"fmt"
	"path"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Format is a document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// ForPath picks the format from p's extension, defaulting to YAML.
func ForPath(p string) Format {
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return JSON
	case ".toml":
		return TOML
	default:
		return YAML
	}
}

// MIME returns the media type of f.
func (f Format) MIME() string {
	switch f {
	case JSON:
		return "application/json"
	case TOML:
		return "application/toml"
	default:
		return "application/yaml"
	}
}

// Marshal encodes v. TOML documents must be structs or maps.
func Marshal(f Format, v interface{}) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case JSON:
		data, err = sonic.MarshalIndent(v, "", "  ")
	case TOML:
		data, err = toml.Marshal(v)
	default:
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f, err)
	}
	return data, nil
}

// Trim strips a recognised format extension from p.
func Trim(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".json", ".yaml", ".yml", ".toml":
		return strings.TrimSuffix(p, path.Ext(p))
	}
	return p
}
