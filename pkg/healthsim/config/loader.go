package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// format is a supported file encoding.
type format int

const (
	formatYAML format = iota
	formatJSON
)

func formatOf(path string) (format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".json":
		return formatJSON, nil
	default:
		return 0, fmt.Errorf("unsupported config file extension %q", ext)
	}
}

// decodeFile reads path and decodes it into out by extension.
func decodeFile(path string, out any) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return decode(f, data, out)
}

func decode(f format, data []byte, out any) error {
	switch f {
	case formatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	}
	return nil
}

// FromFile loads a .yaml, .yml or .json file into a Config.
func FromFile(path string) (Config, error) {
	var m map[string]any
	if err := decodeFile(path, &m); err != nil {
		return Config{}, err
	}
	return New(normalize(m).(map[string]any)), nil
}

// FromYAML parses YAML into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := decode(formatYAML, data, &m); err != nil {
		return Config{}, err
	}
	return New(m), nil
}

// FromJSON parses JSON into a Config. Integral numbers decode as int64 and
// the rest as float64.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := decode(formatJSON, data, &m); err != nil {
		return Config{}, err
	}
	return New(normalize(m).(map[string]any)), nil
}

// normalize replaces json.Number values with int64 or float64.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return map[string]any{}
		}
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	}
	return v
}
