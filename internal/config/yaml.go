package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// normalizeToJSON turns the raw config file into JSON bytes so one strict
// decoder (DisallowUnknownFields) serves both formats. Files without a
// .yaml/.yml extension are assumed to be JSON already and pass through
// untouched.
func normalizeToJSON(path string, raw []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return raw, nil
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml %s: %w", filepath.Base(path), err)
	}
	out, err := json.Marshal(stringKeyed(doc))
	if err != nil {
		return nil, fmt.Errorf("convert yaml %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// stringKeyed rewrites every map in the document with string keys, which
// json.Marshal requires and YAML does not guarantee.
func stringKeyed(v any) any {
	switch node := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(node))
		for k, val := range node {
			out[fmt.Sprint(k)] = stringKeyed(val)
		}
		return out
	case map[string]any:
		for k, val := range node {
			node[k] = stringKeyed(val)
		}
		return node
	case []any:
		for i, val := range node {
			node[i] = stringKeyed(val)
		}
		return node
	}
	return v
}
