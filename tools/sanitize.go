package tools

import (
	"bytes"
	"encoding/json"
	"regexp"
)

var styleAttr = regexp.MustCompile(`(?i)\s*style\s*=\s*["'][^"']*["']`)

// StripStyles removes inline style attributes from every string inside v.
// TestRail rich-text fields carry editor styling that is noise to a reader.
func StripStyles(v any) any {
	switch val := v.(type) {
	case string:
		return styleAttr.ReplaceAllString(val, "")
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = StripStyles(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = StripStyles(item)
		}
		return out
	default:
		return v
	}
}

// RemoveNullish drops nil values from maps and slices, recursively.
func RemoveNullish(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if cleaned := RemoveNullish(item); cleaned != nil {
				out = append(out, cleaned)
			}
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if cleaned := RemoveNullish(item); cleaned != nil {
				out[k] = cleaned
			}
		}
		return out
	default:
		return v
	}
}

// toGeneric converts v to the map/slice/scalar form encoding/json produces,
// keeping numbers exact.
func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// renderResult serializes a handler result the way every tool returns it.
func renderResult(v any) (string, error) {
	generic, err := toGeneric(v)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(RemoveNullish(generic))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
