package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/s0up4200/testrail-mcp/testrail"
)

const customPrefix = "custom_"

// ProcessCustomFields renames a case's custom_* values to keys derived from
// the field labels and replaces dropdown ids with their option labels. Only
// fields that apply to the case's template are mapped; values with no
// applicable field keep their original key. Null values are skipped.
func ProcessCustomFields(tc testrail.Case, fields []testrail.CaseField, logger zerolog.Logger) map[string]any {
	names := make(map[string]string)
	options := make(map[string]map[string]string)

	for _, f := range fields {
		if !f.AppliesTo(tc.TemplateID) {
			continue
		}
		names[f.SystemName] = labelKey(f.Label)
		if opts := ParseDropdownOptions(f); len(opts) > 0 {
			options[f.SystemName] = opts
		}
	}

	result := make(map[string]any)
	for key, value := range tc.Custom {
		if !strings.HasPrefix(key, customPrefix) || value == nil {
			continue
		}

		name, ok := names[key]
		if !ok {
			logger.Debug().Str("field", key).Msg("No field mapping found")
			result[key] = value
			continue
		}

		if opts, ok := options[key]; ok {
			result[name] = mapOption(value, opts)
			continue
		}
		result[name] = value
	}

	return result
}

// ParseDropdownOptions reads "id, label" lines from every config of a field.
func ParseDropdownOptions(f testrail.CaseField) map[string]string {
	out := make(map[string]string)
	for _, cfg := range f.Configs {
		for _, line := range strings.Split(cfg.Options.Items, "\n") {
			id, label, ok := strings.Cut(line, ",")
			if !ok || strings.TrimSpace(id) == "" {
				continue
			}
			out[strings.TrimSpace(id)] = strings.TrimSpace(label)
		}
	}
	return out
}

// optionLabels returns option labels in declaration order.
func optionLabels(f testrail.CaseField) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, cfg := range f.Configs {
		for _, line := range strings.Split(cfg.Options.Items, "\n") {
			id, label, ok := strings.Cut(line, ",")
			id = strings.TrimSpace(id)
			if !ok || id == "" || seen[id] {
				continue
			}
			seen[id] = true
			labels = append(labels, strings.TrimSpace(label))
		}
	}
	return labels
}

// mapOption replaces an option id, or each id of a multi-select list, with
// its label. Unknown ids are kept as they are.
func mapOption(value any, opts map[string]string) any {
	if list, ok := value.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = mapOption(item, opts)
		}
		return out
	}
	if label, ok := opts[optionKey(value)]; ok {
		return label
	}
	return value
}

// optionKey renders a dropdown value the way option ids are written.
func optionKey(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case string:
		return strings.TrimSpace(n)
	default:
		return fmt.Sprint(v)
	}
}

// labelKey turns a field label into a snake_case key: runs of anything but
// [a-z0-9] collapse to one underscore, e.g. "Automation Priority" ->
// "automation_priority", "v2" -> "v2".
func labelKey(label string) string {
	words := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	return strings.Join(words, "_")
}
