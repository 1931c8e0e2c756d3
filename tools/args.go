package tools

import (
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
)

// decodeArgs copies raw tool arguments into out and validates it when out
// implements validation.Validatable. Numbers and numeric strings convert
// freely since clients differ in how they send ids.
func decodeArgs(raw map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create argument decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	if v, ok := out.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid arguments: %w", err)
		}
	}

	return nil
}

// parseCaseID accepts "123" and "C123" (any case).
func parseCaseID(ref string) (int, error) {
	s := strings.TrimSpace(ref)
	if strings.HasPrefix(strings.ToUpper(s), "C") {
		s = s[1:]
	}

	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCaseID, ref)
	}
	return id, nil
}

// isCaseRef validates a case reference inside ozzo rules.
var isCaseRef = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := parseCaseID(s)
	return err
})

// positiveID is the rule set for a required numeric id.
var positiveID = []validation.Rule{validation.Required, validation.Min(1)}
