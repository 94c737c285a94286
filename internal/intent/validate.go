package intent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError is a structured schema failure: a field path and a
// reason. It is always returned as a plain error value so callers can
// render a clarification instead of a 500.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("intent.%s: %s", e.Field, e.Reason)
}

// Validate checks that the intent is complete and well-formed enough to
// drive a query: required fields present, enums in range, time matching
// exactly one shape variant, hscode a string or non-empty string list.
func Validate(in *Intent) error {
	if in == nil {
		return &ValidationError{Field: "", Reason: "intent is missing"}
	}

	if in.Domain == "" {
		return &ValidationError{Field: "domain", Reason: "required"}
	}
	if in.Calc == "" {
		return &ValidationError{Field: "calc", Reason: "required"}
	}
	if in.Metric == "" {
		return &ValidationError{Field: "metric", Reason: "required"}
	}
	if in.Time == nil {
		return &ValidationError{Field: "time", Reason: "required"}
	}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{
				Field:  fieldPath(fe.Namespace()),
				Reason: fmt.Sprintf("failed %q constraint", fe.Tag()),
			}
		}
		return &ValidationError{Field: "", Reason: err.Error()}
	}

	if err := validateTimeShape(in.Time); err != nil {
		return err
	}

	return validateHSCode(in.Filters)
}

// validateTimeShape enforces that exactly one of the four time variants is
// present: latest, {year}, {year, month} or {years}.
func validateTimeShape(t *TimeSpec) error {
	if t.Latest {
		if t.Year != nil || t.Month != nil || len(t.Years) > 0 {
			return &ValidationError{Field: "time", Reason: "latest excludes year, month and years"}
		}
		return nil
	}
	if len(t.Years) > 0 {
		if t.Year != nil || t.Month != nil {
			return &ValidationError{Field: "time.years", Reason: "years excludes year and month"}
		}
		return nil
	}
	if t.Year == nil {
		if t.Month != nil {
			return &ValidationError{Field: "time.month", Reason: "month requires year"}
		}
		return &ValidationError{Field: "time", Reason: "one of latest, year or years is required"}
	}
	return nil
}

func validateHSCode(filters map[string]any) error {
	if filters == nil {
		return nil
	}
	raw, ok := filters["hscode"]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: "filters.hscode", Reason: "must not be empty"}
		}
	case []string:
		if len(v) == 0 {
			return &ValidationError{Field: "filters.hscode", Reason: "list must not be empty"}
		}
	case []any:
		if len(v) == 0 {
			return &ValidationError{Field: "filters.hscode", Reason: "list must not be empty"}
		}
		for i, x := range v {
			if _, ok := x.(string); !ok {
				return &ValidationError{
					Field:  fmt.Sprintf("filters.hscode[%d]", i),
					Reason: "must be a string",
				}
			}
		}
	default:
		return &ValidationError{Field: "filters.hscode", Reason: "must be a string or list of strings"}
	}
	return nil
}

// fieldPath turns a validator namespace like "Intent.Time.Year" into the
// wire-level path "time.year".
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, ".")
}
