package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-deliverect/core"
	goerrors "github.com/goliatone/go-errors"
)

// Params are host-supplied operation parameters. Values may arrive decoded
// (bool, float64, maps) or as raw strings from a CLI or form.
type Params map[string]any

func (p Params) has(name string) bool {
	value, ok := p[name]
	return ok && value != nil
}

// String returns the trimmed string form of a scalar parameter.
func (p Params) String(name string) string {
	value, ok := p[name]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	case fmt.Stringer:
		return strings.TrimSpace(typed.String())
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

// Required returns the parameter or a bad-input error naming it.
func (p Params) Required(name string) (string, error) {
	value := p.String(name)
	if value == "" {
		return "", missingParamError(name)
	}
	return value, nil
}

// Bool reads a boolean, accepting strconv.ParseBool spellings for strings.
func (p Params) Bool(name string, fallback bool) bool {
	switch typed := p[name].(type) {
	case bool:
		return typed
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
		if err != nil {
			return fallback
		}
		return parsed
	case float64:
		return typed != 0
	default:
		return fallback
	}
}

// Number reads a numeric parameter; ok is false when absent or not numeric.
func (p Params) Number(name string) (float64, bool) {
	switch typed := p[name].(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// JSON decodes a JSON-typed parameter. Strings are parsed; already decoded
// values are returned as-is. A missing parameter yields nil. Parse failures
// report "Invalid JSON provided for <label> payload: <reason>".
func (p Params) JSON(name string, label string) (any, error) {
	value, ok := p[name]
	if !ok || value == nil {
		return nil, nil
	}
	raw, isString := value.(string)
	if !isString {
		return value, nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, core.InvalidJSONPayloadError(label, err)
	}
	return decoded, nil
}

func missingParamError(name string) error {
	return core.BadInputError("catalog: parameter "+name+" is required", map[string]any{"field": name})
}

func payloadShapeError(field string, message string) error {
	return goerrors.NewValidation(message, goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorBadInput).
		WithMetadata(map[string]any{"field": field})
}

func encodeJSON(value any) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
