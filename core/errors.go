package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorNoData                = "DELIVERECT_NO_DATA"
	ErrorMissingSecretConfig   = "DELIVERECT_MISSING_SECRET_CONFIG"
	ErrorMissingSignature      = "DELIVERECT_MISSING_SIGNATURE"
	ErrorRawBodyUnavailable    = "DELIVERECT_RAW_BODY_UNAVAILABLE"
	ErrorInvalidSignature      = "DELIVERECT_INVALID_SIGNATURE"
	ErrorInvalidJSONPayload    = "DELIVERECT_INVALID_JSON_PAYLOAD"
	ErrorUpstreamRequestFailed = "DELIVERECT_UPSTREAM_REQUEST_FAILED"

	ErrorBadInput          = "DELIVERECT_BAD_INPUT"
	ErrorOperationNotFound = "DELIVERECT_OPERATION_NOT_FOUND"
	ErrorAuthFailed        = "DELIVERECT_AUTH_FAILED"
	ErrorRateLimited       = "DELIVERECT_RATE_LIMITED"
	ErrorInternal          = "DELIVERECT_INTERNAL_ERROR"
)

func NoDataError() *goerrors.Error {
	return goerrors.New("No data received", goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorNoData)
}

func MissingSecretConfigError(cause error) *goerrors.Error {
	const message = "Webhook secret is not configured"
	if cause != nil {
		return goerrors.Wrap(cause, goerrors.CategoryInternal, message).
			WithCode(http.StatusInternalServerError).
			WithTextCode(ErrorMissingSecretConfig)
	}
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorMissingSecretConfig)
}

func MissingSignatureError() *goerrors.Error {
	return goerrors.New("Missing Deliverect webhook signature", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(ErrorMissingSignature)
}

func RawBodyUnavailableError() *goerrors.Error {
	return goerrors.New("Raw request body is unavailable for signature verification", goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorRawBodyUnavailable)
}

func InvalidSignatureError() *goerrors.Error {
	return goerrors.New("Invalid Deliverect webhook signature", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(ErrorInvalidSignature)
}

func InvalidJSONPayloadError(label string, cause error) *goerrors.Error {
	message := "Invalid JSON provided for " + strings.TrimSpace(label) + " payload"
	if cause != nil {
		message += ": " + cause.Error()
	}
	return goerrors.NewValidation(message, goerrors.FieldError{
		Field:   strings.TrimSpace(label),
		Message: "invalid JSON",
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorInvalidJSONPayload).
		WithMetadata(map[string]any{"field": strings.TrimSpace(label)})
}

func UpstreamRequestFailedError(statusCode int, body string) *goerrors.Error {
	code := http.StatusBadGateway
	if statusCode >= 400 {
		code = statusCode
	}
	return goerrors.New("Deliverect request failed", goerrors.CategoryExternal).
		WithCode(code).
		WithTextCode(ErrorUpstreamRequestFailed).
		WithMetadata(map[string]any{
			"status_code": statusCode,
			"body":        truncate(body, 512),
		})
}

func BadInputError(message string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorBadInput)
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

// TextCode returns the go-errors text code carried by err, if any.
func TextCode(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}

func IsKind(err error, textCode string) bool {
	return textCode != "" && TextCode(err) == textCode
}

// MapError normalizes any error into a go-errors envelope with a stable
// HTTP code and text code.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "throttl"), strings.Contains(msg, "rate limit"):
		return newMappedError(err.Error(), goerrors.CategoryRateLimit, ErrorRateLimited)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newMappedError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func newMappedError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(goerrors.New(message, category).WithTextCode(textCode))
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorOperationNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorAuthFailed
	case goerrors.CategoryRateLimit:
		return ErrorRateLimited
	case goerrors.CategoryExternal:
		return ErrorUpstreamRequestFailed
	default:
		return ErrorInternal
	}
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func truncate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return value[:limit]
}
