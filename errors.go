package linkup

import (
	"encoding/json"
	"errors"
	"strings"
)

// Backend failure kinds. APIError unwraps to one of these, so callers can
// inspect failures with errors.Is.
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrNoResult           = errors.New("no result for query")
	ErrAuthentication     = errors.New("authentication failed")
	ErrInsufficientCredit = errors.New("insufficient credits")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrUnknown            = errors.New("unknown error")
)

// Local usage errors, checked before any network activity.
var (
	ErrEmptyQuery       = errors.New("query cannot be empty")
	ErrEmptyURL         = errors.New("url cannot be empty")
	ErrInvalidParams    = errors.New("invalid request parameters")
	ErrMissingSchema    = errors.New("structured output schema is required when outputType is structured")
	ErrUnexpectedSchema = errors.New("structured output schema requires outputType structured")
)

// APIError is a typed backend rejection. It unwraps to the kind sentinel
// matching its status/code pair.
type APIError struct {
	StatusCode int
	Code       string
	Message    string

	kind error
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return e.kind }

const (
	codeNoResult          = "SEARCH_QUERY_NO_RESULT"
	codeInsufficientFunds = "INSUFFICIENT_FUNDS_CREDITS"
	codeTooManyRequests   = "TOO_MANY_REQUESTS"

	unknownErrorMessage = "An unknown error occurred"
)

// errorEnvelope is the wire-level error body.
type errorEnvelope struct {
	StatusCode int `json:"statusCode"`
	Error      struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

// mapAPIError converts a failed call into a typed error. It is total: any
// malformed body falls through to ErrUnknown instead of failing a second time.
func mapAPIError(statusCode int, body []byte) *APIError {
	var envelope errorEnvelope
	malformed := json.Unmarshal(body, &envelope) != nil ||
		(envelope.Error.Code == "" && envelope.Error.Message == "")

	code := envelope.Error.Code
	message := envelope.Error.Message

	apiErr := &APIError{StatusCode: statusCode, Code: code}

	if malformed {
		apiErr.kind = ErrUnknown
		apiErr.Message = unknownErrorMessage
		if message != "" {
			apiErr.Message = unknownErrorMessage + ": " + message
		}
		return apiErr
	}

	switch statusCode {
	case 400:
		if code == codeNoResult {
			apiErr.kind = ErrNoResult
			apiErr.Message = message
			return apiErr
		}
		parts := []string{message}
		for _, detail := range envelope.Error.Details {
			if detail.Message != "" {
				parts = append(parts, detail.Message)
			}
		}
		apiErr.kind = ErrInvalidRequest
		apiErr.Message = strings.Join(parts, " ")
	case 401, 403:
		apiErr.kind = ErrAuthentication
		apiErr.Message = message
	case 429:
		switch code {
		case codeInsufficientFunds:
			apiErr.kind = ErrInsufficientCredit
			apiErr.Message = message
		case codeTooManyRequests:
			apiErr.kind = ErrTooManyRequests
			apiErr.Message = message
		default:
			apiErr.kind = ErrUnknown
			apiErr.Message = unknownErrorMessage
			if message != "" {
				apiErr.Message = unknownErrorMessage + ": " + message
			}
		}
	default:
		apiErr.kind = ErrUnknown
		apiErr.Message = unknownErrorMessage
		if message != "" {
			apiErr.Message = unknownErrorMessage + ": " + message
		}
	}
	return apiErr
}
