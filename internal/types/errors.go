package types

import "errors"

// Error kinds surfaced by the core. Callers classify with errors.Is and wrap
// with context; none of these is ever retried automatically.
var (
	// ErrNotFound: a referenced device, sub-device, product or schedule is absent.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionFailed: a flow-state conflict or scheduling-window miss.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrTransportUnavailable: a publish was attempted while the message bus
	// connection is down. The operator-facing layer decides whether to retry.
	ErrTransportUnavailable = errors.New("transport unavailable")
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds a consistent API error payload.
// details can be string, map, struct, etc.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
