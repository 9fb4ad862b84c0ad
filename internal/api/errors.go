package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/bucketgate/internal"
	"github.com/dmitrymomot/bucketgate/middlewares"
	"github.com/dmitrymomot/bucketgate/pkg/credentials"
	"github.com/dmitrymomot/bucketgate/pkg/gateway"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

// StatusClientClosedRequest is logged when the caller went away mid-request.
// Nothing reaches the client.
const StatusClientClosedRequest = 499

// Stable error codes returned in the response envelope.
const (
	CodeAccessDenied        = "access_denied"
	CodeNotFound            = "not_found"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeInvalidRequest      = "invalid_request"
	CodePayloadTooLarge     = "payload_too_large"
	CodeTimeout             = "timeout"
	CodeClientClosed        = "client_closed_request"
	CodeInternal            = "internal_error"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes a failure without leaking upstream details.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler renders handler errors as JSON. Domain errors map to fixed
// messages; denials look the same whether or not the object exists.
func ErrorHandler(c internal.Context, err error) error {
	httpErr := toHTTPError(err)
	status := httpErr.StatusCode()
	if httpErr.RequestID == "" {
		httpErr.RequestID = middlewares.GetRequestID(c)
	}

	attrs := []any{
		slog.Int("status", status),
		slog.String("code", httpErr.ErrorCode),
		slog.Any("error", err),
	}
	switch {
	case status == StatusClientClosedRequest:
		c.LogDebug("client closed request", attrs...)
	case status >= http.StatusInternalServerError:
		if pe, ok := middlewares.AsPanicError(err); ok && pe.Stack != nil {
			attrs = append(attrs, slog.String("stack", string(pe.Stack)))
		}
		c.LogError("request failed", attrs...)
	case status == http.StatusForbidden:
		c.LogWarn("request denied", attrs...)
	default:
		c.LogDebug("request rejected", attrs...)
	}

	return c.JSON(status, ErrorResponse{Error: ErrorBody{
		Code:      httpErr.ErrorCode,
		Message:   httpErr.Message,
		RequestID: httpErr.RequestID,
	}})
}

func toHTTPError(err error) *internal.HTTPError {
	if httpErr := internal.AsHTTPError(err); httpErr != nil {
		if httpErr.ErrorCode == "" {
			httpErr.ErrorCode = codeForStatus(httpErr.StatusCode())
		}
		return httpErr
	}

	switch {
	case errors.Is(err, context.Canceled):
		return internal.NewHTTPError(StatusClientClosedRequest, "client closed request", internal.WithErrorCode(CodeClientClosed))
	case middlewares.IsTimeoutError(err), errors.Is(err, context.DeadlineExceeded):
		return internal.ErrGatewayTimeout("request timed out", internal.WithErrorCode(CodeTimeout))
	case errors.Is(err, tenancy.ErrAccessDenied):
		return internal.ErrForbidden("access denied", internal.WithErrorCode(CodeAccessDenied))
	case errors.Is(err, gateway.ErrUploadTooLarge):
		return internal.ErrRequestTooLarge("upload exceeds the maximum size", internal.WithErrorCode(CodePayloadTooLarge))
	case errors.Is(err, tenancy.ErrNotFound):
		return internal.ErrNotFound("resource not found", internal.WithErrorCode(CodeNotFound))
	case errors.Is(err, tenancy.ErrInvalidRequest):
		return internal.ErrBadRequest(invalidMessage(err), internal.WithErrorCode(CodeInvalidRequest))
	case errors.Is(err, tenancy.ErrUpstreamUnavailable):
		return internal.ErrBadGateway("storage service unavailable", internal.WithErrorCode(CodeUpstreamUnavailable))
	default:
		return internal.ErrInternal("internal server error", internal.WithErrorCode(CodeInternal))
	}
}

// invalidMessage returns the gateway's own wording for known input errors.
// Anything else gets a generic message so store text never reaches clients.
func invalidMessage(err error) string {
	for _, known := range []error{
		gateway.ErrTooManyKeys,
		gateway.ErrNoParts,
		gateway.ErrInvalidParts,
		gateway.ErrMissingUpload,
		credentials.ErrKeyLimit,
		credentials.ErrInvalidStatus,
		credentials.ErrMissingKeyID,
		tenancy.ErrMissingTenant,
	} {
		if errors.Is(err, known) {
			return publicMessage(known)
		}
	}
	return "invalid request"
}

// publicMessage drops the taxonomy line errors.Join puts first and the
// package prefix: "gateway: search term is required" becomes
// "search term is required".
func publicMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndexByte(msg, '\n'); i >= 0 {
		msg = msg[i+1:]
	}
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		return rest
	}
	return msg
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return CodeAccessDenied
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return CodePayloadTooLarge
	case http.StatusBadGateway:
		return CodeUpstreamUnavailable
	case http.StatusGatewayTimeout:
		return CodeTimeout
	}
	if status >= http.StatusInternalServerError {
		return CodeInternal
	}
	return CodeInvalidRequest
}

// NotFound renders unknown routes with the error envelope.
func NotFound(c internal.Context) error {
	return internal.ErrNotFound("route not found")
}

// MethodNotAllowed renders unsupported methods with the error envelope.
func MethodNotAllowed(c internal.Context) error {
	return internal.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed")
}
