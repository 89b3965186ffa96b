// Package http exposes the FinTrack services as a JSON API.
//
// This file implements a small builder for JSON responses and the mapping
// from domain errors to status codes.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/trace"
)

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
	raw        []byte
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Raw sends pre-rendered bytes, for file downloads.
func (b *JSONResponseBuilder) Raw(contentType string, data []byte) *JSONResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.raw = data
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.raw != nil {
		w.Header().Set("Content-Length", strconv.Itoa(len(b.raw)))
		w.WriteHeader(b.statusCode)
		_, _ = w.Write(b.raw)
		return
	}

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	data, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"internal","message":"failed to encode response"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(data)
}

type (
	errorBody struct {
		Error errorDetail `json:"error"`
	}

	errorDetail struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Field     string `json:"field,omitempty"`
		RequestID string `json:"requestId,omitempty"`
	}
)

// ErrorResponse builds the standard error envelope.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(errorBody{Error: errorDetail{Code: code, Message: message}})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, "unauthorized", message).
		Header("WWW-Authenticate", `Bearer realm="fintrack"`)
}

// badRequest marks a request that could not be decoded at all.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

// writeError maps err to a status code. Internal errors are logged and their
// text is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *core.ValidationError
		nf  *core.NotFoundError
		ce  *core.ConflictError
		bad *badRequest
	)

	switch {
	case errors.As(err, &bad):
		BadRequestError(bad.msg).Write(w)
	case errors.As(err, &ve):
		NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Body(errorBody{Error: errorDetail{Code: "validation", Message: ve.Err.Error(), Field: ve.Field}}).
			Write(w)
	case errors.As(err, &nf):
		ErrorResponse(http.StatusNotFound, "not_found", nf.Error()).Write(w)
	case errors.As(err, &ce):
		ErrorResponse(http.StatusConflict, "conflict", ce.Error()).Write(w)
	case errors.Is(err, auth.ErrInvalidToken):
		UnauthorizedError("invalid or expired token").Write(w)
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(),
			"Request failed", err, applog.ComponentHTTP, r.Method+" "+r.URL.Path,
			applog.NewFields().WithErrorType(applog.ErrorTypeInternal))
		NewJSONResponse().
			Status(http.StatusInternalServerError).
			Body(errorBody{Error: errorDetail{
				Code:      "internal",
				Message:   "internal server error",
				RequestID: trace.GetRequestID(r.Context()),
			}}).
			Write(w)
	}
}
