package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// APIError is the error half of the response envelope.
type APIError struct {
	Code    string `json:"code"` // example "bad_request", "not_found"
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type okEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type errEnvelope struct {
	Status string   `json:"status"`
	Error  APIError `json:"error"`
}

func JSON(w http.ResponseWriter, status int, body any, headers map[string]string) error {
	// No body -> 204
	if body == nil && status == http.StatusNoContent {
		setHeaders(w, headers)
		w.WriteHeader(status)
		return nil
	}

	var payload any
	switch e := body.(type) {
	case APIError:
		payload = errEnvelope{Status: "error", Error: e}
	case *APIError:
		payload = errEnvelope{Status: "error", Error: *e}
	default:
		payload = okEnvelope{Status: "ok", Data: body}
	}

	// headers before the first write
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	setHeaders(w, headers)
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return enc.Encode(payload)
}

func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) error {
	traceID := middleware.GetReqID(r.Context())
	return JSON(w, status, APIError{
		Code:    code,
		Message: message,
		Details: details,
		TraceID: traceID,
	}, map[string]string{
		"Cache-Control": "no-store",
	})
}

func setHeaders(w http.ResponseWriter, headers map[string]string) {
	for k, v := range headers {
		w.Header().Set(k, v)
	}
}
