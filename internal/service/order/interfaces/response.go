package interfaces

import (
	"encoding/json"
	"net/http"
	"time"

	"giftify/internal/pkg/apperror"
	"giftify/internal/pkg/logger"
)

// envelope is the body of every API response.
type envelope struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     *errorBody `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

func (h *OrderHandler) respond(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func (h *OrderHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperror.From(err, "INTERNAL_ERROR", "Internal server error")
	status := ae.Kind.HTTPStatus()

	body := &errorBody{Code: ae.Code, Message: ae.Message}
	if h.debugErrors {
		body.Stack = apperror.Stack(err)
	}

	event := logger.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Ctx(r.Context()).Error()
	}
	event.Err(err).Str("code", ae.Code).Int("status", status).Str("path", r.URL.Path).Msg("request failed")

	writeJSON(w, status, envelope{
		Success:   false,
		Error:     body,
		Timestamp: time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
