package web

// errors.go turns computation errors into responses.
//
// Every failure is logged with its technical detail and request ID, then
// answered with the single status line a user would see (core.UserText)
// plus the mapped code and suggested action. HTMX requests get an HTML
// fragment, everything else JSON.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/geocalc/internal/core"
	"github.com/JonMunkholm/geocalc/internal/logging"
	"github.com/JonMunkholm/geocalc/internal/web/templates"
	"github.com/go-chi/render"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the user-facing response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	status := statusFor(msg.Code)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Info("request rejected", attrs...)
	}

	text := core.UserText(err)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.ErrorAlert(text, msg.Action, msg.Code).Render(r.Context(), w)
		return
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Error:   text,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor picks the HTTP status for a mapped error code.
func statusFor(code string) int {
	switch {
	case code == "CSV003":
		return http.StatusRequestEntityTooLarge
	case code == "UPL002":
		return http.StatusServiceUnavailable
	case code == "UPL004":
		return http.StatusBadRequest
	case code == "UPL005":
		return http.StatusGatewayTimeout
	case code == "RATE001":
		return http.StatusTooManyRequests
	case strings.HasPrefix(code, "INP"), strings.HasPrefix(code, "CSV"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "VAL"), strings.HasPrefix(code, "HGT"):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	s.respondError(w, r, errRateLimited)
}
