package web

// errors.go provides unified error response handling for the web layer.
//
// Errors are logged with full technical detail and the request ID, then
// returned as a mapped user message: JSON for API clients, an HTML page for
// browsers.

import (
	"errors"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/logging"
	"github.com/JonMunkholm/inventory/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Action  string                 `json:"action,omitempty"`
	Code    string                 `json:"code"`
	Detail  string                 `json:"detail,omitempty"`
	Fields  []core.ValidationError `json:"fields,omitempty"`
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var verrs core.ValidationErrors
	switch {
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict), errors.Is(err, core.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotDeleted):
		return http.StatusBadRequest
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail answers with the status statusFor picks for err.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err, statusFor(err))
}

// respondError logs the technical error server-side and returns a response
// based on the request type (JSON or HTML).
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	// Client errors describe the request, so their text is safe to echo.
	if status < http.StatusInternalServerError {
		resp.Detail = err.Error()
		var verrs core.ValidationErrors
		if errors.As(err, &verrs) {
			resp.Fields = verrs
		}
	}

	if wantsJSON(r) {
		writeJSON(w, status, resp)
		return
	}
	respondErrorHTML(w, r, resp, status)
}

// respondErrorHTML renders the error page.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, resp ErrorResponse, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page := templates.ErrorPage(templates.ErrorData{
		Status:    status,
		Message:   resp.Message,
		Action:    resp.Action,
		Code:      resp.Code,
		RequestID: chimw.GetReqID(r.Context()),
	})
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error page", "error", err)
	}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// Browsers ask for HTML explicitly; everything else under the API gets JSON.
	if strings.Contains(accept, "text/html") {
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
