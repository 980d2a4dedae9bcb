package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/logging"
)

var (
	errNoFile       = fmt.Errorf("%w: no file provided", core.ErrInvalidInput)
	errFileTooLarge = errors.New("file too large")
)

// readUpload reads the multipart "file" field within the configured size
// limit. On failure it has already answered the request.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	maxSize := s.cfg.Import.MaxFileSize
	tooLarge := func() (string, []byte, bool) {
		respondError(w, r, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	if r.ContentLength > maxSize {
		return tooLarge()
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return tooLarge()
		}
		fail(w, r, fmt.Errorf("%w: invalid multipart form: %v", core.ErrInvalidInput, err))
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		fail(w, r, errNoFile)
		return "", nil, false
	}
	defer file.Close()

	if err := core.CheckCSVName(header.Filename); err != nil {
		fail(w, r, fmt.Errorf("%w: %w", core.ErrInvalidInput, err))
		return "", nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return "", nil, false
	}

	logging.FromContext(r.Context()).Info("upload received", "file", header.Filename, "bytes", len(data))
	return header.Filename, data, true
}

// mountEquipmentWorkflow registers the two-phase equipment import and the
// validation endpoints the preview grid calls while rows are edited.
func (s *Server) mountEquipmentWorkflow(r chi.Router) {
	r.With(s.limitImports).Post("/import/preview", s.handlePreviewImport)
	r.With(s.limitImports).Post("/import/confirm", s.handleConfirmImport)
	r.Post("/validate/row", s.handleValidateRow)
	r.Post("/validate/field", s.handleValidateField)
}

func (s *Server) handlePreviewImport(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	preview, err := s.service.PreviewEquipmentImport(r.Context(), name, data)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleConfirmImport(w http.ResponseWriter, r *http.Request) {
	var req core.ConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	result, err := s.service.ConfirmEquipmentImport(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// validateRowRequest is the body of POST /computers/validate/row.
type validateRowRequest struct {
	RowNumber int            `json:"row_number"`
	Data      map[string]any `json:"data"`
}

func (s *Server) handleValidateRow(w http.ResponseWriter, r *http.Request) {
	var req validateRowRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.Data == nil {
		fail(w, r, fmt.Errorf("%w: data is required", core.ErrInvalidInput))
		return
	}
	row, err := s.service.ValidateEquipmentRow(r.Context(), req.RowNumber, req.Data)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// validateFieldRequest is the body of POST /computers/validate/field.
type validateFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// handleValidateField checks one form value without touching the database.
func (s *Server) handleValidateField(w http.ResponseWriter, r *http.Request) {
	var req validateFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.Field == "" {
		fail(w, r, fmt.Errorf("%w: field is required", core.ErrInvalidInput))
		return
	}
	writeJSON(w, http.StatusOK, core.ValidateField(req.Field, req.Value))
}

func (s *Server) handleEquipmentHistory(w http.ResponseWriter, r *http.Request) {
	includeCurrent, err := boolParam(r, "include_current")
	if err != nil {
		fail(w, r, err)
		return
	}
	history, err := s.service.EquipmentHistory(r.Context(), chi.URLParam(r, "identifier"), includeCurrent)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleSubscriptionOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := s.service.SubscriptionOwners(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, owners)
}
