package web

// handlers_records.go serves the routes every inventory resource shares:
// list, get, create, update, soft delete, restore, views, export, template
// and the one-shot CSV import.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/logging"
)

// records adapts one resource's service methods to the shared handlers.
type records struct {
	list    func(ctx context.Context, lq core.ListQuery) (any, error)
	get     func(ctx context.Context, identifier string) (any, error)
	create  func(ctx context.Context, payload map[string]any) (any, error)
	update  func(ctx context.Context, identifier string, payload map[string]any) (any, error)
	remove  func(ctx context.Context, identifier string) error
	restore func(ctx context.Context, identifier string) (any, error)
	upload  func(ctx context.Context, fileName string, data []byte) (any, error)
}

func (s *Server) equipmentRecords() records {
	return records{
		list:   func(ctx context.Context, lq core.ListQuery) (any, error) { return s.service.ListEquipment(ctx, lq) },
		get:    func(ctx context.Context, id string) (any, error) { return s.service.GetEquipment(ctx, id) },
		create: func(ctx context.Context, p map[string]any) (any, error) { return s.service.CreateEquipment(ctx, p) },
		update: func(ctx context.Context, id string, p map[string]any) (any, error) {
			return s.service.UpdateEquipment(ctx, id, p)
		},
		remove:  s.service.DeleteEquipment,
		restore: func(ctx context.Context, id string) (any, error) { return s.service.RestoreEquipment(ctx, id) },
		upload: func(ctx context.Context, name string, data []byte) (any, error) {
			return s.service.ImportEquipmentCSV(ctx, name, data)
		},
	}
}

func (s *Server) softwareRecords() records {
	return records{
		list:   func(ctx context.Context, lq core.ListQuery) (any, error) { return s.service.ListSoftware(ctx, lq) },
		get:    func(ctx context.Context, id string) (any, error) { return s.service.GetSoftware(ctx, id) },
		create: func(ctx context.Context, p map[string]any) (any, error) { return s.service.CreateSoftware(ctx, p) },
		update: func(ctx context.Context, id string, p map[string]any) (any, error) {
			return s.service.UpdateSoftware(ctx, id, p)
		},
		remove:  s.service.DeleteSoftware,
		restore: func(ctx context.Context, id string) (any, error) { return s.service.RestoreSoftware(ctx, id) },
		upload: func(ctx context.Context, name string, data []byte) (any, error) {
			return s.service.ImportSoftwareCSV(ctx, name, data)
		},
	}
}

func (s *Server) subscriptionRecords() records {
	return records{
		list:   func(ctx context.Context, lq core.ListQuery) (any, error) { return s.service.ListSubscriptions(ctx, lq) },
		get:    func(ctx context.Context, id string) (any, error) { return s.service.GetSubscription(ctx, id) },
		create: func(ctx context.Context, p map[string]any) (any, error) { return s.service.CreateSubscription(ctx, p) },
		update: func(ctx context.Context, id string, p map[string]any) (any, error) {
			return s.service.UpdateSubscription(ctx, id, p)
		},
		remove:  s.service.DeleteSubscription,
		restore: func(ctx context.Context, id string) (any, error) { return s.service.RestoreSubscription(ctx, id) },
		upload: func(ctx context.Context, name string, data []byte) (any, error) {
			return s.service.ImportSubscriptionsCSV(ctx, name, data)
		},
	}
}

// mountResource registers the shared routes for the resource registered
// under key. Static segments are registered before {identifier} routes.
func (s *Server) mountResource(r chi.Router, key string, rec records) {
	def, ok := core.Get(key)
	if !ok {
		panic("web: resource not registered: " + key)
	}

	r.Get("/views", s.handleViews(def))
	r.Get("/export", s.handleExport(def))
	r.Get("/template", s.handleTemplate(def))
	r.With(s.limitImports).Post("/import", s.handleImport(rec))

	r.Get("/", s.handleList(def, rec))
	r.Post("/", s.handleCreate(rec))
	r.Get("/{identifier}", s.handleGet(rec))
	r.Put("/{identifier}", s.handleUpdate(rec))
	r.Delete("/{identifier}", s.handleDelete(rec))
	r.Post("/{identifier}/restore", s.handleRestore(rec))
}

func (s *Server) handleList(def *core.ResourceDefinition, rec records) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lq, err := core.ParseListQuery(def, r.URL.Query())
		if err != nil {
			fail(w, r, err)
			return
		}
		items, err := rec.list(r.Context(), lq)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (s *Server) handleGet(rec records) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := rec.get(r.Context(), chi.URLParam(r, "identifier"))
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) handleCreate(rec records) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := decodePayload(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		item, err := rec.create(r.Context(), payload)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func (s *Server) handleUpdate(rec records) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := decodePayload(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		item, err := rec.update(r.Context(), chi.URLParam(r, "identifier"), payload)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) handleDelete(rec records) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := rec.remove(r.Context(), chi.URLParam(r, "identifier")); err != nil {
			fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRestore(rec records) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := rec.restore(r.Context(), chi.URLParam(r, "identifier"))
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) handleImport(rec records) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, data, ok := s.readUpload(w, r)
		if !ok {
			return
		}
		result, err := rec.upload(r.Context(), name, data)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// handleViews publishes the resource's view groups.
func (s *Server) handleViews(def *core.ResourceDefinition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, def.ViewGroups())
	}
}

// handleExport serves the resource as a CSV attachment.
func (s *Server) handleExport(def *core.ResourceDefinition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeDeleted, err := boolParam(r, "include_deleted")
		if err != nil {
			fail(w, r, err)
			return
		}

		// Buffered so a failed query can still answer with an error status.
		var buf bytes.Buffer
		n, err := s.service.Export(r.Context(), def.Info.Key, includeDeleted, &buf)
		if err != nil {
			fail(w, r, err)
			return
		}

		logging.FromContext(r.Context()).Info("export complete", "resource", def.Info.Key, "rows", n)
		setAttachment(w, core.ExportFileName(def.Info.Key, time.Now()))
		w.Write(buf.Bytes())
	}
}

// handleTemplate serves the header-only import template.
func (s *Server) handleTemplate(def *core.ResourceDefinition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setAttachment(w, core.TemplateFileName(def.Info.Key))
		if err := core.WriteTemplate(def, w); err != nil {
			logging.FromContext(r.Context()).Error("write template", "resource", def.Info.Key, "error", err)
		}
	}
}

func setAttachment(w http.ResponseWriter, fileName string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
}

// decodePayload reads a JSON object body. Numbers stay json.Number so
// decimals reach the validators as written.
func decodePayload(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: request body must be a JSON object: %v", core.ErrInvalidInput, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: request body must be a JSON object", core.ErrInvalidInput)
	}
	return payload, nil
}

// decodeJSON reads a JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", core.ErrInvalidInput, err)
	}
	return nil
}

// maxJSONBody bounds non-upload request bodies.
const maxJSONBody = 1 << 20

// boolParam parses an optional boolean query parameter.
func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", core.ErrInvalidInput, name)
	}
	return b, nil
}

// idParam parses a numeric path parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", core.ErrInvalidInput, name)
	}
	return id, nil
}
