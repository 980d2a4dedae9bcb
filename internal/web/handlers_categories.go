package web

import (
	"net/http"

	"github.com/JonMunkholm/inventory/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	includeInactive, err := boolParam(r, "include_inactive")
	if err != nil {
		fail(w, r, err)
		return
	}
	cats, err := s.service.ListCategories(r.Context(), includeInactive)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	cat, err := s.service.GetCategory(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in core.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	cat, err := s.service.CreateCategory(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var in core.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	cat, err := s.service.UpdateCategory(r.Context(), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// handleDeleteCategory deactivates a category. force=true deactivates it even
// while active subscriptions reference it.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	force, err := boolParam(r, "force")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.service.DeleteCategory(r.Context(), id, force); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCategoryUsage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	usage, err := s.service.CategoryUsage(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

// ---------------------------------------------------------------------------
// Subcategories
// ---------------------------------------------------------------------------

func (s *Server) handleListSubcategories(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	includeInactive, err := boolParam(r, "include_inactive")
	if err != nil {
		fail(w, r, err)
		return
	}
	subs, err := s.service.ListSubcategories(r.Context(), id, includeInactive)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleCreateSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var in core.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	sub, err := s.service.CreateSubcategory(r.Context(), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleUpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var in core.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	sub, err := s.service.UpdateSubcategory(r.Context(), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleDeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	force, err := boolParam(r, "force")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.service.DeleteSubcategory(r.Context(), id, force); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubcategoryUsage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	usage, err := s.service.SubcategoryUsage(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}
