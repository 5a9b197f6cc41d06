package http

import (
	"net/http"
	"time"

	"moneypal/internal/apperr"
	"moneypal/internal/core"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

type categoryResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Color      string    `json:"color,omitempty"`
	Icon       string    `json:"icon,omitempty"`
	IsSystem   bool      `json:"isSystem"`
	IsArchived bool      `json:"isArchived"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:         c.ID,
		Name:       c.Name,
		Type:       string(c.Type),
		Color:      c.Color,
		Icon:       c.Icon,
		IsSystem:   c.IsSystem,
		IsArchived: c.IsArchived,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	typ, err := core.ParseCategoryType(req.Type)
	if err != nil {
		writeError(w, r, apperr.Validation(apperr.FieldError{Field: "type", Message: err.Error()}))
		return
	}
	cat, err := s.categories.Create(r.Context(), userID(r), req.Name, typ, req.Color, req.Icon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(cat))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cat, err := s.categories.Update(r.Context(), userID(r), id, req.Name, req.Color, req.Icon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(cat))
}

// handleDeleteCategory reports whether the category was archived or
// deleted, since the caller cannot know which without the reference
// count.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	action, err := s.categories.Delete(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": string(action)})
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cat, err := s.categories.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(cat))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("includeArchived") == "true"
	cats, err := s.categories.List(r.Context(), userID(r), includeArchived)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}
