package http

import (
	"net/http"
	"time"

	"moneypal/internal/apperr"
	"moneypal/internal/core"
	"moneypal/internal/services"
)

type bucketRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type,omitempty"`
	TargetAmount string `json:"targetAmount,omitempty"`
}

type bucketResponse struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	Status       string      `json:"status"`
	Balance      core.Money  `json:"balance"`
	TargetAmount *core.Money `json:"targetAmount,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func toBucketResponse(b services.BucketWithBalance) bucketResponse {
	return bucketResponse{
		ID:           b.ID,
		Name:         b.Name,
		Type:         string(b.Type),
		Status:       string(b.Status),
		Balance:      b.Balance,
		TargetAmount: b.TargetAmount,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func parseTarget(s string) (*core.Money, error) {
	if s == "" {
		return nil, nil
	}
	m, err := core.ParseAmount(s)
	if err != nil {
		return nil, apperr.Validation(apperr.FieldError{
			Field:   "targetAmount",
			Message: "must be a positive number with at most two decimal places",
		})
	}
	return &m, nil
}

func (s *Server) handleCreateBucket(w http.ResponseWriter, r *http.Request) {
	var req bucketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	typ, err := core.ParseBucketType(req.Type)
	if err != nil {
		writeError(w, r, apperr.Validation(apperr.FieldError{Field: "type", Message: err.Error()}))
		return
	}
	target, err := parseTarget(req.TargetAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.buckets.Create(r.Context(), userID(r), req.Name, typ, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBucketResponse(b))
}

func (s *Server) handleUpdateBucket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req bucketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	target, err := parseTarget(req.TargetAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.buckets.Update(r.Context(), userID(r), id, req.Name, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBucketResponse(b))
}

func (s *Server) handleArchiveBucket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.buckets.Archive(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkBucketSpent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.buckets.MarkAsSpent(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bucket":      toBucketResponse(services.BucketWithBalance{Bucket: result.Bucket}),
		"amountSpent": result.AmountSpent,
	})
}

func (s *Server) handleGetBucket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.buckets.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBucketResponse(b))
}

func (s *Server) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("includeArchived") == "true"
	buckets, err := s.buckets.List(r.Context(), userID(r), includeArchived)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]bucketResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, toBucketResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"buckets": out})
}
