package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"moneypal/internal/apperr"
	"moneypal/internal/core"
	"moneypal/internal/services"
	"moneypal/internal/storage"
)

type transactionRequest struct {
	Type       string `json:"type,omitempty"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	CategoryID int64  `json:"categoryId,omitempty"`
	BucketID   int64  `json:"bucketId,omitempty"`
	Note       string `json:"note,omitempty"`
}

type transactionResponse struct {
	ID           int64      `json:"id"`
	Type         string     `json:"type"`
	Amount       core.Money `json:"amount"`
	Date         string     `json:"date"`
	CategoryID   int64      `json:"categoryId,omitempty"`
	CategoryName string     `json:"categoryName,omitempty"`
	BucketID     int64      `json:"bucketId,omitempty"`
	BucketName   string     `json:"bucketName,omitempty"`
	Note         string     `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type transactionListResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Total        int                   `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

func toTransactionResponse(row storage.TransactionRow) transactionResponse {
	return transactionResponse{
		ID:           row.ID,
		Type:         string(row.Type),
		Amount:       row.Amount,
		Date:         row.Date.Format("2006-01-02"),
		CategoryID:   row.CategoryID,
		CategoryName: row.CategoryName,
		BucketID:     row.BucketID,
		BucketName:   row.BucketName,
		Note:         row.Note,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest("invalid id")
	}
	return id, nil
}

func parseAmountField(s string) (core.Money, error) {
	m, err := core.ParseAmount(s)
	if err != nil {
		return core.Money{}, apperr.Validation(apperr.FieldError{
			Field:   "amount",
			Message: "must be a positive number with at most two decimal places",
		})
	}
	return m, nil
}

func parseDateField(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Validation(apperr.FieldError{
			Field:   "date",
			Message: "must be a date in YYYY-MM-DD form",
		})
	}
	return d, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, r, apperr.Validation(apperr.FieldError{Field: "type", Message: err.Error()}))
		return
	}
	amount, err := parseAmountField(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	row, err := s.transactions.Create(r.Context(), userID(r), services.CreateTransactionInput{
		Type:       typ,
		Amount:     amount,
		Date:       date,
		CategoryID: req.CategoryID,
		BucketID:   req.BucketID,
		Note:       req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(row))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmountField(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	row, err := s.transactions.Update(r.Context(), userID(r), id, services.UpdateTransactionInput{
		Amount:     amount,
		Date:       date,
		CategoryID: req.CategoryID,
		BucketID:   req.BucketID,
		Note:       req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(row))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.transactions.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	row, err := s.transactions.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(row))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.TransactionFilter{Limit: 50}

	if v := q.Get("type"); v != "" {
		typ, err := core.ParseTransactionType(v)
		if err != nil {
			writeError(w, r, apperr.BadRequest(err.Error()))
			return
		}
		filter.Type = typ
	}
	if v := q.Get("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, r, apperr.BadRequest("invalid categoryId"))
			return
		}
		filter.CategoryID = id
	}
	if v := q.Get("bucketId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, r, apperr.BadRequest("invalid bucketId"))
			return
		}
		filter.BucketID = id
	}
	if v := q.Get("from"); v != "" {
		d, err := parseDateField(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.From = d
	}
	if v := q.Get("to"); v != "" {
		d, err := parseDateField(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.To = d
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeError(w, r, apperr.BadRequest("limit must be between 1 and 200"))
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, apperr.BadRequest("offset must be non-negative"))
			return
		}
		filter.Offset = n
	}

	rows, total, err := s.transactions.List(r.Context(), userID(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := transactionListResponse{
		Transactions: make([]transactionResponse, 0, len(rows)),
		Total:        total,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	for _, row := range rows {
		out.Transactions = append(out.Transactions, toTransactionResponse(row))
	}
	writeJSON(w, http.StatusOK, out)
}
