package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"moneypal/internal/apperr"
	"moneypal/internal/log"
)

// maxBodyBytes caps request bodies; ledger payloads are tiny.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// errorBody is the uniform error envelope.
type errorBody struct {
	Error  string             `json:"error"`
	Fields []apperr.FieldError `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).Error("request failed", log.FieldError, err)
	}
	writeJSON(w, status, errorBody{
		Error:  apperr.Public(err),
		Fields: apperr.FieldsOf(err),
	})
}

// decodeJSON parses a request body into dst, translating decoder
// failures into validation errors the client can act on.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var unmarshalErr *json.UnmarshalTypeError
		if errors.As(err, &unmarshalErr) {
			return apperr.Validation(apperr.FieldError{
				Field:   unmarshalErr.Field,
				Message: "has the wrong type",
			})
		}
		return apperr.BadRequest("request body is not valid JSON")
	}
	return nil
}
