package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
	"github.com/an1noX/techpinoyv3-sub002/server/storage"
)

// maxBodyBytes bounds JSON request bodies other than wiki imports.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

// writeDomainError maps registry and storage errors onto HTTP statuses:
// malformed or invalid input is 400, a missing row 404, conflicts 409.
func (api *API) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		enumErr  *model.InvalidEnumValueError
		valErr   *model.ValidationError
		shapeErr *model.IncompatibleRecordShapeError
		syntax   *json.SyntaxError
		typeErr  *json.UnmarshalTypeError
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.As(err, &enumErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: enumErr.Error(), Field: enumErr.Field, Value: enumErr.Value})
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: valErr.Error(), Field: valErr.Field})
	case errors.As(err, &shapeErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: shapeErr.Error(), Field: firstShapeField(shapeErr)})
	case errors.Is(err, storage.ErrClientNotFound):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Field: "client_id"})
	case errors.Is(err, storage.ErrDepartmentNotFound):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Field: "department"})
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.As(err, &syntax), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "request body required")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrAlreadyExists), errors.Is(err, storage.ErrClientInUse):
		writeError(w, http.StatusConflict, err.Error())
	default:
		api.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "storage operation failed")
	}
}

func firstShapeField(e *model.IncompatibleRecordShapeError) string {
	if len(e.Missing) > 0 {
		return e.Missing[0]
	}
	for _, f := range []string{"id", "name", "brand", "color", "yield", "compatible"} {
		if _, ok := e.Invalid[f]; ok {
			return f
		}
	}
	return ""
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
