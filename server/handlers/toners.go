package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
	"github.com/an1noX/techpinoyv3-sub002/common/ws"
	"github.com/an1noX/techpinoyv3-sub002/server/tonerwiki"
)

// handleToners supports GET with an optional ?model= compatibility filter.
func (api *API) handleToners(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	list, err := api.store.ListTonerTypes(r.Context(), r.URL.Query().Get("model"))
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (api *API) handleTonerByID(w http.ResponseWriter, r *http.Request) {
	id, sub := splitPath(r.URL.Path, "/api/v1/toners/")
	if id == "" || sub != "" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		t, err := api.store.GetTonerType(r.Context(), id)
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodDelete:
		if err := api.store.DeleteTonerType(r.Context(), id); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		api.publish(ws.MessageTypeTonerDeleted, map[string]interface{}{"id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}

// handleTonerImport accepts a wiki dump body (JSON, or YAML by Content-Type
// or ?format=) and imports it under ?policy=strict|partial. A strict import
// that rejects the dump answers 422 with the report.
func (api *API) handleTonerImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	policy, err := model.ParseConversionPolicy(r.URL.Query().Get("policy"))
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	format, err := importFormat(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Field: "format"})
		return
	}

	body := http.MaxBytesReader(w, r.Body, tonerwiki.MaxDumpSize)
	dump, err := tonerwiki.Decode(body, format)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "dump too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	_, _ = io.Copy(io.Discard, body)

	report, err := api.importer.Import(r.Context(), dump, policy)
	switch {
	case errors.Is(err, tonerwiki.ErrUnsupportedSchema):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Field: "schema_version", Value: dump.SchemaVersion})
		return
	case errors.Is(err, tonerwiki.ErrStrictRejected):
		writeJSON(w, http.StatusUnprocessableEntity, report)
		return
	case err != nil:
		api.writeDomainError(w, r, err)
		return
	}

	api.publish(ws.MessageTypeTonersImported, map[string]interface{}{
		"source":   report.Source,
		"imported": report.Imported,
		"rejected": len(report.Rejected),
	})
	writeJSON(w, http.StatusOK, report)
}

func importFormat(r *http.Request) (tonerwiki.Format, error) {
	if raw := r.URL.Query().Get("format"); raw != "" {
		return tonerwiki.ParseFormat(raw)
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && strings.Contains(mt, "yaml") {
		return tonerwiki.FormatYAML, nil
	}
	return tonerwiki.FormatJSON, nil
}
