package handlers

import (
	"net/http"

	"github.com/an1noX/techpinoyv3-sub002/common/logger"
)

// handleLogs returns buffered log entries, oldest first:
// GET /api/v1/logs?level=warn keeps WARN and ERROR.
func (api *API) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if api.logs == nil {
		writeError(w, http.StatusNotImplemented, "log buffer is not available")
		return
	}

	raw := r.URL.Query().Get("level")
	if raw == "" {
		writeJSON(w, http.StatusOK, nonNil(api.logs.GetBuffer()))
		return
	}
	level, err := logger.ParseLevel(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid level", Field: "level", Value: raw})
		return
	}
	writeJSON(w, http.StatusOK, nonNil(api.logs.GetBufferFiltered(level)))
}
