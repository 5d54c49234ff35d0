package handlers

import (
	"net/http"
	"time"

	"github.com/an1noX/techpinoyv3-sub002/server/discovery"
)

// maxDiscoverTimeout caps ?timeout= on /api/v1/discover.
const maxDiscoverTimeout = 30 * time.Second

// handleDiscover browses mDNS for printers: GET /api/v1/discover?timeout=5s.
func (api *API) handleDiscover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if api.discoverer == nil {
		writeError(w, http.StatusNotImplemented, "discovery is disabled")
		return
	}

	timeout := discovery.DefaultTimeout
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid timeout", Field: "timeout", Value: raw})
			return
		}
		timeout = min(d, maxDiscoverTimeout)
	}

	candidates, err := api.discoverer.Browse(r.Context(), timeout)
	if err != nil {
		api.warnRepeated("discovery", "Discovery failed", "error", err)
		writeError(w, http.StatusBadGateway, "discovery failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nonNil(candidates))
}
