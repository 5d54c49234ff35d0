package handlers

import (
	"net/http"
	"time"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
	"github.com/an1noX/techpinoyv3-sub002/common/ws"
)

// subscriberBuffer is how many events a slow websocket client may lag
// before the hub starts dropping its messages.
const subscriberBuffer = 64

// handleEvents upgrades to a websocket and streams fleet events until the
// client disconnects or the server shuts down.
func (api *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if api.hub == nil {
		writeError(w, http.StatusNotImplemented, "event feed is disabled")
		return
	}

	conn, err := api.upgrader.Upgrade(w, r)
	if err != nil {
		// The upgrader has already written an HTTP error.
		api.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	id := model.NewID()
	events, cancel := api.hub.Subscribe(id, subscriberBuffer)
	defer cancel()

	hello := ws.NewMessage(ws.MessageTypeHello, map[string]interface{}{"subscriber": id})
	if err := conn.WriteMessage(&hello, 10*time.Second); err != nil {
		return
	}

	api.log.Debug("Event subscriber connected", "id", id, "remote", conn.RemoteAddr())
	if err := conn.Pump(r.Context(), events, ws.PumpOptions{}); err != nil {
		api.log.Debug("Event subscriber closed", "id", id, "error", err)
	}
}
