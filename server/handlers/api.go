package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/an1noX/techpinoyv3-sub002/common/ws"
	"github.com/an1noX/techpinoyv3-sub002/server/storage"
	"github.com/an1noX/techpinoyv3-sub002/server/tonerwiki"
)

// repeatWarnInterval throttles warnings for the same failing probe target or
// discovery run.
const repeatWarnInterval = time.Minute

// API serves the fleet registry over HTTP.
type API struct {
	store         storage.Store
	hub           *ws.Hub
	events        Publisher
	prober        Prober
	discoverer    Discoverer
	logs          LogBuffer
	importer      *tonerwiki.Importer
	upgrader      ws.Upgrader
	authWrap      func(http.HandlerFunc) http.HandlerFunc
	actorResolver func(*http.Request) string
	log           Logger
}

// NewAPI builds an API backed by store. hub may be nil, which disables the
// websocket feed; events then default to opts.Events or are discarded.
func NewAPI(store storage.Store, hub *ws.Hub, opts APIOptions) (*API, error) {
	if store == nil {
		return nil, errors.New("fleet API requires a store")
	}
	api := &API{
		store:         store,
		hub:           hub,
		events:        opts.Events,
		prober:        opts.Prober,
		discoverer:    opts.Discoverer,
		logs:          opts.Logs,
		upgrader:      ws.Upgrader{AllowedOrigins: opts.AllowedOrigins},
		authWrap:      opts.AuthMiddleware,
		actorResolver: opts.ActorResolver,
		log:           opts.Logger,
	}
	if api.log == nil {
		api.log = nopLogger{}
	}
	if api.events == nil {
		if hub != nil {
			api.events = hub
		} else {
			api.events = nopPublisher{}
		}
	}
	api.importer = tonerwiki.NewImporter(store, api.log)
	return api, nil
}

// RegisterRoutes wires the fleet handlers onto mux.
func (api *API) RegisterRoutes(mux *http.ServeMux) {
	if mux == nil {
		mux = http.DefaultServeMux
	}
	wrap := api.wrap

	mux.HandleFunc("/api/v1/printers", wrap(api.handlePrinters))
	mux.HandleFunc("/api/v1/printers/", wrap(api.handlePrinterRoute))
	mux.HandleFunc("/api/v1/clients", wrap(api.handleClients))
	mux.HandleFunc("/api/v1/clients/", wrap(api.handleClientRoute))
	mux.HandleFunc("/api/v1/departments", wrap(api.handleDepartments))
	mux.HandleFunc("/api/v1/departments/", wrap(api.handleDepartmentByID))
	mux.HandleFunc("/api/v1/toners", wrap(api.handleToners))
	mux.HandleFunc("/api/v1/toners/import", wrap(api.handleTonerImport))
	mux.HandleFunc("/api/v1/toners/", wrap(api.handleTonerByID))
	mux.HandleFunc("/api/v1/discover", wrap(api.handleDiscover))
	mux.HandleFunc("/api/v1/events", wrap(api.handleEvents))
	mux.HandleFunc("/api/v1/logs", wrap(api.handleLogs))
}

func (api *API) wrap(handler http.HandlerFunc) http.HandlerFunc {
	if api.authWrap == nil {
		return handler
	}
	return api.authWrap(handler)
}

func (api *API) actorLabel(r *http.Request) string {
	if api.actorResolver == nil {
		return ""
	}
	return api.actorResolver(r)
}

// warnRepeated logs a warning at most once per repeatWarnInterval for key
// when the logger supports it.
func (api *API) warnRepeated(key, msg string, args ...interface{}) {
	if rl, ok := api.log.(rateLimitedWarner); ok {
		rl.WarnRateLimited(key, repeatWarnInterval, msg, args...)
		return
	}
	api.log.Warn(msg, args...)
}

func (api *API) publish(typ string, data map[string]interface{}) {
	api.events.Publish(typ, data)
}

// splitPath returns the id and optional sub-resource below prefix.
// "/api/v1/printers/p-1/transfers" with prefix "/api/v1/printers/" gives
// ("p-1", "transfers").
func splitPath(path, prefix string) (id, sub string) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return "", ""
	}
	parts := strings.SplitN(rest, "/", 2)
	id = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		sub = strings.Trim(parts[1], "/")
	}
	return id, sub
}
