package handlers

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"
)

// Pinger reports backing-store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
	Driver() string
}

// HealthAPI provides HTTP handlers for health checks and version information.
type HealthAPI struct {
	version      string
	buildTime    string
	gitCommit    string
	processStart time.Time
	store        Pinger
}

// HealthAPIOptions configures the health API.
type HealthAPIOptions struct {
	Version      string
	BuildTime    string
	GitCommit    string
	ProcessStart time.Time
	Store        Pinger // optional; when set /health checks the database
}

// NewHealthAPI creates a new health API instance.
func NewHealthAPI(opts HealthAPIOptions) *HealthAPI {
	start := opts.ProcessStart
	if start.IsZero() {
		start = time.Now()
	}
	return &HealthAPI{
		version:      opts.Version,
		buildTime:    opts.BuildTime,
		gitCommit:    opts.GitCommit,
		processStart: start,
		store:        opts.Store,
	}
}

// RegisterRoutes registers the health and version routes.
func (api *HealthAPI) RegisterRoutes(mux *http.ServeMux) {
	if mux == nil {
		mux = http.DefaultServeMux
	}
	mux.HandleFunc("/health", api.HandleHealth)
	mux.HandleFunc("/api/version", api.HandleVersion)
}

// HandleHealth handles GET /health. It is public so load balancers and
// service managers can poll it.
func (api *HealthAPI) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}
	status := http.StatusOK
	if api.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := api.store.Ping(ctx); err != nil {
			resp["status"] = "unhealthy"
			resp["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

// HandleVersion handles GET /api/version.
func (api *HealthAPI) HandleVersion(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"version":    api.version,
		"build_time": api.buildTime,
		"git_commit": api.gitCommit,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"uptime":     time.Since(api.processStart).Round(time.Second).String(),
	}
	if api.store != nil {
		resp["database"] = api.store.Driver()
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheckConfig says where the local server listens.
type HealthCheckConfig struct {
	Port int
	TLS  bool
}

// RunHealthCheck probes the local /health endpoint. Returns nil when the
// server answers healthy.
func RunHealthCheck(cfg HealthCheckConfig) error {
	if cfg.Port <= 0 {
		return fmt.Errorf("no health endpoint to probe: port %d", cfg.Port)
	}
	scheme := "http"
	if cfg.TLS {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://127.0.0.1:%d/health", scheme, cfg.Port)
	if err := probeHealthEndpoint(endpoint, cfg.TLS); err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	return nil
}

// probeHealthEndpoint sends a GET request to the health endpoint and validates the response.
func probeHealthEndpoint(endpoint string, insecure bool) error {
	client := &http.Client{Timeout: 5 * time.Second}
	if insecure {
		// Local self-signed certificates.
		client.Transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}} //nolint:gosec
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || payload.Status != "healthy" {
		return fmt.Errorf("unhealthy: status %d %q", resp.StatusCode, payload.Status)
	}
	return nil
}
