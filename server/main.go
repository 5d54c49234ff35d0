// PrintFleet Server keeps the registry of a printer rental business: rental
// printers, clients and their departments, the toner catalogue, and transfer
// and maintenance history, served over HTTP with a websocket event feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/an1noX/techpinoyv3-sub002/common/config"
	"github.com/an1noX/techpinoyv3-sub002/common/logger"
	"github.com/an1noX/techpinoyv3-sub002/common/model"
	"github.com/an1noX/techpinoyv3-sub002/common/ws"
	"github.com/an1noX/techpinoyv3-sub002/server/discovery"
	"github.com/an1noX/techpinoyv3-sub002/server/handlers"
	"github.com/an1noX/techpinoyv3-sub002/server/probe"
	"github.com/an1noX/techpinoyv3-sub002/server/storage"
	"github.com/an1noX/techpinoyv3-sub002/server/tonerwiki"
)

// Version information (set at build time via -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var processStart = time.Now()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// runFromConfig loads the config at configPath and serves until ctx ends.
func runFromConfig(ctx context.Context, configPath string, isService bool) error {
	cfg, tracker, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return runServer(ctx, cfg, tracker, serverEnv{ConfigPath: configPath, IsService: isService})
}

type serverEnv struct {
	ConfigPath string
	IsService  bool
}

func newServerLogger(cfg config.LoggingConfig, isService bool) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logDir := cfg.Dir
	if logDir == "" {
		if logDir, err = config.GetLogDirectory("server", isService); err != nil {
			return nil, err
		}
	}
	l := logger.New(level, logDir, 1000)
	l.SetRotationPolicy(rotationPolicy(cfg))
	l.SetConsoleOutput(!isService)
	return l, nil
}

func rotationPolicy(cfg config.LoggingConfig) logger.RotationPolicy {
	return logger.RotationPolicy{
		Enabled:    cfg.MaxSizeMB > 0,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxAgeDays: cfg.MaxAgeDays,
		MaxFiles:   cfg.MaxFiles,
	}
}

// streamWarnings forwards WARN and ERROR entries to websocket subscribers.
func streamWarnings(l *logger.Logger, pub handlers.Publisher) {
	l.SetOnLogCallback(func(e logger.LogEntry) {
		if e.Level > logger.WARN {
			return
		}
		pub.Publish(ws.MessageTypeLogEntry, map[string]interface{}{"entry": e})
	})
}

// rotateOnHangup rotates the log file on SIGHUP until ctx ends.
func rotateOnHangup(ctx context.Context, l *logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			l.ForceRotate()
			logInfo("Log file rotated")
		}
	}
}

// resolveDatabase points an unconfigured SQLite backend at the data directory.
func resolveDatabase(db *config.DatabaseConfig, isService bool) error {
	if db.EffectiveDriver() != "sqlite" || db.DSN != "" || db.Path != "" {
		return nil
	}
	dataDir, err := config.GetDataDirectory("server", isService)
	if err != nil {
		return err
	}
	db.Path = filepath.Join(dataDir, storage.DefaultSQLitePath)
	return nil
}

func runServer(ctx context.Context, cfg *Config, tracker *ConfigSourceTracker, env serverEnv) error {
	l, err := newServerLogger(cfg.Logging, env.IsService)
	if err != nil {
		return err
	}
	serverLogger = l
	storage.SetLogger(l)
	defer func() {
		serverLogger = nil
		storage.SetLogger(nil)
		_ = l.Close()
	}()

	logInfo("PrintFleet Server starting",
		"version", Version, "commit", GitCommit, "go", runtime.Version(), "os", runtime.GOOS, "arch", runtime.GOARCH)
	if env.ConfigPath != "" {
		logInfo("Configuration loaded", "path", env.ConfigPath)
	}
	if keys := tracker.Keys(); len(keys) > 0 {
		logInfo("Environment overrides applied", "keys", keys)
	}

	if err := resolveDatabase(&cfg.Database, env.IsService); err != nil {
		return err
	}
	store, err := storage.NewStore(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Database.EffectiveDriver(), err)
	}
	defer store.Close()
	logInfo("Database ready", "driver", store.Driver())

	hub := ws.NewHub()
	defer hub.Stop()
	streamWarnings(l, hub)
	defer l.SetOnLogCallback(nil)
	go rotateOnHangup(ctx, l)

	auth := newAPIKeyAuth(cfg.Security)
	if auth.enabled() {
		logInfo("API key authentication enabled", "keys", len(cfg.Security.APIKeyHashes))
	} else {
		logWarn("API key authentication disabled; the API is open to anyone who can reach it")
	}

	opts := handlers.APIOptions{
		AuthMiddleware: auth.Middleware,
		ActorResolver:  auth.Actor,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         componentLogger{component: "api"},
		Logs:           l,
	}
	if cfg.SNMP.Enabled {
		opts.Prober = probe.New(cfg.ProbeConfig(), probe.WithLogger(componentLogger{component: "probe"}))
	}
	if cfg.Server.DiscoveryEnabled {
		opts.Discoverer = discovery.NewBrowser(componentLogger{component: "discovery"})
	}

	api, err := handlers.NewAPI(store, hub, opts)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	handlers.NewHealthAPI(handlers.HealthAPIOptions{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		ProcessStart: processStart,
		Store:        store,
	}).RegisterRoutes(mux)

	if cfg.TonerWiki.ImportOnStart && cfg.TonerWiki.URL != "" {
		go importWikiOnStart(ctx, store, cfg.TonerWiki)
	}

	tlsCfg := cfg.ToTLSConfig()
	port := cfg.Server.HTTPPort
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if tlsCfg.Enabled() {
		if srv.TLSConfig, err = tlsCfg.GetTLSConfig(); err != nil {
			return err
		}
		port = cfg.Server.HTTPSPort
	}
	srv.Addr = net.JoinHostPort(cfg.Server.BindAddress, strconv.Itoa(port))

	errCh := make(chan error, 1)
	go func() {
		logInfo("Listening", "addr", srv.Addr, "tls", string(tlsCfg.Mode))
		var serveErr error
		if tlsCfg.Enabled() {
			serveErr = srv.ListenAndServeTLS("", "")
		} else {
			serveErr = srv.ListenAndServe()
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logError("HTTP server failed", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	logInfo("Shutting down", "timeout", cfg.ShutdownTimeout())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logWarn("Graceful shutdown incomplete", "error", err)
	}
	if dropped := hub.Dropped(); dropped > 0 {
		logInfo("Event feed dropped messages to slow subscribers", "count", dropped)
	}
	logInfo("PrintFleet Server stopped")
	return nil
}

// importWikiOnStart refreshes the toner catalogue from the configured dump.
// Failures are logged; the server keeps running with the stored catalogue.
func importWikiOnStart(ctx context.Context, store storage.Store, cfg TonerWikiConfig) {
	policy, err := model.ParseConversionPolicy(cfg.Policy)
	if err != nil {
		logWarn("Toner wiki import skipped", "error", err)
		return
	}
	fetchCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	dump, err := tonerwiki.Fetch(fetchCtx, cfg.URL)
	if err != nil {
		logWarn("Toner wiki fetch failed", "url", cfg.URL, "error", err)
		return
	}
	report, err := tonerwiki.NewImporter(store, componentLogger{component: "tonerwiki"}).Import(ctx, dump, policy)
	if err != nil {
		logWarn("Toner wiki import failed", "url", cfg.URL, "error", err)
		return
	}
	logInfo("Toner wiki imported", "url", cfg.URL, "imported", report.Imported, "rejected", len(report.Rejected))
}
