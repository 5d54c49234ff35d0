// Package handlers provides the HTTP API of the fleet server. Every API type
// takes its collaborators through an options struct so tests can swap them.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/an1noX/techpinoyv3-sub002/common/logger"
	"github.com/an1noX/techpinoyv3-sub002/server/discovery"
	"github.com/an1noX/techpinoyv3-sub002/server/probe"
)

// APIOptions provides cross-cutting infrastructure for the HTTP layer.
type APIOptions struct {
	// AuthMiddleware wraps handlers requiring authentication
	AuthMiddleware func(http.HandlerFunc) http.HandlerFunc

	// ActorResolver returns who performed a request; used as the default
	// performed_by on history entries.
	ActorResolver func(*http.Request) string

	// Events receives one event per successful mutation.
	Events Publisher

	// Prober reads a printer over SNMP. Nil disables the probe endpoint.
	Prober Prober

	// Discoverer browses the LAN for printers. Nil disables discovery.
	Discoverer Discoverer

	// AllowedOrigins restricts websocket upgrades; empty allows any.
	AllowedOrigins []string

	// Logs exposes recent log entries on /api/v1/logs. Nil disables it.
	Logs LogBuffer

	Logger Logger
}

// Publisher fans events out to websocket subscribers.
type Publisher interface {
	Publish(typ string, data map[string]interface{})
}

// Prober reads identity and supplies from a printer.
type Prober interface {
	Probe(ctx context.Context, ip string) (*probe.Result, error)
}

// Discoverer browses the network for printer candidates.
type Discoverer interface {
	Browse(ctx context.Context, timeout time.Duration) ([]discovery.Candidate, error)
}

// Logger provides logging capabilities.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// LogBuffer reads the server's in-memory log ring.
type LogBuffer interface {
	GetBuffer() []logger.LogEntry
	GetBufferFiltered(minLevel logger.LogLevel) []logger.LogEntry
}

// rateLimitedWarner is implemented by loggers that can suppress repeats.
type rateLimitedWarner interface {
	WarnRateLimited(key string, interval time.Duration, msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type nopPublisher struct{}

func (nopPublisher) Publish(string, map[string]interface{}) {}
