package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

// Config holds SNMP connection parameters.
type Config struct {
	Community string
	Version   string // "1" or "2c"
	Port      uint16
	Timeout   time.Duration
	Retries   int
}

// DefaultConfig returns community "public", SNMP v2c on port 161.
func DefaultConfig() Config {
	return Config{
		Community: "public",
		Version:   "2c",
		Port:      161,
		Timeout:   3 * time.Second,
		Retries:   1,
	}
}

// ParseVersion maps a configured version string onto gosnmp's enum.
func ParseVersion(raw string) (gosnmp.SnmpVersion, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "v1":
		return gosnmp.Version1, nil
	case "", "2c", "v2c":
		return gosnmp.Version2c, nil
	default:
		return 0, fmt.Errorf("unsupported SNMP version: %s", raw)
	}
}

// Client defines the SNMP operations a probe needs.
type Client interface {
	Connect() error
	Get(oids []string) (*gosnmp.SnmpPacket, error)
	Walk(rootOid string, walkFn gosnmp.WalkFunc) error
	Close() error
}

// ClientFactory builds a Client for one target.
type ClientFactory func(ctx context.Context, cfg Config, target string) (Client, error)

type gosnmpClient struct {
	conn *gosnmp.GoSNMP
}

func (c *gosnmpClient) Connect() error { return c.conn.Connect() }

func (c *gosnmpClient) Get(oids []string) (*gosnmp.SnmpPacket, error) { return c.conn.Get(oids) }

func (c *gosnmpClient) Walk(rootOid string, walkFn gosnmp.WalkFunc) error {
	if c.conn.Version == gosnmp.Version1 {
		return c.conn.Walk(rootOid, walkFn)
	}
	return c.conn.BulkWalk(rootOid, walkFn)
}

func (c *gosnmpClient) Close() error {
	if c.conn.Conn == nil {
		return nil
	}
	return c.conn.Conn.Close()
}

// NewGoSNMPClient is the default ClientFactory. The returned client is
// already connected.
func NewGoSNMPClient(ctx context.Context, cfg Config, target string) (Client, error) {
	if target == "" {
		return nil, fmt.Errorf("target IP required")
	}
	version, err := ParseVersion(cfg.Version)
	if err != nil {
		return nil, err
	}

	port := cfg.Port
	if port == 0 {
		port = 161
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	community := cfg.Community
	if community == "" {
		community = "public"
	}

	client := &gosnmpClient{conn: &gosnmp.GoSNMP{
		Context:   ctx,
		Target:    target,
		Port:      port,
		Community: community,
		Version:   version,
		Timeout:   timeout,
		Retries:   cfg.Retries,
	}}
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	return client, nil
}
