// Package probe reads identity, page count and supply levels from a network
// printer over SNMP using the Printer MIB.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/gosnmp/gosnmp"

	"github.com/an1noX/techpinoyv3-sub002/common/snmp/oids"
	"github.com/an1noX/techpinoyv3-sub002/common/supplies"
)

// ErrInvalidTarget is returned for anything that is not an IP address.
var ErrInvalidTarget = errors.New("invalid probe target")

// Result is what a single probe learned about a device.
type Result struct {
	IP        string   `json:"ip"`
	SysDescr  string   `json:"sys_descr,omitempty"`
	SysName   string   `json:"sys_name,omitempty"`
	Serial    string   `json:"serial,omitempty"`
	PageCount int64    `json:"page_count,omitempty"`
	Supplies  []Supply `json:"supplies,omitempty"`
}

// Supply is one row of the marker supplies table.
type Supply struct {
	Index       string `json:"index"`
	Description string `json:"description"`
	Key         string `json:"key,omitempty"` // canonical supplies key, "" when unclassified
	Level       int64  `json:"level"`
	MaxCapacity int64  `json:"max_capacity"`
	// LevelPercent is -1 when the device does not report a measurable level.
	LevelPercent int `json:"level_percent"`
}

// Logger is the logging surface the prober needs.
type Logger interface {
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// Prober runs SNMP probes with a fixed configuration.
type Prober struct {
	cfg       Config
	newClient ClientFactory
	log       Logger
}

// Option customises a Prober.
type Option func(*Prober)

// WithClientFactory swaps the SNMP client constructor, typically for tests.
func WithClientFactory(f ClientFactory) Option {
	return func(p *Prober) { p.newClient = f }
}

// WithLogger sets the prober's logger.
func WithLogger(l Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.log = l
		}
	}
}

// New creates a Prober.
func New(cfg Config, opts ...Option) *Prober {
	p := &Prober{cfg: cfg, newClient: NewGoSNMPClient, log: nopLogger{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe queries the device at ip. Supply table failures are logged and
// leave Supplies empty; identity failures are returned.
func (p *Prober) Probe(ctx context.Context, ip string) (*Result, error) {
	if net.ParseIP(ip) == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, ip)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := p.newClient(ctx, p.cfg, ip)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	pkt, err := client.Get(oids.Identity())
	if err != nil {
		return nil, fmt.Errorf("snmp get %s: %w", ip, err)
	}

	res := &Result{IP: ip}
	for _, pdu := range pkt.Variables {
		switch trimOID(pdu.Name) {
		case oids.SysDescr:
			res.SysDescr = pduString(pdu)
		case oids.SysName:
			res.SysName = pduString(pdu)
		case oids.PrtGeneralSerialNumber:
			res.Serial = pduString(pdu)
		case oids.PrtMarkerLifeCount:
			if n, ok := pduInt(pdu); ok {
				res.PageCount = n
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sup, err := p.supplies(client)
	if err != nil {
		p.log.Warn("Supply walk failed", "ip", ip, "error", err)
	} else {
		res.Supplies = sup
	}

	p.log.Debug("Probed printer", "ip", ip, "serial", res.Serial, "supplies", len(res.Supplies))
	return res, nil
}

func (p *Prober) supplies(client Client) ([]Supply, error) {
	var (
		rows  []*Supply
		byIdx = map[string]*Supply{}
	)
	err := client.Walk(oids.PrtMarkerSuppliesDesc, func(pdu gosnmp.SnmpPDU) error {
		idx := rowIndex(oids.PrtMarkerSuppliesDesc, pdu.Name)
		if idx == "" {
			return nil
		}
		desc := pduString(pdu)
		s := &Supply{
			Index:        idx,
			Description:  desc,
			Key:          supplies.NormalizeDescription(desc),
			LevelPercent: -1,
		}
		rows = append(rows, s)
		byIdx[idx] = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk supply descriptions: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	column := func(root string, set func(*Supply, int64)) error {
		return client.Walk(root, func(pdu gosnmp.SnmpPDU) error {
			s, ok := byIdx[rowIndex(root, pdu.Name)]
			if !ok {
				return nil
			}
			if n, ok := pduInt(pdu); ok {
				set(s, n)
			}
			return nil
		})
	}
	if err := column(oids.PrtMarkerSuppliesMaxCap, func(s *Supply, n int64) { s.MaxCapacity = n }); err != nil {
		return nil, fmt.Errorf("walk supply capacity: %w", err)
	}
	if err := column(oids.PrtMarkerSuppliesLevel, func(s *Supply, n int64) { s.Level = n }); err != nil {
		return nil, fmt.Errorf("walk supply level: %w", err)
	}

	out := make([]Supply, len(rows))
	for i, s := range rows {
		s.LevelPercent = levelPercent(s.Level, s.MaxCapacity)
		out[i] = *s
	}
	return out, nil
}

// levelPercent converts a raw level. Negative levels are the MIB's "other"
// (-1), "unknown" (-2) and "some remaining" (-3) markers.
func levelPercent(level, max int64) int {
	if level < 0 || max <= 0 {
		return -1
	}
	if level >= max {
		return 100
	}
	return int(level * 100 / max)
}

func trimOID(name string) string {
	return strings.TrimPrefix(name, ".")
}

// rowIndex returns the instance suffix of name below root, or "".
func rowIndex(root, name string) string {
	name = trimOID(name)
	if !strings.HasPrefix(name, root+".") {
		return ""
	}
	return strings.TrimPrefix(name, root+".")
}

func pduString(pdu gosnmp.SnmpPDU) string {
	switch v := pdu.Value.(type) {
	case []byte:
		return strings.TrimSpace(strings.TrimRight(string(v), "\x00"))
	case string:
		return strings.TrimSpace(v)
	default:
		return ""
	}
}

func pduInt(pdu gosnmp.SnmpPDU) (int64, bool) {
	switch pdu.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return 0, false
	}
	switch pdu.Value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return gosnmp.ToBigInt(pdu.Value).Int64(), true
	default:
		return 0, false
	}
}
