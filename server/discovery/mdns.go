// Package discovery finds network printers advertised over mDNS/DNS-SD.
package discovery

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

// ServiceTypes are the DNS-SD service types printers commonly advertise.
var ServiceTypes = []string{"_ipp._tcp", "_ipps._tcp", "_printer._tcp"}

// DefaultTimeout bounds a browse when the caller gives none.
const DefaultTimeout = 5 * time.Second

// Candidate is a printer seen on the network but not yet registered.
type Candidate struct {
	Instance string `json:"instance"`
	Host     string `json:"host,omitempty"`
	IPv4     string `json:"ipv4,omitempty"`
	Port     int    `json:"port"`
	Service  string `json:"service"`
}

// Resolver browses one service type. zeroconf's resolver satisfies it; it
// must close entries when ctx is done.
type Resolver interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// Logger is the logging surface the browser needs.
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}

// Browser runs bounded mDNS browses.
type Browser struct {
	newResolver func() (Resolver, error)
	log         Logger
}

// NewBrowser returns a Browser backed by zeroconf. A nil logger is allowed.
func NewBrowser(log Logger) *Browser {
	if log == nil {
		log = nopLogger{}
	}
	return &Browser{
		newResolver: func() (Resolver, error) { return zeroconf.NewResolver(nil) },
		log:         log,
	}
}

// Browse listens on every printer service type until timeout (or ctx)
// expires and returns the candidates seen, one per address, sorted by IPv4
// then instance name.
func (b *Browser) Browse(ctx context.Context, timeout time.Duration) ([]Candidate, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu    sync.Mutex
		seen  = map[string]Candidate{}
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)

	for _, st := range ServiceTypes {
		wg.Add(1)
		go func(st string) {
			defer wg.Done()
			resolver, err := b.newResolver()
			if err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
				return
			}
			entries := make(chan *zeroconf.ServiceEntry)
			if err := resolver.Browse(ctx, st, "local.", entries); err != nil {
				b.log.Warn("mDNS browse error", "service", st, "error", err)
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
				return
			}
			for {
				select {
				case <-ctx.Done():
					return
				case e, ok := <-entries:
					if !ok {
						return
					}
					for _, c := range candidatesFrom(e, st) {
						key := dedupKey(c)
						mu.Lock()
						if _, dup := seen[key]; !dup {
							seen[key] = c
						}
						mu.Unlock()
					}
				}
			}
		}(st)
	}
	wg.Wait()

	out := make([]Candidate, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IPv4 != out[j].IPv4 {
			return out[i].IPv4 < out[j].IPv4
		}
		return out[i].Instance < out[j].Instance
	})

	// Only fail when nothing could be browsed at all.
	if len(out) == 0 && len(errs) == len(ServiceTypes) {
		return nil, errs[0]
	}
	b.log.Info("mDNS browse finished", "candidates", len(out))
	return out, nil
}

func candidatesFrom(e *zeroconf.ServiceEntry, service string) []Candidate {
	if e == nil {
		return nil
	}
	base := Candidate{
		Instance: e.Instance,
		Host:     strings.TrimSuffix(e.HostName, "."),
		Port:     e.Port,
		Service:  service,
	}
	if len(e.AddrIPv4) == 0 {
		return []Candidate{base}
	}
	out := make([]Candidate, 0, len(e.AddrIPv4))
	for _, ip := range e.AddrIPv4 {
		c := base
		c.IPv4 = ip.String()
		out = append(out, c)
	}
	return out
}

// A printer usually advertises ipp and ipps for the same address; the
// first service seen wins.
func dedupKey(c Candidate) string {
	if c.IPv4 != "" {
		return c.IPv4
	}
	return strings.ToLower(c.Host + "|" + c.Instance)
}
