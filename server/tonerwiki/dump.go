// Package tonerwiki loads toner wiki dumps and imports them into the toner
// registry.
package tonerwiki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
)

// SupportedSchema is the range of dump schema versions this importer reads.
const SupportedSchema = ">= 1.0.0, < 2.0.0"

// LegacySchemaVersion is assumed for dumps that carry no schema_version
// (bare record lists exported before versioning).
const LegacySchemaVersion = "1.0.0"

// MaxDumpSize caps how much of a dump is read.
const MaxDumpSize = 32 << 20

var (
	// ErrUnsupportedSchema is returned for dumps outside SupportedSchema.
	ErrUnsupportedSchema = errors.New("unsupported toner wiki schema version")
	// ErrUnknownFormat is returned when a dump is neither JSON nor YAML.
	ErrUnknownFormat = errors.New("unknown toner wiki dump format")
)

var supportedConstraint = func() *semver.Constraints {
	c, err := semver.NewConstraint(SupportedSchema)
	if err != nil {
		panic(err)
	}
	return c
}()

// Format is a dump encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Dump is one export of the toner wiki.
type Dump struct {
	SchemaVersion string            `json:"schema_version" yaml:"schema_version"`
	Source        string            `json:"source,omitempty" yaml:"source,omitempty"`
	Toners        []model.WikiToner `json:"toners" yaml:"toners"`
}

// CheckSchema verifies the dump's schema version against SupportedSchema.
func (d *Dump) CheckSchema() error {
	raw := strings.TrimSpace(d.SchemaVersion)
	if raw == "" {
		raw = LegacySchemaVersion
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedSchema, d.SchemaVersion, err)
	}
	if !supportedConstraint.Check(v) {
		return fmt.Errorf("%w: %s (supported %s)", ErrUnsupportedSchema, v, SupportedSchema)
	}
	return nil
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// ParseFormat reads "json" or "yaml"/"yml".
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// LoadFile reads a dump from disk; the extension decides the format.
func LoadFile(path string) (*Dump, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()
	return Decode(f, format)
}

// Decode reads a dump in the given format. A top-level list of records is
// accepted as a legacy dump.
func Decode(r io.Reader, format Format) (*Dump, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDumpSize+1))
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}
	if len(data) > MaxDumpSize {
		return nil, fmt.Errorf("dump exceeds %d bytes", MaxDumpSize)
	}

	var d Dump
	switch format {
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &d.Toners); err != nil {
				return nil, fmt.Errorf("decode json dump: %w", err)
			}
			break
		}
		if err := json.Unmarshal(trimmed, &d); err != nil {
			return nil, fmt.Errorf("decode json dump: %w", err)
		}
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("decode yaml dump: %w", err)
		}
		target := any(&d)
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			target = &d.Toners
		}
		if len(node.Content) > 0 {
			if err := node.Content[0].Decode(target); err != nil {
				return nil, fmt.Errorf("decode yaml dump: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if d.Toners == nil {
		d.Toners = []model.WikiToner{}
	}
	return &d, nil
}

// Fetch downloads a dump over HTTP(S). The format comes from the response
// Content-Type, then the URL path, then defaults to JSON.
func Fetch(ctx context.Context, url string) (*Dump, error) {
	return FetchWith(ctx, &http.Client{Timeout: 60 * time.Second}, url)
}

// FetchWith is Fetch with a caller-supplied HTTP client.
func FetchWith(ctx context.Context, client *http.Client, url string) (*Dump, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dump: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch dump: unexpected status %s", resp.Status)
	}

	format := FormatJSON
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && strings.Contains(mt, "yaml") {
		format = FormatYAML
	} else if f, err := FormatFromPath(req.URL.Path); err == nil {
		format = f
	}
	return Decode(resp.Body, format)
}
