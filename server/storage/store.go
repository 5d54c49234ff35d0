package storage

import (
	"fmt"

	"github.com/an1noX/techpinoyv3-sub002/common/config"
)

// DefaultSQLitePath is used when the SQLite backend has no configured path.
const DefaultSQLitePath = "printfleet.db"

// NewStore creates a Store for the configured backend: SQLite (default) or
// PostgreSQL.
//
// For SQLite: uses DSN or Path, defaulting to "printfleet.db".
// For PostgreSQL: uses DSN or builds one from Host, Port, User, Password, Name.
func NewStore(cfg *config.DatabaseConfig) (Store, error) {
	if cfg == nil {
		cfg = &config.DatabaseConfig{}
	}

	switch driver := cfg.EffectiveDriver(); driver {
	case "sqlite":
		path := cfg.BuildDSN()
		if path == "" {
			path = DefaultSQLitePath
		}
		return NewSQLiteStore(path)
	case "postgres":
		return NewPostgresStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q (supported: sqlite, postgres)", driver)
	}
}
