package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// IsolationLevel selects the transaction isolation used for mutations.
type IsolationLevel string

const (
	// IsolationReadCommitted relies on the episode row lock and the range
	// update's own row locks. Default.
	IsolationReadCommitted IsolationLevel = "read_committed"
	// IsolationSerializable makes conflicting writers fail; see IsRetryable.
	IsolationSerializable IsolationLevel = "serializable"
)

// Config describes how to open a Connection.
type Config struct {
	// Driver is the backend; empty or "auto" detects it from URL.
	Driver Driver
	// URL is the PostgreSQL connection string.
	URL string
	// SQLitePath is a file path or ":memory:". Empty means DefaultSQLitePath.
	SQLitePath string
	// MaxConns caps the PostgreSQL pool.
	MaxConns int
	// Isolation applies to PostgreSQL transactions.
	Isolation IsolationLevel
	// BusyTimeout is how long SQLite waits on a locked database file.
	BusyTimeout time.Duration
}

// Opener opens a Connection for one driver.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var (
	openersMu sync.RWMutex
	openers   = map[Driver]Opener{}
)

// Register makes a driver available to NewConnection. The postgres and sqlite
// subpackages register themselves from init, so a blank import enables them.
func Register(driver Driver, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[driver] = open
}

// NewConnection opens a connection with the driver cfg selects.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" || driver == "auto" {
		driver = DetectDriver(cfg.URL)
	}
	if !driver.IsValid() {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	openersMu.RLock()
	open, ok := openers[driver]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s driver not registered", driver)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath is ~/.episodes/data.db, or ./.episodes/data.db when the
// home directory cannot be determined.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".episodes", "data.db")
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
