package repository

import (
	"context"
	"fmt"
	"strings"
)

// Supported store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverMemory = "memory"
)

// Open returns the store implementation selected by driver. path is
// ignored by the memory driver.
func Open(ctx context.Context, driver, path string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "":
		return NewSQLiteStore(ctx, path, opts...)
	case DriverBolt:
		return NewBoltStore(path, opts...)
	case DriverMemory:
		return NewMemoryStore(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*BoltStore)(nil)
)
