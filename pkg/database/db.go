package database

import (
	"errors"
	"fmt"
	"net"

	"github.com/darsplatform/darsacademy-backend/pkg/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Options carries everything needed to open a connection. An explicit struct
// instead of ambient env lookups so the caller decides which DSN wins.
type Options struct {
	// URL is the direct connection string.
	URL string
	// PooledURL, when set, is preferred over URL (e.g. PgBouncer in front of
	// the database).
	PooledURL string
}

func (o Options) dsn() string {
	if o.PooledURL != "" {
		return o.PooledURL
	}
	return o.URL
}

// Connect opens a GORM Postgres connection. TranslateError is enabled so
// repositories see gorm.ErrDuplicatedKey instead of driver-specific errors.
func Connect(opts Options) (*gorm.DB, error) {
	dsn := opts.dsn()
	if dsn == "" {
		return nil, fmt.Errorf("database: no connection string configured")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database: failed to connect: %w", err)
	}

	return db, nil
}

// undefinedTable is the Postgres error code raised when the schema has not
// been migrated yet.
const undefinedTable = "42P01"

// MapError converts storage-layer errors into the application's typed error
// set so callers never have to match on message substrings.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.ErrConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return apperror.ErrStoreUnavailable
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return apperror.ErrStoreUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperror.ErrStoreUnavailable
	}

	return err
}
