// Package storage opens the record store and read cache a process is configured for.
package storage

import (
	"context"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/records"
	"github.com/trezcool/alama/storage/cache/rediscache"
	"github.com/trezcool/alama/storage/database"
	"github.com/trezcool/alama/storage/database/inmem"
	"github.com/trezcool/alama/storage/database/sqlxstore"
)

// Engines and backends that live in process memory only.
const (
	MemoryEngine  = "memory"
	MemoryBackend = "memory"
	RedisBackend  = "redis"
)

var (
	ErrNotPersistent  = errors.New("database engine keeps records in process memory")
	ErrUnknownBackend = errors.New("unknown cache backend")
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenDB creates (if needed) and opens the configured SQL database, without migrating it.
func OpenDB(conf *core.Config) (*sqlx.DB, error) {
	if conf.Database.Engine == MemoryEngine {
		return nil, errors.Wrapf(ErrNotPersistent, "engine %q", conf.Database.Engine)
	}
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	return database.Open(conf)
}

// OpenStore returns the migrated record store and what closes it.
func OpenStore(conf *core.Config) (records.Store, io.Closer, error) {
	if conf.Database.Engine == MemoryEngine {
		return inmemdb.NewStore(inmemdb.Open()), nopCloser{}, nil
	}

	db, err := OpenDB(conf)
	if err != nil {
		return nil, nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return sqlxstore.NewStore(db), db, nil
}

// OpenCache returns the configured read cache and what closes it.
func OpenCache(ctx context.Context, conf *core.Config) (records.Cache, io.Closer, error) {
	switch conf.Cache.Backend {
	case "", MemoryBackend:
		return records.NewMemoryCache(conf.Cache.TTL), nopCloser{}, nil
	case RedisBackend:
		c, err := rediscache.Open(ctx, conf.Cache)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	default:
		return nil, nil, errors.Wrapf(ErrUnknownBackend, "%q", conf.Cache.Backend)
	}
}

// SharedCache reports whether the configured cache is seen by every process using the database.
func SharedCache(conf *core.Config) bool {
	return conf.Cache.Backend == RedisBackend
}
