package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/raceanalysis-service/log"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache/factory"
)

var StoreTypePostgres factory.StoreType = "postgres"

type (
	Option        func(*pgStoreConfig)
	pgStoreConfig struct {
		pool *pgxpool.Pool
	}
	pgStore struct {
		cfg    *cache.Config
		ownCfg *pgStoreConfig
		log    *log.Logger
	}
)

func WithPool(pool *pgxpool.Pool) Option {
	return func(c *pgStoreConfig) {
		c.pool = pool
	}
}

// New requires the analysis_cache table (see pkg/db/migrate).
func New(common []cache.Option, specific []Option) (cache.Store, error) {
	ownCfg := &pgStoreConfig{}
	for _, o := range specific {
		o(ownCfg)
	}
	if ownCfg.pool == nil {
		return nil, errors.New("postgres pool required")
	}
	return &pgStore{
		cfg:    cache.NewConfig(common...),
		ownCfg: ownCfg,
		log:    log.Default().Named("cache.postgres"),
	}, nil
}

func (s *pgStore) Get(ctx context.Context, key string) ([]byte, error) {
	row := s.ownCfg.pool.QueryRow(ctx, `
select data from analysis_cache
where key=$1 and (expires_at is null or expires_at > now())`, key)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cache.ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

// expired entries may be replaced, valid ones are kept
func (s *pgStore) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	var expires *time.Time
	if s.cfg.TTL > 0 {
		t := time.Now().Add(s.cfg.TTL)
		expires = &t
	}
	tag, err := s.ownCfg.pool.Exec(ctx, `
insert into analysis_cache (key, data, expires_at) values ($1, $2, $3)
on conflict (key) do update set data=excluded.data, expires_at=excluded.expires_at
where analysis_cache.expires_at is not null and analysis_cache.expires_at <= now()`,
		key, value, expires)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		s.log.Debug("entry exists, skipping", log.String("key", key))
	}
	return nil
}

func init() {
	factory.Register(StoreTypePostgres, New)
}
