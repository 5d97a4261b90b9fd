package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/mpapenbr/raceanalysis-service/log"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache/factory"
)

const DefaultPrefix = "ras:"

var StoreTypeRedis factory.StoreType = "redis"

type (
	Option           func(*redisStoreConfig)
	redisStoreConfig struct {
		client *redis.Client
		prefix string
	}
	redisStore struct {
		cfg    *cache.Config
		ownCfg *redisStoreConfig
		log    *log.Logger
	}
)

func WithClient(client *redis.Client) Option {
	return func(c *redisStoreConfig) {
		c.client = client
	}
}

func WithPrefix(prefix string) Option {
	return func(c *redisStoreConfig) {
		c.prefix = prefix
	}
}

func New(common []cache.Option, specific []Option) (cache.Store, error) {
	ownCfg := &redisStoreConfig{prefix: DefaultPrefix}
	for _, o := range specific {
		o(ownCfg)
	}
	if ownCfg.client == nil {
		return nil, errors.New("redis client required")
	}
	return &redisStore{
		cfg:    cache.NewConfig(common...),
		ownCfg: ownCfg,
		log:    log.Default().Named("cache.redis"),
	}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.ownCfg.client.Get(ctx, s.ownCfg.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

func (s *redisStore) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	set, err := s.ownCfg.client.SetNX(ctx, s.ownCfg.prefix+key, value, s.cfg.TTL).Result()
	if err != nil {
		return err
	}
	if !set {
		s.log.Debug("entry exists, skipping", log.String("key", key))
	}
	return nil
}

func init() {
	factory.Register(StoreTypeRedis, New)
}
