package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/raceanalysis-service/log"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache/factory"
)

const DefaultBucket = "analysis_results"

var StoreTypeNats factory.StoreType = "nats"

type (
	Option          func(*natsStoreConfig)
	natsStoreConfig struct {
		nc     *nats.Conn
		bucket string
	}
	natsStore struct {
		cfg    *cache.Config
		ownCfg *natsStoreConfig
		log    *log.Logger
		kv     jetstream.KeyValue
	}
)

func WithNATS(nc *nats.Conn) Option {
	return func(c *natsStoreConfig) {
		c.nc = nc
	}
}

func WithBucket(name string) Option {
	return func(c *natsStoreConfig) {
		c.bucket = name
	}
}

func New(common []cache.Option, specific []Option) (cache.Store, error) {
	ownCfg := &natsStoreConfig{bucket: DefaultBucket}
	for _, o := range specific {
		o(ownCfg)
	}
	ret := &natsStore{
		cfg:    cache.NewConfig(common...),
		ownCfg: ownCfg,
		log:    log.Default().Named("cache.nats"),
	}
	ret.log.Debug("Initializing NATS KV store for analysis results",
		log.String("bucket", ownCfg.bucket))
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *natsStore) init() error {
	if s.ownCfg.nc == nil {
		return errors.New("nats connection required")
	}
	js, err := jetstream.New(s.ownCfg.nc)
	if err != nil {
		return err
	}
	s.kv, err = js.CreateOrUpdateKeyValue(context.Background(), jetstream.KeyValueConfig{
		Bucket: s.ownCfg.bucket,
		TTL:    s.cfg.TTL,
	})
	return err
}

// keys may contain characters not allowed in KV keys
func kvKey(key string) string {
	return utils.HashKey(key)
}

func (s *natsStore) Get(ctx context.Context, key string) ([]byte, error) {
	kve, err := s.kv.Get(ctx, kvKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, cache.ErrCacheMiss
		}
		return nil, err
	}
	return kve.Value(), nil
}

func (s *natsStore) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	_, err := s.kv.Create(ctx, kvKey(key), value)
	if errors.Is(err, jetstream.ErrKeyExists) {
		s.log.Debug("entry exists, skipping", log.String("key", key))
		return nil
	}
	return err
}

func init() {
	factory.Register(StoreTypeNats, New)
}
