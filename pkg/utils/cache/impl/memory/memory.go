package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mpapenbr/raceanalysis-service/log"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache/factory"
)

var StoreTypeMemory factory.StoreType = "memory"

type (
	Option func(*memoryStore)
	item   struct {
		data    []byte
		expires *time.Time
	}
	memoryStore struct {
		cfg   *cache.Config
		mutex sync.Mutex
		items map[string]item
		log   *log.Logger
		now   func() time.Time
	}
)

// withClock is used by tests
func withClock(now func() time.Time) Option {
	return func(s *memoryStore) {
		s.now = now
	}
}

func New(common []cache.Option, specific []Option) (cache.Store, error) {
	ret := &memoryStore{
		cfg:   cache.NewConfig(common...),
		items: make(map[string]item),
		log:   log.Default().Named("cache.memory"),
		now:   time.Now,
	}
	for _, o := range specific {
		o(ret)
	}
	return ret, nil
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if e, ok := s.lookup(key); ok {
		return e.data, nil
	}
	return nil, cache.ErrCacheMiss
}

func (s *memoryStore) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.lookup(key); ok {
		s.log.Debug("entry exists, skipping", log.String("key", key))
		return nil
	}
	e := item{data: value}
	if s.cfg.TTL > 0 {
		expires := s.now().Add(s.cfg.TTL)
		e.expires = &expires
	}
	s.items[key] = e
	return nil
}

// must be called with mutex held
func (s *memoryStore) lookup(key string) (item, bool) {
	e, ok := s.items[key]
	if !ok {
		return item{}, false
	}
	if e.expires != nil && !e.expires.After(s.now()) {
		delete(s.items, key)
		return item{}, false
	}
	return e, true
}

func init() {
	factory.Register(StoreTypeMemory, New)
}
