package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache"
	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache/factory"
)

func TestMemoryStore(t *testing.T) {
	s, err := New(nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, s.PutIfAbsent(ctx, "k", []byte("first")))
	require.NoError(t, s.PutIfAbsent(ctx, "k", []byte("second")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got, "first writer wins")
}

func TestMemoryStore_TTL(t *testing.T) {
	now := time.Date(2023, 9, 3, 15, 0, 0, 0, time.UTC)
	s, err := New(
		[]cache.Option{cache.WithTTL(time.Minute)},
		[]Option{withClock(func() time.Time { return now })})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.PutIfAbsent(ctx, "k", []byte("first")))
	now = now.Add(30 * time.Second)
	_, err = s.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, s.PutIfAbsent(ctx, "k", []byte("second")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestFactory(t *testing.T) {
	s, err := factory.New[cache.Store, Option](StoreTypeMemory, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = factory.New[cache.Store, Option]("unknown", nil, nil)
	assert.ErrorIs(t, err, factory.ErrTypeNotSupported)
	assert.True(t, factory.Supported(StoreTypeMemory))
}
