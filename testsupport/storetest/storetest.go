// Package storetest verifies the behavior shared by all result stores.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/raceanalysis-service/pkg/utils/cache"
)

func Run(t *testing.T, s cache.Store) {
	t.Helper()
	ctx := context.Background()
	// keys must be unique for reused containers
	key := fmt.Sprintf("2023/Monza/R/track-dominance/VER,HAM/distance:20/%d", time.Now().UnixNano())

	t.Run("miss", func(t *testing.T) {
		_, err := s.Get(ctx, key+"/missing")
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})
	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, s.PutIfAbsent(ctx, key, []byte(`{"a":1}`)))
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":1}`), got)
	})
	t.Run("first writer wins", func(t *testing.T) {
		require.NoError(t, s.PutIfAbsent(ctx, key, []byte(`{"a":2}`)))
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":1}`), got)
	})
}
