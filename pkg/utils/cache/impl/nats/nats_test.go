package nats

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/raceanalysis-service/testsupport/storetest"
	"github.com/mpapenbr/raceanalysis-service/testsupport/tckv"
)

func TestNatsStore(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	url, err := tckv.SetupNats(context.Background())
	require.NoError(t, err)
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	s, err := New(nil, []Option{WithNATS(nc), WithBucket("test_results")})
	require.NoError(t, err)
	storetest.Run(t, s)
}

func TestNew_RequiresConnection(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}
