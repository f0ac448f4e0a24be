package storage

import (
	"context"
	"testing"
	"time"

	"appointment-watcher/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr(), "", 0)
	s.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	require.NoError(t, s.Ping(ctx))

	state, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, state.Empty())

	a, _ := types.ParseAppointment("10 Mayo 09:00", "Oficina Norte", fixedNow)
	require.NoError(t, s.Save(ctx, types.MonitorState{Earliest: &a}))

	raw, err := mr.Get(DefaultRedisKey)
	require.NoError(t, err)
	require.JSONEq(t, `{"earliest":{"appointment":"10 Mayo 09:00","office":"Oficina Norte"}}`, raw)
	require.False(t, mr.Exists(DefaultRedisKey) && mr.TTL(DefaultRedisKey) > 0)

	state, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, a, *state.Earliest)

	require.NoError(t, s.Save(ctx, types.MonitorState{}))
	state, err = s.Load(ctx)
	require.NoError(t, err)
	require.True(t, state.Empty())
}

func TestRedisStoreUnavailable(t *testing.T) {
	s, mr := newTestRedisStore(t)
	mr.Close()

	_, err := s.Load(context.Background())
	require.Error(t, err)
}
