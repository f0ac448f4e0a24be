package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"appointment-watcher/types"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s := newTestFileStore(t)

	state, err := s.Load(context.Background())
	require.NoError(t, err)
	require.True(t, state.Empty())
}

func TestFileStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)

	a, err := types.ParseAppointment("07 Abril 08:46", "X", fixedNow)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, types.MonitorState{Earliest: &a}))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.JSONEq(t, `{"earliest":{"appointment":"07 Abril 08:46","office":"X"}}`, string(raw))

	state, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, state.Earliest)
	require.Equal(t, a, *state.Earliest)
}

func TestFileStoreClearReplacesFile(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)

	a, _ := types.ParseAppointment("07 Abril 08:46", "X", fixedNow)
	require.NoError(t, s.Save(ctx, types.MonitorState{Earliest: &a}))
	require.NoError(t, s.Save(ctx, types.MonitorState{}))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(raw))

	state, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, state.Empty())

	// временные файлы не остаются
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestFileStoreCorruptFile(t *testing.T) {
	s := newTestFileStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	_, err := s.Load(context.Background())
	require.Error(t, err)
}

func TestFileStoreBadLabel(t *testing.T) {
	s := newTestFileStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"earliest":{"appointment":"31 Abril 08:46","office":"X"}}`), 0o644))

	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, types.ErrInvalidLabel)
}
