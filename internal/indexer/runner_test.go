package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conditionScope/internal/model"
)

type fakeSyncer struct {
	result model.SyncResult
	err    error
	opts   []SyncOptions
}

func (f *fakeSyncer) Sync(_ context.Context, opts SyncOptions) (model.SyncResult, error) {
	f.opts = append(f.opts, opts)
	return f.result, f.err
}

type memoryStorage struct {
	conditions []model.Condition
	err        error
}

func (m *memoryStorage) PutConditions(_ context.Context, conditions []model.Condition) error {
	if m.err != nil {
		return m.err
	}
	m.conditions = append(m.conditions, conditions...)
	return nil
}

func blockPtr(v uint64) *uint64 { return &v }

func TestRunnerResumesFromCursor(t *testing.T) {
	ctx := context.Background()
	cursor := NewFileCursorStore(filepath.Join(t.TempDir(), "cp", "checkpoint.json"), true)
	require.NoError(t, cursor.Save(ctx, 150))

	syncer := &fakeSyncer{result: model.SyncResult{
		Conditions:  []model.Condition{{ID: 1}, {ID: 2}},
		LatestBlock: blockPtr(420),
	}}
	sink := &memoryStorage{}

	runner := NewRunner(RunConfig{From: blockPtr(100), RangeWidth: 50, Filters: Filters{Resolved: false, Canceled: true}}, syncer, sink, cursor, nil)
	_, err := runner.RunOnce(ctx)
	require.NoError(t, err)

	require.Len(t, syncer.opts, 1)
	require.NotNil(t, syncer.opts[0].From)
	assert.Equal(t, uint64(151), *syncer.opts[0].From)
	assert.Equal(t, int64(50), syncer.opts[0].RangeWidth)
	assert.Equal(t, Filters{Resolved: false, Canceled: true}, *syncer.opts[0].Filters)
	assert.Len(t, sink.conditions, 2)

	saved, ok, err := cursor.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(420), saved)
}

func TestRunnerConfiguredFromWinsOverOlderCursor(t *testing.T) {
	ctx := context.Background()
	cursor := NewFileCursorStore(filepath.Join(t.TempDir(), "checkpoint.json"), true)
	require.NoError(t, cursor.Save(ctx, 50))

	syncer := &fakeSyncer{}
	runner := NewRunner(RunConfig{From: blockPtr(100)}, syncer, &memoryStorage{}, cursor, nil)
	_, err := runner.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(100), *syncer.opts[0].From)

	saved, _, err := cursor.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), saved, "cursor must not move without events")
}

func TestRunnerUnrangedWithoutCursor(t *testing.T) {
	syncer := &fakeSyncer{}
	runner := NewRunner(RunConfig{}, syncer, &memoryStorage{}, nil, nil)
	_, err := runner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Nil(t, syncer.opts[0].From)
}

func TestRunnerStorageErrorKeepsCursor(t *testing.T) {
	ctx := context.Background()
	cursor := NewFileCursorStore(filepath.Join(t.TempDir(), "checkpoint.json"), true)
	boom := errors.New("disk full")

	syncer := &fakeSyncer{result: model.SyncResult{LatestBlock: blockPtr(10)}}
	runner := NewRunner(RunConfig{}, syncer, &memoryStorage{err: boom}, cursor, nil)
	_, err := runner.RunOnce(ctx)
	require.ErrorIs(t, err, boom)

	_, ok, err := cursor.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunnerSyncErrorPropagates(t *testing.T) {
	boom := &RangeFetchError{Range: model.BlockRange{From: 1, To: 2}, Err: errors.New("boom")}
	runner := NewRunner(RunConfig{}, &fakeSyncer{err: boom}, &memoryStorage{}, nil, nil)

	_, err := runner.RunOnce(context.Background())
	var fetchErr *RangeFetchError
	require.ErrorAs(t, err, &fetchErr)
}

type memoryState map[string]uint64

func (m memoryState) LoadState(_ context.Context, name string) (uint64, bool, error) {
	v, ok := m[name]
	return v, ok, nil
}

func (m memoryState) SaveState(_ context.Context, name string, block uint64) error {
	m[name] = block
	return nil
}

func TestDBCursorStore(t *testing.T) {
	ctx := context.Background()
	state := memoryState{}
	cursor := &DBCursorStore{Store: state, Name: "conditions:core"}

	_, ok, err := cursor.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cursor.Save(ctx, 77))
	assert.Equal(t, uint64(77), state["conditions:core"])
}

func TestFileCursorStoreDisabled(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	cursor := NewFileCursorStore(path, false)

	require.NoError(t, cursor.Save(ctx, 10))
	_, ok, err := NewFileCursorStore(path, true).Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
