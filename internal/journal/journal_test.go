package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

func TestPutGetComplete(t *testing.T) {
	store := openTestStore(t)
	id := newID(t)
	created := time.Now()

	require.NoError(t, store.Put(&Record{
		RequestID: id,
		Command:   "ProtoOATraderReq",
		AccountID: 42,
		Status:    StatusPending,
		CreatedAt: created.UnixMilli(),
	}))

	rec, err := store.Get(id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, int64(42), rec.AccountID)

	done := created.Add(150 * time.Millisecond)
	require.NoError(t, store.Complete(id, StatusFailed, "ProtocolError", "Trading account is not authorized", "", done))

	rec, err = store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, "ProtocolError", rec.ErrorKind)
	assert.Equal(t, done.UnixMilli(), rec.CompletedAt)
}

func TestCompleteUnknownIsNoop(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Complete("missing", StatusOK, "", "", "", time.Now()))

	rec, err := store.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRecentNewestFirst(t *testing.T) {
	store := openTestStore(t)
	var ids []string
	for i := 0; i < 5; i++ {
		id := newID(t)
		ids = append(ids, id)
		require.NoError(t, store.Put(&Record{RequestID: id, Command: "ProtoOAVersionReq", Status: StatusOK, CreatedAt: time.Now().UnixMilli()}))
		time.Sleep(2 * time.Millisecond)
	}

	recent, err := store.Recent(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, ids[4], recent[0].RequestID)
	assert.Equal(t, ids[2], recent[2].RequestID)

	all, err := store.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestCleanup(t *testing.T) {
	store := openTestStore(t)
	now := time.Now()

	oldID, freshID := newID(t), newID(t)
	require.NoError(t, store.Put(&Record{RequestID: oldID, Status: StatusOK, CreatedAt: now.Add(-48 * time.Hour).UnixMilli()}))
	require.NoError(t, store.Put(&Record{RequestID: freshID, Status: StatusOK, CreatedAt: now.UnixMilli()}))

	removed, err := store.Cleanup(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	rec, err := store.Get(oldID)
	require.NoError(t, err)
	assert.Nil(t, rec)
	rec, err = store.Get(freshID)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestCloseNil(t *testing.T) {
	var store *Store
	assert.NoError(t, store.Close())
}
