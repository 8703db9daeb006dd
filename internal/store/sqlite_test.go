package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DeskChat/internal/session"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "chats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	rec := sampleRecord("Trip Plans")
	require.NoError(t, s.Save(rec))

	got, err := s.Load("Trip Plans")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestSQLiteStoreSaveEmptyRecordIsNoOp(t *testing.T) {
	s := newTestSQLiteStore(t)
	require.NoError(t, s.Save(&session.Record{Title: "Empty"}))
	assert.Empty(t, s.List())
}

func TestSQLiteStoreSaveOverwrites(t *testing.T) {
	s := newTestSQLiteStore(t)
	rec := sampleRecord("Chat")
	require.NoError(t, s.Save(rec))

	rec.Messages = rec.Messages[:1]
	require.NoError(t, s.Save(rec))

	got, err := s.Load("Chat")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
}

func TestSQLiteStoreListNewestFirstByName(t *testing.T) {
	s := newTestSQLiteStore(t)
	require.NoError(t, s.Save(sampleRecord("A")))
	require.NoError(t, s.Save(sampleRecord("C")))
	require.NoError(t, s.Save(sampleRecord("B")))
	assert.Equal(t, []string{"C", "B", "A"}, s.List())
}

func TestSQLiteStoreLoadNotFound(t *testing.T) {
	s := newTestSQLiteStore(t)
	_, err := s.Load("Missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreRename(t *testing.T) {
	s := newTestSQLiteStore(t)
	require.NoError(t, s.Save(sampleRecord("Old")))
	require.NoError(t, s.Rename("Old", "New"))

	_, err := s.Load("Old")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := s.Load("New")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Len(t, got.Messages, 2)
}

func TestSQLiteStoreRenameNotFound(t *testing.T) {
	s := newTestSQLiteStore(t)
	assert.ErrorIs(t, s.Rename("Missing", "New"), ErrNotFound)
}

func TestSQLiteStoreDelete(t *testing.T) {
	s := newTestSQLiteStore(t)
	require.NoError(t, s.Save(sampleRecord("Gone")))
	require.NoError(t, s.Delete("Gone"))

	_, err := s.Load("Gone")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete("Gone"), ErrNotFound)
}
