package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	_, err := db.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	value, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), value)

	value[0] = 'x'
	again, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), again)

	require.NoError(t, db.Delete([]byte("k")))
	ok, err := db.Has([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLevelDBTranslatesNotFound(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.WriteBatch([]Op{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("a")},
	}))
	ok, err := db.Has([]byte("a"))
	require.NoError(t, err)
	require.False(t, ok)
	value, err := db.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), value)
}

func TestOverlayCommitAndDiscard(t *testing.T) {
	parent := NewMemDB()
	require.NoError(t, parent.Put([]byte("keep"), []byte("1")))
	require.NoError(t, parent.Put([]byte("drop"), []byte("2")))

	overlay := NewOverlay(parent)
	require.NoError(t, overlay.Put([]byte("new"), []byte("3")))
	require.NoError(t, overlay.Delete([]byte("drop")))

	_, err := overlay.Get([]byte("drop"))
	require.ErrorIs(t, err, ErrNotFound)
	value, err := overlay.Get([]byte("keep"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), value)

	_, err = parent.Get([]byte("new"))
	require.ErrorIs(t, err, ErrNotFound)

	overlay.Discard()
	require.Zero(t, overlay.Pending())
	ok, err := overlay.Has([]byte("drop"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, overlay.Put([]byte("new"), []byte("3")))
	require.NoError(t, overlay.Delete([]byte("drop")))
	require.NoError(t, overlay.Commit())

	value, err = parent.Get([]byte("new"))
	require.NoError(t, err)
	require.Equal(t, []byte("3"), value)
	ok, err = parent.Has([]byte("drop"))
	require.NoError(t, err)
	require.False(t, ok)
}
