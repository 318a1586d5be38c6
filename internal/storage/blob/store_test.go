package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveReadDelete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("doc.pdf", []byte("content")))
	assert.True(t, store.Exists("doc.pdf"))

	data, err := store.Read("doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)

	deleted, err := store.Delete("doc.pdf")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, store.Exists("doc.pdf"))
}

func TestDelete_AbsentBlobIsNotAnError(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	deleted, err := store.Delete("missing.pdf")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSave_OverwriteLastWriterWins(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("doc.pdf", []byte("first")))
	require.NoError(t, store.Save("doc.pdf", []byte("second")))

	data, err := store.Read("doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestPath_StripsDirectoryComponents(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("../escape.txt", []byte("x")))
	assert.True(t, store.Exists("escape.txt"))
}
