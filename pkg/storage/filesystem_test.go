package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveReadDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save("signatures/t1/abc.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "signatures/t1/abc.png", ref)

	data, err := store.Read(ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	_, err = store.Save(ref, []byte("other"))
	require.Error(t, err, "artifacts are immutable")

	require.NoError(t, store.Delete(ref))
	require.NoError(t, store.Delete(ref))
	_, err = store.Read(ref)
	require.Error(t, err)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.png", []byte("x"))
	require.Error(t, err)
	_, err = store.Read("/etc/passwd")
	require.Error(t, err)
}
