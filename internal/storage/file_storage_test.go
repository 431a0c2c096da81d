package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"scriptvision/internal/storage"
)

func TestFileStorage_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, store.SaveJSONFile("s1", "assets.json", payload{Name: "kitchen", Count: 3}))
	require.True(t, store.FileExists("s1", "assets.json"))

	var got payload
	require.NoError(t, store.LoadJSONFile("s1", "assets.json", &got))
	require.Equal(t, payload{Name: "kitchen", Count: 3}, got)

	// Overwrite is atomic from the reader's point of view: a load after a
	// save always sees the new content.
	require.NoError(t, store.SaveJSONFile("s1", "assets.json", payload{Name: "garden", Count: 5}))
	require.NoError(t, store.LoadJSONFile("s1", "assets.json", &got))
	require.Equal(t, "garden", got.Name)
}

func TestFileStorage_MissingFile(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	var out map[string]string
	require.Error(t, store.LoadJSONFile("nope", "assets.json", &out))
	require.False(t, store.FileExists("nope", "assets.json"))
}

func TestFileStorage_DeleteAndList(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.SaveTextFile("s1", "script.txt", []byte("SCENE 1")))
	require.NoError(t, store.SaveTextFile("s2", "script.txt", []byte("SCENE 1")))

	dirs, err := store.ListDirs("")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"s1", "s2"}, dirs)

	require.NoError(t, store.DeleteFile("s1", "script.txt"))
	require.False(t, store.FileExists("s1", "script.txt"))

	require.NoError(t, store.DeleteDir("s2"))
	dirs, err = store.ListDirs("")
	require.NoError(t, err)
	require.NotContains(t, dirs, "s2")
}
