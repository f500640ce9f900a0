package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/velours/internal/apperr"
)

func TestSaveAndRemove(t *testing.T) {
	imgs, err := NewImages(filepath.Join(t.TempDir(), "products"))
	require.NoError(t, err)

	name, err := imgs.Save("Flacon.JPG", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(name, ".jpg"))

	body, err := os.ReadFile(filepath.Join(imgs.Dir(), name))
	require.NoError(t, err)
	require.Equal(t, "jpeg-bytes", string(body))

	require.NoError(t, imgs.Remove(name))
	require.NoError(t, imgs.Remove(name))
	_, err = os.Stat(filepath.Join(imgs.Dir(), name))
	require.True(t, os.IsNotExist(err))
}

func TestSaveRejectsExtension(t *testing.T) {
	imgs, err := NewImages(t.TempDir())
	require.NoError(t, err)

	_, err = imgs.Save("script.sh", strings.NewReader("#!"))
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRemoveAllCountsExisting(t *testing.T) {
	imgs, err := NewImages(t.TempDir())
	require.NoError(t, err)
	a, err := imgs.Save("a.png", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := imgs.Save("b.webp", strings.NewReader("b"))
	require.NoError(t, err)

	require.Equal(t, 3, imgs.RemoveAll([]string{a, "", b, "missing.png"}))
}
