package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func TestLocalStoreSaveOpenRemove(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, 1024)
	require.NoError(t, err)

	stored, err := store.Save("portfolios/1", "Transcript.PDF", bytes.NewReader(samplePDF))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", stored.MimeType)
	assert.Equal(t, int64(len(samplePDF)), stored.Size)
	assert.True(t, strings.HasPrefix(stored.Path, "portfolios/1/"))
	assert.True(t, strings.HasSuffix(stored.Path, ".pdf"))

	rc, err := store.Open(stored.Path)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, samplePDF, data)

	require.NoError(t, store.Remove(stored.Path))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(stored.Path)))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Remove(stored.Path))
}

func TestLocalStoreRejectsDisallowedType(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.Save("portfolios/1", "notes.txt", strings.NewReader("just some plain text"))
	assert.ErrorIs(t, err, ErrTypeNotAllow)
}

func TestLocalStoreRejectsOversizedFile(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, 64)
	require.NoError(t, err)

	big := append(append([]byte{}, samplePDF...), bytes.Repeat([]byte("x"), 256)...)
	_, err = store.Save("portfolios/2", "big.pdf", bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(filepath.Join(root, "portfolios", "2"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStoreRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.Save("../outside", "a.pdf", bytes.NewReader(samplePDF))
	assert.Error(t, err)
	_, err = store.Open("../../etc/passwd")
	assert.Error(t, err)
}

func TestDetectAllowedPNG(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	mt, ok := DetectAllowed(png)
	assert.True(t, ok)
	assert.Equal(t, "image/png", mt)
}
