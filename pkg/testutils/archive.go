// Package testutils builds project archives and contexts for tests.
package testutils

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Entry is one archive entry. A nil Data makes a directory entry.
type Entry struct {
	Name string
	Data []byte
}

// File is a shorthand for a text entry.
func File(name, content string) Entry {
	return Entry{Name: name, Data: []byte(content)}
}

// Dir is a shorthand for a directory entry.
func Dir(name string) Entry {
	return Entry{Name: name}
}

// Context returns a context carrying a logger that writes to t.
func Context(t testing.TB) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

// BuildArchive writes a zip archive with the given entries, in order.
func BuildArchive(t testing.TB, path string, entries ...Entry) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err, "creating archive")
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		if e.Data == nil {
			hdr.Method = zip.Store
		}
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err, "adding %s", e.Name)
		if e.Data != nil {
			_, err = w.Write(e.Data)
			require.NoError(t, err, "writing %s", e.Name)
		}
	}
	require.NoError(t, zw.Close(), "closing archive")
}

// ReadArchive returns entry names in archive order and file contents by name.
func ReadArchive(t testing.TB, path string) ([]string, map[string][]byte) {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err, "opening archive %s", path)
	defer r.Close()

	var names []string
	contents := map[string][]byte{}
	for _, f := range r.File {
		names = append(names, f.Name)
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err, "opening entry %s", f.Name)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err, "reading entry %s", f.Name)
		contents[f.Name] = data
	}
	return names, contents
}
