// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/qgzedit/pkg/testutils"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

func openWorkspace(t *testing.T, path string, opts Options) (*Workspace, error) {
	t.Helper()
	return Open(testutils.Context(t), path, t.TempDir(), opts)
}

// 🧪 TestRoundTrip edits one member and checks everything else survives
func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "project.qgz")
	binary := []byte{0x00, 0x01, 0xFF, 0xFE, 'S', 'Q', 'L'}

	testutils.BuildArchive(t, src,
		testutils.Entry{Name: "project.qgs", Data: append([]byte{0xEF, 0xBB, 0xBF}, []byte(`<qgis host="192.168.1.100"/>`)...)},
		testutils.Entry{Name: "project.qgd", Data: binary},
		testutils.Dir("styles/"),
		testutils.Entry{Name: "styles/layer.qml", Data: []byte("<qml/>")},
	)

	ws, err := openWorkspace(t, src, Options{})
	require.NoError(t, err)
	defer ws.Close()

	members, err := ws.Members()
	require.NoError(t, err)
	assert.Equal(t, []string{"project.qgs"}, members)

	doc, err := ws.Read("project.qgs")
	require.NoError(t, err)
	assert.Equal(t, `<qgis host="192.168.1.100"/>`, doc.Text, "BOM should be stripped")
	assert.Equal(t, "utf-8", doc.Encoding)

	require.NoError(t, ws.Write("project.qgs", `<qgis host="10.0.0.5"/>`))

	out := filepath.Join(dir, "project_MODIFICADO.qgz")
	require.NoError(t, ws.Finalize(testutils.Context(t), out))

	names, contents := testutils.ReadArchive(t, out)
	assert.Equal(t, []string{"project.qgs", "project.qgd", "styles/", "styles/layer.qml"}, names, "entry order")
	assert.Equal(t, append([]byte{0xEF, 0xBB, 0xBF}, []byte(`<qgis host="10.0.0.5"/>`)...), contents["project.qgs"])
	assert.Equal(t, binary, contents["project.qgd"])
	assert.Equal(t, []byte("<qml/>"), contents["styles/layer.qml"])

	_, err = os.Stat(out + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary output should be gone")
}

func TestMembers(t *testing.T) {
	tests := []struct {
		name    string
		glob    string
		entries []testutils.Entry
		want    []string
	}{
		{
			name:    "case_insensitive_extension",
			entries: []testutils.Entry{{Name: "Project.QGS", Data: []byte("x")}},
			want:    []string{"Project.QGS"},
		},
		{
			name: "nested_members",
			entries: []testutils.Entry{
				{Name: "a.qgs", Data: []byte("x")},
				{Name: "nested/b.qgs", Data: []byte("y")},
				{Name: "c.qgd", Data: []byte("z")},
			},
			want: []string{"a.qgs", "nested/b.qgs"},
		},
		{
			name: "custom_glob",
			glob: "*.qml",
			entries: []testutils.Entry{
				{Name: "a.qgs", Data: []byte("x")},
				{Name: "style.qml", Data: []byte("y")},
			},
			want: []string{"style.qml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := filepath.Join(t.TempDir(), "in.qgz")
			testutils.BuildArchive(t, src, tt.entries...)

			ws, err := openWorkspace(t, src, Options{MemberGlob: tt.glob})
			require.NoError(t, err)
			defer ws.Close()

			got, err := ws.Members()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNoMembers(t *testing.T) {
	src := filepath.Join(t.TempDir(), "empty.qgz")
	testutils.BuildArchive(t, src, testutils.Entry{Name: "project.qgd", Data: []byte("db")})

	ws, err := openWorkspace(t, src, Options{})
	require.NoError(t, err)
	defer ws.Close()

	_, err = ws.Members()
	require.Error(t, err)
	assert.True(t, IsNoMembers(err))
}

func TestOpenInvalid(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "broken.qgz")
	require.NoError(t, os.WriteFile(garbage, []byte("this is not a zip"), 0644))

	slip := filepath.Join(dir, "slip.qgz")
	testutils.BuildArchive(t, slip, testutils.Entry{Name: "../evil.qgs", Data: []byte("x")})

	for name, path := range map[string]string{"garbage": garbage, "zip_slip": slip} {
		t.Run(name, func(t *testing.T) {
			_, err := openWorkspace(t, path, Options{})
			require.Error(t, err)

			var cerr *ContainerError
			require.True(t, errors.As(err, &cerr), "expected ContainerError, got %T", err)
			assert.Equal(t, KindInvalid, cerr.Kind)
		})
	}
}

func TestReadFallbackEncoding(t *testing.T) {
	src := filepath.Join(t.TempDir(), "latin.qgz")
	testutils.BuildArchive(t, src, testutils.Entry{Name: "project.qgs", Data: []byte("caf\xe9")})

	ws, err := openWorkspace(t, src, Options{FallbackEncoding: "latin-1"})
	require.NoError(t, err)
	defer ws.Close()

	doc, err := ws.Read("project.qgs")
	require.NoError(t, err)
	assert.Equal(t, "café", doc.Text)
	assert.Equal(t, "latin-1", doc.Encoding)
}

func TestReadWindows1252Fallback(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantText string
		wantErr  bool
	}{
		{name: "euro_sign", data: []byte("precio 5\x80"), wantText: "precio 5€"},
		{name: "curly_quotes", data: []byte("\x93capa\x94"), wantText: "“capa”"},
		{name: "undefined_0x81", data: []byte("ab\x81cd"), wantErr: true},
		{name: "undefined_0x9d", data: []byte("\x9d"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := filepath.Join(t.TempDir(), "cp.qgz")
			testutils.BuildArchive(t, src, testutils.Entry{Name: "project.qgs", Data: tt.data})

			ws, err := openWorkspace(t, src, Options{FallbackEncoding: "windows-1252"})
			require.NoError(t, err)
			defer ws.Close()

			doc, err := ws.Read("project.qgs")
			if tt.wantErr {
				require.Error(t, err)
				var eerr *EncodingError
				require.True(t, errors.As(err, &eerr), "expected EncodingError, got %T", err)
				assert.Equal(t, "windows-1252", eerr.Encoding)
				assert.ErrorIs(t, err, ErrUnmappedByte)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, doc.Text)
			assert.Equal(t, "windows-1252", doc.Encoding)
		})
	}
}

type failingTransformer struct{ transform.NopResetter }

func (failingTransformer) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	return 0, 0, errors.New("undecodable")
}

type failingEncoding struct{}

func (failingEncoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: failingTransformer{}}
}

func (failingEncoding) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: failingTransformer{}}
}

func TestReadEncodingError(t *testing.T) {
	src := filepath.Join(t.TempDir(), "bad.qgz")
	testutils.BuildArchive(t, src, testutils.Entry{Name: "project.qgs", Data: []byte{0xC3, 0x28}})

	ws, err := openWorkspace(t, src, Options{FallbackEncoding: "test", Fallback: failingEncoding{}})
	require.NoError(t, err)
	defer ws.Close()

	_, err = ws.Read("project.qgs")
	require.Error(t, err)

	var eerr *EncodingError
	require.True(t, errors.As(err, &eerr), "expected EncodingError, got %T", err)
	assert.Equal(t, "project.qgs", eerr.Member)
}

func TestFinalizeWriteError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.qgz")
	testutils.BuildArchive(t, src, testutils.Entry{Name: "project.qgs", Data: []byte("x")})

	ws, err := openWorkspace(t, src, Options{})
	require.NoError(t, err)
	defer ws.Close()

	out := filepath.Join(dir, "missing", "out.qgz")
	err = ws.Finalize(testutils.Context(t), out)
	require.Error(t, err)

	var cerr *ContainerError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindWrite, cerr.Kind)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no partial output")
}

func TestCloseRemovesScratch(t *testing.T) {
	src := filepath.Join(t.TempDir(), "in.qgz")
	testutils.BuildArchive(t, src, testutils.Entry{Name: "project.qgs", Data: []byte("x")})

	scratch := filepath.Join(t.TempDir(), "scratch")
	require.NoError(t, os.Mkdir(scratch, 0755))

	ws, err := Open(testutils.Context(t), src, scratch, Options{})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(scratch, "project.qgs"))

	require.NoError(t, ws.Close())
	assert.NoDirExists(t, scratch)
}

func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"", "latin-1", "ISO-8859-1", "windows-1252", "cp1252"} {
		_, err := LookupEncoding(name)
		assert.NoError(t, err, name)
	}
	_, err := LookupEncoding("ebcdic")
	assert.Error(t, err)
}
