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

// Package archive unpacks a project container into a scratch directory,
// exposes its text members for editing and repacks it into a new container.
//
//	Open ──▶ Members ──▶ Read ──▶ (edit) ──▶ Write ──▶ Finalize ──▶ Close
//	  │                                                   │
//	  └── scratch dir holds every entry ──────────────────┘
//
// Entries that are not text members travel through untouched, in their
// original order.
package archive

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
)

// Options controls member selection and decoding.
type Options struct {
	// MemberGlob selects text members, matched case-insensitively
	// against slash-separated member names.
	MemberGlob string

	// FallbackEncoding names the encoding tried when a member is not UTF-8.
	FallbackEncoding string

	// Fallback overrides FallbackEncoding when set.
	Fallback encoding.Encoding
}

// Document is the decoded text of one member.
type Document struct {
	Member   string
	Text     string
	Encoding string
}

// 📦 Workspace is an unpacked archive. It is owned by a single goroutine.
type Workspace struct {
	source  string
	dir     string
	opts    Options
	entries []zip.FileHeader
	boms    map[string]bool
}

// Open extracts every entry of the archive at path into scratchDir, which
// must exist and is owned by the returned Workspace until Close.
func Open(ctx context.Context, path, scratchDir string, opts Options) (*Workspace, error) {
	logger := zerolog.Ctx(ctx)

	if opts.Fallback == nil {
		enc, err := LookupEncoding(opts.FallbackEncoding)
		if err != nil {
			return nil, errors.Errorf("opening %s: %w", path, err)
		}
		opts.Fallback = enc
	}
	if opts.FallbackEncoding == "" {
		opts.FallbackEncoding = "latin-1"
	}
	if opts.MemberGlob == "" {
		opts.MemberGlob = "**/*.qgs"
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		if r != nil {
			r.Close()
		}
		return nil, newContainerError(path, KindInvalid, err)
	}
	defer r.Close()

	ws := &Workspace{
		source: path,
		dir:    scratchDir,
		opts:   opts,
		boms:   map[string]bool{},
	}

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("extracting %s: %w", path, err)
		}

		target, err := ws.localPath(f.Name)
		if err != nil {
			return nil, newContainerError(path, KindInvalid, err)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, errors.Errorf("creating directory %s: %w", f.Name, err)
			}
		} else if err := extract(f, target); err != nil {
			return nil, newContainerError(path, KindInvalid, err)
		}

		ws.entries = append(ws.entries, f.FileHeader)
	}

	logger.Debug().
		Str("archive", path).
		Int("entries", len(ws.entries)).
		Str("scratch", scratchDir).
		Msg("archive extracted")

	return ws, nil
}

func extract(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Errorf("creating directory for %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return errors.Errorf("opening entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Errorf("creating %s: %w", target, err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return errors.Errorf("extracting entry %s: %w", f.Name, err)
	}
	return out.Close()
}

// localPath maps a member name into the scratch directory, rejecting names
// that would escape it.
func (ws *Workspace) localPath(name string) (string, error) {
	clean := filepath.FromSlash(strings.TrimSuffix(name, "/"))
	if clean == "" || filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", errors.Errorf("illegal entry name %q", name)
	}

	target := filepath.Join(ws.dir, clean)
	rel, err := filepath.Rel(ws.dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("entry %q escapes the archive root", name)
	}
	return target, nil
}

// Source returns the path the workspace was opened from.
func (ws *Workspace) Source() string {
	return ws.source
}

// Members lists the text members selected by the member glob, in archive
// order. An archive without any is a ContainerError of kind KindNoMembers.
func (ws *Workspace) Members() ([]string, error) {
	pattern := strings.ToLower(ws.opts.MemberGlob)

	var members []string
	for _, e := range ws.entries {
		if e.FileInfo().IsDir() {
			continue
		}
		ok, err := doublestar.Match(pattern, strings.ToLower(e.Name))
		if err != nil {
			return nil, errors.Errorf("matching member glob %q: %w", ws.opts.MemberGlob, err)
		}
		if ok {
			members = append(members, e.Name)
		}
	}

	if len(members) == 0 {
		return nil, newContainerError(ws.source, KindNoMembers, nil)
	}
	return members, nil
}

// Read decodes a text member. A leading UTF-8 BOM is dropped here and put
// back by Write.
func (ws *Workspace) Read(member string) (*Document, error) {
	target, err := ws.localPath(member)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, errors.Errorf("reading member %s: %w", member, err)
	}

	doc, err := decode(data, ws.opts.Fallback, ws.opts.FallbackEncoding)
	if err != nil {
		return nil, errors.WithStack(&EncodingError{
			Archive:  ws.source,
			Member:   member,
			Encoding: ws.opts.FallbackEncoding,
			Err:      err,
		})
	}

	ws.boms[member] = doc.bom
	return &Document{Member: member, Text: doc.text, Encoding: doc.encoding}, nil
}

// Write replaces a member's content with text, encoded as UTF-8.
func (ws *Workspace) Write(member, text string) error {
	target, err := ws.localPath(member)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if ws.boms[member] {
		buf.Write(utf8BOM)
	}
	buf.WriteString(text)

	if err := os.WriteFile(target, buf.Bytes(), 0644); err != nil {
		return errors.Errorf("writing member %s: %w", member, err)
	}
	return nil
}

// Finalize repacks every entry, in original order, into outPath. The
// archive is written next to outPath first and renamed into place, so a
// failure never leaves a partial output behind.
func (ws *Workspace) Finalize(ctx context.Context, outPath string) error {
	tmp := outPath + ".tmp"

	if err := ws.pack(ctx, tmp); err != nil {
		os.Remove(tmp)
		return newContainerError(ws.source, KindWrite, err)
	}

	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		return newContainerError(ws.source, KindWrite, errors.Errorf("renaming output: %w", err))
	}

	zerolog.Ctx(ctx).Debug().
		Str("archive", ws.source).
		Str("output", outPath).
		Msg("archive repacked")

	return nil
}

func (ws *Workspace) pack(ctx context.Context, dest string) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Errorf("creating %s: %w", dest, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	for _, e := range ws.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ws.packEntry(zw, e); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return errors.Errorf("closing archive: %w", err)
	}
	return f.Close()
}

func (ws *Workspace) packEntry(zw *zip.Writer, e zip.FileHeader) error {
	hdr := &zip.FileHeader{
		Name:     e.Name,
		Comment:  e.Comment,
		Method:   zip.Deflate,
		Modified: e.Modified,
	}
	hdr.SetMode(e.Mode())

	if e.FileInfo().IsDir() {
		hdr.Method = zip.Store
		_, err := zw.CreateHeader(hdr)
		if err != nil {
			return errors.Errorf("adding directory %s: %w", e.Name, err)
		}
		return nil
	}

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return errors.Errorf("adding entry %s: %w", e.Name, err)
	}

	target, err := ws.localPath(e.Name)
	if err != nil {
		return err
	}

	src, err := os.Open(target)
	if err != nil {
		return errors.Errorf("opening %s: %w", target, err)
	}
	defer src.Close()

	if _, err := io.Copy(w, src); err != nil {
		return errors.Errorf("packing entry %s: %w", e.Name, err)
	}
	return nil
}

// Close removes the scratch directory.
func (ws *Workspace) Close() error {
	if err := os.RemoveAll(ws.dir); err != nil {
		return errors.Errorf("removing scratch directory: %w", err)
	}
	return nil
}
