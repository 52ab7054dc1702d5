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

package operation

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/qgzedit/pkg/archive"
	"github.com/walteh/qgzedit/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// 📦 Workspace is the part of an unpacked archive the driver needs
type Workspace interface {
	Members() ([]string, error)
	Read(member string) (*archive.Document, error)
	Write(member, text string) error
	Finalize(ctx context.Context, outPath string) error
	Close() error
}

// Opener unpacks the archive at path into scratchDir.
type Opener func(ctx context.Context, path, scratchDir string, opts archive.Options) (Workspace, error)

// OpenArchive is the default Opener.
func OpenArchive(ctx context.Context, path, scratchDir string, opts archive.Options) (Workspace, error) {
	ws, err := archive.Open(ctx, path, scratchDir, opts)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

type memberResult struct {
	member string
	report text.MatchReport
}

type skippedMember struct {
	member string
	err    error
}

// outcome is what one successful attempt on an archive produced
type outcome struct {
	members []memberResult
	skipped []skippedMember
	report  text.MatchReport
}

// processArchive runs one attempt: unpack, edit every text member, repack.
// Nothing is written to outPath unless the whole attempt succeeds.
func (r *Runner) processArchive(ctx context.Context, path, outPath string) (*outcome, error) {
	logger := zerolog.Ctx(ctx).With().Str("archive", path).Logger()

	scratch, err := os.MkdirTemp("", "qgzedit-*")
	if err != nil {
		return nil, errors.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	ws, err := r.open(ctx, path, scratch, archive.Options{
		MemberGlob:       r.cfg.MemberGlob,
		FallbackEncoding: r.cfg.FallbackEncoding,
	})
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	members, err := ws.Members()
	if err != nil {
		return nil, err
	}

	out := &outcome{report: text.MatchReport{}}
	replacements := r.cfg.Rules.Replacements()

	for _, member := range members {
		doc, err := ws.Read(member)
		if err != nil {
			var encErr *archive.EncodingError
			if errors.As(err, &encErr) {
				logger.Warn().Err(err).Str("member", member).Msg("skipping undecodable member")
				out.skipped = append(out.skipped, skippedMember{member: member, err: err})
				continue
			}
			return nil, err
		}

		result, err := r.replacer.ReplaceText(ctx, strings.NewReader(doc.Text), replacements)
		if err != nil {
			return nil, errors.Errorf("editing member %s: %w", member, err)
		}

		if result.WasModified {
			if err := ws.Write(member, string(result.ModifiedContent)); err != nil {
				return nil, err
			}
		}

		logger.Debug().
			Str("member", member).
			Str("encoding", doc.Encoding).
			Int("replacements", result.ReplacementCount).
			Msg("member edited")

		out.members = append(out.members, memberResult{member: member, report: result.Report})
		out.report.Merge(result.Report)
	}

	if _, err := os.Stat(outPath); err == nil {
		logger.Warn().Str("output", outPath).Msg("overwriting existing output")
	}

	if err := ws.Finalize(ctx, outPath); err != nil {
		return nil, err
	}

	return out, nil
}
