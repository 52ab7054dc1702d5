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
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/qgzedit/pkg/archive"
	"github.com/walteh/qgzedit/pkg/config"
	"github.com/walteh/qgzedit/pkg/log"
	"github.com/walteh/qgzedit/pkg/status"
	"github.com/walteh/qgzedit/pkg/text"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🏃 Runner executes a batch run over every archive in the input folder
type Runner struct {
	cfg      *config.Config
	sink     log.Sink
	open     Opener
	replacer text.TextReplacer
}

// 🏗️ NewRunner creates a new runner. With a nil sink, events go to the sink
// carried by the Run context, if any.
func NewRunner(cfg *config.Config, sink log.Sink) *Runner {
	return &Runner{
		cfg:      cfg,
		sink:     sink,
		open:     OpenArchive,
		replacer: text.NewIsolatingReplacer(),
	}
}

// WithOpener replaces the archive opener.
func (r *Runner) WithOpener(open Opener) *Runner {
	r.open = open
	return r
}

// 🏃 Run validates the configuration, then processes every archive. A
// failing archive is recorded and the batch moves on; only configuration
// problems, an unreadable input folder or cancellation make Run fail.
// The summary is returned whenever archives were attempted.
func (r *Runner) Run(ctx context.Context) (*status.Summary, error) {
	start := time.Now()
	runID := uuid.NewString()

	logger := zerolog.Ctx(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)

	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	tally := status.NewTally(r.cfg.Rules)
	out := r.sink
	if out == nil {
		out = log.FromContext(ctx)
	}
	sink := log.Multi{out, tally}

	sink.ConfigLoaded(ctx, log.ConfigLoadedEvent{
		Path:    r.cfg.Location(),
		Rules:   len(r.cfg.Rules),
		Postfix: r.cfg.Postfix,
	})
	for _, w := range r.cfg.Warnings() {
		sink.RuleWarning(ctx, w)
	}

	if err := os.MkdirAll(r.cfg.OutputDir, 0755); err != nil {
		return nil, errors.Errorf("creating output directory: %w", err)
	}

	archives, err := Scan(ctx, r.cfg.InputDir, r.cfg.ArchiveGlob)
	if err != nil {
		return nil, err
	}

	sink.RunStarted(ctx, log.RunStartedEvent{
		RunID:     runID,
		InputDir:  r.cfg.InputDir,
		OutputDir: r.cfg.OutputDir,
		Archives:  len(archives),
		Workers:   r.cfg.Workers,
	})

	g := new(errgroup.Group)
	g.SetLimit(r.cfg.Workers)

	for _, path := range archives {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r.processWithRetry(ctx, sink, path)
			return nil
		})
	}
	_ = g.Wait()

	sink.RunFinished(ctx, log.RunFinishedEvent{
		RunID:    runID,
		Duration: time.Since(start),
	})

	summary := tally.Summary()
	if err := ctx.Err(); err != nil {
		return summary, errors.Errorf("run cancelled: %w", err)
	}
	return summary, nil
}

// processWithRetry runs whole-archive attempts until one succeeds or the
// retries are used up, then emits the archive's events.
func (r *Runner) processWithRetry(ctx context.Context, sink log.Sink, path string) {
	logger := zerolog.Ctx(ctx)
	outPath := filepath.Join(r.cfg.OutputDir, r.cfg.OutputName(path))
	start := time.Now()

	var (
		out     *outcome
		err     error
		attempt int
	)
	for attempt = 1; attempt <= r.cfg.Retries+1; attempt++ {
		sink.ArchiveStarted(ctx, log.ArchiveStartedEvent{Archive: path, Output: outPath, Attempt: attempt})

		out, err = r.processArchive(ctx, path, outPath)
		if err == nil || ctx.Err() != nil || archive.IsNoMembers(err) {
			break
		}
		if attempt <= r.cfg.Retries {
			logger.Warn().Err(err).Str("archive", path).Int("attempt", attempt).Msg("retrying archive")
		}
	}
	if attempt > r.cfg.Retries+1 {
		attempt = r.cfg.Retries + 1
	}

	done := log.ArchiveDoneEvent{
		Archive:  path,
		Output:   outPath,
		Attempts: attempt,
		Duration: time.Since(start),
		Err:      err,
	}

	if err == nil {
		for _, s := range out.skipped {
			sink.MemberSkipped(ctx, log.MemberSkippedEvent{Archive: path, Member: s.member, Err: s.err})
		}
		for _, m := range out.members {
			for i, rl := range r.cfg.Rules {
				sink.RuleApplied(ctx, log.RuleAppliedEvent{
					Archive: path,
					Member:  m.member,
					Index:   i + 1,
					Search:  rl.Search,
					Replace: rl.Replace,
					Count:   m.report[rl.Search],
				})
			}
		}
		done.Members = len(out.members)
		done.Skipped = len(out.skipped)
		done.Report = out.report
	}

	sink.ArchiveDone(ctx, done)
}
