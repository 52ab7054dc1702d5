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

package log

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/qgzedit/pkg/rule"
)

// 🎨 Display configuration
const (
	ruleIndent  = 4  // spaces to indent rule lines
	searchWidth = 30 // width for the search pattern
	countWidth  = 6  // width for the match count
)

// 🖥️ Console renders events as human readable lines and mirrors them to the
// zerolog logger found in the event context.
type Console struct {
	console io.Writer
	mu      sync.Mutex
	quiet   bool
}

// 🏭 NewConsole creates a console sink writing to w
func NewConsole(w io.Writer) *Console {
	return &Console{console: w}
}

// Quiet suppresses per-rule lines.
func (c *Console) Quiet(quiet bool) *Console {
	c.quiet = quiet
	return c
}

func (c *Console) println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.console, line)
}

func (c *Console) RunStarted(ctx context.Context, ev RunStartedEvent) {
	title := color.New(color.Bold, color.FgCyan).Sprint("qgzedit")
	c.println(fmt.Sprintf("\n%s %s\n", title,
		color.New(color.Faint).Sprintf("• %d archives from %s", ev.Archives, ev.InputDir)))

	zerolog.Ctx(ctx).Info().
		Str("run_id", ev.RunID).
		Str("input_dir", ev.InputDir).
		Str("output_dir", ev.OutputDir).
		Int("archives", ev.Archives).
		Int("workers", ev.Workers).
		Msg("run started")
}

func (c *Console) ConfigLoaded(ctx context.Context, ev ConfigLoadedEvent) {
	c.println(fmt.Sprintf("ℹ️  %s", color.CyanString("loaded %d rules from %s", ev.Rules, ev.Path)))

	zerolog.Ctx(ctx).Info().
		Str("config", ev.Path).
		Int("rules", ev.Rules).
		Str("postfix", ev.Postfix).
		Msg("configuration loaded")
}

func (c *Console) RuleWarning(ctx context.Context, w rule.Warning) {
	c.println(fmt.Sprintf("⚠️  %s", color.YellowString(w.String())))

	zerolog.Ctx(ctx).Warn().
		Int("rule", w.Rule).
		Msg(w.Message)
}

func (c *Console) ArchiveStarted(ctx context.Context, ev ArchiveStartedEvent) {
	retry := ""
	if ev.Attempt > 1 {
		retry = color.New(color.Faint).Sprintf(" (attempt %d)", ev.Attempt)
	}
	c.println(fmt.Sprintf("%s %s%s",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(filepath.Base(ev.Archive)),
		retry))

	zerolog.Ctx(ctx).Debug().
		Str("archive", ev.Archive).
		Str("output", ev.Output).
		Int("attempt", ev.Attempt).
		Msg("archive started")
}

func (c *Console) MemberSkipped(ctx context.Context, ev MemberSkippedEvent) {
	c.println(fmt.Sprintf("%s%s %s %s",
		strings.Repeat(" ", ruleIndent),
		color.YellowString("⏭"),
		ev.Member,
		color.New(color.Faint).Sprintf("skipped: %v", ev.Err)))

	zerolog.Ctx(ctx).Warn().
		Err(ev.Err).
		Str("archive", ev.Archive).
		Str("member", ev.Member).
		Msg("member skipped")
}

func (c *Console) RuleApplied(ctx context.Context, ev RuleAppliedEvent) {
	zerolog.Ctx(ctx).Debug().
		Str("archive", ev.Archive).
		Str("member", ev.Member).
		Int("rule", ev.Index).
		Str("search", ev.Search).
		Int("count", ev.Count).
		Msg("rule applied")

	if c.quiet {
		return
	}
	c.println(formatRule(ev))
}

// 📝 formatRule formats a rule result for display
func formatRule(ev RuleAppliedEvent) string {
	symbol := color.HiBlackString("-")
	if ev.Count > 0 {
		symbol = color.GreenString("⟳")
	}
	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", ruleIndent),
		symbol,
		fmt.Sprintf("%-*s", searchWidth, fmt.Sprintf("%q", ev.Search)),
		fmt.Sprintf("%*d", countWidth, ev.Count),
		color.New(color.Faint).Sprintf("→ %q", ev.Replace))
}

func (c *Console) ArchiveDone(ctx context.Context, ev ArchiveDoneEvent) {
	logger := zerolog.Ctx(ctx)

	if ev.Err != nil {
		c.println(fmt.Sprintf("❌ %s", color.RedString("%s: %v", filepath.Base(ev.Archive), ev.Err)))
		logger.Error().
			Err(ev.Err).
			Str("archive", ev.Archive).
			Int("attempts", ev.Attempts).
			Msg("archive failed")
		return
	}

	c.println(fmt.Sprintf("✅ %s", color.GreenString("%s → %s (%d replacements)",
		filepath.Base(ev.Archive), filepath.Base(ev.Output), ev.Report.Total())))
	logger.Info().
		Str("archive", ev.Archive).
		Str("output", ev.Output).
		Int("members", ev.Members).
		Int("skipped", ev.Skipped).
		Int("replacements", ev.Report.Total()).
		Dur("duration", ev.Duration).
		Msg("archive done")
}

func (c *Console) RunFinished(ctx context.Context, ev RunFinishedEvent) {
	line := color.GreenString("%d succeeded, %d failed", ev.Succeeded, ev.Failed)
	if ev.Failed > 0 {
		line = color.RedString("%d succeeded, %d failed", ev.Succeeded, ev.Failed)
	}
	c.println(fmt.Sprintf("\n%s %s", color.New(color.Bold).Sprint("done"), line))

	zerolog.Ctx(ctx).Info().
		Str("run_id", ev.RunID).
		Int("succeeded", ev.Succeeded).
		Int("failed", ev.Failed).
		Dur("duration", ev.Duration).
		Msg("run finished")
}
