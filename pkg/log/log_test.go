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
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/qgzedit/pkg/rule"
	"github.com/walteh/qgzedit/pkg/text"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func TestConsole(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(ctx context.Context, c *Console)
		wantLogs []string
	}{
		{
			name: "run_started",
			op: func(ctx context.Context, c *Console) {
				c.RunStarted(ctx, RunStartedEvent{RunID: "r1", InputDir: "/in", Archives: 3})
			},
			wantLogs: []string{
				"qgzedit • 3 archives from /in",
			},
		},
		{
			name: "rule_warning",
			op: func(ctx context.Context, c *Console) {
				c.RuleWarning(ctx, rule.Warning{Rule: 2, Message: "search and replace are identical"})
			},
			wantLogs: []string{
				"⚠️  rule #2: search and replace are identical",
			},
		},
		{
			name: "archive_with_rules",
			op: func(ctx context.Context, c *Console) {
				c.ArchiveStarted(ctx, ArchiveStartedEvent{Archive: "/in/project.qgz", Attempt: 1})
				c.RuleApplied(ctx, RuleAppliedEvent{Search: "foo", Replace: "bar", Count: 2})
				c.RuleApplied(ctx, RuleAppliedEvent{Search: "baz", Replace: "qux", Count: 0})
				c.ArchiveDone(ctx, ArchiveDoneEvent{
					Archive: "/in/project.qgz",
					Output:  "/out/project_MODIFICADO.qgz",
					Report:  text.MatchReport{"foo": 2, "baz": 0},
				})
			},
			wantLogs: []string{
				"◆ project.qgz",
				fmt.Sprintf(`⟳ %-30s %6d → "bar"`, `"foo"`, 2),
				fmt.Sprintf(`- %-30s %6d → "qux"`, `"baz"`, 0),
				"✅ project.qgz → project_MODIFICADO.qgz (2 replacements)",
			},
		},
		{
			name: "retry_and_failure",
			op: func(ctx context.Context, c *Console) {
				c.ArchiveStarted(ctx, ArchiveStartedEvent{Archive: "/in/broken.qgz", Attempt: 2})
				c.ArchiveDone(ctx, ArchiveDoneEvent{Archive: "/in/broken.qgz", Err: errors.New("not a zip")})
			},
			wantLogs: []string{
				"◆ broken.qgz (attempt 2)",
				"❌ broken.qgz: not a zip",
			},
		},
		{
			name: "member_skipped",
			op: func(ctx context.Context, c *Console) {
				c.MemberSkipped(ctx, MemberSkippedEvent{Member: "project.qgs", Err: errors.New("bad bytes")})
			},
			wantLogs: []string{
				"⏭ project.qgs skipped: bad bytes",
			},
		},
		{
			name: "run_finished",
			op: func(ctx context.Context, c *Console) {
				c.RunFinished(ctx, RunFinishedEvent{Succeeded: 2, Failed: 1})
			},
			wantLogs: []string{
				"done 2 succeeded, 1 failed",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			console := NewConsole(buf)

			tt.op(testContext(t), console)

			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			var got []string
			for _, line := range lines {
				if strings.TrimSpace(line) != "" {
					got = append(got, strings.TrimSpace(line))
				}
			}

			require.Equal(t, len(tt.wantLogs), len(got), "number of log lines should match: %q", got)
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, got[i], "log line %d should match", i)
			}
		})
	}
}

func TestConsoleQuiet(t *testing.T) {
	buf := &bytes.Buffer{}
	console := NewConsole(buf).Quiet(true)

	console.RuleApplied(testContext(t), RuleAppliedEvent{Search: "foo", Count: 1})
	assert.Empty(t, buf.String())
}

func TestRecorderAndMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	sink := Multi{a, b}
	ctx := testContext(t)

	sink.RunStarted(ctx, RunStartedEvent{RunID: "r1"})
	sink.ConfigLoaded(ctx, ConfigLoadedEvent{Rules: 1})
	sink.RuleWarning(ctx, rule.Warning{Rule: 1})
	sink.ArchiveStarted(ctx, ArchiveStartedEvent{Archive: "a.qgz", Attempt: 1})
	sink.MemberSkipped(ctx, MemberSkippedEvent{Member: "m.qgs"})
	sink.RuleApplied(ctx, RuleAppliedEvent{Search: "x"})
	sink.ArchiveDone(ctx, ArchiveDoneEvent{Archive: "a.qgz"})
	sink.RunFinished(ctx, RunFinishedEvent{Succeeded: 1})

	want := []EventKind{
		KindRunStarted, KindConfigLoaded, KindRuleWarning, KindArchiveStarted,
		KindMemberSkipped, KindRuleApplied, KindArchiveDone, KindRunFinished,
	}
	assert.Equal(t, want, a.Kinds())
	assert.Equal(t, a.Events(), b.Events())

	done := a.ArchiveDoneEvents()
	require.Len(t, done, 1)
	assert.Equal(t, "a.qgz", done[0].Archive)
}

func TestContextSink(t *testing.T) {
	assert.NotPanics(t, func() {
		FromContext(context.Background()).RunFinished(context.Background(), RunFinishedEvent{})
	}, "missing sink drops events")

	rec := NewRecorder()
	ctx := NewContext(context.Background(), rec)
	FromContext(ctx).RunFinished(ctx, RunFinishedEvent{})
	assert.Equal(t, []EventKind{KindRunFinished}, rec.Kinds())
}
