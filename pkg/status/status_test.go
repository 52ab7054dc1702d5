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

package status

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/qgzedit/pkg/log"
	"github.com/walteh/qgzedit/pkg/rule"
	"github.com/walteh/qgzedit/pkg/text"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

var testRules = rule.Set{
	{Search: "foo", Replace: "bar"},
	{Search: "baz", Replace: "qux"},
	{Search: "foo", Replace: "zzz"},
	{Search: "never", Replace: "x"},
}

// 🧪 TestTally checks aggregation across written and failed archives
func TestTally(t *testing.T) {
	ctx := testContext(t)
	tally := NewTally(testRules)

	tally.RunStarted(ctx, log.RunStartedEvent{RunID: "run-1", Archives: 3})

	tally.ArchiveStarted(ctx, log.ArchiveStartedEvent{Archive: "/in/b.qgz", Attempt: 1})
	tally.MemberSkipped(ctx, log.MemberSkippedEvent{Archive: "/in/b.qgz", Member: "old.qgs"})
	tally.ArchiveDone(ctx, log.ArchiveDoneEvent{
		Archive:  "/in/b.qgz",
		Output:   "/out/b_MODIFICADO.qgz",
		Members:  2,
		Report:   text.MatchReport{"foo": 3, "baz": 0},
		Attempts: 1,
	})

	tally.ArchiveStarted(ctx, log.ArchiveStartedEvent{Archive: "/in/a.qgz", Attempt: 1})
	tally.ArchiveDone(ctx, log.ArchiveDoneEvent{
		Archive: "/in/a.qgz",
		Output:  "/out/a_MODIFICADO.qgz",
		Members: 1,
		Report:  text.MatchReport{"foo": 1, "baz": 2},
	})

	tally.ArchiveDone(ctx, log.ArchiveDoneEvent{
		Archive:  "/in/c.qgz",
		Attempts: 2,
		Err:      errors.New("not a zip"),
	})
	tally.RunFinished(ctx, log.RunFinishedEvent{RunID: "run-1"})

	s := tally.Summary()
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.False(t, s.OK())
	assert.Equal(t, 6, s.Replacements())

	require.Len(t, s.Archives, 3)
	assert.Equal(t, "/in/a.qgz", s.Archives[0].Archive, "archives sorted by path")
	assert.Equal(t, []string{"old.qgs"}, s.Archives[1].SkippedMembers)
	assert.Equal(t, StatusFailed, s.Archives[2].Status)
	assert.Equal(t, "not a zip", s.Archives[2].Error)
	assert.Empty(t, s.Archives[2].Output)

	assert.Equal(t, []RuleTotal{
		{Index: 1, Search: "foo", Replace: "bar", Count: 4, Ran: true},
		{Index: 2, Search: "baz", Replace: "qux", Count: 2, Ran: true},
		{Index: 3, Search: "foo", Replace: "zzz", Count: 4, Ran: true, SharedWith: 1},
		{Index: 4, Search: "never", Replace: "x", Count: 0, Ran: false},
	}, s.Rules)
}

func TestTallyRetryForgetsSkippedMembers(t *testing.T) {
	ctx := testContext(t)
	tally := NewTally(testRules)

	tally.ArchiveStarted(ctx, log.ArchiveStartedEvent{Archive: "a.qgz", Attempt: 1})
	tally.MemberSkipped(ctx, log.MemberSkippedEvent{Archive: "a.qgz", Member: "x.qgs"})
	tally.ArchiveStarted(ctx, log.ArchiveStartedEvent{Archive: "a.qgz", Attempt: 2})
	tally.ArchiveDone(ctx, log.ArchiveDoneEvent{Archive: "a.qgz", Attempts: 2})

	s := tally.Summary()
	require.Len(t, s.Archives, 1)
	assert.Empty(t, s.Archives[0].SkippedMembers)
	assert.Equal(t, 2, s.Archives[0].Attempts)
}

func TestTallyConcurrent(t *testing.T) {
	ctx := testContext(t)
	tally := NewTally(rule.Set{{Search: "a", Replace: "b"}})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tally.ArchiveDone(ctx, log.ArchiveDoneEvent{
				Archive: filepath.Join("in", string(rune('a'+i%26)), "x.qgz"),
				Report:  text.MatchReport{"a": 1},
			})
		}(i)
	}
	wg.Wait()

	s := tally.Summary()
	assert.Equal(t, 50, s.Succeeded)
	assert.Equal(t, 50, s.Rules[0].Count)
}

func TestTableFormatter(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	s := &Summary{
		Rules: []RuleTotal{
			{Index: 1, Search: "foo", Replace: "bar", Count: 4, Ran: true},
			{Index: 2, Search: "never", Replace: "x"},
		},
		Archives: []ArchiveResult{
			{Archive: "/in/a.qgz", Output: "/out/a_MODIFICADO.qgz", Status: StatusWritten, Members: 2, SkippedMembers: []string{"b.qgs"}, Replacements: 4},
			{Archive: "/in/c.qgz", Status: StatusFailed, Error: "not a zip"},
		},
		Succeeded: 1,
		Failed:    1,
	}

	out, err := NewTableFormatter().Format(s)
	require.NoError(t, err)

	for _, want := range []string{
		"foo", "never ran",
		"a.qgz", "a_MODIFICADO.qgz", "2 (1 skipped)",
		"c.qgz", "failed", "not a zip",
		"❌ 1 archives written, 1 failed, 4 replacements",
	} {
		assert.Contains(t, out, want)
	}
}

func TestFormatRuleCount(t *testing.T) {
	tests := []struct {
		name string
		in   RuleTotal
		want string
	}{
		{name: "never_ran", in: RuleTotal{}, want: "never ran"},
		{name: "zero_matches", in: RuleTotal{Ran: true}, want: "0"},
		{name: "matches", in: RuleTotal{Ran: true, Count: 7}, want: "7"},
		{name: "shared", in: RuleTotal{Ran: true, Count: 7, SharedWith: 2}, want: "7 (shared with #2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRuleCount(tt.in))
		})
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.json")
	s := &Summary{
		RunID:     "run-1",
		Rules:     []RuleTotal{{Index: 1, Search: "foo", Replace: "bar", Count: 1, Ran: true}},
		Archives:  []ArchiveResult{{Archive: "a.qgz", Status: StatusWritten, Report: text.MatchReport{"foo": 1}}},
		Succeeded: 1,
	}

	require.NoError(t, WriteReport(testContext(t), path, s))
	assert.NoFileExists(t, path+".tmp")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	archives := decoded["archives"].([]any)
	assert.Equal(t, "written", archives[0].(map[string]any)["status"])
}
