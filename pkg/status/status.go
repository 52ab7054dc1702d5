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
	"sort"
	"sync"
	"time"

	"github.com/walteh/qgzedit/pkg/log"
	"github.com/walteh/qgzedit/pkg/rule"
	"github.com/walteh/qgzedit/pkg/text"
)

// 📊 ArchiveStatus is the outcome of one archive
type ArchiveStatus int

const (
	StatusUnknown ArchiveStatus = iota
	StatusWritten               // output archive written
	StatusFailed                // no output written
)

// String returns a string representation of ArchiveStatus
func (s ArchiveStatus) String() string {
	switch s {
	case StatusWritten:
		return "written"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s ArchiveStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// 📄 ArchiveResult describes one processed archive
type ArchiveResult struct {
	Archive        string           `json:"archive"`
	Output         string           `json:"output,omitempty"`
	Status         ArchiveStatus    `json:"status"`
	Members        int              `json:"members"`
	SkippedMembers []string         `json:"skipped_members,omitempty"`
	Replacements   int              `json:"replacements"`
	Report         text.MatchReport `json:"report,omitempty"`
	Attempts       int              `json:"attempts"`
	Duration       time.Duration    `json:"duration_ns"`
	Error          string           `json:"error,omitempty"`

	Err error `json:"-"`
}

// RuleTotal is one rule's count across the run. Ran is false when no
// archive ever applied the rule, which differs from matching 0 times.
type RuleTotal struct {
	Index      int    `json:"index"`
	Search     string `json:"search"`
	Replace    string `json:"replace"`
	Count      int    `json:"count"`
	Ran        bool   `json:"ran"`
	SharedWith int    `json:"shared_with,omitempty"` // first rule with the same search, 0 if none
}

// 📚 Summary is the run-wide aggregate
type Summary struct {
	RunID     string          `json:"run_id"`
	Rules     []RuleTotal     `json:"rules"`
	Archives  []ArchiveResult `json:"archives"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Duration  time.Duration   `json:"duration_ns"`
}

// OK reports whether every archive was written.
func (s *Summary) OK() bool {
	return s.Failed == 0
}

// Replacements returns the number of replacements across all written archives.
func (s *Summary) Replacements() int {
	total := 0
	for _, a := range s.Archives {
		total += a.Replacements
	}
	return total
}

// 🧮 Tally aggregates run events into a Summary. It is a log.Sink.
type Tally struct {
	mu       sync.Mutex
	rules    rule.Set
	report   text.MatchReport
	archives []ArchiveResult
	skipped  map[string][]string
	runID    string
	duration time.Duration
}

var _ log.Sink = (*Tally)(nil)

// 🏭 NewTally creates a tally for the given rule set
func NewTally(rules rule.Set) *Tally {
	return &Tally{
		rules:   rules,
		report:  text.MatchReport{},
		skipped: map[string][]string{},
	}
}

func (t *Tally) RunStarted(_ context.Context, ev log.RunStartedEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runID = ev.RunID
}

func (t *Tally) ConfigLoaded(context.Context, log.ConfigLoadedEvent) {}

func (t *Tally) RuleWarning(context.Context, rule.Warning) {}

func (t *Tally) RuleApplied(context.Context, log.RuleAppliedEvent) {}

// ArchiveStarted forgets skipped members from an earlier attempt.
func (t *Tally) ArchiveStarted(_ context.Context, ev log.ArchiveStartedEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.skipped, ev.Archive)
}

func (t *Tally) MemberSkipped(_ context.Context, ev log.MemberSkippedEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skipped[ev.Archive] = append(t.skipped[ev.Archive], ev.Member)
}

func (t *Tally) ArchiveDone(_ context.Context, ev log.ArchiveDoneEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	res := ArchiveResult{
		Archive:        ev.Archive,
		Output:         ev.Output,
		Status:         StatusWritten,
		Members:        ev.Members,
		SkippedMembers: t.skipped[ev.Archive],
		Report:         ev.Report,
		Replacements:   ev.Report.Total(),
		Attempts:       ev.Attempts,
		Duration:       ev.Duration,
	}
	delete(t.skipped, ev.Archive)

	if ev.Err != nil {
		res.Status = StatusFailed
		res.Output = ""
		res.Err = ev.Err
		res.Error = ev.Err.Error()
		res.Replacements = 0
		res.Report = nil
	} else {
		t.report.Merge(ev.Report)
	}

	t.archives = append(t.archives, res)
}

func (t *Tally) RunFinished(_ context.Context, ev log.RunFinishedEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.duration = ev.Duration
}

// Summary returns a snapshot of the tally. Archives are sorted by path.
func (t *Tally) Summary() *Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &Summary{
		RunID:    t.runID,
		Archives: append([]ArchiveResult(nil), t.archives...),
		Duration: t.duration,
	}

	sort.Slice(s.Archives, func(i, j int) bool {
		return s.Archives[i].Archive < s.Archives[j].Archive
	})
	for _, a := range s.Archives {
		if a.Status == StatusWritten {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}

	first := map[string]int{}
	for i, r := range t.rules {
		total := RuleTotal{
			Index:   i + 1,
			Search:  r.Search,
			Replace: r.Replace,
			Count:   t.report[r.Search],
			Ran:     t.report.Ran(r.Search),
		}
		if idx, ok := first[r.Search]; ok {
			total.SharedWith = idx
		} else {
			first[r.Search] = i + 1
		}
		s.Rules = append(s.Rules, total)
	}

	return s
}
