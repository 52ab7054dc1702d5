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

// Package log defines the events a batch run emits and the sinks that
// consume them. The batch driver never prints; it only talks to a Sink.
package log

import (
	"context"
	"time"

	"github.com/walteh/qgzedit/pkg/rule"
	"github.com/walteh/qgzedit/pkg/text"
)

// 📣 Sink consumes run events. Implementations must be safe for concurrent use.
type Sink interface {
	RunStarted(ctx context.Context, ev RunStartedEvent)
	ConfigLoaded(ctx context.Context, ev ConfigLoadedEvent)
	RuleWarning(ctx context.Context, w rule.Warning)
	ArchiveStarted(ctx context.Context, ev ArchiveStartedEvent)
	MemberSkipped(ctx context.Context, ev MemberSkippedEvent)
	RuleApplied(ctx context.Context, ev RuleAppliedEvent)
	ArchiveDone(ctx context.Context, ev ArchiveDoneEvent)
	RunFinished(ctx context.Context, ev RunFinishedEvent)
}

// RunStartedEvent opens a run, after the input folder has been scanned.
type RunStartedEvent struct {
	RunID     string
	InputDir  string
	OutputDir string
	Archives  int
	Workers   int
}

type ConfigLoadedEvent struct {
	Path    string
	Rules   int
	Postfix string
}

type ArchiveStartedEvent struct {
	Archive string
	Output  string
	Attempt int // 1-based
}

// MemberSkippedEvent reports a text member left untouched because it
// could not be decoded.
type MemberSkippedEvent struct {
	Archive string
	Member  string
	Err     error
}

// RuleAppliedEvent carries one rule's count for one member. Count is taken
// from the original member text.
type RuleAppliedEvent struct {
	Archive string
	Member  string
	Index   int // 1-based position in the rule set
	Search  string
	Replace string
	Count   int
}

// ArchiveDoneEvent closes an archive. Err is nil on success.
type ArchiveDoneEvent struct {
	Archive  string
	Output   string
	Members  int
	Skipped  int
	Report   text.MatchReport
	Attempts int
	Duration time.Duration
	Err      error
}

type RunFinishedEvent struct {
	RunID     string
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// 🔀 Multi fans every event out to each sink in order.
type Multi []Sink

func (m Multi) RunStarted(ctx context.Context, ev RunStartedEvent) {
	for _, s := range m {
		s.RunStarted(ctx, ev)
	}
}

func (m Multi) ConfigLoaded(ctx context.Context, ev ConfigLoadedEvent) {
	for _, s := range m {
		s.ConfigLoaded(ctx, ev)
	}
}

func (m Multi) RuleWarning(ctx context.Context, w rule.Warning) {
	for _, s := range m {
		s.RuleWarning(ctx, w)
	}
}

func (m Multi) ArchiveStarted(ctx context.Context, ev ArchiveStartedEvent) {
	for _, s := range m {
		s.ArchiveStarted(ctx, ev)
	}
}

func (m Multi) MemberSkipped(ctx context.Context, ev MemberSkippedEvent) {
	for _, s := range m {
		s.MemberSkipped(ctx, ev)
	}
}

func (m Multi) RuleApplied(ctx context.Context, ev RuleAppliedEvent) {
	for _, s := range m {
		s.RuleApplied(ctx, ev)
	}
}

func (m Multi) ArchiveDone(ctx context.Context, ev ArchiveDoneEvent) {
	for _, s := range m {
		s.ArchiveDone(ctx, ev)
	}
}

func (m Multi) RunFinished(ctx context.Context, ev RunFinishedEvent) {
	for _, s := range m {
		s.RunFinished(ctx, ev)
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the sink from context. Without one, events are dropped.
func FromContext(ctx context.Context) Sink {
	sink, ok := ctx.Value(contextKey{}).(Sink)
	if !ok {
		return Multi(nil)
	}
	return sink
}

// 🎯 NewContext adds the sink to context
func NewContext(ctx context.Context, s Sink) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}
