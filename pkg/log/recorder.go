package log

import (
	"context"
	"sync"

	"github.com/walteh/qgzedit/pkg/rule"
)

// EventKind names a Sink method.
type EventKind string

const (
	KindRunStarted     EventKind = "run_started"
	KindConfigLoaded   EventKind = "config_loaded"
	KindRuleWarning    EventKind = "rule_warning"
	KindArchiveStarted EventKind = "archive_started"
	KindMemberSkipped  EventKind = "member_skipped"
	KindRuleApplied    EventKind = "rule_applied"
	KindArchiveDone    EventKind = "archive_done"
	KindRunFinished    EventKind = "run_finished"
)

// Event is one recorded sink call. Payload holds the event struct, or a
// rule.Warning for KindRuleWarning.
type Event struct {
	Kind    EventKind
	Payload any
}

// 📼 Recorder keeps every event in memory, in arrival order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(kind EventKind, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: kind, Payload: payload})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kind of every recorded event.
func (r *Recorder) Kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

// ArchiveDoneEvents returns every recorded ArchiveDoneEvent.
func (r *Recorder) ArchiveDoneEvents() []ArchiveDoneEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ArchiveDoneEvent
	for _, ev := range r.events {
		if done, ok := ev.Payload.(ArchiveDoneEvent); ok {
			out = append(out, done)
		}
	}
	return out
}

func (r *Recorder) RunStarted(_ context.Context, ev RunStartedEvent) {
	r.record(KindRunStarted, ev)
}

func (r *Recorder) ConfigLoaded(_ context.Context, ev ConfigLoadedEvent) {
	r.record(KindConfigLoaded, ev)
}

func (r *Recorder) RuleWarning(_ context.Context, w rule.Warning) {
	r.record(KindRuleWarning, w)
}

func (r *Recorder) ArchiveStarted(_ context.Context, ev ArchiveStartedEvent) {
	r.record(KindArchiveStarted, ev)
}

func (r *Recorder) MemberSkipped(_ context.Context, ev MemberSkippedEvent) {
	r.record(KindMemberSkipped, ev)
}

func (r *Recorder) RuleApplied(_ context.Context, ev RuleAppliedEvent) {
	r.record(KindRuleApplied, ev)
}

func (r *Recorder) ArchiveDone(_ context.Context, ev ArchiveDoneEvent) {
	r.record(KindArchiveDone, ev)
}

func (r *Recorder) RunFinished(_ context.Context, ev RunFinishedEvent) {
	r.record(KindRunFinished, ev)
}
