package inmemory

import "sync"

type Snapshot struct {
	EventTotal      uint64            `json:"event_total"`
	EventApplied    uint64            `json:"event_applied"`
	EventIgnored    uint64            `json:"event_ignored"`
	PersistFailures uint64            `json:"persist_failures"`
	AppliedByEvent  map[string]uint64 `json:"applied_by_event"`
	IgnoredByEvent  map[string]uint64 `json:"ignored_by_event"`
}

type Recorder struct {
	mu              sync.Mutex
	applied         uint64
	ignored         uint64
	persistFailures uint64
	appliedBy       map[string]uint64
	ignoredBy       map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		appliedBy: map[string]uint64{},
		ignoredBy: map[string]uint64{},
	}
}

func (r *Recorder) RecordApplied(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied++
	r.appliedBy[event]++
}

func (r *Recorder) RecordIgnored(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignored++
	r.ignoredBy[event]++
}

func (r *Recorder) RecordPersistFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persistFailures++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		EventApplied:    r.applied,
		EventIgnored:    r.ignored,
		EventTotal:      r.applied + r.ignored,
		PersistFailures: r.persistFailures,
		AppliedByEvent:  make(map[string]uint64, len(r.appliedBy)),
		IgnoredByEvent:  make(map[string]uint64, len(r.ignoredBy)),
	}
	for k, v := range r.appliedBy {
		out.AppliedByEvent[k] = v
	}
	for k, v := range r.ignoredBy {
		out.IgnoredByEvent[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
