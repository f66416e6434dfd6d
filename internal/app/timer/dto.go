package timer

import (
	"time"

	"resintimer/internal/domain/resin"
)

type Snapshot struct {
	Current         int        `json:"current"`
	Max             int        `json:"max"`
	RemainingMS     int64      `json:"remaining_ms"`
	Remaining       string     `json:"remaining"`
	TargetFullAt    *time.Time `json:"target_full_at,omitempty"`
	TargetFullAtMS  int64      `json:"target_full_at_ms,omitempty"`
	TargetTimeOfDay string     `json:"target_time_of_day,omitempty"`
	Full            bool       `json:"full"`
	Editing         bool       `json:"editing"`
	Visible         bool       `json:"visible"`
	CanConsume      bool       `json:"can_consume"`
	FirstRun        bool       `json:"first_run"`
}

// Change is published after every event that altered the state.
type Change struct {
	ID       string    `json:"id"`
	Event    string    `json:"event"`
	At       time.Time `json:"at"`
	Snapshot Snapshot  `json:"snapshot"`
}

func NewSnapshot(st resin.State, spendUnits int, firstRun bool, loc *time.Location) Snapshot {
	if loc == nil {
		loc = time.Local
	}
	out := Snapshot{
		Current:     st.Current,
		Max:         resin.Max,
		RemainingMS: st.Remaining.Milliseconds(),
		Remaining:   resin.FormatRemaining(st.Remaining),
		Full:        st.IsFull(),
		Editing:     st.Editing,
		Visible:     st.Visible,
		CanConsume:  st.CanSpend(spendUnits),
		FirstRun:    firstRun,
	}
	if st.Remaining > 0 && !st.TargetFullAt.IsZero() {
		target := st.TargetFullAt.In(loc)
		out.TargetFullAt = &target
		out.TargetFullAtMS = target.UnixMilli()
		out.TargetTimeOfDay = target.Format("15:04")
	}
	return out
}
