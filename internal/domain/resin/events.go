package resin

import "time"

// Event is an input to Reduce.
type Event interface {
	Name() string
}

// Sync requests the current state without changing it.
type Sync struct{}

func (Sync) Name() string { return "sync" }

// SetResource commits a typed amount and starts a new countdown.
type SetResource struct {
	Raw string
}

func (SetResource) Name() string { return "set_resource" }

type BeginEdit struct{}

func (BeginEdit) Name() string { return "begin_edit" }

// EditInput is a provisional keystroke-level value; it is never persisted.
type EditInput struct {
	Raw string
}

func (EditInput) Name() string { return "edit_input" }

type CancelEdit struct{}

func (CancelEdit) Name() string { return "cancel_edit" }

// SubtractUnits spends Units (DefaultSpendUnits when zero).
type SubtractUnits struct {
	Units int
}

func (SubtractUnits) Name() string { return "subtract_units" }

// Tick advances the countdown by Period (TickPeriod when zero).
type Tick struct {
	Period time.Duration
}

func (Tick) Name() string { return "tick" }

type VisibilityChanged struct {
	Visible bool
}

func (VisibilityChanged) Name() string { return "visibility_changed" }

// Effect describes the side effect of a reduction.
type Effect struct {
	Applied      bool
	Persist      bool
	TargetFullAt time.Time
}
