package resin

import "time"

// Initialize builds the startup state from the raw persisted value.
func Initialize(persisted string, now time.Time) State {
	target, ok := ParseTarget(persisted)
	if !ok {
		return Full()
	}
	st := Full()
	st.TargetFullAt = target
	st.Current, st.Remaining = Derive(target, now)
	return st
}

// Reduce applies ev to st. Events are expected one at a time, in arrival order.
func Reduce(st State, ev Event, now time.Time) (State, Effect) {
	switch e := ev.(type) {
	case SetResource:
		return setResource(st, e.Raw, now)
	case BeginEdit:
		st.Editing = true
		return st, Effect{Applied: true}
	case EditInput:
		return editInput(st, e.Raw)
	case CancelEdit:
		return cancelEdit(st, now)
	case SubtractUnits:
		return subtractUnits(st, e.Units, now)
	case Tick:
		return tick(st, e.Period)
	case VisibilityChanged:
		return visibilityChanged(st, e.Visible, now)
	default:
		return st, Effect{}
	}
}

func setResource(st State, raw string, now time.Time) (State, Effect) {
	value, ok := ParseInput(raw)
	if !ok {
		return st, Effect{}
	}
	st.Editing = false
	st.TargetFullAt = TargetFor(value, now)
	st.Current = value
	_, st.Remaining = Derive(st.TargetFullAt, now)
	return st, Effect{Applied: true, Persist: true, TargetFullAt: st.TargetFullAt}
}

func editInput(st State, raw string) (State, Effect) {
	value, ok := ParseInput(raw)
	if !ok {
		return st, Effect{}
	}
	st.Editing = true
	st.Current = value
	return st, Effect{Applied: true}
}

func cancelEdit(st State, now time.Time) (State, Effect) {
	if !st.Editing {
		return st, Effect{}
	}
	st.Editing = false
	st.Current, st.Remaining = Derive(st.TargetFullAt, now)
	return st, Effect{Applied: true}
}

func subtractUnits(st State, units int, now time.Time) (State, Effect) {
	if units == 0 {
		units = DefaultSpendUnits
	}
	// Current is provisional while editing
	if st.Editing || !st.CanSpend(units) {
		return st, Effect{}
	}
	base := now
	if st.Remaining > 0 && st.TargetFullAt.After(now) {
		base = st.TargetFullAt
	}
	st.TargetFullAt = base.Add(time.Duration(units) * UnitTime)
	st.Current, st.Remaining = Derive(st.TargetFullAt, now)
	return st, Effect{Applied: true, Persist: true, TargetFullAt: st.TargetFullAt}
}

func tick(st State, period time.Duration) (State, Effect) {
	if st.Editing || !st.Visible {
		return st, Effect{}
	}
	if st.Remaining <= 0 {
		if st.Current == Max {
			return st, Effect{}
		}
		st.Current, st.Remaining = Max, 0
		return st, Effect{Applied: true}
	}
	if period <= 0 {
		period = TickPeriod
	}
	st.Remaining -= period
	if st.Remaining <= 0 {
		st.Current, st.Remaining = Max, 0
		return st, Effect{Applied: true}
	}
	st.Current = currentFor(st.Remaining)
	return st, Effect{Applied: true}
}

func visibilityChanged(st State, visible bool, now time.Time) (State, Effect) {
	wasVisible := st.Visible
	st.Visible = visible
	if !visible || wasVisible {
		return st, Effect{Applied: wasVisible != visible}
	}
	if !st.Editing {
		st.Current, st.Remaining = Derive(st.TargetFullAt, now)
	} else {
		_, st.Remaining = Derive(st.TargetFullAt, now)
	}
	return st, Effect{Applied: true}
}
