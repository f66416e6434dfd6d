package resin

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	Max               = 160
	UnitTime          = 8 * time.Minute
	DefaultSpendUnits = 20
	TickPeriod        = time.Second
)

var inputPattern = regexp.MustCompile(`^[0-9]{0,3}$`)

// State is the in-memory view of the resource. TargetFullAt is the only field
// that is persisted; the rest can be rebuilt from it with Derive.
type State struct {
	Current      int           `json:"current"`
	TargetFullAt time.Time     `json:"target_full_at"`
	Remaining    time.Duration `json:"remaining"`
	Editing      bool          `json:"editing"`
	Visible      bool          `json:"visible"`
}

func Full() State {
	return State{Current: Max, Visible: true}
}

func (s State) IsFull() bool {
	return s.Remaining <= 0
}

func (s State) CanSpend(units int) bool {
	return units > 0 && s.Current >= units
}

// Derive computes the current amount and the time left until full.
func Derive(targetFullAt, now time.Time) (int, time.Duration) {
	if targetFullAt.IsZero() {
		return Max, 0
	}
	remaining := targetFullAt.Sub(now)
	if remaining <= 0 {
		return Max, 0
	}
	return currentFor(remaining), remaining
}

func currentFor(remaining time.Duration) int {
	if remaining <= 0 {
		return Max
	}
	if remaining >= Max*UnitTime {
		return 0
	}
	short := int(remaining / UnitTime)
	if remaining%UnitTime != 0 {
		short++
	}
	return Max - short
}

// ParseInput accepts at most three ASCII digits. Empty input is zero and
// values above Max saturate.
func ParseInput(raw string) (int, bool) {
	if !inputPattern.MatchString(raw) {
		return 0, false
	}
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return Clamp(n), true
}

func Clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > Max {
		return Max
	}
	return n
}

// TargetFor is the refill point for a given amount at now.
func TargetFor(value int, now time.Time) time.Time {
	deficit := Max - Clamp(value)
	return now.Add(time.Duration(deficit) * UnitTime)
}

// ParseTarget reads a persisted millisecond timestamp.
func ParseTarget(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func FormatTarget(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// FormatRemaining renders d as HH:MM:SS. Hours are not wrapped at 24.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}
