// Package terminal renders the resin countdown in a terminal. Focus events
// from the terminal stand in for page visibility.
package terminal

import (
	"context"
	"fmt"
	"strconv"

	"resintimer/internal/app/timer"
	"resintimer/internal/domain/resin"

	"github.com/gdamore/tcell/v2"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, ev resin.Event) (timer.Snapshot, error)
}

var (
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleValue  = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleEdit   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
	styleMuted  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

type View struct {
	Timer Dispatcher

	screen  tcell.Screen
	updates chan timer.Change
	snap    timer.Snapshot
	input   string
	status  string
}

func NewView(screen tcell.Screen) *View {
	return &View{
		screen:  screen,
		updates: make(chan timer.Change, 1),
	}
}

// Publish keeps only the newest change; the view redraws from it on its own
// goroutine.
func (v *View) Publish(change timer.Change) {
	select {
	case v.updates <- change:
		return
	default:
	}
	select {
	case <-v.updates:
	default:
	}
	select {
	case v.updates <- change:
	default:
	}
}

func (v *View) Run(ctx context.Context) error {
	v.dispatch(ctx, resin.Sync{})
	v.draw()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change := <-v.updates:
			v.snap = change.Snapshot
			v.draw()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !v.HandleEvent(ctx, ev) {
				return nil
			}
			v.draw()
		}
	}
}

// HandleEvent returns false when the user asked to quit.
func (v *View) HandleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ctx, ev)
	case *tcell.EventFocus:
		v.dispatch(ctx, resin.VisibilityChanged{Visible: ev.Focused})
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *View) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return false
	case tcell.KeyEnter:
		if v.snap.Editing {
			v.dispatch(ctx, resin.SetResource{Raw: v.input})
			v.input = ""
		}
	case tcell.KeyEscape:
		if v.snap.Editing {
			v.dispatch(ctx, resin.CancelEdit{})
			v.input = ""
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if v.snap.Editing && v.input != "" {
			v.input = v.input[:len(v.input)-1]
			v.dispatch(ctx, resin.EditInput{Raw: v.input})
		}
	case tcell.KeyRune:
		r := ev.Rune()
		switch {
		case r >= '0' && r <= '9':
			if !v.snap.Editing {
				v.dispatch(ctx, resin.BeginEdit{})
				v.input = ""
			}
			if len(v.input) < 3 {
				v.input += string(r)
				v.dispatch(ctx, resin.EditInput{Raw: v.input})
			}
		case r == 's' && !v.snap.Editing:
			v.dispatch(ctx, resin.SubtractUnits{})
		case r == 'q' && !v.snap.Editing:
			return false
		}
	}
	return true
}

func (v *View) dispatch(ctx context.Context, ev resin.Event) {
	if v.Timer == nil {
		return
	}
	snap, err := v.Timer.Dispatch(ctx, ev)
	if err != nil {
		v.status = err.Error()
		return
	}
	v.status = ""
	v.snap = snap
}

func (v *View) draw() {
	v.screen.Clear()
	s := v.snap

	drawText(v.screen, 1, 0, styleTitle, "Resin")
	value := strconv.Itoa(s.Current)
	if s.Editing {
		value = v.input + "_"
	}
	x := drawText(v.screen, 1, 1, styleValue, value)
	drawText(v.screen, x, 1, styleMuted, fmt.Sprintf(" / %d", s.Max))

	switch {
	case s.Full:
		drawText(v.screen, 1, 2, styleValue, "Full")
	default:
		line := "Full in " + s.Remaining
		if s.TargetTimeOfDay != "" {
			line += " (at " + s.TargetTimeOfDay + ")"
		}
		drawText(v.screen, 1, 2, styleValue, line)
	}

	if s.Editing {
		drawText(v.screen, 1, 4, styleEdit, "[Enter] save  [Esc] cancel")
	} else {
		spend := "[s] spend"
		if !s.CanConsume {
			spend = "[s] spend (not enough)"
		}
		drawText(v.screen, 1, 4, styleMuted, "[0-9] edit  "+spend+"  [q] quit")
	}
	if v.status != "" {
		drawText(v.screen, 1, 5, styleStatus, v.status)
	}
	v.screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) int {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
