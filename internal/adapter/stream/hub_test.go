package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resintimer/internal/app/timer"
	"resintimer/internal/domain/resin"

	"github.com/gorilla/websocket"
)

type recordingDispatcher struct {
	events chan resin.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev resin.Event) (timer.Snapshot, error) {
	d.events <- ev
	return timer.Snapshot{}, nil
}

var _ timer.Publisher = (*Hub)(nil)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readChange(t *testing.T, conn *websocket.Conn) timer.Change {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var change timer.Change
	if err := json.Unmarshal(msg, &change); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return change
}

func waitPublished(t *testing.T, h *Hub, id string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(h.broadcast) > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("change %s not consumed", id)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_ReplaysLastChangeThenStreams(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	h.Publish(timer.Change{ID: "c1", Event: "set_resource", Snapshot: timer.Snapshot{Current: 100}})
	waitPublished(t, h, "c1")

	conn := dialHub(t, h)
	first := readChange(t, conn)
	if first.ID != "c1" || first.Snapshot.Current != 100 {
		t.Fatalf("expected replay of c1, got %+v", first)
	}

	h.Publish(timer.Change{ID: "c2", Event: "tick", Snapshot: timer.Snapshot{Current: 101}})
	second := readChange(t, conn)
	if second.ID != "c2" || second.Snapshot.Current != 101 {
		t.Fatalf("expected c2, got %+v", second)
	}
}

func TestHub_ForwardsVisibilityMessages(t *testing.T) {
	h := NewHub()
	d := &recordingDispatcher{events: make(chan resin.Event, 4)}
	h.Dispatcher = d
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	conn := dialHub(t, h)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"visibility","visible":false}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"noise"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"visibility","visible":true}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, want := range []bool{false, true} {
		select {
		case ev := <-d.events:
			vis, ok := ev.(resin.VisibilityChanged)
			if !ok || vis.Visible != want {
				t.Fatalf("expected visibility %v, got %#v", want, ev)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for visibility %v", want)
		}
	}
}

func TestHub_PublishDoesNotBlockWithoutRun(t *testing.T) {
	h := NewHub()
	for i := 0; i < cap(h.broadcast)+5; i++ {
		h.Publish(timer.Change{ID: "x"})
	}
	if h.Dropped() != 5 {
		t.Fatalf("expected 5 dropped, got %d", h.Dropped())
	}
}
