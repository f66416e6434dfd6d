//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

type snapshot struct {
	Current     int    `json:"current"`
	Max         int    `json:"max"`
	RemainingMS int64  `json:"remaining_ms"`
	Remaining   string `json:"remaining"`
	Full        bool   `json:"full"`
	Editing     bool   `json:"editing"`
	Visible     bool   `json:"visible"`
	CanConsume  bool   `json:"can_consume"`
}

func TestRemoteAPI_MainEndpoints(t *testing.T) {
	baseURL := strings.TrimRight(envOr("E2E_BASE_URL", "http://localhost:8080"), "/")
	client := &http.Client{Timeout: 20 * time.Second}

	t.Run("set then read back", func(t *testing.T) {
		snap := mustSnapshot(t, client, http.MethodPost, baseURL+"/api/resin/set", map[string]any{"value": "100"})
		if snap.Current != 100 || snap.Full || snap.Editing {
			t.Fatalf("unexpected snapshot after set: %+v", snap)
		}
		if snap.RemainingMS <= 0 || snap.RemainingMS > 60*8*60*1000 {
			t.Fatalf("unexpected remaining_ms: %d", snap.RemainingMS)
		}

		got := mustSnapshot(t, client, http.MethodGet, baseURL+"/api/resin", nil)
		if got.Current != 100 && got.Current != 101 {
			t.Fatalf("expected ~100 after set, got %+v", got)
		}
	})

	t.Run("subtract default units", func(t *testing.T) {
		before := mustSnapshot(t, client, http.MethodGet, baseURL+"/api/resin", nil)
		after := mustSnapshot(t, client, http.MethodPost, baseURL+"/api/resin/subtract", map[string]any{})
		if before.CanConsume && after.Current > before.Current-19 {
			t.Fatalf("expected ~20 spent: before=%d after=%d", before.Current, after.Current)
		}
	})

	t.Run("edit then cancel restores", func(t *testing.T) {
		before := mustSnapshot(t, client, http.MethodGet, baseURL+"/api/resin", nil)
		mustSnapshot(t, client, http.MethodPost, baseURL+"/api/resin/edit/begin", nil)
		editing := mustSnapshot(t, client, http.MethodPost, baseURL+"/api/resin/edit", map[string]any{"value": "7"})
		if !editing.Editing || editing.Current != 7 {
			t.Fatalf("expected provisional 7, got %+v", editing)
		}
		after := mustSnapshot(t, client, http.MethodPost, baseURL+"/api/resin/edit/cancel", nil)
		if after.Editing || after.Current < before.Current || after.Current > before.Current+1 {
			t.Fatalf("expected restore near %d, got %+v", before.Current, after)
		}
	})

	t.Run("invalid input is rejected", func(t *testing.T) {
		status, body, err := doRequest(client, http.MethodPost, baseURL+"/api/resin/set", map[string]any{"value": "12a"})
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", status, string(body))
		}
	})

	t.Run("visibility round trip", func(t *testing.T) {
		hidden := mustSnapshot(t, client, http.MethodPost, baseURL+"/api/resin/visibility", map[string]any{"visible": false})
		if hidden.Visible {
			t.Fatalf("expected hidden, got %+v", hidden)
		}
		shown := mustSnapshot(t, client, http.MethodPost, baseURL+"/api/resin/visibility", map[string]any{"visible": true})
		if !shown.Visible {
			t.Fatalf("expected visible, got %+v", shown)
		}
	})

	t.Run("ops kpi", func(t *testing.T) {
		status, body, err := doRequest(client, http.MethodGet, baseURL+"/ops/kpi", nil)
		if err != nil {
			t.Fatalf("kpi request: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("kpi status=%d body=%s", status, string(body))
		}
		var kpi map[string]any
		if err := json.Unmarshal(body, &kpi); err != nil {
			t.Fatalf("unmarshal kpi: %v body=%s", err, string(body))
		}
		if _, ok := kpi["event_total"]; !ok {
			t.Fatalf("kpi missing event_total: %s", string(body))
		}
	})
}

func mustSnapshot(t *testing.T, client *http.Client, method, url string, body any) snapshot {
	t.Helper()
	status, raw, err := doRequest(client, method, url, body)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	if status != http.StatusOK {
		t.Fatalf("%s %s status=%d body=%s", method, url, status, string(raw))
	}
	var out snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal snapshot: %v body=%s", err, string(raw))
	}
	return out
}

func doRequest(client *http.Client, method, url string, body any) (int, []byte, error) {
	var payloadBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		payloadBytes = b
	}

	var lastStatus int
	var lastBody []byte
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		var payload io.Reader
		if len(payloadBytes) > 0 {
			payload = bytes.NewReader(payloadBytes)
		}
		req, err := http.NewRequest(method, url, payload)
		if err != nil {
			return 0, nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		lastStatus, lastBody, lastErr = resp.StatusCode, respBody, nil
		if resp.StatusCode >= 500 {
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		return resp.StatusCode, respBody, nil
	}
	if lastErr != nil {
		return 0, nil, lastErr
	}
	return lastStatus, lastBody, nil
}

func envOr(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
