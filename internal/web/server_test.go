package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/touch-sensor/internal/debounce"
	"github.com/sweeney/touch-sensor/internal/logic"
	"github.com/sweeney/touch-sensor/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:      10,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		Input:       "gpio",
		Channels:    []logic.Channel{{Name: "pad1", Threshold: 3}, {Name: "pad2", Threshold: 3}},
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func getStatus(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(
		map[string]debounce.State{"pad1": debounce.Touched, "pad2": debounce.Released},
		true,
		logic.EventCounts{"pad1": {Touch: 5, Release: 4}},
	)
	tr.SetMQTTConnected(true)

	sj := getStatus(t, ts.URL)

	if len(sj.Status.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(sj.Status.Channels))
	}
	if sj.Status.Channels[0].State != "TOUCHED" {
		t.Errorf("pad1: got %q, want TOUCHED", sj.Status.Channels[0].State)
	}
	if sj.Status.Channels[0].Touches != 5 {
		t.Errorf("pad1 touches: got %d, want 5", sj.Status.Channels[0].Touches)
	}
	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q", sj.Status.MQTT.Broker)
	}
	if sj.Status.Config.PollMs != 10 {
		t.Errorf("Config.PollMs: got %d, want 10", sj.Status.Config.PollMs)
	}
}

func TestJSONUnknownStateBeforeFirstSample(t *testing.T) {
	ts, _ := newTestServer(t)

	sj := getStatus(t, ts.URL)
	for _, ch := range sj.Status.Channels {
		if ch.State != "UNKNOWN" {
			t.Errorf("%s before first sample: got %q, want UNKNOWN", ch.Name, ch.State)
		}
	}
	if sj.Status.Ready {
		t.Error("expected Ready=false initially")
	}
}

func TestHTMLEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(map[string]debounce.State{"pad1": debounce.Touched}, true, nil)

	for _, path := range []string{"/", "/index.html"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != 200 {
			t.Errorf("%s status: got %d, want 200", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s Content-Type: got %q, want text/html", path, ct)
		}
		if !strings.Contains(string(body), `<td class="touched">TOUCHED</td>`) {
			t.Errorf("%s: expected pad1 rendered as touched", path)
		}
		if !strings.Contains(string(body), `<td class="unknown">UNKNOWN</td>`) {
			t.Errorf("%s: expected pad2 rendered as unknown", path)
		}
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	if getStatus(t, ts.URL).Status.Ready {
		t.Error("expected Ready=false initially")
	}

	tr.Update(map[string]debounce.State{"pad1": debounce.Released, "pad2": debounce.Touched}, true, nil)
	tr.SetMQTTConnected(true)

	sj := getStatus(t, ts.URL)
	if !sj.Status.Ready {
		t.Error("expected Ready=true after update")
	}
	if sj.Status.Channels[1].State != "TOUCHED" {
		t.Errorf("pad2: got %q, want TOUCHED", sj.Status.Channels[1].State)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}

func TestUptimeFormatting(t *testing.T) {
	var sb strings.Builder
	snap := status.Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 2, 1, 2, 3, 0, time.UTC),
	}
	if err := renderHTML(&sb, snap); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(sb.String(), "1d 1h 2m 3s") {
		t.Error("expected uptime 1d 1h 2m 3s in page")
	}
}
