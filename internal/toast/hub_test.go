package toast

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type testLogger struct{}

func (testLogger) Infof(string, ...interface{})  {}
func (testLogger) Errorf(string, ...interface{}) {}

func resolveQuery(r *http.Request) (string, error) {
	if u := r.URL.Query().Get("user"); u != "" {
		return u, nil
	}
	return "", errors.New("no user")
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := gojson.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ev
}

// readMatching skips events until match accepts one.
func readMatching(t *testing.T, conn *websocket.Conn, match func(Event) bool) Event {
	t.Helper()
	for i := 0; i < 5; i++ {
		if ev := readEvent(t, conn); match(ev) {
			return ev
		}
	}
	t.Fatal("expected event not received")
	return Event{}
}

func TestHubReplaysAndStreams(t *testing.T) {
	hub := NewHub(resolveQuery, testLogger{})
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	existing := hub.Center("u1").PushFor(SeverityInfo, "welcome", 0)

	conn := dial(t, srv, "u1")
	defer conn.Close()

	if ev := readEvent(t, conn); ev.Type != EventAdded || ev.Toast.ID != existing.ID {
		t.Fatalf("expected replay of %s, got %+v", existing.ID, ev)
	}

	pushed := hub.Center("u1").Push(SeveritySuccess, "Project saved")
	ev := readMatching(t, conn, func(ev Event) bool { return ev.Toast.ID == pushed.ID })
	if ev.Type != EventAdded || ev.Toast.Message != "Project saved" {
		t.Fatalf("unexpected event %+v", ev)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"dismiss":"`+pushed.ID+`"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	readMatching(t, conn, func(ev Event) bool { return ev.Type == EventRemoved && ev.Toast.ID == pushed.ID })
}

func TestHubRejectsAnonymous(t *testing.T) {
	hub := NewHub(resolveQuery, testLogger{})
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func (h *Hub) centerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.centers)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestHubDropsIdleCenters(t *testing.T) {
	hub := NewHub(resolveQuery, testLogger{})
	before := runtime.NumGoroutine()

	for i := 0; i < 500; i++ {
		hub.Center(fmt.Sprintf("user-%d", i)).PushFor(SeveritySuccess, "ok", 20*time.Millisecond)
	}
	if !waitFor(t, 2*time.Second, func() bool { return hub.centerCount() == 0 }) {
		t.Fatalf("centers retained = %d", hub.centerCount())
	}
	if !waitFor(t, 2*time.Second, func() bool { return runtime.NumGoroutine() <= before+2 }) {
		t.Fatalf("goroutines before=%d after=%d", before, runtime.NumGoroutine())
	}
}

func TestHubReleasesUserOnDisconnect(t *testing.T) {
	hub := NewHub(resolveQuery, testLogger{})
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dial(t, srv, "u2")
	if !waitFor(t, time.Second, func() bool { return hub.Connections() == 1 }) {
		t.Fatal("client not registered")
	}
	if hub.centerCount() != 1 {
		t.Fatalf("centers = %d, want 1", hub.centerCount())
	}

	conn.Close()
	if !waitFor(t, 2*time.Second, func() bool { return hub.Connections() == 0 && hub.centerCount() == 0 }) {
		t.Fatalf("connections=%d centers=%d after disconnect", hub.Connections(), hub.centerCount())
	}
}

func TestHubKeepsCenterWithPendingToasts(t *testing.T) {
	hub := NewHub(resolveQuery, testLogger{})
	sticky := hub.Center("u3").PushFor(SeverityWarning, "Draft not saved", 0)
	hub.Center("u3").Push(SeverityInfo, "short")

	if hub.centerCount() != 1 {
		t.Fatalf("centers = %d", hub.centerCount())
	}
	if !hub.Center("u3").Dismiss(sticky.ID) {
		t.Fatal("dismiss failed")
	}
	if hub.centerCount() != 1 {
		t.Fatal("center dropped while a toast is still active")
	}
}
