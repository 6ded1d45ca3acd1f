package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/obsidianstack/showroom/viewer/internal/notifier"
	"github.com/obsidianstack/showroom/viewer/internal/view"
	wsHub "github.com/obsidianstack/showroom/viewer/internal/ws"
)

// --- helpers ----------------------------------------------------------------

// source is a mutable snapshot provider.
type source struct {
	mu   sync.Mutex
	rows []view.Row
}

func (s *source) set(rows ...view.Row) {
	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
}

func (s *source) snapshot() view.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := append([]view.Row{}, s.rows...)
	return view.Snapshot{
		Title:       "Car Collection 2024:",
		Count:       len(rows),
		Rows:        rows,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// startHub serves the hub over httptest and runs it until cleanup.
func startHub(t *testing.T, src *source) (wsURL string, hub *wsHub.Hub, n *notifier.Notifier, cancel func()) {
	t.Helper()

	n = notifier.New()
	hub = wsHub.New(n, src.snapshot)
	ctx, cancelFn := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	// Run subscribes asynchronously; wait so no notification is missed.
	deadline := time.Now().Add(2 * time.Second)
	for n.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	t.Cleanup(func() {
		cancelFn()
		srv.Close()
	})

	wsURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	return wsURL, hub, n, cancelFn
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsHub.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var m wsHub.Message
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

// waitForCount polls hub.Count until it equals want.
func waitForCount(t *testing.T, hub *wsHub.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Count: got %d, want %d", hub.Count(), want)
}

// --- tests ------------------------------------------------------------------

func TestHub_Connect_ReceivesImmediateSnapshot(t *testing.T) {
	src := &source{}
	src.set(view.Row{Key: "1", Name: "Model S", Category: "Tesla", Value: "$80000"})
	wsURL, _, _, _ := startHub(t, src)

	m := readMessage(t, dial(t, wsURL))
	if m.Event != wsHub.EventCollection {
		t.Errorf("event: got %q, want %q", m.Event, wsHub.EventCollection)
	}
	if m.Data.Count != 1 || m.Data.Rows[0].Name != "Model S" {
		t.Errorf("data: got %+v", m.Data)
	}
	if m.Data.GeneratedAt == "" {
		t.Error("generated_at: missing")
	}
}

func TestHub_EmptyCollection(t *testing.T) {
	wsURL, _, _, _ := startHub(t, &source{})
	m := readMessage(t, dial(t, wsURL))
	if m.Data.Count != 0 || len(m.Data.Rows) != 0 {
		t.Errorf("want empty rows, got %+v", m.Data)
	}
}

func TestHub_BroadcastOnNotify(t *testing.T) {
	src := &source{}
	wsURL, hub, n, _ := startHub(t, src)

	conn := dial(t, wsURL)
	readMessage(t, conn) // initial, empty
	waitForCount(t, hub, 1)

	src.set(view.Row{Key: "2", Name: "Leaf"})
	n.Broadcast()

	m := readMessage(t, conn)
	if m.Data.Count != 1 || m.Data.Rows[0].Key != "2" {
		t.Errorf("broadcast: got %+v", m.Data)
	}
}

func TestHub_NoMessageWithoutNotify(t *testing.T) {
	wsURL, hub, _, _ := startHub(t, &source{})

	conn := dial(t, wsURL)
	readMessage(t, conn)
	waitForCount(t, hub, 1)

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("got a message without a notification")
	}
}

func TestHub_AllClientsReceiveBroadcast(t *testing.T) {
	src := &source{}
	wsURL, hub, n, _ := startHub(t, src)

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i] = dial(t, wsURL)
		readMessage(t, conns[i])
	}
	waitForCount(t, hub, 3)

	src.set(view.Row{Key: "9"})
	n.Broadcast()

	for i, conn := range conns {
		if m := readMessage(t, conn); m.Data.Count != 1 {
			t.Errorf("client %d: got %d rows, want 1", i, m.Data.Count)
		}
	}
}

func TestHub_CountClients_DecreasesOnDisconnect(t *testing.T) {
	wsURL, hub, _, _ := startHub(t, &source{})

	conn := dial(t, wsURL)
	readMessage(t, conn)
	waitForCount(t, hub, 1)

	conn.Close()
	waitForCount(t, hub, 0)
}

func TestHub_CancelContextClosesConnections(t *testing.T) {
	wsURL, hub, _, cancel := startHub(t, &source{})

	conn := dial(t, wsURL)
	readMessage(t, conn)
	waitForCount(t, hub, 1)

	cancel()
	waitForCount(t, hub, 0)
}

func TestHub_NonWebSocketRequest_Returns400(t *testing.T) {
	hub := wsHub.New(notifier.New(), (&source{}).snapshot)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}
