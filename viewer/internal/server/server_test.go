package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidianstack/showroom/pkg/types"
	"github.com/obsidianstack/showroom/viewer/internal/config"
	"github.com/obsidianstack/showroom/viewer/internal/metrics"
	"github.com/obsidianstack/showroom/viewer/internal/notifier"
	"github.com/obsidianstack/showroom/viewer/internal/session"
	"github.com/obsidianstack/showroom/viewer/internal/store"
	"github.com/obsidianstack/showroom/viewer/internal/ws"
)

// gates hands out a gated fetcher per endpoint.
type gates struct {
	mu sync.Mutex
	m  map[string]*gate
}

type gate struct {
	release chan struct{}
	body    string
}

func (g *gate) Fetch(context.Context) (types.Collection, error) {
	<-g.release
	var c types.Collection
	if err := json.Unmarshal([]byte(g.body), &c); err != nil {
		return nil, err
	}
	return c, nil
}

func (gs *gates) add(endpoint, body string) *gate {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	g := &gate{release: make(chan struct{}), body: body}
	gs.m[endpoint] = g
	return g
}

func (gs *gates) build(src config.Source) (store.Fetcher, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.m[src.Endpoint], nil
}

type harness struct {
	base    string
	n       *notifier.Notifier
	sess    *session.Session
	gates   *gates
	metrics *metrics.Registry
}

func start(t *testing.T) *harness {
	t.Helper()
	h := &harness{n: notifier.New(), gates: &gates{m: map[string]*gate{}}, metrics: metrics.New()}
	h.sess = session.New(h.n, session.WithFetcher(h.gates.build), session.WithMetrics(h.metrics))

	srv := New(Config{Session: h.sess, Notifier: h.n, Metrics: h.metrics})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	h.base = "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	// The hub subscribes from its own goroutine.
	require.Eventually(t, func() bool { return h.n.Len() > 0 }, 2*time.Second, time.Millisecond)
	return h
}

func (h *harness) mount(t *testing.T, endpoint, body string) (*store.Store, *gate) {
	t.Helper()
	g := h.gates.add(endpoint, body)
	cfg := config.Default().Viewer
	cfg.Source.Endpoint = endpoint
	st, err := h.sess.Mount(context.Background(), cfg)
	require.NoError(t, err)
	return st, g
}

func (h *harness) get(t *testing.T, path string) (int, string, http.Header) {
	t.Helper()
	resp, err := http.Get(h.base + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func settle(t *testing.T, st *store.Store, g *gate) {
	t.Helper()
	close(g.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, st.Wait(ctx))
}

const teslaBody = `[{"id":1,"model":"Model S","make":"Tesla","price":80000}]`

func TestServer_Page(t *testing.T) {
	h := start(t)
	st, g := h.mount(t, "http://a/cars.json", teslaBody)
	settle(t, st, g)

	code, body, hdr := h.get(t, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, hdr.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<h1>Car Collection 2024:</h1>")
	assert.Contains(t, body, "<h2>Model S</h2>")
	assert.Contains(t, body, "<p>$80000</p>")
}

func TestServer_PageBeforeSettlementShowsHeadingOnly(t *testing.T) {
	h := start(t)
	h.mount(t, "http://a/cars.json", teslaBody)

	_, body, _ := h.get(t, "/")
	assert.Contains(t, body, "<h1>Car Collection 2024:</h1>")
	assert.NotContains(t, body, "Model S")
}

func TestServer_Records(t *testing.T) {
	h := start(t)
	st, g := h.mount(t, "http://a/cars.json", teslaBody)
	settle(t, st, g)

	code, body, hdr := h.get(t, "/api/v1/records")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
	assert.Contains(t, body, `"name":"Model S"`)
}

func TestServer_HealthzAndMetrics(t *testing.T) {
	h := start(t)
	st, g := h.mount(t, "http://a/cars.json", teslaBody)
	settle(t, st, g)

	code, body, _ := h.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)

	_, body, _ = h.get(t, "/metrics")
	assert.Contains(t, body, "showroom_mounts_total 1")
	assert.Contains(t, body, `showroom_fetches_total{outcome="committed"} 1`)
	assert.Contains(t, body, "showroom_records 1")
}

func TestServer_StreamPushesCommitAndRemount(t *testing.T) {
	h := start(t)
	first, g1 := h.mount(t, "http://a/cars.json", teslaBody)

	wsURL := "ws" + strings.TrimPrefix(h.base, "http") + "/ws/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() ws.Message {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var m ws.Message
		require.NoError(t, conn.ReadJSON(&m))
		return m
	}

	// Pings coalesce, so skip ahead to the first message matching want.
	readUntil := func(want func(ws.Message) bool) ws.Message {
		t.Helper()
		for {
			if m := read(); want(m) {
				return m
			}
		}
	}

	// Initial message for the still-loading mount.
	assert.Equal(t, 0, read().Data.Count)

	settle(t, first, g1)
	m := readUntil(func(m ws.Message) bool { return m.Data.Count == 1 })
	assert.Equal(t, ws.EventCollection, m.Event)
	assert.Equal(t, "Model S", m.Data.Rows[0].Name)

	// A remount empties the view until the new fetch commits.
	second, g2 := h.mount(t, "http://b/cars.json", `[]`)
	readUntil(func(m ws.Message) bool { return m.Data.Count == 0 })
	settle(t, second, g2)
	assert.Empty(t, second.Records())
}
