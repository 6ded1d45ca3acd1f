package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/obsidianstack/showroom/viewer/internal/store"
	"github.com/obsidianstack/showroom/viewer/internal/view"
)

// Source is the read side of the session.
type Source interface {
	Snapshot(now time.Time) view.Snapshot
	Current() *store.Store
	Observers() int
}

// Handler serves /api/v1/*.
type Handler struct {
	src Source
	now func() time.Time
	r   chi.Router
}

// New creates a Handler reading from src and registers all routes.
func New(src Source) http.Handler {
	h := &Handler{src: src, now: time.Now, r: chi.NewRouter()}

	h.r.Get("/api/v1/records", h.records)
	h.r.Get("/api/v1/health", h.health)
	h.r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	h.r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.r.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// records returns GET /api/v1/records: the rows currently on screen.
func (h *Handler) records(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.src.Snapshot(h.now()))
}

// health returns GET /api/v1/health: whether a store is mounted and whether
// its fetch has settled.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	st := h.src.Current()
	if st == nil {
		jsonResp(w, http.StatusOK, HealthResponse{State: StateUnmounted, Observers: h.src.Observers()})
		return
	}

	resp := HealthResponse{
		State:     StateLoading,
		MountID:   st.ID(),
		Records:   len(st.Records()),
		Observers: h.src.Observers(),
	}
	select {
	case <-st.Settled():
		resp.State = StateReady
		if err := st.Err(); err != nil {
			resp.State = StateFailed
			resp.Error = err.Error()
		}
	default:
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
