package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tidwall/gjson"

	"github.com/obsidianstack/showroom/catalog/internal/db"
)

// maxBodyBytes caps the size of a create request.
const maxBodyBytes = 1 << 20

// Store is the persistence the handlers need.
type Store interface {
	ListCars(ctx context.Context) ([]db.Car, error)
	GetCar(ctx context.Context, id int64) (db.Car, error)
	CreateCar(ctx context.Context, c db.Car) (db.Car, error)
	Version(ctx context.Context) (int64, error)
}

// Handler serves the catalog API.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// New returns the router with every route registered. auth wraps the
// /api/v1 routes; pass nil for none.
func New(st Store, auth func(http.Handler) http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{store: st, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", h.healthz)

	r.Route("/api/v1", func(r chi.Router) {
		if auth != nil {
			r.Use(auth)
		}
		r.Get("/cars.json", h.listCars)
		r.Get("/cars", h.listCars)
		r.Post("/cars", h.createCar)
		r.Get("/cars/{id}", h.getCar)
	})

	return r
}

// --- route handlers ---------------------------------------------------------

// listCars returns GET /api/v1/cars(.json): every car, oldest first.
func (h *Handler) listCars(w http.ResponseWriter, r *http.Request) {
	cars, err := h.store.ListCars(r.Context())
	if err != nil {
		h.internal(w, r, err)
		return
	}
	jsonResp(w, http.StatusOK, cars)
}

// getCar returns GET /api/v1/cars/{id}. A ".json" suffix is accepted.
func (h *Handler) getCar(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSuffix(chi.URLParam(r, "id"), ".json")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		jsonErr(w, http.StatusNotFound, "car not found")
		return
	}

	car, err := h.store.GetCar(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		jsonErr(w, http.StatusNotFound, "car not found")
		return
	}
	if err != nil {
		h.internal(w, r, err)
		return
	}
	jsonResp(w, http.StatusOK, car)
}

// createCar handles POST /api/v1/cars. The body is either the car object or
// the object wrapped in a "car" key.
func (h *Handler) createCar(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		jsonErr(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if !gjson.ValidBytes(body) {
		jsonErr(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}
	if wrapped := gjson.GetBytes(body, "car"); wrapped.IsObject() {
		body = []byte(wrapped.Raw)
	}

	var in carRequest
	if err := json.Unmarshal(body, &in); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid car: "+err.Error())
		return
	}

	car, err := h.store.CreateCar(r.Context(), db.Car{Model: in.Model, Make: in.Make, Price: in.Price})
	var ve *db.ValidationError
	if errors.As(err, &ve) {
		jsonResp(w, http.StatusUnprocessableEntity, validationResponse{Errors: ve.Problems})
		return
	}
	if err != nil {
		h.internal(w, r, err)
		return
	}

	h.logger.Info("catalog: car created", "id", car.ID, "model", car.Model)
	w.Header().Set("Location", "/api/v1/cars/"+strconv.FormatInt(car.ID, 10))
	jsonResp(w, http.StatusCreated, car)
}

// --- helpers ----------------------------------------------------------------

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("catalog: request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"err", err,
	)
	jsonErr(w, http.StatusInternalServerError, "internal error")
}

// healthz reports the applied schema version, or 503 when the database
// cannot be read.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	v, err := h.store.Version(r.Context())
	if err != nil {
		h.logger.Error("catalog: health check failed", "err", err)
		jsonResp(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	jsonResp(w, http.StatusOK, healthResponse{Status: "ok", SchemaVersion: v})
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
