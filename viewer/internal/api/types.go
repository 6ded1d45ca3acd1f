package api

// Mount states reported by /api/v1/health.
const (
	StateUnmounted = "unmounted"
	StateLoading   = "loading"
	StateReady     = "ready"
	StateFailed    = "failed"
)

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	State     string `json:"state"`
	MountID   string `json:"mount_id,omitempty"`
	Records   int    `json:"records"`
	Observers int    `json:"observers"`
	Error     string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
