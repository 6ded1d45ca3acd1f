package api

// carRequest is the body of POST /api/v1/cars.
type carRequest struct {
	Model string `json:"model"`
	Make  string `json:"make"`
	Price int64  `json:"price"`
}

// validationResponse lists rejected fields with status 422.
type validationResponse struct {
	Errors []string `json:"errors"`
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status        string `json:"status"`
	SchemaVersion int64  `json:"schema_version,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
