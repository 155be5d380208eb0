package models

// ExtractResponse is the response for POST /api/v1/extract.
type ExtractResponse struct {
	Success bool             `json:"success"`
	Data    *ExhibitorRecord `json:"data,omitempty"`

	// EngineUsed indicates which fetch engine produced the page.
	EngineUsed string `json:"engine_used,omitempty"`

	// Cached is true when the record came from the cache.
	Cached bool `json:"cached,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// CollectResponse is the response for POST /api/v1/collect.
type CollectResponse struct {
	Success bool         `json:"success"`
	URLs    []string     `json:"urls"`
	Total   int          `json:"total"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// ErrorResponse is the body of a request rejected before reaching a handler.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
