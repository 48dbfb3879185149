package models

// ResolveResponse is the response for POST /api/v1/resolve.
type ResolveResponse struct {
	// Success is false only for invalid input; fallback cards still succeed.
	Success bool `json:"success"`

	// Data is the link-preview card.
	Data *MetadataResult `json:"data,omitempty"`

	// Source is "extracted" or "fallback".
	Source string `json:"source,omitempty"`

	// FinalURL is the URL after resolving redirect links.
	FinalURL string `json:"final_url,omitempty"`

	// FetchMethod names the client profile or browser driver that fetched the page.
	FetchMethod string `json:"fetch_method,omitempty"`

	// CacheStatus indicates whether the card was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Timing provides the end-to-end duration.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent serving a request.
type TimingInfo struct {
	TotalMs int64 `json:"total_ms"`
}

// BatchResponse is the immediate response for POST /api/v1/batch/resolve.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Results   []*ResolveResponse `json:"results,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	Version       string `json:"version"`
	CacheBackend  string `json:"cache_backend"`
	BrowserDriver string `json:"browser_driver,omitempty"`
}
