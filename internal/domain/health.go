package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// EstimatorMetrics is returned by GET /v1/metrics/estimator.
type EstimatorMetrics struct {
	ProviderCalls       int64   `json:"providerCalls"`
	FallbackRate        float64 `json:"fallbackRate"`
	EngineRuns          int64   `json:"engineRuns"`
	StaleResponses      int64   `json:"staleResponses"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	AvgTokensPerRequest float64 `json:"avgTokensPerRequest"`
	Period              string  `json:"period"`
}
