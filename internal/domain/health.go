package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// StoreMode tells whether writes reach the remote backend or only the
// local mirror.
type StoreMode string

const (
	StoreConnected    StoreMode = "connected"
	StoreDisconnected StoreMode = "disconnected"
	StoreLocal        StoreMode = "local"
)

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status    string          `json:"status"` // healthy, degraded, unhealthy
	StoreMode StoreMode       `json:"storeMode"`
	Services  []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Detail      string `json:"detail,omitempty"`
}

// AssistantMetrics is returned by GET /v1/metrics/assistant.
type AssistantMetrics struct {
	TotalRequests       int64   `json:"totalRequests"`
	ErrorRate           float64 `json:"errorRate"`
	AvgTokensPerRequest float64 `json:"avgTokensPerRequest"`
	PromptTokens        int64   `json:"promptTokens"`
	CompletionTokens    int64   `json:"completionTokens"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	StoreFallbacks      int64   `json:"storeFallbacks"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// ListResponse wraps paginated list results.
type ListResponse[T any] struct {
	Data     []T  `json:"data"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasMore  bool `json:"hasMore"`
}

// Paginate slices items for the requested page.
func Paginate[T any](items []T, page, pageSize int) ListResponse[T] {
	total := len(items)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	data := items[start:end]
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{
		Data:     data,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  end < total,
	}
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
