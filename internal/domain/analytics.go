package domain

// Dashboard defaults used when the customer table cannot be reached.
const (
	DefaultChurnRate = 8.5
	ModelAccuracy    = 94.5
)

// DashboardStats is the headline aggregate block on the admin home page.
// TotalRevenue is annualized monthly spend; ChurnRate is the share of
// high-risk customers as a percentage.
type DashboardStats struct {
	TotalCustomers int     `json:"totalCustomers"`
	TotalProducts  int     `json:"totalPackages"`
	TotalRevenue   float64 `json:"totalRevenue"`
	ChurnRate      float64 `json:"churnRate"`
	MLAccuracy     float64 `json:"mlAccuracy"`

	Customers CustomerStats `json:"customers"`
	Products  ProductStats  `json:"products"`
}

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth reports one dependency's probe result.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// InferenceMetrics is the snapshot returned by GET /v1/metrics/inference.
type InferenceMetrics struct {
	TotalRequests int64   `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
	FallbackRate  float64 `json:"fallbackRate"`
	CacheHitRate  float64 `json:"cacheHitRate"`
	Period        string  `json:"period"`
}
