package domain

// Overall and per-component health values reported by the detailed probe.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// Values reported for the external API probe.
const (
	ExternalActive   = "active"
	ExternalInactive = "inactive"
	ExternalError    = "error"
)

// ComponentHealth is the probe result for one dependency.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
