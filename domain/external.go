package domain

// ExternalStatus is the opaque payload returned by the third-party lookup.
type ExternalStatus map[string]any

// StatusInactive is the only external status value the service reacts to.
const StatusInactive = "inactive"

// Status returns the "status" field when it is a string.
func (s ExternalStatus) Status() string {
	if s == nil {
		return ""
	}
	v, _ := s["status"].(string)
	return v
}

// IsInactive reports whether the remote system flags the user as inactive.
func (s ExternalStatus) IsInactive() bool {
	return s.Status() == StatusInactive
}

// UnavailableExternalStatus is substituted when the lookup fails.
func UnavailableExternalStatus() ExternalStatus {
	return ExternalStatus{
		"error":  "external data unavailable",
		"status": "error",
	}
}

// EnrichedUser merges a stored user with its external status. It is built per request.
type EnrichedUser struct {
	User
	ExternalData ExternalStatus `json:"datos_externos"`
}
