package usecase

import (
	"context"

	"github.com/fastygo/users-api/domain"
)

// ExternalLookup fetches the third-party status for a user id.
type ExternalLookup interface {
	GetUserStatus(ctx context.Context, id int64) (domain.ExternalStatus, error)
}

// ExternalProbe checks that the third-party API is reachable.
type ExternalProbe interface {
	Health(ctx context.Context) domain.ComponentHealth
}

// Notifier dispatches status notices. It reports whether a message was sent.
type Notifier interface {
	NotifyStatus(ctx context.Context, email, name, status string) (bool, error)
}

// ClassifiedError is implemented by adapter errors that map onto a domain code.
type ClassifiedError interface {
	error
	DomainError() *domain.Error
}
