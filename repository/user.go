package repository

import (
	"context"

	"github.com/fastygo/users-api/domain"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// UserFilter selects a page of users. Bounds are validated by callers.
type UserFilter struct {
	Offset     int
	Limit      int
	ActiveOnly bool
}

// UserRepository is the record store for users. Absent records are reported as
// domain.ErrUserNotFound; any other failure is a domain STORE error.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	Create(ctx context.Context, input domain.UserInput) (*domain.User, error)
	Update(ctx context.Context, existing *domain.User, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id int64) (*domain.User, error)
	Ping(ctx context.Context) error
	Scoper
}

// Scoper binds store resources to a request. The returned release func must be
// called on every exit path.
type Scoper interface {
	Scope(ctx context.Context) (context.Context, func())
}
