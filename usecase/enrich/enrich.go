// Package enrich joins a stored user with its third-party status and
// notifies the user when the remote system marks them inactive.
package enrich

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/repository"
	"github.com/fastygo/users-api/usecase"
)

type Orchestrator struct {
	users    repository.UserRepository
	lookup   usecase.ExternalLookup
	notifier usecase.Notifier
	logger   *zap.Logger
}

func New(users repository.UserRepository, lookup usecase.ExternalLookup, notifier usecase.Notifier, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		users:    users,
		lookup:   lookup,
		notifier: notifier,
		logger:   logger,
	}
}

// GetWithExternalData returns the user merged with its external status.
// Only a missing user (or a store failure) fails the call; lookup and
// notification problems degrade the payload or are logged.
func (o *Orchestrator) GetWithExternalData(ctx context.Context, id int64) (*domain.EnrichedUser, error) {
	user, err := o.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrCodeTimeout, "request cancelled", err)
	}

	status, err := o.lookup.GetUserStatus(ctx, id)
	if err != nil {
		switch lookupCode(err) {
		case domain.ErrCodeTimeout:
			o.logger.Warn("external lookup timed out", zap.Int64("user_id", id), zap.Error(err))
		case domain.ErrCodeRemote:
			o.logger.Warn("external lookup failed", zap.Int64("user_id", id), zap.Error(err))
		default:
			o.logger.Error("unexpected external lookup error", zap.Int64("user_id", id), zap.Error(err))
		}
		status = domain.UnavailableExternalStatus()
	}

	if status.IsInactive() {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("skipping status notification, request context done",
				zap.Int64("user_id", id), zap.Error(err))
		} else {
			o.notify(ctx, user)
		}
	}

	return &domain.EnrichedUser{User: *user, ExternalData: status}, nil
}

func (o *Orchestrator) notify(ctx context.Context, user *domain.User) {
	if o.notifier == nil {
		return
	}
	sent, err := o.notifier.NotifyStatus(ctx, user.Email, user.Name, domain.StatusInactive)
	if err != nil {
		o.logger.Error("status notification failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	if sent {
		o.logger.Info("inactive status notification sent", zap.Int64("user_id", user.ID))
	}
}

// lookupCode extracts the classification carried by lookup failures.
func lookupCode(err error) domain.ErrorCode {
	var classified usecase.ClassifiedError
	if errors.As(err, &classified) {
		return classified.DomainError().Code
	}
	return domain.CodeOf(err)
}
