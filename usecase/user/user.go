package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/repository"
)

type UseCase struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		logger: logger,
	}
}

func (uc *UseCase) Get(ctx context.Context, id int64) (*domain.User, error) {
	return uc.users.GetByID(ctx, id)
}

func (uc *UseCase) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	return uc.users.List(ctx, filter)
}

// Create rejects an email that is already registered before touching the store.
func (uc *UseCase) Create(ctx context.Context, input domain.UserInput) (*domain.User, error) {
	if err := uc.ensureEmailFree(ctx, input.Email); err != nil {
		return nil, err
	}
	user, err := uc.users.Create(ctx, input)
	if err != nil {
		uc.logger.Error("create user failed", zap.String("email", input.Email), zap.Error(err))
		return nil, err
	}
	uc.logger.Info("user created", zap.Int64("user_id", user.ID))
	return user, nil
}

func (uc *UseCase) Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	existing, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.ChangesEmail(existing) {
		if err := uc.ensureEmailFree(ctx, *patch.Email); err != nil {
			return nil, err
		}
	}
	user, err := uc.users.Update(ctx, existing, patch)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			uc.logger.Error("update user failed", zap.Int64("user_id", id), zap.Error(err))
		}
		return nil, err
	}
	return user, nil
}

func (uc *UseCase) Delete(ctx context.Context, id int64) (*domain.User, error) {
	user, err := uc.users.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("user deleted", zap.Int64("user_id", id))
	return user, nil
}

func (uc *UseCase) ensureEmailFree(ctx context.Context, email string) error {
	_, err := uc.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.ErrEmailTaken
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return err
	}
}
