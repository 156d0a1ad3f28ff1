package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/repository"
)

const (
	UsersBucket  = "usuarios"
	EmailsBucket = "usuarios_email"
)

// Buckets lists every bucket the repository needs at open time.
var Buckets = []string{UsersBucket, EmailsBucket}

type userRepository struct {
	db  *bolt.DB
	now func() time.Time
}

// NewUserRepository builds a BoltDB-backed repository. Buckets must already exist.
func NewUserRepository(db *bolt.DB) repository.UserRepository {
	return &userRepository{db: db, now: time.Now}
}

// Scope is a no-op: bolt transactions are short-lived and not pooled.
func (r *userRepository) Scope(ctx context.Context) (context.Context, func()) {
	return ctx, func() {}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreError("get user", err)
	}
	var user *domain.User
	err := r.db.View(func(tx *bolt.Tx) error {
		u, err := loadUser(tx, id)
		user = u
		return err
	})
	if err != nil {
		return nil, classify("get user", err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreError("get user by email", err)
	}
	var user *domain.User
	err := r.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(EmailsBucket)).Get([]byte(email))
		if raw == nil {
			return domain.ErrUserNotFound
		}
		u, err := loadUser(tx, decodeID(raw))
		user = u
		return err
	})
	if err != nil {
		return nil, classify("get user by email", err)
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreError("list users", err)
	}
	limit := filter.Limit
	switch {
	case limit <= 0:
		limit = repository.DefaultListLimit
	case limit > repository.MaxListLimit:
		limit = repository.MaxListLimit
	}
	skip := max(filter.Offset, 0)

	users := make([]domain.User, 0)
	err := r.db.View(func(tx *bolt.Tx) error {
		// keys are big-endian ids so cursor order is ascending id order
		c := tx.Bucket([]byte(UsersBucket)).Cursor()
		for k, v := c.First(); k != nil && len(users) < limit; k, v = c.Next() {
			var user domain.User
			if err := json.Unmarshal(v, &user); err != nil {
				return err
			}
			if filter.ActiveOnly && !user.Active {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, domain.StoreError("list users", err)
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, input domain.UserInput) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreError("create user", err)
	}
	var created *domain.User
	err := r.db.Update(func(tx *bolt.Tx) error {
		users := tx.Bucket([]byte(UsersBucket))
		emails := tx.Bucket([]byte(EmailsBucket))

		if emails.Get([]byte(input.Email)) != nil {
			return domain.ErrEmailTaken
		}
		seq, err := users.NextSequence()
		if err != nil {
			return err
		}
		user := &domain.User{
			ID:        int64(seq),
			Name:      input.Name,
			Email:     input.Email,
			Active:    input.Active,
			CreatedAt: r.now().UTC(),
		}
		if err := putUser(tx, user); err != nil {
			return err
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, domain.StoreError("create user", err)
	}
	return created, nil
}

func (r *userRepository) Update(ctx context.Context, existing *domain.User, patch domain.UserPatch) (*domain.User, error) {
	if existing == nil {
		return nil, domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreError("update user", err)
	}
	var updated *domain.User
	err := r.db.Update(func(tx *bolt.Tx) error {
		current, err := loadUser(tx, existing.ID)
		if err != nil {
			return err
		}
		emails := tx.Bucket([]byte(EmailsBucket))
		if patch.ChangesEmail(current) {
			if emails.Get([]byte(*patch.Email)) != nil {
				return domain.ErrEmailTaken
			}
			if err := emails.Delete([]byte(current.Email)); err != nil {
				return err
			}
		}
		patch.Apply(current)
		now := r.now().UTC()
		current.UpdatedAt = &now
		if err := putUser(tx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, domain.StoreError("update user", err)
	}
	return updated, nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreError("delete user", err)
	}
	var deleted *domain.User
	err := r.db.Update(func(tx *bolt.Tx) error {
		user, err := loadUser(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket([]byte(EmailsBucket)).Delete([]byte(user.Email)); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(UsersBucket)).Delete(encodeID(id)); err != nil {
			return err
		}
		deleted = user
		return nil
	})
	if err != nil {
		return nil, classify("delete user", err)
	}
	return deleted, nil
}

func (r *userRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.StoreError("ping", err)
	}
	err := r.db.View(func(tx *bolt.Tx) error {
		for _, name := range Buckets {
			if tx.Bucket([]byte(name)) == nil {
				return fmt.Errorf("bucket %q missing", name)
			}
		}
		return nil
	})
	if err != nil {
		return domain.StoreError("ping", err)
	}
	return nil
}

func loadUser(tx *bolt.Tx, id int64) (*domain.User, error) {
	raw := tx.Bucket([]byte(UsersBucket)).Get(encodeID(id))
	if raw == nil {
		return nil, domain.ErrUserNotFound
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func putUser(tx *bolt.Tx, user *domain.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := tx.Bucket([]byte(UsersBucket)).Put(encodeID(user.ID), payload); err != nil {
		return err
	}
	return tx.Bucket([]byte(EmailsBucket)).Put([]byte(user.Email), encodeID(user.ID))
}

func classify(op string, err error) error {
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrUserNotFound
	}
	return domain.StoreError(op, err)
}

func encodeID(id int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

func decodeID(raw []byte) int64 {
	if len(raw) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(raw))
}
