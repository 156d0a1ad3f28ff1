package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/repository"
)

const userColumns = `id, nombre, email, activo, fecha_creacion, fecha_actualizacion`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

// Scope attaches a lazily acquired connection to ctx. The release func returns it to the pool.
func (r *userRepository) Scope(ctx context.Context) (context.Context, func()) {
	s := &scope{pool: r.pool}
	return context.WithValue(ctx, scopeKey{}, s), s.release
}

func (r *userRepository) db(ctx context.Context) (querier, error) {
	if s, ok := ctx.Value(scopeKey{}).(*scope); ok && s.pool == r.pool {
		return s.acquire(ctx)
	}
	return r.pool, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM usuarios WHERE id = $1`
	return r.getOne(ctx, "get user", query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM usuarios WHERE email = $1`
	return r.getOne(ctx, "get user by email", query, email)
}

func (r *userRepository) getOne(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, domain.StoreError(op, err)
	}
	user, err := scanUser(db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, domain.StoreError(op, err)
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	const query = `
	SELECT ` + userColumns + `
	FROM usuarios
	WHERE (NOT $1 OR activo)
	ORDER BY id
	LIMIT $2 OFFSET $3
	`
	db, err := r.db(ctx)
	if err != nil {
		return nil, domain.StoreError("list users", err)
	}

	rows, err := db.Query(ctx, query, filter.ActiveOnly, clampLimit(filter.Limit), max(filter.Offset, 0))
	if err != nil {
		return nil, domain.StoreError("list users", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, domain.StoreError("list users", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError("list users", err)
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, input domain.UserInput) (*domain.User, error) {
	const query = `
	INSERT INTO usuarios (nombre, email, activo)
	VALUES ($1, $2, $3)
	RETURNING ` + userColumns

	db, err := r.db(ctx)
	if err != nil {
		return nil, domain.StoreError("create user", err)
	}

	var created *domain.User
	err = withTx(ctx, db, func(tx pgx.Tx) error {
		user, err := scanUser(tx.QueryRow(ctx, query, input.Name, input.Email, input.Active))
		if err != nil {
			return err
		}
		created = user
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.StoreError("create user", domain.ErrEmailTaken)
		}
		return nil, domain.StoreError("create user", err)
	}
	return created, nil
}

func (r *userRepository) Update(ctx context.Context, existing *domain.User, patch domain.UserPatch) (*domain.User, error) {
	if existing == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	UPDATE usuarios
	SET nombre = COALESCE($2, nombre),
		email = COALESCE($3, email),
		activo = COALESCE($4, activo),
		fecha_actualizacion = NOW()
	WHERE id = $1
	RETURNING ` + userColumns

	db, err := r.db(ctx)
	if err != nil {
		return nil, domain.StoreError("update user", err)
	}

	var updated *domain.User
	err = withTx(ctx, db, func(tx pgx.Tx) error {
		user, err := scanUser(tx.QueryRow(ctx, query, existing.ID, patch.Name, patch.Email, patch.Active))
		if err != nil {
			return err
		}
		updated = user
		return nil
	})
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	case isUniqueViolation(err):
		return nil, domain.StoreError("update user", domain.ErrEmailTaken)
	default:
		return nil, domain.StoreError("update user", err)
	}
}

func (r *userRepository) Delete(ctx context.Context, id int64) (*domain.User, error) {
	const query = `DELETE FROM usuarios WHERE id = $1 RETURNING ` + userColumns

	db, err := r.db(ctx)
	if err != nil {
		return nil, domain.StoreError("delete user", err)
	}

	var deleted *domain.User
	err = withTx(ctx, db, func(tx pgx.Tx) error {
		user, err := scanUser(tx.QueryRow(ctx, query, id))
		if err != nil {
			return err
		}
		deleted = user
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, domain.StoreError("delete user", err)
	}
	return deleted, nil
}

func (r *userRepository) Ping(ctx context.Context) error {
	db, err := r.db(ctx)
	if err != nil {
		return domain.StoreError("ping", err)
	}
	var one int
	if err := db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return domain.StoreError("ping", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return repository.DefaultListLimit
	}
	if limit > repository.MaxListLimit {
		return repository.MaxListLimit
	}
	return limit
}
