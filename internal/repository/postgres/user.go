package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/model"
)

const userColumns = `
	id, email, password_hash, first_name, last_name, phone, role,
	citizen_id, is_active, last_login_at, failed_login_attempts,
	locked_until, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (
			:id, :email, :password_hash, :first_name, :last_name, :phone, :role,
			:citizen_id, :is_active, :last_login_at, :failed_login_attempts,
			:locked_until, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return translateError("user create", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user model.User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, translateError("user get", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	var user model.User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, translateError("user get", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET email = :email, password_hash = :password_hash,
			first_name = :first_name, last_name = :last_name, phone = :phone,
			role = :role, citizen_id = :citizen_id, is_active = :is_active,
			last_login_at = :last_login_at,
			failed_login_attempts = :failed_login_attempts,
			locked_until = :locked_until, updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return translateError("user update", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("user update", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}
