package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/embassygq/consular-api/internal/model"
)

func (r *tokenRepository) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO user_tokens (user_id, token, type, expires_at, created_at)
			VALUES ($1, $2, 'refresh', $3, NOW())
			ON CONFLICT (user_id, type) DO UPDATE
			SET token = $2, expires_at = $3, used_at = NULL, updated_at = NOW()
		`
		_, err := tx.ExecContext(ctx, query, userID, token, expiry)
		return err
	})
	if err != nil {
		return translateError("token store", err)
	}
	return nil
}

func (r *tokenRepository) ValidateRefreshToken(ctx context.Context, token string) (uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM user_tokens
		WHERE token = $1
		AND type = 'refresh'
		AND expires_at > NOW()
		AND used_at IS NULL
	`
	var userID uuid.UUID
	err := r.db.GetContext(ctx, &userID, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, model.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, translateError("token validate", err)
	}
	return userID, nil
}

func (r *tokenRepository) InvalidateRefreshToken(ctx context.Context, token string) error {
	query := `
		UPDATE user_tokens
		SET used_at = NOW()
		WHERE token = $1 AND type = 'refresh' AND used_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return translateError("token invalidate", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("token invalidate", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *tokenRepository) InvalidateUserTokens(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE user_tokens
		SET used_at = NOW()
		WHERE user_id = $1 AND used_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return translateError("token invalidate", err)
	}
	return nil
}
