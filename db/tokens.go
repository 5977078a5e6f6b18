package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"birthdayreminder/models"
)

// TokenStore keeps issued refresh tokens and their blacklist entries.
type TokenStore struct {
	db DBTX
}

func NewTokenStore(db DBTX) *TokenStore {
	return &TokenStore{db: db}
}

func (s *TokenStore) CreateRefresh(ctx context.Context, t models.RefreshToken) (models.RefreshToken, error) {
	query := `
		INSERT INTO token_blacklist_outstanding (token, exp, iat, jti, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query, t.Token, t.Exp, t.Iat, t.JTI, t.UserID).Scan(&t.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.RefreshToken{}, models.ErrUserNotFound
		}
		return models.RefreshToken{}, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return t, nil
}

func (s *TokenStore) GetByJTI(ctx context.Context, jti string) (models.RefreshToken, error) {
	query := `
		SELECT id, token, exp, iat, jti, user_id
		FROM token_blacklist_outstanding
		WHERE jti = $1
	`

	var t models.RefreshToken
	err := s.db.QueryRowContext(ctx, query, jti).Scan(&t.ID, &t.Token, &t.Exp, &t.Iat, &t.JTI, &t.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RefreshToken{}, models.ErrTokenNotFound
		}
		return models.RefreshToken{}, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return t, nil
}

// Blacklist revokes a refresh token. Revoking twice is a no-op.
func (s *TokenStore) Blacklist(ctx context.Context, tokenID int64) error {
	query := `
		INSERT INTO token_blacklisted (token_id)
		VALUES ($1)
		ON CONFLICT (token_id) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, tokenID); err != nil {
		if isForeignKeyViolation(err) {
			return models.ErrTokenNotFound
		}
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	return nil
}

func (s *TokenStore) IsBlacklisted(ctx context.Context, tokenID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM token_blacklisted WHERE token_id = $1)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, tokenID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}

	return exists, nil
}

// DeleteExpired removes refresh tokens that expired before now; blacklist rows cascade.
func (s *TokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM token_blacklist_outstanding WHERE exp < $1`

	res, err := s.db.ExecContext(ctx, query, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	n, _ := res.RowsAffected()
	return n, nil
}
