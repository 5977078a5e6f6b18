package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"birthdayreminder/models"
)

type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

// Create inserts the user and fills in the generated id and timestamps.
func (s *UserStore) Create(ctx context.Context, u models.User) (models.User, error) {
	query := `
		INSERT INTO "user" (username, email, hashed_password, birthday)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_date, updated_date
	`

	err := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.HashedPassword, u.Birthday).
		Scan(&u.ID, &u.CreatedDate, &u.UpdatedDate)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, models.ErrUserAlreadyExists
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (models.User, error) {
	query := `
		SELECT id, username, email, hashed_password, birthday, created_date, updated_date
		FROM "user"
		WHERE id = $1
	`
	return s.getOne(ctx, query, id)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	query := `
		SELECT id, username, email, hashed_password, birthday, created_date, updated_date
		FROM "user"
		WHERE username = $1
	`
	return s.getOne(ctx, query, username)
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Birthday, &u.CreatedDate, &u.UpdatedDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}
