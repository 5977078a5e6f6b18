package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"birthdayreminder/models"
)

// SubscriptionStore persists follow edges. Self-follow is the caller's concern.
type SubscriptionStore struct {
	db DBTX
}

func NewSubscriptionStore(db DBTX) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func (s *SubscriptionStore) Follow(ctx context.Context, followerID, followedID int64) (models.Subscription, error) {
	query := `
		INSERT INTO subscribe (follower_id, followed_id)
		VALUES ($1, $2)
		RETURNING id
	`

	sub := models.Subscription{FollowerID: followerID, FollowedID: followedID}
	err := s.db.QueryRowContext(ctx, query, followerID, followedID).Scan(&sub.ID)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return models.Subscription{}, models.ErrSubscriptionAlreadyExists
		case isForeignKeyViolation(err):
			return models.Subscription{}, models.ErrUserNotFound
		}
		return models.Subscription{}, fmt.Errorf("failed to create subscription: %w", err)
	}

	return sub, nil
}

// Unfollow removes the edge; its notification row goes with it (ON DELETE CASCADE).
func (s *SubscriptionStore) Unfollow(ctx context.Context, followerID, followedID int64) error {
	query := `
		DELETE FROM subscribe
		WHERE follower_id = $1 AND followed_id = $2
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query, followerID, followedID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrSubscriptionNotFound
		}
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	return nil
}

func (s *SubscriptionStore) GetByID(ctx context.Context, id int64) (models.Subscription, error) {
	query := `
		SELECT id, follower_id, followed_id
		FROM subscribe
		WHERE id = $1
	`

	var sub models.Subscription
	err := s.db.QueryRowContext(ctx, query, id).Scan(&sub.ID, &sub.FollowerID, &sub.FollowedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Subscription{}, models.ErrSubscriptionNotFound
		}
		return models.Subscription{}, fmt.Errorf("failed to get subscription: %w", err)
	}

	return sub, nil
}

func (s *SubscriptionStore) ListFollowing(ctx context.Context, followerID int64) ([]models.Subscription, error) {
	query := `
		SELECT id, follower_id, followed_id
		FROM subscribe
		WHERE follower_id = $1
		ORDER BY id
	`
	return s.list(ctx, query, followerID)
}

func (s *SubscriptionStore) ListFollowers(ctx context.Context, followedID int64) ([]models.Subscription, error) {
	query := `
		SELECT id, follower_id, followed_id
		FROM subscribe
		WHERE followed_id = $1
		ORDER BY id
	`
	return s.list(ctx, query, followedID)
}

func (s *SubscriptionStore) list(ctx context.Context, query string, arg int64) ([]models.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []models.Subscription{}
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.FollowerID, &sub.FollowedID); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subs, nil
}
