package db

import (
	"context"
	"fmt"
	"time"

	"birthdayreminder/models"
)

// NotificationStore keeps at most one schedule row per subscription.
// Times are stored as UTC wall clock in a timestamp without time zone column.
type NotificationStore struct {
	db DBTX
}

func NewNotificationStore(db DBTX) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) CreateSchedule(ctx context.Context, subscriptionID int64, at time.Time) (models.Notification, error) {
	query := `
		INSERT INTO notification (subscription_id, notification_time, notificated)
		VALUES ($1, $2, FALSE)
		RETURNING id
	`

	n := models.Notification{SubscriptionID: subscriptionID, NotificationTime: at.UTC()}
	err := s.db.QueryRowContext(ctx, query, subscriptionID, n.NotificationTime).Scan(&n.ID)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return models.Notification{}, models.ErrNotificationAlreadyExists
		case isForeignKeyViolation(err):
			return models.Notification{}, models.ErrSubscriptionNotFound
		}
		return models.Notification{}, fmt.Errorf("failed to create notification: %w", err)
	}

	return n, nil
}

// ListDueUnsent returns every unsent notification whose time is at or before now.
// Order is not significant.
func (s *NotificationStore) ListDueUnsent(ctx context.Context, now time.Time) ([]models.Notification, error) {
	query := `
		SELECT id, subscription_id, notification_time, notificated
		FROM notification
		WHERE notification_time <= $1 AND notificated = FALSE
	`

	rows, err := s.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list due notifications: %w", err)
	}
	defer rows.Close()

	var due []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.SubscriptionID, &n.NotificationTime, &n.Notificated); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.NotificationTime = n.NotificationTime.UTC()
		due = append(due, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return due, nil
}

// MarkSent flags the notification as fired. Marking an already sent row is a no-op.
func (s *NotificationStore) MarkSent(ctx context.Context, id int64) error {
	query := `
		UPDATE notification
		SET notificated = TRUE
		WHERE id = $1
	`

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return models.ErrNotificationNotFound
	}

	return nil
}

// Reschedule moves the notification to a new time and clears the sent flag.
func (s *NotificationStore) Reschedule(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE notification
		SET notification_time = $1, notificated = FALSE
		WHERE id = $2
	`

	res, err := s.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to reschedule notification: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return models.ErrNotificationNotFound
	}

	return nil
}

// ListForFollower returns the schedule of every user the given user follows.
func (s *NotificationStore) ListForFollower(ctx context.Context, followerID int64) ([]models.NotificationView, error) {
	query := `
		SELECT n.notification_time, n.notificated, u.id, u.username, u.email
		FROM notification n
		JOIN subscribe s ON s.id = n.subscription_id
		JOIN "user" u ON u.id = s.followed_id
		WHERE s.follower_id = $1
		ORDER BY n.notification_time
	`

	rows, err := s.db.QueryContext(ctx, query, followerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	views := []models.NotificationView{}
	for rows.Next() {
		var v models.NotificationView
		if err := rows.Scan(&v.NotificationTime, &v.Notificated, &v.Target.ID, &v.Target.Username, &v.Target.Email); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		v.NotificationTime = v.NotificationTime.UTC()
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return views, nil
}
