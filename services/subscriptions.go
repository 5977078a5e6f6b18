package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"birthdayreminder/db"
	"birthdayreminder/models"
)

// SubscriptionService manages follow edges together with their reminder schedule.
type SubscriptionService struct {
	conn    *sql.DB
	maxLead time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

func NewSubscriptionService(conn *sql.DB, maxLead time.Duration, log zerolog.Logger) *SubscriptionService {
	return &SubscriptionService{
		conn:    conn,
		maxLead: maxLead,
		log:     log.With().Str("component", "subscriptions").Logger(),
		now:     time.Now,
	}
}

// Follow subscribes followerID to followedID and schedules the first reminder. The
// subscription and its notification are written in one transaction.
func (s *SubscriptionService) Follow(ctx context.Context, followerID, followedID int64, lead models.LeadTime) (models.Notification, error) {
	if followerID == followedID {
		return models.Notification{}, models.ErrSelfFollow
	}

	switch {
	case lead.Days < 0 || lead.Hours < 0 || lead.Minutes < 0 || lead.Seconds < 0:
		return models.Notification{}, models.ErrLeadTimeNegative
	case !lead.Within(s.maxLead):
		return models.Notification{}, fmt.Errorf("%w: maximum is %s", models.ErrLeadTimeTooLarge, s.maxLead)
	}
	d := lead.Duration()

	var created models.Notification
	err := db.RunInTx(ctx, s.conn, func(tx *sql.Tx) error {
		followed, err := db.NewUserStore(tx).GetByID(ctx, followedID)
		if err != nil {
			return err
		}

		sub, err := db.NewSubscriptionStore(tx).Follow(ctx, followerID, followedID)
		if err != nil {
			return err
		}

		at := NextNotificationTime(followed.Birthday, d, s.now())
		created, err = db.NewNotificationStore(tx).CreateSchedule(ctx, sub.ID, at)
		return err
	})
	if err != nil {
		return models.Notification{}, err
	}

	s.log.Info().
		Int64("follower_id", followerID).
		Int64("followed_id", followedID).
		Time("notification_time", created.NotificationTime).
		Msg("subscription created")

	return created, nil
}

func (s *SubscriptionService) Unfollow(ctx context.Context, followerID, followedID int64) error {
	if err := db.NewSubscriptionStore(s.conn).Unfollow(ctx, followerID, followedID); err != nil {
		return err
	}

	s.log.Info().Int64("follower_id", followerID).Int64("followed_id", followedID).Msg("subscription removed")
	return nil
}

func (s *SubscriptionService) ListNotifications(ctx context.Context, userID int64) ([]models.NotificationView, error) {
	return db.NewNotificationStore(s.conn).ListForFollower(ctx, userID)
}

// Following returns the users userID follows.
func (s *SubscriptionService) Following(ctx context.Context, userID int64) ([]models.PublicUser, error) {
	subs, err := db.NewSubscriptionStore(s.conn).ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.publicUsers(ctx, subs, func(sub models.Subscription) int64 { return sub.FollowedID })
}

// Followers returns the users following userID.
func (s *SubscriptionService) Followers(ctx context.Context, userID int64) ([]models.PublicUser, error) {
	subs, err := db.NewSubscriptionStore(s.conn).ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.publicUsers(ctx, subs, func(sub models.Subscription) int64 { return sub.FollowerID })
}

func (s *SubscriptionService) Profile(ctx context.Context, userID int64) (models.Profile, error) {
	u, err := db.NewUserStore(s.conn).GetByID(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}

	followers, err := s.Followers(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	following, err := s.Following(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}

	return models.Profile{
		PublicUser: u.Public(),
		Birthday:   u.Birthday,
		Followers:  followers,
		Following:  following,
	}, nil
}

func (s *SubscriptionService) publicUsers(ctx context.Context, subs []models.Subscription, pick func(models.Subscription) int64) ([]models.PublicUser, error) {
	users := db.NewUserStore(s.conn)

	out := make([]models.PublicUser, 0, len(subs))
	for _, sub := range subs {
		u, err := users.GetByID(ctx, pick(sub))
		if err != nil {
			return nil, fmt.Errorf("subscription %d: %w", sub.ID, err)
		}
		out = append(out, u.Public())
	}

	return out, nil
}
