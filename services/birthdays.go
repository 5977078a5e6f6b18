package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"birthdayreminder/models"
)

const reminderSubject = "Birthday reminder!"

type dueNotificationStore interface {
	ListDueUnsent(ctx context.Context, now time.Time) ([]models.Notification, error)
	MarkSent(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, id int64, at time.Time) error
}

type subscriptionGetter interface {
	GetByID(ctx context.Context, id int64) (models.Subscription, error)
}

type userGetter interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
}

// SweepResult summarises one pass of the notification sweep.
type SweepResult struct {
	Due       int
	Delivered int
	Failed    int
	Skipped   int
}

// BirthdaySweep emails followers whose reminder time has come and marks the reminders sent.
type BirthdaySweep struct {
	notifications dueNotificationStore
	subscriptions subscriptionGetter
	users         userGetter
	mailer        Mailer
	metrics       *Metrics
	log           zerolog.Logger

	reschedule bool
	now        func() time.Time
}

type SweepOption func(*BirthdaySweep)

// WithReschedule moves each sent reminder to the next year's occurrence instead of
// leaving it marked sent.
func WithReschedule(enabled bool) SweepOption {
	return func(s *BirthdaySweep) { s.reschedule = enabled }
}

func WithClock(now func() time.Time) SweepOption {
	return func(s *BirthdaySweep) { s.now = now }
}

func NewBirthdaySweep(
	notifications dueNotificationStore,
	subscriptions subscriptionGetter,
	users userGetter,
	mailer Mailer,
	metrics *Metrics,
	log zerolog.Logger,
	opts ...SweepOption,
) *BirthdaySweep {
	s := &BirthdaySweep{
		notifications: notifications,
		subscriptions: subscriptions,
		users:         users,
		mailer:        mailer,
		metrics:       metrics,
		log:           log.With().Str("job", "notification_sweep").Logger(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes every unsent reminder due at the current time. Per-item failures are
// logged and never stop the pass.
func (s *BirthdaySweep) Run(ctx context.Context) SweepResult {
	var result SweepResult
	start := time.Now()
	s.metrics.SweepRuns.Inc()
	defer func() {
		s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	now := s.now().UTC()
	due, err := s.notifications.ListDueUnsent(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list due notifications")
		s.metrics.NotificationErrors.WithLabelValues("list").Inc()
		return result
	}

	result.Due = len(due)
	s.metrics.NotificationsDue.Add(float64(len(due)))
	if len(due) == 0 {
		return result
	}
	s.log.Info().Int("due", len(due)).Time("now", now).Msg("processing due notifications")

	for _, n := range due {
		if ctx.Err() != nil {
			s.log.Warn().Msg("sweep interrupted, leaving remaining notifications for the next run")
			break
		}
		s.process(ctx, n, now, &result)
	}

	s.log.Info().
		Int("due", result.Due).
		Int("delivered", result.Delivered).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("notification sweep finished")

	return result
}

func (s *BirthdaySweep) process(ctx context.Context, n models.Notification, now time.Time, result *SweepResult) {
	log := s.log.With().Int64("notification_id", n.ID).Int64("subscription_id", n.SubscriptionID).Logger()

	follower, followed, err := s.resolve(ctx, n)
	if err != nil {
		// left unsent so the next run retries it
		log.Error().Err(err).Msg("failed to resolve notification recipients")
		s.metrics.NotificationErrors.WithLabelValues("resolve").Inc()
		result.Skipped++
		return
	}

	body := fmt.Sprintf("Soon it is the birthday of user %s!", followed.Email)
	if err := s.mailer.SendMessage(ctx, []string{follower.Email}, reminderSubject, body); err != nil {
		log.Error().Err(err).Str("to", follower.Email).Msg("failed to deliver birthday reminder")
		s.metrics.DeliveryFailures.Inc()
		result.Failed++
	} else {
		log.Info().Str("to", follower.Email).Str("about", followed.Username).Msg("birthday reminder sent")
		s.metrics.NotificationsSent.Inc()
		result.Delivered++
	}

	if err := s.notifications.MarkSent(ctx, n.ID); err != nil {
		log.Error().Err(err).Msg("failed to mark notification sent")
		s.metrics.NotificationErrors.WithLabelValues("mark").Inc()
		return
	}

	if !s.reschedule {
		return
	}
	next := RescheduleTime(followed.Birthday, n.NotificationTime, now)
	if err := s.notifications.Reschedule(ctx, n.ID, next); err != nil {
		log.Error().Err(err).Msg("failed to reschedule notification")
		s.metrics.NotificationErrors.WithLabelValues("reschedule").Inc()
		return
	}
	log.Debug().Time("next", next).Msg("notification rescheduled")
}

func (s *BirthdaySweep) resolve(ctx context.Context, n models.Notification) (models.User, models.User, error) {
	sub, err := s.subscriptions.GetByID(ctx, n.SubscriptionID)
	if err != nil {
		return models.User{}, models.User{}, fmt.Errorf("subscription: %w", err)
	}
	follower, err := s.users.GetByID(ctx, sub.FollowerID)
	if err != nil {
		return models.User{}, models.User{}, fmt.Errorf("follower %d: %w", sub.FollowerID, err)
	}
	followed, err := s.users.GetByID(ctx, sub.FollowedID)
	if err != nil {
		return models.User{}, models.User{}, fmt.Errorf("followed %d: %w", sub.FollowedID, err)
	}
	return follower, followed, nil
}
