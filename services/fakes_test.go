package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"

	"birthdayreminder/models"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendMessage(ctx context.Context, recipients []string, subject, body string) error {
	args := m.Called(ctx, recipients, subject, body)
	return args.Error(0)
}

type memNotifications struct {
	mu      sync.Mutex
	rows    map[int64]models.Notification
	listErr error
	markErr error
}

func newMemNotifications(rows ...models.Notification) *memNotifications {
	s := &memNotifications{rows: make(map[int64]models.Notification)}
	for _, r := range rows {
		s.rows[r.ID] = r
	}
	return s
}

func (s *memNotifications) ListDueUnsent(_ context.Context, now time.Time) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var due []models.Notification
	for _, n := range s.rows {
		if !n.Notificated && !n.NotificationTime.After(now) {
			due = append(due, n)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (s *memNotifications) MarkSent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	n, ok := s.rows[id]
	if !ok {
		return models.ErrNotificationNotFound
	}
	n.Notificated = true
	s.rows[id] = n
	return nil
}

func (s *memNotifications) Reschedule(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.rows[id]
	if !ok {
		return models.ErrNotificationNotFound
	}
	n.NotificationTime = at
	n.Notificated = false
	s.rows[id] = n
	return nil
}

func (s *memNotifications) get(id int64) models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id]
}

type memSubscriptions map[int64]models.Subscription

func (m memSubscriptions) GetByID(_ context.Context, id int64) (models.Subscription, error) {
	sub, ok := m[id]
	if !ok {
		return models.Subscription{}, models.ErrSubscriptionNotFound
	}
	return sub, nil
}

type memUsers map[int64]models.User

func (m memUsers) GetByID(_ context.Context, id int64) (models.User, error) {
	u, ok := m[id]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	return u, nil
}

type memTokens struct {
	exps    map[int64]int64
	err     error
	calls   int
	lastNow time.Time
}

func (m *memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.calls++
	m.lastNow = now
	if m.err != nil {
		return 0, m.err
	}
	var deleted int64
	for id, exp := range m.exps {
		if exp < now.Unix() {
			delete(m.exps, id)
			deleted++
		}
	}
	return deleted, nil
}

var errStoreDown = errors.New("connection refused")

func newTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
