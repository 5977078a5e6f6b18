package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"birthdayreminder/config"
	"birthdayreminder/models"
	"birthdayreminder/services"
)

type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (models.User, models.TokenPair, error)
	Login(ctx context.Context, username, password string) (models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

type SubscriptionService interface {
	Follow(ctx context.Context, followerID, followedID int64, lead models.LeadTime) (models.Notification, error)
	Unfollow(ctx context.Context, followerID, followedID int64) error
	ListNotifications(ctx context.Context, userID int64) ([]models.NotificationView, error)
	Profile(ctx context.Context, userID int64) (models.Profile, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	auth AuthService
	subs SubscriptionService
	db   Pinger

	accessTTL    time.Duration
	refreshTTL   time.Duration
	secureCookie bool

	log zerolog.Logger
}

func New(auth AuthService, subs SubscriptionService, db Pinger, cfg config.AuthConfig, log zerolog.Logger) *Handler {
	return &Handler{
		auth:         auth,
		subs:         subs,
		db:           db,
		accessTTL:    cfg.AccessTokenTTL,
		refreshTTL:   cfg.RefreshTokenTTL,
		secureCookie: cfg.SecureCookie,
		log:          log.With().Str("component", "http").Logger(),
	}
}
