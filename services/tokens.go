package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type expiredTokenStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenSweep deletes refresh tokens past their expiry. Blacklist entries go with them.
type TokenSweep struct {
	tokens  expiredTokenStore
	metrics *Metrics
	log     zerolog.Logger
	now     func() time.Time
}

func NewTokenSweep(tokens expiredTokenStore, metrics *Metrics, log zerolog.Logger) *TokenSweep {
	return &TokenSweep{
		tokens:  tokens,
		metrics: metrics,
		log:     log.With().Str("job", "token_sweep").Logger(),
		now:     time.Now,
	}
}

// Run never returns an error; failures are logged and retried on the next tick.
func (s *TokenSweep) Run(ctx context.Context) {
	s.metrics.TokenSweepRuns.Inc()

	deleted, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to delete expired tokens")
		s.metrics.TokenSweepErrors.Inc()
		return
	}

	s.metrics.TokensDeleted.Add(float64(deleted))
	s.log.Info().Int64("deleted", deleted).Msg("expired tokens removed")
}
