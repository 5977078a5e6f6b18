package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"birthdayreminder/config"
	"birthdayreminder/models"
)

type userRepository interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

type tokenRepository interface {
	CreateRefresh(ctx context.Context, t models.RefreshToken) (models.RefreshToken, error)
	GetByJTI(ctx context.Context, jti string) (models.RefreshToken, error)
	Blacklist(ctx context.Context, tokenID int64) error
	IsBlacklisted(ctx context.Context, tokenID int64) (bool, error)
}

// Claims is the JWT payload of both access and refresh tokens.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
	Birthday             time.Time
}

// AuthService issues and verifies HS256 access/refresh token pairs.
type AuthService struct {
	users  userRepository
	tokens tokenRepository
	secret []byte

	accessTTL  time.Duration
	refreshTTL time.Duration
	hashCost   int

	log zerolog.Logger
	now func() time.Time
}

func NewAuthService(users userRepository, tokens tokenRepository, cfg config.AuthConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		hashCost:   bcrypt.DefaultCost,
		log:        log.With().Str("component", "auth").Logger(),
		now:        time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.User, models.TokenPair, error) {
	if utf8.RuneCountInString(in.Username) > models.MaxUsernameLength {
		return models.User{}, models.TokenPair{}, models.ErrUsernameTooLong
	}
	if in.Password != in.PasswordConfirmation {
		return models.User{}, models.TokenPair{}, models.ErrPasswordsDoNotMatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.users.Create(ctx, models.User{
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: string(hash),
		Birthday:       dateOnly(in.Birthday),
	})
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	s.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("user registered")
	return u, pair, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (models.TokenPair, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.TokenPair{}, models.ErrInvalidCredentials
		}
		return models.TokenPair{}, err
	}

	if !s.VerifyPassword(u.HashedPassword, password) {
		return models.TokenPair{}, models.ErrInvalidCredentials
	}

	return s.issuePair(ctx, u.ID)
}

// Refresh issues a new access token for a live, persisted, non-revoked refresh token.
// The refresh token itself is returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	stored, err := s.checkRefresh(ctx, refreshToken)
	if err != nil {
		return models.TokenPair{}, err
	}

	access, _, err := s.sign(stored.UserID, models.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refreshToken, TokenType: "Bearer"}, nil
}

// Logout revokes the refresh token. Revoking an already revoked token succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	stored, err := s.checkRefresh(ctx, refreshToken)
	switch {
	case errors.Is(err, models.ErrTokenRevoked):
		return nil
	case err != nil:
		return err
	}

	if err := s.tokens.Blacklist(ctx, stored.ID); err != nil {
		return err
	}

	s.log.Info().Int64("user_id", stored.UserID).Str("jti", stored.JTI).Msg("refresh token revoked")
	return nil
}

// ParseAccessToken returns the user id carried by a valid access token.
func (s *AuthService) ParseAccessToken(token string) (int64, error) {
	claims, err := s.parse(token)
	if err != nil {
		return 0, err
	}
	if claims.TokenType != models.TokenTypeAccess {
		return 0, fmt.Errorf("%w: not an access token", models.ErrUnauthorized)
	}
	return subjectID(claims)
}

func (s *AuthService) VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *AuthService) checkRefresh(ctx context.Context, refreshToken string) (models.RefreshToken, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return models.RefreshToken{}, err
	}
	if claims.TokenType != models.TokenTypeRefresh {
		return models.RefreshToken{}, fmt.Errorf("%w: not a refresh token", models.ErrUnauthorized)
	}

	stored, err := s.tokens.GetByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.RefreshToken{}, fmt.Errorf("%w: unknown refresh token", models.ErrUnauthorized)
		}
		return models.RefreshToken{}, err
	}

	revoked, err := s.tokens.IsBlacklisted(ctx, stored.ID)
	if err != nil {
		return models.RefreshToken{}, err
	}
	if revoked {
		return stored, models.ErrTokenRevoked
	}

	return stored, nil
}

func (s *AuthService) issuePair(ctx context.Context, userID int64) (models.TokenPair, error) {
	access, _, err := s.sign(userID, models.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, claims, err := s.sign(userID, models.TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}

	_, err = s.tokens.CreateRefresh(ctx, models.RefreshToken{
		Token:  refresh,
		Exp:    claims.ExpiresAt.Unix(),
		Iat:    claims.IssuedAt.Unix(),
		JTI:    claims.ID,
		UserID: userID,
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}, nil
}

func (s *AuthService) sign(userID int64, tokenType string, ttl time.Duration) (string, Claims, error) {
	now := s.now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, claims, nil
}

func (s *AuthService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: invalid token", models.ErrUnauthorized)
	}

	return claims, nil
}

func subjectID(claims *Claims) (int64, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid subject", models.ErrUnauthorized)
	}
	return id, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
