package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every sentinel below wraps exactly one of them.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrDeliveryFailure = errors.New("delivery failure")
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrSubscriptionNotFound = fmt.Errorf("subscription %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
	ErrTokenNotFound        = fmt.Errorf("refresh token %w", ErrNotFound)

	ErrUserAlreadyExists         = fmt.Errorf("user %w", ErrAlreadyExists)
	ErrSubscriptionAlreadyExists = fmt.Errorf("subscription %w", ErrAlreadyExists)
	ErrNotificationAlreadyExists = fmt.Errorf("notification %w", ErrAlreadyExists)

	ErrSelfFollow          = fmt.Errorf("%w: cannot subscribe to yourself", ErrInvalidInput)
	ErrLeadTimeTooLarge    = fmt.Errorf("%w: lead time is too large", ErrInvalidInput)
	ErrLeadTimeNegative    = fmt.Errorf("%w: lead time must not be negative", ErrInvalidInput)
	ErrPasswordsDoNotMatch = fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	ErrUsernameTooLong     = fmt.Errorf("%w: username must be at most 30 characters", ErrInvalidInput)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrTokenRevoked       = fmt.Errorf("%w: token revoked", ErrUnauthorized)
)

const MaxUsernameLength = 30
