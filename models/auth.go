package models

import (
	"time"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// RefreshToken is a row of token_blacklist_outstanding. Exp and Iat are unix seconds.
type RefreshToken struct {
	ID     int64
	Token  string
	Exp    int64
	Iat    int64
	JTI    string
	UserID int64
}

func (t RefreshToken) Expired(now time.Time) bool {
	return t.Exp < now.Unix()
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"-"`
	TokenType    string `json:"token_type"`
}
