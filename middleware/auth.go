package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"birthdayreminder/models"
)

const (
	userIDKey = "userID"

	// RefreshCookie carries the refresh token; AccessCookie is an optional fallback for the
	// Authorization header.
	RefreshCookie = "refresh_token"
	AccessCookie  = "access_token"
)

// TokenParser resolves an access token to a user id.
type TokenParser interface {
	ParseAccessToken(token string) (int64, error)
}

func AuthRequired(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			if cookie, err := c.Cookie(AccessCookie); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		userID, err := parser.ParseAccessToken(tokenString)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, models.ErrTokenExpired) {
				msg = "Token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id set by AuthRequired.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
