package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"birthdayreminder/middleware"
	"birthdayreminder/models"
	"birthdayreminder/services"
)

type registerRequest struct {
	Username             string `json:"username" binding:"required"`
	Email                string `json:"email" binding:"required,email"`
	Password             string `json:"password" binding:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
	Birthday             string `json:"birthday" binding:"required,datetime=2006-01-02,notfuture"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	birthday, _ := time.Parse(dateLayout, req.Birthday)
	u, pair, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Username:             req.Username,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		Birthday:             birthday,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusCreated, gin.H{
		"user":         u.Public(),
		"access_token": pair.AccessToken,
		"token_type":   pair.TokenType,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) Refresh(c *gin.Context) {
	token, ok := refreshTokenFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token required"})
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) Logout(c *gin.Context) {
	token, ok := refreshTokenFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token required"})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.respondError(c, err)
		return
	}

	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	profile, err := h.subs.Profile(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// refreshTokenFrom reads the refresh token from the cookie, falling back to the JSON body.
func refreshTokenFrom(c *gin.Context) (string, bool) {
	if cookie, err := c.Cookie(middleware.RefreshCookie); err == nil && cookie != "" {
		return cookie, true
	}

	var req refreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", false
		}
	}
	return req.RefreshToken, req.RefreshToken != ""
}

func (h *Handler) setAuthCookies(c *gin.Context, pair models.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookie, pair.AccessToken, int(h.accessTTL.Seconds()), "/", "", h.secureCookie, true)
	if pair.RefreshToken != "" {
		c.SetCookie(middleware.RefreshCookie, pair.RefreshToken, int(h.refreshTTL.Seconds()), "/", "", h.secureCookie, true)
	}
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(middleware.AccessCookie, "", -1, "/", "", h.secureCookie, true)
	c.SetCookie(middleware.RefreshCookie, "", -1, "/", "", h.secureCookie, true)
}
