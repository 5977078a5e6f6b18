package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"birthdayreminder/middleware"
	"birthdayreminder/models"
)

type followRequest struct {
	FollowedID int64           `json:"followed_id" binding:"required,gt=0"`
	LeadTime   models.LeadTime `json:"lead_time"`
}

func (h *Handler) Follow(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.subs.Follow(c.Request.Context(), userID, req.FollowedID, req.LeadTime)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"subscription_id":   n.SubscriptionID,
		"notification_time": n.NotificationTime,
	})
}

func (h *Handler) Unfollow(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	followedID, err := strconv.ParseInt(c.Param("followed_id"), 10, 64)
	if err != nil || followedID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	if err := h.subs.Unfollow(c.Request.Context(), userID, followedID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed"})
}

func (h *Handler) ListNotifications(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	views, err := h.subs.ListNotifications(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": views})
}
