package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"birthdayreminder/models"
)

// respondError maps a domain error to its HTTP status.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrPasswordsDoNotMatch):
		status = http.StatusNotAcceptable
	case errors.Is(err, models.ErrUsernameTooLong):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
