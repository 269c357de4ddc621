package student

import (
	"context"
	"errors"
	"net/http"
	"time"

	"smartroll-attendance-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	GetProfile(c *gin.Context)
}

type handler struct {
	repo    Repository
	timeout time.Duration
}

func NewHandler(repo Repository, timeout time.Duration) Handler {
	return &handler{repo: repo, timeout: timeout}
}

// GetProfile returns the display name registered for an e-mail address.
func (h *handler) GetProfile(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Email required"})
		return
	}

	student, err := h.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, models.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "User not found"})
		return
	case err != nil:
		logrus.WithError(err).Error("Profile lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Profile lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "name": student.Name})
}
