// scholarship-system/internal/handlers/notification_handler.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/internal/middleware"
	"github.com/anud18/scholarship-system-sub001/models"
)

type NotificationHandler struct {
	DB *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

// List returns the current user's notifications, unread first.
func (h *NotificationHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	query := h.DB.Model(&models.Notification{}).Where("user_id = ?", user.ID)
	if c.Query("unread") == "true" {
		query = query.Where("read_at IS NULL")
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		respondError(c, err)
		return
	}
	var notifications []models.Notification
	if err := query.Order("read_at IS NULL DESC, id DESC").Scopes(Paginate(c)).Find(&notifications).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, notifications, totalRows))
}

// MarkRead stamps one notification as read. Marking twice is harmless.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	now := time.Now()
	result := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, user.ID).
		Update("read_at", now)
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllRead stamps every unread notification of the current user.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user := middleware.CurrentUser(c)

	now := time.Now()
	result := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", user.ID).
		Update("read_at", now)
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": result.RowsAffected})
}
