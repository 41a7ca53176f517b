// scholarship-system/internal/audit/audit.go

// Package audit persists application state transitions. Writes are
// fire-and-forget by contract: a failed audit write is logged and swallowed,
// never surfaced to the operation it describes.
package audit

import (
	"encoding/json"
	"log/slog"

	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/models"
)

type Logger struct {
	DB *gorm.DB
}

func NewLogger(db *gorm.DB) *Logger {
	return &Logger{DB: db}
}

func (l *Logger) Log(applicationID uint, action string, actorID uint, before, after any, description string) {
	entry := models.AuditLog{
		ApplicationID: applicationID,
		Action:        action,
		ActorID:       actorID,
		Description:   description,
	}
	if raw, err := json.Marshal(before); err == nil {
		entry.Before = raw
	}
	if raw, err := json.Marshal(after); err == nil {
		entry.After = raw
	}

	if err := l.DB.Create(&entry).Error; err != nil {
		slog.Error("audit write failed", "application_id", applicationID, "action", action, "error", err)
	}
}
