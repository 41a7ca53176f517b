// scholarship-system/models/audit_log.go

package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of application state changes. Writes are
// fire-and-forget: a failed audit write never rolls back the operation it
// describes.
type AuditLog struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	ApplicationID uint           `json:"applicationId" gorm:"index;not null"`
	Action        string         `json:"action" gorm:"not null"`
	ActorID       uint           `json:"actorId"`
	Before        datatypes.JSON `json:"before"`
	After         datatypes.JSON `json:"after"`
	Description   string         `json:"description" gorm:"type:text"`
	CreatedAt     time.Time      `json:"createdAt"`
}
