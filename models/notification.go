// scholarship-system/models/notification.go

package models

import "time"

// Notification is a message queued for a user. Delivery (mail, push) is
// handled by external channels; this table is only the outbox.
type Notification struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	UserID        uint       `json:"userId" gorm:"index;not null"`
	ApplicationID *uint      `json:"applicationId" gorm:"index"`
	Title         string     `json:"title" gorm:"not null"`
	Body          string     `json:"body" gorm:"type:text"`
	ReadAt        *time.Time `json:"readAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}
