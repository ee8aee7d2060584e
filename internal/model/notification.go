package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification type enum constants
const (
	NotifTypeApprovalRequired = "approval_required"
	NotifTypeRequestApproved  = "request_approved"
	NotifTypeRequestRejected  = "request_rejected"
)

// Notification is a per-user record created when an approval chain
// progresses. Never mutated except for the read flag, never deleted.
type Notification struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Type          string    `gorm:"type:varchar(30);not null" json:"type"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	RequestID     uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	RequestNumber string    `gorm:"type:varchar(20);not null" json:"request_number"`
	IsRead        bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
