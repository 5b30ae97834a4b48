package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationSessionPublished = "SESSION_PUBLISHED"
	NotificationCourseGranted    = "COURSE_GRANTED"
)

type Notification struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Type    string    `gorm:"size:50;not null" json:"type"`
	Message string    `gorm:"type:text;not null" json:"message"`
	// ReferenceID points at the session or course the notification is about.
	ReferenceID *uuid.UUID `gorm:"type:uuid" json:"reference_id,omitempty"`
	IsRead      bool       `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
