package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LinkTypeZoom       = "ZOOM"
	LinkTypeGoogleMeet = "GOOGLE_MEET"
)

// LiveSession is a scheduled Zoom / Google Meet meeting attached to one or
// more courses. Its temporal status (not_started/active/ended) is derived on
// read and never persisted.
type LiveSession struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description,omitempty"`
	LinkURL     string     `gorm:"type:text;not null" json:"link_url"`
	LinkType    string     `gorm:"size:20;not null" json:"link_type"`
	StartDate   time.Time  `gorm:"not null;index" json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsFree      bool       `gorm:"not null;default:false" json:"is_free"`
	IsPublished bool       `gorm:"not null;default:false" json:"is_published"`
	// Optional anchor to a chapter of one of the linked courses.
	ChapterID *uuid.UUID `gorm:"type:uuid" json:"chapter_id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Courses []LiveSessionCourse `gorm:"foreignKey:LiveSessionID;constraint:OnDelete:CASCADE" json:"courses,omitempty"`
}

func (s *LiveSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// LiveSessionCourse links a session to a course (many-to-many).
type LiveSessionCourse struct {
	LiveSessionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"live_session_id"`
	CourseID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"course_id"`
	Course        Course    `gorm:"constraint:OnDelete:CASCADE" json:"course"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
