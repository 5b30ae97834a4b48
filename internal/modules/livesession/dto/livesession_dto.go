package dto

import (
	"time"

	"github.com/darsplatform/darsacademy-backend/internal/policy"
	"github.com/google/uuid"
)

type CreateLiveSessionRequest struct {
	Title       string      `json:"title" binding:"required"`
	Description *string     `json:"description"`
	LinkURL     string      `json:"linkUrl" binding:"required"`
	LinkType    string      `json:"linkType" binding:"required,oneof=ZOOM GOOGLE_MEET"`
	StartDate   time.Time   `json:"startDate" binding:"required"`
	EndDate     *time.Time  `json:"endDate"`
	IsFree      bool        `json:"isFree"`
	CourseIDs   []uuid.UUID `json:"courseIds" binding:"required,min=1"`
	ChapterID   *uuid.UUID  `json:"chapterId"`
}

// UpdateLiveSessionRequest is a partial update: only supplied fields change.
// When CourseIDs is present the whole link set is replaced.
type UpdateLiveSessionRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	LinkURL     *string     `json:"linkUrl"`
	LinkType    *string     `json:"linkType" binding:"omitempty,oneof=ZOOM GOOGLE_MEET"`
	StartDate   *time.Time  `json:"startDate"`
	EndDate     *time.Time  `json:"endDate"`
	IsFree      *bool       `json:"isFree"`
	CourseIDs   []uuid.UUID `json:"courseIds" binding:"omitempty,min=1"`
	ChapterID   *uuid.UUID  `json:"chapterId"`
}

type PublishRequest struct {
	IsPublished *bool `json:"isPublished" binding:"required"`
}

// CourseRef is the flattened join-row projection attached to session
// responses.
type CourseRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Owner *OwnerRef `json:"user,omitempty"`
}

type OwnerRef struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

type LiveSessionResponse struct {
	ID          uuid.UUID            `json:"id"`
	Title       string               `json:"title"`
	Description *string              `json:"description,omitempty"`
	LinkURL     string               `json:"link_url"`
	LinkType    string               `json:"link_type"`
	StartDate   time.Time            `json:"start_date"`
	EndDate     *time.Time           `json:"end_date"`
	IsFree      bool                 `json:"is_free"`
	IsPublished bool                 `json:"is_published"`
	ChapterID   *uuid.UUID           `json:"chapter_id"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Courses     []CourseRef          `json:"courses,omitempty"`
	Status      policy.SessionStatus `json:"status,omitempty"`
}
