package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCourseRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Price       *int    `json:"price" binding:"omitempty,min=0"`
}

type UpdateCourseRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *int    `json:"price" binding:"omitempty,min=0"`
}

type PublishRequest struct {
	IsPublished *bool `json:"isPublished" binding:"required"`
}

type CreateChapterRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	IsFree      bool    `json:"isFree"`
}

type UpdateChapterRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsFree      *bool   `json:"isFree"`
	Position    *int    `json:"position" binding:"omitempty,min=1"`
}

type ProgressRequest struct {
	IsCompleted *bool `json:"isCompleted" binding:"required"`
}

type OwnerResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	ImageURL *string   `json:"image_url,omitempty"`
}

type CourseResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Price       *int      `json:"price"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PublicCourseResponse is the catalog projection: owner, published chapter
// count and a zeroed progress placeholder for unauthenticated visitors.
type PublicCourseResponse struct {
	CourseResponse
	Owner        OwnerResponse `json:"user"`
	ChapterCount int           `json:"chapter_count"`
	Progress     int           `json:"progress"`
}

type ChapterResponse struct {
	ID          uuid.UUID `json:"id"`
	CourseID    uuid.UUID `json:"course_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Position    int       `json:"position"`
	IsPublished bool      `json:"is_published"`
	IsFree      bool      `json:"is_free"`
}

type ProgressResponse struct {
	ChapterID   uuid.UUID `json:"chapter_id"`
	IsCompleted bool      `json:"is_completed"`
}
