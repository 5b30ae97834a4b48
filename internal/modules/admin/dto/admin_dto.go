package dto

import (
	"time"

	"github.com/google/uuid"
)

type GrantPurchaseRequest struct {
	CourseID uuid.UUID `json:"courseId" binding:"required"`
}

// UpdateUserRequest is the teacher-side partial account update.
type UpdateUserRequest struct {
	FullName          *string `json:"fullName" binding:"omitempty,min=1,max=100"`
	PhoneNumber       *string `json:"phoneNumber" binding:"omitempty,min=8,max=20"`
	ParentPhoneNumber *string `json:"parentPhoneNumber" binding:"omitempty,min=8,max=20"`
	Role              *string `json:"role" binding:"omitempty,oneof=USER TEACHER ADMIN"`
}

// StudentCourseResponse is one course the student holds an active purchase
// of.
type StudentCourseResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Price       *int      `json:"price"`
	PurchasedAt time.Time `json:"purchased_at"`
}
