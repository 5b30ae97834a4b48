package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	FullName          string `json:"fullName" binding:"required"`
	PhoneNumber       string `json:"phoneNumber" binding:"required"`
	ParentPhoneNumber string `json:"parentPhoneNumber" binding:"required"`
	Password          string `json:"password" binding:"required"`
	ConfirmPassword   string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

type LoginRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID                uuid.UUID `json:"id"`
	FullName          string    `json:"full_name"`
	PhoneNumber       *string   `json:"phone_number,omitempty"`
	ParentPhoneNumber *string   `json:"parent_phone_number,omitempty"`
	Role              string    `json:"role"`
	ImageURL          *string   `json:"image_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
