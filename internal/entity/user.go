package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser    = "USER"
	RoleTeacher = "TEACHER"
	RoleAdmin   = "ADMIN"
)

// User covers all three roles. Phone numbers are pointers so accounts
// provisioned through Google sign-in can exist without one; the partial
// unique indexes still apply to non-null values.
type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName          string    `gorm:"size:100;not null" json:"full_name"`
	PhoneNumber       *string   `gorm:"size:30;uniqueIndex" json:"phone_number,omitempty"`
	ParentPhoneNumber *string   `gorm:"size:30;uniqueIndex" json:"parent_phone_number,omitempty"`
	HashedPassword    string    `gorm:"size:255" json:"-"`
	Role              string    `gorm:"size:20;not null;default:USER" json:"role"`
	ImageURL          *string   `gorm:"type:text" json:"image_url,omitempty"`
	GoogleID          *string   `gorm:"size:100;uniqueIndex" json:"-"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Courses   []Course   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Purchases []Purchase `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsStaff reports whether the user may reach teacher/admin surfaces.
func (u *User) IsStaff() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}
