package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	adminDto "github.com/darsplatform/darsacademy-backend/internal/modules/admin/dto"
	courseRepo "github.com/darsplatform/darsacademy-backend/internal/modules/course/repository"
	notifService "github.com/darsplatform/darsacademy-backend/internal/modules/notification/service"
	userDto "github.com/darsplatform/darsacademy-backend/internal/modules/user/dto"
	userRepo "github.com/darsplatform/darsacademy-backend/internal/modules/user/repository"
	"github.com/darsplatform/darsacademy-backend/pkg/apperror"
	"github.com/google/uuid"
)

type AdminService interface {
	ListUsers(ctx context.Context) ([]userDto.UserResponse, error)
	// StudentCourses lists the courses a student holds an ACTIVE purchase
	// of. 404 when the account is not a student.
	StudentCourses(ctx context.Context, studentID uuid.UUID) ([]adminDto.StudentCourseResponse, error)
	GrantPurchase(ctx context.Context, studentID, courseID uuid.UUID) error
	RevokePurchase(ctx context.Context, studentID, courseID uuid.UUID) error
	// UpdateUser is the teacher-side account edit: partial update of name,
	// phones and role.
	UpdateUser(ctx context.Context, targetID uuid.UUID, req *adminDto.UpdateUserRequest) (*userDto.UserResponse, error)
}

type adminService struct {
	users         userRepo.UserRepository
	courses       courseRepo.CourseRepository
	purchases     courseRepo.PurchaseRepository
	notifications notifService.NotificationService
}

func NewAdminService(
	users userRepo.UserRepository,
	courses courseRepo.CourseRepository,
	purchases courseRepo.PurchaseRepository,
	notifications notifService.NotificationService,
) AdminService {
	return &adminService{
		users:         users,
		courses:       courses,
		purchases:     purchases,
		notifications: notifications,
	}
}

func (s *adminService) ListUsers(ctx context.Context) ([]userDto.UserResponse, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]userDto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out, nil
}

func (s *adminService) StudentCourses(ctx context.Context, studentID uuid.UUID) ([]adminDto.StudentCourseResponse, error) {
	if _, err := s.findStudent(ctx, studentID); err != nil {
		return nil, err
	}

	purchases, err := s.purchases.FindActiveByUser(ctx, studentID)
	if err != nil {
		return nil, err
	}

	out := make([]adminDto.StudentCourseResponse, 0, len(purchases))
	for i := range purchases {
		p := &purchases[i]
		out = append(out, adminDto.StudentCourseResponse{
			ID:          p.CourseID,
			Title:       p.Course.Title,
			Description: p.Course.Description,
			ImageURL:    p.Course.ImageURL,
			Price:       p.Course.Price,
			PurchasedAt: p.CreatedAt,
		})
	}
	return out, nil
}

func (s *adminService) GrantPurchase(ctx context.Context, studentID, courseID uuid.UUID) error {
	if _, err := s.findStudent(ctx, studentID); err != nil {
		return err
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return err
	}

	active, err := s.purchases.FindActive(ctx, studentID, courseID)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return apperror.New(http.StatusConflict, "student already has access to this course", apperror.ErrConflict)
	}

	// A revoked or refunded row may exist for this pair; reactivate it
	// instead of violating the unique index.
	err = s.purchases.UpdateStatus(ctx, studentID, courseID, entity.PurchaseActive)
	if errors.Is(err, apperror.ErrNotFound) {
		err = s.purchases.Create(ctx, &entity.Purchase{
			UserID:   studentID,
			CourseID: courseID,
			Status:   entity.PurchaseActive,
		})
	}
	if err != nil {
		return err
	}

	if s.notifications != nil {
		refID := course.ID
		n := &entity.Notification{
			UserID:      studentID,
			Type:        entity.NotificationCourseGranted,
			Message:     fmt.Sprintf("You now have access to \"%s\"", course.Title),
			ReferenceID: &refID,
		}
		if err := s.notifications.CreateNotification(ctx, n); err != nil {
			log.Printf("grant purchase: notifying user %s: %v", studentID, err)
		}
	}
	return nil
}

func (s *adminService) RevokePurchase(ctx context.Context, studentID, courseID uuid.UUID) error {
	if _, err := s.findStudent(ctx, studentID); err != nil {
		return err
	}
	return s.purchases.UpdateStatus(ctx, studentID, courseID, entity.PurchaseRevoked)
}

func (s *adminService) UpdateUser(ctx context.Context, targetID uuid.UUID, req *adminDto.UpdateUserRequest) (*userDto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, targetID.String())
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, apperror.New(http.StatusBadRequest, "full name cannot be empty", apperror.ErrInvalidInput)
		}
		user.FullName = name
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.ParentPhoneNumber != nil {
		user.ParentPhoneNumber = req.ParentPhoneNumber
	}
	if user.PhoneNumber != nil && user.ParentPhoneNumber != nil && *user.PhoneNumber == *user.ParentPhoneNumber {
		return nil, apperror.New(http.StatusBadRequest, "phone number and parent phone number cannot be the same", apperror.ErrInvalidInput)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.New(http.StatusConflict, "phone number or parent phone number already in use", apperror.ErrConflict)
		}
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// findStudent resolves the account and hides non-student accounts behind a
// 404 so these endpoints cannot be used to probe staff accounts.
func (s *adminService) findStudent(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.New(http.StatusNotFound, "student not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	if user.Role != entity.RoleUser {
		return nil, apperror.New(http.StatusNotFound, "student not found", apperror.ErrNotFound)
	}
	return user, nil
}

func toUserResponse(user *entity.User) userDto.UserResponse {
	return userDto.UserResponse{
		ID:                user.ID,
		FullName:          user.FullName,
		PhoneNumber:       user.PhoneNumber,
		ParentPhoneNumber: user.ParentPhoneNumber,
		Role:              user.Role,
		ImageURL:          user.ImageURL,
		CreatedAt:         user.CreatedAt,
	}
}
