package repository

import (
	"context"
	"errors"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/darsplatform/darsacademy-backend/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	FindActive(ctx context.Context, userID, courseID uuid.UUID) ([]entity.Purchase, error)
	// FindActiveForCourses returns the user's ACTIVE purchases restricted to
	// the given courses.
	FindActiveForCourses(ctx context.Context, userID uuid.UUID, courseIDs []uuid.UUID) ([]entity.Purchase, error)
	// FindActiveByUser loads the user's ACTIVE purchases with their courses,
	// newest first.
	FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]entity.Purchase, error)
	// ActiveUserIDsForCourses returns the distinct users holding an ACTIVE
	// purchase of any of the given courses.
	ActiveUserIDsForCourses(ctx context.Context, courseIDs []uuid.UUID) ([]uuid.UUID, error)
	Create(ctx context.Context, purchase *entity.Purchase) error
	UpdateStatus(ctx context.Context, userID, courseID uuid.UUID, status string) error

	UpsertProgress(ctx context.Context, progress *entity.UserProgress) error
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) FindActive(ctx context.Context, userID, courseID uuid.UUID) ([]entity.Purchase, error) {
	var purchases []entity.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, entity.PurchaseActive).
		Find(&purchases).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return purchases, nil
}

func (r *purchaseRepository) FindActiveForCourses(ctx context.Context, userID uuid.UUID, courseIDs []uuid.UUID) ([]entity.Purchase, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var purchases []entity.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id IN ? AND status = ?", userID, courseIDs, entity.PurchaseActive).
		Find(&purchases).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return purchases, nil
}

func (r *purchaseRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]entity.Purchase, error) {
	var purchases []entity.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, entity.PurchaseActive).
		Preload("Course").
		Order("created_at desc").
		Find(&purchases).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return purchases, nil
}

func (r *purchaseRepository) ActiveUserIDsForCourses(ctx context.Context, courseIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var userIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.Purchase{}).
		Distinct("user_id").
		Where("course_id IN ? AND status = ?", courseIDs, entity.PurchaseActive).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return userIDs, nil
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *entity.Purchase) error {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return database.MapError(err)
	}
	return nil
}

func (r *purchaseRepository) UpdateStatus(ctx context.Context, userID, courseID uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Purchase{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Update("status", status)
	if result.Error != nil {
		return database.MapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return database.MapError(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *purchaseRepository) UpsertProgress(ctx context.Context, progress *entity.UserProgress) error {
	var existing entity.UserProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND chapter_id = ?", progress.UserID, progress.ChapterID).
		First(&existing).Error
	if err == nil {
		existing.IsCompleted = progress.IsCompleted
		if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return database.MapError(err)
		}
		*progress = existing
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return database.MapError(err)
	}
	if err := r.db.WithContext(ctx).Create(progress).Error; err != nil {
		return database.MapError(err)
	}
	return nil
}
