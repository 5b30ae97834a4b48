package repository

import (
	"context"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/darsplatform/darsacademy-backend/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseRepository interface {
	Create(ctx context.Context, course *entity.Course) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error)
	// FindByIDWithOwner loads the course with its owning user, for search
	// indexing and admin listings.
	FindByIDWithOwner(ctx context.Context, id uuid.UUID) (*entity.Course, error)
	// FindPublishedByID returns the course only when published.
	FindPublishedByID(ctx context.Context, id uuid.UUID) (*entity.Course, error)
	// FindByIDs returns the id/owner/title projection used by session
	// ownership checks.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Course, error)
	// FindPublishedByIDs returns the published subset of the given courses.
	FindPublishedByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Course, error)
	// FindAllPublished loads the public catalog: owner plus published
	// chapters, newest first.
	FindAllPublished(ctx context.Context) ([]entity.Course, error)
	Update(ctx context.Context, course *entity.Course) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateChapter(ctx context.Context, chapter *entity.Chapter) error
	FindChapterByID(ctx context.Context, id uuid.UUID) (*entity.Chapter, error)
	UpdateChapter(ctx context.Context, chapter *entity.Chapter) error
	DeleteChapter(ctx context.Context, id uuid.UUID) error
	NextChapterPosition(ctx context.Context, courseID uuid.UUID) (int, error)
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *entity.Course) error {
	if err := r.db.WithContext(ctx).Create(course).Error; err != nil {
		return database.MapError(err)
	}
	return nil
}

func (r *courseRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error) {
	var course entity.Course
	if err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, database.MapError(err)
	}
	return &course, nil
}

func (r *courseRepository) FindByIDWithOwner(ctx context.Context, id uuid.UUID) (*entity.Course, error) {
	var course entity.Course
	if err := r.db.WithContext(ctx).Preload("User").First(&course, "id = ?", id).Error; err != nil {
		return nil, database.MapError(err)
	}
	return &course, nil
}

func (r *courseRepository) FindPublishedByID(ctx context.Context, id uuid.UUID) (*entity.Course, error) {
	var course entity.Course
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_published = ?", id, true).
		First(&course).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return &course, nil
}

func (r *courseRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Course, error) {
	var courses []entity.Course
	err := r.db.WithContext(ctx).
		Select("id", "user_id", "title").
		Where("id IN ?", ids).
		Find(&courses).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return courses, nil
}

func (r *courseRepository) FindPublishedByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var courses []entity.Course
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_published = ?", ids, true).
		Find(&courses).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return courses, nil
}

func (r *courseRepository) FindAllPublished(ctx context.Context) ([]entity.Course, error) {
	var courses []entity.Course
	err := r.db.WithContext(ctx).
		Where("is_published = ?", true).
		Preload("User").
		Preload("Chapters", "is_published = ?", true).
		Order("created_at desc").
		Find(&courses).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return courses, nil
}

func (r *courseRepository) Update(ctx context.Context, course *entity.Course) error {
	if err := r.db.WithContext(ctx).Save(course).Error; err != nil {
		return database.MapError(err)
	}
	return nil
}

func (r *courseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&entity.Course{}, "id = ?", id).Error; err != nil {
		return database.MapError(err)
	}
	return nil
}

func (r *courseRepository) CreateChapter(ctx context.Context, chapter *entity.Chapter) error {
	if err := r.db.WithContext(ctx).Create(chapter).Error; err != nil {
		return database.MapError(err)
	}
	return nil
}

func (r *courseRepository) FindChapterByID(ctx context.Context, id uuid.UUID) (*entity.Chapter, error) {
	var chapter entity.Chapter
	if err := r.db.WithContext(ctx).First(&chapter, "id = ?", id).Error; err != nil {
		return nil, database.MapError(err)
	}
	return &chapter, nil
}

func (r *courseRepository) UpdateChapter(ctx context.Context, chapter *entity.Chapter) error {
	if err := r.db.WithContext(ctx).Save(chapter).Error; err != nil {
		return database.MapError(err)
	}
	return nil
}

func (r *courseRepository) DeleteChapter(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&entity.Chapter{}, "id = ?", id).Error; err != nil {
		return database.MapError(err)
	}
	return nil
}

func (r *courseRepository) NextChapterPosition(ctx context.Context, courseID uuid.UUID) (int, error) {
	var maxPosition *int
	err := r.db.WithContext(ctx).
		Model(&entity.Chapter{}).
		Where("course_id = ?", courseID).
		Select("MAX(position)").
		Scan(&maxPosition).Error
	if err != nil {
		return 0, database.MapError(err)
	}
	if maxPosition == nil {
		return 1, nil
	}
	return *maxPosition + 1, nil
}
