package repository

import (
	"context"
	"time"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/darsplatform/darsacademy-backend/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LiveSessionRepository interface {
	// Create inserts the session and its course links in one transaction.
	Create(ctx context.Context, session *entity.LiveSession, courseIDs []uuid.UUID) error
	// FindByID loads the session with its linked courses and their owners.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.LiveSession, error)
	// FindUpcomingForCourse returns published sessions linked to the course
	// that have not ended yet, soonest first. Access filtering happens in
	// the service; this is purely the temporal/link query.
	FindUpcomingForCourse(ctx context.Context, courseID uuid.UUID, now time.Time) ([]entity.LiveSession, error)
	FindUpcomingForChapter(ctx context.Context, courseID, chapterID uuid.UUID, now time.Time) ([]entity.LiveSession, error)
	// FindByCourseOwner returns every session linked to at least one course
	// owned by the given teacher, newest first.
	FindByCourseOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.LiveSession, error)
	FindAll(ctx context.Context) ([]entity.LiveSession, error)
	// Update applies the partial update and, when courseIDs is non-nil,
	// replaces the whole link set inside the same transaction so no reader
	// ever observes a session with zero linked courses.
	Update(ctx context.Context, id uuid.UUID, updates map[string]any, courseIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type liveSessionRepository struct {
	db *gorm.DB
}

func NewLiveSessionRepository(db *gorm.DB) LiveSessionRepository {
	return &liveSessionRepository{db: db}
}

func (r *liveSessionRepository) Create(ctx context.Context, session *entity.LiveSession, courseIDs []uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		links := make([]entity.LiveSessionCourse, 0, len(courseIDs))
		for _, courseID := range courseIDs {
			links = append(links, entity.LiveSessionCourse{
				LiveSessionID: session.ID,
				CourseID:      courseID,
			})
		}
		return tx.Create(&links).Error
	})
	if err != nil {
		return database.MapError(err)
	}
	return nil
}

func (r *liveSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.LiveSession, error) {
	var session entity.LiveSession
	err := r.db.WithContext(ctx).
		Preload("Courses.Course").
		First(&session, "id = ?", id).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return &session, nil
}

// notEndedClause keeps running and upcoming sessions. Written as the two
// overlapping ranges the listing uses: currently running, or not started yet.
const notEndedClause = "(start_date <= ? AND (end_date IS NULL OR end_date > ?)) OR start_date >= ?"

func (r *liveSessionRepository) FindUpcomingForCourse(ctx context.Context, courseID uuid.UUID, now time.Time) ([]entity.LiveSession, error) {
	var sessions []entity.LiveSession
	err := r.db.WithContext(ctx).
		Joins("JOIN live_session_courses lsc ON lsc.live_session_id = live_sessions.id").
		Where("lsc.course_id = ?", courseID).
		Where("live_sessions.is_published = ?", true).
		Where(notEndedClause, now, now, now).
		Order("live_sessions.start_date asc").
		Find(&sessions).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return sessions, nil
}

func (r *liveSessionRepository) FindUpcomingForChapter(ctx context.Context, courseID, chapterID uuid.UUID, now time.Time) ([]entity.LiveSession, error) {
	var sessions []entity.LiveSession
	err := r.db.WithContext(ctx).
		Joins("JOIN live_session_courses lsc ON lsc.live_session_id = live_sessions.id").
		Where("lsc.course_id = ?", courseID).
		Where("live_sessions.chapter_id = ?", chapterID).
		Where("live_sessions.is_published = ?", true).
		Where(notEndedClause, now, now, now).
		Order("live_sessions.start_date asc").
		Find(&sessions).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return sessions, nil
}

func (r *liveSessionRepository) FindByCourseOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.LiveSession, error) {
	var sessions []entity.LiveSession
	err := r.db.WithContext(ctx).
		Distinct("live_sessions.*").
		Joins("JOIN live_session_courses lsc ON lsc.live_session_id = live_sessions.id").
		Joins("JOIN courses ON courses.id = lsc.course_id").
		Where("courses.user_id = ?", ownerID).
		Preload("Courses.Course").
		Order("live_sessions.created_at desc").
		Find(&sessions).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return sessions, nil
}

func (r *liveSessionRepository) FindAll(ctx context.Context) ([]entity.LiveSession, error) {
	var sessions []entity.LiveSession
	err := r.db.WithContext(ctx).
		Preload("Courses.Course").
		Preload("Courses.Course.User").
		Order("created_at desc").
		Find(&sessions).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return sessions, nil
}

func (r *liveSessionRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any, courseIDs []uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if courseIDs != nil {
			if err := tx.Delete(&entity.LiveSessionCourse{}, "live_session_id = ?", id).Error; err != nil {
				return err
			}
			links := make([]entity.LiveSessionCourse, 0, len(courseIDs))
			for _, courseID := range courseIDs {
				links = append(links, entity.LiveSessionCourse{
					LiveSessionID: id,
					CourseID:      courseID,
				})
			}
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&entity.LiveSession{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return database.MapError(err)
	}
	return nil
}

func (r *liveSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.LiveSessionCourse{}, "live_session_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.LiveSession{}, "id = ?", id).Error
	})
	if err != nil {
		return database.MapError(err)
	}
	return nil
}
