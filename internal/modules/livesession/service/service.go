package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	courseRepo "github.com/darsplatform/darsacademy-backend/internal/modules/course/repository"
	"github.com/darsplatform/darsacademy-backend/internal/modules/livesession/dto"
	sessionRepo "github.com/darsplatform/darsacademy-backend/internal/modules/livesession/repository"
	notifService "github.com/darsplatform/darsacademy-backend/internal/modules/notification/service"
	"github.com/darsplatform/darsacademy-backend/internal/policy"
	"github.com/darsplatform/darsacademy-backend/pkg/apperror"
	"github.com/google/uuid"
)

type LiveSessionService interface {
	// Student read paths.
	ListForCourse(ctx context.Context, userID, courseID uuid.UUID) ([]dto.LiveSessionResponse, error)
	ListForChapter(ctx context.Context, userID, courseID, chapterID uuid.UUID) ([]dto.LiveSessionResponse, error)
	Get(ctx context.Context, userID uuid.UUID, role string, sessionID uuid.UUID) (*dto.LiveSessionResponse, error)

	// Management paths.
	Create(ctx context.Context, userID uuid.UUID, role string, req *dto.CreateLiveSessionRequest) (*dto.LiveSessionResponse, error)
	Update(ctx context.Context, userID uuid.UUID, role string, sessionID uuid.UUID, req *dto.UpdateLiveSessionRequest) (*dto.LiveSessionResponse, error)
	Delete(ctx context.Context, userID uuid.UUID, role string, sessionID uuid.UUID) error
	SetPublished(ctx context.Context, userID uuid.UUID, role string, sessionID uuid.UUID, published bool) (*dto.LiveSessionResponse, error)
	ListForTeacher(ctx context.Context, teacherID uuid.UUID) ([]dto.LiveSessionResponse, error)
	ListAll(ctx context.Context) ([]dto.LiveSessionResponse, error)
}

type liveSessionService struct {
	sessions      sessionRepo.LiveSessionRepository
	courses       courseRepo.CourseRepository
	purchases     courseRepo.PurchaseRepository
	notifications notifService.NotificationService
	now           func() time.Time
}

func NewLiveSessionService(
	sessions sessionRepo.LiveSessionRepository,
	courses courseRepo.CourseRepository,
	purchases courseRepo.PurchaseRepository,
	notifications notifService.NotificationService,
) LiveSessionService {
	return &liveSessionService{
		sessions:      sessions,
		courses:       courses,
		purchases:     purchases,
		notifications: notifications,
		now:           time.Now,
	}
}

func (s *liveSessionService) ListForCourse(ctx context.Context, userID, courseID uuid.UUID) ([]dto.LiveSessionResponse, error) {
	course, err := s.courses.FindPublishedByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	purchases, err := s.purchases.FindActive(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	hasAccess := policy.HasCourseAccess(course, userID, purchases)

	now := s.now()
	sessions, err := s.sessions.FindUpcomingForCourse(ctx, courseID, now)
	if err != nil {
		return nil, err
	}

	out := make([]dto.LiveSessionResponse, 0, len(sessions))
	for i := range sessions {
		if !policy.SessionVisible(&sessions[i], hasAccess) {
			continue
		}
		out = append(out, toResponse(&sessions[i], now, false))
	}
	return out, nil
}

func (s *liveSessionService) ListForChapter(ctx context.Context, userID, courseID, chapterID uuid.UUID) ([]dto.LiveSessionResponse, error) {
	course, err := s.courses.FindPublishedByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	chapter, err := s.courses.FindChapterByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter.CourseID != courseID || !chapter.IsPublished {
		return nil, apperror.ErrNotFound
	}

	purchases, err := s.purchases.FindActive(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !policy.HasCourseAccess(course, userID, purchases) {
		return nil, apperror.New(http.StatusForbidden, "you don't have access to this chapter", apperror.ErrForbidden)
	}
	// Paid sessions on the chapter page require a purchase even when the
	// course itself is free.
	hasPurchase := len(purchases) > 0

	now := s.now()
	sessions, err := s.sessions.FindUpcomingForChapter(ctx, courseID, chapterID, now)
	if err != nil {
		return nil, err
	}

	out := make([]dto.LiveSessionResponse, 0, len(sessions))
	for i := range sessions {
		if !sessions[i].IsFree && !hasPurchase {
			continue
		}
		out = append(out, toResponse(&sessions[i], now, false))
	}
	return out, nil
}

func (s *liveSessionService) Get(ctx context.Context, userID uuid.UUID, role string, sessionID uuid.UUID) (*dto.LiveSessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if role == entity.RoleAdmin || role == entity.RoleTeacher {
		if !policy.CanManageSession(role, userID, courseOwners(session)) {
			return nil, apperror.New(http.StatusForbidden, "you don't have access to this live session", apperror.ErrForbidden)
		}
		resp := toResponse(session, now, true)
		return &resp, nil
	}

	// Student path: the session must be visible through at least one
	// published linked course the student can access.
	published, err := s.courses.FindPublishedByIDs(ctx, linkedCourseIDs(session))
	if err != nil {
		return nil, err
	}

	publishedIDs := make([]uuid.UUID, 0, len(published))
	for i := range published {
		publishedIDs = append(publishedIDs, published[i].ID)
	}
	purchases, err := s.purchases.FindActiveForCourses(ctx, userID, publishedIDs)
	if err != nil {
		return nil, err
	}
	purchased := make(map[uuid.UUID]bool, len(purchases))
	for i := range purchases {
		purchased[purchases[i].CourseID] = true
	}

	hasAccess := false
	for i := range published {
		if policy.CourseIsFree(published[i].Price) || purchased[published[i].ID] {
			hasAccess = true
			break
		}
	}
	if !policy.SessionVisible(session, hasAccess) {
		return nil, apperror.New(http.StatusForbidden, "you don't have access to this live session", apperror.ErrForbidden)
	}

	resp := toResponse(session, now, false)
	return &resp, nil
}

func (s *liveSessionService) Create(ctx context.Context, userID uuid.UUID, role string, req *dto.CreateLiveSessionRequest) (*dto.LiveSessionResponse, error) {
	if req.EndDate != nil && !req.EndDate.After(req.StartDate) {
		return nil, apperror.New(http.StatusBadRequest, "end date must be after start date", apperror.ErrBadRequest)
	}

	courses, err := s.courses.FindByIDs(ctx, req.CourseIDs)
	if err != nil {
		return nil, err
	}
	if len(courses) != len(uniqueIDs(req.CourseIDs)) {
		return nil, apperror.New(http.StatusNotFound, "one or more courses not found", apperror.ErrNotFound)
	}
	if !policy.CanCreateSession(role, userID, ownerIDs(courses)) {
		return nil, apperror.New(http.StatusForbidden, "you don't own one or more of the selected courses", apperror.ErrForbidden)
	}

	if req.ChapterID != nil {
		if err := s.validateChapterLink(ctx, *req.ChapterID, req.CourseIDs); err != nil {
			return nil, err
		}
	}

	session := &entity.LiveSession{
		Title:       req.Title,
		Description: req.Description,
		LinkURL:     req.LinkURL,
		LinkType:    req.LinkType,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsFree:      req.IsFree,
		ChapterID:   req.ChapterID,
	}
	if err := s.sessions.Create(ctx, session, req.CourseIDs); err != nil {
		return nil, err
	}

	return s.reload(ctx, session.ID)
}

func (s *liveSessionService) Update(ctx context.Context, userID uuid.UUID, role string, sessionID uuid.UUID, req *dto.UpdateLiveSessionRequest) (*dto.LiveSessionResponse, error) {
	session, err := s.authorizeSession(ctx, userID, role, sessionID)
	if err != nil {
		return nil, err
	}

	finalCourseIDs := linkedCourseIDs(session)
	if req.CourseIDs != nil {
		courses, err := s.courses.FindByIDs(ctx, req.CourseIDs)
		if err != nil {
			return nil, err
		}
		if len(courses) != len(uniqueIDs(req.CourseIDs)) {
			return nil, apperror.New(http.StatusNotFound, "one or more courses not found", apperror.ErrNotFound)
		}
		if !policy.CanCreateSession(role, userID, ownerIDs(courses)) {
			return nil, apperror.New(http.StatusForbidden, "you don't own one or more of the selected courses", apperror.ErrForbidden)
		}
		finalCourseIDs = req.CourseIDs
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.LinkURL != nil {
		updates["link_url"] = *req.LinkURL
	}
	if req.LinkType != nil {
		updates["link_type"] = *req.LinkType
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.IsFree != nil {
		updates["is_free"] = *req.IsFree
	}

	finalStart := session.StartDate
	if req.StartDate != nil {
		finalStart = *req.StartDate
	}
	finalEnd := session.EndDate
	if req.EndDate != nil {
		finalEnd = req.EndDate
	}
	if finalEnd != nil && !finalEnd.After(finalStart) {
		return nil, apperror.New(http.StatusBadRequest, "end date must be after start date", apperror.ErrBadRequest)
	}

	// The chapter anchor must belong to one of the courses the session ends
	// up linked to, whether the chapter, the links, or both changed.
	finalChapterID := session.ChapterID
	if req.ChapterID != nil {
		finalChapterID = req.ChapterID
		updates["chapter_id"] = *req.ChapterID
	}
	if finalChapterID != nil {
		if err := s.validateChapterLink(ctx, *finalChapterID, finalCourseIDs); err != nil {
			return nil, err
		}
	}

	if len(updates) == 0 && req.CourseIDs == nil {
		resp := toResponse(session, s.now(), true)
		return &resp, nil
	}

	if err := s.sessions.Update(ctx, sessionID, updates, req.CourseIDs); err != nil {
		return nil, err
	}
	return s.reload(ctx, sessionID)
}

func (s *liveSessionService) Delete(ctx context.Context, userID uuid.UUID, role string, sessionID uuid.UUID) error {
	if _, err := s.authorizeSession(ctx, userID, role, sessionID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID)
}

func (s *liveSessionService) SetPublished(ctx context.Context, userID uuid.UUID, role string, sessionID uuid.UUID, published bool) (*dto.LiveSessionResponse, error) {
	session, err := s.authorizeSession(ctx, userID, role, sessionID)
	if err != nil {
		return nil, err
	}

	wasPublished := session.IsPublished
	if err := s.sessions.Update(ctx, sessionID, map[string]any{"is_published": published}, nil); err != nil {
		return nil, err
	}

	if published && !wasPublished {
		s.notifyPurchasers(ctx, session)
	}

	return s.reload(ctx, sessionID)
}

func (s *liveSessionService) ListForTeacher(ctx context.Context, teacherID uuid.UUID) ([]dto.LiveSessionResponse, error) {
	sessions, err := s.sessions.FindByCourseOwner(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return toResponses(sessions, s.now(), true), nil
}

func (s *liveSessionService) ListAll(ctx context.Context) ([]dto.LiveSessionResponse, error) {
	sessions, err := s.sessions.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toResponses(sessions, s.now(), true), nil
}

// authorizeSession loads the session and checks the caller may manage it:
// admins always, teachers when they own at least one linked course.
func (s *liveSessionService) authorizeSession(ctx context.Context, userID uuid.UUID, role string, sessionID uuid.UUID) (*entity.LiveSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageSession(role, userID, courseOwners(session)) {
		return nil, apperror.New(http.StatusForbidden, "you don't have access to this live session", apperror.ErrForbidden)
	}
	return session, nil
}

// validateChapterLink ensures the chapter exists and belongs to one of the
// linked courses.
func (s *liveSessionService) validateChapterLink(ctx context.Context, chapterID uuid.UUID, courseIDs []uuid.UUID) error {
	chapter, err := s.courses.FindChapterByID(ctx, chapterID)
	if err != nil {
		return err
	}
	for _, id := range courseIDs {
		if chapter.CourseID == id {
			return nil
		}
	}
	return apperror.New(http.StatusBadRequest, "chapter does not belong to any of the selected courses", apperror.ErrBadRequest)
}

// notifyPurchasers sends a notification to every active purchaser of the
// linked courses. Failures are logged, never surfaced: publishing succeeded.
func (s *liveSessionService) notifyPurchasers(ctx context.Context, session *entity.LiveSession) {
	if s.notifications == nil {
		return
	}
	userIDs, err := s.purchases.ActiveUserIDsForCourses(ctx, linkedCourseIDs(session))
	if err != nil {
		log.Printf("live session %s: listing purchasers for notification: %v", session.ID, err)
		return
	}
	refID := session.ID
	for _, userID := range userIDs {
		n := &entity.Notification{
			UserID:      userID,
			Type:        entity.NotificationSessionPublished,
			Message:     fmt.Sprintf("Live session \"%s\" is scheduled for %s", session.Title, session.StartDate.Format("02 Jan 2006 15:04")),
			ReferenceID: &refID,
		}
		if err := s.notifications.CreateNotification(ctx, n); err != nil {
			log.Printf("live session %s: notifying user %s: %v", session.ID, userID, err)
		}
	}
}

func (s *liveSessionService) reload(ctx context.Context, id uuid.UUID) (*dto.LiveSessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(session, s.now(), true)
	return &resp, nil
}

func linkedCourseIDs(session *entity.LiveSession) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(session.Courses))
	for i := range session.Courses {
		ids = append(ids, session.Courses[i].CourseID)
	}
	return ids
}

func courseOwners(session *entity.LiveSession) []uuid.UUID {
	owners := make([]uuid.UUID, 0, len(session.Courses))
	for i := range session.Courses {
		owners = append(owners, session.Courses[i].Course.UserID)
	}
	return owners
}

func ownerIDs(courses []entity.Course) []uuid.UUID {
	owners := make([]uuid.UUID, 0, len(courses))
	for i := range courses {
		owners = append(owners, courses[i].UserID)
	}
	return owners
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// toResponse projects a session for API output. withOwner controls whether
// linked course owners are included (management listings only).
func toResponse(session *entity.LiveSession, now time.Time, withOwner bool) dto.LiveSessionResponse {
	resp := dto.LiveSessionResponse{
		ID:          session.ID,
		Title:       session.Title,
		Description: session.Description,
		LinkURL:     session.LinkURL,
		LinkType:    session.LinkType,
		StartDate:   session.StartDate,
		EndDate:     session.EndDate,
		IsFree:      session.IsFree,
		IsPublished: session.IsPublished,
		ChapterID:   session.ChapterID,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		Status:      policy.Status(now, session.StartDate, session.EndDate),
	}
	for i := range session.Courses {
		link := &session.Courses[i]
		ref := dto.CourseRef{ID: link.CourseID, Title: link.Course.Title}
		if withOwner && link.Course.User.ID != uuid.Nil {
			ref.Owner = &dto.OwnerRef{ID: link.Course.User.ID, FullName: link.Course.User.FullName}
		}
		resp.Courses = append(resp.Courses, ref)
	}
	return resp
}

func toResponses(sessions []entity.LiveSession, now time.Time, withOwner bool) []dto.LiveSessionResponse {
	out := make([]dto.LiveSessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, toResponse(&sessions[i], now, withOwner))
	}
	return out
}
