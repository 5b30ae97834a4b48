package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/darsplatform/darsacademy-backend/internal/modules/course/dto"
	"github.com/darsplatform/darsacademy-backend/internal/modules/course/repository"
	search "github.com/darsplatform/darsacademy-backend/internal/modules/search/service"
	"github.com/darsplatform/darsacademy-backend/internal/policy"
	"github.com/darsplatform/darsacademy-backend/pkg/apperror"
	"github.com/darsplatform/darsacademy-backend/pkg/storage"
	"github.com/google/uuid"
)

type CourseService interface {
	PublicCatalog(ctx context.Context) ([]dto.PublicCourseResponse, error)
	Search(ctx context.Context, query string) ([]search.CourseDocument, error)
	Create(ctx context.Context, userID uuid.UUID, req dto.CreateCourseRequest) (*dto.CourseResponse, error)
	Update(ctx context.Context, userID uuid.UUID, role string, courseID uuid.UUID, req dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	SetPublished(ctx context.Context, userID uuid.UUID, role string, courseID uuid.UUID, isPublished bool) (*dto.CourseResponse, error)
	Delete(ctx context.Context, userID uuid.UUID, role string, courseID uuid.UUID) error
	UploadImage(ctx context.Context, userID uuid.UUID, role string, courseID uuid.UUID, r io.Reader, fileName string) (string, error)

	CreateChapter(ctx context.Context, userID uuid.UUID, role string, courseID uuid.UUID, req dto.CreateChapterRequest) (*dto.ChapterResponse, error)
	UpdateChapter(ctx context.Context, userID uuid.UUID, role string, chapterID uuid.UUID, req dto.UpdateChapterRequest) (*dto.ChapterResponse, error)
	SetChapterPublished(ctx context.Context, userID uuid.UUID, role string, chapterID uuid.UUID, isPublished bool) (*dto.ChapterResponse, error)
	DeleteChapter(ctx context.Context, userID uuid.UUID, role string, chapterID uuid.UUID) error
	UpdateProgress(ctx context.Context, userID uuid.UUID, chapterID uuid.UUID, isCompleted bool) (*dto.ProgressResponse, error)
}

type courseService struct {
	courseRepo   repository.CourseRepository
	purchaseRepo repository.PurchaseRepository
	searchSvc    search.CourseSearchService
	imageStorage storage.ImageStorage
}

func NewCourseService(courseRepo repository.CourseRepository, purchaseRepo repository.PurchaseRepository, searchSvc search.CourseSearchService, imageStorage storage.ImageStorage) CourseService {
	return &courseService{
		courseRepo:   courseRepo,
		purchaseRepo: purchaseRepo,
		searchSvc:    searchSvc,
		imageStorage: imageStorage,
	}
}

func (s *courseService) PublicCatalog(ctx context.Context) ([]dto.PublicCourseResponse, error) {
	courses, err := s.courseRepo.FindAllPublished(ctx)
	if err != nil {
		// A catalog on a fresh deployment with no migrated schema renders as
		// empty instead of failing the landing page.
		if errors.Is(err, apperror.ErrStoreUnavailable) {
			return []dto.PublicCourseResponse{}, nil
		}
		return nil, err
	}

	responses := make([]dto.PublicCourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, dto.PublicCourseResponse{
			CourseResponse: buildCourseResponse(&course),
			Owner: dto.OwnerResponse{
				ID:       course.User.ID,
				FullName: course.User.FullName,
				ImageURL: course.User.ImageURL,
			},
			ChapterCount: len(course.Chapters),
			Progress:     0,
		})
	}
	return responses, nil
}

func (s *courseService) Search(ctx context.Context, query string) ([]search.CourseDocument, error) {
	if s.searchSvc == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "search is not configured", apperror.ErrInternal)
	}
	return s.searchSvc.Search(strings.TrimSpace(query), 20)
}

func (s *courseService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	course := &entity.Course{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: trimmedOrNil(req.Description),
		Price:       req.Price,
	}

	if course.Title == "" {
		return nil, apperror.New(http.StatusBadRequest, "title is required", apperror.ErrInvalidInput)
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	resp := buildCourseResponse(course)
	return &resp, nil
}

func (s *courseService) Update(ctx context.Context, userID uuid.UUID, role string, courseID uuid.UUID, req dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.authorizeCourse(ctx, userID, role, courseID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.New(http.StatusBadRequest, "title cannot be empty", apperror.ErrInvalidInput)
		}
		course.Title = title
	}
	if req.Description != nil {
		course.Description = trimmedOrNil(req.Description)
	}
	if req.Price != nil {
		course.Price = req.Price
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}

	s.syncSearchIndex(ctx, course.ID)

	resp := buildCourseResponse(course)
	return &resp, nil
}

func (s *courseService) SetPublished(ctx context.Context, userID uuid.UUID, role string, courseID uuid.UUID, isPublished bool) (*dto.CourseResponse, error) {
	course, err := s.authorizeCourse(ctx, userID, role, courseID)
	if err != nil {
		return nil, err
	}

	course.IsPublished = isPublished
	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}

	s.syncSearchIndex(ctx, course.ID)

	resp := buildCourseResponse(course)
	return &resp, nil
}

func (s *courseService) Delete(ctx context.Context, userID uuid.UUID, role string, courseID uuid.UUID) error {
	course, err := s.authorizeCourse(ctx, userID, role, courseID)
	if err != nil {
		return err
	}

	if err := s.courseRepo.Delete(ctx, course.ID); err != nil {
		return err
	}

	if s.searchSvc != nil {
		if err := s.searchSvc.DeleteCourse(course.ID.String()); err != nil {
			log.Printf("failed to remove course %s from search index: %v", course.ID, err)
		}
	}
	if s.imageStorage != nil && course.ImageURL != nil {
		if err := s.imageStorage.DeleteImage(ctx, *course.ImageURL); err != nil {
			log.Printf("failed to delete course image: %v", err)
		}
	}

	return nil
}

func (s *courseService) UploadImage(ctx context.Context, userID uuid.UUID, role string, courseID uuid.UUID, r io.Reader, fileName string) (string, error) {
	if s.imageStorage == nil {
		return "", apperror.New(http.StatusServiceUnavailable, "image storage is not configured", apperror.ErrInternal)
	}

	course, err := s.authorizeCourse(ctx, userID, role, courseID)
	if err != nil {
		return "", err
	}

	url, err := s.imageStorage.UploadImage(ctx, r, "course-covers", fileName)
	if err != nil {
		return "", fmt.Errorf("failed to upload course image: %w", err)
	}

	oldURL := course.ImageURL
	course.ImageURL = &url
	if err := s.courseRepo.Update(ctx, course); err != nil {
		return "", err
	}

	if oldURL != nil {
		if err := s.imageStorage.DeleteImage(ctx, *oldURL); err != nil {
			log.Printf("failed to delete previous course image: %v", err)
		}
	}

	s.syncSearchIndex(ctx, course.ID)

	return url, nil
}

func (s *courseService) CreateChapter(ctx context.Context, userID uuid.UUID, role string, courseID uuid.UUID, req dto.CreateChapterRequest) (*dto.ChapterResponse, error) {
	course, err := s.authorizeCourse(ctx, userID, role, courseID)
	if err != nil {
		return nil, err
	}

	position, err := s.courseRepo.NextChapterPosition(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	chapter := &entity.Chapter{
		CourseID:    course.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: trimmedOrNil(req.Description),
		Position:    position,
		IsFree:      req.IsFree,
	}
	if chapter.Title == "" {
		return nil, apperror.New(http.StatusBadRequest, "title is required", apperror.ErrInvalidInput)
	}

	if err := s.courseRepo.CreateChapter(ctx, chapter); err != nil {
		return nil, err
	}

	resp := buildChapterResponse(chapter)
	return &resp, nil
}

func (s *courseService) UpdateChapter(ctx context.Context, userID uuid.UUID, role string, chapterID uuid.UUID, req dto.UpdateChapterRequest) (*dto.ChapterResponse, error) {
	chapter, err := s.authorizeChapter(ctx, userID, role, chapterID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.New(http.StatusBadRequest, "title cannot be empty", apperror.ErrInvalidInput)
		}
		chapter.Title = title
	}
	if req.Description != nil {
		chapter.Description = trimmedOrNil(req.Description)
	}
	if req.IsFree != nil {
		chapter.IsFree = *req.IsFree
	}
	if req.Position != nil {
		chapter.Position = *req.Position
	}

	if err := s.courseRepo.UpdateChapter(ctx, chapter); err != nil {
		return nil, err
	}

	resp := buildChapterResponse(chapter)
	return &resp, nil
}

func (s *courseService) SetChapterPublished(ctx context.Context, userID uuid.UUID, role string, chapterID uuid.UUID, isPublished bool) (*dto.ChapterResponse, error) {
	chapter, err := s.authorizeChapter(ctx, userID, role, chapterID)
	if err != nil {
		return nil, err
	}

	chapter.IsPublished = isPublished
	if err := s.courseRepo.UpdateChapter(ctx, chapter); err != nil {
		return nil, err
	}

	resp := buildChapterResponse(chapter)
	return &resp, nil
}

func (s *courseService) DeleteChapter(ctx context.Context, userID uuid.UUID, role string, chapterID uuid.UUID) error {
	chapter, err := s.authorizeChapter(ctx, userID, role, chapterID)
	if err != nil {
		return err
	}
	return s.courseRepo.DeleteChapter(ctx, chapter.ID)
}

func (s *courseService) UpdateProgress(ctx context.Context, userID uuid.UUID, chapterID uuid.UUID, isCompleted bool) (*dto.ProgressResponse, error) {
	chapter, err := s.courseRepo.FindChapterByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	course, err := s.courseRepo.FindPublishedByID(ctx, chapter.CourseID)
	if err != nil {
		return nil, err
	}

	purchases, err := s.purchaseRepo.FindActive(ctx, userID, course.ID)
	if err != nil {
		return nil, err
	}
	if !policy.HasCourseAccess(course, userID, purchases) {
		return nil, apperror.New(http.StatusForbidden, "you don't have access to this course", apperror.ErrForbidden)
	}

	progress := &entity.UserProgress{
		UserID:      userID,
		ChapterID:   chapterID,
		IsCompleted: isCompleted,
	}
	if err := s.purchaseRepo.UpsertProgress(ctx, progress); err != nil {
		return nil, err
	}

	return &dto.ProgressResponse{
		ChapterID:   progress.ChapterID,
		IsCompleted: progress.IsCompleted,
	}, nil
}

// authorizeCourse loads the course and enforces write access: owner or
// admin. Fresh rows on every call, no caching.
func (s *courseService) authorizeCourse(ctx context.Context, userID uuid.UUID, role string, courseID uuid.UUID) (*entity.Course, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if role != entity.RoleAdmin && course.UserID != userID {
		return nil, apperror.New(http.StatusForbidden, "you don't own this course", apperror.ErrForbidden)
	}
	return course, nil
}

func (s *courseService) authorizeChapter(ctx context.Context, userID uuid.UUID, role string, chapterID uuid.UUID) (*entity.Chapter, error) {
	chapter, err := s.courseRepo.FindChapterByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeCourse(ctx, userID, role, chapter.CourseID); err != nil {
		return nil, err
	}
	return chapter, nil
}

func (s *courseService) syncSearchIndex(ctx context.Context, courseID uuid.UUID) {
	if s.searchSvc == nil {
		return
	}

	course, err := s.courseRepo.FindByIDWithOwner(ctx, courseID)
	if err != nil {
		log.Printf("failed to reload course %s for indexing: %v", courseID, err)
		return
	}

	if !course.IsPublished {
		if err := s.searchSvc.DeleteCourse(course.ID.String()); err != nil {
			log.Printf("failed to remove course %s from search index: %v", course.ID, err)
		}
		return
	}

	if err := s.searchSvc.IndexCourse(course); err != nil {
		log.Printf("failed to index course %s: %v", course.ID, err)
	}
}

func buildCourseResponse(course *entity.Course) dto.CourseResponse {
	return dto.CourseResponse{
		ID:          course.ID,
		UserID:      course.UserID,
		Title:       course.Title,
		Description: course.Description,
		ImageURL:    course.ImageURL,
		Price:       course.Price,
		IsPublished: course.IsPublished,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
}

func buildChapterResponse(chapter *entity.Chapter) dto.ChapterResponse {
	return dto.ChapterResponse{
		ID:          chapter.ID,
		CourseID:    chapter.CourseID,
		Title:       chapter.Title,
		Description: chapter.Description,
		Position:    chapter.Position,
		IsPublished: chapter.IsPublished,
		IsFree:      chapter.IsFree,
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
