package service

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/darsplatform/darsacademy-backend/internal/policy"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const coursesIndex = "courses"

// CourseSearchService keeps the catalog search index in sync with the course
// table. Only published courses are indexed.
type CourseSearchService interface {
	IndexCourse(course *entity.Course) error
	DeleteCourse(id string) error
	Search(query string, limit int64) ([]CourseDocument, error)
}

type courseSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewCourseSearchService(client meilisearch.ServiceManager) CourseSearchService {
	s := &courseSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndex()
	return s
}

func (s *courseSearchService) initIndex() {
	filterableAttrs := []string{"is_free", "teacher_id"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(coursesIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("Failed to update courses filterable attributes: %v", err)
	}

	sortableAttrs := []string{"created_at", "price"}
	if _, err := s.client.Index(coursesIndex).UpdateSortableAttributes(&sortableAttrs); err != nil {
		log.Printf("Failed to update courses sortable attributes: %v", err)
	}
}

// CourseDocument is the searchable projection of a course.
type CourseDocument struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Price       int    `json:"price"`
	IsFree      bool   `json:"is_free"`
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
	CreatedAt   int64  `json:"created_at"`
}

// cleanContentForIndex strips markup from rich-text fields so the index holds
// plain searchable text.
func (s *courseSearchService) cleanContentForIndex(content string) string {
	// Replace block tags with spaces to prevent text merging
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)

	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *courseSearchService) IndexCourse(course *entity.Course) error {
	doc := CourseDocument{
		ID:        course.ID.String(),
		Title:     s.cleanContentForIndex(course.Title),
		IsFree:    policy.CourseIsFree(course.Price),
		TeacherID: course.UserID.String(),
		CreatedAt: course.CreatedAt.Unix(),
	}
	if course.Description != nil {
		doc.Description = s.cleanContentForIndex(*course.Description)
	}
	if course.ImageURL != nil {
		doc.ImageURL = *course.ImageURL
	}
	if course.Price != nil {
		doc.Price = *course.Price
	}
	if course.User.ID != uuid.Nil {
		doc.TeacherName = course.User.FullName
	}

	if _, err := s.client.Index(coursesIndex).AddDocuments([]CourseDocument{doc}, strPtr("id")); err != nil {
		return fmt.Errorf("failed to index course: %w", err)
	}
	return nil
}

func (s *courseSearchService) DeleteCourse(id string) error {
	if _, err := s.client.Index(coursesIndex).DeleteDocument(id); err != nil {
		return fmt.Errorf("failed to delete course from index: %w", err)
	}
	return nil
}

func (s *courseSearchService) Search(query string, limit int64) ([]CourseDocument, error) {
	if limit <= 0 {
		limit = 20
	}

	resp, err := s.client.Index(coursesIndex).Search(query, &meilisearch.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	docs := make([]CourseDocument, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc CourseDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func strPtr(s string) *string { return &s }
