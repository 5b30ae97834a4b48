package handler

import (
	"net/http"

	"github.com/darsplatform/darsacademy-backend/internal/modules/course/dto"
	"github.com/darsplatform/darsacademy-backend/internal/modules/course/service"
	"github.com/darsplatform/darsacademy-backend/pkg/apperror"
	"github.com/darsplatform/darsacademy-backend/pkg/response"
	"github.com/darsplatform/darsacademy-backend/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CourseHandler struct {
	service service.CourseService
}

func NewCourseHandler(service service.CourseService) *CourseHandler {
	return &CourseHandler{service: service}
}

func (h *CourseHandler) PublicCatalog(c *gin.Context) {
	courses, err := h.service.PublicCatalog(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) Search(c *gin.Context) {
	results, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	course, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	userID, courseID, ok := h.identityAndID(c, "courseId")
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	course, err := h.service.Update(c.Request.Context(), userID, response.GetUserRole(c), courseID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) PublishCourse(c *gin.Context) {
	userID, courseID, ok := h.identityAndID(c, "courseId")
	if !ok {
		return
	}

	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	course, err := h.service.SetPublished(c.Request.Context(), userID, response.GetUserRole(c), courseID, *req.IsPublished)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	userID, courseID, ok := h.identityAndID(c, "courseId")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, response.GetUserRole(c), courseID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CourseHandler) UploadImage(c *gin.Context) {
	userID, courseID, ok := h.identityAndID(c, "courseId")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ResponseError(c, apperror.ErrInternal)
		return
	}
	defer file.Close()

	url, err := h.service.UploadImage(c.Request.Context(), userID, response.GetUserRole(c), courseID, file, fileHeader.Filename)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

func (h *CourseHandler) CreateChapter(c *gin.Context) {
	userID, courseID, ok := h.identityAndID(c, "courseId")
	if !ok {
		return
	}

	var req dto.CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	chapter, err := h.service.CreateChapter(c.Request.Context(), userID, response.GetUserRole(c), courseID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, chapter)
}

func (h *CourseHandler) UpdateChapter(c *gin.Context) {
	userID, chapterID, ok := h.identityAndID(c, "chapterId")
	if !ok {
		return
	}

	var req dto.UpdateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	chapter, err := h.service.UpdateChapter(c.Request.Context(), userID, response.GetUserRole(c), chapterID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, chapter)
}

func (h *CourseHandler) PublishChapter(c *gin.Context) {
	userID, chapterID, ok := h.identityAndID(c, "chapterId")
	if !ok {
		return
	}

	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	chapter, err := h.service.SetChapterPublished(c.Request.Context(), userID, response.GetUserRole(c), chapterID, *req.IsPublished)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, chapter)
}

func (h *CourseHandler) DeleteChapter(c *gin.Context) {
	userID, chapterID, ok := h.identityAndID(c, "chapterId")
	if !ok {
		return
	}

	if err := h.service.DeleteChapter(c.Request.Context(), userID, response.GetUserRole(c), chapterID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CourseHandler) UpdateProgress(c *gin.Context) {
	userID, chapterID, ok := h.identityAndID(c, "chapterId")
	if !ok {
		return
	}

	var req dto.ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	progress, err := h.service.UpdateProgress(c.Request.Context(), userID, chapterID, *req.IsCompleted)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *CourseHandler) identityAndID(c *gin.Context, param string) (uuid.UUID, uuid.UUID, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid format"})
		return uuid.Nil, uuid.Nil, false
	}

	return userID, id, true
}
