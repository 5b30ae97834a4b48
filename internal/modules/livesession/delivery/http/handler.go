package handler

import (
	"net/http"

	"github.com/darsplatform/darsacademy-backend/internal/modules/livesession/dto"
	"github.com/darsplatform/darsacademy-backend/internal/modules/livesession/service"
	"github.com/darsplatform/darsacademy-backend/pkg/response"
	"github.com/darsplatform/darsacademy-backend/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LiveSessionHandler struct {
	service service.LiveSessionService
}

func NewLiveSessionHandler(service service.LiveSessionService) *LiveSessionHandler {
	return &LiveSessionHandler{service: service}
}

// ListForCourse handles GET /api/courses/:courseId/live.
func (h *LiveSessionHandler) ListForCourse(c *gin.Context) {
	userID, courseID, ok := h.identityAndID(c, "courseId")
	if !ok {
		return
	}

	sessions, err := h.service.ListForCourse(c.Request.Context(), userID, courseID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// ListForChapter handles GET /api/courses/:courseId/chapters/:chapterId/livestreams.
func (h *LiveSessionHandler) ListForChapter(c *gin.Context) {
	userID, courseID, ok := h.identityAndID(c, "courseId")
	if !ok {
		return
	}
	chapterID, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid format"})
		return
	}

	sessions, err := h.service.ListForChapter(c.Request.Context(), userID, courseID, chapterID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *LiveSessionHandler) Get(c *gin.Context) {
	userID, sessionID, ok := h.identityAndID(c, "sessionId")
	if !ok {
		return
	}

	session, err := h.service.Get(c.Request.Context(), userID, response.GetUserRole(c), sessionID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *LiveSessionHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateLiveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	session, err := h.service.Create(c.Request.Context(), userID, response.GetUserRole(c), &req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *LiveSessionHandler) Update(c *gin.Context) {
	userID, sessionID, ok := h.identityAndID(c, "sessionId")
	if !ok {
		return
	}

	var req dto.UpdateLiveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	session, err := h.service.Update(c.Request.Context(), userID, response.GetUserRole(c), sessionID, &req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *LiveSessionHandler) Delete(c *gin.Context) {
	userID, sessionID, ok := h.identityAndID(c, "sessionId")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, response.GetUserRole(c), sessionID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *LiveSessionHandler) SetPublished(c *gin.Context) {
	userID, sessionID, ok := h.identityAndID(c, "sessionId")
	if !ok {
		return
	}

	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	session, err := h.service.SetPublished(c.Request.Context(), userID, response.GetUserRole(c), sessionID, *req.IsPublished)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ListForTeacher handles GET /api/livestream/teacher: every session
// linked to at least one course the caller owns.
func (h *LiveSessionHandler) ListForTeacher(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	sessions, err := h.service.ListForTeacher(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// ListAll handles GET /api/livestream/admin.
func (h *LiveSessionHandler) ListAll(c *gin.Context) {
	sessions, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *LiveSessionHandler) identityAndID(c *gin.Context, param string) (uuid.UUID, uuid.UUID, bool) {
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
