package handler

import (
	"net/http"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/darsplatform/darsacademy-backend/internal/modules/admin/dto"
	"github.com/darsplatform/darsacademy-backend/internal/modules/admin/service"
	userDto "github.com/darsplatform/darsacademy-backend/internal/modules/user/dto"
	userService "github.com/darsplatform/darsacademy-backend/internal/modules/user/service"
	"github.com/darsplatform/darsacademy-backend/pkg/response"
	"github.com/darsplatform/darsacademy-backend/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	service service.AdminService
	auth    userService.AuthService
}

func NewAdminHandler(service service.AdminService, auth userService.AuthService) *AdminHandler {
	return &AdminHandler{service: service, auth: auth}
}

// CreateStudent handles POST /api/admin/users: register on behalf of a
// student. The created account is always a student regardless of payload.
func (h *AdminHandler) CreateStudent(c *gin.Context) {
	var req userDto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	user, err := h.auth.CreateStudent(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) StudentCourses(c *gin.Context) {
	studentID, ok := h.pathID(c, "userId")
	if !ok {
		return
	}

	courses, err := h.service.StudentCourses(c.Request.Context(), studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *AdminHandler) GrantPurchase(c *gin.Context) {
	studentID, ok := h.pathID(c, "userId")
	if !ok {
		return
	}

	var req dto.GrantPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.GrantPurchase(c.Request.Context(), studentID, req.CourseID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *AdminHandler) RevokePurchase(c *gin.Context) {
	studentID, ok := h.pathID(c, "userId")
	if !ok {
		return
	}
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid format"})
		return
	}

	if err := h.service.RevokePurchase(c.Request.Context(), studentID, courseID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateUser handles PATCH /api/teacher/users/:userId. Only teachers may
// call it; admins use the admin endpoints instead.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	if response.GetUserRole(c) != entity.RoleTeacher {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	targetID, ok := h.pathID(c, "userId")
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), targetID, &req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) pathID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid format"})
		return uuid.Nil, false
	}
	return id, true
}
