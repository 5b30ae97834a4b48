package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/darsplatform/darsacademy-backend/internal/modules/livesession/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeLiveSessionService struct {
	lastCall string
	gotID    uuid.UUID
}

func (f *fakeLiveSessionService) ListForCourse(_ context.Context, _, courseID uuid.UUID) ([]dto.LiveSessionResponse, error) {
	f.lastCall = "ListForCourse"
	f.gotID = courseID
	return nil, nil
}

func (f *fakeLiveSessionService) ListForChapter(_ context.Context, _, _, chapterID uuid.UUID) ([]dto.LiveSessionResponse, error) {
	f.lastCall = "ListForChapter"
	f.gotID = chapterID
	return nil, nil
}

func (f *fakeLiveSessionService) Get(_ context.Context, _ uuid.UUID, _ string, sessionID uuid.UUID) (*dto.LiveSessionResponse, error) {
	f.lastCall = "Get"
	f.gotID = sessionID
	return &dto.LiveSessionResponse{}, nil
}

func (f *fakeLiveSessionService) Create(_ context.Context, _ uuid.UUID, _ string, _ *dto.CreateLiveSessionRequest) (*dto.LiveSessionResponse, error) {
	f.lastCall = "Create"
	return &dto.LiveSessionResponse{}, nil
}

func (f *fakeLiveSessionService) Update(_ context.Context, _ uuid.UUID, _ string, sessionID uuid.UUID, _ *dto.UpdateLiveSessionRequest) (*dto.LiveSessionResponse, error) {
	f.lastCall = "Update"
	f.gotID = sessionID
	return &dto.LiveSessionResponse{}, nil
}

func (f *fakeLiveSessionService) Delete(_ context.Context, _ uuid.UUID, _ string, sessionID uuid.UUID) error {
	f.lastCall = "Delete"
	f.gotID = sessionID
	return nil
}

func (f *fakeLiveSessionService) SetPublished(_ context.Context, _ uuid.UUID, _ string, sessionID uuid.UUID, _ bool) (*dto.LiveSessionResponse, error) {
	f.lastCall = "SetPublished"
	f.gotID = sessionID
	return &dto.LiveSessionResponse{}, nil
}

func (f *fakeLiveSessionService) ListForTeacher(_ context.Context, _ uuid.UUID) ([]dto.LiveSessionResponse, error) {
	f.lastCall = "ListForTeacher"
	return nil, nil
}

func (f *fakeLiveSessionService) ListAll(_ context.Context) ([]dto.LiveSessionResponse, error) {
	f.lastCall = "ListAll"
	return nil, nil
}

// newStreamRouter registers the livestream routes with the same layout the
// server uses, so the static teacher/admin paths and the :sessionId parameter
// stay routable side by side.
func newStreamRouter(svc *fakeLiveSessionService, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewLiveSessionHandler(svc)

	router := gin.New()
	api := router.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set("user_id", uuid.New().String())
		c.Set("user_role", role)
	})
	api.GET("/livestream/:sessionId", h.Get)
	api.GET("/livestream/teacher", h.ListForTeacher)
	api.GET("/livestream/admin", func(c *gin.Context) {
		if c.GetString("user_role") != entity.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}, h.ListAll)
	return router
}

func TestLivestreamRouteDispatch(t *testing.T) {
	sessionID := uuid.New()

	cases := []struct {
		name       string
		path       string
		role       string
		wantStatus int
		wantCall   string
	}{
		{
			name:       "admin listing at livestream/admin",
			path:       "/api/livestream/admin",
			role:       entity.RoleAdmin,
			wantStatus: http.StatusOK,
			wantCall:   "ListAll",
		},
		{
			name:       "admin listing refused for teachers",
			path:       "/api/livestream/admin",
			role:       entity.RoleTeacher,
			wantStatus: http.StatusForbidden,
			wantCall:   "",
		},
		{
			name:       "teacher listing at livestream/teacher",
			path:       "/api/livestream/teacher",
			role:       entity.RoleTeacher,
			wantStatus: http.StatusOK,
			wantCall:   "ListForTeacher",
		},
		{
			name:       "session id still matches the param route",
			path:       "/api/livestream/" + sessionID.String(),
			role:       entity.RoleUser,
			wantStatus: http.StatusOK,
			wantCall:   "Get",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeLiveSessionService{}
			router := newStreamRouter(svc, tc.role)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("GET %s status = %d, want %d", tc.path, rec.Code, tc.wantStatus)
			}
			if svc.lastCall != tc.wantCall {
				t.Fatalf("GET %s dispatched to %q, want %q", tc.path, svc.lastCall, tc.wantCall)
			}
			if tc.wantCall == "Get" && svc.gotID != sessionID {
				t.Fatalf("Get received id %s, want %s", svc.gotID, sessionID)
			}
		})
	}
}
