package server

import (
	"log"
	"strings"
	"time"

	"github.com/darsplatform/darsacademy-backend/internal/config"
	"github.com/darsplatform/darsacademy-backend/internal/middleware"
	"github.com/darsplatform/darsacademy-backend/pkg/storage"

	adminHttp "github.com/darsplatform/darsacademy-backend/internal/modules/admin/delivery/http"
	adminService "github.com/darsplatform/darsacademy-backend/internal/modules/admin/service"

	courseHttp "github.com/darsplatform/darsacademy-backend/internal/modules/course/delivery/http"
	courseRepo "github.com/darsplatform/darsacademy-backend/internal/modules/course/repository"
	courseService "github.com/darsplatform/darsacademy-backend/internal/modules/course/service"

	sessionHttp "github.com/darsplatform/darsacademy-backend/internal/modules/livesession/delivery/http"
	sessionRepo "github.com/darsplatform/darsacademy-backend/internal/modules/livesession/repository"
	sessionService "github.com/darsplatform/darsacademy-backend/internal/modules/livesession/service"

	notifHttp "github.com/darsplatform/darsacademy-backend/internal/modules/notification/delivery/http"
	notifRepo "github.com/darsplatform/darsacademy-backend/internal/modules/notification/repository"
	notifService "github.com/darsplatform/darsacademy-backend/internal/modules/notification/service"

	searchService "github.com/darsplatform/darsacademy-backend/internal/modules/search/service"

	userHttp "github.com/darsplatform/darsacademy-backend/internal/modules/user/delivery/http"
	userRepo "github.com/darsplatform/darsacademy-backend/internal/modules/user/repository"
	userService "github.com/darsplatform/darsacademy-backend/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)
	courses := courseRepo.NewCourseRepository(db)
	purchases := courseRepo.NewPurchaseRepository(db)
	sessions := sessionRepo.NewLiveSessionRepository(db)
	notifications := notifRepo.NewNotificationRepository(db)

	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Printf("cloudinary storage disabled: %v", err)
		imageStorage = nil
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := searchService.NewCourseSearchService(meiliClient)

	notificationSvc := notifService.NewNotificationService(notifications, redisClient)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, redisClient)

	authSvc := userService.NewAuthService(users, redisClient, cfg)
	authHandler := userHttp.NewAuthHandler(authSvc)

	courseSvc := courseService.NewCourseService(courses, purchases, searchSvc, imageStorage)
	courseHandler := courseHttp.NewCourseHandler(courseSvc)

	sessionSvc := sessionService.NewLiveSessionService(sessions, courses, purchases, notificationSvc)
	sessionHandler := sessionHttp.NewLiveSessionHandler(sessionSvc)

	adminSvc := adminService.NewAdminService(users, courses, purchases, notificationSvc)
	adminHandler := adminHttp.NewAdminHandler(adminSvc, authSvc)

	router := gin.New()
	setupCORS(router, cfg)
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(users, cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/google/login", authHandler.GoogleLogin)
		auth.GET("/google/callback", authHandler.GoogleCallback)
	}
	api.GET("/courses/public", courseHandler.PublicCatalog)
	api.GET("/courses/search", courseHandler.Search)

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/profile/me", authHandler.Me)

		// Student-facing course and session reads
		protected.GET("/courses/:courseId/live", sessionHandler.ListForCourse)
		protected.GET("/courses/:courseId/chapters/:chapterId/livestreams", sessionHandler.ListForChapter)
		protected.GET("/livestream/:sessionId", sessionHandler.Get)
		protected.GET("/livestream/teacher", sessionHandler.ListForTeacher)
		protected.GET("/livestream/admin", authMiddleware.RequireAdmin(), sessionHandler.ListAll)
		protected.PUT("/chapters/:chapterId/progress", courseHandler.UpdateProgress)

		// Notifications
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.Stream)

		// Teacher/admin course management
		staff := protected.Group("")
		staff.Use(authMiddleware.RequireStaff())
		{
			staff.POST("/courses", courseHandler.CreateCourse)
			staff.PATCH("/courses/:courseId", courseHandler.UpdateCourse)
			staff.PATCH("/courses/:courseId/publish", courseHandler.PublishCourse)
			staff.DELETE("/courses/:courseId", courseHandler.DeleteCourse)
			staff.POST("/courses/:courseId/image", courseHandler.UploadImage)
			staff.POST("/courses/:courseId/chapters", courseHandler.CreateChapter)
			staff.PATCH("/chapters/:chapterId", courseHandler.UpdateChapter)
			staff.PATCH("/chapters/:chapterId/publish", courseHandler.PublishChapter)
			staff.DELETE("/chapters/:chapterId", courseHandler.DeleteChapter)

			staff.POST("/livestream", sessionHandler.Create)
			staff.PATCH("/livestream/:sessionId", sessionHandler.Update)
			staff.PATCH("/livestream/:sessionId/publish", sessionHandler.SetPublished)
			staff.DELETE("/livestream/:sessionId", sessionHandler.Delete)

			staff.PATCH("/teacher/users/:userId", adminHandler.UpdateUser)
		}

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/users", adminHandler.CreateStudent)
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.GET("/users/:userId/courses", adminHandler.StudentCourses)
			adminGroup.POST("/users/:userId/purchases", adminHandler.GrantPurchase)
			adminGroup.DELETE("/users/:userId/purchases/:courseId", adminHandler.RevokePurchase)
		}
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	var origins []string
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
