package main

import (
	"log"

	"github.com/darsplatform/darsacademy-backend/internal/config"
	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/darsplatform/darsacademy-backend/internal/server"
	"github.com/darsplatform/darsacademy-backend/pkg/database"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(database.Options{
		URL:       cfg.DatabaseURL,
		PooledURL: cfg.PooledDatabaseURL,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if cfg.AppEnv == "development" {
		if err := seedAdminUser(db, cfg.BcryptCost); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	redisClient := connectRedis(cfg.RedisURL)

	srv := server.NewServer(cfg, db, redisClient)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// connectRedis is best-effort: rate limiting and realtime notifications
// degrade gracefully without Redis.
func connectRedis(url string) *redis.Client {
	if url == "" {
		log.Println("REDIS_URL not set, rate limiting and websocket notifications disabled")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("invalid REDIS_URL, continuing without redis: %v", err)
		return nil
	}
	return redis.NewClient(opts)
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Course{},
		&entity.Chapter{},
		&entity.Purchase{},
		&entity.UserProgress{},
		&entity.LiveSession{},
		&entity.LiveSessionCourse{},
		&entity.Notification{},
	)
}

func seedAdminUser(db *gorm.DB, bcryptCost int) error {
	phone := "0800000000"
	var count int64
	if err := db.Model(&entity.User{}).
		Where("phone_number = ?", phone).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcryptCost)
	if err != nil {
		return err
	}

	admin := entity.User{
		FullName:       "Administrator",
		PhoneNumber:    &phone,
		HashedPassword: string(hashed),
		Role:           entity.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("Admin user seeded")
	log.Printf("   Phone: %s", phone)
	log.Println("   Password: admin123")
	return nil
}
