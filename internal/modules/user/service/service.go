package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/darsplatform/darsacademy-backend/internal/config"
	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/darsplatform/darsacademy-backend/internal/middleware"
	"github.com/darsplatform/darsacademy-backend/internal/modules/user/dto"
	"github.com/darsplatform/darsacademy-backend/internal/modules/user/repository"
	"github.com/darsplatform/darsacademy-backend/pkg/apperror"
	"github.com/darsplatform/darsacademy-backend/pkg/ratelimiter"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) error
	// CreateStudent is the admin-assisted variant of Register: same
	// validation, returns the created account. The role is always USER no
	// matter what the payload asked for.
	CreateStudent(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	GoogleLogin() string
	GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
}

type authService struct {
	repo         repository.UserRepository
	redisClient  *redis.Client
	secret       string
	tokenTTL     time.Duration
	bcryptCost   int
	registerWait time.Duration
	loginWait    time.Duration
	googleConfig *oauth2.Config
}

func NewAuthService(repo repository.UserRepository, redisClient *redis.Client, cfg *config.Config) AuthService {
	googleConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &authService{
		repo:         repo,
		redisClient:  redisClient,
		secret:       cfg.JWTSecret,
		tokenTTL:     cfg.JWTTTL,
		bcryptCost:   cfg.BcryptCost,
		registerWait: cfg.RateLimitRegister,
		loginWait:    cfg.RateLimitLogin,
		googleConfig: googleConfig,
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) error {
	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, req.PhoneNumber, "register", s.registerWait)
	if err != nil {
		return fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, req.PhoneNumber, "register")
		return apperror.New(http.StatusTooManyRequests,
			fmt.Sprintf("too many registration attempts, please wait %.0f seconds", ttl.Seconds()),
			apperror.ErrRateLimitExceeded)
	}

	if _, err := s.createUser(ctx, req); err != nil {
		// Free the slot so a failed attempt can be corrected immediately.
		_ = ratelimiter.ClearRateLimit(ctx, s.redisClient, req.PhoneNumber, "register")
		return err
	}
	return nil
}

func (s *authService) CreateStudent(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	user, err := s.createUser(ctx, req)
	if err != nil {
		return nil, err
	}
	resp := buildUserResponse(user)
	return &resp, nil
}

func (s *authService) createUser(ctx context.Context, req dto.RegisterRequest) (*entity.User, error) {
	if req.PhoneNumber == req.ParentPhoneNumber {
		return nil, apperror.New(http.StatusBadRequest,
			"phone number cannot be the same as parent phone number", apperror.ErrInvalidInput)
	}

	// Advisory pre-check for a field-specific message; the unique
	// constraints below are what actually guarantees uniqueness under
	// concurrent registrations.
	existing, err := s.repo.FindByEitherPhone(ctx, req.PhoneNumber, req.ParentPhoneNumber)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		if errors.Is(err, apperror.ErrStoreUnavailable) {
			return nil, fmt.Errorf("%w: please run database migrations", apperror.ErrStoreUnavailable)
		}
		return nil, err
	}
	if existing != nil {
		// The match may have been against either column of the existing
		// row; the message names the request field that collided.
		if phoneTaken(existing, req.PhoneNumber) {
			return nil, apperror.New(http.StatusBadRequest, "phone number already exists", apperror.ErrInvalidInput)
		}
		return nil, apperror.New(http.StatusBadRequest, "parent phone number already exists", apperror.ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	phone := req.PhoneNumber
	parentPhone := req.ParentPhoneNumber
	user := &entity.User{
		FullName:          req.FullName,
		PhoneNumber:       &phone,
		ParentPhoneNumber: &parentPhone,
		HashedPassword:    string(hashed),
		Role:              entity.RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// Lost the race against a concurrent registration.
			return nil, apperror.New(http.StatusBadRequest,
				"phone number or parent phone number already exists", apperror.ErrInvalidInput)
		}
		if errors.Is(err, apperror.ErrStoreUnavailable) {
			return nil, fmt.Errorf("%w: please run database migrations", apperror.ErrStoreUnavailable)
		}
		return nil, err
	}

	return user, nil
}

// phoneTaken reports whether the given number already appears on the user,
// in either phone column.
func phoneTaken(u *entity.User, number string) bool {
	if u.PhoneNumber != nil && *u.PhoneNumber == number {
		return true
	}
	return u.ParentPhoneNumber != nil && *u.ParentPhoneNumber == number
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, req.PhoneNumber, "login", s.loginWait)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		return nil, apperror.New(http.StatusTooManyRequests,
			"too many login attempts, please slow down", apperror.ErrRateLimitExceeded)
	}

	user, err := s.repo.FindByPhone(ctx, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.New(http.StatusUnauthorized, "invalid credentials", apperror.ErrUnauthorized)
		}
		return nil, apperror.ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, apperror.New(http.StatusUnauthorized, "invalid credentials", apperror.ErrUnauthorized)
	}

	return s.buildAuthResponse(user)
}

func (s *authService) GoogleLogin() string {
	return s.googleConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

func (s *authService) GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error) {
	token, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.New(http.StatusBadRequest, "failed to exchange token: "+err.Error(), apperror.ErrInvalidInput)
	}

	client := s.googleConfig.Client(ctx, token)
	userInfoResp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer userInfoResp.Body.Close()

	var googleUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(userInfoResp.Body).Decode(&googleUser); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	user, err := s.repo.FindByGoogleID(ctx, googleUser.ID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}

		// First Google sign-in: provision a student account. The random
		// password is never shown; credentials login stays impossible until
		// the user registers a phone number.
		randomPassword := uuid.New().String()
		hashed, err := bcrypt.GenerateFromPassword([]byte(randomPassword), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}

		fullName := strings.TrimSpace(googleUser.Name)
		if fullName == "" {
			fullName = googleUser.Email
		}

		user = &entity.User{
			FullName:       fullName,
			HashedPassword: string(hashed),
			Role:           entity.RoleUser,
			GoogleID:       &googleUser.ID,
		}
		if googleUser.Picture != "" {
			user.ImageURL = &googleUser.Picture
		}

		if err := s.repo.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	return s.buildAuthResponse(user)
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	resp := buildUserResponse(user)
	return &resp, nil
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	now := time.Now()
	claims := middleware.Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &dto.AuthResponse{
		Token: token,
		User:  buildUserResponse(user),
	}, nil
}

func buildUserResponse(user *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:                user.ID,
		FullName:          user.FullName,
		PhoneNumber:       user.PhoneNumber,
		ParentPhoneNumber: user.ParentPhoneNumber,
		Role:              user.Role,
		ImageURL:          user.ImageURL,
		CreatedAt:         user.CreatedAt,
	}
}
