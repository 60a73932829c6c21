package services

import (
	"context"
	"errors"
	"time"

	"quizhub/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

type AuthService struct {
	db        *gorm.DB
	redis     *redis.Client
	jwtSecret string
	clock     clockwork.Clock
}

func NewAuthService(db *gorm.DB, redisClient *redis.Client, jwtSecret string, clock clockwork.Clock) *AuthService {
	return &AuthService{db: db, redis: redisClient, jwtSecret: jwtSecret, clock: clock}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Photo string `json:"photo"`
}

func (s *AuthService) Register(req *RegisterRequest) (*models.User, error) {
	var existing models.User
	err := s.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return nil, validationf("email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, persistence("check email", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, persistence("hash password", err)
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     models.RoleCreator,
		Verified: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, persistence("create user", err)
	}
	return &user, nil
}

func (s *AuthService) Login(req *LoginRequest) (*models.User, string, error) {
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", validationf("invalid email or password")
		}
		return nil, "", persistence("load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, "", validationf("invalid email or password")
	}

	now := s.clock.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"email":   user.Email,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, "", persistence("sign token", err)
	}

	return &user, signed, nil
}

// Logout blacklists the token in Redis until it would expire anyway. Without
// a Redis client logout degrades to a client-side token drop.
func (s *AuthService) Logout(token string) error {
	if s.redis == nil {
		return nil
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return validationf("malformed token")
	}
	expiresAt, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return validationf("token has no expiry")
	}

	ttl := expiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(context.Background(), blacklistKey(token), "1", ttl).Err(); err != nil {
		return persistence("blacklist token", err)
	}
	return nil
}

// IsTokenRevoked reports whether a token was logged out.
func (s *AuthService) IsTokenRevoked(token string) bool {
	if s.redis == nil {
		return false
	}
	_, err := s.redis.Get(context.Background(), blacklistKey(token)).Result()
	return err == nil
}

func blacklistKey(token string) string {
	return "auth:blacklist:" + token
}

func (s *AuthService) GetProfile(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistence("load user", err)
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*models.User, error) {
	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Photo != "" {
		updates["photo"] = req.Photo
	}

	if len(updates) > 0 {
		res := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			return nil, persistence("update profile", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetProfile(userID)
}
