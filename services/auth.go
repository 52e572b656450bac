package services

import (
	"errors"
	"fmt"
	"time"

	"progreso/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService handles registration and login. Sessions are stateless JWTs
// signed with a shared secret.
type AuthService struct {
	DB       *gorm.DB
	Secret   []byte
	TokenTTL time.Duration
	Logger   *zap.Logger
}

func NewAuthService(db *gorm.DB, secret []byte, logger *zap.Logger) *AuthService {
	return &AuthService{DB: db, Secret: secret, TokenTTL: 72 * time.Hour, Logger: logger}
}

// Register creates an account with fresh game stats. Username and email
// uniqueness is enforced by the database.
func (s *AuthService) Register(username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:                   uuid.NewString(),
		Username:             username,
		Email:                email,
		PasswordHash:         string(hash),
		Level:                1,
		CurrentXP:            0,
		XPToNextLevel:        100,
		Coins:                0,
		Health:               models.MaxHealth,
		AssistantPersonality: models.DefaultPersonalityName,
		MissionsPerDay:       3,
		HabitsToGenerate:     3,
		ShopItemsPerDay:      3,
		OnboardingStatus:     models.StatusRegistered,
	}

	if err := s.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username or email already taken: %w", err)
		}
		return nil, err
	}

	// Seed the default catalog so the shop is not empty before the first
	// AI refresh.
	for _, item := range models.DefaultShopCatalog {
		seed := item
		seed.ID = uuid.NewString()
		seed.UserID = user.ID
		if err := s.DB.Create(&seed).Error; err != nil {
			s.Logger.Warn("shop_seed_failed", zap.String("user_id", user.ID), zap.Error(err))
			break
		}
	}

	s.Logger.Info("user_registered", zap.String("user_id", user.ID), zap.String("username", username))
	return &user, nil
}

// Login verifies credentials and returns a signed session token.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"iat": now.Unix(),
		"exp": now.Add(s.TokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, &user, nil
}
