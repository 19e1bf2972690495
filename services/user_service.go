package services

import (
	"Bookstore/jwt"
	"Bookstore/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db     *gorm.DB
	tokens *jwt.Manager
	logger *zap.Logger
}

func NewUserService(db *gorm.DB, tokens *jwt.Manager, logger *zap.Logger) *UserService {
	return &UserService{db: db, tokens: tokens, logger: logger}
}

type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

// SignUp creates a USER account together with its empty cart.
func (s *UserService) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", ErrValidation)
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hashedPassword,
		Role:     models.RoleUser,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := emailExists(tx, email)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: user with email %s already exists", ErrConflict, email)
		}

		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		cart := models.Order{
			UserID: user.ID,
			Status: models.OrderStatusPending,
			Price:  0,
		}
		if err := tx.Omit("User", "CartItems").Create(&cart).Error; err != nil {
			return fmt.Errorf("create cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", zap.Uint("userID", user.ID), zap.String("email", user.Email))
	return &user, nil
}

// Authenticate checks the credentials and returns a signed token.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return "", err
	}
	return token, nil
}

// SeedAdmin creates the admin account unless one already exists. It reports whether it created one.
func (s *UserService) SeedAdmin(ctx context.Context, name, email, password string) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if count > 0 {
			return nil
		}

		hashedPassword, err := hashPassword(password)
		if err != nil {
			return err
		}
		admin := models.User{
			Name:     name,
			Email:    normalizeEmail(email),
			Password: hashedPassword,
			Role:     models.RoleAdmin,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if created {
		s.logger.Info("admin account seeded", zap.String("email", normalizeEmail(email)))
	}
	return created, nil
}

func emailExists(tx *gorm.DB, email string) (bool, error) {
	var count int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is too long", ErrValidation)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
