package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leaguehq/league-api/models"
	"github.com/leaguehq/league-api/repositories"
	"golang.org/x/crypto/bcrypt"
)

const (
	// Стоимость bcrypt для паролей.
	passwordBcryptCost = 10

	resetTokenBytes = 32
)

// ResetMailer delivers the password-reset link. Delivery may fail; the auth
// service compensates by clearing the persisted reset fields.
type ResetMailer interface {
	SendPasswordResetEmail(email, resetToken string) error
}

type RegisterInput struct {
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	Gender      string     `json:"gender"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, input LoginInput) (*models.User, string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	CurrentUser(ctx context.Context, userID int) (*models.User, error)
}

type authService struct {
	userRepo      repositories.UserRepository
	tokens        TokenService
	mailer        ResetMailer
	resetTokenTTL time.Duration
}

func NewAuthService(
	userRepo repositories.UserRepository,
	tokens TokenService,
	mailer ResetMailer,
	resetTokenTTL time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		tokens:        tokens,
		mailer:        mailer,
		resetTokenTTL: resetTokenTTL,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	gender := models.Gender(input.Gender)
	if !gender.Valid() {
		return nil, "", ErrInvalidGender
	}
	if input.Password == "" {
		return nil, "", ErrPasswordRequired
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), passwordBcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        normalizeEmail(input.Email),
		PasswordHash: string(hashedPassword),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        input.Phone,
		Gender:       gender,
		Role:         models.RolePlayer,
		DateOfBirth:  input.DateOfBirth,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, "", ErrUserEmailConflict
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// Единый ответ для неизвестного email и неверного пароля.
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to compare password hash: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ForgotPassword issues a one-time reset secret, persists its hash with an
// expiry, and mails the link. If delivery fails the persisted fields are
// rolled back so the token cannot remain usable.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user by email: %w", err)
	}

	secret, err := generateResetSecret()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiresAt := time.Now().Add(s.resetTokenTTL)
	if err := s.userRepo.SetResetPasswordToken(ctx, user.ID, hashResetSecret(secret), expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, secret); err != nil {
		if clearErr := s.userRepo.ClearResetPasswordToken(ctx, user.ID); clearErr != nil {
			return fmt.Errorf("%w: %w (rollback failed: %v)", ErrEmailSendFailed, err, clearErr)
		}
		return fmt.Errorf("%w: %w", ErrEmailSendFailed, err)
	}
	return nil
}

// ResetPassword consumes the secret: single use, uniform failure for
// no-match and expired alike.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}

	user, err := s.userRepo.GetByResetPasswordToken(ctx, hashResetSecret(token), time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), passwordBcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// UpdatePassword also clears the reset-token fields.
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *authService) CurrentUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// Аккаунт мог быть удалён после выдачи токена.
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateResetSecret() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// hashResetSecret is deterministic on purpose: the stored digest is the
// lookup key for consumption.
func hashResetSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
