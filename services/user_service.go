package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/leaguehq/league-api/models"
	"github.com/leaguehq/league-api/repositories"
	"github.com/leaguehq/league-api/storage"
)

type UpdateProfileInput struct {
	FirstName        string                   `json:"first_name"`
	LastName         string                   `json:"last_name"`
	Phone            string                   `json:"phone"`
	Gender           string                   `json:"gender"`
	DateOfBirth      *time.Time               `json:"date_of_birth,omitempty"`
	EmergencyContact *models.EmergencyContact `json:"emergency_contact,omitempty"`
}

type UserService interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, currentUserID int, currentRole models.UserRole, input UpdateProfileInput) (*models.User, error)
	UploadProfileImage(ctx context.Context, userID, currentUserID int, contentType string, file io.Reader) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader) UserService {
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
	}
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	s.resolveProfileImageURL(user)
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, currentUserID int, currentRole models.UserRole, input UpdateProfileInput) (*models.User, error) {
	if userID != currentUserID && currentRole != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	if input.Gender != "" {
		gender := models.Gender(input.Gender)
		if !gender.Valid() {
			return nil, ErrInvalidGender
		}
		user.Gender = gender
	}
	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.DateOfBirth != nil {
		user.DateOfBirth = input.DateOfBirth
	}
	if input.EmergencyContact != nil {
		user.EmergencyContact = input.EmergencyContact
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}

	s.resolveProfileImageURL(user)
	return user, nil
}

func (s *userService) UploadProfileImage(ctx context.Context, userID, currentUserID int, contentType string, file io.Reader) (*models.User, error) {
	if userID != currentUserID {
		return nil, ErrForbiddenOperation
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	key := fmt.Sprintf("avatars/%d/%d", userID, time.Now().UnixNano())
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileUploadFailed, err)
	}

	if err := s.userRepo.UpdateProfileImageKey(ctx, userID, result.Key); err != nil {
		return nil, fmt.Errorf("failed to store profile image key: %w", err)
	}

	// Старый объект больше не нужен; ошибка удаления не фатальна.
	if user.ProfileImageKey != nil && *user.ProfileImageKey != result.Key {
		_ = s.uploader.Delete(ctx, *user.ProfileImageKey)
	}

	user.ProfileImageKey = &result.Key
	s.resolveProfileImageURL(user)
	return user, nil
}

func (s *userService) resolveProfileImageURL(user *models.User) {
	if user.ProfileImageKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*user.ProfileImageKey)
	if url != "" {
		user.ProfileImageURL = &url
	}
}
