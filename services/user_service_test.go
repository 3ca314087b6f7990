package services

import (
	"context"
	"strings"
	"testing"

	"github.com/leaguehq/league-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUserService(t *testing.T) (UserService, *fakeUserRepo, *fakeUploader, *models.User, *models.User) {
	t.Helper()
	ctx := context.Background()

	userRepo := newFakeUserRepo()
	uploader := &fakeUploader{}

	player := &models.User{
		Email:     "player@x.com",
		FirstName: "Pat",
		LastName:  "Player",
		Gender:    models.GenderOther,
		Role:      models.RolePlayer,
	}
	require.NoError(t, userRepo.Create(ctx, player))

	admin := &models.User{
		Email:  "admin@x.com",
		Gender: models.GenderFemale,
		Role:   models.RoleAdmin,
	}
	require.NoError(t, userRepo.Create(ctx, admin))

	return NewUserService(userRepo, uploader), userRepo, uploader, player, admin
}

func TestUserServiceUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("self update keeps untouched fields", func(t *testing.T) {
		svc, _, _, player, _ := seedUserService(t)

		updated, err := svc.UpdateProfile(ctx, player.ID, player.ID, player.Role, UpdateProfileInput{
			Phone: "+15550002222",
			EmergencyContact: &models.EmergencyContact{
				Name:         "Kim",
				Phone:        "+15550003333",
				Relationship: "sibling",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "+15550002222", updated.Phone)
		assert.Equal(t, "Pat", updated.FirstName)
		require.NotNil(t, updated.EmergencyContact)
		assert.Equal(t, "Kim", updated.EmergencyContact.Name)
	})

	t.Run("admin can update anyone", func(t *testing.T) {
		svc, _, _, player, admin := seedUserService(t)

		updated, err := svc.UpdateProfile(ctx, player.ID, admin.ID, admin.Role, UpdateProfileInput{
			FirstName: "Patricia",
		})
		require.NoError(t, err)
		assert.Equal(t, "Patricia", updated.FirstName)
	})

	t.Run("non-admin cannot update someone else", func(t *testing.T) {
		svc, _, _, player, admin := seedUserService(t)

		_, err := svc.UpdateProfile(ctx, admin.ID, player.ID, player.Role, UpdateProfileInput{
			FirstName: "Hax",
		})
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	})

	t.Run("invalid gender", func(t *testing.T) {
		svc, _, _, player, _ := seedUserService(t)

		_, err := svc.UpdateProfile(ctx, player.ID, player.ID, player.Role, UpdateProfileInput{
			Gender: "unknown",
		})
		assert.ErrorIs(t, err, ErrInvalidGender)
	})
}

func TestUserServiceUploadProfileImage(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the key and resolves the URL", func(t *testing.T) {
		svc, repo, _, player, _ := seedUserService(t)

		updated, err := svc.UploadProfileImage(ctx, player.ID, player.ID, "image/jpeg", strings.NewReader("jpeg-bytes"))
		require.NoError(t, err)
		require.NotNil(t, updated.ProfileImageKey)
		require.NotNil(t, updated.ProfileImageURL)
		assert.Contains(t, *updated.ProfileImageURL, *updated.ProfileImageKey)

		stored, err := repo.GetByID(ctx, player.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.ProfileImageKey)
	})

	t.Run("replacing the image deletes the old object", func(t *testing.T) {
		svc, _, uploader, player, _ := seedUserService(t)

		first, err := svc.UploadProfileImage(ctx, player.ID, player.ID, "image/jpeg", strings.NewReader("a"))
		require.NoError(t, err)
		firstKey := *first.ProfileImageKey

		_, err = svc.UploadProfileImage(ctx, player.ID, player.ID, "image/jpeg", strings.NewReader("b"))
		require.NoError(t, err)

		uploader.mu.Lock()
		defer uploader.mu.Unlock()
		assert.Contains(t, uploader.deleted, firstKey)
	})

	t.Run("only the owner can upload", func(t *testing.T) {
		svc, _, _, player, admin := seedUserService(t)

		_, err := svc.UploadProfileImage(ctx, player.ID, admin.ID, "image/jpeg", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	})
}
