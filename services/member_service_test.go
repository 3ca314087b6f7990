package services

import (
	"context"
	"testing"

	"github.com/leaguehq/league-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memberFixture struct {
	svc     MemberService
	members *fakeMemberRepo
	users   *fakeUserRepo
	team    *models.Team
	captain *models.User
	player  *models.User
}

func newMemberFixture(t *testing.T) *memberFixture {
	t.Helper()
	ctx := context.Background()

	teamRepo := newFakeTeamRepo()
	userRepo := newFakeUserRepo()
	memberRepo := newFakeMemberRepo(userRepo)

	captain := seedCaptain(t, userRepo)
	player := &models.User{
		Email:     "player@x.com",
		FirstName: "Pat",
		LastName:  "Player",
		Gender:    models.GenderOther,
		Role:      models.RolePlayer,
	}
	require.NoError(t, userRepo.Create(ctx, player))

	teams := NewTeamService(teamRepo, userRepo, memberRepo, &fakeUploader{}, nil)
	team, err := teams.CreateTeam(ctx, CreateTeamInput{Name: "Falcons", SportID: 1, DivisionID: 2}, captain.ID)
	require.NoError(t, err)

	return &memberFixture{
		svc:     NewMemberService(memberRepo, teamRepo, userRepo),
		members: memberRepo,
		users:   userRepo,
		team:    team,
		captain: captain,
		player:  player,
	}
}

func TestMemberServiceInviteMember(t *testing.T) {
	ctx := context.Background()
	f := newMemberFixture(t)

	member, err := f.svc.InviteMember(ctx, f.team.ID, f.player.ID, f.captain.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusPending, member.Status)
	assert.Nil(t, member.JoinedAt)
	require.NotNil(t, member.InvitedBy)
	assert.Equal(t, f.captain.ID, *member.InvitedBy)

	// Повторное приглашение того же пользователя
	_, err = f.svc.InviteMember(ctx, f.team.ID, f.player.ID, f.captain.ID)
	assert.ErrorIs(t, err, ErrMembershipConflict)

	_, err = f.svc.InviteMember(ctx, f.team.ID, 9999, f.captain.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemberServiceApproveMember(t *testing.T) {
	ctx := context.Background()
	f := newMemberFixture(t)

	_, err := f.svc.InviteMember(ctx, f.team.ID, f.player.ID, f.captain.ID)
	require.NoError(t, err)

	member, err := f.svc.ApproveMember(ctx, f.team.ID, f.player.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, member.Status)
	require.NotNil(t, member.JoinedAt)

	// Активное членство нельзя подтвердить второй раз.
	_, err = f.svc.ApproveMember(ctx, f.team.ID, f.player.ID)
	assert.ErrorIs(t, err, ErrInvalidMemberStatus)

	_, err = f.svc.ApproveMember(ctx, f.team.ID, 9999)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestMemberServiceRemoveMember(t *testing.T) {
	ctx := context.Background()

	invite := func(t *testing.T, f *memberFixture) {
		t.Helper()
		_, err := f.svc.InviteMember(ctx, f.team.ID, f.player.ID, f.captain.ID)
		require.NoError(t, err)
		_, err = f.svc.ApproveMember(ctx, f.team.ID, f.player.ID)
		require.NoError(t, err)
	}

	t.Run("captain removes a member", func(t *testing.T) {
		f := newMemberFixture(t)
		invite(t, f)

		require.NoError(t, f.svc.RemoveMember(ctx, f.team.ID, f.player.ID, f.captain.ID))

		member, err := f.members.GetByUserAndTeam(ctx, f.player.ID, f.team.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MemberStatusInactive, member.Status)
	})

	t.Run("member leaves on their own", func(t *testing.T) {
		f := newMemberFixture(t)
		invite(t, f)

		require.NoError(t, f.svc.RemoveMember(ctx, f.team.ID, f.player.ID, f.player.ID))
	})

	t.Run("another player cannot remove someone else", func(t *testing.T) {
		f := newMemberFixture(t)
		invite(t, f)

		outsider := &models.User{Email: "outsider@x.com", Gender: models.GenderMale, Role: models.RolePlayer}
		require.NoError(t, f.users.Create(ctx, outsider))

		err := f.svc.RemoveMember(ctx, f.team.ID, f.player.ID, outsider.ID)
		assert.ErrorIs(t, err, ErrSelfLeaveForbidden)
	})

	t.Run("captain membership is not removable", func(t *testing.T) {
		f := newMemberFixture(t)

		err := f.svc.RemoveMember(ctx, f.team.ID, f.captain.ID, f.captain.ID)
		assert.ErrorIs(t, err, ErrCannotRemoveCaptain)
	})

	t.Run("unknown team", func(t *testing.T) {
		f := newMemberFixture(t)
		err := f.svc.RemoveMember(ctx, 9999, f.player.ID, f.captain.ID)
		assert.ErrorIs(t, err, ErrTeamNotFound)
	})
}

func TestMemberServiceListMembers(t *testing.T) {
	ctx := context.Background()
	f := newMemberFixture(t)

	_, err := f.svc.InviteMember(ctx, f.team.ID, f.player.ID, f.captain.ID)
	require.NoError(t, err)

	members, err := f.svc.ListMembers(ctx, f.team.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	for _, m := range members {
		require.NotNil(t, m.User)
		assert.Empty(t, m.User.PasswordHash)
	}

	_, err = f.svc.ListMembers(ctx, 9999)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}
