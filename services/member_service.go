package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leaguehq/league-api/models"
	"github.com/leaguehq/league-api/repositories"
)

type MemberService interface {
	InviteMember(ctx context.Context, teamID, userID, invitedBy int) (*models.TeamMember, error)
	ApproveMember(ctx context.Context, teamID, userID int) (*models.TeamMember, error)
	RemoveMember(ctx context.Context, teamID, userID, currentUserID int) error
	ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error)
}

type memberService struct {
	memberRepo repositories.MemberRepository
	teamRepo   repositories.TeamRepository
	userRepo   repositories.UserRepository
}

func NewMemberService(
	memberRepo repositories.MemberRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
) MemberService {
	return &memberService{
		memberRepo: memberRepo,
		teamRepo:   teamRepo,
		userRepo:   userRepo,
	}
}

// InviteMember creates a pending membership record for the user. The
// captaincy of invitedBy is enforced by the route middleware.
func (s *memberService) InviteMember(ctx context.Context, teamID, userID, invitedBy int) (*models.TeamMember, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	member := &models.TeamMember{
		UserID:    userID,
		TeamID:    teamID,
		Status:    models.MemberStatusPending,
		InvitedBy: &invitedBy,
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMemberPairConflict):
			return nil, ErrMembershipConflict
		case errors.Is(err, repositories.ErrMemberRefInvalid):
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}
	return member, nil
}

func (s *memberService) ApproveMember(ctx context.Context, teamID, userID int) (*models.TeamMember, error) {
	member, err := s.memberRepo.GetByUserAndTeam(ctx, userID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	if member.Status != models.MemberStatusPending {
		return nil, ErrInvalidMemberStatus
	}

	now := time.Now()
	if err := s.memberRepo.UpdateStatus(ctx, member.ID, models.MemberStatusActive, &now); err != nil {
		return nil, fmt.Errorf("failed to activate membership: %w", err)
	}

	member.Status = models.MemberStatusActive
	member.JoinedAt = &now
	return member, nil
}

// RemoveMember marks the membership inactive. Allowed for the team captain
// and for the member leaving on their own; the captain's record itself
// cannot be removed.
func (s *memberService) RemoveMember(ctx context.Context, teamID, userID, currentUserID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	if userID == team.CaptainID {
		return ErrCannotRemoveCaptain
	}
	if currentUserID != userID && currentUserID != team.CaptainID {
		return ErrSelfLeaveForbidden
	}

	member, err := s.memberRepo.GetByUserAndTeam(ctx, userID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to get membership: %w", err)
	}

	if err := s.memberRepo.UpdateStatus(ctx, member.ID, models.MemberStatusInactive, nil); err != nil {
		return fmt.Errorf("failed to deactivate membership: %w", err)
	}
	return nil
}

func (s *memberService) ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	members, err := s.memberRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members for team %d: %w", teamID, err)
	}
	return members, nil
}
