package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/leaguehq/league-api/live"
	"github.com/leaguehq/league-api/models"
	"github.com/leaguehq/league-api/repositories"
	"github.com/leaguehq/league-api/storage"
	"golang.org/x/sync/errgroup"
)

type MatchOutcome string

const (
	OutcomeWin  MatchOutcome = "win"
	OutcomeLoss MatchOutcome = "loss"
	OutcomeDraw MatchOutcome = "draw"
)

// League scoring: three for a win, one for a draw.
const (
	pointsPerWin  = 3
	pointsPerDraw = 1
)

var ErrInvalidOutcome = errors.New("invalid match outcome")

type CreateTeamInput struct {
	Name       string `json:"name"`
	SportID    int    `json:"sport_id"`
	DivisionID int    `json:"division_id"`
}

type UpdateTeamInput struct {
	Name       string `json:"name"`
	DivisionID int    `json:"division_id"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput, captainID int) (*models.Team, error)
	GetTeamByID(ctx context.Context, id int) (*models.Team, error)
	ListByDivision(ctx context.Context, divisionID int) ([]models.Team, error)
	UpdateTeam(ctx context.Context, teamID int, input UpdateTeamInput) (*models.Team, error)
	UploadLogo(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error)
	RecordResult(ctx context.Context, teamID int, outcome MatchOutcome) (*models.Team, error)
	DeactivateTeam(ctx context.Context, teamID int) error
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	userRepo   repositories.UserRepository
	memberRepo repositories.MemberRepository
	uploader   storage.FileUploader
	hub        *live.Hub
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	memberRepo repositories.MemberRepository,
	uploader storage.FileUploader,
	hub *live.Hub,
) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		userRepo:   userRepo,
		memberRepo: memberRepo,
		uploader:   uploader,
		hub:        hub,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput, captainID int) (*models.Team, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}

	team := &models.Team{
		Name:       input.Name,
		SportID:    input.SportID,
		DivisionID: input.DivisionID,
		CaptainID:  captainID,
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrTeamCaptainInvalid):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	// Капитан сразу становится активным участником своей команды.
	now := time.Now()
	member := &models.TeamMember{
		UserID:   captainID,
		TeamID:   team.ID,
		Status:   models.MemberStatusActive,
		JoinedAt: &now,
	}
	if err := s.memberRepo.Create(ctx, member); err != nil && !errors.Is(err, repositories.ErrMemberPairConflict) {
		return nil, fmt.Errorf("failed to create captain membership: %w", err)
	}

	s.resolveLogoURL(team)
	return team, nil
}

// GetTeamByID assembles the team with captain and members fetched
// concurrently.
func (s *teamService) GetTeamByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		captain, err := s.userRepo.GetByID(gCtx, team.CaptainID)
		if err != nil {
			return fmt.Errorf("failed to get team captain %d: %w", team.CaptainID, err)
		}
		team.Captain = captain
		return nil
	})

	g.Go(func() error {
		members, err := s.memberRepo.ListByTeam(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to list team members: %w", err)
		}
		users := make([]models.User, 0, len(members))
		for _, m := range members {
			if m.Status == models.MemberStatusActive && m.User != nil {
				users = append(users, *m.User)
			}
		}
		team.Members = users
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.resolveLogoURL(team)
	return team, nil
}

func (s *teamService) ListByDivision(ctx context.Context, divisionID int) ([]models.Team, error) {
	teams, err := s.teamRepo.ListByDivision(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for division %d: %w", divisionID, err)
	}
	for i := range teams {
		s.resolveLogoURL(&teams[i])
	}
	return teams, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, teamID int, input UpdateTeamInput) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	if input.Name != "" {
		team.Name = input.Name
	}
	if input.DivisionID != 0 {
		team.DivisionID = input.DivisionID
	}
	if input.IsActive != nil {
		team.IsActive = *input.IsActive
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to update team %d: %w", teamID, err)
	}

	s.resolveLogoURL(team)
	return team, nil
}

func (s *teamService) UploadLogo(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	key := fmt.Sprintf("logos/%d/%d", teamID, time.Now().UnixNano())
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileUploadFailed, err)
	}

	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, result.Key); err != nil {
		return nil, fmt.Errorf("failed to store team logo key: %w", err)
	}

	if team.LogoKey != nil && *team.LogoKey != result.Key {
		_ = s.uploader.Delete(ctx, *team.LogoKey)
	}

	team.LogoKey = &result.Key
	s.resolveLogoURL(team)
	return team, nil
}

// RecordResult applies the outcome to the team's counters and publishes the
// updated standing to the division room.
func (s *teamService) RecordResult(ctx context.Context, teamID int, outcome MatchOutcome) (*models.Team, error) {
	var wins, losses, draws, points int
	switch outcome {
	case OutcomeWin:
		wins, points = 1, pointsPerWin
	case OutcomeLoss:
		losses = 1
	case OutcomeDraw:
		draws, points = 1, pointsPerDraw
	default:
		return nil, ErrInvalidOutcome
	}

	team, err := s.teamRepo.RecordResult(ctx, teamID, wins, losses, draws, points)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to record result for team %d: %w", teamID, err)
	}

	if s.hub != nil {
		roomID := DivisionRoomID(team.DivisionID)
		s.hub.BroadcastToRoom(roomID, live.Message{
			Type:   "TEAM_RESULT_UPDATED",
			RoomID: roomID,
			Payload: models.TeamStanding{
				TeamID:     team.ID,
				Name:       team.Name,
				DivisionID: team.DivisionID,
				Wins:       team.Wins,
				Losses:     team.Losses,
				Draws:      team.Draws,
				Points:     team.Points,
			},
		})
	}

	s.resolveLogoURL(team)
	return team, nil
}

func (s *teamService) DeactivateTeam(ctx context.Context, teamID int) error {
	if err := s.teamRepo.Deactivate(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to deactivate team %d: %w", teamID, err)
	}
	return nil
}

// DivisionRoomID names the hub room for a division.
func DivisionRoomID(divisionID int) string {
	return "division_" + strconv.Itoa(divisionID)
}

func (s *teamService) resolveLogoURL(team *models.Team) {
	if team.LogoKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*team.LogoKey)
	if url != "" {
		team.LogoURL = &url
	}
}
