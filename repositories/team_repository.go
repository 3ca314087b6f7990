package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/leaguehq/league-api/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name conflict")
	ErrTeamCaptainInvalid = errors.New("team captain reference invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	GetByIDAndCaptain(ctx context.Context, id, captainID int) (*models.Team, error)
	ListByDivision(ctx context.Context, divisionID int) ([]models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	UpdateLogoKey(ctx context.Context, id int, key string) error
	RecordResult(ctx context.Context, id, winsDelta, lossesDelta, drawsDelta, pointsDelta int) (*models.Team, error)
	Deactivate(ctx context.Context, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `
	id, name, sport_id, division_id, captain_id,
	wins, losses, draws, points, is_active, logo_key,
	created_at, updated_at`

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, sport_id, division_id, captain_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, wins, losses, draws, points, is_active, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		team.Name,
		team.SportID,
		team.DivisionID,
		team.CaptainID,
	).Scan(
		&team.ID,
		&team.Wins,
		&team.Losses,
		&team.Draws,
		&team.Points,
		&team.IsActive,
		&team.CreatedAt,
		&team.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "teams_name_key" {
					return ErrTeamNameConflict
				}
			case "23503":
				if pqErr.Constraint == "teams_captain_id_fkey" {
					return ErrTeamCaptainInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT` + teamColumns + ` FROM teams WHERE id = $1`
	return r.scanTeam(r.db.QueryRowContext(ctx, query, id))
}

// GetByIDAndCaptain is the ownership lookup behind the captaincy gate.
func (r *postgresTeamRepository) GetByIDAndCaptain(ctx context.Context, id, captainID int) (*models.Team, error) {
	query := `SELECT` + teamColumns + ` FROM teams WHERE id = $1 AND captain_id = $2`
	return r.scanTeam(r.db.QueryRowContext(ctx, query, id, captainID))
}

func (r *postgresTeamRepository) ListByDivision(ctx context.Context, divisionID int) ([]models.Team, error) {
	query := `SELECT` + teamColumns + `
		FROM teams
		WHERE division_id = $1 AND is_active = TRUE
		ORDER BY points DESC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, divisionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		team, scanErr := r.scanTeam(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, *team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams SET
			name = $1,
			division_id = $2,
			is_active = $3,
			updated_at = NOW()
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query,
		team.Name,
		team.DivisionID,
		team.IsActive,
		team.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "teams_name_key" {
				return ErrTeamNameConflict
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, id int, key string) error {
	query := `UPDATE teams SET logo_key = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

// RecordResult applies the counter deltas atomically and returns the
// updated row.
func (r *postgresTeamRepository) RecordResult(ctx context.Context, id, winsDelta, lossesDelta, drawsDelta, pointsDelta int) (*models.Team, error) {
	query := `
		UPDATE teams SET
			wins = wins + $1,
			losses = losses + $2,
			draws = draws + $3,
			points = points + $4,
			updated_at = NOW()
		WHERE id = $5
		RETURNING` + teamColumns

	return r.scanTeam(r.db.QueryRowContext(ctx, query, winsDelta, lossesDelta, drawsDelta, pointsDelta, id))
}

func (r *postgresTeamRepository) Deactivate(ctx context.Context, id int) error {
	query := `UPDATE teams SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *postgresTeamRepository) scanTeam(row rowScanner) (*models.Team, error) {
	team := &models.Team{}
	var logoKey sql.NullString

	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.SportID,
		&team.DivisionID,
		&team.CaptainID,
		&team.Wins,
		&team.Losses,
		&team.Draws,
		&team.Points,
		&team.IsActive,
		&logoKey,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}

	if logoKey.Valid {
		team.LogoKey = &logoKey.String
	}
	return team, nil
}
