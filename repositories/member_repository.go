package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leaguehq/league-api/models"
	"github.com/lib/pq"
)

var (
	ErrMemberNotFound     = errors.New("team member not found")
	ErrMemberPairConflict = errors.New("user already has a membership record for this team")
	ErrMemberRefInvalid   = errors.New("membership user or team reference invalid")
)

type MemberRepository interface {
	Create(ctx context.Context, member *models.TeamMember) error
	GetByUserAndTeam(ctx context.Context, userID, teamID int) (*models.TeamMember, error)
	ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error)
	UpdateStatus(ctx context.Context, id int, status models.MemberStatus, joinedAt *time.Time) error
}

type postgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) MemberRepository {
	return &postgresMemberRepository{db: db}
}

func (r *postgresMemberRepository) Create(ctx context.Context, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (user_id, team_id, status, joined_at, invited_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		member.UserID,
		member.TeamID,
		member.Status,
		member.JoinedAt,
		member.InvitedBy,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				// Уникальная пара (user_id, team_id)
				if pqErr.Constraint == "team_members_user_id_team_id_key" {
					return ErrMemberPairConflict
				}
			case "23503":
				return ErrMemberRefInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresMemberRepository) GetByUserAndTeam(ctx context.Context, userID, teamID int) (*models.TeamMember, error) {
	query := `
		SELECT id, user_id, team_id, status, joined_at, invited_by, created_at, updated_at
		FROM team_members
		WHERE user_id = $1 AND team_id = $2`

	return r.scanMember(r.db.QueryRowContext(ctx, query, userID, teamID))
}

// ListByTeam returns memberships joined with their user records, password
// hash excluded from the select list.
func (r *postgresMemberRepository) ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	query := `
		SELECT
			m.id, m.user_id, m.team_id, m.status, m.joined_at, m.invited_by,
			m.created_at, m.updated_at,
			u.email, u.first_name, u.last_name, u.phone, u.gender, u.role
		FROM team_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var member models.TeamMember
		var user models.User
		var joinedAt sql.NullTime
		var invitedBy sql.NullInt64

		scanErr := rows.Scan(
			&member.ID,
			&member.UserID,
			&member.TeamID,
			&member.Status,
			&joinedAt,
			&invitedBy,
			&member.CreatedAt,
			&member.UpdatedAt,
			&user.Email,
			&user.FirstName,
			&user.LastName,
			&user.Phone,
			&user.Gender,
			&user.Role,
		)
		if scanErr != nil {
			return nil, scanErr
		}

		if joinedAt.Valid {
			member.JoinedAt = &joinedAt.Time
		}
		if invitedBy.Valid {
			id := int(invitedBy.Int64)
			member.InvitedBy = &id
		}
		user.ID = member.UserID
		member.User = &user
		members = append(members, member)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *postgresMemberRepository) UpdateStatus(ctx context.Context, id int, status models.MemberStatus, joinedAt *time.Time) error {
	query := `
		UPDATE team_members SET
			status = $1,
			joined_at = COALESCE($2, joined_at),
			updated_at = NOW()
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, joinedAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresMemberRepository) scanMember(row rowScanner) (*models.TeamMember, error) {
	member := &models.TeamMember{}
	var joinedAt sql.NullTime
	var invitedBy sql.NullInt64

	err := row.Scan(
		&member.ID,
		&member.UserID,
		&member.TeamID,
		&member.Status,
		&joinedAt,
		&invitedBy,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to scan team member: %w", err)
	}

	if joinedAt.Valid {
		member.JoinedAt = &joinedAt.Time
	}
	if invitedBy.Valid {
		id := int(invitedBy.Int64)
		member.InvitedBy = &id
	}
	return member, nil
}
