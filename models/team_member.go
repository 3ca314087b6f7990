package models

import "time"

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusInactive MemberStatus = "inactive"
)

func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusActive, MemberStatusPending, MemberStatusInactive:
		return true
	}
	return false
}

// TeamMember links a user to a team. The (user_id, team_id) pair is unique.
type TeamMember struct {
	ID        int          `json:"id" db:"id"`
	UserID    int          `json:"user_id" db:"user_id"`
	TeamID    int          `json:"team_id" db:"team_id"`
	Status    MemberStatus `json:"status" db:"status"`
	JoinedAt  *time.Time   `json:"joined_at,omitempty" db:"joined_at"`
	InvitedBy *int         `json:"invited_by,omitempty" db:"invited_by"`

	User *User `json:"user,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
