package models

import "time"

type Team struct {
	ID         int    `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	SportID    int    `json:"sport_id" db:"sport_id"`
	DivisionID int    `json:"division_id" db:"division_id"`
	CaptainID  int    `json:"captain_id" db:"captain_id"`

	Wins     int  `json:"wins" db:"wins"`
	Losses   int  `json:"losses" db:"losses"`
	Draws    int  `json:"draws" db:"draws"`
	Points   int  `json:"points" db:"points"`
	IsActive bool `json:"is_active" db:"is_active"`

	Captain *User  `json:"captain,omitempty" db:"-"`
	Members []User `json:"members,omitempty" db:"-"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TeamStanding is the projection broadcast to division rooms after a
// result is recorded.
type TeamStanding struct {
	TeamID     int    `json:"team_id"`
	Name       string `json:"name"`
	DivisionID int    `json:"division_id"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
	Draws      int    `json:"draws"`
	Points     int    `json:"points"`
}
