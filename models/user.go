package models

import "time"

type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

// Valid reports whether g belongs to the closed set of genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

type UserRole string

const (
	RolePlayer  UserRole = "player"
	RoleCaptain UserRole = "captain"
	RoleAdmin   UserRole = "admin"
	RoleReferee UserRole = "referee"
)

func (r UserRole) Valid() bool {
	switch r {
	case RolePlayer, RoleCaptain, RoleAdmin, RoleReferee:
		return true
	}
	return false
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

// User is the identity record. Password hash and reset-token fields are
// never serialized to clients.
type User struct {
	ID           int        `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Phone        string     `json:"phone" db:"phone"`
	Gender       Gender     `json:"gender" db:"gender"`
	Role         UserRole   `json:"role" db:"role"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`

	EmergencyContact *EmergencyContact `json:"emergency_contact,omitempty" db:"-"`

	ProfileImageKey *string `json:"-" db:"profile_image_key"`
	ProfileImageURL *string `json:"profile_image_url,omitempty" db:"-"`

	ResetPasswordTokenHash *string    `json:"-" db:"reset_password_token_hash"`
	ResetPasswordExpiresAt *time.Time `json:"-" db:"reset_password_expires_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
