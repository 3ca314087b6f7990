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
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	UpdateProfileImageKey(ctx context.Context, id int, key string) error
	SetResetPasswordToken(ctx context.Context, id int, tokenHash string, expiresAt time.Time) error
	ClearResetPasswordToken(ctx context.Context, id int) error
	GetByResetPasswordToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	Delete(ctx context.Context, id int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `
	id, email, password_hash, first_name, last_name, phone, gender, role,
	date_of_birth,
	emergency_contact_name, emergency_contact_phone, emergency_contact_relationship,
	profile_image_key, reset_password_token_hash, reset_password_expires_at,
	created_at, updated_at`

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			email, password_hash, first_name, last_name, phone, gender, role,
			date_of_birth,
			emergency_contact_name, emergency_contact_phone, emergency_contact_relationship
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	var ecName, ecPhone, ecRelationship *string
	if ec := user.EmergencyContact; ec != nil {
		ecName, ecPhone, ecRelationship = &ec.Name, &ec.Phone, &ec.Relationship
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Gender,
		user.Role,
		user.DateOfBirth,
		ecName,
		ecPhone,
		ecRelationship,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

// GetByResetPasswordToken finds the user whose stored reset-token hash
// matches AND whose expiry is still in the future. No-match and expired
// collapse into the same ErrUserNotFound on purpose.
func (r *postgresUserRepository) GetByResetPasswordToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE reset_password_token_hash = $1 AND reset_password_expires_at > $2`
	return r.scanUser(ctx, query, tokenHash, now)
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			email = $1,
			first_name = $2,
			last_name = $3,
			phone = $4,
			gender = $5,
			role = $6,
			date_of_birth = $7,
			emergency_contact_name = $8,
			emergency_contact_phone = $9,
			emergency_contact_relationship = $10,
			updated_at = NOW()
		WHERE id = $11`

	var ecName, ecPhone, ecRelationship *string
	if ec := user.EmergencyContact; ec != nil {
		ecName, ecPhone, ecRelationship = &ec.Name, &ec.Phone, &ec.Relationship
	}

	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Gender,
		user.Role,
		user.DateOfBirth,
		ecName,
		ecPhone,
		ecRelationship,
		user.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return err
	}

	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	query := `
		UPDATE users SET
			password_hash = $1,
			reset_password_token_hash = NULL,
			reset_password_expires_at = NULL,
			updated_at = NOW()
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateProfileImageKey(ctx context.Context, id int, key string) error {
	query := `UPDATE users SET profile_image_key = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) SetResetPasswordToken(ctx context.Context, id int, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE users SET
			reset_password_token_hash = $1,
			reset_password_expires_at = $2,
			updated_at = NOW()
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, tokenHash, expiresAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) ClearResetPasswordToken(ctx context.Context, id int) error {
	query := `
		UPDATE users SET
			reset_password_token_hash = NULL,
			reset_password_expires_at = NULL,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

// scanUser - вспомогательный метод для сканирования одного пользователя
func (r *postgresUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}

	var (
		dateOfBirth      sql.NullTime
		ecName           sql.NullString
		ecPhone          sql.NullString
		ecRelationship   sql.NullString
		profileImageKey  sql.NullString
		resetTokenHash   sql.NullString
		resetExpiresAt   sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Gender,
		&user.Role,
		&dateOfBirth,
		&ecName,
		&ecPhone,
		&ecRelationship,
		&profileImageKey,
		&resetTokenHash,
		&resetExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if dateOfBirth.Valid {
		user.DateOfBirth = &dateOfBirth.Time
	}
	if ecName.Valid {
		user.EmergencyContact = &models.EmergencyContact{
			Name:         ecName.String,
			Phone:        ecPhone.String,
			Relationship: ecRelationship.String,
		}
	}
	if profileImageKey.Valid {
		user.ProfileImageKey = &profileImageKey.String
	}
	if resetTokenHash.Valid {
		user.ResetPasswordTokenHash = &resetTokenHash.String
	}
	if resetExpiresAt.Valid {
		user.ResetPasswordExpiresAt = &resetExpiresAt.Time
	}

	return user, nil
}
