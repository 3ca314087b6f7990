package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed    = errors.New("validation failed")
	ErrInvalidGender       = errors.New("invalid gender specified")
	ErrPasswordRequired    = errors.New("password is required")
	ErrEmailRequired       = errors.New("email is required")
	ErrInvalidMemberStatus = errors.New("invalid membership status")
	ErrCannotRemoveCaptain = errors.New("cannot remove the team captain")

	// Ошибки конфликтов
	ErrUserEmailConflict  = errors.New("user already exists")
	ErrTeamNameConflict   = errors.New("team name is already in use")
	ErrMembershipConflict = errors.New("user already has a membership record for this team")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidToken           = errors.New("invalid token")
	ErrInvalidOrExpiredToken  = errors.New("invalid or expired token")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")
	ErrSelfLeaveForbidden     = errors.New("only the team captain or the member themselves can perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound   = errors.New("user not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrMemberNotFound = errors.New("team member not found")

	// Ошибки внешних сервисов
	ErrEmailSendFailed  = errors.New("could not send email")
	ErrFileUploadFailed = errors.New("file upload failed")
)
