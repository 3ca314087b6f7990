package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/leaguehq/league-api/models"
	"github.com/leaguehq/league-api/repositories"
	"github.com/leaguehq/league-api/services"
)

type contextKey string

const claimsContextKey contextKey = "auth.claims"

// ClaimsFromContext returns the claims attached by Authenticate.
func ClaimsFromContext(ctx context.Context) (*services.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*services.Claims)
	return claims, ok
}

// Authenticator gates requests on a valid bearer token and re-checks the
// account still exists (tokens outlive deletions otherwise). Role staleness
// is a known limitation: the gate trusts the role embedded in the token.
type Authenticator struct {
	tokens   services.TokenService
	userRepo repositories.UserRepository
}

func NewAuthenticator(tokens services.TokenService, userRepo repositories.UserRepository) *Authenticator {
	return &Authenticator{
		tokens:   tokens,
		userRepo: userRepo,
	}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Not authorized, no token provided")
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := a.tokens.Verify(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authorized, invalid token")
			return
		}

		// Токен мог пережить удаление аккаунта.
		if _, err := a.userRepo.GetByID(r.Context(), claims.UserID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				writeError(w, http.StatusUnauthorized, "Not authorized, user not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles allows the request through only when the authenticated
// identity's role is in the allow-list.
func RequireRoles(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Not authorized, no user found")
				return
			}

			for _, role := range roles {
				if role == claims.Role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "User role "+string(claims.Role)+" is not authorized to access this route")
		})
	}
}

// RequireTeamCaptain allows the request through only when the authenticated
// identity captains the team named in the path.
func RequireTeamCaptain(teamRepo repositories.TeamRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Not authorized, no user found")
				return
			}

			teamID, err := strconv.Atoi(chi.URLParam(r, "teamID"))
			if err != nil || teamID <= 0 {
				writeError(w, http.StatusBadRequest, "invalid team id")
				return
			}

			if _, err := teamRepo.GetByIDAndCaptain(r.Context(), teamID, claims.UserID); err != nil {
				if errors.Is(err, repositories.ErrTeamNotFound) {
					writeError(w, http.StatusForbidden, "You are not authorized to manage this team")
					return
				}
				writeError(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
