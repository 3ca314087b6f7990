package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/leaguehq/league-api/middleware"
	"github.com/leaguehq/league-api/models"
	"github.com/leaguehq/league-api/repositories"
	"github.com/leaguehq/league-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int]*models.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *memoryUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryUserRepo) UpdatePassword(_ context.Context, id int, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetPasswordTokenHash = nil
	u.ResetPasswordExpiresAt = nil
	return nil
}

func (r *memoryUserRepo) UpdateProfileImageKey(_ context.Context, id int, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.ProfileImageKey = &key
	return nil
}

func (r *memoryUserRepo) SetResetPasswordToken(_ context.Context, id int, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.ResetPasswordTokenHash = &tokenHash
	u.ResetPasswordExpiresAt = &expiresAt
	return nil
}

func (r *memoryUserRepo) ClearResetPasswordToken(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.ResetPasswordTokenHash = nil
	u.ResetPasswordExpiresAt = nil
	return nil
}

func (r *memoryUserRepo) GetByResetPasswordToken(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetPasswordTokenHash != nil && *u.ResetPasswordTokenHash == tokenHash &&
			u.ResetPasswordExpiresAt != nil && u.ResetPasswordExpiresAt.After(now) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *memoryUserRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type captureMailer struct {
	mu     sync.Mutex
	tokens []string
	fail   bool
}

func (m *captureMailer) SendPasswordResetEmail(_, resetToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return assert.AnError
	}
	m.tokens = append(m.tokens, resetToken)
	return nil
}

func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.tokens)
	return m.tokens[len(m.tokens)-1]
}

// authTestServer wires the auth routes the way the application router does.
func authTestServer(t *testing.T) (*chi.Mux, *memoryUserRepo, *captureMailer) {
	t.Helper()

	userRepo := newMemoryUserRepo()
	mailer := &captureMailer{}
	tokens := services.NewTokenService("test-secret", time.Hour)
	authService := services.NewAuthService(userRepo, tokens, mailer, 30*time.Minute)
	authHandler := NewAuthHandler(authService)
	authn := middleware.NewAuthenticator(tokens, userRepo)

	router := chi.NewRouter()
	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password/{token}", authHandler.ResetPassword)
		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)
			r.Get("/me", authHandler.Me)
		})
	})
	return router, userRepo, mailer
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func registerBody() map[string]interface{} {
	return map[string]interface{}{
		"email":      "a@x.com",
		"password":   "secret123",
		"first_name": "Alice",
		"last_name":  "Smith",
		"phone":      "+15550001111",
		"gender":     "female",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	router, _, _ := authTestServer(t)

	t.Run("creates the account and returns a token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/auth/register", registerBody(), nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody(t, rec)
		assert.NotEmpty(t, body["token"])

		user, ok := body["user"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "a@x.com", user["email"])
		assert.Equal(t, "player", user["role"])

		// Секреты не сериализуются.
		assert.NotContains(t, user, "password_hash")
		assert.NotContains(t, rec.Body.String(), "secret123")
		assert.NotContains(t, rec.Body.String(), "reset_password")
	})

	t.Run("duplicate email is a bad request", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/auth/register", registerBody(), nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "already exists")
	})

	t.Run("missing required fields", func(t *testing.T) {
		body := registerBody()
		delete(body, "password")
		body["email"] = "b@x.com"
		rec := doJSON(t, router, http.MethodPost, "/api/auth/register", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown gender", func(t *testing.T) {
		body := registerBody()
		body["email"] = "c@x.com"
		body["gender"] = "attack-helicopter"
		rec := doJSON(t, router, http.MethodPost, "/api/auth/register", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown JSON key is rejected", func(t *testing.T) {
		body := registerBody()
		body["email"] = "d@x.com"
		body["is_admin"] = true
		rec := doJSON(t, router, http.MethodPost, "/api/auth/register", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	router, _, _ := authTestServer(t)
	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("valid credentials", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "a@x.com",
			"password": "secret123",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decodeBody(t, rec)["token"])
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		wrongPass := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "a@x.com",
			"password": "nope",
		}, nil)
		unknown := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "ghost@x.com",
			"password": "secret123",
		}, nil)

		assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.JSONEq(t, wrongPass.Body.String(), unknown.Body.String())
		assert.Contains(t, wrongPass.Body.String(), "Invalid credentials")
	})
}

func TestMeEndpoint(t *testing.T) {
	router, userRepo, _ := authTestServer(t)
	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	token, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	t.Run("without token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/auth/me", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("with token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/auth/me", nil, map[string]string{
			"Authorization": "Bearer " + token,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		user, ok := decodeBody(t, rec)["user"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "a@x.com", user["email"])
	})

	t.Run("token outlives the account", func(t *testing.T) {
		require.NoError(t, userRepo.Delete(context.Background(), 1))
		rec := doJSON(t, router, http.MethodGet, "/api/auth/me", nil, map[string]string{
			"Authorization": "Bearer " + token,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	router, _, mailer := authTestServer(t)
	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("unknown email", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/auth/forgot-password", map[string]string{
			"email": "ghost@x.com",
		}, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("full round trip", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/auth/forgot-password", map[string]string{
			"email": "a@x.com",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		secret := mailer.lastToken(t)
		rec = doJSON(t, router, http.MethodPost, "/api/auth/reset-password/"+secret, map[string]string{
			"password": "brandnew456",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		// Старый пароль больше не работает, новый — работает.
		old := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "a@x.com",
			"password": "secret123",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, old.Code)

		fresh := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "a@x.com",
			"password": "brandnew456",
		}, nil)
		assert.Equal(t, http.StatusOK, fresh.Code)

		// Секрет одноразовый.
		rec = doJSON(t, router, http.MethodPost, "/api/auth/reset-password/"+secret, map[string]string{
			"password": "another789",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bogus token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/auth/reset-password/deadbeef", map[string]string{
			"password": "whatever1",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid or expired token")
	})

	t.Run("delivery failure surfaces as server error", func(t *testing.T) {
		mailer.mu.Lock()
		mailer.fail = true
		mailer.mu.Unlock()
		defer func() {
			mailer.mu.Lock()
			mailer.fail = false
			mailer.mu.Unlock()
		}()

		rec := doJSON(t, router, http.MethodPost, "/api/auth/forgot-password", map[string]string{
			"email": "a@x.com",
		}, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "could not send email")
	})
}
