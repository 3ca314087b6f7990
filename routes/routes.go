package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/leaguehq/league-api/handlers"
	"github.com/leaguehq/league-api/middleware"
	"github.com/leaguehq/league-api/models"
	"github.com/leaguehq/league-api/repositories"
)

func SetupRoutes(
	router *chi.Mux,
	authn *middleware.Authenticator,
	teamRepo repositories.TeamRepository,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	teamHandler *handlers.TeamHandler,
	memberHandler *handlers.MemberHandler,
	wsHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"OK","message":"Server is running"}`))
	})

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

	router.Route("/api/users", func(r chi.Router) {
		r.Use(authn.Authenticate)
		r.Get("/{userID}", userHandler.GetUser)
		r.Put("/{userID}", userHandler.UpdateProfile)
		r.Post("/{userID}/avatar", userHandler.UploadAvatar)
	})

	router.Route("/api/teams", func(r chi.Router) {
		// Публичные маршруты для просмотра команд
		r.Get("/{teamID}", teamHandler.GetTeam)

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)

			r.Post("/", teamHandler.CreateTeam)
			r.Get("/{teamID}/members", memberHandler.ListMembers)
			r.Delete("/{teamID}/members/{userID}", memberHandler.RemoveMember)

			// Только капитан команды
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireTeamCaptain(teamRepo))
				r.Put("/{teamID}", teamHandler.UpdateTeam)
				r.Post("/{teamID}/logo", teamHandler.UploadLogo)
				r.Post("/{teamID}/members", memberHandler.InviteMember)
				r.Post("/{teamID}/members/{userID}/approve", memberHandler.ApproveMember)
			})

			// Результаты фиксируют админы и судьи
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleReferee))
				r.Post("/{teamID}/results", teamHandler.RecordResult)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(models.RoleAdmin))
				r.Delete("/{teamID}", teamHandler.DeactivateTeam)
			})
		})
	})

	router.Get("/api/divisions/{divisionID}/teams", teamHandler.ListDivisionTeams)

	router.Get("/ws/standings/{divisionID}", wsHandler.ServeStandings)
}
