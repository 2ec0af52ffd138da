package handlers

import (
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/portfoliofuturo/portfolio-api/internal/middleware"
	"github.com/portfoliofuturo/portfolio-api/internal/services"
)

type Routes struct {
	Auth   *AuthHandler
	Users  *UserHandler
	Events *EventsHandler
	Docs   *DocsHandler
}

// RegisterRoutes mounts the API under /api/v1. OAuth routes live under
// /auth/oauth so the :provider wildcard never shares a parent with the
// static /auth routes.
func RegisterRoutes(app *drift.Engine, jwtService *services.JWTService, r Routes) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/signup", r.Auth.SignUp)
	auth.Post("/signin", r.Auth.SignIn)
	auth.Post("/refresh", r.Auth.RefreshToken)
	auth.Get("/confirm", r.Auth.ConfirmEmail)
	auth.Post("/exchange", r.Auth.ExchangeCode)
	auth.Get("/oauth/:provider/consent", r.Auth.GetConsentURL)
	auth.Get("/oauth/:provider/callback", r.Auth.Callback)

	protected := api.Group("")
	protected.Use(middleware.Auth(jwtService))

	protected.Post("/auth/logout", r.Auth.SignOut)
	protected.Get("/auth/session", r.Auth.GetSession)
	protected.Get("/auth/events", r.Events.Stream)

	protected.Get("/users/me", r.Users.GetMe)
	protected.Patch("/users/me", r.Users.UpdateMe)

	api.Get("/openapi.json", r.Docs.OpenAPI)
	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})
}
