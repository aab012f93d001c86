package handlers

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Get("/health", h.HealthHandler)
		r.Post("/auth/token", h.TokenHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)
			r.Use(h.withUser)

			r.Post("/attendance/login", h.LoginHandler)
			r.Post("/attendance/logout", h.LogoutHandler)
			r.Get("/attendance/fetch-log", h.FetchLogHandler)

			r.Post("/cards", h.RegisterCardHandler)
			r.Get("/universities/me", h.MyUniversityHandler)

			r.Route("/teams", func(r chi.Router) {
				r.Post("/", h.CreateTeamHandler)
				r.Get("/{teamID}", h.TeamHandler)
				r.Put("/{teamID}", h.UpdateTeamHandler)
				r.Get("/{teamID}/slots/{role}", h.SlotsHandler)
				r.Post("/{teamID}/persons", h.CreatePersonHandler)
				r.Put("/{teamID}/persons/{personID}", h.UpdatePersonHandler)
			})

			r.Get("/tickets", h.TicketsHandler)
			r.Post("/tickets/orders", h.PlaceOrderHandler)
			r.Post("/tickets/orders/{orderID}/verify", h.VerifyOrderHandler)
		})
	})
}

// InitAuth sets the HS256 signing key and the lifetime of issued tokens.
func (h *Handler) InitAuth(secret string, ttl time.Duration) {
	h.tokenAuth = jwtauth.New("HS256", []byte(secret), nil)
	h.tokenTTL = ttl
}
