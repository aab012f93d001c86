package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	"github.com/kriugm/kri-services/internal/comm"
	"github.com/kriugm/kri-services/internal/monitorsvc/handlers"
)

// SetRoutes mounts the monitor endpoints. Browsers cannot set headers on a
// websocket handshake, so the token may also come as ?jwt=.
func SetRoutes(r chi.Router, h *handlers.Handler, tokenAuth *jwtauth.JWTAuth) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(tokenAuth, jwtauth.TokenFromHeader, tokenFromQuery))
			r.Use(jwtauth.Authenticator)
			r.Use(requireClaim(comm.ClaimLogAttendance))

			r.Get("/ws", h.HandleWebSocket)
		})
	})
}

func InitAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

func tokenFromQuery(r *http.Request) string {
	return r.URL.Query().Get("jwt")
}

// requireClaim answers 403 unless the verified token carries claim = true.
// Scan events expose card holders, so only gate staff may watch them.
func requireClaim(claim string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if granted, _ := claims[claim].(bool); err != nil || !granted {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(handlers.Response{
					Message: "permission denied",
					Code:    http.StatusForbidden,
					Error:   http.StatusText(http.StatusForbidden),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
