package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/kriugm/kri-services/internal/comm"
	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/kriugm/kri-services/internal/eventsvc/service"
	log "github.com/sirupsen/logrus"
)

type ctxKey int

const userCtxKey ctxKey = iota

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// TokenHandler exchanges a username and password for a bearer token.
func (h *Handler) TokenHandler(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ErrorResponse(w, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	token, expires, err := h.IssueToken(user)
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	log.Infof("token issued for %s", user.Username)
	h.CreateResponse(w, Response{
		Message: "token issued",
		Code:    http.StatusOK,
		Data:    tokenResponse{Token: token, ExpiresAt: expires, User: user},
	})
}

// IssueToken signs a token for user. The monitor service has no user
// table, so it reads the attendance permission from comm.ClaimLogAttendance.
func (h *Handler) IssueToken(user *models.User) (string, time.Time, error) {
	expires := time.Now().Add(h.tokenTTL)
	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"user_id":               user.ID,
		comm.ClaimLogAttendance: user.CanLogAttendance,
		"exp":                   expires.Unix(),
	})
	return tokenString, expires, err
}

// withUser loads the account named by the token's user_id claim.
func (h *Handler) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			h.ErrorResponse(w, service.ErrInvalidCredentials)
			return
		}

		id, ok := claimID(claims["user_id"])
		if !ok {
			h.ErrorResponse(w, service.ErrInvalidCredentials)
			return
		}

		user, err := h.users.GetByID(r.Context(), id)
		if errors.Is(err, service.ErrNotFound) {
			h.ErrorResponse(w, service.ErrInvalidCredentials)
			return
		}
		if err != nil {
			h.ErrorResponse(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey, user)))
	})
}

func claimID(v interface{}) (int64, bool) {
	switch id := v.(type) {
	case float64:
		return int64(id), true
	case int64:
		return id, true
	case int:
		return int64(id), true
	case json.Number:
		n, err := id.Int64()
		return n, err == nil
	}
	return 0, false
}

func currentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userCtxKey).(*models.User)
	return user
}
