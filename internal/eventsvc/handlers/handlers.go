package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/kriugm/kri-services/internal/eventsvc/service"
	log "github.com/sirupsen/logrus"
)

type UserService interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetUniversity(ctx context.Context, id int64) (*models.University, error)
}

type CardService interface {
	Register(ctx context.Context, personID int64, key string) (*models.Card, error)
}

type AttendanceService interface {
	RecordScan(ctx context.Context, cardKey string, direction models.Direction, actor *models.User) (*models.AttendanceEntry, error)
	MostRecentBy(ctx context.Context, actorID int64) (*models.AttendanceEntry, error)
}

type RosterService interface {
	CreateTeam(ctx context.Context, universityID int64, division models.Division, in service.TeamInput) (*models.Team, error)
	CreatePerson(ctx context.Context, teamID int64, role models.Role, in service.PersonInput) (*models.Person, error)
	UpdateTeam(ctx context.Context, teamID int64, in service.TeamInput) (*models.Team, error)
	UpdatePerson(ctx context.Context, teamID, personID int64, in service.PersonInput) (*models.Person, error)
	AvailableSlots(ctx context.Context, teamID int64, role models.Role) (int, error)
	TeamFor(ctx context.Context, actor *models.User, teamID int64) (*models.Team, error)
	TeamDetail(ctx context.Context, team *models.Team) (*service.TeamDetail, error)
	Overview(ctx context.Context, universityID int64) (*service.UniversityOverview, error)
}

type TicketService interface {
	ScopeFor(ctx context.Context, user *models.User) (service.Scope, error)
	Summary(ctx context.Context, scope service.Scope) (*service.TicketSummary, error)
	PlaceOrder(ctx context.Context, scope service.Scope, amount int) (*models.TicketOrder, error)
	Verify(ctx context.Context, orderID int64, actor *models.User) (*models.TicketOrder, error)
}

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	tokenTTL  time.Duration

	users      UserService
	cards      CardService
	attendance AttendanceService
	roster     RosterService
	tickets    TicketService

	profileOnDenied bool
}

type Options struct {
	ProfileOnDenied bool
}

func NewHandler(users UserService, cards CardService, attendance AttendanceService,
	roster RosterService, tickets TicketService, opts Options) *Handler {
	return &Handler{
		users:           users,
		cards:           cards,
		attendance:      attendance,
		roster:          roster,
		tickets:         tickets,
		profileOnDenied: opts.ProfileOnDenied,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	writeJSON(w, rsp.Code, rsp)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Error encode response %s", err)
	}
}

// ErrorResponse maps service errors onto HTTP status codes.
func (h *Handler) ErrorResponse(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Errorf("request failed: %v", err)
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}

	h.CreateResponse(w, Response{
		Message: msg,
		Code:    code,
		Error:   http.StatusText(code),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCapacityExceeded), errors.Is(err, service.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("malformed request")

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "event service is running",
		Code:    http.StatusOK,
		Data:    map[string]string{"time": time.Now().Format(time.RFC3339)},
	})
}
