package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/kriugm/kri-services/internal/eventsvc/service"
)

const (
	statusSuccess = "success"
	statusDenied  = "denied"
	statusFailed  = "failed"
)

// scanResponse is the body the card readers parse; keep its shape stable.
type scanResponse struct {
	Activity models.Direction `json:"activity"`
	Status   string           `json:"status"`
	Message  string           `json:"message"`
	Person   *scanPerson      `json:"person,omitempty"`
}

type scanPerson struct {
	Name       string      `json:"name"`
	Gender     string      `json:"gender"`
	Team       string      `json:"team"`
	Division   string      `json:"division"`
	Role       models.Role `json:"role"`
	University string      `json:"university"`
	Photo      string      `json:"photo,omitempty"`
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	h.scan(w, r, models.DirectionLogin)
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.scan(w, r, models.DirectionLogout)
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request, d models.Direction) {
	rsp := scanResponse{Activity: d, Status: statusFailed}

	key := strings.TrimSpace(r.FormValue("card_key"))
	if key == "" {
		rsp.Message = "Card key is required."
		writeJSON(w, http.StatusBadRequest, rsp)
		return
	}

	entry, err := h.attendance.RecordScan(r.Context(), key, d, currentUser(r))
	switch {
	case errors.Is(err, service.ErrNotFound):
		rsp.Message = "Card not recognized."
		writeJSON(w, http.StatusOK, rsp)
		return
	case errors.Is(err, service.ErrPermission):
		rsp.Message = "Permission denied."
		writeJSON(w, http.StatusForbidden, rsp)
		return
	case err != nil:
		h.ErrorResponse(w, err)
		return
	}

	verb := strings.ToUpper(string(d[:1])) + string(d[1:])
	if entry.Activity.Granted() {
		rsp.Status = statusSuccess
		rsp.Message = verb + " granted."
	} else {
		rsp.Status = statusDenied
		rsp.Message = verb + " denied."
	}
	if entry.Activity.Granted() || h.profileOnDenied {
		rsp.Person = toScanPerson(entry.Holder)
	}

	writeJSON(w, http.StatusOK, rsp)
}

func toScanPerson(p *models.Profile) *scanPerson {
	if p == nil {
		return nil
	}
	return &scanPerson{
		Name:       p.Name,
		Gender:     p.Gender,
		Team:       p.Team,
		Division:   p.Division.Display(),
		Role:       p.Role,
		University: p.University,
		Photo:      p.Photo,
	}
}

type logResponse struct {
	Status models.Activity `json:"status"`
	Time   time.Time       `json:"time"`
	Person logPerson       `json:"person"`
}

type logPerson struct {
	Name       string  `json:"name"`
	Team       string  `json:"team"`
	Division   string  `json:"division"`
	University string  `json:"university"`
	Photo      *string `json:"photo"`
}

// FetchLogHandler returns the caller's latest scan, or 204 when there is none.
func (h *Handler) FetchLogHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	entry, err := h.attendance.MostRecentBy(r.Context(), user.ID)
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}
	if entry == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	rsp := logResponse{Status: entry.Activity, Time: entry.CreatedAt}
	if p := entry.Holder; p != nil {
		rsp.Person = logPerson{
			Name:       p.Name,
			Team:       p.Team,
			Division:   p.Division.Display(),
			University: p.University,
		}
		if p.Photo != "" {
			photo := p.Photo
			rsp.Person.Photo = &photo
		}
	}

	writeJSON(w, http.StatusOK, rsp)
}
