package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/kriugm/kri-services/internal/eventsvc/service"
)

const dateLayout = "2006-01-02"

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad %s", errBadRequest, name)
	}
	return id, nil
}

type cardRequest struct {
	PersonID int64  `json:"person_id"`
	Key      string `json:"key"`
}

// RegisterCardHandler binds a card to a person. Staff only.
func (h *Handler) RegisterCardHandler(w http.ResponseWriter, r *http.Request) {
	if !currentUser(r).Staff() {
		h.ErrorResponse(w, service.ErrPermission)
		return
	}

	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ErrorResponse(w, err)
		return
	}

	card, err := h.cards.Register(r.Context(), req.PersonID, req.Key)
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "card registered",
		Code:    http.StatusCreated,
		Data:    card,
	})
}

// MyUniversityHandler returns the caller's university with its division
// access and registration progress.
func (h *Handler) MyUniversityHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user.UniversityID == nil {
		h.ErrorResponse(w, service.ErrPermission)
		return
	}

	overview, err := h.roster.Overview(r.Context(), *user.UniversityID)
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: overview.University.Name,
		Code:    http.StatusOK,
		Data:    overview,
	})
}

type teamRequest struct {
	UniversityID int64      `json:"university_id,omitempty"` // staff only
	Division     string     `json:"division"`
	Name         string     `json:"name"`
	ArrivalTime  *time.Time `json:"arrival_time,omitempty"`
	Transport    string     `json:"transport"`
}

func (h *Handler) CreateTeamHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req teamRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ErrorResponse(w, err)
		return
	}

	var universityID int64
	switch {
	case user.UniversityID != nil:
		universityID = *user.UniversityID
	case user.Staff() && req.UniversityID > 0:
		universityID = req.UniversityID
	default:
		h.ErrorResponse(w, service.ErrPermission)
		return
	}

	team, err := h.roster.CreateTeam(r.Context(), universityID, models.Division(req.Division), service.TeamInput{
		Name:        req.Name,
		ArrivalTime: req.ArrivalTime,
		Transport:   req.Transport,
	})
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "Informasi tim telah disimpan.",
		Code:    http.StatusCreated,
		Data:    team,
	})
}

// UpdateTeamHandler saves team details. Division is fixed, so it is ignored.
func (h *Handler) UpdateTeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamID")
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	var req teamRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ErrorResponse(w, err)
		return
	}

	if _, err := h.roster.TeamFor(r.Context(), currentUser(r), teamID); err != nil {
		h.ErrorResponse(w, err)
		return
	}

	team, err := h.roster.UpdateTeam(r.Context(), teamID, service.TeamInput{
		Name:        req.Name,
		ArrivalTime: req.ArrivalTime,
		Transport:   req.Transport,
	})
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "Informasi tim telah disimpan.",
		Code:    http.StatusOK,
		Data:    team,
	})
}

func (h *Handler) TeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamID")
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	team, err := h.roster.TeamFor(r.Context(), currentUser(r), teamID)
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	detail, err := h.roster.TeamDetail(r.Context(), team)
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: team.Name,
		Code:    http.StatusOK,
		Data:    detail,
	})
}

func (h *Handler) SlotsHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamID")
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	if _, err := h.roster.TeamFor(r.Context(), currentUser(r), teamID); err != nil {
		h.ErrorResponse(w, err)
		return
	}

	role := models.Role(chi.URLParam(r, "role"))
	slots, err := h.roster.AvailableSlots(r.Context(), teamID, role)
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: role.Display(),
		Code:    http.StatusOK,
		Data:    map[string]interface{}{"role": role, "available": slots},
	})
}

type personRequest struct {
	Role       string `json:"role"`
	Name       string `json:"name"`
	InstanceID string `json:"instance_id"`
	Birthday   string `json:"birthday"` // YYYY-MM-DD
	Gender     string `json:"gender"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Photo      string `json:"photo"`
}

func (h *Handler) CreatePersonHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamID")
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	var req personRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ErrorResponse(w, err)
		return
	}

	in, err := req.input()
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	if _, err := h.roster.TeamFor(r.Context(), currentUser(r), teamID); err != nil {
		h.ErrorResponse(w, err)
		return
	}

	role := models.Role(req.Role)
	person, err := h.roster.CreatePerson(r.Context(), teamID, role, in)
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: role.Display() + " berhasil ditambahkan.",
		Code:    http.StatusCreated,
		Data:    person,
	})
}

// UpdatePersonHandler saves a member's details. The role in the body is
// ignored, a member keeps the slot they were admitted to.
func (h *Handler) UpdatePersonHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamID")
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}
	personID, err := pathID(r, "personID")
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	var req personRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ErrorResponse(w, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	if _, err := h.roster.TeamFor(r.Context(), currentUser(r), teamID); err != nil {
		h.ErrorResponse(w, err)
		return
	}

	person, err := h.roster.UpdatePerson(r.Context(), teamID, personID, in)
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: person.Role.Display() + " berhasil diubah.",
		Code:    http.StatusOK,
		Data:    person,
	})
}

func (req personRequest) input() (service.PersonInput, error) {
	in := service.PersonInput{
		Name:       req.Name,
		InstanceID: req.InstanceID,
		Gender:     req.Gender,
		Phone:      req.Phone,
		Email:      req.Email,
		Photo:      req.Photo,
	}
	if req.Birthday != "" {
		birthday, err := time.Parse(dateLayout, req.Birthday)
		if err != nil {
			return in, fmt.Errorf("%w: birthday", errBadRequest)
		}
		in.Birthday = &birthday
	}
	return in, nil
}
