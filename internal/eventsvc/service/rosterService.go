package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/kriugm/kri-services/internal/eventsvc/policy"
	log "github.com/sirupsen/logrus"
)

// RosterService registers teams and their members within the policy's
// per-division ceilings.
type RosterService struct {
	universities UniversityRepository
	teams        TeamRepository
	persons      PersonRepository
	policy       policy.Policy
}

func NewRosterService(universities UniversityRepository, teams TeamRepository, persons PersonRepository, p policy.Policy) *RosterService {
	return &RosterService{
		universities: universities,
		teams:        teams,
		persons:      persons,
		policy:       p,
	}
}

// TeamInput holds the editable team fields.
type TeamInput struct {
	Name        string
	ArrivalTime *time.Time
	Transport   string
}

// PersonInput holds the editable person fields.
type PersonInput struct {
	Name       string
	InstanceID string
	Birthday   *time.Time
	Gender     string
	Phone      string
	Email      string
	Photo      string
}

// CreateTeam registers the university's team for a division. A university
// needs the division's eligibility flag and may field one team per division.
func (s *RosterService) CreateTeam(ctx context.Context, universityID int64, division models.Division, in TeamInput) (*models.Team, error) {
	if !division.Valid() {
		return nil, fmt.Errorf("%q: %w", division, ErrInvalidDivision)
	}

	university, err := s.universities.GetUniversityByID(ctx, universityID)
	if err != nil {
		return nil, err
	}

	if !university.HasAccess(division) {
		return nil, &TeamError{University: university.Name, Division: division, Err: ErrAccessDenied}
	}

	existing, err := s.teams.GetTeamByDivision(ctx, universityID, division)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &TeamError{University: university.Name, Division: division, Err: ErrDuplicateTeam}
	}

	team, err := s.teams.CreateTeam(ctx, &models.Team{
		UniversityID: universityID,
		Division:     division,
		Name:         strings.TrimSpace(in.Name),
		ArrivalTime:  in.ArrivalTime,
		Transport:    strings.TrimSpace(in.Transport),
	})
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, ErrDuplicate) {
			return nil, &TeamError{University: university.Name, Division: division, Err: ErrDuplicateTeam}
		}
		return nil, err
	}

	log.Infof("team %d registered for %s in %s", team.ID, university.Name, division)
	return team, nil
}

// CreatePerson adds a member to a team when the role still has a free slot.
func (s *RosterService) CreatePerson(ctx context.Context, teamID int64, role models.Role, in PersonInput) (*models.Person, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%q: %w", role, ErrInvalidRole)
	}
	name, gender, err := in.validate()
	if err != nil {
		return nil, err
	}

	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	capacity := s.policy.Capacity(team.Division, role)

	person := &models.Person{
		TeamID:     team.ID,
		Role:       role,
		Name:       name,
		InstanceID: in.InstanceID,
		Birthday:   in.Birthday,
		Gender:     gender,
		Phone:      in.Phone,
		Email:      in.Email,
		Photo:      in.Photo,
	}

	return s.persons.CreatePersonWithin(ctx, person, func(current int) error {
		if current >= capacity {
			return &RosterFullError{Role: role, Team: team.Name}
		}
		return nil
	})
}

// UpdateTeam saves new team details. Division and university stay fixed.
func (s *RosterService) UpdateTeam(ctx context.Context, teamID int64, in TeamInput) (*models.Team, error) {
	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	updated := *team
	updated.Name = strings.TrimSpace(in.Name)
	updated.ArrivalTime = in.ArrivalTime
	updated.Transport = strings.TrimSpace(in.Transport)

	saved, err := s.teams.UpdateTeam(ctx, &updated)
	if err != nil {
		return nil, err
	}

	log.Infof("team %d updated", saved.ID)
	return saved, nil
}

// UpdatePerson saves new details for a member of teamID. The role is kept,
// so an edit never takes a roster slot.
func (s *RosterService) UpdatePerson(ctx context.Context, teamID, personID int64, in PersonInput) (*models.Person, error) {
	name, gender, err := in.validate()
	if err != nil {
		return nil, err
	}

	person, err := s.persons.GetPersonByID(ctx, personID)
	if err != nil {
		return nil, err
	}
	if person.TeamID != teamID {
		return nil, fmt.Errorf("person %d in team %d: %w", personID, teamID, ErrNotFound)
	}

	updated := *person
	updated.Name = name
	updated.InstanceID = in.InstanceID
	updated.Birthday = in.Birthday
	updated.Gender = gender
	updated.Phone = in.Phone
	updated.Email = in.Email
	updated.Photo = in.Photo

	saved, err := s.persons.UpdatePerson(ctx, &updated)
	if err != nil {
		return nil, err
	}

	log.Infof("person %d of team %d updated", saved.ID, teamID)
	return saved, nil
}

func (in PersonInput) validate() (name, gender string, err error) {
	name = strings.TrimSpace(in.Name)
	if name == "" {
		return "", "", fmt.Errorf("person name is empty: %w", ErrInvalidInput)
	}
	gender = in.Gender
	if gender == "" {
		gender = models.GenderMale
	}
	if gender != models.GenderMale && gender != models.GenderFemale {
		return "", "", fmt.Errorf("gender %q: %w", in.Gender, ErrInvalidInput)
	}
	return name, gender, nil
}

// AvailableSlots returns how many more persons of role the team can take.
func (s *RosterService) AvailableSlots(ctx context.Context, teamID int64, role models.Role) (int, error) {
	if !role.Valid() {
		return 0, fmt.Errorf("%q: %w", role, ErrInvalidRole)
	}

	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return 0, err
	}

	current, err := s.persons.CountByRole(ctx, teamID, role)
	if err != nil {
		return 0, err
	}

	slots := s.policy.Capacity(team.Division, role) - current
	if slots < 0 {
		slots = 0
	}
	return slots, nil
}

// TeamFor loads a team on behalf of actor. University accounts only see
// their own teams; staff see every team.
func (s *RosterService) TeamFor(ctx context.Context, actor *models.User, teamID int64) (*models.Team, error) {
	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if actor.Staff() {
		return team, nil
	}
	if actor.UniversityID == nil || *actor.UniversityID != team.UniversityID {
		return nil, ErrPermission
	}
	return team, nil
}

// TeamDetail is a team with its members and completeness.
type TeamDetail struct {
	Team     *models.Team     `json:"team"`
	Persons  []*models.Person `json:"persons"`
	Complete bool             `json:"complete"`
}

func (s *RosterService) TeamDetail(ctx context.Context, team *models.Team) (*TeamDetail, error) {
	persons, err := s.persons.ListByTeam(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	return &TeamDetail{
		Team:     team,
		Persons:  persons,
		Complete: team.IsComplete(persons),
	}, nil
}

// UniversityOverview is the registration state of one university.
type UniversityOverview struct {
	University *models.University       `json:"university"`
	Access     map[models.Division]bool `json:"access"`
	Teams      []*TeamDetail            `json:"teams"`
	Complete   bool                     `json:"complete"`
}

func (s *RosterService) Overview(ctx context.Context, universityID int64) (*UniversityOverview, error) {
	university, err := s.universities.GetUniversityByID(ctx, universityID)
	if err != nil {
		return nil, err
	}

	teams, err := s.teams.ListTeamsByUniversity(ctx, universityID)
	if err != nil {
		return nil, err
	}

	overview := &UniversityOverview{
		University: university,
		Access:     university.AllAccess(),
		Teams:      make([]*TeamDetail, 0, len(teams)),
	}
	persons := make(map[int64][]*models.Person, len(teams))
	for _, t := range teams {
		detail, err := s.TeamDetail(ctx, t)
		if err != nil {
			return nil, err
		}
		persons[t.ID] = detail.Persons
		overview.Teams = append(overview.Teams, detail)
	}
	overview.Complete = university.IsComplete(teams, persons)

	return overview, nil
}
