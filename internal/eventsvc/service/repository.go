package service

import (
	"context"
	"time"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
)

// The interfaces below are satisfied by the postgres stores in package store.
// Methods ending in Within run their admit callback inside the transaction
// that performs the insert.

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type UniversityRepository interface {
	CreateUniversity(ctx context.Context, u *models.University) (int64, error)
	GetUniversityByID(ctx context.Context, id int64) (*models.University, error)
}

type CardRepository interface {
	CreateCard(ctx context.Context, personID int64, key string) (*models.Card, error)
	GetCardByKey(ctx context.Context, key string) (*models.Card, error)
}

type AttendanceRepository interface {
	ScanCard(ctx context.Context, key string, scan func(card *models.Card) *models.AttendanceEntry) (*models.AttendanceEntry, error)
	LatestByStaff(ctx context.Context, staffID int64) (*models.AttendanceEntry, error)
}

type TeamRepository interface {
	CreateTeam(ctx context.Context, t *models.Team) (*models.Team, error)
	UpdateTeam(ctx context.Context, t *models.Team) (*models.Team, error)
	GetTeamByID(ctx context.Context, id int64) (*models.Team, error)
	GetTeamByDivision(ctx context.Context, universityID int64, d models.Division) (*models.Team, error)
	ListTeamsByUniversity(ctx context.Context, universityID int64) ([]*models.Team, error)
}

type PersonRepository interface {
	CreatePersonWithin(ctx context.Context, p *models.Person, admit func(current int) error) (*models.Person, error)
	GetPersonByID(ctx context.Context, id int64) (*models.Person, error)
	UpdatePerson(ctx context.Context, p *models.Person) (*models.Person, error)
	CountByRole(ctx context.Context, teamID int64, role models.Role) (int, error)
	ListByTeam(ctx context.Context, teamID int64) ([]*models.Person, error)
}

type TicketRepository interface {
	ConsumedTickets(ctx context.Context, userID int64, since time.Time) (global int, requester int, err error)
	CreateOrderWithin(ctx context.Context, o *models.TicketOrder, since time.Time, admit func(global, requester int) error) (*models.TicketOrder, error)
	VerifyOrder(ctx context.Context, id int64, at time.Time) (*models.TicketOrder, error)
	ListOrdersSince(ctx context.Context, userID int64, since time.Time) ([]*models.TicketOrder, error)
}

// ScanPublisher receives every recorded attendance entry after commit.
type ScanPublisher interface {
	PublishScan(entry *models.AttendanceEntry)
}
