package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/kriugm/kri-services/internal/eventsvc/store"
)

// memStore is an in-memory stand-in for the postgres stores.
type memStore struct {
	mu           sync.Mutex
	seq          int64
	users        map[int64]*models.User
	universities map[int64]*models.University
	teams        map[int64]*models.Team
	persons      map[int64]*models.Person
	cards        map[string]*models.Card
	entries      []*models.AttendanceEntry
	orders       []*models.TicketOrder
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[int64]*models.User{},
		universities: map[int64]*models.University{},
		teams:        map[int64]*models.Team{},
		persons:      map[int64]*models.Person{},
		cards:        map[string]*models.Card{},
	}
}

func (m *memStore) next() int64 {
	m.seq++
	return m.seq
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, store.ErrNotFound)
}

func (m *memStore) CreateUser(_ context.Context, u *models.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return 0, fmt.Errorf("create user: %w", store.ErrDuplicate)
		}
	}
	u.ID = m.next()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, notFound("get user")
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, notFound("get user by username")
}

func (m *memStore) CreateUniversity(_ context.Context, u *models.University) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.next()
	m.universities[u.ID] = u
	return u.ID, nil
}

func (m *memStore) GetUniversityByID(_ context.Context, id int64) (*models.University, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.universities[id]; ok {
		return u, nil
	}
	return nil, notFound("get university")
}

func (m *memStore) CreateTeam(_ context.Context, t *models.Team) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.teams {
		if existing.UniversityID == t.UniversityID && existing.Division == t.Division {
			return nil, fmt.Errorf("create team: %w", store.ErrDuplicate)
		}
	}
	t.ID = m.next()
	m.teams[t.ID] = t
	return t, nil
}

func (m *memStore) GetTeamByID(_ context.Context, id int64) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.teams[id]; ok {
		return t, nil
	}
	return nil, notFound("get team")
}

func (m *memStore) UpdateTeam(_ context.Context, t *models.Team) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.teams[t.ID]
	if !ok {
		return nil, notFound("update team")
	}
	updated := *existing
	updated.Name, updated.ArrivalTime, updated.Transport = t.Name, t.ArrivalTime, t.Transport
	m.teams[t.ID] = &updated
	return &updated, nil
}

func (m *memStore) GetTeamByDivision(_ context.Context, universityID int64, d models.Division) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.UniversityID == universityID && t.Division == d {
			return t, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListTeamsByUniversity(_ context.Context, universityID int64) ([]*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var teams []*models.Team
	for _, t := range m.teams {
		if t.UniversityID == universityID {
			teams = append(teams, t)
		}
	}
	return teams, nil
}

func (m *memStore) countByRole(teamID int64, role models.Role) int {
	n := 0
	for _, p := range m.persons {
		if p.TeamID == teamID && p.Role == role {
			n++
		}
	}
	return n
}

func (m *memStore) CreatePersonWithin(_ context.Context, p *models.Person, admit func(current int) error) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[p.TeamID]; !ok {
		return nil, notFound("lock team")
	}
	if err := admit(m.countByRole(p.TeamID, p.Role)); err != nil {
		return nil, err
	}
	p.ID = m.next()
	m.persons[p.ID] = p
	return p, nil
}

func (m *memStore) GetPersonByID(_ context.Context, id int64) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.persons[id]; ok {
		return p, nil
	}
	return nil, notFound("get person")
}

func (m *memStore) UpdatePerson(_ context.Context, p *models.Person) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.persons[p.ID]
	if !ok {
		return nil, notFound("update person")
	}
	updated := *p
	updated.TeamID, updated.Role, updated.CreatedAt = existing.TeamID, existing.Role, existing.CreatedAt
	m.persons[p.ID] = &updated
	return &updated, nil
}

func (m *memStore) CountByRole(_ context.Context, teamID int64, role models.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countByRole(teamID, role), nil
}

func (m *memStore) ListByTeam(_ context.Context, teamID int64) ([]*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var persons []*models.Person
	for _, p := range m.persons {
		if p.TeamID == teamID {
			persons = append(persons, p)
		}
	}
	return persons, nil
}

func (m *memStore) CreateCard(_ context.Context, personID int64, key string) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.persons[personID]; !ok {
		return nil, notFound("create card")
	}
	if _, ok := m.cards[key]; ok {
		return nil, fmt.Errorf("create card: %w", store.ErrDuplicate)
	}
	for _, c := range m.cards {
		if c.PersonID == personID {
			return nil, fmt.Errorf("create card: %w", store.ErrDuplicate)
		}
	}
	c := &models.Card{ID: m.next(), PersonID: personID, Key: key, RegisterTime: time.Now()}
	m.cards[key] = c
	return c, nil
}

func (m *memStore) GetCardByKey(_ context.Context, key string) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cards[key]; ok {
		return c, nil
	}
	return nil, notFound("get card")
}

func (m *memStore) ScanCard(_ context.Context, key string, scan func(card *models.Card) *models.AttendanceEntry) (*models.AttendanceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.cards[key]
	if !ok {
		return nil, notFound("lock card")
	}
	card := *stored
	entry := scan(&card)
	if entry.Activity.Granted() {
		*stored = card
	}
	entry.ID = m.next()
	entry.CardID = card.ID
	if p, ok := m.persons[card.PersonID]; ok {
		entry.Holder = &models.Profile{Name: p.Name, Gender: p.Gender, Role: p.Role, Photo: p.Photo}
	}
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *memStore) LatestByStaff(_ context.Context, staffID int64) (*models.AttendanceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].StaffID == staffID {
			return m.entries[i], nil
		}
	}
	return nil, nil
}

func (m *memStore) consumed(userID int64, since time.Time) (int, int) {
	var global, requester int
	for _, o := range m.orders {
		if o.Verified() || !o.OrderTime.Before(since) {
			global += o.Amount
			if o.UserID == userID {
				requester += o.Amount
			}
		}
	}
	return global, requester
}

func (m *memStore) ConsumedTickets(_ context.Context, userID int64, since time.Time) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	global, requester := m.consumed(userID, since)
	return global, requester, nil
}

func (m *memStore) CreateOrderWithin(_ context.Context, o *models.TicketOrder, since time.Time, admit func(global, requester int) error) (*models.TicketOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := admit(m.consumed(o.UserID, since)); err != nil {
		return nil, err
	}
	o.ID = m.next()
	m.orders = append(m.orders, o)
	return o, nil
}

func (m *memStore) VerifyOrder(_ context.Context, id int64, at time.Time) (*models.TicketOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			if o.VerificationTime == nil {
				o.VerificationTime = &at
			}
			if o.VerifiedTime == nil {
				o.VerifiedTime = &at
			}
			return o, nil
		}
	}
	return nil, notFound("verify ticket order")
}

func (m *memStore) ListOrdersSince(_ context.Context, userID int64, since time.Time) ([]*models.TicketOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []*models.TicketOrder
	for _, o := range m.orders {
		if o.UserID == userID && !o.OrderTime.Before(since) {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

type recordingPublisher struct {
	entries []*models.AttendanceEntry
}

func (p *recordingPublisher) PublishScan(entry *models.AttendanceEntry) {
	p.entries = append(p.entries, entry)
}

// seedCard registers a university, a krai team, one core member and a card.
func seedCard(t interface{ Fatalf(string, ...any) }, m *memStore, key string) *models.Card {
	ctx := context.Background()
	u := &models.University{Name: "Universitas Gadjah Mada", Eligible: map[models.Division]bool{models.DivisionKRAI: true}}
	if _, err := m.CreateUniversity(ctx, u); err != nil {
		t.Fatalf("seed university: %v", err)
	}
	team, err := m.CreateTeam(ctx, &models.Team{UniversityID: u.ID, Division: models.DivisionKRAI, Name: "Gamaforce"})
	if err != nil {
		t.Fatalf("seed team: %v", err)
	}
	p, err := m.CreatePersonWithin(ctx, &models.Person{TeamID: team.ID, Role: models.RoleCoreMember, Name: "Budi"}, func(int) error { return nil })
	if err != nil {
		t.Fatalf("seed person: %v", err)
	}
	c, err := m.CreateCard(ctx, p.ID, key)
	if err != nil {
		t.Fatalf("seed card: %v", err)
	}
	return c
}
