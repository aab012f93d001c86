package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/kriugm/kri-services/internal/eventsvc/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoster(t *testing.T, eligible ...models.Division) (*RosterService, *memStore, *models.University) {
	t.Helper()
	m := newMemStore()
	u := &models.University{Name: "Institut Teknologi Sepuluh Nopember", Eligible: map[models.Division]bool{}}
	for _, d := range eligible {
		u.Eligible[d] = true
	}
	_, err := m.CreateUniversity(context.Background(), u)
	require.NoError(t, err)
	return NewRosterService(m, m, m, policy.Default()), m, u
}

func TestCreateTeam_AccessAndDuplicate(t *testing.T) {
	s, _, u := newRoster(t, models.DivisionKRAI, models.DivisionKRSTI)
	ctx := context.Background()

	_, err := s.CreateTeam(ctx, u.ID, models.DivisionKRSBIBeroda, TeamInput{Name: "Beroda"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.ErrorIs(t, err, ErrPermission)
	assert.Equal(t, "Institut Teknologi Sepuluh Nopember tidak mengikuti KRSBI Beroda.", err.Error())

	team, err := s.CreateTeam(ctx, u.ID, models.DivisionKRSTI, TeamInput{Name: "  Sepuluh  "})
	require.NoError(t, err)
	assert.Equal(t, "Sepuluh", team.Name)

	_, err = s.CreateTeam(ctx, u.ID, models.DivisionKRSTI, TeamInput{Name: "Again"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateTeam)
	assert.ErrorIs(t, err, ErrDuplicate)
	var teamErr *TeamError
	require.True(t, errors.As(err, &teamErr))
	assert.Equal(t, models.DivisionKRSTI, teamErr.Division)
	assert.Equal(t, "Institut Teknologi Sepuluh Nopember sudah memiliki tim KRSTI.", err.Error())
}

func TestCreateTeam_PersAlwaysOpen(t *testing.T) {
	s, _, u := newRoster(t)

	team, err := s.CreateTeam(context.Background(), u.ID, models.DivisionPers, TeamInput{Name: "Pers ITS"})
	require.NoError(t, err)
	assert.Equal(t, models.DivisionPers, team.Division)
}

func TestCreateTeam_InvalidDivisionAndUnknownUniversity(t *testing.T) {
	s, _, u := newRoster(t, models.DivisionKRAI)
	ctx := context.Background()

	_, err := s.CreateTeam(ctx, u.ID, models.Division("sumo"), TeamInput{})
	assert.ErrorIs(t, err, ErrInvalidDivision)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.CreateTeam(ctx, 4242, models.DivisionKRAI, TeamInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePerson_FillsToCapacity(t *testing.T) {
	s, _, u := newRoster(t, models.DivisionKRAI)
	ctx := context.Background()
	team, err := s.CreateTeam(ctx, u.ID, models.DivisionKRAI, TeamInput{Name: "Robotika ITS"})
	require.NoError(t, err)

	limit := policy.Default().Capacity(models.DivisionKRAI, models.RoleCoreMember)
	for i := 0; i < limit; i++ {
		slots, err := s.AvailableSlots(ctx, team.ID, models.RoleCoreMember)
		require.NoError(t, err)
		assert.Equal(t, limit-i, slots)

		_, err = s.CreatePerson(ctx, team.ID, models.RoleCoreMember, PersonInput{Name: "Anggota"})
		require.NoError(t, err)
	}

	_, err = s.CreatePerson(ctx, team.ID, models.RoleCoreMember, PersonInput{Name: "Satu lagi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	var full *RosterFullError
	require.True(t, errors.As(err, &full))
	assert.Equal(t, "Tim Inti tim Robotika ITS sudah penuh.", err.Error())

	slots, err := s.AvailableSlots(ctx, team.ID, models.RoleCoreMember)
	require.NoError(t, err)
	assert.Equal(t, 0, slots)
}

func TestCreatePerson_ConcurrentNeverOvershoots(t *testing.T) {
	s, m, u := newRoster(t, models.DivisionKRSBIBeroda)
	ctx := context.Background()
	team, err := s.CreateTeam(ctx, u.ID, models.DivisionKRSBIBeroda, TeamInput{Name: "Beroda"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.CreatePerson(ctx, team.ID, models.RoleCoreMember, PersonInput{Name: "Anggota"})
		}()
	}
	wg.Wait()

	n, err := m.CountByRole(ctx, team.ID, models.RoleCoreMember)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestCreatePerson_SupporterHasNoSlot(t *testing.T) {
	s, _, u := newRoster(t, models.DivisionKRPAI)
	ctx := context.Background()
	team, err := s.CreateTeam(ctx, u.ID, models.DivisionKRPAI, TeamInput{Name: "Pemadam"})
	require.NoError(t, err)

	slots, err := s.AvailableSlots(ctx, team.ID, models.RoleSupporter)
	require.NoError(t, err)
	assert.Equal(t, 0, slots)

	_, err = s.CreatePerson(ctx, team.ID, models.RoleSupporter, PersonInput{Name: "Fans"})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestCreatePerson_Validation(t *testing.T) {
	s, _, u := newRoster(t, models.DivisionKRAI)
	ctx := context.Background()
	team, err := s.CreateTeam(ctx, u.ID, models.DivisionKRAI, TeamInput{Name: "Robotika"})
	require.NoError(t, err)

	_, err = s.CreatePerson(ctx, team.ID, models.Role("captain"), PersonInput{Name: "X"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = s.CreatePerson(ctx, team.ID, models.RoleAdviser, PersonInput{Name: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.CreatePerson(ctx, team.ID, models.RoleAdviser, PersonInput{Name: "Dosen", Gender: "X"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.CreatePerson(ctx, 999, models.RoleAdviser, PersonInput{Name: "Dosen"})
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := s.CreatePerson(ctx, team.ID, models.RoleAdviser, PersonInput{Name: "Dosen"})
	require.NoError(t, err)
	assert.Equal(t, models.GenderMale, p.Gender)
}

func TestTeamFor_Ownership(t *testing.T) {
	s, _, u := newRoster(t, models.DivisionKRAI)
	ctx := context.Background()
	team, err := s.CreateTeam(ctx, u.ID, models.DivisionKRAI, TeamInput{Name: "Robotika"})
	require.NoError(t, err)

	owner := &models.User{ID: 1, UniversityID: &u.ID}
	otherID := u.ID + 100
	stranger := &models.User{ID: 2, UniversityID: &otherID}
	staff := &models.User{ID: 3, CanVerifyOrders: true}

	_, err = s.TeamFor(ctx, owner, team.ID)
	assert.NoError(t, err)
	_, err = s.TeamFor(ctx, staff, team.ID)
	assert.NoError(t, err)
	_, err = s.TeamFor(ctx, stranger, team.ID)
	assert.ErrorIs(t, err, ErrPermission)
}

func TestOverview_Completeness(t *testing.T) {
	s, _, u := newRoster(t, models.DivisionKRAI)
	ctx := context.Background()
	arrival := time.Date(2017, 5, 19, 14, 0, 0, 0, time.UTC)

	overview, err := s.Overview(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, overview.Complete)
	assert.True(t, overview.Access[models.DivisionKRAI])
	assert.True(t, overview.Access[models.DivisionPers])
	assert.False(t, overview.Access[models.DivisionKRSTI])

	team, err := s.CreateTeam(ctx, u.ID, models.DivisionKRAI, TeamInput{Name: "Robotika", ArrivalTime: &arrival, Transport: "Kereta"})
	require.NoError(t, err)
	_, err = s.CreatePerson(ctx, team.ID, models.RoleCoreMember, PersonInput{Name: "Inti", Photo: "inti.jpg"})
	require.NoError(t, err)
	_, err = s.CreatePerson(ctx, team.ID, models.RoleAdviser, PersonInput{Name: "Dosen", Photo: "dosen.jpg"})
	require.NoError(t, err)

	overview, err = s.Overview(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, overview.Teams, 1)
	assert.True(t, overview.Teams[0].Complete)
	assert.True(t, overview.Complete)
}

func TestUpdateTeam_CompletesTeam(t *testing.T) {
	s, _, u := newRoster(t, models.DivisionKRAI)
	ctx := context.Background()
	arrival := time.Date(2017, 5, 19, 14, 0, 0, 0, time.UTC)

	team, err := s.CreateTeam(ctx, u.ID, models.DivisionKRAI, TeamInput{Name: "Robotika"})
	require.NoError(t, err)
	_, err = s.CreatePerson(ctx, team.ID, models.RoleCoreMember, PersonInput{Name: "Inti", Photo: "inti.jpg"})
	require.NoError(t, err)
	_, err = s.CreatePerson(ctx, team.ID, models.RoleAdviser, PersonInput{Name: "Dosen", Photo: "dosen.jpg"})
	require.NoError(t, err)

	overview, err := s.Overview(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, overview.Complete)

	updated, err := s.UpdateTeam(ctx, team.ID, TeamInput{Name: " Robotika ITS ", ArrivalTime: &arrival, Transport: "Kereta"})
	require.NoError(t, err)
	assert.Equal(t, "Robotika ITS", updated.Name)
	assert.Equal(t, models.DivisionKRAI, updated.Division)
	assert.Equal(t, u.ID, updated.UniversityID)

	overview, err = s.Overview(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, overview.Complete)

	_, err = s.UpdateTeam(ctx, 999, TeamInput{Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePerson_KeepsRole(t *testing.T) {
	s, _, u := newRoster(t, models.DivisionKRAI)
	ctx := context.Background()
	team, err := s.CreateTeam(ctx, u.ID, models.DivisionKRAI, TeamInput{Name: "Robotika"})
	require.NoError(t, err)
	other, err := s.CreateTeam(ctx, u.ID, models.DivisionPers, TeamInput{Name: "Pers"})
	require.NoError(t, err)

	p, err := s.CreatePerson(ctx, team.ID, models.RoleMechanics, PersonInput{Name: "Mekanik"})
	require.NoError(t, err)

	updated, err := s.UpdatePerson(ctx, team.ID, p.ID, PersonInput{Name: "Mekanik Satu", Gender: models.GenderFemale, Photo: "m1.jpg"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, models.RoleMechanics, updated.Role)
	assert.Equal(t, team.ID, updated.TeamID)
	assert.Equal(t, "m1.jpg", updated.Photo)
	assert.Equal(t, models.GenderFemale, updated.Gender)

	n, err := s.AvailableSlots(ctx, team.ID, models.RoleMechanics)
	require.NoError(t, err)
	assert.Equal(t, policy.Default().Capacity(models.DivisionKRAI, models.RoleMechanics)-1, n)

	_, err = s.UpdatePerson(ctx, other.ID, p.ID, PersonInput{Name: "Pindah"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdatePerson(ctx, team.ID, 999, PersonInput{Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdatePerson(ctx, team.ID, p.ID, PersonInput{Name: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.UpdatePerson(ctx, team.ID, p.ID, PersonInput{Name: "X", Gender: "W"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
