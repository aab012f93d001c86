package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gate = &models.User{ID: 900, Username: "gate-1", CanLogAttendance: true}

func newAttendance(m *memStore) (*AttendanceService, *recordingPublisher) {
	pub := &recordingPublisher{}
	s := NewAttendanceService(m, pub)
	clock := time.Date(2017, 5, 20, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s, pub
}

func TestRecordScan_LoginTwice(t *testing.T) {
	m := newMemStore()
	seedCard(t, m, "04A1B2C3")
	s, pub := newAttendance(m)
	ctx := context.Background()

	first, err := s.RecordScan(ctx, "04A1B2C3", models.DirectionLogin, gate)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityLoginGranted, first.Activity)

	second, err := s.RecordScan(ctx, "04A1B2C3", models.DirectionLogin, gate)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityLoginDenied, second.Activity)

	assert.Len(t, m.entries, 2)
	assert.Len(t, pub.entries, 2)
	assert.True(t, m.cards["04A1B2C3"].IsPresent())
}

func TestRecordScan_LogoutFreshCardDenied(t *testing.T) {
	m := newMemStore()
	seedCard(t, m, "CARD-1")
	s, _ := newAttendance(m)

	entry, err := s.RecordScan(context.Background(), "CARD-1", models.DirectionLogout, gate)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityLogoutDenied, entry.Activity)
	assert.Nil(t, m.cards["CARD-1"].LastLogout)
	assert.Len(t, m.entries, 1)
}

func TestRecordScan_RoundTrip(t *testing.T) {
	m := newMemStore()
	seedCard(t, m, "CARD-1")
	s, _ := newAttendance(m)
	ctx := context.Background()

	for _, tc := range []struct {
		dir  models.Direction
		want models.Activity
	}{
		{models.DirectionLogin, models.ActivityLoginGranted},
		{models.DirectionLogout, models.ActivityLogoutGranted},
		{models.DirectionLogout, models.ActivityLogoutDenied},
		{models.DirectionLogin, models.ActivityLoginGranted},
	} {
		entry, err := s.RecordScan(ctx, "CARD-1", tc.dir, gate)
		require.NoError(t, err)
		assert.Equal(t, tc.want, entry.Activity)
	}
	assert.True(t, m.cards["CARD-1"].IsPresent())
}

func TestRecordScan_UnknownKey(t *testing.T) {
	m := newMemStore()
	s, pub := newAttendance(m)

	entry, err := s.RecordScan(context.Background(), "nope", models.DirectionLogin, gate)
	assert.Nil(t, entry)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, m.entries)
	assert.Empty(t, pub.entries)
}

func TestRecordScan_RequiresPermission(t *testing.T) {
	m := newMemStore()
	seedCard(t, m, "CARD-1")
	s, _ := newAttendance(m)
	ctx := context.Background()

	_, err := s.RecordScan(ctx, "CARD-1", models.DirectionLogin, &models.User{ID: 1, Username: "ugm"})
	assert.ErrorIs(t, err, ErrPermission)

	_, err = s.RecordScan(ctx, "CARD-1", models.DirectionLogin, nil)
	assert.ErrorIs(t, err, ErrPermission)
	assert.Empty(t, m.entries)
}

func TestRecordScan_InvalidDirection(t *testing.T) {
	m := newMemStore()
	seedCard(t, m, "CARD-1")
	s, _ := newAttendance(m)

	_, err := s.RecordScan(context.Background(), "CARD-1", models.Direction("sideways"), gate)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMostRecentBy(t *testing.T) {
	m := newMemStore()
	seedCard(t, m, "CARD-1")
	seedCard(t, m, "CARD-2")
	s, _ := newAttendance(m)
	ctx := context.Background()
	other := &models.User{ID: 901, Username: "gate-2", CanLogAttendance: true}

	latest, err := s.MostRecentBy(ctx, gate.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = s.RecordScan(ctx, "CARD-1", models.DirectionLogin, gate)
	require.NoError(t, err)
	want, err := s.RecordScan(ctx, "CARD-2", models.DirectionLogin, gate)
	require.NoError(t, err)
	_, err = s.RecordScan(ctx, "CARD-1", models.DirectionLogout, other)
	require.NoError(t, err)

	latest, err = s.MostRecentBy(ctx, gate.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, want.ID, latest.ID)
	assert.Equal(t, models.ActivityLoginGranted, latest.Activity)
}

func TestCardRegister(t *testing.T) {
	m := newMemStore()
	existing := seedCard(t, m, "CARD-1")
	s := NewCardService(m)
	ctx := context.Background()

	_, err := s.Register(ctx, existing.PersonID, "CARD-2")
	assert.ErrorIs(t, err, ErrDuplicateCard)
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.Register(ctx, existing.PersonID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Register(ctx, 12345, "CARD-3")
	assert.ErrorIs(t, err, ErrNotFound)

	card, err := s.GetCardByKey(ctx, "CARD-1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, card.ID)
	assert.False(t, card.IsPresent())
}
