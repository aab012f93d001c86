package service

import (
	"context"
	"testing"
	"time"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/kriugm/kri-services/internal/eventsvc/policy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ticketClock = time.Date(2017, 5, 10, 12, 0, 0, 0, time.UTC)

func newTickets(t *testing.T) (*TicketService, *memStore) {
	t.Helper()
	m := newMemStore()
	s := NewTicketService(m, m, policy.Default())
	s.now = func() time.Time { return ticketClock }
	return s, m
}

func requester(t *testing.T, s *TicketService, m *memStore, name string) Scope {
	t.Helper()
	ctx := context.Background()
	u := &models.University{Name: name, Eligible: map[models.Division]bool{}}
	_, err := m.CreateUniversity(ctx, u)
	require.NoError(t, err)
	user := &models.User{Username: name, UniversityID: &u.ID}
	_, err = m.CreateUser(ctx, user)
	require.NoError(t, err)

	scope, err := s.ScopeFor(ctx, user)
	require.NoError(t, err)
	return scope
}

func TestPlaceOrder_DefaultCap(t *testing.T) {
	s, m := newTickets(t)
	ctx := context.Background()
	scope := requester(t, s, m, "Politeknik Negeri Jakarta")

	order, err := s.PlaceOrder(ctx, scope, 30)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.True(t, decimal.NewFromInt(750000).Equal(order.Price))

	remaining, err := s.TicketsRemaining(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 10, remaining)

	rejected, err := s.PlaceOrder(ctx, scope, 90)
	require.NoError(t, err)
	assert.Nil(t, rejected)
	assert.Len(t, m.orders, 1)

	remaining, err = s.TicketsRemaining(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 10, remaining)

	global, err := s.TicketsRemaining(ctx, GlobalScope())
	require.NoError(t, err)
	assert.Equal(t, 570, global)

	ordered, err := s.OrderedCount(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 30, ordered)
}

func TestPlaceOrder_PrivilegedCap(t *testing.T) {
	s, m := newTickets(t)
	ctx := context.Background()
	scope := requester(t, s, m, policy.DefaultPrivilegedName)

	order, err := s.PlaceOrder(ctx, scope, 90)
	require.NoError(t, err)
	require.NotNil(t, order)

	remaining, err := s.TicketsRemaining(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 10, remaining)
}

func TestPlaceOrder_GlobalScarcityBinds(t *testing.T) {
	s, m := newTickets(t)
	ctx := context.Background()
	scope := requester(t, s, m, "Universitas Indonesia")

	// someone else takes all but 25 tickets
	m.orders = append(m.orders, &models.TicketOrder{ID: 1000, UserID: 777, Amount: 575, OrderTime: ticketClock})

	remaining, err := s.TicketsRemaining(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 25, remaining)

	rejected, err := s.PlaceOrder(ctx, scope, 30)
	require.NoError(t, err)
	assert.Nil(t, rejected)

	order, err := s.PlaceOrder(ctx, scope, 25)
	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestPlaceOrder_InvalidAmountAndScope(t *testing.T) {
	s, m := newTickets(t)
	ctx := context.Background()
	scope := requester(t, s, m, "Universitas Brawijaya")

	_, err := s.PlaceOrder(ctx, scope, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = s.PlaceOrder(ctx, GlobalScope(), 5)
	assert.ErrorIs(t, err, ErrPermission)

	_, err = s.ScopeFor(ctx, &models.User{ID: 5, Username: "staff", CanVerifyOrders: true})
	assert.ErrorIs(t, err, ErrPermission)
}

func TestTickets_ExpiryAndVerify(t *testing.T) {
	s, m := newTickets(t)
	ctx := context.Background()
	scope := requester(t, s, m, "Universitas Diponegoro")
	cashier := &models.User{ID: 99, Username: "kasir", CanVerifyOrders: true}

	order, err := s.PlaceOrder(ctx, scope, 20)
	require.NoError(t, err)
	require.NotNil(t, order)

	due, err := s.AmountDue(ctx, scope)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500000).Equal(due))

	// two days later the unpaid order no longer holds inventory
	s.now = func() time.Time { return ticketClock.Add(48 * time.Hour) }
	remaining, err := s.TicketsRemaining(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 40, remaining)
	due, err = s.AmountDue(ctx, scope)
	require.NoError(t, err)
	assert.True(t, due.IsZero())

	_, err = s.Verify(ctx, order.ID, &models.User{ID: 98, Username: "gate", CanLogAttendance: true})
	assert.ErrorIs(t, err, ErrPermission)

	verified, err := s.Verify(ctx, order.ID, cashier)
	require.NoError(t, err)
	assert.True(t, verified.Verified())
	assert.Equal(t, verified.VerificationTime, verified.VerifiedTime)

	firstVerified := *verified.VerifiedTime

	s.now = func() time.Time { return ticketClock.Add(30 * 24 * time.Hour) }
	remaining, err = s.TicketsRemaining(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 20, remaining)

	// verifying again keeps the original payment time
	again, err := s.Verify(ctx, order.ID, cashier)
	require.NoError(t, err)
	assert.True(t, firstVerified.Equal(*again.VerifiedTime))
	assert.True(t, firstVerified.Equal(*again.VerificationTime))

	_, err = s.Verify(ctx, 4040, cashier)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTickets_VerifiedNotDue(t *testing.T) {
	s, m := newTickets(t)
	ctx := context.Background()
	scope := requester(t, s, m, "Universitas Telkom")
	cashier := &models.User{ID: 99, Username: "kasir", CanVerifyOrders: true}

	paid, err := s.PlaceOrder(ctx, scope, 4)
	require.NoError(t, err)
	_, err = s.PlaceOrder(ctx, scope, 6)
	require.NoError(t, err)
	_, err = s.Verify(ctx, paid.ID, cashier)
	require.NoError(t, err)

	summary, err := s.Summary(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 40, summary.Cap)
	assert.Equal(t, 30, summary.Remaining)
	assert.Equal(t, 10, summary.Ordered)
	assert.Equal(t, 590, summary.Global)
	assert.True(t, decimal.NewFromInt(150000).Equal(summary.AmountDue))
}
