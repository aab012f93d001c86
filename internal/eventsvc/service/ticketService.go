package service

import (
	"context"
	"errors"
	"time"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/kriugm/kri-services/internal/eventsvc/policy"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Scope selects whose inventory a ticket query looks at. The zero value is
// the global pool.
type Scope struct {
	UserID     int64
	University string
}

func GlobalScope() Scope { return Scope{} }

func (s Scope) Global() bool { return s.UserID == 0 }

type TicketService struct {
	tickets      TicketRepository
	universities UniversityRepository
	policy       policy.Policy
	now          func() time.Time
}

func NewTicketService(tickets TicketRepository, universities UniversityRepository, p policy.Policy) *TicketService {
	return &TicketService{
		tickets:      tickets,
		universities: universities,
		policy:       p,
		now:          time.Now,
	}
}

// ScopeFor resolves the requester scope of a university account.
func (s *TicketService) ScopeFor(ctx context.Context, user *models.User) (Scope, error) {
	if user == nil || user.UniversityID == nil {
		return Scope{}, ErrPermission
	}
	university, err := s.universities.GetUniversityByID(ctx, *user.UniversityID)
	if err != nil {
		return Scope{}, err
	}
	return Scope{UserID: user.ID, University: university.Name}, nil
}

// TicketsRemaining returns the unconsumed inventory for the scope.
func (s *TicketService) TicketsRemaining(ctx context.Context, scope Scope) (int, error) {
	global, requester, err := s.tickets.ConsumedTickets(ctx, scope.UserID, s.policy.Since(s.now()))
	if err != nil {
		return 0, err
	}
	return s.remaining(scope, global, requester), nil
}

func (s *TicketService) remaining(scope Scope, global, requester int) int {
	if scope.Global() {
		return s.policy.Remaining(global)
	}
	return s.policy.RequesterRemaining(s.policy.RequesterCap(scope.University), global, requester)
}

// PlaceOrder reserves amount tickets for the requester. It returns nil
// without error when the inventory cannot cover the order.
func (s *TicketService) PlaceOrder(ctx context.Context, scope Scope, amount int) (*models.TicketOrder, error) {
	if scope.Global() {
		return nil, ErrPermission
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	now := s.now()
	order := &models.TicketOrder{
		UserID:    scope.UserID,
		Amount:    amount,
		Price:     s.policy.Price(amount),
		OrderTime: now,
	}

	var left int
	order, err := s.tickets.CreateOrderWithin(ctx, order, s.policy.Since(now), func(global, requester int) error {
		left = s.remaining(scope, global, requester)
		if amount > left {
			return ErrCapacityExceeded
		}
		return nil
	})
	if errors.Is(err, ErrCapacityExceeded) {
		log.Infof("ticket order of %d by %s rejected, %d left", amount, scope.University, left)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	log.Infof("ticket order %d: %d tickets for %s", order.ID, amount, scope.University)
	return order, nil
}

// Verify marks an order as paid. Verified orders are consumed for good.
func (s *TicketService) Verify(ctx context.Context, orderID int64, actor *models.User) (*models.TicketOrder, error) {
	if actor == nil || !actor.CanVerifyOrders {
		return nil, ErrPermission
	}
	order, err := s.tickets.VerifyOrder(ctx, orderID, s.now())
	if err != nil {
		return nil, err
	}
	log.Infof("ticket order %d verified by %s", order.ID, actor.Username)
	return order, nil
}

// AmountDue sums the price of the requester's unverified orders inside the
// order window.
func (s *TicketService) AmountDue(ctx context.Context, scope Scope) (decimal.Decimal, error) {
	orders, err := s.tickets.ListOrdersSince(ctx, scope.UserID, s.policy.Since(s.now()))
	if err != nil {
		return decimal.Zero, err
	}
	due := decimal.Zero
	for _, o := range orders {
		if !o.Verified() {
			due = due.Add(o.Price)
		}
	}
	return due, nil
}

// OrderedCount is the part of the requester's cap already spoken for.
func (s *TicketService) OrderedCount(ctx context.Context, scope Scope) (int, error) {
	remaining, err := s.TicketsRemaining(ctx, scope)
	if err != nil {
		return 0, err
	}
	return s.policy.RequesterCap(scope.University) - remaining, nil
}

// TicketSummary is what a requester sees on the ticket page.
type TicketSummary struct {
	Cap       int             `json:"cap"`
	Remaining int             `json:"remaining"`
	Ordered   int             `json:"ordered"`
	Global    int             `json:"global_remaining"`
	AmountDue decimal.Decimal `json:"amount_due"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (s *TicketService) Summary(ctx context.Context, scope Scope) (*TicketSummary, error) {
	global, requester, err := s.tickets.ConsumedTickets(ctx, scope.UserID, s.policy.Since(s.now()))
	if err != nil {
		return nil, err
	}
	due, err := s.AmountDue(ctx, scope)
	if err != nil {
		return nil, err
	}

	limit := s.policy.RequesterCap(scope.University)
	remaining := s.remaining(scope, global, requester)
	return &TicketSummary{
		Cap:       limit,
		Remaining: remaining,
		Ordered:   limit - remaining,
		Global:    s.policy.Remaining(global),
		AmountDue: due,
		UnitPrice: s.policy.UnitPrice,
	}, nil
}
