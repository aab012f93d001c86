// Package policy holds the static capacity rules: roster ceilings per
// division and role, and the supporter ticket inventory.
package policy

import (
	"time"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/shopspring/decimal"
)

const (
	DefaultGlobalTickets    = 600
	DefaultTicketCap        = 40
	DefaultOrderWindow      = 24 * time.Hour
	DefaultPrivilegedName   = "Universitas Gadjah Mada"
	DefaultPrivilegedTicket = 100
)

// DefaultUnitPrice is the supporter ticket price in rupiah.
var DefaultUnitPrice = decimal.NewFromInt(25000)

// Policy is passed by value into the allocators.
type Policy struct {
	Roster         map[models.Division]map[models.Role]int
	GlobalTickets  int
	DefaultCap     int
	PrivilegedCaps map[string]int // university name -> ticket cap
	UnitPrice      decimal.Decimal
	OrderWindow    time.Duration
}

// Default returns the rules used for KRI 2017.
func Default() Policy {
	return Policy{
		Roster:         DefaultRoster(),
		GlobalTickets:  DefaultGlobalTickets,
		DefaultCap:     DefaultTicketCap,
		PrivilegedCaps: map[string]int{DefaultPrivilegedName: DefaultPrivilegedTicket},
		UnitPrice:      DefaultUnitPrice,
		OrderWindow:    DefaultOrderWindow,
	}
}

// DefaultRoster returns a fresh copy of the roster ceilings.
func DefaultRoster() map[models.Division]map[models.Role]int {
	return map[models.Division]map[models.Role]int{
		models.DivisionKRAI: {
			models.RoleCoreMember: 3,
			models.RoleMechanics:  3,
			models.RoleAdviser:    1,
		},
		models.DivisionKRSBIBeroda: {
			models.RoleCoreMember: 4,
			models.RoleMechanics:  1,
			models.RoleAdviser:    1,
		},
		models.DivisionKRSTI: {
			models.RoleCoreMember: 3,
			models.RoleMechanics:  1,
			models.RoleAdviser:    1,
		},
		models.DivisionKRPAI: {
			models.RoleCoreMember: 2,
			models.RoleMechanics:  1,
			models.RoleAdviser:    1,
		},
		models.DivisionPers: {
			models.RoleAdviser: 1,
			models.RolePress:   1,
		},
	}
}

// Capacity returns the role ceiling for a division. Missing entries are 0,
// so supporters never enter a roster.
func (p Policy) Capacity(d models.Division, r models.Role) int {
	return p.Roster[d][r]
}

// RequesterCap returns the ticket cap for a university.
func (p Policy) RequesterCap(university string) int {
	if c, ok := p.PrivilegedCaps[university]; ok {
		return c
	}
	return p.DefaultCap
}

// Remaining is the global ticket inventory left.
func (p Policy) Remaining(globalConsumed int) int {
	return p.GlobalTickets - globalConsumed
}

// RequesterRemaining is the inventory left for one requester. Once the
// requester's cap reaches what is left globally, the global pool binds.
func (p Policy) RequesterRemaining(limit, globalConsumed, requesterConsumed int) int {
	globalRemaining := p.Remaining(globalConsumed)
	if limit >= globalRemaining {
		return globalRemaining
	}
	return limit - requesterConsumed
}

func (p Policy) Price(amount int) decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(amount)))
}

// Since returns the oldest order time still inside the order window.
func (p Policy) Since(now time.Time) time.Time {
	return now.Add(-p.OrderWindow)
}
