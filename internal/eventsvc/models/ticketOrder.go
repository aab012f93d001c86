package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketOrder is a supporter ticket order placed by a university account.
type TicketOrder struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"user_id"`
	Amount           int             `json:"amount"`
	Price            decimal.Decimal `json:"price"`
	OrderTime        time.Time       `json:"order_time"`
	VerificationTime *time.Time      `json:"verification_time,omitempty"`
	VerifiedTime     *time.Time      `json:"verified_time,omitempty"`
}

func (o *TicketOrder) Verified() bool {
	return o.VerifiedTime != nil
}

// Consumed reports whether the order still counts against ticket inventory:
// verified orders always do, unverified ones only inside the order window.
func (o *TicketOrder) Consumed(now time.Time, window time.Duration) bool {
	return o.Verified() || !o.OrderTime.Before(now.Add(-window))
}
