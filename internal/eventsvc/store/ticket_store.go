package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kriugm/kri-services/internal/eventsvc/models"
)

// ticketPoolLock is the advisory lock key serializing ticket orders.
const ticketPoolLock int64 = 0x4b52495449434b // "KRITICK"

type TicketStore struct {
	db *pgxpool.Pool
}

func NewTicketStore(db *pgxpool.Pool) *TicketStore {
	return &TicketStore{db: db}
}

const consumedQuery = `
	SELECT
		COALESCE(SUM(amount), 0),
		COALESCE(SUM(amount) FILTER (WHERE user_id = $2), 0)
	FROM ticket_orders
	WHERE verified_time IS NOT NULL OR order_time >= $1
`

// ConsumedTickets sums the consumed inventory globally and for one user.
// An order is consumed when verified or placed at or after since.
func (s *TicketStore) ConsumedTickets(ctx context.Context, userID int64, since time.Time) (int, int, error) {
	var global, requester int
	if err := s.db.QueryRow(ctx, consumedQuery, since, userID).Scan(&global, &requester); err != nil {
		return 0, 0, wrap("sum tickets", err)
	}
	return global, requester, nil
}

// CreateOrderWithin inserts o under a transaction scoped advisory lock, so
// the global and per-user sums handed to admit hold until commit.
// A non-nil error from admit aborts the insert and is returned unchanged.
func (s *TicketStore) CreateOrderWithin(ctx context.Context, o *models.TicketOrder, since time.Time, admit func(global, requester int) error) (*models.TicketOrder, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ticketPoolLock); err != nil {
		return nil, wrap("lock ticket pool", err)
	}

	var global, requester int
	if err := tx.QueryRow(ctx, consumedQuery, since, o.UserID).Scan(&global, &requester); err != nil {
		return nil, wrap("sum tickets", err)
	}

	if err := admit(global, requester); err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO ticket_orders (user_id, amount, price, order_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, o.UserID, o.Amount, o.Price, o.OrderTime).Scan(&o.ID)
	if err != nil {
		return nil, wrap("create ticket order", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return o, nil
}

// VerifyOrder marks the order paid. Verifying twice keeps the first time.
func (s *TicketStore) VerifyOrder(ctx context.Context, id int64, at time.Time) (*models.TicketOrder, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE ticket_orders
		SET verification_time = COALESCE(verification_time, $2),
		    verified_time = COALESCE(verified_time, $2)
		WHERE id = $1
		RETURNING id, user_id, amount, price, order_time, verification_time, verified_time
	`, id, at)

	o, err := scanOrder(row)
	if err != nil {
		return nil, wrap("verify ticket order", err)
	}
	return o, nil
}

func (s *TicketStore) ListOrdersSince(ctx context.Context, userID int64, since time.Time) ([]*models.TicketOrder, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, amount, price, order_time, verification_time, verified_time
		FROM ticket_orders
		WHERE user_id = $1 AND order_time >= $2
		ORDER BY order_time
	`, userID, since)
	if err != nil {
		return nil, wrap("list ticket orders", err)
	}
	defer rows.Close()

	var orders []*models.TicketOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, wrap("scan ticket order", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func scanOrder(row rowScanner) (*models.TicketOrder, error) {
	o := &models.TicketOrder{}
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Amount,
		&o.Price,
		&o.OrderTime,
		&o.VerificationTime,
		&o.VerifiedTime,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}
