package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kriugm/kri-services/internal/eventsvc/models"
)

type AttendanceStore struct {
	db *pgxpool.Pool
}

func NewAttendanceStore(db *pgxpool.Pool) *AttendanceStore {
	return &AttendanceStore{db: db}
}

// ScanCard locks the card row for key, lets scan toggle it and build the
// ledger entry, then persists both in one transaction. Concurrent scans of
// the same card serialize on the row lock; other cards are unaffected.
func (s *AttendanceStore) ScanCard(ctx context.Context, key string, scan func(card *models.Card) *models.AttendanceEntry) (*models.AttendanceEntry, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	card := &models.Card{}
	holder := &models.Profile{}
	var division, role string
	err = tx.QueryRow(ctx, `
		SELECT c.id, c.person_id, c.key, c.register_time, c.last_login, c.last_logout,
		       p.name, p.gender, p.role, p.photo, t.name, t.division, u.name
		FROM cards c
		JOIN persons p ON p.id = c.person_id
		JOIN teams t ON t.id = p.team_id
		JOIN universities u ON u.id = t.university_id
		WHERE c.key = $1
		FOR UPDATE OF c
	`, key).Scan(
		&card.ID,
		&card.PersonID,
		&card.Key,
		&card.RegisterTime,
		&card.LastLogin,
		&card.LastLogout,
		&holder.Name,
		&holder.Gender,
		&role,
		&holder.Photo,
		&holder.Team,
		&division,
		&holder.University,
	)
	if err != nil {
		return nil, wrap("lock card", err)
	}
	holder.Role = models.Role(role)
	holder.Division = models.Division(division)

	entry := scan(card)

	if entry.Activity.Granted() {
		if _, err := tx.Exec(ctx, `
			UPDATE cards SET last_login = $2, last_logout = $3 WHERE id = $1
		`, card.ID, card.LastLogin, card.LastLogout); err != nil {
			return nil, wrap("update card", err)
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO attendance_entries (card_id, staff_id, activity, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, card.ID, entry.StaffID, string(entry.Activity), entry.CreatedAt).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, wrap("create attendance entry", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	entry.CardID = card.ID
	entry.Holder = holder
	return entry, nil
}

// LatestByStaff returns the newest entry recorded by the staff member, or
// nil, nil when there is none. Entries with equal timestamps keep insertion order.
func (s *AttendanceStore) LatestByStaff(ctx context.Context, staffID int64) (*models.AttendanceEntry, error) {
	entry := &models.AttendanceEntry{}
	holder := &models.Profile{}
	var activity, division, role string
	err := s.db.QueryRow(ctx, `
		SELECT e.id, e.card_id, e.staff_id, e.activity, e.created_at,
		       p.name, p.gender, p.role, p.photo, t.name, t.division, u.name
		FROM attendance_entries e
		JOIN cards c ON c.id = e.card_id
		JOIN persons p ON p.id = c.person_id
		JOIN teams t ON t.id = p.team_id
		JOIN universities u ON u.id = t.university_id
		WHERE e.staff_id = $1
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT 1
	`, staffID).Scan(
		&entry.ID,
		&entry.CardID,
		&entry.StaffID,
		&activity,
		&entry.CreatedAt,
		&holder.Name,
		&holder.Gender,
		&role,
		&holder.Photo,
		&holder.Team,
		&division,
		&holder.University,
	)
	if err != nil {
		err = wrap("latest attendance entry", err)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	entry.Activity = models.Activity(activity)
	holder.Role = models.Role(role)
	holder.Division = models.Division(division)
	entry.Holder = holder
	return entry, nil
}
