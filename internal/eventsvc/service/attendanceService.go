package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	log "github.com/sirupsen/logrus"
)

type AttendanceService struct {
	store     AttendanceRepository
	publisher ScanPublisher
	now       func() time.Time
}

// NewAttendanceService creates the ledger service. publisher may be nil.
func NewAttendanceService(store AttendanceRepository, publisher ScanPublisher) *AttendanceService {
	return &AttendanceService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// RecordScan toggles the card behind cardKey and appends the outcome to the
// ledger. Denied toggles are recorded too; an unknown key records nothing.
func (s *AttendanceService) RecordScan(ctx context.Context, cardKey string, direction models.Direction, actor *models.User) (*models.AttendanceEntry, error) {
	if actor == nil || !actor.CanLogAttendance {
		return nil, ErrPermission
	}
	if !direction.Valid() {
		return nil, fmt.Errorf("scan direction %q: %w", direction, ErrInvalidInput)
	}

	now := s.now()
	entry, err := s.store.ScanCard(ctx, cardKey, func(card *models.Card) *models.AttendanceEntry {
		granted := card.Toggle(direction, now)
		return &models.AttendanceEntry{
			CardID:    card.ID,
			StaffID:   actor.ID,
			Activity:  models.ActivityFor(direction, granted),
			CreatedAt: now,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("card %q: %w", cardKey, err)
	}

	log.WithFields(log.Fields{
		"card":     cardKey,
		"activity": entry.Activity,
		"staff":    actor.Username,
	}).Info("attendance scan recorded")

	if s.publisher != nil {
		s.publisher.PublishScan(entry)
	}

	return entry, nil
}

// MostRecentBy returns the newest entry recorded by the staff member, or nil
// when they have not scanned anything yet.
func (s *AttendanceService) MostRecentBy(ctx context.Context, actorID int64) (*models.AttendanceEntry, error) {
	return s.store.LatestByStaff(ctx, actorID)
}
