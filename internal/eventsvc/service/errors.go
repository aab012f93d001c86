package service

import (
	"errors"
	"fmt"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/kriugm/kri-services/internal/eventsvc/store"
)

var (
	ErrNotFound  = store.ErrNotFound
	ErrDuplicate = store.ErrDuplicate

	ErrPermission         = errors.New("permission denied")
	ErrCapacityExceeded   = errors.New("capacity exceeded")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("invalid input")

	ErrAccessDenied    = fmt.Errorf("division not open to university: %w", ErrPermission)
	ErrDuplicateTeam   = fmt.Errorf("team: %w", ErrDuplicate)
	ErrDuplicateCard   = fmt.Errorf("card: %w", ErrDuplicate)
	ErrInvalidAmount   = fmt.Errorf("ticket amount must be positive: %w", ErrInvalidInput)
	ErrInvalidRole     = fmt.Errorf("unknown role: %w", ErrInvalidInput)
	ErrInvalidDivision = fmt.Errorf("unknown division: %w", ErrInvalidInput)
)

// TeamError carries the localized message shown when a team cannot be created.
type TeamError struct {
	University string
	Division   models.Division
	Err        error
}

func (e *TeamError) Error() string {
	if errors.Is(e.Err, ErrDuplicateTeam) {
		return fmt.Sprintf("%s sudah memiliki tim %s.", e.University, e.Division.Display())
	}
	return fmt.Sprintf("%s tidak mengikuti %s.", e.University, e.Division.Display())
}

func (e *TeamError) Unwrap() error {
	return e.Err
}

// RosterFullError is returned when a team has no slot left for a role.
type RosterFullError struct {
	Role models.Role
	Team string
}

func (e *RosterFullError) Error() string {
	return fmt.Sprintf("%s tim %s sudah penuh.", e.Role.Display(), e.Team)
}

func (e *RosterFullError) Unwrap() error {
	return ErrCapacityExceeded
}
