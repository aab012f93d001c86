package models

import (
	"fmt"
	"time"
)

// Direction is the kind of toggle a scan asks for.
type Direction string

const (
	DirectionLogin  Direction = "login"
	DirectionLogout Direction = "logout"
)

func (d Direction) Valid() bool {
	return d == DirectionLogin || d == DirectionLogout
}

func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown scan direction %q", s)
	}
	return d, nil
}

// timestampStep is the smallest interval the database keeps apart.
const timestampStep = time.Microsecond

type Card struct {
	ID           int64      `json:"id"`        // Primary key
	PersonID     int64      `json:"person_id"` // FK to persons(id), one card per person
	Key          string     `json:"key"`       // Unique key read from the physical card
	RegisterTime time.Time  `json:"register_time"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	LastLogout   *time.Time `json:"last_logout,omitempty"`
}

// IsPresent reports whether the card holder is checked in.
func (c *Card) IsPresent() bool {
	if c.LastLogin == nil {
		return false
	}
	return c.LastLogout == nil || c.LastLogin.After(*c.LastLogout)
}

// Toggle moves the card in or out. It returns false and leaves the card
// untouched when the card is already in the requested state.
func (c *Card) Toggle(d Direction, now time.Time) bool {
	switch d {
	case DirectionLogin:
		if c.IsPresent() {
			return false
		}
		at := after(now, c.LastLogout)
		c.LastLogin = &at
		return true
	case DirectionLogout:
		if !c.IsPresent() {
			return false
		}
		at := after(now, c.LastLogin)
		c.LastLogout = &at
		return true
	}
	return false
}

func (c *Card) Login(now time.Time) bool {
	return c.Toggle(DirectionLogin, now)
}

func (c *Card) Logout(now time.Time) bool {
	return c.Toggle(DirectionLogout, now)
}

// after keeps the new timestamp strictly later than prev so that a toggle
// within one clock tick still flips presence.
func after(now time.Time, prev *time.Time) time.Time {
	now = now.Truncate(timestampStep)
	if prev != nil && !now.After(*prev) {
		return prev.Add(timestampStep)
	}
	return now
}
