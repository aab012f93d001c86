package models

import "time"

type Team struct {
	ID           int64      `json:"id"`            // Primary key
	UniversityID int64      `json:"university_id"` // FK to universities(id)
	Division     Division   `json:"division"`      // unique together with university_id
	Name         string     `json:"name"`
	ArrivalTime  *time.Time `json:"arrival_time,omitempty"`
	Transport    string     `json:"transport,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsComplete reports whether the team's own data and its members are filled in.
// A complete team has at least one core member and one adviser.
func (t *Team) IsComplete(persons []*Person) bool {
	if t.Name == "" || t.ArrivalTime == nil || t.Transport == "" {
		return false
	}

	var core, adviser bool
	for _, p := range persons {
		if !p.IsComplete() {
			return false
		}
		switch p.Role {
		case RoleCoreMember:
			core = true
		case RoleAdviser:
			adviser = true
		}
	}

	return core && adviser
}
