package models

import (
	"fmt"
	"time"
)

// Role is a person's function within a team.
type Role string

const (
	RoleCoreMember Role = "core_member"
	RoleMechanics  Role = "mechanics"
	RoleAdviser    Role = "adviser"
	RoleSupporter  Role = "supporter"
	RolePress      Role = "press"
)

var Roles = []Role{RoleCoreMember, RoleMechanics, RoleAdviser, RoleSupporter, RolePress}

var roleDisplay = map[Role]string{
	RoleCoreMember: "Tim Inti",
	RoleMechanics:  "Mekanik",
	RoleAdviser:    "Dosen Pembimbing",
	RoleSupporter:  "Supporter",
	RolePress:      "PERS",
}

func (r Role) Valid() bool {
	_, ok := roleDisplay[r]
	return ok
}

func (r Role) Display() string {
	if name, ok := roleDisplay[r]; ok {
		return name
	}
	return string(r)
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

const (
	GenderMale   = "L"
	GenderFemale = "P"
)

// Person represents the persons table in the database.
type Person struct {
	ID         int64      `json:"id"`
	TeamID     int64      `json:"team_id"`
	Role       Role       `json:"role"`
	Name       string     `json:"name"`
	InstanceID string     `json:"instance_id,omitempty"` // student or staff number at the university
	Birthday   *time.Time `json:"birthday,omitempty"`
	Gender     string     `json:"gender,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Email      string     `json:"email,omitempty"`
	Photo      string     `json:"photo,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsComplete reports whether the person has the photo needed for an ID card.
func (p *Person) IsComplete() bool {
	return p.Photo != ""
}

// Profile is the denormalised view of a card holder shown to scanning staff.
type Profile struct {
	Name       string   `json:"name"`
	Gender     string   `json:"gender"`
	Team       string   `json:"team"`
	Division   Division `json:"division"`
	Role       Role     `json:"role"`
	University string   `json:"university"`
	Photo      string   `json:"photo,omitempty"`
}
