package models

import (
	"fmt"
	"time"
)

// Division is a competition category a team enters.
type Division string

const (
	DivisionKRAI        Division = "krai"
	DivisionKRSBIBeroda Division = "krsbi_beroda"
	DivisionKRSTI       Division = "krsti"
	DivisionKRPAI       Division = "krpai"
	DivisionPers        Division = "pers" // press, open to every university
)

// Divisions lists every division in display order.
var Divisions = []Division{DivisionKRAI, DivisionKRSBIBeroda, DivisionKRSTI, DivisionKRPAI, DivisionPers}

var divisionDisplay = map[Division]string{
	DivisionKRAI:        "KRAI",
	DivisionKRSBIBeroda: "KRSBI Beroda",
	DivisionKRSTI:       "KRSTI",
	DivisionKRPAI:       "KRPAI",
	DivisionPers:        "PERS",
}

func (d Division) Valid() bool {
	_, ok := divisionDisplay[d]
	return ok
}

// Display returns the human readable division name, or the raw key when unknown.
func (d Division) Display() string {
	if name, ok := divisionDisplay[d]; ok {
		return name
	}
	return string(d)
}

// Competitive reports whether the division needs an eligibility flag.
func (d Division) Competitive() bool {
	return d.Valid() && d != DivisionPers
}

func ParseDivision(s string) (Division, error) {
	d := Division(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown division %q", s)
	}
	return d, nil
}

// University represents the universities table in the database.
type University struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Abbreviation string            `json:"abbreviation,omitempty"`
	Eligible     map[Division]bool `json:"eligible"` // one flag per competitive division
	CreatedAt    time.Time         `json:"created_at"`
}

// HasAccess reports whether the university may field a team in the division.
func (u *University) HasAccess(d Division) bool {
	if d == DivisionPers {
		return true
	}
	return d.Competitive() && u.Eligible[d]
}

// AllAccess lists the university's access for every division.
func (u *University) AllAccess() map[Division]bool {
	access := make(map[Division]bool, len(Divisions))
	for _, d := range Divisions {
		access[d] = u.HasAccess(d)
	}
	return access
}

// IsComplete reports whether the university has a complete team for each
// competitive division it is eligible for.
func (u *University) IsComplete(teams []*Team, persons map[int64][]*Person) bool {
	eligible := 0
	for _, d := range Divisions {
		if d.Competitive() && u.HasAccess(d) {
			eligible++
		}
	}

	competing := 0
	for _, t := range teams {
		if !t.Division.Competitive() {
			continue
		}
		competing++
		if !t.IsComplete(persons[t.ID]) {
			return false
		}
	}

	return competing == eligible
}
