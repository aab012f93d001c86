package models

import "time"

// Activity is the outcome tag stored with every scan.
type Activity string

const (
	ActivityLoginGranted  Activity = "login_granted"
	ActivityLoginDenied   Activity = "login_denied"
	ActivityLogoutGranted Activity = "logout_granted"
	ActivityLogoutDenied  Activity = "logout_denied"
)

// ActivityFor tags a scan attempt by its direction and outcome.
func ActivityFor(d Direction, granted bool) Activity {
	if granted {
		return Activity(string(d) + "_granted")
	}
	return Activity(string(d) + "_denied")
}

func (a Activity) Granted() bool {
	return a == ActivityLoginGranted || a == ActivityLogoutGranted
}

func (a Activity) Direction() Direction {
	switch a {
	case ActivityLogoutGranted, ActivityLogoutDenied:
		return DirectionLogout
	}
	return DirectionLogin
}

// AttendanceEntry is one immutable row of the attendance ledger.
type AttendanceEntry struct {
	ID        int64     `json:"id"`
	CardID    int64     `json:"card_id"`
	StaffID   int64     `json:"staff_id"` // FK to users(id), who scanned
	Activity  Activity  `json:"activity"`
	CreatedAt time.Time `json:"created_at"`
	Holder    *Profile  `json:"holder,omitempty"` // joined from persons, not stored
}
