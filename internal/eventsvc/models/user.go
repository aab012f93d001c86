package models

import (
	"time"
)

// User represents the users table in the database. Staff accounts carry
// permissions; university accounts carry a university id.
type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	PasswordHash     string    `json:"-"`
	Name             string    `json:"name,omitempty"`
	UniversityID     *int64    `json:"university_id,omitempty"`
	CanLogAttendance bool      `json:"can_log_attendance"`
	CanVerifyOrders  bool      `json:"can_verify_orders"`
	CreatedAt        time.Time `json:"created_at"`
}

// Staff reports whether the user holds any staff permission.
func (u *User) Staff() bool {
	return u.CanLogAttendance || u.CanVerifyOrders
}
