package comm

import (
	"encoding/json"
	"time"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
)

// Message types carried in WSMessage.Type.
const (
	TypeAttendanceScan = "attendance-scan"
	TypeBacklog        = "backlog"
	TypeWelcome        = "welcome"
)

// ClaimLogAttendance is the token claim mirroring models.User.CanLogAttendance.
// The monitor trusts it instead of looking the user up.
const ClaimLogAttendance = "can_log_attendance"

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "attendance-scan", "backlog"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid,omitempty"`
}

// ScanEvent is one attendance scan as seen by the live monitor.
type ScanEvent struct {
	EntryID  int64           `json:"entry_id" bson:"entry_id"`
	CardID   int64           `json:"card_id" bson:"card_id"`
	StaffID  int64           `json:"staff_id" bson:"staff_id"`
	Activity models.Activity `json:"activity" bson:"activity"`
	Granted  bool            `json:"granted" bson:"granted"`
	Holder   *models.Profile `json:"holder,omitempty" bson:"holder,omitempty"`
	At       time.Time       `json:"at" bson:"at"`
}

func NewScanEvent(e *models.AttendanceEntry) ScanEvent {
	return ScanEvent{
		EntryID:  e.ID,
		CardID:   e.CardID,
		StaffID:  e.StaffID,
		Activity: e.Activity,
		Granted:  e.Activity.Granted(),
		Holder:   e.Holder,
		At:       e.CreatedAt,
	}
}

// NewMessage wraps v in a WSMessage of the given type.
func NewMessage(msgType string, v interface{}) (*WSMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &WSMessage{Type: msgType, Data: data}, nil
}
