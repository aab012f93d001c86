package broker

import (
	"encoding/json"

	"github.com/kriugm/kri-services/internal/comm"
	"github.com/kriugm/kri-services/internal/eventsvc/models"
	knats "github.com/kriugm/kri-services/internal/nats"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Broker publishes attendance events for the live monitor. Publishing is
// best effort: a failed publish is logged and never fails the scan.
type Broker struct {
	Conn    *nats.Conn
	Subject string
}

func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{
		Conn:    nc,
		Subject: knats.SubjectAttendanceScan,
	}
}

// PublishScan sends the entry as an attendance-scan message.
func (b *Broker) PublishScan(entry *models.AttendanceEntry) {
	if b == nil || b.Conn == nil {
		return
	}

	msg, err := comm.NewMessage(comm.TypeAttendanceScan, comm.NewScanEvent(entry))
	if err != nil {
		log.Errorf("Error marshal scan event %s", err)
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error marshal ws message %s", err)
		return
	}

	if err := b.Conn.Publish(b.Subject, data); err != nil {
		log.Warnf("unable to publish scan %d: %v", entry.ID, err)
		return
	}
	log.Debugf("scan %d published to %s", entry.ID, b.Subject)
}
