package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kriugm/kri-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Backlog stores recent scans for clients that connect later.
type Backlog interface {
	Add(ctx context.Context, e comm.ScanEvent) error
	Recent(ctx context.Context, n int) ([]comm.ScanEvent, error)
}

type Broker struct {
	Conn      *nats.Conn
	Broadcast func(staffID, entryID int64, data []byte) int
	Backlog   Backlog // optional
}

func NewBroker(conn *nats.Conn, broadcast func(staffID, entryID int64, data []byte) int, backlog Backlog) *Broker {
	return &Broker{
		Conn:      conn,
		Broadcast: broadcast,
		Backlog:   backlog,
	}
}

// consume scans published by the event service
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) handleMessages(msgNats *nats.Msg) {
	b.HandleMessage(msgNats.Data)
}

// HandleMessage stores and fans out one raw attendance-scan message.
func (b *Broker) HandleMessage(data []byte) {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(data, message); err != nil {
		log.Errorf("Error malformed nats message %s", err)
		return
	}

	switch message.Type {
	case comm.TypeAttendanceScan:
		var event comm.ScanEvent
		if err := json.Unmarshal(message.Data, &event); err != nil {
			log.Errorf("Error malformed scan event %s", err)
			return
		}

		if b.Backlog != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := b.Backlog.Add(ctx, event); err != nil {
				log.Warnf("unable to store scan %d in backlog: %v", event.EntryID, err)
			}
			cancel()
		}

		n := b.Broadcast(event.StaffID, event.EntryID, data)
		log.Debugf("scan %d sent to %d monitors", event.EntryID, n)
	default:
		log.Warnf("unknown message type %s", message.Type)
	}
}
