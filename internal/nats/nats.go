package nats

import (
	"os"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Subjects shared by the publishing and subscribing services.
const (
	SubjectAttendanceScan = "attendance.scan"
)

type Nats struct {
	Url   string
	Token string
	Conn  *nats.Conn
}

// Connect dials url, falling back to NATS_URL and then the local default.
func Connect(name, url string) (*Nats, error) {
	n := &Nats{
		Url:   url,
		Token: os.Getenv("NATS_TOKEN"),
	}

	if n.Url == "" {
		n.Url = os.Getenv("NATS_URL")
	}
	if n.Url == "" {
		n.Url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infof("nats reconnected to %s", c.ConnectedUrl())
		}),
	}

	// if token provided
	if n.Token != "" {
		opts = append(opts, nats.Token(n.Token))
	}

	conn, err := nats.Connect(n.Url, opts...)
	if err != nil {
		return nil, err
	}

	n.Conn = conn

	return n, nil
}
