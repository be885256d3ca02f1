package manager

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// natsConn is the subset of *nats.Conn the publisher needs.
type natsConn interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher forwards lifecycle events as JSON to "<subject>.<event name>".
type NATSPublisher struct {
	conn    natsConn
	subject string
	log     zerolog.Logger
}

// NewNATSPublisher connects to url. The returned close func drains the connection.
func NewNATSPublisher(url, subject string, log zerolog.Logger) (*NATSPublisher, func(), error) {
	nc, err := nats.Connect(url,
		nats.Name("chatd"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, func() {}, fmt.Errorf("nats connect: %w", err)
	}
	closeFn := func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	}
	return newNATSPublisher(nc, subject, log), closeFn, nil
}

func newNATSPublisher(conn natsConn, subject string, log zerolog.Logger) *NATSPublisher {
	if subject == "" {
		subject = "chatd.events"
	}
	return &NATSPublisher{conn: conn, subject: subject, log: log}
}

func (p *NATSPublisher) Publish(e Event) {
	b, err := json.Marshal(e)
	if err != nil {
		p.log.Warn().Err(err).Str("event", e.Name).Msg("encode event")
		return
	}
	if err := p.conn.Publish(p.subject+"."+e.Name, b); err != nil {
		p.log.Warn().Err(err).Str("event", e.Name).Msg("publish event")
	}
}
