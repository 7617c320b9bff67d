package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// subjectPrefix namespaces outcome messages on the broker
const subjectPrefix = "crosspost.publications"

// NATSSink publishes outcome events as JSON onto a NATS subject, for other
// services (analytics, mobile push) to consume
type NATSSink struct {
	conn *nats.Conn
}

func NewNATSSink(url string) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("crosspost-notify"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return &NATSSink{conn: conn}, nil
}

func (s *NATSSink) Notify(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s.%s.%s", subjectPrefix, ev.Platform, ev.Outcome)
	return s.conn.Publish(subject, data)
}

// Close drains the connection
func (s *NATSSink) Close() {
	if s.conn != nil {
		_ = s.conn.Drain()
	}
}
