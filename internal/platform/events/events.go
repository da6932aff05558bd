package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"complaint_desk/internal/domain/model"

	"github.com/nats-io/nats.go"
)

const (
	ComplaintCreated       = "created"
	ComplaintUpdated       = "updated"
	ComplaintStatusChanged = "status_changed"
	ComplaintDeleted       = "deleted"
)

type ComplaintEvent struct {
	Type           string                `json:"type"`
	ComplaintID    string                `json:"complaint_id"`
	OwnerID        string                `json:"owner_id"`
	ActorID        string                `json:"actor_id"`
	Status         model.ComplaintStatus `json:"status,omitempty"`
	PreviousStatus model.ComplaintStatus `json:"previous_status,omitempty"`
	OccurredAt     time.Time             `json:"occurred_at"`
}

// Publisher announces complaint lifecycle changes. Delivery is best effort.
type Publisher interface {
	PublishComplaintEvent(ctx context.Context, ev ComplaintEvent) error
}

type NopPublisher struct{}

func (NopPublisher) PublishComplaintEvent(context.Context, ComplaintEvent) error { return nil }

type publishConn interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher publishes JSON events on <prefix>.<type>.
type NATSPublisher struct {
	conn   publishConn
	nc     *nats.Conn
	prefix string
}

func ConnectNATS(url, prefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("complaint-desk"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	p := newNATSPublisher(nc, prefix)
	p.nc = nc
	return p, nil
}

func newNATSPublisher(conn publishConn, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = "complaints"
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

func (p *NATSPublisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

func (p *NATSPublisher) PublishComplaintEvent(_ context.Context, ev ComplaintEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	if err := p.conn.Publish(p.Subject(ev.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", p.Subject(ev.Type), err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}
