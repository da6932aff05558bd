package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"complaint_desk/internal/domain/model"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (c *recordingConn) Publish(subj string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subj)
	c.payloads = append(c.payloads, data)
	return nil
}

func TestNATSPublisher_PublishComplaintEvent(t *testing.T) {
	conn := &recordingConn{}
	p := newNATSPublisher(conn, "campus")
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	err := p.PublishComplaintEvent(context.Background(), ComplaintEvent{
		Type:           ComplaintStatusChanged,
		ComplaintID:    "c-1",
		OwnerID:        "u-1",
		ActorID:        "admin-1",
		Status:         model.StatusInProgress,
		PreviousStatus: model.StatusOpen,
		OccurredAt:     at,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"campus.status_changed"}, conn.subjects)
	var got ComplaintEvent
	require.NoError(t, json.Unmarshal(conn.payloads[0], &got))
	assert.Equal(t, model.StatusOpen, got.PreviousStatus)
	assert.True(t, at.Equal(got.OccurredAt))
}

func TestNATSPublisher_DefaultPrefix(t *testing.T) {
	p := newNATSPublisher(&recordingConn{}, "")
	assert.Equal(t, "complaints.created", p.Subject(ComplaintCreated))
}

func TestNATSPublisher_PublishError(t *testing.T) {
	p := newNATSPublisher(&recordingConn{err: nats.ErrConnectionClosed}, "complaints")

	err := p.PublishComplaintEvent(context.Background(), ComplaintEvent{Type: ComplaintDeleted})
	assert.True(t, errors.Is(err, nats.ErrConnectionClosed))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishComplaintEvent(context.Background(), ComplaintEvent{Type: ComplaintCreated}))
}
