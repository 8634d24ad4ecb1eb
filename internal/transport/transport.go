// Package transport adapts between platform wire payloads and the
// internal message model. Transports carry no conversation logic.
package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/your-org/homewatch/internal/models"
)

// ErrMalformedPayload is returned by Receive when required fields
// (sender id, message id) cannot be extracted. Such payloads are
// rejected without retry.
var ErrMalformedPayload = errors.New("malformed transport payload")

// Transport converts between a platform wire payload and the internal
// message model.
type Transport interface {
	// Receive parses an inbound webhook payload.
	Receive(payload []byte) (*models.IncomingMessage, error)
	// Send delivers a message. Ordinary delivery failures return
	// false (and are logged), never a panic, so the caller decides
	// retry policy.
	Send(ctx context.Context, recipientID string, msg models.OutgoingMessage) bool
}

// Mock is an in-memory transport for development and tests.
type Mock struct {
	mu   sync.Mutex
	sent []SentRecord
}

type SentRecord struct {
	RecipientID string
	Message     models.OutgoingMessage
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Receive(payload []byte) (*models.IncomingMessage, error) {
	return nil, ErrMalformedPayload
}

func (m *Mock) Send(_ context.Context, recipientID string, msg models.OutgoingMessage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentRecord{RecipientID: recipientID, Message: msg})
	return true
}

// Sent returns a copy of everything delivered so far.
func (m *Mock) Sent() []SentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentRecord, len(m.sent))
	copy(out, m.sent)
	return out
}
