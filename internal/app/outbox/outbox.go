package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"basobas/internal/domain/shared/events"
)

// EventRecord is the serialized form of a domain event staged for publication.
type EventRecord struct {
	ID         string
	Name       string
	Aggregate  string
	Payload    []byte
	Headers    map[string]string
	OccurredAt time.Time
}

// Outbox stages event records inside the current request and flushes them to
// durable storage after the command commits.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// EventEncoder turns a domain event into a payload.
type EventEncoder interface {
	Encode(event events.DomainEvent) ([]byte, error)
}

// JSONEventEncoder marshals events as JSON.
type JSONEventEncoder struct{}

func (JSONEventEncoder) Encode(event events.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// RecordDomainEvents encodes and stages every pending event of an aggregate.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evts []events.DomainEvent) error {
	if box == nil || len(evts) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evts {
		payload, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		rec := EventRecord{
			ID:         uuid.NewString(),
			Name:       ev.EventName(),
			Aggregate:  ev.AggregateID(),
			Payload:    payload,
			OccurredAt: ev.OccurredAt(),
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// DrainRecorder stages an aggregate's pending events and clears them.
func DrainRecorder(ctx context.Context, box Outbox, encoder EventEncoder, rec *events.EventRecorder) error {
	pending := rec.PendingEvents()
	rec.ClearEvents()
	return RecordDomainEvents(ctx, box, encoder, pending)
}
