package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"
)

var ErrRelayNotConfigured = errors.New("notify: relay missing dependencies")

// Counters is the unread-counter sink the relay writes to.
type Counters interface {
	Bump(ctx context.Context, userID string) error
}

// EventSource runs a consumer-group loop over the given topics.
type EventSource interface {
	Run(ctx context.Context, topics []string) error
}

// Relay turns booking lifecycle events published on Kafka into per-user
// unread counters. It is wired explicitly at startup; nothing else in the
// engine knows notifications exist.
type Relay struct {
	Source  EventSource
	Topics  []string
	Counter Counters
	Logger  *slog.Logger
}

func (r *Relay) Run(ctx context.Context) error {
	if r.Source == nil || r.Counter == nil {
		return ErrRelayNotConfigured
	}
	topics := r.Topics
	if len(topics) == 0 {
		topics = []string{"booking.events.v1"}
	}
	return r.Source.Run(ctx, topics)
}

// Handle is the consumer callback. Events without a user_id are ignored.
func (r *Relay) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if r.Counter == nil {
		return ErrRelayNotConfigured
	}
	userID, ok := extractUserID(msg.Value)
	if !ok {
		return nil
	}
	if err := r.Counter.Bump(ctx, userID); err != nil {
		if r.Logger != nil {
			r.Logger.Warn("notification bump failed", "user_id", userID, "error", err)
		}
		return err
	}
	if r.Logger != nil {
		r.Logger.Debug("notification recorded", "user_id", userID, "topic", msg.Topic)
	}
	return nil
}

type cloudEvent struct {
	Data struct {
		UserID string `json:"UserID"`
	} `json:"data"`
}

func extractUserID(payload []byte) (string, bool) {
	var evt cloudEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return "", false
	}
	if evt.Data.UserID == "" {
		return "", false
	}
	return evt.Data.UserID, true
}
