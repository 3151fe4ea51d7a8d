// Package kitchen follows the relayed event stream and keeps a local
// order board for the kitchen display.
package kitchen

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/Seenusharmma/POS-FF/internal/kafka"
	"github.com/Seenusharmma/POS-FF/internal/orders"
	"github.com/Seenusharmma/POS-FF/internal/realtime"
)

// Dedup remembers envelopes that were already applied.
type Dedup interface {
	Seen(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string) (bool, error)
}

type Service struct {
	Board *orders.Board
	Dedup Dedup // optional; the board is idempotent on its own
	Log   *zap.Logger
}

// HandleEnvelope is the consumer handler. Messages that can never be
// applied (bad JSON, unknown version) are logged and committed; a dedup
// store failure leaves the message uncommitted.
func (s *Service) HandleEnvelope(ctx context.Context, m kafkago.Message) error {
	var env realtime.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Warn("skipping undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventVersion != realtime.EnvelopeVersion {
		s.Log.Warn("skipping unsupported envelope version",
			zap.String("event_id", env.EventID), zap.Int("version", env.EventVersion))
		return nil
	}

	if s.Dedup != nil && env.EventID != "" {
		seen, err := s.Dedup.Seen(ctx, env.EventID)
		if err != nil {
			return err
		}
		if seen {
			s.Log.Debug("duplicate envelope", zap.String("event_id", env.EventID))
			return nil
		}
	}

	changed, err := s.Board.Apply(env.EventType, env.Payload)
	if err != nil {
		s.Log.Warn("skipping malformed event", zap.String("event_id", env.EventID), zap.String("event", env.EventType), zap.Error(err))
		return nil
	}
	if changed {
		s.report(env)
	}

	if s.Dedup != nil && env.EventID != "" {
		if _, err := s.Dedup.Mark(ctx, env.EventID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) report(env realtime.Envelope) {
	switch env.EventType {
	case orders.EventOrderPlaced:
		o, err := kafkax.UnwrapPayload[orders.Order](env.Payload)
		if err != nil {
			return
		}
		s.Log.Info("kitchen ticket",
			zap.Int("table", o.TableNumber),
			zap.String("food", o.FoodName),
			zap.Int("quantity", o.Quantity),
			zap.String("status", string(o.Status)))
	case orders.EventOrderStatusChanged:
		o, err := kafkax.UnwrapPayload[orders.Order](env.Payload)
		if err != nil {
			return
		}
		s.Log.Info("ticket status", zap.String("id", o.ID), zap.Int("table", o.TableNumber), zap.String("status", string(o.Status)))
	case orders.EventOrderDeleted:
		s.Log.Info("ticket closed", zap.String("id", env.CorrelationID))
	}

	a := s.Board.Availability()
	s.Log.Info("table availability", zap.Ints("booked", a.Booked), zap.Int("available", len(a.Available)))
}
