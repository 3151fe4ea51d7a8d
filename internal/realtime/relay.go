package realtime

import (
	"encoding/json"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Sink accepts encoded envelopes; *kafka.Producer satisfies it.
type Sink interface {
	Publish(key, value []byte, headers ...kafkago.Header) bool
}

// Relay mirrors every bus event onto a Kafka topic so processes other
// than this server (the kitchen board) can follow along. It inherits the
// bus's best-effort delivery.
type Relay struct {
	sink     Sink
	producer string
	log      *zap.Logger
	stop     func()
}

func StartRelay(bus *Bus, sink Sink, producer string, log *zap.Logger) *Relay {
	r := &Relay{sink: sink, producer: producer, log: log.Named("relay")}
	r.stop = bus.Subscribe(AllEvents, r.forward)
	return r
}

func (r *Relay) forward(ev Event) {
	env := NewEnvelope(ev, r.producer)
	b, err := json.Marshal(env)
	if err != nil {
		r.log.Error("encode envelope", zap.String("event", ev.Name), zap.Error(err))
		return
	}
	key := []byte(env.CorrelationID)
	if len(key) == 0 {
		key = []byte(ev.ID)
	}
	ok := r.sink.Publish(key, b,
		kafkago.Header{Key: "x-event-type", Value: []byte(ev.Name)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(EnvelopeVersion))},
	)
	if !ok {
		r.log.Warn("event not relayed", zap.String("event", ev.Name), zap.String("id", env.CorrelationID))
	}
}

// Stop detaches the relay from the bus.
func (r *Relay) Stop() { r.stop() }
