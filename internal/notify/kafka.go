package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/segmentio/kafka-go"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// KafkaPublisher writes events to the order topic so every server instance
// can relay them to its own admin sessions.
type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	// order.created.42
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%s.%d", ev.Type, ev.OrderID)),
		Value: value,
	}
	return p.writer.WriteMessages(ctx, msg)
}

// KafkaRelay consumes the order topic and republishes each event to sink.
type KafkaRelay struct {
	reader MessageReader
	sink   Publisher
}

func NewKafkaRelay(reader MessageReader, sink Publisher) *KafkaRelay {
	return &KafkaRelay{reader: reader, sink: sink}
}

// Run blocks until ctx is done or the reader is closed.
func (r *KafkaRelay) Run(ctx context.Context) error {
	for {
		msg, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			logger.Error().Err(err).Msg("Error reading order event")
			continue
		}
		r.processMessage(ctx, msg)
	}
}

func (r *KafkaRelay) processMessage(ctx context.Context, msg kafka.Message) {
	// key -> "order.created.<id>"
	key := string(msg.Key)
	if !strings.HasPrefix(key, EventOrderCreated+".") {
		logger.Debug().Msgf("Ignoring order event %s", key)
		return
	}

	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		logger.Error().Err(err).Msgf("Error unmarshalling order event %s", key)
		return
	}
	if err := r.sink.Publish(ctx, ev); err != nil {
		logger.Error().Err(err).Msgf("Error relaying order event %s", key)
	}
}
