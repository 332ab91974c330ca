package kafka

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/stresslab/portfolio-engine/pkg/utils/errors"
	"github.com/stresslab/portfolio-engine/pkg/utils/logger"
)

// Producer publishes messages to a single topic.
type Producer struct {
	writer *kafkago.Writer
	topic  string
	log    *logger.Logger
}

// ProduceMessage publishes one message.
func (p *Producer) ProduceMessage(ctx context.Context, key, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafkago.Message{Key: key, Value: value})
	if err != nil {
		p.log.Errorw("failed to produce message", "error", err)
		return errors.Wrapf(err, "kafka: produce to %s", p.topic)
	}
	return nil
}

// ProduceJSON publishes one JSON-serialized message.
func (p *Producer) ProduceJSON(ctx context.Context, key []byte, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "kafka: serialize message")
	}
	return p.ProduceMessage(ctx, key, payload)
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	p.log.Info("closing producer")
	return p.writer.Close()
}
