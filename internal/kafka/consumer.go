package kafka

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/stresslab/portfolio-engine/pkg/utils/logger"
)

// Message is one consumed record.
type Message struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Time      time.Time
}

// Consumer reads messages from a single topic within a consumer group.
type Consumer struct {
	reader *kafkago.Reader
	topic  string
	log    *logger.Logger
}

// ConsumeMessage blocks until a message arrives or the context is done.
func (c *Consumer) ConsumeMessage(ctx context.Context) (*Message, error) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}
	return &Message{
		Key:       m.Key,
		Value:     m.Value,
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Time:      m.Time,
	}, nil
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	c.log.Info("closing consumer")
	return c.reader.Close()
}
