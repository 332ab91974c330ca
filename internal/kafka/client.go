// Package kafka wraps the broker client used to receive evolution run
// requests and publish their results.
package kafka

import (
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/stresslab/portfolio-engine/pkg/utils/errors"
	"github.com/stresslab/portfolio-engine/pkg/utils/logger"
)

// Config carries broker connection settings.
type Config struct {
	Brokers      []string
	GroupID      string
	ProducerAcks string
	WriteTimeout time.Duration
	ReadMaxWait  time.Duration
}

// Client creates producers and consumers against one broker set and closes
// them together.
type Client struct {
	cfg       Config
	log       *logger.Logger
	mu        sync.Mutex
	producers []*Producer
	consumers []*Consumer
}

// NewClient validates the config and creates a client.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.InvalidArgument("kafka: no brokers configured")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.ReadMaxWait <= 0 {
		cfg.ReadMaxWait = time.Second
	}
	return &Client{
		cfg: cfg,
		log: logger.GetLogger("kafka.client"),
	}, nil
}

func (c *Client) requiredAcks() kafkago.RequiredAcks {
	switch c.cfg.ProducerAcks {
	case "all":
		return kafkago.RequireAll
	case "none":
		return kafkago.RequireNone
	default:
		return kafkago.RequireOne
	}
}

// NewProducer creates a producer bound to one topic.
func (c *Client) NewProducer(topic string) *Producer {
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(c.cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: c.requiredAcks(),
		WriteTimeout: c.cfg.WriteTimeout,
	}
	p := &Producer{
		writer: writer,
		topic:  topic,
		log:    logger.GetLogger("kafka.producer").With("topic", topic),
	}
	c.mu.Lock()
	c.producers = append(c.producers, p)
	c.mu.Unlock()
	return p
}

// NewConsumer creates a consumer for one topic in the client's group.
func (c *Client) NewConsumer(topic string) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: c.cfg.Brokers,
		GroupID: c.cfg.GroupID,
		Topic:   topic,
		MaxWait: c.cfg.ReadMaxWait,
	})
	consumer := &Consumer{
		reader: reader,
		topic:  topic,
		log:    logger.GetLogger("kafka.consumer").With("topic", topic),
	}
	c.mu.Lock()
	c.consumers = append(c.consumers, consumer)
	c.mu.Unlock()
	return consumer
}

// Close closes every producer and consumer created by the client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, p := range c.producers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, consumer := range c.consumers {
		if err := consumer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
