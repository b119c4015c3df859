package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"awin_tap/internal/catalog"
	"awin_tap/internal/domain"
)

// Kafka publishes each stream to its own topic, named by prefix plus the
// lower-cased stream name. State goes to prefix + "state".
type Kafka struct {
	writer      *kafka.Writer
	topicPrefix string
	keys        map[string][]string
}

func NewKafka(brokers []string, topicPrefix string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka sink requires at least one broker")
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topicPrefix: topicPrefix,
		keys:        make(map[string][]string),
	}, nil
}

func (k *Kafka) WriteSchema(ctx context.Context, stream string, schema catalog.Schema, keys []string) error {
	k.keys[stream] = keys
	return k.publish(ctx, k.topic(stream), stream, schemaMessage(stream, schema, keys))
}

func (k *Kafka) WriteRecord(ctx context.Context, stream string, rec domain.Record) error {
	return k.publish(ctx, k.topic(stream), rec.Key(k.keys[stream]), recordMessage(stream, rec, time.Now().UTC()))
}

func (k *Kafka) WriteState(ctx context.Context, state *domain.State) error {
	return k.publish(ctx, k.topic(stateRoutingKey), stateRoutingKey, stateMessage(state))
}

func (k *Kafka) topic(stream string) string {
	return k.topicPrefix + strings.ToLower(stream)
}

func (k *Kafka) publish(ctx context.Context, topic, key string, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("write to %s: %w", topic, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
