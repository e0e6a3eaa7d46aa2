package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

const defaultGroupBuffer = 256

// Kafka is the event bus used by the worker process. It keeps Kafka's
// delivery shape in-process: every consumer group on a topic receives each
// event once, and members of the same group share that single delivery.
type Kafka struct {
	brokers []string
	buffer  int
	logger  *slog.Logger

	mu     sync.RWMutex
	groups map[string]map[string]*groupState
}

type groupState struct {
	events  chan ports.EventEnvelope
	members int
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		brokers: append([]string(nil), brokers...),
		buffer:  defaultGroupBuffer,
		logger:  logger,
		groups:  make(map[string]map[string]*groupState),
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New("publish topic is required")
	}

	k.mu.RLock()
	targets := make(map[string]chan ports.EventEnvelope, len(k.groups[topic]))
	for name, group := range k.groups[topic] {
		targets[name] = group.events
	}
	k.mu.RUnlock()

	// A full group buffer blocks until the group catches up or ctx ends. The
	// caller keeps the event and publishes it again.
	for group, ch := range targets {
		select {
		case ch <- event:
		case <-ctx.Done():
			k.logger.Warn("consumer group buffer full, publish abandoned",
				"event", "kafka_publish_blocked",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", group,
				"event_id", event.EventID,
			)
			return fmt.Errorf("publish %s to consumer group %s: %w", topic, group, ctx.Err())
		}
	}

	k.logger.Debug("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"consumer_groups", len(targets),
	)
	return nil
}

// Subscribe joins consumerGroup on topic and runs handler for each event the
// group receives until ctx is done. Handler errors are logged; the event is
// not redelivered.
func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	topic = strings.TrimSpace(topic)
	consumerGroup = strings.TrimSpace(consumerGroup)
	if topic == "" || consumerGroup == "" {
		return errors.New("subscribe topic and consumer group are required")
	}
	if handler == nil {
		return errors.New("subscribe handler is required")
	}

	k.mu.Lock()
	if k.groups[topic] == nil {
		k.groups[topic] = make(map[string]*groupState)
	}
	group, ok := k.groups[topic][consumerGroup]
	if !ok {
		group = &groupState{events: make(chan ports.EventEnvelope, k.buffer)}
		k.groups[topic][consumerGroup] = group
	}
	group.members++
	ch := group.events
	k.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				k.leave(topic, consumerGroup, group)
				return
			case event := <-ch:
				if err := handler(ctx, event); err != nil {
					k.logger.Error("consumer handler failed",
						"event", "kafka_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

// leave removes the group channel once its last member stops. Events still
// buffered for that group are discarded.
func (k *Kafka) leave(topic string, name string, group *groupState) {
	k.mu.Lock()
	defer k.mu.Unlock()
	group.members--
	if group.members <= 0 && k.groups[topic][name] == group {
		delete(k.groups[topic], name)
	}
}

func (k *Kafka) Brokers() []string {
	return append([]string(nil), k.brokers...)
}
