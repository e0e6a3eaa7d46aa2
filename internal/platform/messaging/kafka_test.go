package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

func TestKafkaDeliversOncePerConsumerGroup(t *testing.T) {
	bus, err := NewKafka([]string{"localhost:9092"}, nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var delivery, audit atomic.Int32
	countInto := func(counter *atomic.Int32) func(context.Context, ports.EventEnvelope) error {
		return func(context.Context, ports.EventEnvelope) error {
			counter.Add(1)
			return nil
		}
	}
	for i := 0; i < 2; i++ {
		if err := bus.Subscribe(ctx, "notification.created", "delivery-cg", countInto(&delivery)); err != nil {
			t.Fatalf("subscribe delivery: %v", err)
		}
	}
	if err := bus.Subscribe(ctx, "notification.created", "audit-cg", countInto(&audit)); err != nil {
		t.Fatalf("subscribe audit: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := bus.Publish(ctx, "notification.created", ports.EventEnvelope{EventID: "evt"}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && (delivery.Load() < 3 || audit.Load() < 3) {
		time.Sleep(5 * time.Millisecond)
	}
	if delivery.Load() != 3 {
		t.Fatalf("expected delivery group to handle 3 events, got %d", delivery.Load())
	}
	if audit.Load() != 3 {
		t.Fatalf("expected audit group to handle 3 events, got %d", audit.Load())
	}
}

func TestKafkaPublishWithoutSubscribers(t *testing.T) {
	bus, _ := NewKafka(nil, nil)
	if err := bus.Publish(context.Background(), "campaign.created", ports.EventEnvelope{EventID: "evt"}); err != nil {
		t.Fatalf("publish without subscribers: %v", err)
	}
	if err := bus.Publish(context.Background(), " ", ports.EventEnvelope{}); err == nil {
		t.Fatalf("expected empty topic to be rejected")
	}
}

func TestKafkaGroupRemovedAfterLastMemberLeaves(t *testing.T) {
	bus, _ := NewKafka(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	noop := func(context.Context, ports.EventEnvelope) error { return nil }
	if err := bus.Subscribe(ctx, "campaign.created", "cg", noop); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		bus.mu.RLock()
		remaining := len(bus.groups["campaign.created"])
		bus.mu.RUnlock()
		if remaining == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected consumer group to be removed after cancellation")
}

func TestKafkaPublishFailsWhenGroupBufferStaysFull(t *testing.T) {
	bus, _ := NewKafka(nil, nil)
	group := &groupState{events: make(chan ports.EventEnvelope, 1), members: 1}
	bus.groups["notification.created"] = map[string]*groupState{"slow-cg": group}

	if err := bus.Publish(context.Background(), "notification.created", ports.EventEnvelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish into free buffer: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := bus.Publish(ctx, "notification.created", ports.EventEnvelope{EventID: "evt-2"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected full buffer to fail the publish, got %v", err)
	}

	if got := <-group.events; got.EventID != "evt-1" {
		t.Fatalf("expected buffered event evt-1, got %s", got.EventID)
	}
	if err := bus.Publish(context.Background(), "notification.created", ports.EventEnvelope{EventID: "evt-2"}); err != nil {
		t.Fatalf("publish after drain: %v", err)
	}
	if got := <-group.events; got.EventID != "evt-2" {
		t.Fatalf("expected republished evt-2, got %s", got.EventID)
	}
}
