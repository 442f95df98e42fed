package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"property_submission/internal/domain"
)

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
	closed        bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error { f.closed = true; return nil }

func TestPublisher_RoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	p := newWithChannel("listings", ch)

	ev := domain.LifecycleEvent{Type: domain.EventPublished, PropertyID: "abc", OwnerID: "u1", Status: domain.StatusActive}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ch.exchange != "listings" || ch.key != "property.published" {
		t.Fatalf("routed to %q/%q", ch.exchange, ch.key)
	}
	if ch.msg.DeliveryMode != amqp.Persistent || ch.msg.MessageId == "" {
		t.Fatalf("message not persistent or missing id: %+v", ch.msg)
	}
	var got domain.LifecycleEvent
	if err := json.Unmarshal(ch.msg.Body, &got); err != nil || got != ev {
		t.Fatalf("body: %+v, %v", got, err)
	}
}

func TestPublisher_WrapsBrokerErrorsAndCloses(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newWithChannel("listings", ch)

	if err := p.Publish(context.Background(), domain.LifecycleEvent{Type: domain.EventDraftSaved}); err == nil {
		t.Fatalf("expected error")
	}
	if err := p.Close(); err != nil || !ch.closed {
		t.Fatalf("close: %v closed=%v", err, ch.closed)
	}
	if err := p.Publish(context.Background(), domain.LifecycleEvent{Type: domain.EventDraftSaved}); err == nil {
		t.Fatalf("publish after close should fail")
	}
}
