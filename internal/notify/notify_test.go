package notify

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type recordSink struct {
	mu       sync.Mutex
	messages []Message
	delivery chan struct{}
}

func newRecordSink() *recordSink {
	return &recordSink{delivery: make(chan struct{}, 64)}
}

func (s *recordSink) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.delivery <- struct{}{}
	return nil
}

func (s *recordSink) all() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func waitDelivery(t *testing.T, s *recordSink) {
	t.Helper()
	select {
	case <-s.delivery:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDispatcherDelivers(t *testing.T) {
	sink := newRecordSink()
	d := NewDispatcher(sink, quietLogger(), Config{
		SubjectPrefix: "[Oblog]",
		Sender:        "noreply@example.com",
	})
	d.Start()
	defer d.Stop()

	d.Notify("alice@example.com", "Hello", TemplateConfirm, map[string]any{"token": "abc"})
	waitDelivery(t, sink)

	msgs := sink.all()
	if len(msgs) != 1 {
		t.Fatalf("delivered %d messages, want 1", len(msgs))
	}
	msg := msgs[0]
	if msg.To != "alice@example.com" {
		t.Errorf("To = %q", msg.To)
	}
	if msg.Subject != "[Oblog] Hello" {
		t.Errorf("Subject = %q, want prefixed", msg.Subject)
	}
	if msg.Data["token"] != "abc" {
		t.Errorf("Data[token] = %v", msg.Data["token"])
	}
	if msg.Data["sender"] != "noreply@example.com" {
		t.Errorf("Data[sender] = %v", msg.Data["sender"])
	}
}

func TestNotifyCopiesData(t *testing.T) {
	sink := newRecordSink()
	d := NewDispatcher(sink, quietLogger(), Config{})
	d.Start()
	defer d.Stop()

	data := map[string]any{"token": "abc"}
	d.Notify("alice@example.com", "Hello", TemplateConfirm, data)
	data["token"] = "mutated"

	waitDelivery(t, sink)
	if got := sink.all()[0].Data["token"]; got != "abc" {
		t.Errorf("Data[token] = %v, caller mutation leaked through", got)
	}
}

func TestNotifyDropsOnFullQueue(t *testing.T) {
	sink := newRecordSink()
	d := NewDispatcher(sink, quietLogger(), Config{QueueSize: 1})
	// Not started: nothing drains the queue, so the second message overflows.

	d.Notify("a@example.com", "one", TemplateConfirm, nil)
	d.Notify("b@example.com", "two", TemplateConfirm, nil) // dropped, must not block

	d.Start()
	waitDelivery(t, sink)
	d.Stop()

	msgs := sink.all()
	if len(msgs) != 1 || msgs[0].To != "a@example.com" {
		t.Errorf("delivered %v, want only the first message", msgs)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	d := NewDispatcher(LogSink{Logger: quietLogger()}, quietLogger(), Config{})
	d.Start()
	d.Start()
	d.Stop()
	d.Stop()
}
