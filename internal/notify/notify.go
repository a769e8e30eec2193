// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify delivers outbound user notifications (confirmation links,
// password resets) off the request path. Dispatch is fire-and-forget: the
// triggering operation never blocks on delivery and never sees a delivery
// failure.
package notify

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"
)

// Template keys for outbound messages.
const (
	TemplateConfirm     = "auth/confirm"
	TemplateResetPwd    = "auth/reset_password"
	TemplateChangeEmail = "auth/change_email"
)

// Message is a single outbound notification. Data holds template values
// copied out of the triggering request; a Message never references a request
// context.
type Message struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

// Sink is the delivery backend. Real SMTP transport lives outside this
// repository; the default sink logs the message.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// LogSink writes messages to the log instead of delivering them.
type LogSink struct {
	Logger *slog.Logger
}

// Send implements Sink.
func (s LogSink) Send(_ context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification",
		"to", msg.To,
		"subject", msg.Subject,
		"template", msg.Template,
		"data", msg.Data,
	)
	return nil
}

// Config holds dispatcher configuration.
type Config struct {
	Workers       int // Number of concurrent delivery workers
	QueueSize     int // Bounded queue length; overflow drops the message
	SubjectPrefix string
	Sender        string
	SendTimeout   time.Duration
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:     2,
		QueueSize:   100,
		SendTimeout: 10 * time.Second,
	}
}

// Dispatcher queues messages and delivers them on a worker pool.
type Dispatcher struct {
	sink    Sink
	logger  *slog.Logger
	cfg     Config
	queue   chan Message
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.Mutex
	running bool
}

// NewDispatcher creates a notification dispatcher delivering to sink.
func NewDispatcher(sink Sink, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		sink:   sink,
		logger: logger,
		cfg:    cfg,
		queue:  make(chan Message, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Start starts the delivery workers.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting notification dispatcher", "workers", d.cfg.Workers)

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop stops the dispatcher and waits for in-flight deliveries to finish.
// Queued but undelivered messages are dropped; delivery is at-most-once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.done)
	d.wg.Wait()
	d.logger.Info("notification dispatcher stopped")
}

// Notify enqueues a message. It never blocks: when the queue is full the
// message is dropped and logged. Data is copied so the caller's map can be
// mutated or collected once the request ends.
func (d *Dispatcher) Notify(to, subject, template string, data map[string]any) {
	if d.cfg.SubjectPrefix != "" {
		subject = d.cfg.SubjectPrefix + " " + subject
	}
	msg := Message{
		To:       to,
		Subject:  subject,
		Template: template,
		Data:     maps.Clone(data),
	}
	if d.cfg.Sender != "" {
		if msg.Data == nil {
			msg.Data = map[string]any{}
		}
		msg.Data["sender"] = d.cfg.Sender
	}

	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("notification queue full, dropping message",
			"to", to, "template", template)
	}
}

// worker delivers queued messages until Stop is called.
func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	d.logger.Debug("notification worker started", "worker_id", id)

	for {
		select {
		case <-d.done:
			d.logger.Debug("notification worker stopping", "worker_id", id)
			return
		case msg := <-d.queue:
			ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
			if err := d.sink.Send(ctx, msg); err != nil {
				// Delivery failure is invisible to the caller; log and move on.
				d.logger.Warn("notification delivery failed",
					"to", msg.To, "template", msg.Template, "error", err)
			}
			cancel()
		}
	}
}
