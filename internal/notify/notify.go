// Package notify delivers best-effort notifications after committed quote
// transitions. Delivery is asynchronous and at-most-once: a transition never
// waits on, or is rolled back by, its notification.
package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"quote-management-api/internal/common"
	"quote-management-api/internal/metrics"
)

// Payload carries the facts of a transition to the recipient.
type Payload struct {
	QuoteRequestId string
	RevisionId     string
	AmountCents    int64
	// Message is the human-readable description or feedback, when present.
	Message string
	// RecipientEmail may be empty; senders fall back to lookup or logging.
	RecipientEmail string
}

// Dispatcher accepts a notification for eventual delivery. Implementations
// must not block the caller on delivery.
type Dispatcher interface {
	Notify(kind common.NotificationKind, payload Payload)
}

// Sender performs the actual delivery of a single notification.
type Sender interface {
	Send(kind common.NotificationKind, payload Payload) error
}

const queueSize = 256

// Outbox queues notifications and drains them on a background worker.
// Send failures are logged and counted, never surfaced; a full queue drops
// the notification (best-effort, at-most-once).
type Outbox struct {
	sender  Sender
	log     zerolog.Logger
	metrics *metrics.Metrics

	queue chan envelope
	wg    sync.WaitGroup
}

type envelope struct {
	kind    common.NotificationKind
	payload Payload
}

func NewOutbox(sender Sender, log zerolog.Logger, m *metrics.Metrics) *Outbox {
	return &Outbox{
		sender:  sender,
		log:     log.With().Str("component", "notify").Logger(),
		metrics: m,
		queue:   make(chan envelope, queueSize),
	}
}

// Start launches the delivery worker. It drains until the context is
// cancelled, then finishes whatever is already queued.
func (o *Outbox) Start(ctx context.Context) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-ctx.Done():
				o.drain()
				return
			case e := <-o.queue:
				o.deliver(e)
			}
		}
	}()
}

// Wait blocks until the worker has stopped. Call after cancelling the
// context passed to Start.
func (o *Outbox) Wait() {
	o.wg.Wait()
}

func (o *Outbox) Notify(kind common.NotificationKind, payload Payload) {
	select {
	case o.queue <- envelope{kind: kind, payload: payload}:
	default:
		o.log.Warn().
			Str("kind", string(kind)).
			Str("requestId", payload.QuoteRequestId).
			Msg("notification queue full, dropping")
		o.metrics.Notification(string(kind), false)
	}
}

func (o *Outbox) drain() {
	for {
		select {
		case e := <-o.queue:
			o.deliver(e)
		default:
			return
		}
	}
}

func (o *Outbox) deliver(e envelope) {
	if err := o.sender.Send(e.kind, e.payload); err != nil {
		o.log.Error().
			Err(err).
			Str("kind", string(e.kind)).
			Str("requestId", e.payload.QuoteRequestId).
			Str("revisionId", e.payload.RevisionId).
			Msg("notification delivery failed")
		o.metrics.Notification(string(e.kind), false)
		return
	}

	o.metrics.Notification(string(e.kind), true)
}
