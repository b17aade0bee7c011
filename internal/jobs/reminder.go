// Package jobs runs scheduled background work.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"quote-management-api/internal/common"
	"quote-management-api/internal/notify"
	"quote-management-api/internal/repo"
)

const sweepBatchSize = 100

// Reminder periodically nudges vendors about quote requests that are still
// pending past a configured age. Purely advisory: it mutates nothing.
type Reminder struct {
	requests   repo.QuoteRequest
	vendors    repo.Vendor
	dispatcher notify.Dispatcher
	age        time.Duration
	log        zerolog.Logger
	cron       *cron.Cron
}

func NewReminder(requests repo.QuoteRequest, vendors repo.Vendor, dispatcher notify.Dispatcher, age time.Duration, log zerolog.Logger) *Reminder {
	return &Reminder{
		requests:   requests,
		vendors:    vendors,
		dispatcher: dispatcher,
		age:        age,
		log:        log.With().Str("component", "reminder").Logger(),
		cron:       cron.New(),
	}
}

// Start schedules the sweep with a standard 5-field cron expression.
func (r *Reminder) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, r.sweep); err != nil {
		return err
	}
	r.cron.Start()

	return nil
}

func (r *Reminder) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Reminder) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-r.age)
	requests, err := r.requests.GetStalePendingRequests(ctx, cutoff, sweepBatchSize)
	if err != nil {
		r.log.Error().Err(err).Msg("stale request sweep failed")
		return
	}

	for _, request := range requests {
		payload := notify.Payload{
			QuoteRequestId: request.Id.String(),
			AmountCents:    request.BudgetCents,
			Message:        request.EventType,
		}
		if vendor, err := r.vendors.GetVendorById(ctx, request.VendorId.String()); err == nil {
			payload.RecipientEmail = vendor.Email
		}
		r.dispatcher.Notify(common.NotifyQuoteReminderVendor, payload)
	}

	if len(requests) > 0 {
		r.log.Info().Int("count", len(requests)).Msg("sent pending quote reminders")
	}
}
