package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quote-management-api/internal/metrics"
	"quote-management-api/internal/repo"
	"quote-management-api/internal/repo/repo_errors"
)

const paymentStatusComplete = "COMPLETE"

var (
	// ErrBadSignature means the callback failed signature verification and
	// must be rejected with a client error.
	ErrBadSignature = errors.New("payment notification signature mismatch")

	// ErrNotConfigured means the gateway secrets are missing; the endpoint
	// cannot verify anything and must fail server-side.
	ErrNotConfigured = errors.New("payment gateway passphrase not configured")
)

type Processor struct {
	subscriptions repo.Subscription
	merchantId    string
	merchantKey   string
	passphrase    string
	notifyUrl     string
	log           zerolog.Logger
	metrics       *metrics.Metrics
}

func NewProcessor(subscriptions repo.Subscription, merchantId, merchantKey, passphrase, notifyUrl string, log zerolog.Logger, m *metrics.Metrics) *Processor {
	return &Processor{
		subscriptions: subscriptions,
		merchantId:    merchantId,
		merchantKey:   merchantKey,
		passphrase:    passphrase,
		notifyUrl:     notifyUrl,
		log:           log.With().Str("component", "payment").Logger(),
		metrics:       m,
	}
}

// NotifyUrl is the public callback address handed to the gateway at
// checkout time.
func (p *Processor) NotifyUrl() string {
	return p.notifyUrl
}

// HandleNotification processes one ITN callback. The gateway expects a 200
// acknowledgement for every verified callback, including ones we cannot
// match to a subscription, so unmatched and replayed tokens log a warning
// and return nil.
func (p *Processor) HandleNotification(ctx context.Context, fields map[string]string) error {
	if p.passphrase == "" {
		p.metrics.PaymentResult("misconfigured")
		return ErrNotConfigured
	}

	if !VerifySignature(fields, p.passphrase) {
		p.metrics.PaymentResult("bad-signature")
		return ErrBadSignature
	}

	if fields["payment_status"] != paymentStatusComplete {
		p.log.Info().
			Str("paymentStatus", fields["payment_status"]).
			Str("paymentId", fields["m_payment_id"]).
			Msg("ignoring non-complete payment notification")
		p.metrics.PaymentResult("ignored")
		return nil
	}

	token := fields["m_payment_id"]
	err := p.subscriptions.ActivateSubscriptionByToken(ctx, token, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) || errors.Is(err, repo_errors.ErrStaleState) {
			p.log.Warn().
				Str("paymentId", token).
				Msg("no pending subscription matches payment notification")
			p.metrics.PaymentResult("unmatched")
			return nil
		}

		return err
	}

	p.log.Info().Str("paymentId", token).Msg("subscription activated")
	p.metrics.PaymentResult("activated")

	return nil
}

// CheckoutFields builds the signed form fields for a subscription checkout
// redirect and records the pending subscription keyed by the payment token.
func (p *Processor) CheckoutFields(ctx context.Context, vendorId string, plan string, amountCents int64, notifyUrl string) (map[string]string, error) {
	if p.merchantId == "" || p.merchantKey == "" {
		return nil, ErrNotConfigured
	}

	token := uuid.NewString()
	if _, err := p.subscriptions.CreateSubscription(ctx, vendorId, plan, token, amountCents); err != nil {
		return nil, fmt.Errorf("create pending subscription: %w", err)
	}

	fields := map[string]string{
		"merchant_id":  p.merchantId,
		"merchant_key": p.merchantKey,
		"m_payment_id": token,
		"amount":       strconv.FormatFloat(float64(amountCents)/100, 'f', 2, 64),
		"item_name":    plan,
		"notify_url":   notifyUrl,
	}
	fields["signature"] = Signature(fields, p.passphrase)

	return fields, nil
}
