package common

// RequestStatus is the lifecycle label of a quote request. Note that the
// request-level vocabulary deliberately differs from the revision-level one:
// an accepted revision finalises its request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestQuoted    RequestStatus = "quoted"
	RequestFinalised RequestStatus = "finalised"
	RequestRejected  RequestStatus = "rejected"
)

func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case RequestPending, RequestQuoted, RequestFinalised, RequestRejected:
		return true
	default:
		return false
	}
}

// RevisionStatus is the lifecycle label of a single priced offer. A sent
// revision that gets replaced by a newer one becomes superseded; only
// accepted and rejected are responses from the client.
type RevisionStatus string

const (
	RevisionDraft      RevisionStatus = "draft"
	RevisionSent       RevisionStatus = "sent"
	RevisionAccepted   RevisionStatus = "accepted"
	RevisionRejected   RevisionStatus = "rejected"
	RevisionSuperseded RevisionStatus = "superseded"
)

func ValidRevisionStatus(s RevisionStatus) bool {
	switch s {
	case RevisionDraft, RevisionSent, RevisionAccepted, RevisionRejected, RevisionSuperseded:
		return true
	default:
		return false
	}
}

// Terminal reports whether the revision can never change again.
func (s RevisionStatus) Terminal() bool {
	return s == RevisionAccepted || s == RevisionRejected
}

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func ValidDecision(d Decision) bool {
	return d == DecisionAccept || d == DecisionReject
}

// NotificationKind names the outbound notifications fired after committed
// state transitions.
type NotificationKind string

const (
	NotifyQuoteCreatedClient  NotificationKind = "quote-created-client"
	NotifyQuoteRevisedClient  NotificationKind = "quote-revised-client"
	NotifyQuoteAcceptedVendor NotificationKind = "quote-accepted-vendor"
	NotifyQuoteRejectedVendor NotificationKind = "quote-rejected-vendor"
	NotifyQuoteReminderVendor NotificationKind = "quote-reminder-vendor"
)

type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)
