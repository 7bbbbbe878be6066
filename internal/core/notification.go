package core

import "time"

const (
	KindFeeOpen          NotificationKind = "fee-open"
	KindPaymentConfirmed NotificationKind = "payment-confirmed"
	KindContributionCall NotificationKind = "contribution-call"
	KindDueSoon          NotificationKind = "due-soon"
)

type (
	NotificationKind string

	// NotificationEvent is the engine's output toward the notification
	// storage collaborator: the decision that a user must be notified,
	// not the delivery itself.
	NotificationEvent struct {
		ID             string           `json:"id"`
		AudienceUserID int64            `json:"audience_user_id"`
		Kind           NotificationKind `json:"kind"`
		RelatedFeeID   int64            `json:"related_fee_id"`
		ScheduledAt    time.Time        `json:"scheduled_at"`
	}
)

func (k NotificationKind) Valid() bool {
	switch k {
	case KindFeeOpen, KindPaymentConfirmed, KindContributionCall, KindDueSoon:
		return true
	}
	return false
}
