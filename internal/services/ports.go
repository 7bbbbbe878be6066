// Package services implements the fee obligation engine: obligation
// resolution, settlement classification, report aggregation, payment intake
// and the due-date reminder scheduler.
package services

import (
	"context"

	"bluemoon/internal/core"
)

// EventPublisher hands notification batches to the notification-storage
// collaborator. The engine decides that a user must be notified; delivery
// beyond the publish is external.
type EventPublisher interface {
	PublishNotificationBatch(ctx context.Context, source string, events []core.NotificationEvent) error
}

// SnapshotLoader produces a consistent point-in-time view of the ledger and
// registries for the pure report and classification paths.
type SnapshotLoader interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// FiringLog tracks which (fee, lookahead, calendar-day) reminder keys have
// already fired, making scheduler runs idempotent.
type FiringLog interface {
	HasFired(ctx context.Context, feeID int64, lookaheadDays int, day string) (bool, error)
	RecordFiring(ctx context.Context, feeID int64, lookaheadDays int, day string) error
}

// PaymentStore is the ledger surface needed by payment intake.
type PaymentStore interface {
	FeeByID(ctx context.Context, id int64) (core.FeeDefinition, error)
	HouseholdByID(ctx context.Context, id int64) (core.Household, error)
	MembersOf(ctx context.Context, householdID int64) ([]core.Member, error)
	AppendPayment(ctx context.Context, rec core.PaymentRecord) error
	PaidTotal(ctx context.Context, householdID, feeID int64) (core.Money, error)
}

// FeeStore is the catalog surface needed by fee administration.
type FeeStore interface {
	CreateFee(ctx context.Context, fee core.FeeDefinition) (core.FeeDefinition, error)
	FeeByID(ctx context.Context, id int64) (core.FeeDefinition, error)
	ListFees(ctx context.Context) ([]core.FeeDefinition, error)
	SetFeeActive(ctx context.Context, id int64, active bool) error
	ActiveHouseholds(ctx context.Context) ([]core.Household, error)
}
