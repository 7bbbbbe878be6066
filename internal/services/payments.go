package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"bluemoon/internal/core"
)

// PaymentService orchestrates payment intake: validation, the all-or-nothing
// ledger append and the payment-confirmed notification. Appends for the same
// household+fee pair are serialized so concurrent intakes cannot race past
// the paid threshold.
type PaymentService struct {
	store    PaymentStore
	events   EventPublisher
	resolver *ObligationResolver

	locks sync.Map // "householdID/feeID" -> *sync.Mutex
}

// PaymentInput is the intake request for one ledger record.
type PaymentInput struct {
	HouseholdID int64
	FeeID       int64
	Amount      int64
	Method      core.PaymentMethod
	RecordedBy  string
	PaidAt      time.Time
}

func NewPaymentService(store PaymentStore, events EventPublisher, resolver *ObligationResolver) *PaymentService {
	return &PaymentService{store: store, events: events, resolver: resolver}
}

// RecordPayment validates, appends and classifies one payment. Validation
// and consistency failures never reach the ledger. The returned status
// reflects the running total including the new record.
func (s *PaymentService) RecordPayment(ctx context.Context, in PaymentInput) (core.PaymentRecord, core.ObligationStatus, error) {
	rec := core.PaymentRecord{
		ID:          uuid.NewString(),
		HouseholdID: in.HouseholdID,
		FeeID:       in.FeeID,
		Amount:      core.Money{Amount: in.Amount},
		Method:      in.Method,
		RecordedBy:  in.RecordedBy,
		PaidAt:      in.PaidAt,
	}
	if rec.PaidAt.IsZero() {
		rec.PaidAt = time.Now().UTC()
	}
	if err := rec.Validate(); err != nil {
		return core.PaymentRecord{}, core.ObligationStatus{}, err
	}

	fee, err := s.store.FeeByID(ctx, in.FeeID)
	if err != nil {
		return core.PaymentRecord{}, core.ObligationStatus{}, fmt.Errorf("resolve fee: %w", err)
	}
	household, err := s.store.HouseholdByID(ctx, in.HouseholdID)
	if err != nil {
		return core.PaymentRecord{}, core.ObligationStatus{}, fmt.Errorf("resolve household: %w", err)
	}
	if !fee.Active {
		return core.PaymentRecord{}, core.ObligationStatus{}, core.ErrFeeInactive
	}
	if !fee.WindowContains(rec.PaidAt) {
		return core.PaymentRecord{}, core.ObligationStatus{}, core.ErrInvalidFeeWindow
	}

	members, err := s.store.MembersOf(ctx, in.HouseholdID)
	if err != nil {
		return core.PaymentRecord{}, core.ObligationStatus{}, fmt.Errorf("load members: %w", err)
	}

	// The append and the classification read for this pair form one
	// critical section.
	mu := s.pairLock(in.HouseholdID, in.FeeID)
	mu.Lock()
	if err := s.store.AppendPayment(ctx, rec); err != nil {
		mu.Unlock()
		return core.PaymentRecord{}, core.ObligationStatus{}, fmt.Errorf("append payment: %w", err)
	}
	paid, err := s.store.PaidTotal(ctx, in.HouseholdID, in.FeeID)
	mu.Unlock()
	if err != nil {
		return rec, core.ObligationStatus{}, fmt.Errorf("read paid total: %w", err)
	}

	status, _, err := s.resolver.Status(fee, in.HouseholdID, members, paid, fee.ValidTo)
	if err != nil {
		return rec, core.ObligationStatus{}, fmt.Errorf("classify settlement: %w", err)
	}

	s.confirmPayment(ctx, household, fee)

	slog.InfoContext(ctx, "Payment recorded",
		"payment_id", rec.ID,
		"household_id", in.HouseholdID,
		"fee_id", in.FeeID,
		"amount", in.Amount,
		"state", status.State)

	return rec, status, nil
}

// confirmPayment publishes the payment-confirmed event to the household's
// responsible user. Publish failures never fail the intake; the record is
// already on the ledger.
func (s *PaymentService) confirmPayment(ctx context.Context, household core.Household, fee core.FeeDefinition) {
	if s.events == nil {
		return
	}
	if household.HeadUserID == nil {
		slog.WarnContext(ctx, "Household has no responsible user, skipping confirmation",
			"household_id", household.ID,
			"fee_id", fee.ID)
		return
	}
	event := core.NotificationEvent{
		ID:             uuid.NewString(),
		AudienceUserID: *household.HeadUserID,
		Kind:           core.KindPaymentConfirmed,
		RelatedFeeID:   fee.ID,
		ScheduledAt:    time.Now().UTC(),
	}
	if err := s.events.PublishNotificationBatch(ctx, "payment-intake", []core.NotificationEvent{event}); err != nil {
		slog.ErrorContext(ctx, "Failed to publish payment confirmation",
			"household_id", household.ID,
			"fee_id", fee.ID,
			"error", err)
	}
}

func (s *PaymentService) pairLock(householdID, feeID int64) *sync.Mutex {
	key := fmt.Sprintf("%d/%d", householdID, feeID)
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}
