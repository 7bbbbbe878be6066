package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bluemoon/internal/core"
)

// FeeService owns fee administration: creation, the active toggle and the
// announcement fan-out when a fee opens.
type FeeService struct {
	store  FeeStore
	events EventPublisher
}

func NewFeeService(store FeeStore, events EventPublisher) *FeeService {
	return &FeeService{store: store, events: events}
}

// CreateFee validates and persists a fee definition, then announces it to
// every active household's responsible user: fee-open for mandatory dues,
// contribution-call for voluntary contributions.
func (s *FeeService) CreateFee(ctx context.Context, fee core.FeeDefinition) (core.FeeDefinition, error) {
	if err := fee.Validate(); err != nil {
		return core.FeeDefinition{}, err
	}
	fee.Active = true

	created, err := s.store.CreateFee(ctx, fee)
	if err != nil {
		return core.FeeDefinition{}, fmt.Errorf("create fee: %w", err)
	}

	s.announce(ctx, created)
	return created, nil
}

// SetActive toggles the only mutable financial field of a fee.
func (s *FeeService) SetActive(ctx context.Context, id int64, active bool) error {
	if _, err := s.store.FeeByID(ctx, id); err != nil {
		return err
	}
	if err := s.store.SetFeeActive(ctx, id, active); err != nil {
		return fmt.Errorf("set fee active: %w", err)
	}
	return nil
}

func (s *FeeService) Get(ctx context.Context, id int64) (core.FeeDefinition, error) {
	return s.store.FeeByID(ctx, id)
}

func (s *FeeService) List(ctx context.Context) ([]core.FeeDefinition, error) {
	return s.store.ListFees(ctx)
}

func (s *FeeService) announce(ctx context.Context, fee core.FeeDefinition) {
	if s.events == nil {
		return
	}

	kind := core.KindFeeOpen
	if fee.Category == core.Voluntary {
		kind = core.KindContributionCall
	}

	households, err := s.store.ActiveHouseholds(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load households for fee announcement",
			"fee_id", fee.ID,
			"error", err)
		return
	}

	now := time.Now().UTC()
	var events []core.NotificationEvent
	for _, h := range households {
		if h.HeadUserID == nil {
			slog.WarnContext(ctx, "Household has no responsible user, skipping announcement",
				"household_id", h.ID,
				"fee_id", fee.ID)
			continue
		}
		events = append(events, core.NotificationEvent{
			ID:             uuid.NewString(),
			AudienceUserID: *h.HeadUserID,
			Kind:           kind,
			RelatedFeeID:   fee.ID,
			ScheduledAt:    now,
		})
	}
	if len(events) == 0 {
		return
	}

	if err := s.events.PublishNotificationBatch(ctx, "fee-admin", events); err != nil {
		slog.ErrorContext(ctx, "Failed to publish fee announcement",
			"fee_id", fee.ID,
			"kind", kind,
			"error", err)
		return
	}

	slog.InfoContext(ctx, "Fee announced",
		"fee_id", fee.ID,
		"kind", kind,
		"recipients", len(events))
}
