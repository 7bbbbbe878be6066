package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bluemoon/internal/core"
)

// DefaultLookaheadDays are the operational reminder points before a
// mandatory fee closes.
var DefaultLookaheadDays = []int{5, 2}

// ReminderScheduler is the daily batch that finds mandatory fees nearing
// closure and emits due-soon events for households still unpaid. Each
// (fee, lookahead, calendar-day) key fires at most once, tracked through
// the firing log.
type ReminderScheduler struct {
	snapshots  SnapshotLoader
	firings    FiringLog
	events     EventPublisher
	classifier *CompletionClassifier
	lookaheads []int
}

func NewReminderScheduler(snapshots SnapshotLoader, firings FiringLog, events EventPublisher, classifier *CompletionClassifier, lookaheads []int) *ReminderScheduler {
	if len(lookaheads) == 0 {
		lookaheads = DefaultLookaheadDays
	}
	return &ReminderScheduler{
		snapshots:  snapshots,
		firings:    firings,
		events:     events,
		classifier: classifier,
		lookaheads: lookaheads,
	}
}

// Run executes one batch for the given wall-clock time and returns the
// number of notification events emitted. Cancellation is honored at fee
// boundaries only: the current fee's household loop always completes.
func (s *ReminderScheduler) Run(ctx context.Context, now time.Time) (int, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}

	fees := snap.MandatoryFeesIn(core.Window{})
	day := core.DayKey(now)
	emitted := 0

	slog.InfoContext(ctx, "Reminder batch started",
		"fees", len(fees),
		"lookahead_days", s.lookaheads,
		"day", day)

	for _, fee := range fees {
		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "Reminder batch interrupted", "day", day, "emitted", emitted)
			return emitted, err
		}
		for _, lookahead := range s.lookaheads {
			n, err := s.runTrigger(ctx, snap, fee, lookahead, now, day)
			if err != nil {
				slog.ErrorContext(ctx, "Reminder trigger failed",
					"fee_id", fee.ID,
					"lookahead_days", lookahead,
					"error", err)
				continue
			}
			emitted += n
		}
	}

	slog.InfoContext(ctx, "Reminder batch complete", "day", day, "emitted", emitted)
	return emitted, nil
}

// runTrigger evaluates one (fee, lookahead) point: due today, not yet fired,
// and at least one household unpaid.
func (s *ReminderScheduler) runTrigger(ctx context.Context, snap Snapshot, fee core.FeeDefinition, lookahead int, now time.Time, day string) (int, error) {
	target := fee.ValidTo.AddDate(0, 0, -lookahead)
	if !core.SameDay(now, target) {
		return 0, nil
	}

	fired, err := s.firings.HasFired(ctx, fee.ID, lookahead, day)
	if err != nil {
		return 0, fmt.Errorf("check firing log: %w", err)
	}
	if fired {
		return 0, nil
	}

	events, unpaid := s.collectUnpaid(ctx, snap, fee, now)
	if unpaid == 0 {
		return 0, nil
	}

	if len(events) > 0 {
		if err := s.events.PublishNotificationBatch(ctx, "reminder-scheduler", events); err != nil {
			// Not recorded as fired; the next run retries the key.
			return 0, fmt.Errorf("publish reminder batch: %w", err)
		}
	}
	if err := s.firings.RecordFiring(ctx, fee.ID, lookahead, day); err != nil {
		return len(events), fmt.Errorf("record firing: %w", err)
	}

	slog.InfoContext(ctx, "Reminder fired",
		"fee_id", fee.ID,
		"fee", fee.Name,
		"lookahead_days", lookahead,
		"unpaid_households", unpaid,
		"events", len(events))

	return len(events), nil
}

// collectUnpaid builds the due-soon event batch: one event per unpaid
// household's responsible user. Households whose notification target cannot
// be resolved are skipped and logged; they never abort the batch.
func (s *ReminderScheduler) collectUnpaid(ctx context.Context, snap Snapshot, fee core.FeeDefinition, now time.Time) ([]core.NotificationEvent, int) {
	var events []core.NotificationEvent
	unpaid := 0
	for _, h := range snap.Households {
		st, inScope := s.classifier.FeeStatus(snap, h.ID, fee)
		if !inScope || st.State == core.Paid {
			continue
		}
		unpaid++
		if h.HeadUserID == nil {
			slog.WarnContext(ctx, "Unpaid household has no responsible user, skipping reminder",
				"household_id", h.ID,
				"fee_id", fee.ID)
			continue
		}
		events = append(events, core.NotificationEvent{
			ID:             uuid.NewString(),
			AudienceUserID: *h.HeadUserID,
			Kind:           core.KindDueSoon,
			RelatedFeeID:   fee.ID,
			ScheduledAt:    now.UTC(),
		})
	}
	return events, unpaid
}
