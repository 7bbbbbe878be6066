// Package worker turns published notification events into per-user inbox
// messages. The worker only renders and stores what the engine already
// decided; it never re-derives obligation state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bluemoon/internal/amqp"
	"bluemoon/internal/core"
	"bluemoon/internal/storage"
)

// InboxStore persists rendered messages.
type InboxStore interface {
	SaveInboxMessages(ctx context.Context, msgs []storage.InboxMessage) error
}

// FeeReader resolves fee names for message rendering.
type FeeReader interface {
	FeeByID(ctx context.Context, id int64) (core.FeeDefinition, error)
}

type InboxWorker struct {
	store InboxStore
	fees  FeeReader
}

func NewInboxWorker(store InboxStore, fees FeeReader) *InboxWorker {
	return &InboxWorker{store: store, fees: fees}
}

// HandleBatch renders every event of one batch and stores the result
// atomically. Returning an error requeues the batch; storage absorbs
// duplicates by event id, so redelivery is safe.
func (w *InboxWorker) HandleBatch(ctx context.Context, msg *amqp.NotificationBatchMessage) error {
	slog.InfoContext(ctx, "Processing notification batch",
		"batch_id", msg.BatchID,
		"source", msg.Source,
		"events", len(msg.Events))

	rendered := make([]storage.InboxMessage, 0, len(msg.Events))
	for _, ev := range msg.Events {
		if !ev.Kind.Valid() {
			slog.WarnContext(ctx, "Dropping event with unknown kind",
				"event_id", ev.ID,
				"kind", ev.Kind,
				"batch_id", msg.BatchID)
			continue
		}

		feeName, validTo, err := w.feeDetails(ctx, ev.RelatedFeeID)
		if err != nil {
			return fmt.Errorf("resolve fee %d: %w", ev.RelatedFeeID, err)
		}

		title, body := renderMessage(ev.Kind, feeName, validTo)
		rendered = append(rendered, storage.InboxMessage{
			ID:          ev.ID,
			UserID:      ev.AudienceUserID,
			Kind:        string(ev.Kind),
			FeeID:       ev.RelatedFeeID,
			Title:       title,
			Body:        body,
			ScheduledAt: ev.ScheduledAt,
		})
	}

	if len(rendered) == 0 {
		return nil
	}
	if err := w.store.SaveInboxMessages(ctx, rendered); err != nil {
		return fmt.Errorf("save inbox messages: %w", err)
	}

	slog.InfoContext(ctx, "Notification batch stored",
		"batch_id", msg.BatchID,
		"messages", len(rendered))
	return nil
}

// feeDetails tolerates a fee that has been removed since the event was
// published: the message is still worth delivering.
func (w *InboxWorker) feeDetails(ctx context.Context, feeID int64) (string, string, error) {
	fee, err := w.fees.FeeByID(ctx, feeID)
	if errors.Is(err, core.ErrUnknownFee) {
		return "khoản thu", "", nil
	}
	if err != nil {
		return "", "", err
	}
	return fee.Name, fee.ValidTo.Format("02/01/2006"), nil
}

func renderMessage(kind core.NotificationKind, feeName, dueDate string) (title, body string) {
	switch kind {
	case core.KindFeeOpen:
		title = fmt.Sprintf("Đợt thu mới: %s", feeName)
		body = fmt.Sprintf("Đợt thu %q đã mở. Hạn nộp: %s.", feeName, dueDate)
	case core.KindContributionCall:
		title = fmt.Sprintf("Kêu gọi đóng góp: %s", feeName)
		body = fmt.Sprintf("Khoản đóng góp tự nguyện %q đang được tiếp nhận đến hết ngày %s.", feeName, dueDate)
	case core.KindPaymentConfirmed:
		title = "Đã ghi nhận thanh toán"
		body = fmt.Sprintf("Khoản nộp cho %q của hộ bạn đã được ghi nhận.", feeName)
	case core.KindDueSoon:
		title = fmt.Sprintf("Sắp đến hạn: %s", feeName)
		body = fmt.Sprintf("Đợt thu %q sẽ đóng vào ngày %s. Hộ bạn chưa hoàn thành nghĩa vụ.", feeName, dueDate)
	}
	return title, body
}
