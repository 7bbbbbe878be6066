package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bluemoon/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "bluemoon.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestFeeRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateFee(ctx, core.FeeDefinition{
		Name:      "Phí quản lý",
		Category:  core.Mandatory,
		UnitPrice: core.Money{Amount: 20000},
		ValidFrom: date(2025, 1, 1),
		ValidTo:   date(2025, 1, 31),
		Active:    true,
	})
	if err != nil {
		t.Fatalf("create fee: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("fee id not assigned")
	}

	got, err := repo.FeeByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get fee: %v", err)
	}
	if got.Name != created.Name || got.UnitPrice.Amount != 20000 || !got.Active {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.ValidFrom.Equal(created.ValidFrom) || !got.ValidTo.Equal(created.ValidTo) {
		t.Fatalf("window mismatch: %+v", got)
	}

	if err := repo.SetFeeActive(ctx, created.ID, false); err != nil {
		t.Fatalf("set active: %v", err)
	}
	got, _ = repo.FeeByID(ctx, created.ID)
	if got.Active {
		t.Fatalf("fee should be inactive")
	}

	if _, err := repo.FeeByID(ctx, 999); !errors.Is(err, core.ErrUnknownFee) {
		t.Fatalf("expected ErrUnknownFee, got %v", err)
	}
	if err := repo.SetFeeActive(ctx, 999, true); !errors.Is(err, core.ErrUnknownFee) {
		t.Fatalf("expected ErrUnknownFee, got %v", err)
	}
}

func TestHouseholdAndMembers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	head := int64(9)
	h, err := repo.CreateHousehold(ctx, core.Household{
		Code: "HK-001", Status: core.HouseholdActive, HeadUserID: &head,
	})
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	headless, err := repo.CreateHousehold(ctx, core.Household{
		Code: "HK-002", Status: core.HouseholdInactive,
	})
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	got, err := repo.HouseholdByID(ctx, h.ID)
	if err != nil {
		t.Fatalf("get household: %v", err)
	}
	if got.HeadUserID == nil || *got.HeadUserID != head {
		t.Fatalf("head user lost in round trip: %+v", got)
	}
	got, _ = repo.HouseholdByID(ctx, headless.ID)
	if got.HeadUserID != nil {
		t.Fatalf("absent head must stay nil")
	}

	active, err := repo.ActiveHouseholds(ctx)
	if err != nil {
		t.Fatalf("active households: %v", err)
	}
	if len(active) != 1 || active[0].ID != h.ID {
		t.Fatalf("expected only HK-001 active, got %+v", active)
	}

	m, err := repo.AddMember(ctx, core.Member{
		HouseholdID: h.ID, FullName: "Nguyễn Văn An",
		LifeStatus: core.Resident, JoinedAt: date(2020, 1, 1),
	})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := repo.AddMember(ctx, core.Member{HouseholdID: 999, LifeStatus: core.Resident, JoinedAt: date(2020, 1, 1)}); !errors.Is(err, core.ErrUnknownHousehold) {
		t.Fatalf("expected ErrUnknownHousehold, got %v", err)
	}

	left := date(2025, 6, 1)
	if err := repo.SetMemberLifeStatus(ctx, m.ID, core.MovedOut, &left); err != nil {
		t.Fatalf("set life status: %v", err)
	}
	members, err := repo.MembersOf(ctx, h.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 || members[0].LifeStatus != core.MovedOut {
		t.Fatalf("unexpected roster: %+v", members)
	}
	if members[0].LeftAt == nil || !members[0].LeftAt.Equal(left) {
		t.Fatalf("left_at lost in round trip: %+v", members[0])
	}
}

func TestLedgerAndSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	fee, _ := repo.CreateFee(ctx, core.FeeDefinition{
		Name: "Phí quản lý", Category: core.Mandatory,
		UnitPrice: core.Money{Amount: 20000},
		ValidFrom: date(2025, 1, 1), ValidTo: date(2025, 1, 31), Active: true,
	})
	h, _ := repo.CreateHousehold(ctx, core.Household{Code: "HK-001", Status: core.HouseholdActive})
	if _, err := repo.AddMember(ctx, core.Member{
		HouseholdID: h.ID, FullName: "Trần Thị Bình",
		LifeStatus: core.Resident, JoinedAt: date(2020, 1, 1),
	}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	for i, amount := range []int64{30000, 50000} {
		err := repo.AppendPayment(ctx, core.PaymentRecord{
			ID: "pay-" + string(rune('a'+i)), HouseholdID: h.ID, FeeID: fee.ID,
			Amount: core.Money{Amount: amount}, Method: core.Online,
			RecordedBy: "ketoan", PaidAt: date(2025, 1, 10+i),
		})
		if err != nil {
			t.Fatalf("append payment: %v", err)
		}
	}

	total, err := repo.PaidTotal(ctx, h.ID, fee.ID)
	if err != nil {
		t.Fatalf("paid total: %v", err)
	}
	if total.Amount != 80000 {
		t.Fatalf("paid total = %d, want 80000", total.Amount)
	}

	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Fees) != 1 || len(snap.Households) != 1 || len(snap.Members) != 1 || len(snap.Payments) != 2 {
		t.Fatalf("snapshot shape: %d fees, %d households, %d members, %d payments",
			len(snap.Fees), len(snap.Households), len(snap.Members), len(snap.Payments))
	}
	if snap.PaidTotal(h.ID, fee.ID).Amount != 80000 {
		t.Fatalf("snapshot paid total mismatch")
	}
}

func TestFiringLog(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	fired, err := repo.HasFired(ctx, 1, 5, "2025-01-26")
	if err != nil {
		t.Fatalf("has fired: %v", err)
	}
	if fired {
		t.Fatalf("fresh log must be empty")
	}

	if err := repo.RecordFiring(ctx, 1, 5, "2025-01-26"); err != nil {
		t.Fatalf("record firing: %v", err)
	}
	// Recording the same key twice is a no-op.
	if err := repo.RecordFiring(ctx, 1, 5, "2025-01-26"); err != nil {
		t.Fatalf("repeat record firing: %v", err)
	}

	fired, _ = repo.HasFired(ctx, 1, 5, "2025-01-26")
	if !fired {
		t.Fatalf("firing not recorded")
	}
	if fired, _ = repo.HasFired(ctx, 1, 2, "2025-01-29"); fired {
		t.Fatalf("other lookahead must be independent")
	}
}

func TestInboxPersistence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	msgs := []InboxMessage{
		{ID: "n-1", UserID: 9, Kind: "fee-open", FeeID: 1, Title: "Đợt thu mới", Body: "x", ScheduledAt: date(2025, 1, 1)},
		{ID: "n-2", UserID: 9, Kind: "due-soon", FeeID: 1, Title: "Sắp đến hạn", Body: "y", ScheduledAt: date(2025, 1, 26)},
		{ID: "n-3", UserID: 8, Kind: "fee-open", FeeID: 1, Title: "Đợt thu mới", Body: "z", ScheduledAt: date(2025, 1, 1)},
	}
	if err := repo.SaveInboxMessages(ctx, msgs); err != nil {
		t.Fatalf("save inbox: %v", err)
	}
	// Re-delivery of the same batch must not duplicate rows.
	if err := repo.SaveInboxMessages(ctx, msgs); err != nil {
		t.Fatalf("re-save inbox: %v", err)
	}

	got, err := repo.InboxFor(ctx, 9, 0)
	if err != nil {
		t.Fatalf("inbox for: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages for user 9, got %d", len(got))
	}
	for _, m := range got {
		if m.Read {
			t.Fatalf("fresh messages must be unread")
		}
	}

	if err := repo.MarkInboxRead(ctx, "n-1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	got, _ = repo.InboxFor(ctx, 9, 0)
	var readCount int
	for _, m := range got {
		if m.Read {
			readCount++
		}
	}
	if readCount != 1 {
		t.Fatalf("expected exactly 1 read message, got %d", readCount)
	}
}
