package services

import (
	"testing"
	"time"

	"bluemoon/internal/core"
	"bluemoon/internal/fixture"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestExpectedAmount(t *testing.T) {
	resolver := NewObligationResolver(core.DefaultBillingPolicy())
	asOf := date(2025, 1, 15)

	b := fixture.NewBuilder(1)
	h := b.Household("HK-001")
	b.Member(h, core.Resident)
	b.Member(h, core.Resident)
	b.Member(h, core.TemporarilyAbsent)
	b.Member(h, core.Resident)
	b.Member(h, core.MovedOut)
	b.Member(h, core.Deceased)
	fee := b.MandatoryFee("Phí quản lý", 20000, date(2025, 1, 1), date(2025, 1, 31))

	got, err := resolver.Expected(fee, b.Members(), asOf)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	// 20000 × 4 billable members (moved-out and deceased excluded).
	if got.Amount != 80000 {
		t.Fatalf("expected 80000, got %d", got.Amount)
	}
}

func TestExpectedRespectsMembershipPeriod(t *testing.T) {
	resolver := NewObligationResolver(core.DefaultBillingPolicy())

	b := fixture.NewBuilder(1)
	h := b.Household("HK-001")
	b.Member(h, core.Resident)
	b.MemberLeaving(h, core.Resident, date(2025, 1, 10))
	fee := b.MandatoryFee("Phí quản lý", 20000, date(2025, 1, 1), date(2025, 1, 31))

	before, err := resolver.Expected(fee, b.Members(), date(2025, 1, 5))
	if err != nil || before.Amount != 40000 {
		t.Fatalf("before leaving expected 40000, got %d (err=%v)", before.Amount, err)
	}
	after, err := resolver.Expected(fee, b.Members(), date(2025, 1, 20))
	if err != nil || after.Amount != 20000 {
		t.Fatalf("after leaving expected 20000, got %d (err=%v)", after.Amount, err)
	}
}

func TestExpectedOutsideWindow(t *testing.T) {
	resolver := NewObligationResolver(core.DefaultBillingPolicy())
	b := fixture.NewBuilder(1)
	h := b.Household("HK-001")
	b.Member(h, core.Resident)
	fee := b.MandatoryFee("Phí quản lý", 20000, date(2025, 1, 1), date(2025, 1, 31))

	if _, err := resolver.Expected(fee, b.Members(), date(2025, 2, 1)); err != core.ErrInvalidFeeWindow {
		t.Fatalf("expected ErrInvalidFeeWindow, got %v", err)
	}
	if _, err := resolver.Expected(fee, b.Members(), date(2024, 12, 31)); err != core.ErrInvalidFeeWindow {
		t.Fatalf("expected ErrInvalidFeeWindow, got %v", err)
	}
}

func TestVoluntaryFeeHasNoFixedExpected(t *testing.T) {
	resolver := NewObligationResolver(core.DefaultBillingPolicy())
	b := fixture.NewBuilder(1)
	h := b.Household("HK-001")
	b.Member(h, core.Resident)
	fee := b.VoluntaryFee("Ủng hộ lũ lụt", date(2025, 1, 1), date(2025, 1, 31))

	got, err := resolver.Expected(fee, b.Members(), date(2025, 1, 15))
	if err != nil || got.Amount != 0 {
		t.Fatalf("voluntary expected 0, got %d (err=%v)", got.Amount, err)
	}

	// Any positive payment completes the contribution.
	st, inScope, err := resolver.Status(fee, h.ID, b.Members(), core.Money{Amount: 5000}, date(2025, 1, 15))
	if err != nil || !inScope {
		t.Fatalf("unexpected err=%v inScope=%v", err, inScope)
	}
	if st.State != core.Paid {
		t.Fatalf("expected paid, got %s", st.State)
	}
}

func TestZeroBillableMembersOutOfScope(t *testing.T) {
	resolver := NewObligationResolver(core.DefaultBillingPolicy())
	b := fixture.NewBuilder(1)
	h := b.Household("HK-001")
	b.Member(h, core.MovedOut)
	fee := b.MandatoryFee("Phí quản lý", 20000, date(2025, 1, 1), date(2025, 1, 31))

	_, inScope, err := resolver.Status(fee, h.ID, b.Members(), core.Money{}, date(2025, 1, 15))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if inScope {
		t.Fatalf("zero billable members must be excluded from scope, not flagged unpaid")
	}
}

func TestCustomPolicyExcludesAbsent(t *testing.T) {
	resolver := NewObligationResolver(core.NewBillingPolicy(core.Resident))
	b := fixture.NewBuilder(1)
	h := b.Household("HK-001")
	b.Member(h, core.Resident)
	b.Member(h, core.TemporarilyAbsent)
	fee := b.MandatoryFee("Phí quản lý", 20000, date(2025, 1, 1), date(2025, 1, 31))

	got, err := resolver.Expected(fee, b.Members(), date(2025, 1, 15))
	if err != nil || got.Amount != 20000 {
		t.Fatalf("resident-only policy expected 20000, got %d (err=%v)", got.Amount, err)
	}
}
