package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"bluemoon/internal/core"
)

func TestOverviewReportEndpoint(t *testing.T) {
	store := newAPIStore()
	seedLedger(store)
	store.payments = append(store.payments, core.PaymentRecord{
		ID:          "p-1",
		HouseholdID: 1,
		FeeID:       1,
		Amount:      core.Money{Amount: 40000},
		Method:      core.Online,
		PaidAt:      date(2025, 1, 10),
	})
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodGet, "/reports/overview?year=2025&month=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET overview = %d, body %s", rec.Code, rec.Body.String())
	}
	var got core.OverviewReport
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.TotalRequired.Amount != 40000 || got.TotalCollected.Amount != 40000 {
		t.Fatalf("unexpected overview: %+v", got)
	}
	if got.CompletionRate != 1 {
		t.Fatalf("CompletionRate = %v, want 1", got.CompletionRate)
	}
}

func TestOverviewReportRejectsBadParams(t *testing.T) {
	s := newTestServer(t, newAPIStore())

	if rec := doJSON(t, s, http.MethodGet, "/reports/overview?month=13", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("month=13 = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/reports/overview?year=abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("year=abc = %d, want 400", rec.Code)
	}
}

func TestReportCacheInvalidatedByMutation(t *testing.T) {
	store := newAPIStore()
	seedLedger(store)
	s := newTestServer(t, store)

	read := func() core.OverviewReport {
		rec := doJSON(t, s, http.MethodGet, "/reports/overview?year=2025&month=1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET overview = %d", rec.Code)
		}
		var got core.OverviewReport
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return got
	}

	before := read()
	if before.TotalCollected.Amount != 0 {
		t.Fatalf("TotalCollected = %d before payments, want 0", before.TotalCollected.Amount)
	}
	// Second read is served from cache and must agree.
	if again := read(); again != before {
		t.Fatalf("cached read differs: %+v vs %+v", again, before)
	}

	body := `{"household_id":1,"fee_id":1,"amount":"40.000","method":"online","paid_at":"2025-01-10T09:00:00Z"}`
	if rec := doJSON(t, s, http.MethodPost, "/payments", body); rec.Code != http.StatusCreated {
		t.Fatalf("POST /payments = %d", rec.Code)
	}

	after := read()
	if after.TotalCollected.Amount != 40000 {
		t.Fatalf("TotalCollected = %d after payment, want 40000", after.TotalCollected.Amount)
	}
}

func TestByFeeTypeReportEndpoint(t *testing.T) {
	store := newAPIStore()
	seedLedger(store)
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodGet, "/reports/by-fee-type?year=2025&month=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET by-fee-type = %d", rec.Code)
	}
	var got []core.FeeTypeReport
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Phí quản lý" || got[0].TotalHouseholds != 1 {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestMonthlyReportEndpoint(t *testing.T) {
	store := newAPIStore()
	seedLedger(store)
	store.payments = append(store.payments, core.PaymentRecord{
		ID:          "p-1",
		HouseholdID: 1,
		FeeID:       1,
		Amount:      core.Money{Amount: 15000},
		Method:      core.Offline,
		PaidAt:      date(2025, 1, 20),
	})
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodGet, "/reports/monthly?year=2025", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET monthly = %d", rec.Code)
	}
	var got []core.MonthlyAmounts
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("months = %d, want 12", len(got))
	}
	if got[0].FixedFee.Amount != 15000 {
		t.Fatalf("January fixed = %d, want 15000", got[0].FixedFee.Amount)
	}
}

func TestComparisonReportEndpoint(t *testing.T) {
	store := newAPIStore()
	seedLedger(store)
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodGet, "/reports/comparison?kind=month&year=2025&month=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET comparison = %d, body %s", rec.Code, rec.Body.String())
	}
	var got core.ComparisonReport
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if rec := doJSON(t, s, http.MethodGet, "/reports/comparison?kind=weekly", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad kind = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/reports/comparison?kind=month&month=0", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("month=0 = %d, want 400", rec.Code)
	}
}

func TestHouseholdStatusReportEndpoint(t *testing.T) {
	store := newAPIStore()
	seedLedger(store)
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodGet, "/reports/household-status?year=2025&month=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET household-status = %d", rec.Code)
	}
	var got core.HouseholdStatusReport
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.NotPaid != 1 || got.Completed != 0 {
		t.Fatalf("unexpected report: %+v", got)
	}
}
