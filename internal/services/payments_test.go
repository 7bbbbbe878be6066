package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bluemoon/internal/core"
)

// fakeStore backs PaymentStore and FeeStore with in-memory maps.
type fakeStore struct {
	mu         sync.Mutex
	fees       map[int64]core.FeeDefinition
	households map[int64]core.Household
	members    map[int64][]core.Member
	payments   []core.PaymentRecord
	nextFeeID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		fees:       make(map[int64]core.FeeDefinition),
		households: make(map[int64]core.Household),
		members:    make(map[int64][]core.Member),
	}
}

func (s *fakeStore) FeeByID(ctx context.Context, id int64) (core.FeeDefinition, error) {
	f, ok := s.fees[id]
	if !ok {
		return core.FeeDefinition{}, core.ErrUnknownFee
	}
	return f, nil
}

func (s *fakeStore) HouseholdByID(ctx context.Context, id int64) (core.Household, error) {
	h, ok := s.households[id]
	if !ok {
		return core.Household{}, core.ErrUnknownHousehold
	}
	return h, nil
}

func (s *fakeStore) MembersOf(ctx context.Context, householdID int64) ([]core.Member, error) {
	return s.members[householdID], nil
}

func (s *fakeStore) AppendPayment(ctx context.Context, rec core.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, rec)
	return nil
}

func (s *fakeStore) PaidTotal(ctx context.Context, householdID, feeID int64) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, p := range s.payments {
		if p.HouseholdID == householdID && p.FeeID == feeID {
			total += p.Amount.Amount
		}
	}
	return core.Money{Amount: total}, nil
}

func (s *fakeStore) CreateFee(ctx context.Context, fee core.FeeDefinition) (core.FeeDefinition, error) {
	s.nextFeeID++
	fee.ID = s.nextFeeID
	s.fees[fee.ID] = fee
	return fee, nil
}

func (s *fakeStore) ListFees(ctx context.Context) ([]core.FeeDefinition, error) {
	var out []core.FeeDefinition
	for _, f := range s.fees {
		out = append(out, f)
	}
	return out, nil
}

func (s *fakeStore) SetFeeActive(ctx context.Context, id int64, active bool) error {
	f, ok := s.fees[id]
	if !ok {
		return core.ErrUnknownFee
	}
	f.Active = active
	s.fees[id] = f
	return nil
}

func (s *fakeStore) ActiveHouseholds(ctx context.Context) ([]core.Household, error) {
	var out []core.Household
	for _, h := range s.households {
		if h.Status == core.HouseholdActive {
			out = append(out, h)
		}
	}
	return out, nil
}

func paymentTestStore() *fakeStore {
	store := newFakeStore()
	head := int64(9)
	store.households[1] = core.Household{ID: 1, Code: "HK-001", Status: core.HouseholdActive, HeadUserID: &head}
	store.members[1] = []core.Member{
		{ID: 1, HouseholdID: 1, LifeStatus: core.Resident, JoinedAt: date(2020, 1, 1)},
		{ID: 2, HouseholdID: 1, LifeStatus: core.Resident, JoinedAt: date(2020, 1, 1)},
		{ID: 3, HouseholdID: 1, LifeStatus: core.Resident, JoinedAt: date(2020, 1, 1)},
		{ID: 4, HouseholdID: 1, LifeStatus: core.Resident, JoinedAt: date(2020, 1, 1)},
	}
	store.fees[1] = core.FeeDefinition{
		ID: 1, Name: "Phí quản lý", Category: core.Mandatory,
		UnitPrice: core.Money{Amount: 20000},
		ValidFrom: date(2025, 1, 1), ValidTo: date(2025, 1, 31), Active: true,
	}
	return store
}

func newPaymentService(store *fakeStore, pub EventPublisher) *PaymentService {
	return NewPaymentService(store, pub, NewObligationResolver(core.DefaultBillingPolicy()))
}

func TestRecordPaymentAccumulatesToPaid(t *testing.T) {
	store := paymentTestStore()
	pub := &fakePublisher{}
	svc := newPaymentService(store, pub)
	ctx := context.Background()

	_, st, err := svc.RecordPayment(ctx, PaymentInput{
		HouseholdID: 1, FeeID: 1, Amount: 30000,
		Method: core.Online, RecordedBy: "ketoan", PaidAt: date(2025, 1, 10),
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if st.Expected.Amount != 80000 || st.Paid.Amount != 30000 || st.State != core.Partial {
		t.Fatalf("after first intake: %+v", st)
	}

	_, st, err = svc.RecordPayment(ctx, PaymentInput{
		HouseholdID: 1, FeeID: 1, Amount: 50000,
		Method: core.Offline, RecordedBy: "ketoan", PaidAt: date(2025, 1, 20),
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if st.Paid.Amount != 80000 || st.State != core.Paid {
		t.Fatalf("after second intake: %+v", st)
	}

	if len(pub.allEvents()) != 2 {
		t.Fatalf("expected 2 payment-confirmed events, got %d", len(pub.allEvents()))
	}
	if pub.allEvents()[0].Kind != core.KindPaymentConfirmed {
		t.Fatalf("unexpected kind %s", pub.allEvents()[0].Kind)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	store := paymentTestStore()
	svc := newPaymentService(store, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   PaymentInput
		want error
	}{
		{
			name: "non-positive amount",
			in:   PaymentInput{HouseholdID: 1, FeeID: 1, Amount: 0, Method: core.Online, PaidAt: date(2025, 1, 10)},
			want: core.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			in:   PaymentInput{HouseholdID: 1, FeeID: 1, Amount: -500, Method: core.Online, PaidAt: date(2025, 1, 10)},
			want: core.ErrInvalidAmount,
		},
		{
			name: "bad method",
			in:   PaymentInput{HouseholdID: 1, FeeID: 1, Amount: 1000, Method: "cash", PaidAt: date(2025, 1, 10)},
			want: core.ErrInvalidMethod,
		},
		{
			name: "unknown fee",
			in:   PaymentInput{HouseholdID: 1, FeeID: 99, Amount: 1000, Method: core.Online, PaidAt: date(2025, 1, 10)},
			want: core.ErrUnknownFee,
		},
		{
			name: "unknown household",
			in:   PaymentInput{HouseholdID: 99, FeeID: 1, Amount: 1000, Method: core.Online, PaidAt: date(2025, 1, 10)},
			want: core.ErrUnknownHousehold,
		},
		{
			name: "outside fee window",
			in:   PaymentInput{HouseholdID: 1, FeeID: 1, Amount: 1000, Method: core.Online, PaidAt: date(2025, 3, 1)},
			want: core.ErrInvalidFeeWindow,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.RecordPayment(ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	// Nothing may reach the ledger.
	if len(store.payments) != 0 {
		t.Fatalf("rejected intakes must never reach the ledger, found %d records", len(store.payments))
	}
}

func TestRecordPaymentInactiveFee(t *testing.T) {
	store := paymentTestStore()
	fee := store.fees[1]
	fee.Active = false
	store.fees[1] = fee

	svc := newPaymentService(store, nil)
	_, _, err := svc.RecordPayment(context.Background(), PaymentInput{
		HouseholdID: 1, FeeID: 1, Amount: 1000, Method: core.Online, PaidAt: date(2025, 1, 10),
	})
	if !errors.Is(err, core.ErrFeeInactive) {
		t.Fatalf("expected ErrFeeInactive, got %v", err)
	}
}

func TestConcurrentIntakesSerializePerPair(t *testing.T) {
	store := paymentTestStore()
	svc := newPaymentService(store, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	paidSeen := make([]int64, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, st, err := svc.RecordPayment(ctx, PaymentInput{
				HouseholdID: 1, FeeID: 1, Amount: 4000,
				Method: core.Online, PaidAt: date(2025, 1, 10),
			})
			if err != nil {
				t.Errorf("intake %d failed: %v", i, err)
				return
			}
			paidSeen[i] = st.Paid.Amount
		}(i)
	}
	wg.Wait()

	// Running totals must be distinct: no two intakes may observe the
	// same total, which would mean they raced past the threshold check.
	seen := make(map[int64]bool)
	for _, v := range paidSeen {
		if seen[v] {
			t.Fatalf("duplicate running total %d observed", v)
		}
		seen[v] = true
	}
	total, _ := store.PaidTotal(ctx, 1, 1)
	if total.Amount != 80000 {
		t.Fatalf("ledger total = %d, want 80000", total.Amount)
	}
}
