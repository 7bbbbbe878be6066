package services

import (
	"time"

	"bluemoon/internal/core"
)

type pairKey struct {
	householdID int64
	feeID       int64
}

// Snapshot is an immutable point-in-time view of the ledger and registries.
// Classification and reporting are pure functions over a Snapshot, so they
// run safely alongside ongoing payment intake.
type Snapshot struct {
	Fees       []core.FeeDefinition
	Households []core.Household
	Members    []core.Member
	Payments   []core.PaymentRecord
	TakenAt    time.Time

	membersByHousehold map[int64][]core.Member
	paidTotals         map[pairKey]int64
	feesByID           map[int64]core.FeeDefinition
}

// NewSnapshot indexes the raw slices once; the snapshot is read-only after.
func NewSnapshot(fees []core.FeeDefinition, households []core.Household, members []core.Member, payments []core.PaymentRecord, takenAt time.Time) Snapshot {
	s := Snapshot{
		Fees:       fees,
		Households: households,
		Members:    members,
		Payments:   payments,
		TakenAt:    takenAt,

		membersByHousehold: make(map[int64][]core.Member),
		paidTotals:         make(map[pairKey]int64),
		feesByID:           make(map[int64]core.FeeDefinition, len(fees)),
	}
	for _, m := range members {
		s.membersByHousehold[m.HouseholdID] = append(s.membersByHousehold[m.HouseholdID], m)
	}
	for _, p := range payments {
		s.paidTotals[pairKey{p.HouseholdID, p.FeeID}] += p.Amount.Amount
	}
	for _, f := range fees {
		s.feesByID[f.ID] = f
	}
	return s
}

// MembersOf returns the roster of one household.
func (s Snapshot) MembersOf(householdID int64) []core.Member {
	return s.membersByHousehold[householdID]
}

// PaidTotal accumulates every ledger record for one household+fee pair.
func (s Snapshot) PaidTotal(householdID, feeID int64) core.Money {
	return core.Money{Amount: s.paidTotals[pairKey{householdID, feeID}]}
}

// FeeByID looks a fee up in the snapshot.
func (s Snapshot) FeeByID(id int64) (core.FeeDefinition, bool) {
	f, ok := s.feesByID[id]
	return f, ok
}

// MandatoryFeesIn returns the mandatory fees active in a window. A zero
// window means every active mandatory fee.
func (s Snapshot) MandatoryFeesIn(w core.Window) []core.FeeDefinition {
	var out []core.FeeDefinition
	for _, f := range s.Fees {
		if f.Category != core.Mandatory || !f.Active {
			continue
		}
		if !w.IsZero() && !w.Covers(f.ValidFrom, f.ValidTo) {
			continue
		}
		out = append(out, f)
	}
	return out
}
