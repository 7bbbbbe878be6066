package services

import (
	"bluemoon/internal/core"
)

// CompletionClassifier compares ledger totals against expected amounts to
// classify settlement per fee and standing per household. All methods are
// pure functions over a snapshot; callers may cache results.
type CompletionClassifier struct {
	resolver *ObligationResolver
}

func NewCompletionClassifier(resolver *ObligationResolver) *CompletionClassifier {
	return &CompletionClassifier{resolver: resolver}
}

// Statuses returns one household's obligation statuses over a mandatory fee
// set. Each status is evaluated at the fee's closing date, the canonical
// settlement instant. Fees with zero obligation are excluded from scope.
func (c *CompletionClassifier) Statuses(snap Snapshot, householdID int64, fees []core.FeeDefinition) []core.ObligationStatus {
	members := snap.MembersOf(householdID)
	var out []core.ObligationStatus
	for _, fee := range fees {
		paid := snap.PaidTotal(householdID, fee.ID)
		st, inScope, err := c.resolver.Status(fee, householdID, members, paid, fee.ValidTo)
		if err != nil || !inScope {
			continue
		}
		out = append(out, st)
	}
	return out
}

// FeeStatus classifies a single household+fee pair.
func (c *CompletionClassifier) FeeStatus(snap Snapshot, householdID int64, fee core.FeeDefinition) (core.ObligationStatus, bool) {
	paid := snap.PaidTotal(householdID, fee.ID)
	st, inScope, err := c.resolver.Status(fee, householdID, snap.MembersOf(householdID), paid, fee.ValidTo)
	if err != nil || !inScope {
		return core.ObligationStatus{}, false
	}
	return st, true
}

// Standing folds one household's per-fee states into a household-level
// classification over the given mandatory fee set. The second return value
// is false when the household has no in-scope fee at all.
func (c *CompletionClassifier) Standing(snap Snapshot, householdID int64, fees []core.FeeDefinition) (core.HouseholdStanding, bool) {
	statuses := c.Statuses(snap, householdID, fees)
	if len(statuses) == 0 {
		return core.Completed, false
	}
	states := make([]core.SettlementState, len(statuses))
	for i, st := range statuses {
		states[i] = st.State
	}
	return core.ClassifyStanding(states), true
}
