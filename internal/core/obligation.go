package core

const (
	Unpaid  SettlementState = "unpaid"
	Partial SettlementState = "partial"
	Paid    SettlementState = "paid"
)

const (
	Completed  HouseholdStanding = "completed"
	Incomplete HouseholdStanding = "incomplete"
	NotPaid    HouseholdStanding = "notPaid"
)

type (
	// SettlementState classifies payments against one obligation.
	SettlementState string

	// HouseholdStanding classifies a household over a set of mandatory fees.
	HouseholdStanding string

	// ObligationStatus is a derived snapshot, never authoritative storage.
	ObligationStatus struct {
		HouseholdID int64           `json:"household_id"`
		FeeID       int64           `json:"fee_id"`
		Expected    Money           `json:"expected_amount"`
		Paid        Money           `json:"paid_amount"`
		State       SettlementState `json:"state"`
	}
)

// ClassifySettlement derives the settlement state of one obligation.
// Paid requires the running total to reach the expected amount.
func ClassifySettlement(expected, paid Money) SettlementState {
	switch {
	case paid.Amount <= 0:
		return Unpaid
	case paid.Amount < expected.Amount:
		return Partial
	default:
		return Paid
	}
}

// ClassifyStanding folds per-fee settlement states into a household-level
// standing. An empty in-scope set yields Completed: a household that owes
// nothing has nothing outstanding.
func ClassifyStanding(states []SettlementState) HouseholdStanding {
	if len(states) == 0 {
		return Completed
	}
	allPaid, anyMoney := true, false
	for _, s := range states {
		if s != Paid {
			allPaid = false
		}
		if s != Unpaid {
			anyMoney = true
		}
	}
	switch {
	case allPaid:
		return Completed
	case anyMoney:
		return Incomplete
	default:
		return NotPaid
	}
}
