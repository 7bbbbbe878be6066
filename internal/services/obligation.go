package services

import (
	"time"

	"bluemoon/internal/core"
)

// ObligationResolver computes the expected amount a household owes for a fee
// at a reference time under a billing policy.
type ObligationResolver struct {
	policy core.BillingPolicy
}

func NewObligationResolver(policy core.BillingPolicy) *ObligationResolver {
	return &ObligationResolver{policy: policy}
}

func (r *ObligationResolver) Policy() core.BillingPolicy {
	return r.policy
}

// BillableMemberCount counts members whose life-status is in the policy's
// counted set and whose membership period overlaps asOf.
func (r *ObligationResolver) BillableMemberCount(members []core.Member, asOf time.Time) int {
	n := 0
	for _, m := range members {
		if r.policy.Counts(m.LifeStatus) && m.PresentAt(asOf) {
			n++
		}
	}
	return n
}

// Expected returns the amount owed for a fee at asOf. For voluntary fees
// there is no fixed expected amount, so the result is zero. A zero result
// for a mandatory fee means the household is out of scope for that fee.
func (r *ObligationResolver) Expected(fee core.FeeDefinition, members []core.Member, asOf time.Time) (core.Money, error) {
	if !fee.WindowContains(asOf) {
		return core.Money{}, core.ErrInvalidFeeWindow
	}
	if fee.Category == core.Voluntary {
		return core.Money{}, nil
	}
	return fee.UnitPrice.Mul(r.BillableMemberCount(members, asOf)), nil
}

// Status derives one household's obligation status for a fee given the
// running paid total. The second return value reports whether the household
// is in scope: voluntary fees always are, mandatory fees only when the
// expected amount is nonzero.
func (r *ObligationResolver) Status(fee core.FeeDefinition, householdID int64, members []core.Member, paid core.Money, asOf time.Time) (core.ObligationStatus, bool, error) {
	expected, err := r.Expected(fee, members, asOf)
	if err != nil {
		return core.ObligationStatus{}, false, err
	}

	st := core.ObligationStatus{
		HouseholdID: householdID,
		FeeID:       fee.ID,
		Expected:    expected,
		Paid:        paid,
	}

	if fee.Category == core.Voluntary {
		// Any positive payment is a complete contribution.
		st.State = core.Unpaid
		if paid.Amount > 0 {
			st.State = core.Paid
		}
		return st, true, nil
	}

	if expected.IsZero() {
		return core.ObligationStatus{}, false, nil
	}
	st.State = core.ClassifySettlement(expected, paid)
	return st, true, nil
}
