package core

// BillingPolicy decides which life-statuses count toward the unit-price
// multiplier. It is an explicit injected value so the counted set lives in
// configuration rather than being duplicated at call sites.
type BillingPolicy struct {
	counted map[LifeStatus]bool
}

// NewBillingPolicy builds a policy counting exactly the given statuses.
func NewBillingPolicy(statuses ...LifeStatus) BillingPolicy {
	counted := make(map[LifeStatus]bool, len(statuses))
	for _, s := range statuses {
		counted[s] = true
	}
	return BillingPolicy{counted: counted}
}

// DefaultBillingPolicy counts residents and temporarily-absent members.
// Absence does not end a member's share of household upkeep.
func DefaultBillingPolicy() BillingPolicy {
	return NewBillingPolicy(Resident, TemporarilyAbsent)
}

// Counts reports whether a life-status is billable under this policy.
func (p BillingPolicy) Counts(s LifeStatus) bool {
	return p.counted[s]
}

// CountedStatuses returns the counted set in declaration order of the
// known statuses, mainly for logging and diagnostics.
func (p BillingPolicy) CountedStatuses() []LifeStatus {
	all := []LifeStatus{Resident, TemporarilyAbsent, MovedOut, Deceased}
	var out []LifeStatus
	for _, s := range all {
		if p.counted[s] {
			out = append(out, s)
		}
	}
	return out
}
