// Package fixture provides a deterministic, seeded builder for households,
// fees and payments. It replaces ad-hoc random demo generation so test
// scenarios are reproducible run to run.
package fixture

import (
	"fmt"
	"math/rand"
	"time"

	"bluemoon/internal/core"
)

// Builder accumulates domain records with deterministic IDs. The same seed
// and call sequence always produce identical data.
type Builder struct {
	rng *rand.Rand

	nextFee       int64
	nextHousehold int64
	nextMember    int64
	nextUser      int64
	nextPayment   int64

	fees       []core.FeeDefinition
	households []core.Household
	members    []core.Member
	payments   []core.PaymentRecord
}

func NewBuilder(seed int64) *Builder {
	return &Builder{rng: rand.New(rand.NewSource(seed))}
}

// MandatoryFee adds an active mandatory fee with the given unit price.
func (b *Builder) MandatoryFee(name string, unitPrice int64, from, to time.Time) core.FeeDefinition {
	b.nextFee++
	fee := core.FeeDefinition{
		ID:        b.nextFee,
		Name:      name,
		Category:  core.Mandatory,
		UnitPrice: core.Money{Amount: unitPrice},
		ValidFrom: from,
		ValidTo:   to,
		Active:    true,
	}
	b.fees = append(b.fees, fee)
	return fee
}

// VoluntaryFee adds an active voluntary contribution.
func (b *Builder) VoluntaryFee(name string, from, to time.Time) core.FeeDefinition {
	b.nextFee++
	fee := core.FeeDefinition{
		ID:        b.nextFee,
		Name:      name,
		Category:  core.Voluntary,
		ValidFrom: from,
		ValidTo:   to,
		Active:    true,
	}
	b.fees = append(b.fees, fee)
	return fee
}

// Household adds an active household with a responsible user assigned.
func (b *Builder) Household(code string) core.Household {
	b.nextUser++
	head := b.nextUser
	h := b.newHousehold(code)
	h.HeadUserID = &head
	b.households[len(b.households)-1] = h
	return h
}

// HouseholdWithoutHead adds a household with no responsible user, for
// scheduling-skip scenarios.
func (b *Builder) HouseholdWithoutHead(code string) core.Household {
	return b.newHousehold(code)
}

func (b *Builder) newHousehold(code string) core.Household {
	b.nextHousehold++
	h := core.Household{
		ID:           b.nextHousehold,
		Code:         code,
		Status:       core.HouseholdActive,
		RegisteredAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	b.households = append(b.households, h)
	return h
}

// Member adds a roster entry with the given life-status, joined well before
// any fee window used in tests.
func (b *Builder) Member(h core.Household, status core.LifeStatus) core.Member {
	b.nextMember++
	m := core.Member{
		ID:          b.nextMember,
		HouseholdID: h.ID,
		FullName:    fmt.Sprintf("Member %d", b.nextMember),
		LifeStatus:  status,
		DateOfBirth: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		JoinedAt:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	b.members = append(b.members, m)
	return m
}

// MemberLeaving adds a member whose membership period closes at leftAt.
func (b *Builder) MemberLeaving(h core.Household, status core.LifeStatus, leftAt time.Time) core.Member {
	m := b.Member(h, status)
	m.LeftAt = &leftAt
	b.members[len(b.members)-1] = m
	return m
}

// Payment appends a ledger record for a household+fee pair.
func (b *Builder) Payment(h core.Household, fee core.FeeDefinition, amount int64, paidAt time.Time) core.PaymentRecord {
	b.nextPayment++
	p := core.PaymentRecord{
		ID:          fmt.Sprintf("pay-%04d", b.nextPayment),
		HouseholdID: h.ID,
		FeeID:       fee.ID,
		Amount:      core.Money{Amount: amount},
		Method:      core.Offline,
		RecordedBy:  "fixture",
		PaidAt:      paidAt,
	}
	b.payments = append(b.payments, p)
	return p
}

// Community populates n households of 1..maxMembers residents each, sized by
// the seeded generator. Useful for volume scenarios.
func (b *Builder) Community(n, maxMembers int) []core.Household {
	out := make([]core.Household, 0, n)
	for i := 0; i < n; i++ {
		h := b.Household(fmt.Sprintf("HK-%03d", i+1))
		for j := b.rng.Intn(maxMembers) + 1; j > 0; j-- {
			b.Member(h, core.Resident)
		}
		out = append(out, h)
	}
	return out
}

func (b *Builder) Fees() []core.FeeDefinition     { return b.fees }
func (b *Builder) Households() []core.Household   { return b.households }
func (b *Builder) Members() []core.Member         { return b.members }
func (b *Builder) Payments() []core.PaymentRecord { return b.payments }
