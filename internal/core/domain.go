// Package core holds the fee obligation domain: fee definitions, household
// rosters, payment records and the value types shared by every service.
package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Mandatory FeeCategory = "mandatory"
	Voluntary FeeCategory = "voluntary"
)

const (
	Resident          LifeStatus = "resident"
	TemporarilyAbsent LifeStatus = "temporarily-absent"
	MovedOut          LifeStatus = "moved-out"
	Deceased          LifeStatus = "deceased"
)

const (
	HouseholdActive   HouseholdState = "active"
	HouseholdInactive HouseholdState = "inactive"
)

const (
	Online  PaymentMethod = "online"
	Offline PaymentMethod = "offline"
)

type (
	FeeCategory    string
	LifeStatus     string
	HouseholdState string
	PaymentMethod  string

	// FeeDefinition describes a fee within its validity window. Financial
	// terms are immutable once payments reference the fee; only Active may
	// be toggled afterwards.
	FeeDefinition struct {
		ID        int64
		Name      string
		Category  FeeCategory
		UnitPrice Money // per billable member; zero for voluntary fees
		ValidFrom time.Time
		ValidTo   time.Time
		Active    bool
	}

	// Household is a registered dwelling unit. HeadUserID links the
	// responsible user account and may be absent.
	Household struct {
		ID           int64
		Code         string
		Status       HouseholdState
		HeadUserID   *int64
		RegisteredAt time.Time
	}

	// Member is a person on a household roster. LeftAt closes the
	// membership period when the member moves out or dies.
	Member struct {
		ID          int64
		HouseholdID int64
		FullName    string
		LifeStatus  LifeStatus
		DateOfBirth time.Time
		JoinedAt    time.Time
		LeftAt      *time.Time
	}

	// PaymentRecord is an append-only ledger entry. Corrections are new
	// compensating records, never edits.
	PaymentRecord struct {
		ID          string
		HouseholdID int64
		FeeID       int64
		Amount      Money
		Method      PaymentMethod
		RecordedBy  string
		PaidAt      time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidFeeWindow   = errors.New("reference time outside fee validity window")
	ErrMalformedFeeWindow = errors.New("fee validity window starts after it ends")
	ErrMissingUnitPrice   = errors.New("mandatory fee requires a unit price")
	ErrUnexpectedPrice    = errors.New("voluntary fee must not carry a unit price")
	ErrEmptyName          = errors.New("empty fee name")
	ErrEmptyCode          = errors.New("empty household code")
	ErrInvalidCategory    = errors.New("invalid fee category")
	ErrInvalidLifeStatus  = errors.New("invalid life status")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrUnknownFee         = errors.New("unknown fee")
	ErrUnknownHousehold   = errors.New("unknown household")
	ErrFeeInactive        = errors.New("fee is not active")
)

func (c FeeCategory) Valid() bool {
	return c == Mandatory || c == Voluntary
}

func (s LifeStatus) Valid() bool {
	switch s {
	case Resident, TemporarilyAbsent, MovedOut, Deceased:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	return m == Online || m == Offline
}

func (f FeeDefinition) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	if !f.Category.Valid() {
		return ErrInvalidCategory
	}
	if f.ValidFrom.After(f.ValidTo) {
		return ErrMalformedFeeWindow
	}
	if f.Category == Mandatory && f.UnitPrice.Amount <= 0 {
		return ErrMissingUnitPrice
	}
	if f.Category == Voluntary && f.UnitPrice.Amount != 0 {
		return ErrUnexpectedPrice
	}
	return nil
}

// WindowContains reports whether t falls inside [ValidFrom, ValidTo],
// both bounds inclusive.
func (f FeeDefinition) WindowContains(t time.Time) bool {
	return !t.Before(f.ValidFrom) && !t.After(f.ValidTo)
}

func (h Household) Validate() error {
	if strings.TrimSpace(h.Code) == "" {
		return ErrEmptyCode
	}
	return nil
}

// PresentAt reports whether the membership period covers t. An unset LeftAt
// means the membership is still open.
func (m Member) PresentAt(t time.Time) bool {
	if t.Before(m.JoinedAt) {
		return false
	}
	return m.LeftAt == nil || t.Before(*m.LeftAt)
}

func (p PaymentRecord) Validate() error {
	if p.Amount.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !p.Method.Valid() {
		return ErrInvalidMethod
	}
	return nil
}
