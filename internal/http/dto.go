package http

import (
	"time"

	"bluemoon/internal/core"
	"bluemoon/internal/storage"
)

// Wire shapes for the registry and ledger entities. Dates that carry no
// time-of-day (fee validity, birth, join) travel as YYYY-MM-DD strings.
type (
	feeDTO struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		Category  string `json:"category"`
		UnitPrice int64  `json:"unit_price"`
		ValidFrom string `json:"valid_from"`
		ValidTo   string `json:"valid_to"`
		Active    bool   `json:"active"`
	}

	householdDTO struct {
		ID           int64     `json:"id"`
		Code         string    `json:"code"`
		Status       string    `json:"status"`
		HeadUserID   *int64    `json:"head_user_id,omitempty"`
		RegisteredAt time.Time `json:"registered_at"`
	}

	householdDetailDTO struct {
		householdDTO
		Members []memberDTO `json:"members"`
	}

	memberDTO struct {
		ID          int64   `json:"id"`
		HouseholdID int64   `json:"household_id"`
		FullName    string  `json:"full_name"`
		LifeStatus  string  `json:"life_status"`
		DateOfBirth string  `json:"date_of_birth"`
		JoinedAt    string  `json:"joined_at"`
		LeftAt      *string `json:"left_at,omitempty"`
	}

	paymentDTO struct {
		ID          string    `json:"id"`
		HouseholdID int64     `json:"household_id"`
		FeeID       int64     `json:"fee_id"`
		Amount      int64     `json:"amount"`
		Method      string    `json:"method"`
		RecordedBy  string    `json:"recorded_by"`
		PaidAt      time.Time `json:"paid_at"`
	}

	inboxMessageDTO struct {
		ID          string    `json:"id"`
		Kind        string    `json:"kind"`
		FeeID       int64     `json:"fee_id"`
		Title       string    `json:"title"`
		Body        string    `json:"body"`
		ScheduledAt time.Time `json:"scheduled_at"`
		Read        bool      `json:"read"`
		CreatedAt   time.Time `json:"created_at"`
	}
)

func toFeeDTO(f core.FeeDefinition) feeDTO {
	return feeDTO{
		ID:        f.ID,
		Name:      f.Name,
		Category:  string(f.Category),
		UnitPrice: f.UnitPrice.Amount,
		ValidFrom: f.ValidFrom.Format(dateLayout),
		ValidTo:   f.ValidTo.Format(dateLayout),
		Active:    f.Active,
	}
}

func toFeeDTOs(fees []core.FeeDefinition) []feeDTO {
	out := make([]feeDTO, 0, len(fees))
	for _, f := range fees {
		out = append(out, toFeeDTO(f))
	}
	return out
}

func toHouseholdDTO(h core.Household) householdDTO {
	return householdDTO{
		ID:           h.ID,
		Code:         h.Code,
		Status:       string(h.Status),
		HeadUserID:   h.HeadUserID,
		RegisteredAt: h.RegisteredAt,
	}
}

func toHouseholdDTOs(households []core.Household) []householdDTO {
	out := make([]householdDTO, 0, len(households))
	for _, h := range households {
		out = append(out, toHouseholdDTO(h))
	}
	return out
}

func toMemberDTO(m core.Member) memberDTO {
	dto := memberDTO{
		ID:          m.ID,
		HouseholdID: m.HouseholdID,
		FullName:    m.FullName,
		LifeStatus:  string(m.LifeStatus),
		DateOfBirth: m.DateOfBirth.Format(dateLayout),
		JoinedAt:    m.JoinedAt.Format(dateLayout),
	}
	if m.LeftAt != nil {
		left := m.LeftAt.Format(dateLayout)
		dto.LeftAt = &left
	}
	return dto
}

func toMemberDTOs(members []core.Member) []memberDTO {
	out := make([]memberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberDTO(m))
	}
	return out
}

func toPaymentDTO(p core.PaymentRecord) paymentDTO {
	return paymentDTO{
		ID:          p.ID,
		HouseholdID: p.HouseholdID,
		FeeID:       p.FeeID,
		Amount:      p.Amount.Amount,
		Method:      string(p.Method),
		RecordedBy:  p.RecordedBy,
		PaidAt:      p.PaidAt,
	}
}

func toInboxDTOs(msgs []storage.InboxMessage) []inboxMessageDTO {
	out := make([]inboxMessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, inboxMessageDTO{
			ID:          m.ID,
			Kind:        m.Kind,
			FeeID:       m.FeeID,
			Title:       m.Title,
			Body:        m.Body,
			ScheduledAt: m.ScheduledAt,
			Read:        m.Read,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out
}
