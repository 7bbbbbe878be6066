package http

import (
	"fmt"
	"net/http"
	"time"

	"bluemoon/internal/core"
	"bluemoon/internal/services"
)

// createPaymentRequest is the intake form for one ledger record. Amount is a
// string so collectors can paste grouped figures like "50.000".
type createPaymentRequest struct {
	HouseholdID int64  `json:"household_id"`
	FeeID       int64  `json:"fee_id"`
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	RecordedBy  string `json:"recorded_by"`
	PaidAt      string `json:"paid_at"` // RFC3339, defaults to now
}

type paymentResponse struct {
	Payment    paymentDTO            `json:"payment"`
	Obligation core.ObligationStatus `json:"obligation"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req createPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != "" {
		if paidAt, err = time.Parse(time.RFC3339, req.PaidAt); err != nil {
			writeError(w, r, badRequest("invalid paid_at, want RFC3339"))
			return
		}
	}

	record, obligation, err := s.payments.RecordPayment(r.Context(), services.PaymentInput{
		HouseholdID: req.HouseholdID,
		FeeID:       req.FeeID,
		Amount:      amount,
		Method:      core.PaymentMethod(req.Method),
		RecordedBy:  req.RecordedBy,
		PaidAt:      paidAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, paymentResponse{
		Payment:    toPaymentDTO(record),
		Obligation: obligation,
	})
}

type obligationsResponse struct {
	HouseholdID int64                   `json:"household_id"`
	Statuses    []core.ObligationStatus `json:"statuses"`
	Standing    core.HouseholdStanding  `json:"standing,omitempty"`
}

type feeObligationsResponse struct {
	FeeID    int64                   `json:"fee_id"`
	Statuses []core.ObligationStatus `json:"statuses"`
}

// handleObligations answers GET /obligations for one household
// (household_id=N, settlement state of every applicable mandatory fee,
// optionally narrowed by year and month) or one fee (fee_id=N, settlement
// state of every household in scope).
func (s *Server) handleObligations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	if feeParam := r.URL.Query().Get("fee_id"); feeParam != "" {
		s.handleFeeObligations(w, r, feeParam)
		return
	}

	householdID, err := parseID(r.URL.Query().Get("household_id"))
	if err != nil {
		writeError(w, r, badRequest("household_id or fee_id is required"))
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap, err := s.snapshots.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, fmt.Errorf("load snapshot: %w", err))
		return
	}

	known := false
	for _, h := range snap.Households {
		if h.ID == householdID {
			known = true
			break
		}
	}
	if !known {
		writeError(w, r, core.ErrUnknownHousehold)
		return
	}

	fees := snap.MandatoryFeesIn(window)
	resp := obligationsResponse{
		HouseholdID: householdID,
		Statuses:    s.classifier.Statuses(snap, householdID, fees),
	}
	if standing, ok := s.classifier.Standing(snap, householdID, fees); ok {
		resp.Standing = standing
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFeeObligations(w http.ResponseWriter, r *http.Request, feeParam string) {
	feeID, err := parseID(feeParam)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap, err := s.snapshots.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, fmt.Errorf("load snapshot: %w", err))
		return
	}
	fee, ok := snap.FeeByID(feeID)
	if !ok {
		writeError(w, r, core.ErrUnknownFee)
		return
	}

	resp := feeObligationsResponse{FeeID: feeID}
	for _, h := range snap.Households {
		if st, ok := s.classifier.FeeStatus(snap, h.ID, fee); ok {
			resp.Statuses = append(resp.Statuses, st)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
