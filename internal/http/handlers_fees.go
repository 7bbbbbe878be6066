package http

import (
	"net/http"

	"bluemoon/internal/core"
)

type createFeeRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	UnitPrice int64  `json:"unit_price"`
	ValidFrom string `json:"valid_from"`
	ValidTo   string `json:"valid_to"`
}

func (s *Server) handleFees(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		window, err := parseWindow(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		fees, err := s.fees.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !window.IsZero() {
			filtered := fees[:0]
			for _, f := range fees {
				if window.Covers(f.ValidFrom, f.ValidTo) {
					filtered = append(filtered, f)
				}
			}
			fees = filtered
		}
		writeJSON(w, http.StatusOK, toFeeDTOs(fees))
	case http.MethodPost:
		s.handleCreateFee(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleCreateFee(w http.ResponseWriter, r *http.Request) {
	var req createFeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	validFrom, err := parseDate("valid_from", req.ValidFrom)
	if err != nil {
		writeError(w, r, err)
		return
	}
	validTo, err := parseDate("valid_to", req.ValidTo)
	if err != nil {
		writeError(w, r, err)
		return
	}

	fee := core.FeeDefinition{
		Name:      req.Name,
		Category:  core.FeeCategory(req.Category),
		UnitPrice: core.Money{Amount: req.UnitPrice},
		ValidFrom: validFrom,
		ValidTo:   validTo,
	}
	created, err := s.fees.CreateFee(r.Context(), fee)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFeeDTO(created))
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// handleFeeByID serves /fees/{id} and /fees/{id}/active.
func (s *Server) handleFeeByID(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/fees/")
	if len(parts) == 0 {
		writeError(w, r, core.ErrUnknownFee)
		return
	}
	id, err := parseID(parts[0])
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		fee, err := s.fees.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toFeeDTO(fee))
	case len(parts) == 2 && parts[1] == "active":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, "PUT")
			return
		}
		var req setActiveRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.fees.SetActive(r.Context(), id, req.Active); err != nil {
			writeError(w, r, err)
			return
		}
		fee, err := s.fees.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toFeeDTO(fee))
	default:
		writeError(w, r, badRequest("unknown fee resource"))
	}
}
