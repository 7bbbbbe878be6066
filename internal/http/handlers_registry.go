package http

import (
	"net/http"
	"time"

	"bluemoon/internal/core"
)

type createHouseholdRequest struct {
	Code       string `json:"code"`
	HeadUserID *int64 `json:"head_user_id"`
}

func (s *Server) handleHouseholds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		households, err := s.registry.ListHouseholds(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toHouseholdDTOs(households))
	case http.MethodPost:
		var req createHouseholdRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		h := core.Household{
			Code:         req.Code,
			Status:       core.HouseholdActive,
			HeadUserID:   req.HeadUserID,
			RegisteredAt: time.Now().UTC(),
		}
		if err := h.Validate(); err != nil {
			writeError(w, r, err)
			return
		}
		created, err := s.registry.CreateHousehold(r.Context(), h)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toHouseholdDTO(created))
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

type (
	addMemberRequest struct {
		FullName    string `json:"full_name"`
		LifeStatus  string `json:"life_status"`
		DateOfBirth string `json:"date_of_birth"`
		JoinedAt    string `json:"joined_at"`
	}

	setHouseholdStatusRequest struct {
		Status string `json:"status"`
	}
)

// handleHouseholdByID serves /households/{id}, /households/{id}/members and
// /households/{id}/status.
func (s *Server) handleHouseholdByID(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/households/")
	if len(parts) == 0 {
		writeError(w, r, core.ErrUnknownHousehold)
		return
	}
	id, err := parseID(parts[0])
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch {
	case len(parts) == 1:
		s.handleHouseholdDetail(w, r, id)
	case len(parts) == 2 && parts[1] == "members":
		s.handleHouseholdMembers(w, r, id)
	case len(parts) == 2 && parts[1] == "status":
		s.handleHouseholdStatus(w, r, id)
	default:
		writeError(w, r, badRequest("unknown household resource"))
	}
}

func (s *Server) handleHouseholdDetail(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	h, err := s.registry.HouseholdByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	members, err := s.registry.MembersOf(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, householdDetailDTO{
		householdDTO: toHouseholdDTO(h),
		Members:      toMemberDTOs(members),
	})
}

func (s *Server) handleHouseholdMembers(w http.ResponseWriter, r *http.Request, id int64) {
	switch r.Method {
	case http.MethodGet:
		members, err := s.registry.MembersOf(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toMemberDTOs(members))
	case http.MethodPost:
		var req addMemberRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.FullName == "" {
			writeError(w, r, badRequest("full_name is required"))
			return
		}
		status := core.LifeStatus(req.LifeStatus)
		if !status.Valid() {
			writeError(w, r, core.ErrInvalidLifeStatus)
			return
		}
		dob, err := parseDate("date_of_birth", req.DateOfBirth)
		if err != nil {
			writeError(w, r, err)
			return
		}
		joined := time.Now().UTC()
		if req.JoinedAt != "" {
			if joined, err = parseDate("joined_at", req.JoinedAt); err != nil {
				writeError(w, r, err)
				return
			}
		}
		created, err := s.registry.AddMember(r.Context(), core.Member{
			HouseholdID: id,
			FullName:    req.FullName,
			LifeStatus:  status,
			DateOfBirth: dob,
			JoinedAt:    joined,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMemberDTO(created))
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleHouseholdStatus(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, "PUT")
		return
	}
	var req setHouseholdStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status := core.HouseholdState(req.Status)
	if status != core.HouseholdActive && status != core.HouseholdInactive {
		writeError(w, r, badRequest("status must be active or inactive"))
		return
	}
	if err := s.registry.SetHouseholdStatus(r.Context(), id, status); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type setLifeStatusRequest struct {
	LifeStatus string `json:"life_status"`
	LeftAt     string `json:"left_at"`
}

// handleMemberByID serves /members/{id}/status. A transition to moved-out or
// deceased closes the membership period; left_at defaults to today.
func (s *Server) handleMemberByID(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/members/")
	if len(parts) != 2 || parts[1] != "status" {
		writeError(w, r, badRequest("unknown member resource"))
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w, "PUT")
		return
	}
	id, err := parseID(parts[0])
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req setLifeStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status := core.LifeStatus(req.LifeStatus)
	if !status.Valid() {
		writeError(w, r, core.ErrInvalidLifeStatus)
		return
	}

	var leftAt *time.Time
	if req.LeftAt != "" {
		t, err := parseDate("left_at", req.LeftAt)
		if err != nil {
			writeError(w, r, err)
			return
		}
		leftAt = &t
	} else if status == core.MovedOut || status == core.Deceased {
		now := time.Now().UTC()
		leftAt = &now
	}

	if err := s.registry.SetMemberLifeStatus(r.Context(), id, status, leftAt); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
