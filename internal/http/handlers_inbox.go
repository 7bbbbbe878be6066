package http

import "net/http"

// handleInbox answers GET /inbox?user_id=N with the newest messages first.
func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	userID, err := parseID(r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, r, badRequest("user_id is required"))
		return
	}
	limit, _, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	msgs, err := s.inbox.InboxFor(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInboxDTOs(msgs))
}

// handleInboxRead serves POST /inbox/{id}/read.
func (s *Server) handleInboxRead(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/inbox/")
	if len(parts) != 2 || parts[1] != "read" {
		writeError(w, r, badRequest("unknown inbox resource"))
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	if err := s.inbox.MarkInboxRead(r.Context(), parts[0]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
