package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"bluemoon/internal/storage"
)

func seedInbox(store *apiStore) {
	store.inbox = append(store.inbox,
		storage.InboxMessage{
			ID:          "msg-1",
			UserID:      7,
			Kind:        "fee-open",
			FeeID:       1,
			Title:       "Khoản thu mới: Phí quản lý",
			Body:        "Khoản thu Phí quản lý đã được mở, hạn nộp 31/01/2025.",
			ScheduledAt: date(2025, 1, 1),
			CreatedAt:   date(2025, 1, 1),
		},
		storage.InboxMessage{
			ID:          "msg-2",
			UserID:      8,
			Kind:        "due-soon",
			FeeID:       1,
			Title:       "Sắp đến hạn nộp",
			Body:        "Còn 2 ngày để nộp Phí quản lý.",
			ScheduledAt: date(2025, 1, 29),
			CreatedAt:   date(2025, 1, 29),
		},
	)
}

func TestInboxEndpoint(t *testing.T) {
	store := newAPIStore()
	seedInbox(store)
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodGet, "/inbox?user_id=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /inbox = %d, body %s", rec.Code, rec.Body.String())
	}
	var got []inboxMessageDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "msg-1" || got[0].Read {
		t.Fatalf("unexpected inbox: %+v", got)
	}

	if rec := doJSON(t, s, http.MethodGet, "/inbox", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing user_id = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPut, "/inbox?user_id=7", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("PUT /inbox = %d, want 405", rec.Code)
	}
}

func TestMarkInboxRead(t *testing.T) {
	store := newAPIStore()
	seedInbox(store)
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodPost, "/inbox/msg-1/read", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("POST read = %d, body %s", rec.Code, rec.Body.String())
	}
	if !store.inbox[0].Read {
		t.Fatal("message should be flagged read")
	}

	if rec := doJSON(t, s, http.MethodPost, "/inbox/nope/read", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown message = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/inbox/msg-1/read", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET read = %d, want 405", rec.Code)
	}
}
