package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL, "test-token")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "trailing slash trimmed", raw: "https://chat.example.com/", want: "https://chat.example.com"},
		{name: "kept as-is", raw: "http://localhost:8080", want: "http://localhost:8080"},
		{name: "missing scheme", raw: "chat.example.com", wantErr: true},
		{name: "empty", raw: "  ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestListMessages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Fatalf("path: got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "100" {
			t.Fatalf("limit: got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("auth header: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"m1","content":"hi","user_id":"u1","created_at":100},
			{"id":"m2","content":"yo","user_id":"u2","created_at":200}
		]`))
	})

	messages, err := client.ListMessages(context.Background(), 100)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len: got %d want 2", len(messages))
	}
	if messages[0].ID != "m1" || messages[1].CreatedAt != 200 {
		t.Fatalf("decoded wrong: %+v", messages)
	}
}

func TestDeleteReactionQuery(t *testing.T) {
	var gotMethod, gotMessageID, gotUserID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotMessageID = r.URL.Query().Get("message_id")
		gotUserID = r.URL.Query().Get("user_id")
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.DeleteReaction(context.Background(), "m1", "u1"); err != nil {
		t.Fatalf("DeleteReaction: %v", err)
	}
	if gotMethod != http.MethodDelete || gotMessageID != "m1" || gotUserID != "u1" {
		t.Fatalf("request: %s message_id=%q user_id=%q", gotMethod, gotMessageID, gotUserID)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"23505","message":"duplicate key value"}`))
	})

	_, err := client.InsertReaction(context.Background(), "m1", "u1", "👍")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T", err)
	}
	if apiErr.Code != "23505" || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("error fields: %+v", apiErr)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		unique  bool
		fkey    bool
		noAuth  bool
	}{
		{name: "numeric unique code", err: &APIError{Status: 400, Code: "23505"}, unique: true},
		{name: "named unique code", err: &APIError{Status: 400, Code: "unique_violation"}, unique: true},
		{name: "conflict status", err: &APIError{Status: http.StatusConflict}, unique: true},
		{name: "numeric fk code", err: &APIError{Status: 400, Code: "23503"}, fkey: true},
		{name: "named fk code", err: &APIError{Status: 400, Code: "foreign_key_violation"}, fkey: true},
		{name: "forbidden", err: &APIError{Status: http.StatusForbidden}, noAuth: true},
		{name: "named auth code", err: &APIError{Status: 400, Code: "not_authorized"}, noAuth: true},
		{name: "plain error", err: errors.New("boom")},
		{name: "other api error", err: &APIError{Status: 500, Code: "internal"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.unique {
				t.Fatalf("IsUniqueViolation: got %v want %v", got, tt.unique)
			}
			if got := IsForeignKeyViolation(tt.err); got != tt.fkey {
				t.Fatalf("IsForeignKeyViolation: got %v want %v", got, tt.fkey)
			}
			if got := IsNotAuthorized(tt.err); got != tt.noAuth {
				t.Fatalf("IsNotAuthorized: got %v want %v", got, tt.noAuth)
			}
		})
	}
}

func TestUpdateMessageConstrainedByAuthor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages/m1" {
			t.Fatalf("path: got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "u1" {
			t.Fatalf("user_id: got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.UpdateMessageContent(context.Background(), "m1", "u1", "edited"); err != nil {
		t.Fatalf("UpdateMessageContent: %v", err)
	}
}
