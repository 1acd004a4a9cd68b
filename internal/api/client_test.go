package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(url string) *Client {
	return New(Config{BaseURL: url, UserUUID: "11111111-2222-3333-4444-555555555555", RequestsPerSecond: 1000})
}

func TestIdentityHeaderOnEveryRequest(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(UserHeader)
		json.NewEncoder(w).Encode(map[string]any{"projects": []App{}})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.Apps(context.Background()); err != nil {
		t.Fatalf("apps: %v", err)
	}
	if gotHeader != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("%s = %q", UserHeader, gotHeader)
	}
}

func TestConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/demo/conversations/r1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"id":"r1","slug":"r1","name":"First riff","created_at":"2026-08-01T10:00:00Z",
			"messages":[{"role":"user","content":"hi","timestamp":"2026-08-01T10:00:01Z"},
			{"role":"agent","content":"hello","timestamp":"2026-08-01T10:00:02Z"}]}`))
	}))
	defer srv.Close()

	conv, err := testClient(srv.URL).Conversation(context.Background(), "demo", "r1")
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if conv.Name != "First riff" {
		t.Errorf("name = %q", conv.Name)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(conv.Messages))
	}
	if conv.Messages[1].Role != RoleAgent {
		t.Errorf("role = %q", conv.Messages[1].Role)
	}
}

func TestEventsOpaqueCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events":[{"kind":"message.created"},{"kind":"agent.started"},{"whatever":[1,2,3]}]}`))
	}))
	defer srv.Close()

	events, err := testClient(srv.URL).Events(context.Background(), "demo", "r1")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("got %d events, want 3", len(events))
	}
}

func TestSendMessagePostsJSON(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"role":"user","content":"hello","timestamp":"2026-08-01T10:00:00Z"}`))
	}))
	defer srv.Close()

	msg, err := testClient(srv.URL).SendMessage(context.Background(), "demo", "r1", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q", gotMethod)
	}
	if gotContentType != "application/json" {
		t.Errorf("content-type = %q", gotContentType)
	}
	if gotBody["message"] != "hello" {
		t.Errorf("body = %v", gotBody)
	}
	if msg.Content != "hello" {
		t.Errorf("echo content = %q", msg.Content)
	}
}

func TestNon2xxBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no such riff"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Conversation(context.Background(), "demo", "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T (%v), want *APIError", err, err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("status = %d", apiErr.Status)
	}
	if apiErr.Body != "no such riff" {
		t.Errorf("body = %q", apiErr.Body)
	}
}

func TestNonJSONErrorBodySurvives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Events(context.Background(), "demo", "r1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T, want *APIError", err)
	}
	if apiErr.Body != "<html>bad gateway</html>" {
		t.Errorf("body = %q", apiErr.Body)
	}
}

func TestMalformed2xxBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Conversation(context.Background(), "demo", "r1")
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %T (%v), want *MalformedResponseError", err, err)
	}
}

func TestTransportFailureBecomesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := testClient(srv.URL).Events(context.Background(), "demo", "r1")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("got %T (%v), want *NetworkError", err, err)
	}
}

func TestMessageTextFlattensParts(t *testing.T) {
	m := Message{
		Role: RoleAgent,
		Parts: []ContentPart{
			{Type: PartText, Text: "here you go"},
			{Type: PartImage, URL: "https://cdn.riffdeck.dev/a.png"},
		},
	}
	want := "here you go\n[image: https://cdn.riffdeck.dev/a.png]"
	if got := m.Text(); got != want {
		t.Errorf("text = %q, want %q", got, want)
	}

	plain := Message{Role: RoleUser, Content: "hi"}
	if plain.Text() != "hi" {
		t.Errorf("text = %q", plain.Text())
	}
}
