package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riffdeck/cli/internal/api"
)

type stubReplyClient struct {
	mu     sync.Mutex
	events int
	msgs   []api.Message
	evErr  error
}

func (s *stubReplyClient) Events(ctx context.Context, appSlug, riffID string) ([]api.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evErr != nil {
		return nil, s.evErr
	}
	out := make([]api.Event, s.events)
	for i := range out {
		out[i] = api.Event(`{}`)
	}
	return out, nil
}

func (s *stubReplyClient) Conversation(ctx context.Context, appSlug, riffID string) (*api.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &api.Conversation{Messages: append([]api.Message(nil), s.msgs...)}, nil
}

func (s *stubReplyClient) set(events int, msgs []api.Message) {
	s.mu.Lock()
	s.events = events
	s.msgs = msgs
	s.mu.Unlock()
}

func TestWaitForReplyReturnsAgentReply(t *testing.T) {
	stub := &stubReplyClient{}
	stub.set(2, []api.Message{
		{Role: api.RoleUser, Content: "earlier"},
		{Role: api.RoleUser, Content: "hi"},
	})

	// Agent replies shortly after the first poll.
	go func() {
		time.Sleep(20 * time.Millisecond)
		stub.set(3, []api.Message{
			{Role: api.RoleUser, Content: "earlier"},
			{Role: api.RoleUser, Content: "hi"},
			{Role: api.RoleAgent, Content: "hello!"},
		})
	}()

	// Baselines taken before the send: 1 event, 1 message.
	got, err := waitForReply(context.Background(), stub, 5*time.Millisecond, time.Second, "demo", "r1", 1, 1)
	if err != nil {
		t.Fatalf("waitForReply: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2 (send echo + reply): %+v", len(got), got)
	}
	if got[1].Role != api.RoleAgent || got[1].Content != "hello!" {
		t.Errorf("reply = %+v", got[1])
	}
}

func TestWaitForReplyTimesOutWithJustTheEcho(t *testing.T) {
	stub := &stubReplyClient{}
	stub.set(2, []api.Message{
		{Role: api.RoleUser, Content: "hi"},
	})

	got, err := waitForReply(context.Background(), stub, time.Millisecond, 30*time.Millisecond, "demo", "r1", 1, 0)
	if err != nil {
		t.Fatalf("waitForReply: %v", err)
	}
	if len(got) != 1 || got[0].Content != "hi" {
		t.Errorf("got %+v, want just the echoed send", got)
	}
}

func TestWaitForReplySurvivesEventErrors(t *testing.T) {
	stub := &stubReplyClient{evErr: errors.New("boom")}
	stub.msgs = []api.Message{{Role: api.RoleUser, Content: "hi"}}

	got, err := waitForReply(context.Background(), stub, time.Millisecond, 20*time.Millisecond, "demo", "r1", 0, 0)
	if err != nil {
		t.Fatalf("waitForReply: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestDescribeErrors(t *testing.T) {
	if describe(nil) != nil {
		t.Error("nil should stay nil")
	}

	netErr := describe(&api.NetworkError{Cause: errors.New("connection refused")})
	if !strings.Contains(netErr.Error(), "cannot reach") {
		t.Errorf("network error = %q", netErr)
	}

	nf := describe(&api.APIError{Status: http.StatusNotFound, Body: "<html>gone</html>"})
	if !strings.Contains(nf.Error(), "not found") {
		t.Errorf("404 = %q", nf)
	}
	if strings.Contains(nf.Error(), "<html>") {
		t.Errorf("404 message should not leak the raw body: %q", nf)
	}

	server := describe(&api.APIError{Status: http.StatusInternalServerError, Body: "oops"})
	if !strings.Contains(server.Error(), "500") {
		t.Errorf("500 should pass through with its status: %q", server)
	}

	plain := errors.New("something else")
	if describe(plain) != plain {
		t.Error("unknown errors should pass through unchanged")
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Now()
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "-"},
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.t); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}
