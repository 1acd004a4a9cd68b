// Package riffsync keeps a local view of a remote riff (conversation) up
// to date without a push channel. It polls the riff's append-only event
// log on a timer, compares the event count against the last one seen, and
// re-fetches the whole conversation when the log grew. Sends are applied
// optimistically and followed by one short-delay reconciliation to pick up
// a fast agent reply.
package riffsync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/riffdeck/cli/internal/api"
	"github.com/riffdeck/cli/internal/logger"
)

var (
	// ErrInvalidMessage rejects whitespace-only input before any network
	// or store effect.
	ErrInvalidMessage = errors.New("message is empty")
	// ErrSendInProgress rejects a second send while one is outstanding.
	ErrSendInProgress = errors.New("a send is already in progress")
	// ErrClosed rejects operations on a torn-down session.
	ErrClosed = errors.New("session is closed")
)

// Client is the slice of the API surface the engine needs.
type Client interface {
	Conversation(ctx context.Context, appSlug, riffID string) (*api.Conversation, error)
	Events(ctx context.Context, appSlug, riffID string) ([]api.Event, error)
	SendMessage(ctx context.Context, appSlug, riffID, text string) (*api.Message, error)
}

type operation string

const (
	opConversation operation = "conversation"
	opEvents       operation = "events"
)

// Options tune one session. Zero values mean defaults.
type Options struct {
	PollInterval   time.Duration // period of the event poll (default 5s)
	ReconcileDelay time.Duration // post-send reconciliation delay (default 500ms)
	MaxPollBackoff time.Duration // ceiling while polls keep failing (default 1m)
	Visibility     Visibility    // default: always visible
	OnChange       func()        // fired after every state change
}

// State is a point-in-time copy of the session for rendering. Messages is
// a fresh slice; mutating it does not touch the session.
type State struct {
	Conversation *api.Riff
	Messages     []api.Message
	EventCount   int
	Loading      bool
	Sending      bool
	Polling      bool
	Err          error
}

// Session synchronizes one (app, riff) pair. All exported methods are safe
// for concurrent use; overlapping fetches of the same kind coalesce rather
// than race.
type Session struct {
	appSlug string
	riffID  string
	client  Client
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	riff           *api.Riff
	messages       []api.Message
	lastEventCount int
	loading        bool
	sending        bool
	err            error
	inFlight       map[operation]bool
	closed         bool
	started        bool
	pollEnabled    bool
	pollStop       chan struct{}
	reconcileTimer *time.Timer
	visCancel      func()
}

func New(client Client, appSlug, riffID string, opts Options) *Session {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.ReconcileDelay <= 0 {
		opts.ReconcileDelay = 500 * time.Millisecond
	}
	if opts.MaxPollBackoff <= 0 {
		opts.MaxPollBackoff = time.Minute
	}
	if opts.Visibility == nil {
		opts.Visibility = alwaysVisible{}
	}
	return &Session{
		appSlug:  appSlug,
		riffID:   riffID,
		client:   client,
		opts:     opts,
		inFlight: make(map[operation]bool),
	}
}

// Start runs the initial load and, when it succeeds, begins polling and
// listening for visibility changes. With either identifier missing it does
// nothing: the hosting view is only partially initialized, not broken.
// Start blocks until the initial load finishes.
func (s *Session) Start(ctx context.Context) {
	if s.appSlug == "" || s.riffID == "" {
		return
	}

	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.loading = true
	s.pollEnabled = s.opts.Visibility.Visible()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	s.notify()

	convErr := s.LoadConversation(s.ctx)
	var evErr error
	if convErr == nil {
		_, evErr = s.LoadEvents(s.ctx)
	}

	s.mu.Lock()
	s.loading = false
	if s.err == nil && evErr != nil {
		s.err = evErr
	}
	ok := convErr == nil && evErr == nil && !s.closed
	s.mu.Unlock()
	s.notify()

	if !ok {
		return
	}
	s.startPolling()
	cancelVis := s.opts.Visibility.OnChange(s.onVisibility)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancelVis()
		return
	}
	s.visCancel = cancelVis
	s.mu.Unlock()
}

// Close tears the session down: polling stops, the visibility listener
// detaches, the pending reconcile timer is cancelled, and results of any
// still-in-flight fetch are dropped. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.reconcileTimer != nil {
		s.reconcileTimer.Stop()
		s.reconcileTimer = nil
	}
	stop := s.pollStop
	s.pollStop = nil
	vis := s.visCancel
	s.visCancel = nil
	cancel := s.cancel
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if vis != nil {
		vis()
	}
	if cancel != nil {
		cancel()
	}
}

// LoadConversation re-fetches the conversation and replaces the message
// list wholesale. Success clears any prior error; failure records it.
// A call while another conversation fetch is in flight coalesces into it.
func (s *Session) LoadConversation(ctx context.Context) error {
	err := s.fetchConversation(ctx)
	if err != nil {
		s.mu.Lock()
		if !s.closed {
			s.err = err
		}
		s.mu.Unlock()
		s.notify()
	}
	return err
}

// fetchConversation is LoadConversation without the error recording: the
// poll path wants a transient failure logged, not splashed on the UI.
func (s *Session) fetchConversation(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.inFlight[opConversation] {
		s.mu.Unlock()
		return nil
	}
	s.inFlight[opConversation] = true
	s.mu.Unlock()

	conv, err := s.client.Conversation(ctx, s.appSlug, s.riffID)

	s.mu.Lock()
	delete(s.inFlight, opConversation)
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	riff := conv.Riff
	s.riff = &riff
	s.messages = append([]api.Message(nil), conv.Messages...)
	s.err = nil
	s.mu.Unlock()
	s.notify()
	return nil
}

// LoadEvents fetches the event log and, when the count grew past the last
// known one, triggers exactly one conversation re-fetch and records the new
// count. A failed fetch never changes the count. Returns the observed
// count (the last known one on failure).
func (s *Session) LoadEvents(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.closed || s.inFlight[opEvents] {
		n := s.lastEventCount
		s.mu.Unlock()
		return n, nil
	}
	s.inFlight[opEvents] = true
	s.mu.Unlock()

	events, err := s.client.Events(ctx, s.appSlug, s.riffID)

	s.mu.Lock()
	delete(s.inFlight, opEvents)
	if s.closed {
		s.mu.Unlock()
		return 0, nil
	}
	if err != nil {
		n := s.lastEventCount
		s.mu.Unlock()
		logger.Warn("event fetch failed", "app", s.appSlug, "riff", s.riffID, "error", err)
		return n, err
	}
	count := len(events)
	grew := count > s.lastEventCount
	if grew {
		s.lastEventCount = count
	}
	s.mu.Unlock()

	if grew {
		if err := s.fetchConversation(ctx); err != nil {
			logger.Warn("reconcile fetch failed", "app", s.appSlug, "riff", s.riffID, "error", err)
		}
	}
	return count, nil
}

// Send appends text optimistically, posts it, and schedules one deferred
// reconciliation to absorb a fast agent reply. The optimistic message is
// not rolled back on failure; the next wholesale reconciliation supersedes
// it. POST errors propagate to the caller so it can restore the input box.
func (s *Session) Send(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrInvalidMessage
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.sending {
		s.mu.Unlock()
		return ErrSendInProgress
	}
	s.sending = true
	s.messages = append(s.messages, api.Message{
		Role:      api.RoleUser,
		Content:   trimmed,
		Timestamp: time.Now(),
	})
	s.mu.Unlock()
	s.notify()

	_, err := s.client.SendMessage(ctx, s.appSlug, s.riffID, trimmed)

	s.mu.Lock()
	s.sending = false
	closed := s.closed
	s.mu.Unlock()
	s.notify()

	if !closed {
		s.scheduleReconcile()
	}
	return err
}

// scheduleReconcile arms the single deferred reconciliation. The delay is
// a heuristic, not a protocol guarantee: an immediate re-fetch would race
// agent processing that has not started yet. A second send before the
// timer fires re-arms it rather than stacking another.
func (s *Session) scheduleReconcile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.reconcileTimer != nil {
		s.reconcileTimer.Stop()
	}
	s.reconcileTimer = time.AfterFunc(s.opts.ReconcileDelay, func() {
		ctx := s.sessionContext()
		if err := s.LoadConversation(ctx); err != nil {
			logger.Warn("deferred reconcile failed", "app", s.appSlug, "riff", s.riffID, "error", err)
		}
		_, _ = s.LoadEvents(ctx) // failures already logged inside
	})
}

func (s *Session) sessionContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

// Snapshot returns a copy of the session state for rendering.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		EventCount: s.lastEventCount,
		Loading:    s.loading,
		Sending:    s.sending,
		Polling:    s.pollStop != nil && s.pollEnabled,
		Err:        s.err,
		Messages:   append([]api.Message(nil), s.messages...),
	}
	if s.riff != nil {
		riff := *s.riff
		st.Conversation = &riff
	}
	return st
}

// startPolling begins the periodic event poll. Re-entrant starts replace
// the running loop so there is never more than one timer.
func (s *Session) startPolling() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.pollStop != nil {
		close(s.pollStop)
	}
	stop := make(chan struct{})
	s.pollStop = stop
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	go s.pollLoop(ctx, stop)
}

// stopPolling cancels the poll loop. Idempotent.
func (s *Session) stopPolling() {
	s.mu.Lock()
	if s.pollStop != nil {
		close(s.pollStop)
		s.pollStop = nil
	}
	s.mu.Unlock()
}

func (s *Session) pollLoop(ctx context.Context, stop chan struct{}) {
	backoff := NewBackoff(s.opts.PollInterval, s.opts.MaxPollBackoff)
	timer := time.NewTimer(s.opts.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		s.mu.Lock()
		enabled := s.pollEnabled && !s.closed
		s.mu.Unlock()
		if !enabled {
			timer.Reset(s.opts.PollInterval)
			continue
		}

		if _, err := s.LoadEvents(ctx); err != nil {
			// Degraded poll: already logged, stretch the next tick.
			timer.Reset(backoff.Next())
			continue
		}
		backoff.Reset()
		timer.Reset(s.opts.PollInterval)
	}
}

// onVisibility pauses the scheduler while hidden and, on return, resumes
// it plus one immediate out-of-band event fetch so the view catches up
// right away instead of after a full period.
func (s *Session) onVisibility(visible bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pollEnabled = visible
	ctx := s.ctx
	s.mu.Unlock()
	s.notify()

	if !visible {
		s.stopPolling()
		return
	}
	s.startPolling()
	go func() {
		if ctx == nil {
			ctx = context.Background()
		}
		_, _ = s.LoadEvents(ctx)
	}()
}

func (s *Session) notify() {
	if s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}
