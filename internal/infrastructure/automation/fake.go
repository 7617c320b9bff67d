package automation

import (
	"context"
	"sync"
	"time"

	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/crosspost/backend/internal/infrastructure/proxy"
)

// ScriptedOutcome is one pre-programmed SubmitListing result
type ScriptedOutcome struct {
	URL string
	Err error
}

// ScriptedAdapter plays back a fixed sequence of submission outcomes.
// It exists for orchestrator tests; no browser is involved. The last
// outcome repeats once the script runs out.
type ScriptedAdapter struct {
	platform shared.Platform

	mu          sync.Mutex
	authErr     error
	outcomes    []ScriptedOutcome
	next        int
	submitDelay time.Duration
	submitCalls int
	authCalls   int
	lastPayload Payload
	lastEgress  *proxy.Descriptor
}

func NewScriptedAdapter(platform shared.Platform, outcomes ...ScriptedOutcome) *ScriptedAdapter {
	return &ScriptedAdapter{platform: platform, outcomes: outcomes}
}

func (a *ScriptedAdapter) Platform() shared.Platform {
	return a.platform
}

// FailAuth makes every Authenticate call return err
func (a *ScriptedAdapter) FailAuth(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authErr = err
}

// SetSubmitDelay makes SubmitListing block, to exercise cancellation races
func (a *ScriptedAdapter) SetSubmitDelay(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.submitDelay = d
}

// SubmitCalls reports how many submissions ran
func (a *ScriptedAdapter) SubmitCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.submitCalls
}

// AuthCalls reports how many sessions were opened
func (a *ScriptedAdapter) AuthCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authCalls
}

// LastPayload returns the most recent submitted payload
func (a *ScriptedAdapter) LastPayload() Payload {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastPayload
}

// LastEgress returns the proxy handed to the most recent session
func (a *ScriptedAdapter) LastEgress() *proxy.Descriptor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastEgress
}

func (a *ScriptedAdapter) Authenticate(ctx context.Context, _ Credentials, egress *proxy.Descriptor) (Session, error) {
	a.mu.Lock()
	a.authCalls++
	a.lastEgress = egress
	err := a.authErr
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, Recoverable("scripted auth interrupted", ctx.Err())
	}
	return &scriptedSession{adapter: a}, nil
}

type scriptedSession struct {
	adapter *ScriptedAdapter
}

func (s *scriptedSession) SubmitListing(ctx context.Context, p Payload) (*Result, error) {
	a := s.adapter
	a.mu.Lock()
	a.submitCalls++
	a.lastPayload = p
	delay := a.submitDelay
	var outcome ScriptedOutcome
	if len(a.outcomes) > 0 {
		idx := a.next
		if idx >= len(a.outcomes) {
			idx = len(a.outcomes) - 1
		}
		outcome = a.outcomes[idx]
		a.next++
	}
	a.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, Recoverable("scripted submit interrupted", ctx.Err())
		}
	}
	if outcome.Err != nil {
		return nil, outcome.Err
	}
	url := outcome.URL
	if url == "" {
		url = "https://example.test/items/1"
	}
	return &Result{URL: url}, nil
}

func (s *scriptedSession) DeleteListing(context.Context, string) error {
	return nil
}

func (s *scriptedSession) Close() error {
	return nil
}

var (
	_ Adapter = (*ScriptedAdapter)(nil)
	_ Adapter = (*VintedAdapter)(nil)
	_ Adapter = (*LeboncoinAdapter)(nil)
)
