// Package pacing provides the randomized delays that keep automated
// marketplace sessions from looking automated. Fixed delays are trivially
// fingerprinted; bounded uniform jitter is the mitigation.
package pacing

import (
	"math/rand"
	"sync"
	"time"

	"github.com/crosspost/backend/internal/domain/shared"
)

// Scope selects which delay band applies
type Scope string

const (
	// ScopeAction paces individual UI steps inside one submission,
	// on the order of seconds
	ScopeAction Scope = "action"
	// ScopePost paces whole publish cycles, on the order of minutes
	ScopePost Scope = "post"
)

// Bounds is an inclusive delay range
type Bounds struct {
	Min time.Duration
	Max time.Duration
}

func (b Bounds) validate() error {
	if b.Min < 0 {
		return shared.NewDomainError("INVALID_DELAY_BOUNDS", "Minimum delay cannot be negative")
	}
	if b.Max < b.Min {
		return shared.NewDomainError("INVALID_DELAY_BOUNDS", "Maximum delay cannot be below minimum")
	}
	return nil
}

// Policy samples delays uniformly within per-scope bounds. Sampling never
// blocks; the caller decides whether and how to actually wait.
type Policy struct {
	mu     sync.Mutex
	rng    *rand.Rand
	bounds map[Scope]Bounds
}

// NewPolicy builds a policy from the two delay bands
func NewPolicy(action, post Bounds) (*Policy, error) {
	if err := action.validate(); err != nil {
		return nil, err
	}
	if err := post.validate(); err != nil {
		return nil, err
	}
	return &Policy{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		bounds: map[Scope]Bounds{
			ScopeAction: action,
			ScopePost:   post,
		},
	}, nil
}

// NextDelay returns a uniformly sampled duration within the scope's bounds.
// Equal bounds return that constant.
func (p *Policy) NextDelay(scope Scope) (time.Duration, error) {
	b, ok := p.bounds[scope]
	if !ok {
		return 0, shared.NewDomainError("UNKNOWN_DELAY_SCOPE", "Unknown delay scope: "+string(scope))
	}
	if b.Min == b.Max {
		return b.Min, nil
	}
	p.mu.Lock()
	n := p.rng.Int63n(int64(b.Max - b.Min + 1))
	p.mu.Unlock()
	return b.Min + time.Duration(n), nil
}

// Bounds returns the configured range for a scope
func (p *Policy) Bounds(scope Scope) (Bounds, bool) {
	b, ok := p.bounds[scope]
	return b, ok
}
