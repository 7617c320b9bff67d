// Package proxy rotates egress identities across publish attempts so a
// burst of submissions does not arrive from a single address.
package proxy

import (
	"sync"
	"time"

	"github.com/crosspost/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrExhausted is returned when every configured proxy is cooling down.
// Callers treat it as recoverable and retry after a delay.
var ErrExhausted = shared.NewDomainError("PROXY_POOL_EXHAUSTED", "All proxies are penalized, retry later")

const (
	// DefaultFailThreshold is how many consecutive failures trigger a cooldown
	DefaultFailThreshold = 3
	// DefaultCooldown is how long a penalized proxy sits out. Failures are
	// often transient network trouble, so exclusion is temporary.
	DefaultCooldown = 10 * time.Minute
)

type entry struct {
	desc       Descriptor
	failStreak int
	coolUntil  time.Time
}

// Pool hands out proxies round-robin per platform, never serving the same
// proxy twice in a row for one platform when an alternative exists, and
// never serving one proxy to two concurrent tasks on the same platform.
type Pool struct {
	mu            sync.Mutex
	entries       []*entry
	cursor        map[shared.Platform]int
	lastServed    map[shared.Platform]int
	inUse         map[shared.Platform]map[int]bool
	failThreshold int
	cooldown      time.Duration
	logger        *zap.Logger
}

// NewPool builds a pool over the given descriptors. An empty descriptor
// list is valid and means direct connections.
func NewPool(descriptors []Descriptor, failThreshold int, cooldown time.Duration, logger *zap.Logger) *Pool {
	if failThreshold <= 0 {
		failThreshold = DefaultFailThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	p := &Pool{
		cursor:        make(map[shared.Platform]int),
		lastServed:    make(map[shared.Platform]int),
		inUse:         make(map[shared.Platform]map[int]bool),
		failThreshold: failThreshold,
		cooldown:      cooldown,
		logger:        logger,
	}
	for _, d := range descriptors {
		p.entries = append(p.entries, &entry{desc: d})
	}
	return p
}

// Size returns how many proxies are configured
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Acquire picks the next usable proxy for a platform. A nil descriptor with
// a nil error means the pool is empty and the caller should connect
// directly. ErrExhausted means proxies exist but all are cooling down or
// busy on this platform.
func (p *Pool) Acquire(platform shared.Platform) (*Descriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entries) == 0 {
		return nil, nil
	}

	now := time.Now()
	busy := p.inUse[platform]
	last, hasLast := p.lastServed[platform]

	// two passes: first honor the no-immediate-repeat constraint, then
	// relax it when that proxy is the only usable one left
	for _, skipLast := range []bool{true, false} {
		start := p.cursor[platform]
		for i := 0; i < len(p.entries); i++ {
			idx := (start + i) % len(p.entries)
			e := p.entries[idx]
			if now.Before(e.coolUntil) {
				continue
			}
			if busy[idx] {
				continue
			}
			if skipLast && hasLast && idx == last && len(p.entries) > 1 {
				continue
			}

			p.cursor[platform] = (idx + 1) % len(p.entries)
			p.lastServed[platform] = idx
			if p.inUse[platform] == nil {
				p.inUse[platform] = make(map[int]bool)
			}
			p.inUse[platform][idx] = true

			d := e.desc
			return &d, nil
		}
	}

	return nil, ErrExhausted
}

// ReportSuccess releases the proxy and clears its failure streak
func (p *Pool) ReportSuccess(platform shared.Platform, d *Descriptor) {
	if d == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.find(d)
	if !ok {
		return
	}
	p.entries[idx].failStreak = 0
	delete(p.inUse[platform], idx)
}

// ReportFailure releases the proxy and counts the failure; a streak past
// the threshold sends the proxy into cooldown
func (p *Pool) ReportFailure(platform shared.Platform, d *Descriptor) {
	if d == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.find(d)
	if !ok {
		return
	}
	e := p.entries[idx]
	e.failStreak++
	if e.failStreak >= p.failThreshold {
		e.coolUntil = time.Now().Add(p.cooldown)
		e.failStreak = 0
		if p.logger != nil {
			p.logger.Warn("proxy penalized",
				zap.String("proxy", e.desc.Addr()),
				zap.Duration("cooldown", p.cooldown))
		}
	}
	delete(p.inUse[platform], idx)
}

func (p *Pool) find(d *Descriptor) (int, bool) {
	for i, e := range p.entries {
		if e.desc.Raw == d.Raw {
			return i, true
		}
	}
	return 0, false
}
