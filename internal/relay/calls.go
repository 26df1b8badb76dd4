package relay

import (
	"sort"
	"sync"
	"time"
)

// Phase is the lifecycle phase of one call attempt
type Phase int

const (
	PhaseNone Phase = iota
	PhaseRinging
	PhaseAccepted
	PhaseActive
)

// String returns the phase name for logging
func (p Phase) String() string {
	switch p {
	case PhaseRinging:
		return "ringing"
	case PhaseAccepted:
		return "accepted"
	case PhaseActive:
		return "active"
	default:
		return "none"
	}
}

// Attempt is one call attempt, keyed by the calling identity. The relay is
// single-call-per-caller-attempt: a new request from the same caller
// replaces the previous attempt.
type Attempt struct {
	Caller    string
	Callee    string
	MediaType string
	Phase     Phase
	StartedAt time.Time
}

// Calls tracks in-flight call attempts. Nothing here is persisted; state
// lives only for the duration of one attempt.
//
// The attempts map is the single source of truth for engagement, and every
// engagement is pair-scoped: a second caller ringing a busy callee creates
// its own attempt and its busy rejection clears only that attempt, never
// the callee's existing call.
//
// Busy arbitration is intentionally NOT enforced here: the receiving client
// decides and replies reject-with-reason-"busy". Engagement is tracked so
// the transport lifecycle can emit a synthetic hangup when a session drops
// mid-call.
type Calls struct {
	mu       sync.Mutex
	attempts map[string]*Attempt // caller identity -> attempt
}

// NewCalls creates an empty call state tracker
func NewCalls() *Calls {
	return &Calls{
		attempts: make(map[string]*Attempt),
	}
}

// Request records a new ringing attempt from caller to callee, replacing
// any previous attempt by the same caller
func (c *Calls) Request(caller, callee, mediaType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempts[caller] = &Attempt{
		Caller:    caller,
		Callee:    callee,
		MediaType: mediaType,
		Phase:     PhaseRinging,
		StartedAt: time.Now(),
	}
}

// Accept moves a ringing attempt to accepted. Returns false when no
// matching attempt exists (stale accept), which callers log and otherwise
// ignore: forwarding still happens, fire-and-forget.
func (c *Calls) Accept(callee, caller string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	attempt, ok := c.attempts[caller]
	if !ok || attempt.Callee != callee || attempt.Phase != PhaseRinging {
		return false
	}
	attempt.Phase = PhaseAccepted
	return true
}

// MarkActive moves an accepted attempt to active once media signaling
// starts flowing through the pair's room
func (c *Calls) MarkActive(a, b string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, caller := range []string{a, b} {
		if attempt, ok := c.attempts[caller]; ok && attempt.Phase == PhaseAccepted {
			other := a
			if caller == a {
				other = b
			}
			if attempt.Callee == other {
				attempt.Phase = PhaseActive
			}
		}
	}
}

// Reject terminates a ringing attempt from the callee's side. Only the
// rejected pair's attempt is cleared; any other call the callee is engaged
// in is untouched.
func (c *Calls) Reject(callee, caller string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearPairLocked(caller, callee)
}

// End terminates the attempt between two identities, from either side and
// at any phase
func (c *Calls) End(from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearPairLocked(from, to)
}

// PeerOf returns the identity engaged with the given one through its most
// advanced attempt, if any. Ties break lexicographically so the answer is
// deterministic.
func (c *Calls) PeerOf(identity string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var best string
	bestPhase := PhaseNone
	for _, attempt := range c.attempts {
		peer, ok := counterpart(attempt, identity)
		if !ok {
			continue
		}
		if attempt.Phase > bestPhase || (attempt.Phase == bestPhase && peer < best) {
			best = peer
			bestPhase = attempt.Phase
		}
	}
	return best, bestPhase != PhaseNone
}

// PeersOf returns every identity engaged with the given one, sorted. A
// callee can be active with one peer while another caller is still ringing
// it; both edges are engagements.
func (c *Calls) PeersOf(identity string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{})
	for _, attempt := range c.attempts {
		if peer, ok := counterpart(attempt, identity); ok {
			seen[peer] = struct{}{}
		}
	}

	peers := make([]string, 0, len(seen))
	for peer := range seen {
		peers = append(peers, peer)
	}
	sort.Strings(peers)
	return peers
}

// PhaseFor returns the phase of the attempt initiated by the given caller
func (c *Calls) PhaseFor(caller string) Phase {
	c.mu.Lock()
	defer c.mu.Unlock()

	if attempt, ok := c.attempts[caller]; ok {
		return attempt.Phase
	}
	return PhaseNone
}

// Drop clears every attempt involving an identity and returns the sorted
// peers that should receive a synthetic hangup. Called by the transport
// lifecycle when an identity's last session drops.
func (c *Calls) Drop(identity string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{})
	for caller, attempt := range c.attempts {
		if peer, ok := counterpart(attempt, identity); ok {
			seen[peer] = struct{}{}
			delete(c.attempts, caller)
		}
	}

	peers := make([]string, 0, len(seen))
	for peer := range seen {
		peers = append(peers, peer)
	}
	sort.Strings(peers)
	return peers
}

func (c *Calls) clearPairLocked(a, b string) {
	if attempt, ok := c.attempts[a]; ok && attempt.Callee == b {
		delete(c.attempts, a)
	}
	if attempt, ok := c.attempts[b]; ok && attempt.Callee == a {
		delete(c.attempts, b)
	}
}

func counterpart(attempt *Attempt, identity string) (string, bool) {
	switch identity {
	case attempt.Caller:
		return attempt.Callee, true
	case attempt.Callee:
		return attempt.Caller, true
	}
	return "", false
}
