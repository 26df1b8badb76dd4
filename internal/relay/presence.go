package relay

import (
	"sort"
	"sync"
)

// Presence maps each identity to the set of transport sessions it currently
// owns. A user may be connected from several devices at once; the identity
// key exists only while its session set is non-empty.
//
// All mutation goes through the mutex-guarded methods here; there is no
// ambient shared state.
type Presence struct {
	mu       sync.RWMutex
	sessions map[string]map[string]struct{} // identity -> session ids
	owners   map[string]string              // session id -> identity
}

// NewPresence creates an empty presence registry
func NewPresence() *Presence {
	return &Presence{
		sessions: make(map[string]map[string]struct{}),
		owners:   make(map[string]string),
	}
}

// Register adds a session under an identity. Registering the same session id
// twice is a no-op; a session that was claimed by a different identity is
// moved to the new one so no session is ever owned by two identities.
func (p *Presence) Register(identity, sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.owners[sessionID]; ok {
		if prev == identity {
			return
		}
		p.removeLocked(prev, sessionID)
	}

	set, ok := p.sessions[identity]
	if !ok {
		set = make(map[string]struct{})
		p.sessions[identity] = set
	}
	set[sessionID] = struct{}{}
	p.owners[sessionID] = identity
}

// Unregister removes a session from whichever identity owns it. It returns
// the owning identity and whether that identity's session set became empty
// (in which case the identity key has been removed).
func (p *Presence) Unregister(sessionID string) (identity string, gone bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	identity, ok := p.owners[sessionID]
	if !ok {
		return "", false
	}

	p.removeLocked(identity, sessionID)
	_, stillOnline := p.sessions[identity]
	return identity, !stillOnline
}

func (p *Presence) removeLocked(identity, sessionID string) {
	delete(p.owners, sessionID)
	if set, ok := p.sessions[identity]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(p.sessions, identity)
		}
	}
}

// SessionsFor returns the session ids owned by an identity. An unknown
// identity yields an empty slice, never an error; callers treat "no
// sessions" as "deliver to nobody".
func (p *Presence) SessionsFor(identity string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	set, ok := p.sessions[identity]
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OwnerOf returns the identity that claimed a session, if any
func (p *Presence) OwnerOf(sessionID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	identity, ok := p.owners[sessionID]
	return identity, ok
}

// Identities returns the sorted set of identities with at least one session
func (p *Presence) Identities() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.sessions))
	for identity := range p.sessions {
		ids = append(ids, identity)
	}
	sort.Strings(ids)
	return ids
}
