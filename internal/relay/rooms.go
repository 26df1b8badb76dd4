package relay

import (
	"sort"
	"strings"
	"sync"
)

// RoomID derives the deterministic room identifier for two identities:
// lexicographically sorted, joined with a hyphen. Both peers compute the
// same id independently, so no handshake round-trip is needed.
func RoomID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "-" + b
}

// JoinResult describes the outcome of a room join
type JoinResult struct {
	// Others holds the sessions that were already members before this join
	Others []string
	// NumClients is the membership size after the join
	NumClients int
	// Initiator reports the relay-assigned role: the first joiner of an
	// empty room is the initiator and must generate the offer once it sees
	// occupancy reach 2.
	Initiator bool
}

// Rooms tracks which sessions joined each signaling room. The relay, not
// the client, is the source of truth for the initiator role; the client's
// self-reported flag is accepted on the wire but only logged when it
// disagrees with the assignment.
type Rooms struct {
	mu         sync.Mutex
	members    map[string]map[string]struct{} // room -> session ids
	initiators map[string]string              // room -> initiator session
}

// NewRooms creates an empty room coordinator
func NewRooms() *Rooms {
	return &Rooms{
		members:    make(map[string]map[string]struct{}),
		initiators: make(map[string]string),
	}
}

// Join adds a session to a room and reports the prior members, the
// occupancy after the join, and the assigned initiator role. Joining a room
// the session is already in is idempotent.
func (r *Rooms) Join(room, sessionID string) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[room]
	if !ok {
		set = make(map[string]struct{})
		r.members[room] = set
	}

	if len(set) == 0 {
		r.initiators[room] = sessionID
	}

	others := make([]string, 0, len(set))
	for id := range set {
		if id != sessionID {
			others = append(others, id)
		}
	}
	sort.Strings(others)

	set[sessionID] = struct{}{}

	return JoinResult{
		Others:     others,
		NumClients: len(set),
		Initiator:  r.initiators[room] == sessionID,
	}
}

// MembersExcept returns the room's members other than the given session.
// An unknown room yields an empty slice.
func (r *Rooms) MembersExcept(room, sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[room]
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		if id != sessionID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// IsMember reports whether a session has joined a room
func (r *Rooms) IsMember(room, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[room]
	if !ok {
		return false
	}
	_, member := set[sessionID]
	return member
}

// RoomsOf returns the rooms a session has joined
func (r *Rooms) RoomsOf(sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rooms []string
	for room, set := range r.members {
		if _, ok := set[sessionID]; ok {
			rooms = append(rooms, room)
		}
	}
	sort.Strings(rooms)
	return rooms
}

// RemoveSession drops a session from every room it joined. Rooms whose
// membership empties are pruned; the deterministic id means the same two
// identities simply recreate the room on their next call.
func (r *Rooms) RemoveSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room, set := range r.members {
		if _, ok := set[sessionID]; !ok {
			continue
		}
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.members, room)
			delete(r.initiators, room)
		} else if r.initiators[room] == sessionID {
			delete(r.initiators, room)
		}
	}
}

// ValidRoomID reports whether an id has the two-identity hyphenated shape.
// Used only for logging suspicious joins, never to reject them.
func ValidRoomID(room string) bool {
	return strings.Count(room, "-") >= 1 && !strings.HasPrefix(room, "-") && !strings.HasSuffix(room, "-")
}
