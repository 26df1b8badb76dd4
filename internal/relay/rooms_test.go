package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomID_Symmetric(t *testing.T) {
	assert.Equal(t, "alice-bob", RoomID("alice", "bob"))
	assert.Equal(t, "alice-bob", RoomID("bob", "alice"))
	assert.Equal(t, RoomID("zoe", "adam"), RoomID("adam", "zoe"))
}

func TestJoin_FirstJoinerIsInitiator(t *testing.T) {
	r := NewRooms()

	res := r.Join("alice-bob", "s1")
	assert.True(t, res.Initiator)
	assert.Equal(t, 1, res.NumClients)
	assert.Empty(t, res.Others)

	res = r.Join("alice-bob", "s2")
	assert.False(t, res.Initiator)
	assert.Equal(t, 2, res.NumClients)
	assert.Equal(t, []string{"s1"}, res.Others)
}

func TestJoin_Idempotent(t *testing.T) {
	r := NewRooms()
	r.Join("alice-bob", "s1")

	res := r.Join("alice-bob", "s1")

	assert.True(t, res.Initiator)
	assert.Equal(t, 1, res.NumClients)
	assert.Empty(t, res.Others)
}

func TestMembersExcept(t *testing.T) {
	r := NewRooms()
	r.Join("alice-bob", "s1")
	r.Join("alice-bob", "s2")

	assert.Equal(t, []string{"s2"}, r.MembersExcept("alice-bob", "s1"))
	assert.Equal(t, []string{"s1"}, r.MembersExcept("alice-bob", "s2"))
	assert.Empty(t, r.MembersExcept("no-room", "s1"))
}

func TestRemoveSession_PrunesEmptyRoom(t *testing.T) {
	r := NewRooms()
	r.Join("alice-bob", "s1")
	r.Join("alice-bob", "s2")
	r.Join("alice-carol", "s1")

	r.RemoveSession("s1")

	assert.False(t, r.IsMember("alice-bob", "s1"))
	assert.True(t, r.IsMember("alice-bob", "s2"))
	assert.Empty(t, r.RoomsOf("s1"))

	// alice-carol emptied; a rejoin starts fresh with a new initiator
	res := r.Join("alice-carol", "s3")
	assert.True(t, res.Initiator)
	assert.Equal(t, 1, res.NumClients)
}

func TestRemoveSession_InitiatorLeavesOccupiedRoom(t *testing.T) {
	r := NewRooms()
	r.Join("alice-bob", "s1")
	r.Join("alice-bob", "s2")

	r.RemoveSession("s1")

	// Room survives with s2; the next joiner does not inherit the role
	res := r.Join("alice-bob", "s3")
	assert.False(t, res.Initiator)
	assert.Equal(t, 2, res.NumClients)
}

func TestRoomsOf(t *testing.T) {
	r := NewRooms()
	r.Join("alice-bob", "s1")
	r.Join("alice-carol", "s1")

	assert.Equal(t, []string{"alice-bob", "alice-carol"}, r.RoomsOf("s1"))
}

func TestValidRoomID(t *testing.T) {
	assert.True(t, ValidRoomID("alice-bob"))
	assert.False(t, ValidRoomID("alice"))
	assert.False(t, ValidRoomID("-bob"))
	assert.False(t, ValidRoomID("alice-"))
}
