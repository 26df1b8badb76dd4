package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestAndAccept(t *testing.T) {
	c := NewCalls()

	c.Request("alice", "bob", "video")
	assert.Equal(t, PhaseRinging, c.PhaseFor("alice"))

	peer, ok := c.PeerOf("bob")
	assert.True(t, ok)
	assert.Equal(t, "alice", peer)

	assert.True(t, c.Accept("bob", "alice"))
	assert.Equal(t, PhaseAccepted, c.PhaseFor("alice"))
}

func TestAccept_StaleOrMismatched(t *testing.T) {
	c := NewCalls()

	// No attempt at all
	assert.False(t, c.Accept("bob", "alice"))

	// Wrong callee
	c.Request("alice", "bob", "audio")
	assert.False(t, c.Accept("carol", "alice"))

	// Already accepted
	assert.True(t, c.Accept("bob", "alice"))
	assert.False(t, c.Accept("bob", "alice"))
}

func TestReject_ClearsAttempt(t *testing.T) {
	c := NewCalls()
	c.Request("alice", "bob", "video")

	c.Reject("bob", "alice")

	assert.Equal(t, PhaseNone, c.PhaseFor("alice"))
	_, ok := c.PeerOf("alice")
	assert.False(t, ok)
	_, ok = c.PeerOf("bob")
	assert.False(t, ok)
}

func TestEnd_FromEitherSideAtAnyPhase(t *testing.T) {
	c := NewCalls()

	c.Request("alice", "bob", "video")
	c.End("bob", "alice") // callee hangs up while ringing
	assert.Equal(t, PhaseNone, c.PhaseFor("alice"))

	c.Request("alice", "bob", "video")
	c.Accept("bob", "alice")
	c.End("alice", "bob")
	assert.Equal(t, PhaseNone, c.PhaseFor("alice"))
	_, ok := c.PeerOf("bob")
	assert.False(t, ok)
}

func TestMarkActive(t *testing.T) {
	c := NewCalls()
	c.Request("alice", "bob", "video")
	c.Accept("bob", "alice")

	c.MarkActive("bob", "alice")

	assert.Equal(t, PhaseActive, c.PhaseFor("alice"))
}

func TestMarkActive_IgnoresRinging(t *testing.T) {
	c := NewCalls()
	c.Request("alice", "bob", "video")

	c.MarkActive("alice", "bob")

	assert.Equal(t, PhaseRinging, c.PhaseFor("alice"))
}

func TestDrop_ReturnsEngagedPeer(t *testing.T) {
	c := NewCalls()
	c.Request("alice", "bob", "video")
	c.Accept("bob", "alice")

	peers := c.Drop("alice")

	assert.Equal(t, []string{"bob"}, peers)
	assert.Equal(t, PhaseNone, c.PhaseFor("alice"))
	_, engaged := c.PeerOf("bob")
	assert.False(t, engaged)
}

func TestDrop_NotEngaged(t *testing.T) {
	c := NewCalls()

	assert.Empty(t, c.Drop("alice"))
}

func TestRequest_ReplacesPreviousAttempt(t *testing.T) {
	c := NewCalls()

	c.Request("alice", "bob", "video")
	c.Request("alice", "carol", "audio")

	peer, ok := c.PeerOf("carol")
	assert.True(t, ok)
	assert.Equal(t, "alice", peer)
	assert.Equal(t, PhaseRinging, c.PhaseFor("alice"))
	assert.False(t, c.Accept("bob", "alice"))
	assert.True(t, c.Accept("carol", "alice"))

	// The abandoned ring left bob with no engagement
	_, ok = c.PeerOf("bob")
	assert.False(t, ok)
}

func TestBusySecondCaller_DoesNotDisturbActiveCall(t *testing.T) {
	c := NewCalls()
	c.Request("alice", "bob", "video")
	c.Accept("bob", "alice")
	c.MarkActive("alice", "bob")

	// carol rings the busy callee; bob's client declines with busy
	c.Request("carol", "bob", "audio")
	assert.Equal(t, []string{"alice", "carol"}, c.PeersOf("bob"))

	c.Reject("bob", "carol")

	// The original call survives the interleaved ring untouched
	assert.Equal(t, PhaseActive, c.PhaseFor("alice"))
	peer, ok := c.PeerOf("bob")
	assert.True(t, ok)
	assert.Equal(t, "alice", peer)
	assert.Equal(t, []string{"alice"}, c.Drop("bob"))
}

func TestDrop_WhileRingingAndActive(t *testing.T) {
	c := NewCalls()
	c.Request("alice", "bob", "video")
	c.Accept("bob", "alice")
	c.Request("carol", "bob", "audio")

	// bob vanishes before deciding on carol; both peers get the hangup
	assert.Equal(t, []string{"alice", "carol"}, c.Drop("bob"))
	assert.Equal(t, PhaseNone, c.PhaseFor("alice"))
	assert.Equal(t, PhaseNone, c.PhaseFor("carol"))
}
