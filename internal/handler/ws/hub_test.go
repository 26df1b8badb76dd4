package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatx-backend/internal/service/chat"
	"chatx-backend/pkg/logger"
	"chatx-backend/pkg/metrics"
)

func init() {
	logger.InitDefault()
}

func newTestHub(spamURL string) *Hub {
	chatService := chat.NewService(nil, nil, chat.NewSpamClient(spamURL, time.Second), metrics.NewMetrics("test"))
	return NewHub(chatService, nil, metrics.NewMetrics("test"))
}

func newTestClient(h *Hub, sessionID string) *Client {
	c := &Client{
		hub:       h,
		send:      make(chan []byte, 32),
		sessionID: sessionID,
	}
	h.addClient(c)
	return c
}

func send(t *testing.T, h *Hub, c *Client, event string, data string) {
	t.Helper()
	h.handle(c, []byte(fmt.Sprintf(`{"event":%q,"data":%s}`, event, data)))
}

func connect(t *testing.T, h *Hub, c *Client, username string) {
	t.Helper()
	send(t, h, c, "connect-user", fmt.Sprintf(`{"username":%q}`, username))
}

// recv pops the next queued frame; handling is synchronous so anything the
// hub sent is already buffered.
func recv(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw := <-c.send:
		var frame Frame
		require.NoError(t, json.Unmarshal(raw, &frame))
		return frame
	default:
		t.Fatal("expected a queued frame, got none")
		return Frame{}
	}
}

func recvData(t *testing.T, c *Client, wantEvent string) map[string]interface{} {
	t.Helper()
	frame := recv(t, c)
	require.Equal(t, wantEvent, frame.Event)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(frame.Data, &data))
	return data
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("expected no frames, got %s", raw)
	default:
	}
}

func TestConnectUser_BroadcastsPresence(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")

	connect(t, h, c1, "alice")

	frame := recv(t, c1)
	assert.Equal(t, "updateUsers", frame.Event)
	var users []string
	require.NoError(t, json.Unmarshal(frame.Data, &users))
	assert.Equal(t, []string{"alice"}, users)
	drain(c2)

	connect(t, h, c2, "bob")

	for _, c := range []*Client{c1, c2} {
		frame := recv(t, c)
		require.Equal(t, "updateUsers", frame.Event)
		require.NoError(t, json.Unmarshal(frame.Data, &users))
		assert.Equal(t, []string{"alice", "bob"}, users)
	}
}

func TestConnectUser_SecondDeviceSameIdentity(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")

	connect(t, h, c1, "alice")
	connect(t, h, c2, "alice")
	drain(c1)
	drain(c2)

	// Both sessions are reachable under the one identity
	n := h.sendToIdentity("alice", newFrame("typing", map[string]string{"from": "bob"}))
	assert.Equal(t, 2, n)
}

func TestCallOffer_AckThenRing(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	connect(t, h, c1, "alice")
	connect(t, h, c2, "bob")
	drain(c1)
	drain(c2)

	send(t, h, c1, "call-offer", `{"to":"bob","type":"video"}`)

	ack := recvData(t, c1, "call-offer-ack")
	assert.Equal(t, "received", ack["status"])
	assert.Equal(t, "bob", ack["recipient"])

	offer := recvData(t, c2, "call-offer")
	assert.Equal(t, "alice", offer["from"])
	assert.Equal(t, "video", offer["type"])
}

func TestCallOffer_NoSessionsDoesNotThrow(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	connect(t, h, c1, "alice")
	drain(c1)

	send(t, h, c1, "call-offer", `{"to":"ghost","type":"audio"}`)

	// Caller still gets its receipt; nothing else happens
	ack := recvData(t, c1, "call-offer-ack")
	assert.Equal(t, "ghost", ack["recipient"])
	assertEmpty(t, c1)
}

func TestCallAccepted_FromIsServerSideIdentity(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	connect(t, h, c1, "alice")
	connect(t, h, c2, "bob")
	drain(c1)
	drain(c2)

	send(t, h, c1, "call-offer", `{"to":"bob","type":"video"}`)
	drain(c1)
	drain(c2)

	send(t, h, c2, "call-accepted", `{"to":"alice"}`)

	accepted := recvData(t, c1, "call-accepted")
	assert.Equal(t, "bob", accepted["from"])
}

func TestCallRejected_BusyReasonRelayed(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	connect(t, h, c1, "alice")
	connect(t, h, c2, "bob")
	drain(c1)
	drain(c2)

	send(t, h, c1, "call-offer", `{"to":"bob","type":"video"}`)
	drain(c1)
	drain(c2)

	send(t, h, c2, "call-rejected", `{"to":"alice","reason":"busy"}`)

	rejected := recvData(t, c1, "call-rejected")
	assert.Equal(t, "bob", rejected["from"])
	assert.Equal(t, "busy", rejected["reason"])
}

func TestJoinRoom_FirstJoinerIsInitiator(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	connect(t, h, c1, "alice")
	connect(t, h, c2, "bob")
	drain(c1)
	drain(c2)

	send(t, h, c1, "join-room", `{"room":"alice-bob","initiator":true}`)

	joined := recvData(t, c1, "room-joined")
	assert.Equal(t, "alice-bob", joined["room"])
	assert.Equal(t, float64(1), joined["numClients"])
	assert.Equal(t, true, joined["initiator"])

	// Second joiner claims initiator but the assignment wins
	send(t, h, c2, "join-room", `{"room":"alice-bob","initiator":true}`)

	peerJoined := recvData(t, c1, "peer-joined")
	assert.Equal(t, "s2", peerJoined["peerId"])
	assert.Equal(t, false, peerJoined["initiator"])

	joined = recvData(t, c2, "room-joined")
	assert.Equal(t, float64(2), joined["numClients"])
	assert.Equal(t, false, joined["initiator"])
}

func TestSignal_RelayedToRoomExceptSender(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	connect(t, h, c1, "alice")
	connect(t, h, c2, "bob")
	send(t, h, c1, "join-room", `{"room":"alice-bob","initiator":true}`)
	send(t, h, c2, "join-room", `{"room":"alice-bob","initiator":false}`)
	drain(c1)
	drain(c2)

	payload := `{"signal":{"type":"offer","sdp":"v=0"},"room":"alice-bob"}`
	send(t, h, c1, "signal", payload)

	frame := recv(t, c2)
	assert.Equal(t, "signal", frame.Event)
	assert.JSONEq(t, payload, string(frame.Data))
	assertEmpty(t, c1)
}

func TestSignal_WithoutMembershipDropped(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	connect(t, h, c1, "alice")
	connect(t, h, c2, "bob")
	send(t, h, c1, "join-room", `{"room":"alice-bob","initiator":true}`)
	drain(c1)
	drain(c2)

	// bob never joined the room; his signal is dropped
	send(t, h, c2, "signal", `{"signal":{"type":"offer"},"room":"alice-bob"}`)

	assertEmpty(t, c1)
	assertEmpty(t, c2)
}

func TestDisconnect_MidCallEmitsSyntheticHangup(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	connect(t, h, c1, "alice")
	connect(t, h, c2, "bob")
	send(t, h, c1, "call-offer", `{"to":"bob","type":"video"}`)
	send(t, h, c2, "call-accepted", `{"to":"alice"}`)
	drain(c1)
	drain(c2)

	h.removeClient(c1)

	ended := recvData(t, c2, "call-ended")
	assert.Equal(t, "alice", ended["from"])

	frame := recv(t, c2)
	assert.Equal(t, "updateUsers", frame.Event)
	var users []string
	require.NoError(t, json.Unmarshal(frame.Data, &users))
	assert.Equal(t, []string{"bob"}, users)
}

func TestDisconnect_OtherDeviceStillOnlineKeepsCall(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c1b := newTestClient(h, "s1b")
	c2 := newTestClient(h, "s2")
	connect(t, h, c1, "alice")
	connect(t, h, c1b, "alice")
	connect(t, h, c2, "bob")
	send(t, h, c1, "call-offer", `{"to":"bob","type":"video"}`)
	drain(c1)
	drain(c1b)
	drain(c2)

	h.removeClient(c1)

	// alice is still online via her second device; no hangup, no broadcast
	assertEmpty(t, c2)
}

func TestMessage_Delivered(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	connect(t, h, c1, "alice")
	connect(t, h, c2, "bob")
	drain(c1)
	drain(c2)

	send(t, h, c1, "message", `{"to":"bob","message":"I love this"}`)

	msg := recvData(t, c2, "message")
	assert.Equal(t, "alice", msg["sender"])
	assert.Equal(t, "bob", msg["recipient"])
	assert.Equal(t, "I love this", msg["message"])
	assert.Equal(t, "happy", msg["mood"])
	assertEmpty(t, c1)
}

func TestMessage_SpamBlockedTellsSenderOnly(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prediction":"spam"}`))
	}))
	defer ts.Close()

	h := newTestHub(ts.URL)
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	connect(t, h, c1, "alice")
	connect(t, h, c2, "bob")
	drain(c1)
	drain(c2)

	send(t, h, c1, "message", `{"to":"bob","message":"buy cheap pills"}`)

	errFrame := recvData(t, c1, "error")
	assert.Contains(t, errFrame["message"], "spam")
	assertEmpty(t, c2)
}

func TestTyping_RelayedWithServerSideFrom(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	connect(t, h, c1, "alice")
	connect(t, h, c2, "bob")
	drain(c1)
	drain(c2)

	send(t, h, c1, "typing", `{"to":"bob"}`)

	typing := recvData(t, c2, "typing")
	assert.Equal(t, "alice", typing["from"])
}

func TestEventBeforeConnectUser_Dropped(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	connect(t, h, c2, "bob")
	drain(c1)
	drain(c2)

	send(t, h, c1, "call-offer", `{"to":"bob","type":"video"}`)

	assertEmpty(t, c1)
	assertEmpty(t, c2)
}

func TestDisconnect_BusyRejectDoesNotBreakActiveCallHangup(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	c3 := newTestClient(h, "s3")
	connect(t, h, c1, "alice")
	connect(t, h, c2, "bob")
	connect(t, h, c3, "carol")
	send(t, h, c1, "call-offer", `{"to":"bob","type":"video"}`)
	send(t, h, c2, "call-accepted", `{"to":"alice"}`)

	// carol rings the engaged callee and is declined busy
	send(t, h, c3, "call-offer", `{"to":"bob","type":"audio"}`)
	send(t, h, c2, "call-rejected", `{"to":"carol","reason":"busy"}`)
	drain(c1)
	drain(c2)
	drain(c3)

	// bob's call with alice must still hang up when bob vanishes
	h.removeClient(c2)

	ended := recvData(t, c1, "call-ended")
	assert.Equal(t, "bob", ended["from"])
}

func TestMalformedFrame_DoesNotAffectOtherSessions(t *testing.T) {
	h := newTestHub("")
	c1 := newTestClient(h, "s1")
	c2 := newTestClient(h, "s2")
	connect(t, h, c1, "alice")
	connect(t, h, c2, "bob")
	drain(c1)
	drain(c2)

	h.handle(c1, []byte(`{not json`))
	send(t, h, c1, "call-offer", `{"to":"bob","type":"video"}`)

	drain(c1)
	offer := recvData(t, c2, "call-offer")
	assert.Equal(t, "alice", offer["from"])
}
