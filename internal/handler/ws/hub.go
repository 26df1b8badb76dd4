package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"chatx-backend/internal/relay"
	"chatx-backend/internal/service/chat"
	"chatx-backend/pkg/logger"
	"chatx-backend/pkg/metrics"
)

// Frame is the wire envelope for every transport event
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func newFrame(event string, data interface{}) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		logger.Error("failed to encode frame data",
			zap.String("event", event),
			zap.Error(err))
		raw = []byte("null")
	}
	out, _ := json.Marshal(Frame{Event: event, Data: raw})
	return out
}

// PresenceMirror publishes online/offline transitions to external storage.
// Best-effort: mirror failures are logged, never surfaced to sessions.
type PresenceMirror interface {
	SetOnline(ctx context.Context, identity string) error
	SetOffline(ctx context.Context, identity string) error
}

// Hub owns every open session and all relay state. All event handling is
// driven by the per-connection read loops, which serializes events per
// sender; shared state is guarded by the hub and relay mutexes, never by
// goroutine confinement alone.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // session id -> client

	presence *relay.Presence
	rooms    *relay.Rooms
	calls    *relay.Calls

	chat    *chat.Service
	mirror  PresenceMirror // nil: no external mirror
	metrics *metrics.Metrics
}

// NewHub creates a hub with empty relay state
func NewHub(chatService *chat.Service, mirror PresenceMirror, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		presence: relay.NewPresence(),
		rooms:    relay.NewRooms(),
		calls:    relay.NewCalls(),
		chat:     chatService,
		mirror:   mirror,
		metrics:  m,
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c.sessionID] = c
	h.mu.Unlock()
	h.metrics.WebSocketConnected()
}

// removeClient tears down everything a dead session touched: hub membership,
// room membership, presence, and, when this was the identity's last session,
// the engaged call. A peer left mid-call receives a synthetic call-ended as
// if the departed identity had hung up.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if h.clients[c.sessionID] != c {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.sessionID)
	h.mu.Unlock()

	h.metrics.WebSocketDisconnected()
	h.rooms.RemoveSession(c.sessionID)

	identity, gone := h.presence.Unregister(c.sessionID)
	if identity == "" {
		return
	}
	h.metrics.SetPresenceIdentities(len(h.presence.Identities()))

	if !gone {
		return
	}

	if h.mirror != nil {
		if err := h.mirror.SetOffline(context.Background(), identity); err != nil {
			logger.Warn("failed to mirror offline status",
				zap.String("identity", identity),
				zap.Error(err))
		}
	}

	for _, peer := range h.calls.Drop(identity) {
		logger.Info("identity dropped mid-call, ending call",
			zap.String("identity", identity),
			zap.String("peer", peer))
		h.metrics.RecordCallOutcome("dropped")
		h.sendToIdentity(peer, newFrame("call-ended", map[string]string{"from": identity}))
	}

	h.broadcastUsers()
}

// sendToClient queues a frame on one session. A full send buffer drops the
// frame; a slow consumer must not block the relay.
func (h *Hub) sendToClient(c *Client, frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		logger.Warn("send buffer full, dropping frame",
			zap.String("session_id", c.sessionID),
			zap.String("username", c.username))
		return false
	}
}

func (h *Hub) sendToSessions(sessionIDs []string, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, id := range sessionIDs {
		if c, ok := h.clients[id]; ok && h.sendToClient(c, frame) {
			delivered++
		}
	}
	return delivered
}

// sendToIdentity delivers a frame to every open session of an identity and
// returns how many sessions it reached. Zero is a routing miss, not an
// error; callers log it and move on.
func (h *Hub) sendToIdentity(identity string, frame []byte) int {
	return h.sendToSessions(h.presence.SessionsFor(identity), frame)
}

func (h *Hub) broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		h.sendToClient(c, frame)
	}
}

func (h *Hub) broadcastUsers() {
	h.broadcast(newFrame("updateUsers", h.presence.Identities()))
}

// handle dispatches one inbound frame. Malformed frames are logged and
// dropped; nothing a single session sends can affect other sessions beyond
// the events it is allowed to address to them.
func (h *Hub) handle(c *Client, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.Warn("malformed frame",
			zap.String("session_id", c.sessionID),
			zap.Error(err))
		h.metrics.RecordEventError("malformed_frame")
		return
	}

	h.metrics.RecordEvent(frame.Event)

	if frame.Event == "connect-user" {
		h.handleConnectUser(c, frame.Data)
		return
	}

	if c.username == "" {
		logger.Warn("event before connect-user, dropping",
			zap.String("session_id", c.sessionID),
			zap.String("event", frame.Event))
		h.metrics.RecordEventError("no_identity")
		return
	}

	switch frame.Event {
	case "message":
		h.handleMessage(c, frame.Data)
	case "typing":
		h.handleTyping(c, frame.Data)
	case "call-offer":
		h.handleCallOffer(c, frame.Data)
	case "call-accepted":
		h.handleCallAccepted(c, frame.Data)
	case "call-rejected":
		h.handleCallRejected(c, frame.Data)
	case "call-ended":
		h.handleCallEnded(c, frame.Data)
	case "join-room":
		h.handleJoinRoom(c, frame.Data)
	case "signal":
		h.handleSignal(c, frame.Data)
	default:
		logger.Debug("unknown event",
			zap.String("session_id", c.sessionID),
			zap.String("event", frame.Event))
		h.metrics.RecordEventError("unknown_event")
	}
}

func (h *Hub) handleConnectUser(c *Client, data json.RawMessage) {
	var payload struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Username == "" {
		logger.Warn("connect-user without username",
			zap.String("session_id", c.sessionID))
		h.metrics.RecordEventError("invalid_connect")
		return
	}

	c.username = payload.Username
	h.presence.Register(payload.Username, c.sessionID)
	h.metrics.SetPresenceIdentities(len(h.presence.Identities()))

	logger.Info("session registered",
		zap.String("session_id", c.sessionID),
		zap.String("username", payload.Username))

	if h.mirror != nil {
		if err := h.mirror.SetOnline(context.Background(), payload.Username); err != nil {
			logger.Warn("failed to mirror online status",
				zap.String("identity", payload.Username),
				zap.Error(err))
		}
	}

	h.broadcastUsers()
}

func (h *Hub) handleMessage(c *Client, data json.RawMessage) {
	var payload struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.To == "" {
		h.metrics.RecordEventError("invalid_message")
		return
	}

	message, err := h.chat.Send(context.Background(), c.username, payload.To, payload.Message)
	if err != nil {
		if errors.Is(err, chat.ErrSpamBlocked) {
			logger.Info("message blocked as spam",
				zap.String("sender", c.username),
				zap.String("recipient", payload.To))
			h.sendToClient(c, newFrame("error", map[string]string{
				"message": "Message blocked: classified as spam",
			}))
			return
		}
		logger.Error("failed to process message",
			zap.String("sender", c.username),
			zap.Error(err))
		return
	}

	delivered := h.sendToIdentity(payload.To, newFrame("message", message))
	if delivered == 0 {
		logger.Info("message routing miss",
			zap.String("sender", c.username),
			zap.String("recipient", payload.To))
		h.metrics.RecordRoutingMiss("message")
		h.metrics.RecordMessage("miss")
		return
	}
	h.metrics.RecordMessage("delivered")
}

func (h *Hub) handleTyping(c *Client, data json.RawMessage) {
	var payload struct {
		To string `json:"to"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.To == "" {
		return
	}
	h.sendToIdentity(payload.To, newFrame("typing", map[string]string{"from": c.username}))
}

func (h *Hub) handleCallOffer(c *Client, data json.RawMessage) {
	var payload struct {
		To   string `json:"to"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.To == "" {
		h.metrics.RecordEventError("invalid_call_offer")
		return
	}

	h.calls.Request(c.username, payload.To, payload.Type)
	h.metrics.RecordCallOffer(payload.Type)

	// The caller's receipt goes out before the ring fans out; the caller's
	// UI transitions on this ack regardless of callee availability.
	h.sendToClient(c, newFrame("call-offer-ack", map[string]string{
		"status":    "received",
		"recipient": payload.To,
	}))

	delivered := h.sendToIdentity(payload.To, newFrame("call-offer", map[string]string{
		"from": c.username,
		"type": payload.Type,
	}))
	if delivered == 0 {
		logger.Info("call-offer routing miss",
			zap.String("caller", c.username),
			zap.String("callee", payload.To))
		h.metrics.RecordRoutingMiss("call-offer")
	}
}

func (h *Hub) handleCallAccepted(c *Client, data json.RawMessage) {
	var payload struct {
		To string `json:"to"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.To == "" {
		h.metrics.RecordEventError("invalid_call_accepted")
		return
	}

	if !h.calls.Accept(c.username, payload.To) {
		logger.Debug("stale call-accepted",
			zap.String("callee", c.username),
			zap.String("caller", payload.To))
	}
	h.metrics.RecordCallOutcome("accepted")

	if h.sendToIdentity(payload.To, newFrame("call-accepted", map[string]string{"from": c.username})) == 0 {
		h.metrics.RecordRoutingMiss("call-accepted")
	}
}

func (h *Hub) handleCallRejected(c *Client, data json.RawMessage) {
	var payload struct {
		To     string `json:"to"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.To == "" {
		h.metrics.RecordEventError("invalid_call_rejected")
		return
	}

	h.calls.Reject(c.username, payload.To)
	if payload.Reason == "busy" {
		h.metrics.RecordCallOutcome("busy")
	} else {
		h.metrics.RecordCallOutcome("rejected")
	}

	if h.sendToIdentity(payload.To, newFrame("call-rejected", map[string]string{
		"from":   c.username,
		"reason": payload.Reason,
	})) == 0 {
		h.metrics.RecordRoutingMiss("call-rejected")
	}
}

func (h *Hub) handleCallEnded(c *Client, data json.RawMessage) {
	var payload struct {
		To string `json:"to"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.To == "" {
		h.metrics.RecordEventError("invalid_call_ended")
		return
	}

	h.calls.End(c.username, payload.To)
	h.metrics.RecordCallOutcome("ended")

	if h.sendToIdentity(payload.To, newFrame("call-ended", map[string]string{"from": c.username})) == 0 {
		h.metrics.RecordRoutingMiss("call-ended")
	}
}

func (h *Hub) handleJoinRoom(c *Client, data json.RawMessage) {
	var payload struct {
		Room      string `json:"room"`
		Initiator bool   `json:"initiator"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Room == "" {
		h.metrics.RecordEventError("invalid_join_room")
		return
	}

	if !relay.ValidRoomID(payload.Room) {
		logger.Warn("suspicious room id",
			zap.String("session_id", c.sessionID),
			zap.String("room", payload.Room))
	}

	result := h.rooms.Join(payload.Room, c.sessionID)
	if payload.Initiator != result.Initiator {
		logger.Info("initiator claim disagrees with assignment",
			zap.String("session_id", c.sessionID),
			zap.String("room", payload.Room),
			zap.Bool("claimed", payload.Initiator),
			zap.Bool("assigned", result.Initiator))
	}

	// Existing members learn of the joiner before the joiner's own ack:
	// the joiner decides whether to create the offer based on the occupancy
	// in its ack, and that decision must not race the peer notification.
	h.sendToSessions(result.Others, newFrame("peer-joined", map[string]interface{}{
		"peerId":    c.sessionID,
		"initiator": result.Initiator,
	}))

	h.sendToClient(c, newFrame("room-joined", map[string]interface{}{
		"room":       payload.Room,
		"numClients": result.NumClients,
		"initiator":  result.Initiator,
	}))
}

func (h *Hub) handleSignal(c *Client, data json.RawMessage) {
	var payload struct {
		Room   string `json:"room"`
		Signal struct {
			Type string `json:"type"`
		} `json:"signal"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Room == "" {
		h.metrics.RecordEventError("invalid_signal")
		return
	}

	if !h.rooms.IsMember(payload.Room, c.sessionID) {
		logger.Warn("signal without room membership, dropping",
			zap.String("session_id", c.sessionID),
			zap.String("room", payload.Room))
		h.metrics.RecordEventError("signal_without_room")
		return
	}

	for _, peer := range h.calls.PeersOf(c.username) {
		if relay.RoomID(c.username, peer) == payload.Room {
			h.calls.MarkActive(c.username, peer)
		}
	}

	signalType := payload.Signal.Type
	if signalType == "" {
		signalType = "candidate"
	}
	h.metrics.RecordSignalRelayed(signalType)

	// Forward the original bytes untouched; the envelope is opaque beyond
	// the type peeked for metrics.
	out, _ := json.Marshal(Frame{Event: "signal", Data: data})
	h.sendToSessions(h.rooms.MembersExcept(payload.Room, c.sessionID), out)
}
