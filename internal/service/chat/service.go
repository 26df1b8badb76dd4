package chat

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"chatx-backend/internal/domain"
	"chatx-backend/internal/relay"
	"chatx-backend/pkg/logger"
	"chatx-backend/pkg/metrics"
)

// ErrSpamBlocked is returned when the classifier flags a message; the
// sender is told, the recipient never sees it.
var ErrSpamBlocked = errors.New("message classified as spam")

// MessageStore persists chat history
type MessageStore interface {
	Save(message *domain.Message) error
	GetRecent(pairKey string, limit int) ([]*domain.Message, error)
}

// ContactStore records which users have exchanged messages
type ContactStore interface {
	AddContact(ctx context.Context, username, contact string) error
}

// Service handles chat message processing: spam classification, sentiment
// tagging, and best-effort persistence. Delivery itself is the transport
// hub's job; this service only produces the payload to deliver.
type Service struct {
	messages MessageStore // nil: relay runs without history persistence
	contacts ContactStore // nil: contact tracking disabled
	spam     *SpamClient
	metrics  *metrics.Metrics
}

// NewService creates a new chat service
func NewService(messages MessageStore, contacts ContactStore, spam *SpamClient, m *metrics.Metrics) *Service {
	return &Service{
		messages: messages,
		contacts: contacts,
		spam:     spam,
		metrics:  m,
	}
}

// Send runs a message through classification and persistence and returns
// the payload to relay. A classifier failure or timeout degrades to
// non-spam: delivery must never stall on the external call. Persistence
// failures are logged and delivery proceeds.
func (s *Service) Send(ctx context.Context, sender, recipient, content string) (*domain.Message, error) {
	verdict, err := s.spam.Check(ctx, content)
	if err != nil {
		logger.Warn("spam classification failed, delivering anyway",
			zap.String("sender", sender),
			zap.Error(err))
		s.metrics.RecordSpamCheck("error")
	} else {
		s.metrics.RecordSpamCheck(string(verdict))
	}

	if verdict == VerdictSpam {
		s.metrics.RecordMessage("blocked")
		return nil, ErrSpamBlocked
	}

	now := time.Now()
	message := &domain.Message{
		PairKey:   relay.RoomID(sender, recipient),
		Bucket:    domain.CalculateBucket(now),
		Sender:    sender,
		Recipient: recipient,
		Content:   content,
		Mood:      AnalyzeMood(content),
		SentAt:    now,
	}

	if s.messages != nil {
		if err := s.messages.Save(message); err != nil {
			logger.Error("failed to persist chat message",
				zap.String("pair_key", message.PairKey),
				zap.Error(err))
		}
	}

	if s.contacts != nil {
		for _, pair := range [][2]string{{sender, recipient}, {recipient, sender}} {
			if err := s.contacts.AddContact(ctx, pair[0], pair[1]); err != nil {
				logger.Warn("failed to record contact",
					zap.String("username", pair[0]),
					zap.Error(err))
			}
		}
	}

	return message, nil
}

// History returns recent messages between two users in chronological order
func (s *Service) History(ctx context.Context, user, peer string, limit int) ([]*domain.Message, error) {
	if s.messages == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	messages, err := s.messages.GetRecent(relay.RoomID(user, peer), limit)
	if err != nil {
		return nil, err
	}

	// Repo returns newest first; clients render oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
