package cassandra

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"chatx-backend/internal/domain"
)

// MessageRepository handles chat history storage in Cassandra.
// Messages are partitioned by the deterministic pair key of the two
// participants plus a month bucket, so one conversation never grows into
// an unbounded partition.
type MessageRepository struct {
	session *gocql.Session
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(session *gocql.Session) *MessageRepository {
	return &MessageRepository{session: session}
}

// Save inserts a new message
func (r *MessageRepository) Save(message *domain.Message) error {
	if message.Bucket == 0 {
		message.Bucket = domain.CalculateBucket(message.SentAt)
	}
	if message.MessageID == uuid.Nil {
		message.MessageID = uuid.New()
	}

	query := `
		INSERT INTO messages (
			pair_key, bucket, message_id, sender, recipient, content, mood, sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.session.Query(query,
		message.PairKey,
		message.Bucket,
		message.MessageID,
		message.Sender,
		message.Recipient,
		message.Content,
		message.Mood,
		message.SentAt,
	).Exec()

	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// GetByPair retrieves messages for a conversation pair within one bucket,
// newest first
func (r *MessageRepository) GetByPair(pairKey string, bucket int, limit int) ([]*domain.Message, error) {
	query := `
		SELECT pair_key, bucket, message_id, sender, recipient, content, mood, sent_at
		FROM messages
		WHERE pair_key = ? AND bucket = ?
		ORDER BY sent_at DESC
		LIMIT ?
	`

	iter := r.session.Query(query, pairKey, bucket, limit).Iter()

	var messages []*domain.Message
	for {
		message := &domain.Message{}
		if !iter.Scan(
			&message.PairKey,
			&message.Bucket,
			&message.MessageID,
			&message.Sender,
			&message.Recipient,
			&message.Content,
			&message.Mood,
			&message.SentAt,
		) {
			break
		}
		messages = append(messages, message)
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return messages, nil
}

// GetRecent gets messages for a pair from the current and, if needed, the
// previous month bucket
func (r *MessageRepository) GetRecent(pairKey string, limit int) ([]*domain.Message, error) {
	now := time.Now()

	messages, err := r.GetByPair(pairKey, domain.CalculateBucket(now), limit)
	if err != nil {
		return nil, err
	}

	if len(messages) < limit {
		previous := domain.CalculateBucket(now.AddDate(0, -1, 0))
		older, err := r.GetByPair(pairKey, previous, limit-len(messages))
		if err != nil {
			return nil, err
		}
		messages = append(messages, older...)
	}

	return messages, nil
}

// Delete removes a message
func (r *MessageRepository) Delete(pairKey string, bucket int, messageID uuid.UUID) error {
	query := `DELETE FROM messages WHERE pair_key = ? AND bucket = ? AND message_id = ?`

	if err := r.session.Query(query, pairKey, bucket, messageID).Exec(); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
