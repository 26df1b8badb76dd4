package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents a chat message entity.
// Maps to the Cassandra messages table, partitioned by the pair key of the
// two participants plus a month bucket.
type Message struct {
	PairKey   string    `json:"pair_key" cql:"pair_key"`
	Bucket    int       `json:"bucket" cql:"bucket"`
	MessageID uuid.UUID `json:"message_id" cql:"message_id"`
	Sender    string    `json:"sender" cql:"sender"`
	Recipient string    `json:"recipient" cql:"recipient"`
	Content   string    `json:"message" cql:"content"`
	Mood      string    `json:"mood" cql:"mood"`
	SentAt    time.Time `json:"timestamp" cql:"sent_at"`
}

// CalculateBucket derives the month bucket for a timestamp (YYYYMM)
func CalculateBucket(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}
