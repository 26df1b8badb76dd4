package redis

import (
	"context"
	"fmt"

	"chatx-backend/pkg/database"
)

const onlineSetKey = "presence:online"

// PresenceRepository mirrors the in-process presence registry into a Redis
// set so other services can see who is online. The in-process registry
// stays authoritative for relaying; this mirror is best-effort.
type PresenceRepository struct {
	client *database.RedisClient
}

// NewPresenceRepository creates a new PresenceRepository
func NewPresenceRepository(client *database.RedisClient) *PresenceRepository {
	return &PresenceRepository{client: client}
}

// SetOnline adds an identity to the online set
func (r *PresenceRepository) SetOnline(ctx context.Context, identity string) error {
	if r.client.IsDegraded() {
		return nil
	}
	if err := r.client.Client.SAdd(ctx, onlineSetKey, identity).Err(); err != nil {
		return fmt.Errorf("failed to add to online set: %w", err)
	}
	return nil
}

// SetOffline removes an identity from the online set
func (r *PresenceRepository) SetOffline(ctx context.Context, identity string) error {
	if r.client.IsDegraded() {
		return nil
	}
	if err := r.client.Client.SRem(ctx, onlineSetKey, identity).Err(); err != nil {
		return fmt.Errorf("failed to remove from online set: %w", err)
	}
	return nil
}

// OnlineIdentities returns the mirrored online set
func (r *PresenceRepository) OnlineIdentities(ctx context.Context) ([]string, error) {
	identities, err := r.client.Client.SMembers(ctx, onlineSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get online identities: %w", err)
	}
	return identities, nil
}

// IsDegraded returns true if Redis is in degraded mode
func (r *PresenceRepository) IsDegraded() bool {
	return r.client.IsDegraded()
}
