package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"parcelio/models"

	"github.com/go-redis/redis/v8"
)

// draftTTL bounds how long an abandoned draft survives. Every save refreshes it.
const draftTTL = 30 * time.Minute

// DraftStore persists booking drafts for the duration of one checkout session.
type DraftStore interface {
	Save(ctx context.Context, draft *models.BookingDraft) error
	Get(ctx context.Context, draftID string) (*models.BookingDraft, error)
	Delete(ctx context.Context, draftID string) error
}

// RedisDraftStore keeps drafts as JSON in Redis with a sliding TTL.
type RedisDraftStore struct {
	Client *redis.Client
}

func NewRedisDraftStore(client *redis.Client) *RedisDraftStore {
	return &RedisDraftStore{Client: client}
}

func draftKey(draftID string) string {
	return "draft:" + draftID
}

func (s *RedisDraftStore) Save(ctx context.Context, draft *models.BookingDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal booking draft: %w", err)
	}
	if err := s.Client.Set(ctx, draftKey(draft.DraftID), data, draftTTL).Err(); err != nil {
		return fmt.Errorf("failed to store booking draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Get(ctx context.Context, draftID string) (*models.BookingDraft, error) {
	data, err := s.Client.Get(ctx, draftKey(draftID)).Result()
	if err == redis.Nil {
		return nil, NewNotFoundError("booking draft not found or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking draft: %w", err)
	}

	var draft models.BookingDraft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse booking draft: %w", err)
	}
	return &draft, nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, draftID string) error {
	return s.Client.Del(ctx, draftKey(draftID)).Err()
}
