// Package statestore persists the per-integration file processing state
// between runs. The tracker only ever sees the decoded state; persistence
// stays behind this boundary so tests can substitute an in-memory fake.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wildtrack/ornitela-ingest/internal/models"
)

// Store reads and writes the processing state for one integration scope.
type Store interface {
	Get(ctx context.Context, scopeID string) (models.FileProcessingState, error)
	Set(ctx context.Context, scopeID string, state models.FileProcessingState) error
}

// RedisStore keeps the state as a JSON document in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an established Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get loads the state for scopeID. A missing key yields the zero state, not
// an error: a fresh integration has simply processed nothing yet.
func (s *RedisStore) Get(ctx context.Context, scopeID string) (models.FileProcessingState, error) {
	var state models.FileProcessingState

	payload, err := s.client.Get(ctx, stateKey(scopeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("failed to load state for %q: %w", scopeID, err)
	}

	if err := json.Unmarshal(payload, &state); err != nil {
		return models.FileProcessingState{}, fmt.Errorf("failed to decode state for %q: %w", scopeID, err)
	}
	return state, nil
}

// Set stores the state for scopeID. The state has no expiry; it lives as
// long as the integration does.
func (s *RedisStore) Set(ctx context.Context, scopeID string, state models.FileProcessingState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state for %q: %w", scopeID, err)
	}
	if err := s.client.Set(ctx, stateKey(scopeID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to store state for %q: %w", scopeID, err)
	}
	return nil
}

func stateKey(scopeID string) string {
	return fmt.Sprintf("integration_state.%s.process_new_files", scopeID)
}
