package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"scholarpath-service/internal/domain"
)

// attemptGrace keeps submitted/expired attempts readable briefly past the
// deadline so a late submit still finds its session.
const attemptGrace = 10 * time.Minute

// AttemptStore keeps in-progress attempts in Redis as JSON under
// attempt:{id}. Keys expire on their own shortly after the attempt
// deadline, so abandoned sessions clean themselves up.
type AttemptStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client, clock: time.Now}
}

func (s *AttemptStore) Put(ctx context.Context, attempt domain.Attempt) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	ttl := attempt.Deadline.Add(attemptGrace).Sub(s.clock())
	if ttl <= 0 {
		ttl = attemptGrace
	}
	return s.client.Set(ctx, s.key(attempt.ID), raw, ttl).Err()
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (domain.Attempt, error) {
	raw, err := s.client.Get(ctx, s.key(attemptID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, err
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

func (s *AttemptStore) Delete(ctx context.Context, attemptID string) error {
	return s.client.Del(ctx, s.key(attemptID)).Err()
}

func (s *AttemptStore) key(attemptID string) string {
	return "attempt:" + attemptID
}
