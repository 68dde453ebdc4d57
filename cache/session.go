package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/peerawits/reqbridge/models"
)

var ErrNoSession = errors.New("cache: session not found")

// SessionStore keeps the authenticated user's profile and the identifier of
// an in-progress edit per session token. Malformed stored content is treated
// as absent and cleared.
type SessionStore struct {
	cache *RedisCache
}

func CreateSessionStore(cache *RedisCache) *SessionStore {
	return &SessionStore{cache: cache}
}

func profileKey(token string) string { return "session:" + token + ":profile" }
func draftKey(token string) string   { return "session:" + token + ":draft" }

func (s *SessionStore) SaveProfile(ctx context.Context, token string, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, profileKey(token), data)
}

func (s *SessionStore) Profile(ctx context.Context, token string) (*models.User, error) {
	raw, err := s.cache.Get(ctx, profileKey(token))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		// Corrupt profile: clear it rather than hand garbage upstream.
		_ = s.Clear(ctx, token)
		return nil, ErrNoSession
	}
	return &user, nil
}

func (s *SessionStore) SaveDraft(ctx context.Context, token, secondaryKey string) error {
	return s.cache.Set(ctx, draftKey(token), secondaryKey)
}

func (s *SessionStore) Draft(ctx context.Context, token string) (string, error) {
	key, err := s.cache.Get(ctx, draftKey(token))
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	return key, err
}

// Clear removes everything held for the session; called on logout.
func (s *SessionStore) Clear(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, profileKey(token), draftKey(token))
}
