package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/HammerMeetNail/socialcore/internal/logging"
	"github.com/HammerMeetNail/socialcore/internal/models"
)

const (
	DefaultSessionTTL = 30 * time.Minute

	sessionKeyPrefix   = "session:"
	sessionIndexPrefix = "session:user:"
)

// SessionService issues opaque tokens and resolves them back to user ids.
// Records live only in Redis under the token's SHA-256 hash. Each user has
// an index set of their token hashes so that logout-everywhere and presence
// checks never scan the keyspace.
type SessionService struct {
	redis RedisClient
	ttl   time.Duration
	now   func() time.Time
}

func NewSessionService(redis RedisClient, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		redis: redis,
		ttl:   ttl,
		now:   time.Now,
	}
}

// SetClock replaces the time source used for expiry checks.
func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

func GenerateSessionToken() (token string, hash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	token = hex.EncodeToString(bytes)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	hashBytes := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hashBytes[:])
}

func sessionKey(hash string) string {
	return sessionKeyPrefix + hash
}

func sessionIndexKey(userID int64) string {
	return sessionIndexPrefix + strconv.FormatInt(userID, 10)
}

// CreateSession stores a new session with a fixed TTL. Earlier sessions of
// the same user stay valid.
func (s *SessionService) CreateSession(ctx context.Context, userID int64) (string, error) {
	token, hash, err := GenerateSessionToken()
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	record := models.Session{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}

	if err := s.redis.SetIndexed(ctx, sessionKey(hash), data, s.ttl, sessionIndexKey(userID), hash); err != nil {
		return "", fmt.Errorf("storing session: %w: %w", ErrUnavailable, err)
	}

	return token, nil
}

// Resolve returns the user id bound to token. The TTL is not extended.
func (s *SessionService) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrSessionNotFound
	}

	hash := hashToken(token)
	record, found, err := s.load(ctx, hash)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrSessionNotFound
	}

	if record.ExpiredAt(s.now()) {
		if err := s.redis.DelIndexed(ctx, sessionKey(hash), sessionIndexKey(record.UserID), hash); err != nil {
			logging.Warn("Failed to delete expired session", map[string]interface{}{"error": err.Error(), "user_id": record.UserID})
		}
		return 0, ErrSessionNotFound
	}

	return record.UserID, nil
}

// DeleteSession removes a single session. Unknown tokens are not an error.
func (s *SessionService) DeleteSession(ctx context.Context, token string) error {
	hash := hashToken(token)
	record, found, err := s.load(ctx, hash)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	if err := s.redis.DelIndexed(ctx, sessionKey(hash), sessionIndexKey(record.UserID), hash); err != nil {
		return fmt.Errorf("deleting session: %w: %w", ErrUnavailable, err)
	}
	return nil
}

// InvalidateAll deletes every session of userID. It reports false instead of
// failing when the store is unreachable.
func (s *SessionService) InvalidateAll(ctx context.Context, userID int64) bool {
	indexKey := sessionIndexKey(userID)
	hashes, err := s.redis.SMembers(ctx, indexKey)
	if err != nil {
		logging.Error("Failed to read session index", map[string]interface{}{"error": err.Error(), "user_id": userID})
		return false
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, sessionKey(h))
	}
	keys = append(keys, indexKey)

	if err := s.redis.Del(ctx, keys...); err != nil {
		logging.Error("Failed to invalidate sessions", map[string]interface{}{"error": err.Error(), "user_id": userID})
		return false
	}

	logging.Info("Invalidated user sessions", map[string]interface{}{"user_id": userID, "count": len(hashes)})
	return true
}

// IsOnline reports whether userID holds at least one unexpired session.
// Index members whose session is gone are pruned along the way.
func (s *SessionService) IsOnline(ctx context.Context, userID int64) bool {
	indexKey := sessionIndexKey(userID)
	hashes, err := s.redis.SMembers(ctx, indexKey)
	if err != nil {
		logging.Error("Failed to read session index", map[string]interface{}{"error": err.Error(), "user_id": userID})
		return false
	}

	now := s.now()
	online := false
	var stale []string
	for _, h := range hashes {
		record, found, err := s.load(ctx, h)
		if err != nil {
			logging.Error("Failed to load session", map[string]interface{}{"error": err.Error(), "user_id": userID})
			return false
		}
		if !found || record.ExpiredAt(now) {
			stale = append(stale, h)
			continue
		}
		online = true
	}

	if len(stale) > 0 {
		if err := s.redis.SRem(ctx, indexKey, stale...); err != nil {
			logging.Warn("Failed to prune session index", map[string]interface{}{"error": err.Error(), "user_id": userID})
		}
	}

	return online
}

func (s *SessionService) load(ctx context.Context, hash string) (models.Session, bool, error) {
	raw, err := s.redis.Get(ctx, sessionKey(hash))
	if isRedisNil(err) {
		return models.Session{}, false, nil
	}
	if err != nil {
		return models.Session{}, false, fmt.Errorf("loading session: %w: %w", ErrUnavailable, err)
	}

	var record models.Session
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		logging.Warn("Discarding malformed session record", map[string]interface{}{"error": err.Error()})
		if delErr := s.redis.Del(ctx, sessionKey(hash)); delErr != nil {
			logging.Warn("Failed to delete malformed session", map[string]interface{}{"error": delErr.Error()})
		}
		return models.Session{}, false, nil
	}
	return record, true, nil
}
