// Package refreshtokens keeps opaque refresh tokens in Redis. Each token is
// single use: Rotate consumes it atomically and issues its replacement.
package refreshtokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrInvalidToken is returned for unknown, expired or already rotated tokens.
var ErrInvalidToken = errors.New("invalid refresh token")

const (
	tokenPrefix = "refresh:"
	userPrefix  = "refresh_user:"
)

// Session is what a refresh token resolves to.
type Session struct {
	UserID   string    `json:"userId"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Store issues, rotates and revokes refresh tokens.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// New returns a store whose tokens live for ttl.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, now: time.Now}
}

// TTL reports how long issued tokens live.
func (s *Store) TTL() time.Duration { return s.ttl }

// Issue creates a token for userID.
func (s *Store) Issue(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("refresh token needs a user id")
	}
	raw := newToken()
	payload, err := json.Marshal(Session{UserID: userID, IssuedAt: s.now().UTC()})
	if err != nil {
		return "", err
	}

	key := tokenKey(raw)
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key, payload, s.ttl)
	pipe.SAdd(ctx, userPrefix+userID, key)
	pipe.Expire(ctx, userPrefix+userID, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return raw, nil
}

// Rotate consumes raw and returns its session plus a fresh token. A token
// can be rotated once; the second attempt gets ErrInvalidToken.
func (s *Store) Rotate(ctx context.Context, raw string) (Session, string, error) {
	sess, err := s.consume(ctx, raw)
	if err != nil {
		return Session{}, "", err
	}
	next, err := s.Issue(ctx, sess.UserID)
	if err != nil {
		return Session{}, "", err
	}
	return sess, next, nil
}

// Revoke deletes raw. Unknown tokens are not an error.
func (s *Store) Revoke(ctx context.Context, raw string) error {
	_, err := s.consume(ctx, raw)
	if errors.Is(err, ErrInvalidToken) {
		return nil
	}
	return err
}

// RevokeAll deletes every outstanding token for userID.
func (s *Store) RevokeAll(ctx context.Context, userID string) error {
	set := userPrefix + userID
	keys, err := s.rdb.SMembers(ctx, set).Result()
	if err != nil {
		return err
	}
	return s.rdb.Del(ctx, append(keys, set)...).Err()
}

func (s *Store) consume(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, ErrInvalidToken
	}
	key := tokenKey(raw)
	val, err := s.rdb.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrInvalidToken
	}
	if err != nil {
		return Session{}, fmt.Errorf("read refresh token: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil || sess.UserID == "" {
		return Session{}, ErrInvalidToken
	}
	s.rdb.SRem(ctx, userPrefix+sess.UserID, key)
	return sess, nil
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// tokenKey hashes the token so raw values never sit in Redis.
func tokenKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return tokenPrefix + hex.EncodeToString(sum[:])
}
