// Package session keeps admin sessions server-side so browsers only ever hold
// an opaque session id.
package session

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
	"github.com/pmcafe/kiosk/pkg/models"
	redislib "github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("admin session not found")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
	TokenIndexKey(digest string) string
}

// Store is a redis client that can also build session keys.
type Store interface {
	sessionStore
	sessionKeyer
}

// Session is one signed-in admin.
type Session struct {
	ID        string           `json:"id"`
	Token     string           `json:"token"`
	User      models.AdminUser `json:"user"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// Manager creates, loads and revokes admin sessions.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	now   func() time.Time
	newID func() string
}

func NewManager(store Store) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	return &Manager{store: store, keyer: store, now: time.Now, newID: uuid.NewString}, nil
}

// Create stores a session for token and indexes it by the token digest.
func (m *Manager) Create(ctx context.Context, token string, user models.AdminUser, ttl time.Duration) (Session, error) {
	if strings.TrimSpace(token) == "" {
		return Session{}, fmt.Errorf("token is required")
	}
	if ttl <= 0 {
		return Session{}, fmt.Errorf("session ttl must be positive")
	}
	sess := Session{
		ID:        m.newID(),
		Token:     token,
		User:      user,
		ExpiresAt: m.now().Add(ttl).UTC(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return Session{}, fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.keyer.SessionKey(sess.ID), string(payload), ttl); err != nil {
		return Session{}, err
	}
	if err := m.store.Set(ctx, m.keyer.TokenIndexKey(digest(token)), sess.ID, ttl); err != nil {
		_ = m.store.Del(ctx, m.keyer.SessionKey(sess.ID))
		return Session{}, err
	}
	return sess, nil
}

// Load returns the session or ErrSessionNotFound.
func (m *Manager) Load(ctx context.Context, sessionID string) (Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Session{}, ErrSessionNotFound
	}
	raw, err := m.store.Get(ctx, m.keyer.SessionKey(sessionID))
	if err != nil {
		return Session{}, wrapNotFound(err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if !sess.ExpiresAt.IsZero() && !m.now().Before(sess.ExpiresAt) {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// Revoke deletes the session and its token index. Missing sessions are not an error.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	sess, err := m.Load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return m.store.Del(ctx, m.keyer.SessionKey(sess.ID), m.keyer.TokenIndexKey(digest(sess.Token)))
}

// RevokeToken deletes whichever session holds token.
func (m *Manager) RevokeToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	indexKey := m.keyer.TokenIndexKey(digest(token))
	id, err := m.store.Get(ctx, indexKey)
	if err != nil {
		if errors.Is(wrapNotFound(err), ErrSessionNotFound) {
			return nil
		}
		return err
	}
	return m.store.Del(ctx, m.keyer.SessionKey(id), indexKey)
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) {
		return ErrSessionNotFound
	}
	return err
}
