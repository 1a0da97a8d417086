package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"addressbook/internal/apierr"
)

const CookieName = "session"

type Claims struct {
	UserID    uint
	ID        string
	ExpiresAt time.Time
}

type Manager struct {
	secret  []byte
	ttl     time.Duration
	revoker Revoker
	now     func() time.Time
}

func NewManager(secret string, ttl time.Duration, revoker Revoker) (*Manager, error) {
	if len(secret) < 16 {
		return nil, errors.New("session secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &Manager{secret: []byte(secret), ttl: ttl, revoker: revoker, now: time.Now}, nil
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a new session token for userID.
func (m *Manager) Issue(userID uint) (string, Claims, error) {
	now := m.now()
	c := Claims{UserID: userID, ID: uuid.NewString(), ExpiresAt: now.Add(m.ttl)}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        c.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
	})
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, c, nil
}

// Parse verifies signature, expiry and revocation.
func (m *Manager) Parse(ctx context.Context, token string) (Claims, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &rc, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(m.now))
	if err != nil {
		return Claims{}, apierr.Auth("invalid session")
	}
	id, err := strconv.ParseUint(rc.Subject, 10, 64)
	if err != nil || id == 0 || rc.ID == "" {
		return Claims{}, apierr.Auth("invalid session subject")
	}
	revoked, err := m.revoker.IsRevoked(ctx, rc.ID)
	if err != nil {
		return Claims{}, err
	}
	if revoked {
		return Claims{}, apierr.Auth("session ended")
	}
	return Claims{UserID: uint(id), ID: rc.ID, ExpiresAt: rc.ExpiresAt.Time}, nil
}

// Revoke ends a session until its natural expiry.
func (m *Manager) Revoke(ctx context.Context, c Claims) error {
	ttl := c.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.revoker.Revoke(ctx, c.ID, ttl)
}
