package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/iliyamo/course-backoffice/internal/model"
	"github.com/iliyamo/course-backoffice/internal/repository"
)

// TokenRepository is the persistence the refresh store needs. It is
// satisfied by *repository.TokenRepo.
type TokenRepository interface {
	Insert(ctx context.Context, t *model.RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	DeleteByHash(ctx context.Context, tokenHash string) (int64, error)
	DeleteByPrincipal(ctx context.Context, principalID string) (int64, error)
	DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error)
}

// RefreshToken is an issued refresh token. Raw is returned to the client
// once; only its SHA-256 hash is persisted.
type RefreshToken struct {
	Raw       string
	ExpiresAt time.Time
}

// RefreshStore owns the refresh token lifecycle: issue, validate, revoke
// and purge.
type RefreshStore struct {
	repo TokenRepository
	ttl  time.Duration
	now  func() time.Time
}

// RefreshOption customises a RefreshStore.
type RefreshOption func(*RefreshStore)

// WithRefreshClock replaces time.Now, for tests.
func WithRefreshClock(now func() time.Time) RefreshOption {
	return func(s *RefreshStore) { s.now = now }
}

func NewRefreshStore(repo TokenRepository, ttl time.Duration, opts ...RefreshOption) *RefreshStore {
	s := &RefreshStore{repo: repo, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured refresh token lifetime.
func (s *RefreshStore) TTL() time.Duration { return s.ttl }

// Issue generates a random token for the principal, persists its hash with
// an expiry of now plus the TTL, and returns the raw value.
func (s *RefreshStore) Issue(ctx context.Context, principalID string) (RefreshToken, error) {
	raw, err := randomHex(32) // 32 bytes -> 64 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	exp := s.now().UTC().Add(s.ttl)
	row := &model.RefreshToken{
		PrincipalID: principalID,
		TokenHash:   HashToken(raw),
		ExpiresAt:   exp,
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: raw, ExpiresAt: exp}, nil
}

// Validate returns the row for the token, or nil when the token is unknown
// or expired. Expired rows are left in place until PurgeExpired runs.
func (s *RefreshStore) Validate(ctx context.Context, raw string) (*model.RefreshToken, error) {
	if raw == "" {
		return nil, nil
	}
	row, err := s.repo.FindByHash(ctx, HashToken(raw))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if row.Expired(s.now()) {
		return nil, nil
	}
	return row, nil
}

// Revoke deletes the token. Revoking an unknown token is a no-op.
func (s *RefreshStore) Revoke(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	_, err := s.repo.DeleteByHash(ctx, HashToken(raw))
	return err
}

// Consume deletes the token and reports whether this call removed it. Of two
// concurrent rotations presenting the same token, only one observes true.
func (s *RefreshStore) Consume(ctx context.Context, raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	n, err := s.repo.DeleteByHash(ctx, HashToken(raw))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeAllForPrincipal deletes every token the principal owns and reports
// how many were removed.
func (s *RefreshStore) RevokeAllForPrincipal(ctx context.Context, principalID string) (int64, error) {
	return s.repo.DeleteByPrincipal(ctx, principalID)
}

// PurgeExpired deletes tokens whose expiry lies before now. It only reclaims
// storage; Validate already ignores expired rows.
func (s *RefreshStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpiredBefore(ctx, now)
}

// HashToken returns the SHA-256 hash of the raw refresh token as a hex
// string. Storing only the hash prevents stolen database rows from being
// replayed as refresh tokens.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
