package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/course-backoffice/internal/model"
)

// TokenRepo persists refresh tokens (single 'token_hash' column, unique).
// Every operation touches rows by a single predicate, so the database's own
// row-level atomicity is all the isolation the callers need.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Insert stores a refresh token row.
func (r *TokenRepo) Insert(ctx context.Context, t *model.RefreshToken) error {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (principal_id, token_hash, expires_at, created_at) VALUES (?,?,?,?)",
		t.PrincipalID, t.TokenHash, t.ExpiresAt.UTC(), now)
	if err != nil {
		return translate(err, "token_hash")
	}
	if id, err := res.LastInsertId(); err == nil {
		t.ID = uint64(id)
	}
	t.CreatedAt = now
	return nil
}

// FindByHash returns the row with the given hash regardless of expiry;
// callers decide whether an expired row counts.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, principal_id, token_hash, expires_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.PrincipalID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// DeleteByHash removes one token. Deleting a missing token is not an error.
func (r *TokenRepo) DeleteByHash(ctx context.Context, tokenHash string) (int64, error) {
	return affected(r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token_hash=?", tokenHash))
}

// DeleteByPrincipal removes every token owned by the principal.
func (r *TokenRepo) DeleteByPrincipal(ctx context.Context, principalID string) (int64, error) {
	return affected(r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE principal_id=?", principalID))
}

// DeleteExpiredBefore removes every token whose expiry lies before t.
func (r *TokenRepo) DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error) {
	return affected(r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at < ?", t.UTC()))
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
