package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/cactilog/internal/database"
)

// TokenRepo persists/validates refresh tokens (single 'token_hash' column).
type TokenRepo struct {
	db  *database.DB
	now func() time.Time
}

func NewTokenRepo(db *database.DB) *TokenRepo { return &TokenRepo{db: db, now: utcNow} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	query, args, err := r.db.Builder().Insert("refresh_tokens").
		Columns("user_id", "token_hash", "expires_at", "created_at").
		Values(userID, tokenHash, exp, r.now()).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// ConsumeRefresh revokes a live refresh token and returns its owner.  The
// guarded UPDATE is the claim: when the same token is presented twice at
// once only one call matches the row, the other gets ErrNotFound like an
// expired, revoked or unknown token.
func (r *TokenRepo) ConsumeRefresh(ctx context.Context, tokenHash string) (string, error) {
	now := r.now()
	b := r.db.Builder()
	query, args, err := b.Update("refresh_tokens").
		Set("revoked_at", now).
		Where(sq.Eq{"token_hash": tokenHash, "revoked_at": nil}).
		Where(sq.Gt{"expires_at": now}).ToSql()
	if err != nil {
		return "", err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrNotFound
	}

	query, args, err = b.Select("user_id").From("refresh_tokens").
		Where(sq.Eq{"token_hash": tokenHash}).ToSql()
	if err != nil {
		return "", err
	}
	var userID string
	if err := r.db.GetContext(ctx, &userID, query, args...); err != nil {
		return "", err
	}
	return userID, nil
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	return r.revoke(ctx, sq.Eq{"user_id": userID})
}

func (r *TokenRepo) revoke(ctx context.Context, where sq.Eq) error {
	query, args, err := r.db.Builder().Update("refresh_tokens").
		Set("revoked_at", r.now()).
		Where(where).Where(sq.Eq{"revoked_at": nil}).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
