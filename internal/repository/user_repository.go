package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/cactilog/internal/database"
	"github.com/iliyamo/cactilog/internal/model"
)

var userColumns = []string{
	"id", "email", "first_name", "last_name", "profile_image_url", "auth_provider", "created_at", "updated_at",
}

// LocalCredential is a row of 'local_credentials'.
type LocalCredential struct {
	Email        string    `db:"email"`
	UserID       string    `db:"user_id"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type UserRepo struct {
	db  *database.DB
	now func() time.Time
}

func NewUserRepo(db *database.DB) *UserRepo { return &UserRepo{db: db, now: utcNow} }

// Upsert inserts the user or refreshes its profile columns.  Every login
// goes through here so profile changes at the provider are picked up.
func (r *UserRepo) Upsert(ctx context.Context, u *model.User) error {
	now := r.now()
	query, args, err := r.db.Builder().Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Email, u.FirstName, u.LastName, u.ProfileImageURL, u.AuthProvider, now, now).
		Suffix(r.db.Dialect.UpsertSuffix("id", "email", "first_name", "last_name", "profile_image_url", "updated_at")).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	u.UpdatedAt = now
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	query, args, err := r.db.Builder().Select(userColumns...).From("users").
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := r.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// RegisterLocal creates the user row and its password credential in one
// transaction.  A taken email yields ErrEmailExists.
func (r *UserRepo) RegisterLocal(ctx context.Context, u *model.User, passwordHash string) error {
	if u.Email == nil {
		return errors.New("local user needs an email")
	}
	email := NormalizeEmail(*u.Email)
	u.Email = &email
	now := r.now()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no-op after commit

	b := r.db.Builder()
	query, args, err := b.Insert("local_credentials").
		Columns("email", "user_id", "password_hash", "created_at").
		Values(email, u.ID, passwordHash, now).ToSql()
	if err != nil {
		return err
	}
	userQuery, userArgs, err := b.Insert("users").Columns(userColumns...).
		Values(u.ID, u.Email, u.FirstName, u.LastName, u.ProfileImageURL, u.AuthProvider, now, now).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, userQuery, userArgs...); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// GetCredential fetches the local credential for an email.
func (r *UserRepo) GetCredential(ctx context.Context, email string) (*LocalCredential, error) {
	query, args, err := r.db.Builder().
		Select("email", "user_id", "password_hash", "created_at").
		From("local_credentials").
		Where(sq.Eq{"email": NormalizeEmail(email)}).ToSql()
	if err != nil {
		return nil, err
	}
	var c LocalCredential
	if err := r.db.GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
