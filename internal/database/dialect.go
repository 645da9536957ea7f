package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// Dialect names the SQL flavour behind a DB.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "mysql"
}

// Placeholder is the squirrel bind style for the dialect.
func (d Dialect) Placeholder() sq.PlaceholderFormat {
	if d == Postgres {
		return sq.Dollar
	}
	return sq.Question
}

// Builder returns a squirrel statement builder bound to the DB dialect.
func (db *DB) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(db.Dialect.Placeholder())
}

// InsertID runs an INSERT and returns the generated id column.  Postgres
// has no LastInsertId so the statement gets a RETURNING clause there.
func (db *DB) InsertID(ctx context.Context, ext sqlx.ExtContext, ins sq.InsertBuilder) (int64, error) {
	if db.Dialect == Postgres {
		q, args, err := ins.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, err
		}
		var id int64
		if err := ext.QueryRowxContext(ctx, q, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	q, args, err := ins.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := ext.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpsertSuffix renders the dialect's "insert or update" tail.  key is the
// conflicting column and cols are overwritten with the inserted values.
func (d Dialect) UpsertSuffix(key string, cols ...string) string {
	sets := make([]string, 0, len(cols))
	if d == Postgres {
		for _, c := range cols {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
		return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", key, strings.Join(sets, ", "))
	}
	for _, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
	}
	return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}

// IsUniqueViolation reports whether err is a duplicate key error from
// either driver.
func IsUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
