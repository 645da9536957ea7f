package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name    string
		opts    Options
		dialect Dialect
		check   func(t *testing.T, dsn string)
	}{
		{
			name:    "postgres url",
			opts:    Options{URL: "postgres://u:p@db:5432/cactilog?sslmode=disable"},
			dialect: Postgres,
			check: func(t *testing.T, dsn string) {
				assert.Equal(t, "postgres://u:p@db:5432/cactilog?sslmode=disable", dsn)
			},
		},
		{
			name:    "mysql url",
			opts:    Options{URL: "mysql://u:p@db/cactilog"},
			dialect: MySQL,
			check: func(t *testing.T, dsn string) {
				cfg, err := mysql.ParseDSN(dsn)
				require.NoError(t, err)
				assert.Equal(t, "db:3306", cfg.Addr)
				assert.Equal(t, "cactilog", cfg.DBName)
				assert.True(t, cfg.ParseTime)
				assert.True(t, cfg.ClientFoundRows)
			},
		},
		{
			name:    "raw mysql dsn",
			opts:    Options{URL: "u:p@tcp(127.0.0.1:3307)/cactilog"},
			dialect: MySQL,
			check: func(t *testing.T, dsn string) {
				cfg, err := mysql.ParseDSN(dsn)
				require.NoError(t, err)
				assert.Equal(t, "127.0.0.1:3307", cfg.Addr)
				assert.True(t, cfg.ParseTime)
				assert.Contains(t, dsn, "charset=utf8mb4")
			},
		},
		{
			name:    "postgres parts",
			opts:    Options{Driver: "postgres", User: "u", Pass: "p", Host: "db", Name: "cactilog"},
			dialect: Postgres,
			check: func(t *testing.T, dsn string) {
				assert.Equal(t, "postgres://u:p@db:5432/cactilog?sslmode=disable", dsn)
			},
		},
		{
			name:    "mysql parts",
			opts:    Options{User: "u", Host: "db", Name: "cactilog"},
			dialect: MySQL,
			check: func(t *testing.T, dsn string) {
				cfg, err := mysql.ParseDSN(dsn)
				require.NoError(t, err)
				assert.Equal(t, "db:3306", cfg.Addr)
				assert.Contains(t, dsn, "charset=utf8mb4")
			},
		},
		{
			name:    "dsn charset kept",
			opts:    Options{URL: "u:p@tcp(h:3306)/db?charset=latin1"},
			dialect: MySQL,
			check: func(t *testing.T, dsn string) {
				assert.Equal(t, 1, strings.Count(dsn, "charset="), dsn)
				assert.Contains(t, dsn, "charset=latin1")
				assert.NotContains(t, dsn, "utf8mb4")
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, dsn, err := resolve(tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.dialect, d)
			tc.check(t, dsn)
		})
	}
}

func TestMigrationSource(t *testing.T) {
	tables := []string{"users", "local_credentials", "refresh_tokens", "plants", "growth_records", "plant_photos", "seeds"}
	for _, d := range []Dialect{MySQL, Postgres} {
		src, err := Source(d)
		require.NoError(t, err, d)
		ms, err := src.FindMigrations()
		require.NoError(t, err, d)
		require.Len(t, ms, 1, d)
		assert.Equal(t, "0001_init.sql", ms[0].Id)
		assert.Equal(t, int64(1), ms[0].VersionInt())

		up := strings.Join(ms[0].Up, "\n")
		down := strings.Join(ms[0].Down, "\n")
		for _, table := range tables {
			assert.Contains(t, up, "CREATE TABLE IF NOT EXISTS "+table, "%s: %s", d, table)
			assert.Contains(t, down, "DROP TABLE IF EXISTS "+table, "%s: %s", d, table)
		}
	}
	_, err := Source("sqlite")
	assert.Error(t, err)
}

func TestMigrateReportsFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("schema_migrations").WillReturnError(errors.New("boom"))
	n, err := New(sqlDB, Postgres).Migrate(context.Background())
	assert.Zero(t, n)
	assert.ErrorContains(t, err, "migrate postgres: boom")
}

func TestUpsertSuffix(t *testing.T) {
	assert.Equal(t, "ON DUPLICATE KEY UPDATE email = VALUES(email), updated_at = VALUES(updated_at)",
		MySQL.UpsertSuffix("id", "email", "updated_at"))
	assert.Equal(t, "ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, updated_at = EXCLUDED.updated_at",
		Postgres.UpsertSuffix("id", "email", "updated_at"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1452}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestPlaceholders(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	q, _, err := New(sqlDB, Postgres).Builder().Select("id").From("plants").Where("user_id = ?", "u").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM plants WHERE user_id = $1", q)

	q, _, err = New(sqlDB, MySQL).Builder().Select("id").From("plants").Where("user_id = ?", "u").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM plants WHERE user_id = ?", q)
}
