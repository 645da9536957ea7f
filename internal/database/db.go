package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// DB wraps the sqlx pool together with the SQL dialect it speaks so
// repositories can build portable statements.
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// Options selects and addresses the database.  URL wins over the parts
// when set: a postgres:// or postgresql:// URL opens pgx, a mysql:// URL
// or a raw go-sql-driver DSN opens MySQL.
type Options struct {
	URL    string
	Driver string
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
}

// New wraps an already opened *sql.DB.  Tests use it with sqlmock.
func New(db *sql.DB, d Dialect) *DB {
	return &DB{DB: sqlx.NewDb(db, d.DriverName()), Dialect: d}
}

// Open connects to MySQL or Postgres and verifies the connection.
func Open(opts Options) (*DB, error) {
	dialect, dsn, err := resolve(opts)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return &DB{DB: db, Dialect: dialect}, nil
}

func resolve(opts Options) (Dialect, string, error) {
	raw := strings.TrimSpace(opts.URL)
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return Postgres, raw, nil
	case strings.HasPrefix(raw, "mysql://"):
		dsn, err := mysqlDSNFromURL(raw)
		return MySQL, dsn, err
	case raw != "":
		cfg, err := mysql.ParseDSN(raw)
		if err != nil {
			return "", "", fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		applyMySQLDefaults(cfg)
		return MySQL, cfg.FormatDSN(), nil
	}

	if strings.EqualFold(opts.Driver, "postgres") || strings.EqualFold(opts.Driver, "pgx") {
		port := opts.Port
		if port == "" {
			port = "5432"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(opts.User, opts.Pass),
			Host:     net.JoinHostPort(opts.Host, port),
			Path:     "/" + opts.Name,
			RawQuery: "sslmode=disable",
		}
		return Postgres, u.String(), nil
	}

	port := opts.Port
	if port == "" {
		port = "3306"
	}
	cfg := mysql.NewConfig()
	cfg.User = opts.User
	cfg.Passwd = opts.Pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(opts.Host, port)
	cfg.DBName = opts.Name
	applyMySQLDefaults(cfg)
	return MySQL, cfg.FormatDSN(), nil
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	cfg := mysql.NewConfig()
	cfg.User = u.User.Username()
	cfg.Passwd, _ = u.User.Password()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	applyMySQLDefaults(cfg)
	return cfg.FormatDSN(), nil
}

// parseTime maps DATETIME to time.Time, loc=UTC keeps times consistent and
// clientFoundRows makes RowsAffected count matched rows, which the
// ownership-filtered updates rely on to tell "not found" from "unchanged".
// A charset given in the DSN wins over the utf8mb4 default.
func applyMySQLDefaults(cfg *mysql.Config) {
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	if !strings.Contains(cfg.FormatDSN(), "charset=") {
		_ = cfg.Apply(mysql.Charset("utf8mb4", ""))
	}
}
