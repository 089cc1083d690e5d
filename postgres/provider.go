// Package postgres implements the relational provider over PostgreSQL.
package postgres

import (
	"context"
	"embed"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"howett.net/vellum"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type provider struct {
	DB     *sqlx.DB
	Logger logrus.FieldLogger
}

type Option func(*provider)

func LoggerOption(log logrus.FieldLogger) Option {
	return func(p *provider) {
		p.Logger = log
	}
}

// Open connects, runs pending migrations and returns the provider.
func Open(connection string, options ...Option) (vellum.Provider, error) {
	p := &provider{}
	for _, o := range options {
		o(p)
	}
	if p.Logger == nil {
		p.Logger = logrus.StandardLogger()
	}

	db, err := sqlx.Open("postgres", connection)
	if err != nil {
		return nil, err
	}
	p.DB = db

	if err := p.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return p, nil
}

func (p *provider) migrate() error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(p.DB.DB, "migrations")
}

// LockPaste takes a session-scoped advisory lock keyed by the paste ID.
// The lock pins one pooled connection until released.
func (p *provider) LockPaste(ctx context.Context, id vellum.PasteID) (func(), error) {
	conn, err := p.DB.Connx(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtextextended($1, 0))`, id.String()); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "postgres: acquiring paste lock")
	}

	release := func() {
		_, err := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, id.String())
		if err != nil {
			p.Logger.WithField("paste", id).Error("failed to release paste lock: ", err)
		}
		conn.Close()
	}
	return release, nil
}

// SweepExpired deletes every paste past its expiry and reports what was
// removed so the caller can clear the on-disk trees.
func (p *provider) SweepExpired(ctx context.Context) ([]vellum.SweptPaste, error) {
	rows, err := p.DB.QueryxContext(ctx, `DELETE FROM pastes WHERE expires_at < NOW() RETURNING id, author_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swept []vellum.SweptPaste
	for rows.Next() {
		var s vellum.SweptPaste
		if err := rows.StructScan(&s); err != nil {
			return nil, err
		}
		swept = append(swept, s)
	}
	return swept, rows.Err()
}
