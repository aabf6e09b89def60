package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	"github.com/davemarchant/offerbuilder/internal/models"
)

// Postgres wraps a postgres DB connection used for the submission archive.
type Postgres struct {
	DB *sql.DB
}

// schemaSQL sets up the necessary tables if they don't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS offer_submissions (
    id UUID PRIMARY KEY,
    session_id UUID NOT NULL,
    payload JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS offer_submissions_session_idx
    ON offer_submissions (session_id);`

// Submission is one archived offer list handed back by an editor session.
type Submission struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Items     []models.OfferItem
	CreatedAt time.Time
}

// InitPostgres connects to Postgres with connection pooling configuration.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (*Postgres, error) {
	// Register the otelsql wrapper for postgres
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{DB: db}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema() error {
	if _, err := p.DB.Exec(schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertSubmission archives one submitted offer list. The caller supplies
// the ids; CreatedAt is assigned by the database.
func (p *Postgres) InsertSubmission(ctx context.Context, sub *Submission) error {
	payload, err := json.Marshal(sub.Items)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	_, err = p.DB.ExecContext(ctx,
		`INSERT INTO offer_submissions (id, session_id, payload) VALUES ($1, $2, $3)`,
		sub.ID, sub.SessionID, payload)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// LoadSubmissions returns the archived lists for a session, newest first.
func (p *Postgres) LoadSubmissions(ctx context.Context, sessionID uuid.UUID) ([]Submission, error) {
	rows, err := p.DB.QueryContext(ctx,
		`SELECT id, session_id, payload, created_at
		   FROM offer_submissions WHERE session_id = $1 ORDER BY created_at DESC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var s Submission
		var payload []byte
		if err := rows.Scan(&s.ID, &s.SessionID, &payload, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if err := json.Unmarshal(payload, &s.Items); err != nil {
			return nil, fmt.Errorf("unmarshal submission payload: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		_ = p.DB.Close()
	}
}
