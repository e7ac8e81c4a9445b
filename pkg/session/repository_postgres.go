package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// PostgresRepository persists sessions in the sessions table, letting a
// deployment survive restarts. Expired rows are filtered on read and removed
// lazily on write.
type PostgresRepository struct {
	db  *pgxpool.Pool
	ttl time.Duration
}

func NewPostgresRepository(db *pgxpool.Pool, ttl time.Duration) *PostgresRepository {
	return &PostgresRepository{db: db, ttl: ttl}
}

const sessionColumns = `id, timezone, state, detail_name, detail_date, detail_time, detail_duration, detail_title,
	authed, tokens, event_id, event_link, created_at`

func (r *PostgresRepository) Create(ctx context.Context, s Session) error {
	tokens, err := marshalTokens(s.Tokens)
	if err != nil {
		return err
	}
	query := `INSERT INTO sessions (` + sessionColumns + `, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = r.db.Exec(ctx, query,
		s.Id, s.Timezone, s.State,
		s.Details.Name, s.Details.Date, s.Details.Time, s.Details.Duration, s.Details.Title,
		s.Authed, tokens, s.EventId, s.EventLink, s.CreatedAt, r.expiry(),
	)
	if err != nil {
		log.Errorf("failed to create session %s: %v", s.Id, err)
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())`
	return r.scanSession(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepository) Update(ctx context.Context, id string, fn func(*Session)) (Session, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE id = $1 AND (expires_at IS NULL OR expires_at > now()) FOR UPDATE`
	s, err := r.scanSession(tx.QueryRow(ctx, query, id))
	if err != nil {
		return Session{}, err
	}

	fn(&s)

	tokens, err := marshalTokens(s.Tokens)
	if err != nil {
		return Session{}, err
	}
	_, err = tx.Exec(ctx, `UPDATE sessions SET timezone = $2, state = $3, detail_name = $4, detail_date = $5,
		detail_time = $6, detail_duration = $7, detail_title = $8, authed = $9, tokens = $10,
		event_id = $11, event_link = $12, expires_at = $13 WHERE id = $1`,
		s.Id, s.Timezone, s.State,
		s.Details.Name, s.Details.Date, s.Details.Time, s.Details.Duration, s.Details.Title,
		s.Authed, tokens, s.EventId, s.EventLink, r.expiry(),
	)
	if err != nil {
		log.Errorf("failed to update session %s: %v", id, err)
		return Session{}, fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Session{}, fmt.Errorf("failed to commit session update: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	// Opportunistically clear expired rows while we hold a connection.
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= now()`); err != nil {
		log.Debugf("failed to clear expired sessions: %v", err)
	}
	return nil
}

func (r *PostgresRepository) scanSession(row pgx.Row) (Session, error) {
	var s Session
	var tokens []byte
	err := row.Scan(
		&s.Id, &s.Timezone, &s.State,
		&s.Details.Name, &s.Details.Date, &s.Details.Time, &s.Details.Duration, &s.Details.Title,
		&s.Authed, &tokens, &s.EventId, &s.EventLink, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	} else if err != nil {
		log.Errorf("failed to scan session: %v", err)
		return Session{}, fmt.Errorf("failed to scan session: %w", err)
	}
	if len(tokens) > 0 {
		var tok oauth2.Token
		if err := json.Unmarshal(tokens, &tok); err != nil {
			return Session{}, fmt.Errorf("failed to decode session tokens: %w", err)
		}
		s.Tokens = &tok
	}
	return s, nil
}

func (r *PostgresRepository) expiry() any {
	if r.ttl <= 0 {
		return nil
	}
	return time.Now().Add(r.ttl)
}

func marshalTokens(tok *oauth2.Token) ([]byte, error) {
	if tok == nil {
		return nil, nil
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session tokens: %w", err)
	}
	return data, nil
}
