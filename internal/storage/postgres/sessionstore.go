package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mgriffith/spindial/internal/game/engine"
)

// SessionStore persists combat sessions. The immutable creation snapshot is
// stored as one jsonb document and the turn log as a separate jsonb array so
// appends never rewrite the snapshot. Expiry is enforced on every read and
// write: an expired row is indistinguishable from a deleted one.
type SessionStore struct {
	db *pgxpool.Pool
}

var _ engine.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

// Create inserts a new session row.
//
// Precondition: s must have ID, PlayerID, and ExpiresAt set.
// Postcondition: Returns engine.ErrActiveSessionExists when the player
// already holds an unexpired session. Expired leftovers for the player are
// evicted first so they never block a new fight; the per-player unique index
// backstops the race between eviction and insert.
func (s *SessionStore) Create(ctx context.Context, sess *engine.Session) error {
	snapshot, err := marshalSnapshot(sess)
	if err != nil {
		return err
	}
	logJSON, err := json.Marshal(sess.Log)
	if err != nil {
		return fmt.Errorf("encoding session log: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`DELETE FROM combat_sessions WHERE player_id = $1 AND expires_at <= now()`,
		sess.PlayerID,
	)
	if err != nil {
		return fmt.Errorf("evicting expired session: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO combat_sessions (id, player_id, snapshot, log, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sess.ID, sess.PlayerID, snapshot, logJSON, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return engine.ErrActiveSessionExists
		}
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Get retrieves an unexpired session by id.
//
// Postcondition: Returns the session with its log reattached, or
// engine.ErrSessionNotFound when the row is missing or expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*engine.Session, error) {
	var snapshot, logJSON []byte
	err := s.db.QueryRow(ctx,
		`SELECT snapshot, log FROM combat_sessions
		 WHERE id = $1 AND expires_at > now()`,
		sessionID,
	).Scan(&snapshot, &logJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, engine.ErrSessionNotFound
		}
		return nil, fmt.Errorf("querying session: %w", err)
	}

	var sess engine.Session
	if err := json.Unmarshal(snapshot, &sess); err != nil {
		return nil, fmt.Errorf("decoding session snapshot: %w", err)
	}
	if err := json.Unmarshal(logJSON, &sess.Log); err != nil {
		return nil, fmt.Errorf("decoding session log: %w", err)
	}
	return &sess, nil
}

// AppendTurn appends one log entry to the session's log.
//
// Postcondition: The entry is durably appended, or engine.ErrSessionNotFound
// is returned when the session is missing or expired.
func (s *SessionStore) AppendTurn(ctx context.Context, sessionID string, entry engine.LogEntry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding log entry: %w", err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE combat_sessions SET log = log || $2::jsonb
		 WHERE id = $1 AND expires_at > now()`,
		sessionID, entryJSON,
	)
	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrSessionNotFound
	}
	return nil
}

// Delete removes the session row.
//
// Postcondition: Returns engine.ErrSessionNotFound when no unexpired row
// matched.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM combat_sessions WHERE id = $1 AND expires_at > now()`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrSessionNotFound
	}
	return nil
}

// marshalSnapshot encodes the session without its log. The log column is the
// only authority for turns once the row exists.
func marshalSnapshot(sess *engine.Session) ([]byte, error) {
	clone := *sess
	clone.Log = nil
	data, err := json.Marshal(&clone)
	if err != nil {
		return nil, fmt.Errorf("encoding session snapshot: %w", err)
	}
	return data, nil
}
