package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"medagent/pkg"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Repository wraps database operations for sessions, profiles and messages.
// A single postgres database is used; the caller is responsible for the
// connection lifecycle.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a new Repository from an existing sql.DB.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// Ping verifies the database connection is alive.
func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// CreateSession inserts a new active session with zero messages and low
// urgency. Each call creates a distinct session.
func (r *Repository) CreateSession(ctx context.Context, profileRef *string) (*pkg.Session, error) {
	id := uuid.NewString()
	var s pkg.Session
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO sessions (id, user_profile_id)
         VALUES ($1, $2)
         RETURNING id, user_profile_id, start_time, end_time, message_count,
                   current_urgency_level, status, context_summary, created_at, updated_at`,
		id, profileRef,
	).Scan(
		&s.ID, &s.UserProfileID, &s.StartTime, &s.EndTime, &s.MessageCount,
		&s.CurrentUrgency, &s.Status, &s.ContextSummary, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &s, nil
}

// GetSession retrieves a session by ID. Returns (nil, nil) when absent.
func (r *Repository) GetSession(ctx context.Context, sessionID string) (*pkg.Session, error) {
	var s pkg.Session
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_profile_id, start_time, end_time, message_count,
                current_urgency_level, status, context_summary, created_at, updated_at
         FROM sessions
         WHERE id = $1`,
		sessionID,
	).Scan(
		&s.ID, &s.UserProfileID, &s.StartTime, &s.EndTime, &s.MessageCount,
		&s.CurrentUrgency, &s.Status, &s.ContextSummary, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return &s, nil
}

// UpsertProfile creates the profile for a session or, if one already
// exists, merges in the non-nil fields of the update and leaves the rest
// untouched.
func (r *Repository) UpsertProfile(ctx context.Context, sessionID string, upd *pkg.ProfileUpdate) (*pkg.Profile, error) {
	id := uuid.NewString()
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO profiles
             (id, session_id, age, gender, primary_symptom, duration,
              intensity, associated_symptoms, known_conditions, family_history)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         ON CONFLICT (session_id) DO UPDATE SET
             age                 = COALESCE(EXCLUDED.age, profiles.age),
             gender              = COALESCE(EXCLUDED.gender, profiles.gender),
             primary_symptom     = COALESCE(EXCLUDED.primary_symptom, profiles.primary_symptom),
             duration            = COALESCE(EXCLUDED.duration, profiles.duration),
             intensity           = COALESCE(EXCLUDED.intensity, profiles.intensity),
             associated_symptoms = COALESCE(EXCLUDED.associated_symptoms, profiles.associated_symptoms),
             known_conditions    = COALESCE(EXCLUDED.known_conditions, profiles.known_conditions),
             family_history      = COALESCE(EXCLUDED.family_history, profiles.family_history),
             updated_at          = NOW()
         RETURNING id, session_id, age, gender, primary_symptom, duration,
                   intensity, associated_symptoms, known_conditions, family_history,
                   created_at, updated_at`,
		id, sessionID, upd.Age, upd.Gender, upd.PrimarySymptom, upd.Duration,
		pq.Array(upd.Intensity), pq.Array(upd.AssociatedSymptoms),
		pq.Array(upd.KnownConditions), upd.FamilyHistory,
	)
	p, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("upsert profile for session %s: %w", sessionID, err)
	}
	return p, nil
}

// GetProfile retrieves the profile for a session. Returns (nil, nil) when
// no profile has been submitted yet.
func (r *Repository) GetProfile(ctx context.Context, sessionID string) (*pkg.Profile, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, session_id, age, gender, primary_symptom, duration,
                intensity, associated_symptoms, known_conditions, family_history,
                created_at, updated_at
         FROM profiles
         WHERE session_id = $1`,
		sessionID,
	)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile for session %s: %w", sessionID, err)
	}
	return p, nil
}

func scanProfile(row *sql.Row) (*pkg.Profile, error) {
	var p pkg.Profile
	err := row.Scan(
		&p.ID, &p.SessionID, &p.Age, &p.Gender, &p.PrimarySymptom, &p.Duration,
		pq.Array(&p.Intensity), pq.Array(&p.AssociatedSymptoms),
		pq.Array(&p.KnownConditions), &p.FamilyHistory,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveMessage appends a message to the session log and bumps the owning
// session's message_count in the same transaction. The stored ID and
// timestamp are filled in on the returned message.
func (r *Repository) SaveMessage(ctx context.Context, m *pkg.Message) (*pkg.Message, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	defer tx.Rollback()

	meta := m.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("save message: encode metadata: %w", err)
	}
	questions := m.NextQuestions
	if questions == nil {
		questions = []string{}
	}

	saved := *m
	saved.ID = uuid.NewString()
	saved.NextQuestions = questions
	saved.Metadata = meta
	err = tx.QueryRowContext(ctx,
		`INSERT INTO messages (id, session_id, message_type, content, urgency_level, next_questions, metadata)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING created_at`,
		saved.ID, m.SessionID, m.Type, m.Content, m.UrgencyLevel,
		pq.Array(questions), metaJSON,
	).Scan(&saved.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions
         SET message_count = message_count + 1, updated_at = NOW()
         WHERE id = $1`,
		m.SessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("save message: bump count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	return &saved, nil
}

// ListMessages returns up to limit messages of a session in chronological
// order.
func (r *Repository) ListMessages(ctx context.Context, sessionID string, limit int) ([]pkg.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, session_id, message_type, content, urgency_level, next_questions, metadata, created_at
         FROM messages
         WHERE session_id = $1
         ORDER BY created_at ASC
         LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages for session %s: %w", sessionID, err)
	}
	return collectMessages(rows)
}

// RecentMessages returns the last n messages of a session, oldest first.
func (r *Repository) RecentMessages(ctx context.Context, sessionID string, n int) ([]pkg.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, session_id, message_type, content, urgency_level, next_questions, metadata, created_at
         FROM (
             SELECT id, session_id, message_type, content, urgency_level, next_questions, metadata, created_at
             FROM messages
             WHERE session_id = $1
             ORDER BY created_at DESC
             LIMIT $2
         ) recent
         ORDER BY created_at ASC`,
		sessionID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent messages for session %s: %w", sessionID, err)
	}
	return collectMessages(rows)
}

func collectMessages(rows *sql.Rows) ([]pkg.Message, error) {
	defer rows.Close()
	var out []pkg.Message
	for rows.Next() {
		var m pkg.Message
		var metaJSON []byte
		if err := rows.Scan(
			&m.ID, &m.SessionID, &m.Type, &m.Content, &m.UrgencyLevel,
			pq.Array(&m.NextQuestions), &metaJSON, &m.Timestamp,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &m.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for message %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// EscalateUrgency raises a session's urgency level. The update is guarded
// by a severity-rank comparison in SQL, so the stored level can never move
// downward. Returns true when the session's level actually changed.
func (r *Repository) EscalateUrgency(ctx context.Context, sessionID string, level pkg.UrgencyLevel) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE sessions
         SET current_urgency_level = $2, updated_at = NOW()
         WHERE id = $1
           AND CASE current_urgency_level WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END
             < CASE $2::text WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END`,
		sessionID, string(level),
	)
	if err != nil {
		return false, fmt.Errorf("escalate session %s: %w", sessionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CloseSession marks a session completed and stamps end_time. The first
// close wins; later calls keep the original end_time. Returns false when
// the session does not exist.
func (r *Repository) CloseSession(ctx context.Context, sessionID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE sessions
         SET status = 'completed',
             end_time = COALESCE(end_time, NOW()),
             updated_at = NOW()
         WHERE id = $1`,
		sessionID,
	)
	if err != nil {
		return false, fmt.Errorf("close session %s: %w", sessionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// PurgeOlderThan deletes sessions created before the cutoff along with
// their messages and profiles. Returns the total number of deleted rows.
func (r *Repository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}
	defer tx.Rollback()

	var total int64
	// Children first so the session foreign keys stay satisfied.
	for _, q := range []string{
		`DELETE FROM messages WHERE session_id IN (SELECT id FROM sessions WHERE created_at < $1)`,
		`DELETE FROM profiles WHERE session_id IN (SELECT id FROM sessions WHERE created_at < $1)`,
		`DELETE FROM sessions WHERE created_at < $1`,
	} {
		res, err := tx.ExecContext(ctx, q, cutoff)
		if err != nil {
			return 0, fmt.Errorf("purge: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}
	return total, nil
}
