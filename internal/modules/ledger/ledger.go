package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkarag/finboard/internal/database"
	"github.com/dkarag/finboard/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS recommendations (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	priority TEXT NOT NULL,
	title TEXT NOT NULL,
	reason TEXT NOT NULL,
	impact TEXT NOT NULL,
	actions TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_recommendations_status ON recommendations(status);
`

// Ledger stores the recommendations produced by the last optimizer run and
// tracks their accept/dismiss lifecycle. It is backed by an in-memory
// sqlite database; nothing survives process restart.
type Ledger struct {
	db  *database.DB
	log zerolog.Logger
}

// New creates a ledger on the given database and ensures its schema.
func New(db *database.DB, log zerolog.Logger) (*Ledger, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return &Ledger{
		db:  db,
		log: log.With().Str("repository", "ledger").Logger(),
	}, nil
}

// Store upserts recommendations by id.
func (l *Ledger) Store(recs []domain.Recommendation) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := storeTx(tx, recs); err != nil {
		return err
	}
	return tx.Commit()
}

// Replace atomically clears the ledger and stores the new set. Used by the
// orchestrator so concurrent runs cannot interleave a clear with a store.
func (l *Ledger) Replace(recs []domain.Recommendation) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM recommendations`); err != nil {
		return fmt.Errorf("failed to clear ledger: %w", err)
	}
	if err := storeTx(tx, recs); err != nil {
		return err
	}
	return tx.Commit()
}

func storeTx(tx *sql.Tx, recs []domain.Recommendation) error {
	for _, rec := range recs {
		impact, err := json.Marshal(rec.Impact)
		if err != nil {
			return fmt.Errorf("failed to encode impact: %w", err)
		}
		actions, err := json.Marshal(rec.Actions)
		if err != nil {
			return fmt.Errorf("failed to encode actions: %w", err)
		}
		status := rec.Status
		if status == "" {
			status = domain.StatusPending
		}
		_, err = tx.Exec(`
			INSERT INTO recommendations (id, type, priority, title, reason, impact, actions, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				type = excluded.type,
				priority = excluded.priority,
				title = excluded.title,
				reason = excluded.reason,
				impact = excluded.impact,
				actions = excluded.actions,
				status = excluded.status,
				updated_at = CURRENT_TIMESTAMP
		`,
			rec.ID, string(rec.Type), string(rec.Priority), rec.Title, rec.Reason,
			string(impact), string(actions), string(status),
		)
		if err != nil {
			return fmt.Errorf("failed to store recommendation %s: %w", rec.ID, err)
		}
	}
	return nil
}

// UpdateStatus transitions a recommendation. Returns false when the id is
// unknown; an invalid status is an error.
func (l *Ledger) UpdateStatus(id string, status domain.RecommendationStatus) (bool, error) {
	if !domain.ValidStatus(status) {
		return false, fmt.Errorf("invalid recommendation status %q", status)
	}
	res, err := l.db.Exec(`
		UPDATE recommendations
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(status), id)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// All returns every stored recommendation.
func (l *Ledger) All() ([]domain.Recommendation, error) {
	return l.query(`SELECT id, type, priority, title, reason, impact, actions, status
		FROM recommendations ORDER BY created_at, id`)
}

// Pending returns recommendations awaiting a user decision.
func (l *Ledger) Pending() ([]domain.Recommendation, error) {
	return l.query(`SELECT id, type, priority, title, reason, impact, actions, status
		FROM recommendations WHERE status = 'pending' ORDER BY created_at, id`)
}

// Accepted returns recommendations the user accepted.
func (l *Ledger) Accepted() ([]domain.Recommendation, error) {
	return l.query(`SELECT id, type, priority, title, reason, impact, actions, status
		FROM recommendations WHERE status = 'accepted' ORDER BY created_at, id`)
}

// Clear empties the ledger.
func (l *Ledger) Clear() error {
	if _, err := l.db.Exec(`DELETE FROM recommendations`); err != nil {
		return fmt.Errorf("failed to clear ledger: %w", err)
	}
	return nil
}

func (l *Ledger) query(q string, args ...interface{}) ([]domain.Recommendation, error) {
	rows, err := l.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []domain.Recommendation{}
	for rows.Next() {
		var rec domain.Recommendation
		var impact, actions string
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Priority, &rec.Title, &rec.Reason,
			&impact, &actions, &rec.Status); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(impact), &rec.Impact); err != nil {
			return nil, fmt.Errorf("failed to decode impact for %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(actions), &rec.Actions); err != nil {
			return nil, fmt.Errorf("failed to decode actions for %s: %w", rec.ID, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
