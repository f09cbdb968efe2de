package calibrate

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/deesatzed/newragcity-sub001/internal/search"
)

// SQLiteFeedbackStore persists the feedback ledger in SQLite so calibration
// history survives restarts. WAL mode allows concurrent appends and reads.
type SQLiteFeedbackStore struct {
	db *sql.DB
}

var _ FeedbackStore = (*SQLiteFeedbackStore)(nil)

// OpenSQLiteFeedbackStore opens (or creates) the feedback database at path.
func OpenSQLiteFeedbackStore(path string) (*SQLiteFeedbackStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open feedback db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := initFeedbackSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteFeedbackStore{db: db}, nil
}

func initFeedbackSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS calibration_feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		predicted_confidence REAL NOT NULL,
		actual_accuracy REAL NOT NULL,
		query_type TEXT NOT NULL,
		factors TEXT,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_type_time
		ON calibration_feedback(query_type, recorded_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create feedback schema: %w", err)
	}
	return nil
}

// Append records a feedback point.
func (s *SQLiteFeedbackStore) Append(ctx context.Context, p DataPoint) error {
	var factorsJSON any
	if p.Factors != nil {
		data, err := json.Marshal(p.Factors)
		if err != nil {
			return fmt.Errorf("marshal factors: %w", err)
		}
		factorsJSON = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calibration_feedback
			(query, predicted_confidence, actual_accuracy, query_type, factors, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.Query, p.PredictedConfidence, p.ActualAccuracy, string(p.QueryType), factorsJSON, p.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// Recent returns the points for a query type recorded at or after the
// cutoff, oldest first.
func (s *SQLiteFeedbackStore) Recent(ctx context.Context, queryType search.QueryType, cutoff time.Time) ([]DataPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, predicted_confidence, actual_accuracy, query_type, factors, recorded_at
		FROM calibration_feedback
		WHERE query_type = ? AND recorded_at >= ?
		ORDER BY recorded_at ASC
	`, string(queryType), cutoff.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var points []DataPoint
	for rows.Next() {
		var (
			p           DataPoint
			qt          string
			factorsJSON sql.NullString
			recordedAt  int64
		)
		if err := rows.Scan(&p.Query, &p.PredictedConfidence, &p.ActualAccuracy, &qt, &factorsJSON, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		p.QueryType = search.QueryType(qt)
		p.Timestamp = time.Unix(0, recordedAt)
		if factorsJSON.Valid && factorsJSON.String != "" {
			var f ConfidenceFactors
			if err := json.Unmarshal([]byte(factorsJSON.String), &f); err == nil {
				p.Factors = &f
			}
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Prune removes points older than the cutoff.
func (s *SQLiteFeedbackStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM calibration_feedback WHERE recorded_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune feedback: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(affected), nil
}

// Close closes the database.
func (s *SQLiteFeedbackStore) Close() error {
	return s.db.Close()
}
