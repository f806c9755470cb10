package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kdimtricp/facewatch/internal/detect"
)

// SessionRecord is one recorded detection run, batch or watch.
type SessionRecord struct {
	ID             string     `json:"id"`
	Mode           string     `json:"mode"`
	Source         string     `json:"source"`
	ConfThreshold  float64    `json:"conf_threshold"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	TotalProcessed int        `json:"total_processed"`
}

// FrameRecord is one persisted frame result within a session.
type FrameRecord struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	FrameIndex int             `json:"frame_index"`
	FaceCount  int             `json:"face_count"`
	Error      string          `json:"error,omitempty"`
	Report     json.RawMessage `json:"report"`
	CreatedAt  time.Time       `json:"created_at"`
}

type SessionRepo struct {
	db *DB
}

func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) CreateSession(ctx context.Context, rec *SessionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	query := `
		INSERT INTO watch_sessions (id, mode, source, conf_threshold, started_at, total_processed)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if r.db.dbType == "sqlite" {
		query = `
		INSERT INTO watch_sessions (id, mode, source, conf_threshold, started_at, total_processed)
		VALUES (?, ?, ?, ?, ?, ?)`
	}

	_, err := r.db.conn.ExecContext(ctx, query,
		rec.ID, rec.Mode, rec.Source, rec.ConfThreshold, rec.StartedAt, rec.TotalProcessed)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *SessionRepo) FinishSession(ctx context.Context, id string, totalProcessed int) error {
	query := `UPDATE watch_sessions SET finished_at = $1, total_processed = $2 WHERE id = $3`
	if r.db.dbType == "sqlite" {
		query = `UPDATE watch_sessions SET finished_at = ?, total_processed = ? WHERE id = ?`
	}

	_, err := r.db.conn.ExecContext(ctx, query, time.Now(), totalProcessed, id)
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	return nil
}

func (r *SessionRepo) RecordFrame(ctx context.Context, sessionID string, frameIndex int, report detect.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
		INSERT INTO frame_results (id, session_id, frame_index, face_count, error, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if r.db.dbType == "sqlite" {
		query = `
		INSERT INTO frame_results (id, session_id, frame_index, face_count, error, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	}

	_, err = r.db.conn.ExecContext(ctx, query,
		uuid.New().String(), sessionID, frameIndex, report.Count, report.Error,
		string(reportJSON), time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert frame result: %w", err)
	}
	return nil
}

func (r *SessionRepo) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	query := `
		SELECT id, mode, source, conf_threshold, started_at, finished_at, total_processed
		FROM watch_sessions WHERE id = $1`
	if r.db.dbType == "sqlite" {
		query = `
		SELECT id, mode, source, conf_threshold, started_at, finished_at, total_processed
		FROM watch_sessions WHERE id = ?`
	}

	rec := &SessionRecord{}
	var finished sql.NullTime
	err := r.db.conn.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Mode, &rec.Source, &rec.ConfThreshold,
		&rec.StartedAt, &finished, &rec.TotalProcessed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if finished.Valid {
		rec.FinishedAt = &finished.Time
	}
	return rec, nil
}

func (r *SessionRepo) ListSessions(ctx context.Context, limit int) ([]*SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, mode, source, conf_threshold, started_at, finished_at, total_processed
		FROM watch_sessions ORDER BY started_at DESC LIMIT $1`
	if r.db.dbType == "sqlite" {
		query = `
		SELECT id, mode, source, conf_threshold, started_at, finished_at, total_processed
		FROM watch_sessions ORDER BY started_at DESC LIMIT ?`
	}

	rows, err := r.db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*SessionRecord
	for rows.Next() {
		rec := &SessionRecord{}
		var finished sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Mode, &rec.Source, &rec.ConfThreshold,
			&rec.StartedAt, &finished, &rec.TotalProcessed); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if finished.Valid {
			rec.FinishedAt = &finished.Time
		}
		sessions = append(sessions, rec)
	}
	return sessions, rows.Err()
}

func (r *SessionRepo) GetFrames(ctx context.Context, sessionID string) ([]*FrameRecord, error) {
	query := `
		SELECT id, session_id, frame_index, face_count, error, report, created_at
		FROM frame_results WHERE session_id = $1 ORDER BY frame_index`
	if r.db.dbType == "sqlite" {
		query = `
		SELECT id, session_id, frame_index, face_count, error, report, created_at
		FROM frame_results WHERE session_id = ? ORDER BY frame_index`
	}

	rows, err := r.db.conn.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frame results: %w", err)
	}
	defer rows.Close()

	var frames []*FrameRecord
	for rows.Next() {
		rec := &FrameRecord{}
		var reportStr string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.FrameIndex, &rec.FaceCount,
			&rec.Error, &reportStr, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan frame result: %w", err)
		}
		rec.Report = json.RawMessage(reportStr)
		frames = append(frames, rec)
	}
	return frames, rows.Err()
}

// CountFrames counts all recorded frame results across sessions.
func (r *SessionRepo) CountFrames(ctx context.Context) (int, error) {
	var n int
	err := r.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM frame_results`).Scan(&n)
	return n, err
}

// CountSessions counts all recorded sessions.
func (r *SessionRepo) CountSessions(ctx context.Context) (int, error) {
	var n int
	err := r.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM watch_sessions`).Scan(&n)
	return n, err
}
