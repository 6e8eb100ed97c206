package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apex-data/race.engineer/internal/telemetry"
)

// Session is one recorded run of the telemetry pipeline.
type Session struct {
	ID        string     `json:"session_id"`
	Source    string     `json:"source"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Exchange is one question/answer pair recorded against a session.
type Exchange struct {
	ID        int64     `json:"exchange_id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	AskedAt   time.Time `json:"asked_at"`
}

// CreateSession opens a new session for the named source and returns its ID.
func (db *DB) CreateSession(source string) (string, error) {
	id := uuid.New().String()
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, source, started_at) VALUES (?, ?, ?)`,
		id, source, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// EndSession stamps the session's end time. Ending an already-ended or
// unknown session is an error.
func (db *DB) EndSession(id string) error {
	res, err := db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE session_id = ? AND ended_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no open session with id %q", id)
	}
	return nil
}

// GetSession returns the session with the given ID.
func (db *DB) GetSession(id string) (*Session, error) {
	var s Session
	var ended sql.NullTime
	err := db.QueryRow(
		`SELECT session_id, source, started_at, ended_at FROM sessions WHERE session_id = ?`,
		id,
	).Scan(&s.ID, &s.Source, &s.StartedAt, &ended)
	if err != nil {
		return nil, fmt.Errorf("failed to get session %q: %w", id, err)
	}
	if ended.Valid {
		s.EndedAt = &ended.Time
	}
	return &s, nil
}

// ListSessions returns all sessions, most recent first.
func (db *DB) ListSessions() ([]Session, error) {
	rows, err := db.Query(
		`SELECT session_id, source, started_at, ended_at FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var ended sql.NullTime
		if err := rows.Scan(&s.ID, &s.Source, &s.StartedAt, &ended); err != nil {
			return nil, err
		}
		if ended.Valid {
			s.EndedAt = &ended.Time
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// RecordSample persists one telemetry sample against a session.
func (db *DB) RecordSample(sessionID string, s *telemetry.Sample) error {
	var fl, fr, rl, rr sql.NullFloat64
	if s.TireTemps != nil {
		fl = sql.NullFloat64{Float64: s.TireTemps.FrontLeft, Valid: true}
		fr = sql.NullFloat64{Float64: s.TireTemps.FrontRight, Valid: true}
		rl = sql.NullFloat64{Float64: s.TireTemps.RearLeft, Valid: true}
		rr = sql.NullFloat64{Float64: s.TireTemps.RearRight, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO samples (
			session_id, uptime, speed, rpm, gear, fuel,
			tire_fl, tire_fr, tire_rl, tire_rr,
			lap_time, best_lap_time, current_lap, position, synthetic
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, s.Timestamp,
		nullFloat(s.Speed), nullInt(s.RPM), nullInt(s.Gear), nullFloat(s.Fuel),
		fl, fr, rl, rr,
		nullFloat(s.LapTime), nullFloat(s.BestLapTime),
		nullInt(s.CurrentLap), nullInt(s.Position),
		s.Synthetic,
	)
	if err != nil {
		return fmt.Errorf("failed to record sample: %w", err)
	}
	return nil
}

// SessionSamples returns all samples for a session in uptime order.
func (db *DB) SessionSamples(sessionID string) ([]telemetry.Sample, error) {
	rows, err := db.Query(`
		SELECT uptime, speed, rpm, gear, fuel,
		       tire_fl, tire_fr, tire_rl, tire_rr,
		       lap_time, best_lap_time, current_lap, position, synthetic
		FROM samples WHERE session_id = ? ORDER BY uptime`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []telemetry.Sample
	for rows.Next() {
		var s telemetry.Sample
		var speed, fuel, fl, fr, rl, rr, lapTime, bestLap sql.NullFloat64
		var rpm, gear, lap, pos sql.NullInt64
		err := rows.Scan(
			&s.Timestamp, &speed, &rpm, &gear, &fuel,
			&fl, &fr, &rl, &rr,
			&lapTime, &bestLap, &lap, &pos, &s.Synthetic,
		)
		if err != nil {
			return nil, err
		}
		s.Speed = floatPtr(speed)
		s.RPM = intPtr(rpm)
		s.Gear = intPtr(gear)
		s.Fuel = floatPtr(fuel)
		s.LapTime = floatPtr(lapTime)
		s.BestLapTime = floatPtr(bestLap)
		s.CurrentLap = intPtr(lap)
		s.Position = intPtr(pos)
		if fl.Valid && fr.Valid && rl.Valid && rr.Valid {
			s.TireTemps = &telemetry.TireTemps{
				FrontLeft:  fl.Float64,
				FrontRight: fr.Float64,
				RearLeft:   rl.Float64,
				RearRight:  rr.Float64,
			}
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// RecordExchange persists one question/answer pair against a session.
func (db *DB) RecordExchange(sessionID, question, answer string) error {
	_, err := db.Exec(
		`INSERT INTO exchanges (session_id, question, answer, asked_at) VALUES (?, ?, ?, ?)`,
		sessionID, question, answer, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record exchange: %w", err)
	}
	return nil
}

// SessionExchanges returns all exchanges for a session in ask order.
func (db *DB) SessionExchanges(sessionID string) ([]Exchange, error) {
	rows, err := db.Query(
		`SELECT exchange_id, session_id, question, answer, asked_at
		 FROM exchanges WHERE session_id = ? ORDER BY exchange_id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Question, &e.Answer, &e.AskedAt); err != nil {
			return nil, err
		}
		exchanges = append(exchanges, e)
	}
	return exchanges, rows.Err()
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
