// Package store archives decode reports in a sqlite database so runs can be
// listed and their points queried later.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/output"
)

// ErrNotFound is returned when a session id is not in the archive.
var ErrNotFound = errors.New("session not found")

// Store is a sqlite session archive.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session is one archived run.
type Session struct {
	ID                 string        `json:"id"`
	Kind               string        `json:"kind"`
	Sources            []string      `json:"sources"`
	ConfigFile         string        `json:"config_file,omitempty"`
	DetectedTechnology string        `json:"detected_technology"`
	RecordsRead        int           `json:"records_read"`
	Truncated          bool          `json:"truncated,omitempty"`
	Measurements       int           `json:"measurement_points"`
	Events             int           `json:"event_points"`
	Signaling          int           `json:"signaling_points"`
	ProcessedAt        time.Time     `json:"processed_at"`
	Duration           time.Duration `json:"duration"`
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	// foreign_keys is per connection, so it goes in the DSN.
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=yes", path))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, multierr.Append(fmt.Errorf("applying schema: %w", err), db.Close())
		}
	}
	s.db = db
	s.logger.Debug("store opened", zap.String("path", path))
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes the report and all of its points in one transaction.
func (s *Store) Save(ctx context.Context, r *output.Report) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	sources, err := json.Marshal(r.Metadata.Sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, kind, sources, config_file, detected_technology, records_read,
			truncated, measurement_count, event_count, signaling_count, processed_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Metadata.Kind, string(sources), r.Metadata.ConfigFile, r.Summary.DetectedTechnology,
		r.Metadata.RecordsRead, r.Metadata.Truncated, r.Summary.MeasurementPoints,
		r.Summary.EventPoints, r.Summary.SignalingPoints,
		r.Metadata.ProcessedAt.UTC().Format(time.RFC3339Nano), r.Metadata.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("inserting session %s: %w", r.ID, err)
	}

	if r.Result != nil {
		if err = saveMeasurements(ctx, tx, r.ID, r.Result.MeasurementPoints); err != nil {
			return err
		}
		if err = saveEvents(ctx, tx, r.ID, r.Result.EventPoints); err != nil {
			return err
		}
		if err = saveSignaling(ctx, tx, r.ID, r.Result.SignalingPoints); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing session %s: %w", r.ID, err)
	}
	s.logger.Info("session archived",
		zap.String("id", r.ID),
		zap.Int("measurements", r.Summary.MeasurementPoints),
		zap.Int("events", r.Summary.EventPoints))
	return nil
}

func saveMeasurements(ctx context.Context, tx *sql.Tx, id string, points []model.MeasurementPoint) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO measurements (session_id, seq, time, lat, lng, technology, serving_level,
			serving_quality, serving_pci, serving_freq, band, cell_identity, neighbors, extra_fields)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing measurements: %w", err)
	}
	defer stmt.Close()

	for i := range points {
		p := &points[i]
		neighbors, err := encodeJSON(p.Neighbors, len(p.Neighbors) > 0)
		if err != nil {
			return err
		}
		extras, err := encodeJSON(p.ExtraFields, len(p.ExtraFields) > 0)
		if err != nil {
			return err
		}
		cell, err := encodeJSON(p.CellIdentity, p.CellIdentity != (model.CellIdentity{}))
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, id, i, p.Time, p.Lat, p.Lng, string(p.Technology),
			floatArg(p.ServingLevel), floatArg(p.ServingQuality), intArg(p.ServingPCI), floatArg(p.ServingFreq),
			p.Band, cell, neighbors, extras)
		if err != nil {
			return fmt.Errorf("inserting measurement %d: %w", i, err)
		}
	}
	return nil
}

func saveEvents(ctx context.Context, tx *sql.Tx, id string, events []model.EventPoint) error {
	for i := range events {
		e := &events[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO events (session_id, seq, time, kind, message, lat, lng) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, e.Time, string(e.Kind), e.Message, floatArg(e.Lat), floatArg(e.Lng))
		if err != nil {
			return fmt.Errorf("inserting event %d: %w", i, err)
		}
	}
	return nil
}

func saveSignaling(ctx context.Context, tx *sql.Tx, id string, points []model.SignalingPoint) error {
	for i := range points {
		p := &points[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO signaling (session_id, seq, time, message, raw_line, lat, lng) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, p.Time, p.Message, p.RawLine, floatArg(p.Lat), floatArg(p.Lng))
		if err != nil {
			return fmt.Errorf("inserting signaling point %d: %w", i, err)
		}
	}
	return nil
}

// encodeJSON returns v as a JSON string, or nil (NULL) when !present.
func encodeJSON(v any, present bool) (any, error) {
	if !present {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding column: %w", err)
	}
	return string(b), nil
}

// Sessions lists archived sessions, newest first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, sources, config_file, detected_technology, records_read, truncated,
			measurement_count, event_count, signaling_count, processed_at, duration_ms
		FROM sessions ORDER BY processed_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess       Session
			sources    string
			configFile sql.NullString
			processed  string
			durationMS int64
		)
		if err := rows.Scan(&sess.ID, &sess.Kind, &sources, &configFile, &sess.DetectedTechnology,
			&sess.RecordsRead, &sess.Truncated, &sess.Measurements, &sess.Events, &sess.Signaling,
			&processed, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &sess.Sources); err != nil {
			return nil, fmt.Errorf("decoding sources of %s: %w", sess.ID, err)
		}
		sess.ConfigFile = configFile.String
		sess.ProcessedAt, err = time.Parse(time.RFC3339Nano, processed)
		if err != nil {
			return nil, fmt.Errorf("decoding processed_at of %s: %w", sess.ID, err)
		}
		sess.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Measurements returns the measurement points archived for a session, in
// their original order.
func (s *Store) Measurements(ctx context.Context, id string) ([]model.MeasurementPoint, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, id).Scan(&n); err != nil {
		return nil, fmt.Errorf("looking up session %s: %w", id, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT time, lat, lng, technology, serving_level, serving_quality, serving_pci,
			serving_freq, band, cell_identity, neighbors, extra_fields
		FROM measurements WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying measurements of %s: %w", id, err)
	}
	defer rows.Close()

	var out []model.MeasurementPoint
	for rows.Next() {
		var (
			p                    model.MeasurementPoint
			tech                 string
			level, quality, freq sql.NullFloat64
			pci                  sql.NullInt64
			band, cellID         sql.NullString
			neighbors, extras    sql.NullString
		)
		if err := rows.Scan(&p.Time, &p.Lat, &p.Lng, &tech, &level, &quality, &pci,
			&freq, &band, &cellID, &neighbors, &extras); err != nil {
			return nil, fmt.Errorf("scanning measurement: %w", err)
		}
		p.Technology = model.Technology(tech)
		p.ServingLevel = nullFloat(level)
		p.ServingQuality = nullFloat(quality)
		p.ServingFreq = nullFloat(freq)
		if pci.Valid {
			p.ServingPCI = model.Int(int(pci.Int64))
		}
		p.Band = band.String
		if cellID.Valid {
			if err := json.Unmarshal([]byte(cellID.String), &p.CellIdentity); err != nil {
				return nil, fmt.Errorf("decoding cell identity: %w", err)
			}
		}
		if neighbors.Valid {
			if err := json.Unmarshal([]byte(neighbors.String), &p.Neighbors); err != nil {
				return nil, fmt.Errorf("decoding neighbors: %w", err)
			}
		}
		if extras.Valid {
			if err := json.Unmarshal([]byte(extras.String), &p.ExtraFields); err != nil {
				return nil, fmt.Errorf("decoding extra fields: %w", err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intArg(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return model.Float(v.Float64)
}
