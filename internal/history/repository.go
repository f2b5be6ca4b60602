package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finchley-audio/auriga-core/internal/device"
	"github.com/finchley-audio/auriga-core/internal/infrastructure/database"
)

// schema holds the state history table definition, applied on startup.
const schema = `
CREATE TABLE IF NOT EXISTS state_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	device_udn  TEXT    NOT NULL,
	role        TEXT    NOT NULL,
	source      TEXT    NOT NULL,
	state       TEXT    NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_state_history_device
	ON state_history(device_udn, recorded_at);
`

// Snapshot is one recorded state change.
type Snapshot struct {
	DeviceUDN  string        `json:"device_udn"`
	Role       device.Role   `json:"role"`
	Source     string        `json:"source"`
	State      *device.State `json:"state"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Repository persists canonical state snapshots to SQLite.
type Repository struct {
	db *database.DB
}

// NewRepository creates a repository and applies the schema.
func NewRepository(ctx context.Context, db *database.DB) (*Repository, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("applying state history schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// RecordSnapshot stores one state snapshot.
func (r *Repository) RecordSnapshot(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("encoding state snapshot: %w", err)
	}

	recordedAt := snap.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO state_history (device_udn, role, source, state, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		snap.DeviceUDN, string(snap.Role), snap.Source, string(payload), recordedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("recording state snapshot: %w", err)
	}
	return nil
}

// History returns the most recent snapshots for one device, newest first.
//
// Parameters:
//   - udn: the device's UDN
//   - limit: maximum rows returned; non-positive selects a default of 100
func (r *Repository) History(ctx context.Context, udn string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT device_udn, role, source, state, recorded_at
		 FROM state_history
		 WHERE device_udn = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		udn, limit)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var (
			snap       Snapshot
			role       string
			payload    string
			recordedAt int64
		)
		if err := rows.Scan(&snap.DeviceUDN, &role, &snap.Source, &payload, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning state history row: %w", err)
		}

		snap.Role = device.Role(role)
		snap.RecordedAt = time.UnixMilli(recordedAt)
		if err := json.Unmarshal([]byte(payload), &snap.State); err != nil {
			return nil, fmt.Errorf("decoding state snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state history: %w", err)
	}

	return snapshots, nil
}

// Latest returns the most recent snapshot for one device, or sql.ErrNoRows
// when none exists.
func (r *Repository) Latest(ctx context.Context, udn string) (Snapshot, error) {
	snapshots, err := r.History(ctx, udn, 1)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snapshots) == 0 {
		return Snapshot{}, sql.ErrNoRows
	}
	return snapshots[0], nil
}
