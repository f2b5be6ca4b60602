package history

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/finchley-audio/auriga-core/internal/device"
	"github.com/finchley-audio/auriga-core/internal/infrastructure/database"
)

func testRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "history.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewRepository(context.Background(), db)
	if err != nil {
		t.Fatalf("NewRepository() error: %v", err)
	}
	return repo
}

func snapshotAt(udn string, volume float64, at time.Time) Snapshot {
	return Snapshot{
		DeviceUDN: udn,
		Role:      device.RoleAmplifier,
		Source:    "smoip",
		State: &device.State{
			Name:         "Lounge",
			Capabilities: []device.Capability{device.CapVolume},
			Power:        device.PowerOn,
			Volume:       &volume,
		},
		RecordedAt: at,
	}
}

func TestRecordAndReadBack(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i, volume := range []float64{0.10, 0.20, 0.30} {
		snap := snapshotAt("uuid:cxn", volume, base.Add(time.Duration(i)*time.Second))
		if err := repo.RecordSnapshot(ctx, snap); err != nil {
			t.Fatalf("RecordSnapshot() error: %v", err)
		}
	}

	history, err := repo.History(ctx, "uuid:cxn", 10)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("got %d rows, want 3", len(history))
	}

	// Newest first.
	if *history[0].State.Volume != 0.30 || *history[2].State.Volume != 0.10 {
		t.Errorf("ordering wrong: %v then %v",
			*history[0].State.Volume, *history[2].State.Volume)
	}
	if history[0].Role != device.RoleAmplifier || history[0].Source != "smoip" {
		t.Errorf("row = %+v", history[0])
	}
	if !history[0].State.HasCapability(device.CapVolume) {
		t.Error("capabilities lost on round trip")
	}
}

func TestHistoryLimit(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		snap := snapshotAt("uuid:cxn", float64(i)/10, base.Add(time.Duration(i)*time.Second))
		if err := repo.RecordSnapshot(ctx, snap); err != nil {
			t.Fatalf("RecordSnapshot() error: %v", err)
		}
	}

	history, err := repo.History(ctx, "uuid:cxn", 2)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("got %d rows, want 2", len(history))
	}
}

func TestHistoryFiltersByDevice(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if err := repo.RecordSnapshot(ctx, snapshotAt("uuid:a", 0.1, time.Now())); err != nil {
		t.Fatalf("RecordSnapshot() error: %v", err)
	}
	if err := repo.RecordSnapshot(ctx, snapshotAt("uuid:b", 0.2, time.Now())); err != nil {
		t.Fatalf("RecordSnapshot() error: %v", err)
	}

	history, err := repo.History(ctx, "uuid:a", 10)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 1 || history[0].DeviceUDN != "uuid:a" {
		t.Errorf("history = %+v, want only uuid:a", history)
	}
}

func TestLatest(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if _, err := repo.Latest(ctx, "uuid:none"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}

	base := time.Now().Add(-time.Minute)
	_ = repo.RecordSnapshot(ctx, snapshotAt("uuid:cxn", 0.1, base))
	_ = repo.RecordSnapshot(ctx, snapshotAt("uuid:cxn", 0.2, base.Add(time.Second)))

	latest, err := repo.Latest(ctx, "uuid:cxn")
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if *latest.State.Volume != 0.2 {
		t.Errorf("latest volume = %v, want 0.2", *latest.State.Volume)
	}
}

func TestRecorderDrainsOnClose(t *testing.T) {
	repo := testRepository(t)
	recorder := NewRecorder(repo, nil)

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 10; i++ {
		recorder.Enqueue(snapshotAt("uuid:cxn", float64(i)/10, base.Add(time.Duration(i)*time.Second)))
	}
	recorder.Close()

	history, err := repo.History(context.Background(), "uuid:cxn", 20)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 10 {
		t.Errorf("got %d rows after drain, want 10", len(history))
	}
}

func TestRecorderDropsAfterClose(t *testing.T) {
	repo := testRepository(t)
	recorder := NewRecorder(repo, nil)
	recorder.Close()

	// Adapter callbacks can still fire during shutdown; a late snapshot
	// must be dropped, not panic on the closed queue.
	recorder.Enqueue(snapshotAt("uuid:cxn", 0.5, time.Now()))
	recorder.Close()

	history, err := repo.History(context.Background(), "uuid:cxn", 10)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("got %d rows after close, want 0", len(history))
	}
}
