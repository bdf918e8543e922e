//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"prunekit/internal/model"
)

func TestSQLiteStoreParameterRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "prunekit.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	state := sampleState("conv1.weight")
	if err := store.SaveParameter(ctx, state); err != nil {
		t.Fatalf("save parameter: %v", err)
	}

	loaded, ok, err := store.GetParameter(ctx, "conv1.weight")
	if err != nil {
		t.Fatalf("get parameter: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted parameter")
	}
	if loaded.Name != state.Name || len(loaded.Snapshot) != 4 || loaded.Snapshot[3] != 4 {
		t.Fatalf("unexpected state: %+v", loaded)
	}

	// Upsert replaces the payload.
	state.Value = []float64{0, 0, 0, 0}
	if err := store.SaveParameter(ctx, state); err != nil {
		t.Fatalf("resave parameter: %v", err)
	}
	loaded, _, err = store.GetParameter(ctx, "conv1.weight")
	if err != nil {
		t.Fatalf("get parameter: %v", err)
	}
	if loaded.Value[0] != 0 {
		t.Fatalf("upsert did not replace payload: %+v", loaded.Value)
	}
}

func TestSQLiteStoreListDeleteAndReports(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "prunekit.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	for _, name := range []string{"b.weight", "a.weight"} {
		if err := store.SaveParameter(ctx, sampleState(name)); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}
	names, err := store.ListParameters(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "a.weight" {
		t.Fatalf("unexpected listing: %v", names)
	}

	if err := store.DeleteParameter(ctx, "a.weight"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.GetParameter(ctx, "a.weight"); ok {
		t.Fatal("parameter survived delete")
	}

	report := model.SparsityReport{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		Zeros:           2,
		Total:           4,
		Global:          0.5,
	}
	if err := store.SaveSparsityReport(ctx, "run-1", report); err != nil {
		t.Fatalf("save report: %v", err)
	}
	loaded, ok, err := store.GetSparsityReport(ctx, "run-1")
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if !ok || loaded.Global != 0.5 {
		t.Fatalf("unexpected report: ok=%v %+v", ok, loaded)
	}
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	store := NewSQLiteStore("")
	if err := store.Init(context.Background()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
