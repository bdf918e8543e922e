//go:build sqlite

package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"prunekit/internal/model"
)

func TestPruneWorkflowSQLite(t *testing.T) {
	workdir := t.TempDir()
	dbPath := filepath.Join(workdir, "prunekit.db")
	ctx := context.Background()

	modelPath := writeFile(t, "model.json", `[
  {"name": "conv1.weight", "shape": [6, 2],
   "values": [1, 0, 1, 1, 2, 1, 2, 2, 3, 2, 3, 3]},
  {"name": "conv1.bias", "shape": [6], "values": [5, 1, 4, 2, 6, 3]}
]`)

	storeArgs := []string{"-store", "sqlite", "-db-path", dbPath}

	if err := run(ctx, append([]string{"init"}, storeArgs...)); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := run(ctx, append([]string{"import", "-file", modelPath}, storeArgs...)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := run(ctx, append([]string{
		"prune", "-param", "conv1.bias", "-method", "l1_unstructured", "-amount", "3", "-absolute",
	}, storeArgs...)); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if err := run(ctx, append([]string{
		"prune", "-param", "conv1.weight", "-method", "ln_structured", "-amount", "0.5", "-axis", "0", "-norm", "2",
	}, storeArgs...)); err != nil {
		t.Fatalf("structured prune: %v", err)
	}
	if err := run(ctx, append([]string{"sparsity", "-save", "run-1"}, storeArgs...)); err != nil {
		t.Fatalf("sparsity: %v", err)
	}
	if err := run(ctx, append([]string{"history", "-param", "conv1.bias"}, storeArgs...)); err != nil {
		t.Fatalf("history: %v", err)
	}

	exportPath := filepath.Join(workdir, "export.json")
	if err := run(ctx, append([]string{"export", "-out", exportPath}, storeArgs...)); err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var states map[string]model.ParameterState
	if err := json.Unmarshal(data, &states); err != nil {
		t.Fatalf("parse export: %v", err)
	}

	bias, ok := states["conv1.bias"]
	if !ok {
		t.Fatal("conv1.bias missing from export")
	}
	wantMask := []uint8{1, 0, 1, 0, 1, 0}
	if len(bias.Mask) != len(wantMask) {
		t.Fatalf("unexpected bias mask: %v", bias.Mask)
	}
	for i := range wantMask {
		if bias.Mask[i] != wantMask[i] {
			t.Fatalf("bias mask mismatch: got %v want %v", bias.Mask, wantMask)
		}
	}
	weight := states["conv1.weight"]
	zeros := 0
	for _, v := range weight.Value {
		if v == 0 {
			zeros++
		}
	}
	// The three lowest-norm rows are fully zeroed.
	if zeros != 6 {
		t.Fatalf("expected 6 zero entries in weight view, got %d", zeros)
	}

	if err := run(ctx, append([]string{"finalize", "-all"}, storeArgs...)); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := run(ctx, append([]string{"export", "-out", exportPath}, storeArgs...)); err != nil {
		t.Fatalf("re-export: %v", err)
	}
	data, err = os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if err := json.Unmarshal(data, &states); err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if !states["conv1.bias"].Finalized || len(states["conv1.bias"].Mask) != 0 {
		t.Fatalf("finalize did not drop state: %+v", states["conv1.bias"])
	}
}

