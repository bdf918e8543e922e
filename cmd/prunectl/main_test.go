package main

import (
	"context"
	"testing"
)

func TestPlanCommandMemoryStore(t *testing.T) {
	modelPath := writeFile(t, "model.json", `[
  {"name": "fc1.weight", "shape": [4], "values": [4, 3, 2, 1]},
  {"name": "fc2.weight", "shape": [6], "values": [10, 9, 8, 7, 6, 5]}
]`)
	planPath := writeFile(t, "plan.yaml", `
steps:
  - parameter: fc1.weight
    method: l1_unstructured
    amount: 0.5
  - method: global_unstructured
    amount: 0.2
`)

	args := []string{"plan", "-file", planPath, "-import", modelPath, "-store", "memory"}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("plan: %v", err)
	}
}

func TestPlanCommandRequiresFile(t *testing.T) {
	if err := run(context.Background(), []string{"plan", "-store", "memory"}); err == nil {
		t.Fatal("expected error for plan without -file")
	}
}

func TestPruneCommandRequiresParam(t *testing.T) {
	if err := run(context.Background(), []string{"prune", "-store", "memory"}); err == nil {
		t.Fatal("expected error for prune without -param")
	}
}

func TestMethodsCommand(t *testing.T) {
	if err := run(context.Background(), []string{"methods"}); err != nil {
		t.Fatalf("methods: %v", err)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"bogus"}); err == nil {
		t.Fatal("expected unknown command error")
	}
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected missing command error")
	}
}
