package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"prunekit/internal/storage"
	"prunekit/pkg/prunekit"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "import":
		return runImport(ctx, args[1:])
	case "prune":
		return runPrune(ctx, args[1:])
	case "global":
		return runGlobal(ctx, args[1:])
	case "plan":
		return runPlan(ctx, args[1:])
	case "sparsity":
		return runSparsity(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "finalize":
		return runFinalize(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "methods":
		return runMethods(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: prunectl <init|import|prune|global|plan|sparsity|history|finalize|export|methods> [flags]", msg)
}

func storeFlags(fs *flag.FlagSet) (storeKind, dbPath *string) {
	storeKind = fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath = fs.String("db-path", "prunekit.db", "sqlite database path")
	return storeKind, dbPath
}

func newClient(storeKind, dbPath string) (*prunekit.Client, error) {
	return prunekit.New(prunekit.Options{
		StoreKind: storeKind,
		DBPath:    dbPath,
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	file := fs.String("file", "", "JSON file with parameters to import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return usageError("import requires -file")
	}

	specs, err := loadParameterFile(*file)
	if err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Import(ctx, specs); err != nil {
		return err
	}
	fmt.Printf("imported %d parameters\n", len(specs))
	return nil
}

func runPrune(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("prune", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	param := fs.String("param", "", "parameter name")
	method := fs.String("method", "l1_unstructured", "pruning method name")
	amount := fs.Float64("amount", 0, "fraction of active entries, or count with -absolute")
	absolute := fs.Bool("absolute", false, "treat -amount as an absolute count")
	axis := fs.Int("axis", 0, "axis for structured methods")
	norm := fs.Float64("norm", 2, "norm order for structured methods")
	seed := fs.Int64("seed", 0, "seed for random methods")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *param == "" {
		return usageError("prune requires -param")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Prune(ctx, prunekit.PruneRequest{
		Parameter: *param,
		Method:    *method,
		Amount:    *amount,
		Absolute:  *absolute,
		Axis:      *axis,
		Norm:      *norm,
		Seed:      *seed,
	})
	if err != nil {
		return err
	}
	fmt.Printf("pruned %d entries of %s (method=%s sparsity=%.2f%%)\n",
		summary.NewlyPruned, summary.Parameter, summary.Method, 100*summary.Sparsity)
	return nil
}

func runGlobal(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("global", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	params := fs.String("params", "", "comma-separated parameter names (default: all)")
	amount := fs.Float64("amount", 0, "fraction of the pooled active entries, or count with -absolute")
	absolute := fs.Bool("absolute", false, "treat -amount as an absolute count")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.PruneGlobal(ctx, prunekit.GlobalRequest{
		Parameters: splitNames(*params),
		Amount:     *amount,
		Absolute:   *absolute,
	})
	if err != nil {
		return err
	}
	fmt.Printf("pruned %d entries globally\n", summary.Pruned)
	for name, count := range summary.PerParameter {
		fmt.Printf("  %s: %d\n", name, count)
	}
	return nil
}

func runPlan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	file := fs.String("file", "", "YAML pruning plan")
	importFile := fs.String("import", "", "JSON parameters to import before applying the plan")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return usageError("plan requires -file")
	}

	plan, err := loadPlanFile(*file)
	if err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if *importFile != "" {
		specs, err := loadParameterFile(*importFile)
		if err != nil {
			return err
		}
		if err := client.Import(ctx, specs); err != nil {
			return err
		}
	}

	for i, step := range plan.Steps {
		if step.global() {
			summary, err := client.PruneGlobal(ctx, prunekit.GlobalRequest{
				Parameters: step.Parameters,
				Amount:     step.Amount,
				Absolute:   step.Absolute,
			})
			if err != nil {
				return fmt.Errorf("plan step %d: %w", i+1, err)
			}
			fmt.Printf("step %d: pruned %d entries globally\n", i+1, summary.Pruned)
			continue
		}

		summary, err := client.Prune(ctx, prunekit.PruneRequest{
			Parameter: step.Parameter,
			Method:    step.Method,
			Amount:    step.Amount,
			Absolute:  step.Absolute,
			Axis:      step.Axis,
			Norm:      step.Norm,
			Seed:      step.Seed,
		})
		if err != nil {
			return fmt.Errorf("plan step %d: %w", i+1, err)
		}
		fmt.Printf("step %d: pruned %d entries of %s\n", i+1, summary.NewlyPruned, summary.Parameter)
	}
	return nil
}

func runSparsity(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sparsity", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	save := fs.String("save", "", "persist the report under this id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	report, err := client.Sparsity(ctx, *save)
	if err != nil {
		return err
	}
	for _, p := range report.Parameters {
		fmt.Printf("sparsity in %s: %.2f%% (%d/%d)\n", p.Name, 100*p.Sparsity, p.Zeros, p.Total)
	}
	fmt.Printf("global sparsity: %.2f%% (%d/%d)\n", 100*report.Global, report.Zeros, report.Total)
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	param := fs.String("param", "", "parameter name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *param == "" {
		return usageError("history requires -param")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.History(ctx, *param)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Printf("%s has no pruning history\n", *param)
		return nil
	}
	for i, step := range history {
		fmt.Printf("%d: method=%s amount=%g fractional=%v pruned=%d\n",
			i+1, step.Method, step.Amount, step.Fractional, step.NewlyPruned)
	}
	return nil
}

func runFinalize(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("finalize", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	param := fs.String("param", "", "parameter name")
	all := fs.Bool("all", false, "finalize every pruned parameter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *param == "" && !*all {
		return usageError("finalize requires -param or -all")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if *all {
		if err := client.FinalizeAll(ctx); err != nil {
			return err
		}
		fmt.Println("finalized all pruned parameters")
		return nil
	}
	if err := client.Finalize(ctx, *param); err != nil {
		return err
	}
	fmt.Printf("finalized %s\n", *param)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	out := fs.String("out", "", "output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	states, err := client.Export(ctx)
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return err
	}
	if *out == "" {
		fmt.Println(string(payload))
		return nil
	}
	if err := os.WriteFile(*out, payload, 0o644); err != nil {
		return err
	}
	fmt.Printf("exported %d parameters to %s\n", len(states), *out)
	return nil
}

func runMethods(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("methods", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	for _, name := range client.Methods() {
		fmt.Println(name)
	}
	return nil
}

func splitNames(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}
