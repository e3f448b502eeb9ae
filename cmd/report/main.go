// Command report runs one forecast pass and writes per-scenario
// cash-flow reports in Markdown and CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"finance-dashboard/internal/bootstrap"
	"finance-dashboard/internal/config"
	"finance-dashboard/internal/logging"
	"finance-dashboard/internal/metrics"
	"finance-dashboard/internal/observability"
	"finance-dashboard/internal/orchestrator"
	"finance-dashboard/internal/reporting"
)

func main() {
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	skipRun := flag.Bool("skip-run", false, "Report on stored snapshots without running a forecast first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()

	stores, cleanup, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening stores: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	scenarios, _ := cfg.ScenarioConfigs()

	if !*skipRun {
		orch := orchestrator.New(orchestrator.Options{
			AccountStore:    stores.Accounts,
			FlowStore:       stores.Flows,
			ProjectionStore: stores.Projections,
			SnapshotStore:   stores.Snapshots,
			Rates:           bootstrap.NewRates(cfg, log, observability.DefaultMetrics),
			BaseCurrency:    cfg.Rates.Base,
			Engine:          metrics.NewEngine(cfg.MetricsThresholds()),
			ScenarioConfigs: scenarios,
			HorizonDays:     cfg.Forecast.HorizonDays,
			Logger:          log,
		})
		result, err := orch.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running forecast: %v\n", err)
			os.Exit(1)
		}
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", e)
		}
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	gen := reporting.NewGenerator(stores.Accounts, stores.Projections, stores.Snapshots)
	for i, sc := range scenarios {
		report, err := gen.Generate(ctx, sc.ScenarioID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s report: %v\n", sc.ScenarioID, err)
			os.Exit(1)
		}

		// Primary scenario keeps the plain name
		name := "cashflow_report"
		if i > 0 {
			name += "_" + sc.ScenarioID
		}
		base := filepath.Join(*outputDir, name)
		if err := os.WriteFile(base+".md", []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing markdown: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(base+".csv", []byte(reporting.RenderCSV(report)), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing csv: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Generated %s.md (%d accounts, %d high risk)\n",
			base, report.Summary.Accounts, report.Summary.HighRisk)
	}
}
