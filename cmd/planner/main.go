// Command planner produces orders for one scenario snapshot, or for a batch
// of synthetic scenarios, without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexcommand/internal/config"
	"github.com/freeeve/hexcommand/internal/logger"
	"github.com/freeeve/hexcommand/internal/model"
	"github.com/freeeve/hexcommand/internal/repository"
	"github.com/freeeve/hexcommand/internal/repository/sqlite"
	"github.com/freeeve/hexcommand/internal/service"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run is main without the exit, so deferred cleanup happens on every path.
func run(args []string, stdout io.Writer) int {
	var (
		scenarioPath string
		synthetic    bool
		seed         int64
		width        int
		height       int
		corps        int
		brigades     int
		strategy     string
		friendly     string
		tuningPath   string
		sqlitePath   string
		indent       bool
		runs         int
		workers      int
		jsonOut      bool
		debug        bool
	)

	fs := flag.NewFlagSet("planner", flag.ContinueOnError)
	fs.StringVar(&scenarioPath, "scenario", "", "Scenario file (.json, .yaml or .yml)")
	fs.BoolVar(&synthetic, "synthetic", false, "Plan on a generated scenario instead of a file")
	fs.Int64Var(&seed, "seed", 1, "Synthetic map seed (batch runs use seed, seed+1, ...)")
	fs.IntVar(&width, "width", 40, "Synthetic map width")
	fs.IntVar(&height, "height", 30, "Synthetic map height")
	fs.IntVar(&corps, "corps", 2, "Synthetic corps per side")
	fs.IntVar(&brigades, "brigades", 3, "Synthetic brigades per corps")
	fs.StringVar(&strategy, "strategy", service.DefaultStrategy, "Strategy name")
	fs.StringVar(&friendly, "friendly", "union", "Comma-separated friendly countries")
	fs.StringVar(&tuningPath, "tuning", "", "Tuning YAML file")
	fs.StringVar(&sqlitePath, "sqlite", "", "Record runs and orders in this SQLite file")
	fs.BoolVar(&indent, "indent", false, "Indent JSON orders")
	fs.IntVar(&runs, "n", 1, "Number of synthetic scenarios to plan (batch mode when > 1)")
	fs.IntVar(&workers, "workers", 1, "Concurrency for batch mode")
	fs.BoolVar(&jsonOut, "json", false, "Print the batch summary as JSON")
	fs.BoolVar(&debug, "debug", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := "info"
	if debug {
		level = "debug"
	}
	logger.Init(logger.Options{Level: level, Out: os.Stderr})

	params, err := config.LoadParams(tuningPath)
	if err != nil {
		log.Error().Err(err).Msg("Loading tuning failed")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
			log.Info().Msg("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var repo repository.PlanRepository
	var sinks []service.OrderSink
	if sqlitePath != "" {
		store, err := sqlite.Open(sqlitePath)
		if err != nil {
			log.Error().Err(err).Msg("SQLite open failed")
			return 1
		}
		defer store.Close()
		repo = store
		sinks = append(sinks, service.RepoSink{Repo: store})
	}

	if runs > 1 {
		if !synthetic {
			log.Error().Msg("-n > 1 needs -synthetic")
			return 1
		}
		svc := service.NewPlanService(repo, nil, service.NewGraphCache(nil, params, workers), params, parseList(friendly), nil, sinks...)
		results := runBatch(ctx, svc, batchConfig{
			Seed: seed, Runs: runs, Workers: workers,
			Width: width, Height: height, Corps: corps, Brigades: brigades,
			Strategy: strategy,
		})
		if jsonOut {
			printJSON(stdout, results)
		} else {
			printSummary(stdout, strategy, results)
		}
		return 0
	}

	var sc *model.Scenario
	switch {
	case synthetic:
		sc, err = model.Synthetic(seed, width, height, corps, brigades)
	case scenarioPath != "":
		sc, err = model.LoadScenario(scenarioPath)
	default:
		fmt.Fprintln(os.Stderr, "planner: need -scenario or -synthetic")
		fs.Usage()
		return 2
	}
	if err != nil {
		log.Error().Err(err).Msg("Loading scenario failed")
		return 1
	}

	sinks = append(sinks, &service.WriterSink{W: stdout, Indent: indent})
	svc := service.NewPlanService(repo, nil, service.NewGraphCache(nil, params, 1), params, parseList(friendly), nil, sinks...)
	res, err := svc.Plan(ctx, service.PlanRequest{Scenario: sc, Strategy: strategy})
	if err != nil {
		log.Error().Err(err).Msg("Planning failed")
		return 1
	}
	log.Info().Str("runId", res.Run.ID).Int("orders", res.Run.OrderCount).Msg("Done")
	return 0
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type batchConfig struct {
	Seed                           int64
	Runs, Workers                  int
	Width, Height, Corps, Brigades int
	Strategy                       string
}

// BatchResult is one synthetic scenario's outcome.
type BatchResult struct {
	Seed      int64         `json:"seed"`
	Orders    int           `json:"orders"`
	Sweeps    int           `json:"sweeps,omitempty"`
	Converged bool          `json:"converged"`
	Took      time.Duration `json:"took_ns"`
	Error     string        `json:"error,omitempty"`
}

// runBatch plans cfg.Runs synthetic scenarios with at most cfg.Workers in
// flight. Results are in seed order.
func runBatch(ctx context.Context, svc *service.PlanService, cfg batchConfig) []BatchResult {
	results := make([]BatchResult, cfg.Runs)
	var wg sync.WaitGroup
	sem := make(chan struct{}, max(cfg.Workers, 1))

	for i := range cfg.Runs {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			r := &results[idx]
			r.Seed = cfg.Seed + int64(idx)
			start := time.Now()
			sc, err := model.Synthetic(r.Seed, cfg.Width, cfg.Height, cfg.Corps, cfg.Brigades)
			if err == nil {
				var res *service.PlanResult
				res, err = svc.Plan(ctx, service.PlanRequest{Scenario: sc, Strategy: cfg.Strategy})
				if err == nil {
					r.Orders, r.Sweeps, r.Converged = res.Run.OrderCount, res.Run.Sweeps, res.Run.Converged
				}
			}
			r.Took = time.Since(start)
			if err != nil {
				r.Error = err.Error()
				log.Error().Err(err).Int64("seed", r.Seed).Msg("Run failed")
				return
			}
			log.Debug().Int64("seed", r.Seed).Int("orders", r.Orders).Dur("took", r.Took).Msg("Run completed")
		}(i)
	}

	wg.Wait()
	return results
}

type batchSummary struct {
	Completed int
	Failed    int
	Converged int
	Orders    int
	Took      time.Duration
}

func summarize(results []BatchResult) batchSummary {
	var s batchSummary
	for _, r := range results {
		if r.Error != "" {
			s.Failed++
			continue
		}
		s.Completed++
		s.Orders += r.Orders
		s.Took += r.Took
		if r.Converged {
			s.Converged++
		}
	}
	return s
}

func printSummary(w io.Writer, strategy string, results []BatchResult) {
	s := summarize(results)
	fmt.Fprintf(w, "\nResults (%d runs, strategy %s):\n", len(results), strategy)
	if s.Failed > 0 {
		fmt.Fprintf(w, "  (%d runs failed)\n", s.Failed)
	}
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(w, "  seed %-6d  error: %s\n", r.Seed, r.Error)
			continue
		}
		fmt.Fprintf(w, "  seed %-6d  %3d orders  %3d sweeps  converged=%-5v  %v\n",
			r.Seed, r.Orders, r.Sweeps, r.Converged, r.Took.Round(time.Millisecond))
	}
	if s.Completed > 0 {
		fmt.Fprintf(w, "\n  avg orders: %.1f  converged: %d/%d  avg time: %v\n",
			float64(s.Orders)/float64(s.Completed), s.Converged, s.Completed,
			(s.Took / time.Duration(s.Completed)).Round(time.Millisecond))
	}
}

func printJSON(w io.Writer, results []BatchResult) {
	s := summarize(results)
	out := struct {
		Total   int           `json:"total"`
		Errors  int           `json:"errors"`
		Results []BatchResult `json:"results"`
	}{
		Total:   len(results),
		Errors:  s.Failed,
		Results: results,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Error().Err(err).Msg("Writing results failed")
	}
}
