package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodysim/internal/automation"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/optim"
	"github.com/san-kum/nbodysim/internal/storage"
)

var (
	trials       int
	perturbation float64
	escape       float64
	seed         int64
	dtList       string
	tolerance    float64
)

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	var st *storage.Store
	if record {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if sc.Name != "" {
		fmt.Printf("scenario: %s\n", sc.Name)
	}
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	results, err := automation.RunScenario(ctx, sc, st, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSTEP\tSOURCE\tINTEG\tSTEPS\tSIM DAYS\tDRIFT\tRUN")
	for _, r := range results {
		runID := r.RunID
		if runID == "" {
			runID = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.2f\t%.3e\t%s\n",
			r.Index+1, r.Source, r.Kind, r.Result.Steps, r.Result.Time, r.Metrics["energy_drift"], runID)
	}
	w.Flush()
	return err
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if sc.cfg.Infinite() {
		return fmt.Errorf("montecarlo needs an end time (set --time or the config time)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunMonteCarlo(ctx, sc.set, &automation.MonteCarloConfig{
		Integrator:   sc.cfg.Integrator,
		Dt:           sc.cfg.Dt,
		Duration:     sc.cfg.EndTime,
		Perturbation: perturbation,
		NumTrials:    trials,
		Seed:         seed,
		EscapeRadius: escape,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("monte carlo on %s: %d trials, perturbation %g AU, escape radius %g AU\n\n",
		sc.source, len(results), perturbation, escape)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSTABLE\tMAX RADIUS (AU)\tDRIFT\tNOTE")
	for _, r := range results {
		note := ""
		switch {
		case r.Escaped != "":
			note = r.Escaped + " escaped"
		case r.Err != nil:
			note = r.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%v\t%.4f\t%.3e\t%s\n", r.TrialID, r.Stable, r.MaxRadius, r.EnergyDrift, note)
	}
	w.Flush()
	fmt.Printf("\nstable: %d, unstable: %d\n", stable, unstable)
	return nil
}

func parseDts(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil || !(v > 0) {
			return nil, fmt.Errorf("invalid dt %q in --dts", f)
		}
		out = append(out, v)
	}
	return out, nil
}

func sweep(cmd *cobra.Command, args []string) error {
	ks, err := kinds(args)
	if err != nil {
		return err
	}
	dts, err := parseDts(dtList)
	if err != nil {
		return err
	}
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if sc.cfg.Infinite() {
		return fmt.Errorf("sweep needs an end time (set --time or the config time)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	points, err := optim.NewGridSearch(ks, dts).Search(ctx, sc.set, sc.cfg.EndTime, func() metrics.Metric {
		return metrics.NewEnergyDrift()
	})
	if err != nil {
		return err
	}

	fmt.Printf("energy drift over %g days on %s\n\n", sc.cfg.EndTime, sc.source)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tDT\tSTEPS\tDRIFT\tTIME")
	for _, p := range points {
		score := fmt.Sprintf("%.3e", p.Score)
		if p.Err != nil {
			score = "diverged"
		}
		fmt.Fprintf(w, "%s\t%g\t%d\t%s\t%v\n", p.Kind, p.Dt, p.Steps, score, p.Elapsed.Round(time.Millisecond))
	}
	w.Flush()

	best, err := optim.Cheapest(points, tolerance)
	if err != nil {
		fmt.Printf("\nno setting keeps drift below %g\n", tolerance)
		return nil
	}
	fmt.Printf("\ncheapest within %g: %s at dt=%g (%d steps, drift %.3e)\n", tolerance, best.Kind, best.Dt, best.Steps, best.Score)
	return nil
}
