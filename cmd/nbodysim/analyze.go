package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodysim/internal/analysis"
)

func compareIntegrators(cmd *cobra.Command, args []string) error {
	ks, err := kinds(args)
	if err != nil {
		return err
	}
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if sc.cfg.Infinite() {
		return fmt.Errorf("compare needs an end time (set --time or the config time)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := analysis.Compare(ctx, sc.set, ks, sc.cfg)
	if err != nil {
		return err
	}

	fmt.Printf("comparing integrators on %s (dt=%g, time=%g days)\n\n", sc.source, sc.cfg.Dt, sc.cfg.EndTime)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tENERGY DRIFT\tENERGY STDDEV\tMOMENTUM DRIFT\tREF ERROR (AU)\tEND ERROR (AU)\tTIME")
	for _, r := range results {
		endErr := "-"
		if !math.IsNaN(r.EndError) {
			endErr = fmt.Sprintf("%.3e", r.EndError)
		}
		fmt.Fprintf(w, "%s\t%d\t%.3e\t%.3e\t%.3e\t%.3e\t%s\t%v\n",
			r.Kind, r.Steps, r.EnergyDrift, r.EnergyStdDev, r.MomentumDrift, r.RefError, endErr, r.Elapsed.Round(time.Millisecond))
	}
	return w.Flush()
}

func convergence(cmd *cobra.Command, args []string) error {
	ks, err := kinds(args)
	if err != nil {
		return err
	}
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("convergence on %s (dt=%g, span=%g days, reference rk4 at dt/%d)\n\n",
		sc.source, sc.cfg.Dt, span, analysis.ReferenceRefinement)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tERR(dt)\tERR(dt/2)\tRATIO\tORDER")
	for _, k := range ks {
		res, err := analysis.Convergence(ctx, sc.set, k, sc.cfg.Dt, span)
		if err != nil {
			w.Flush()
			return fmt.Errorf("%s: %w", k, err)
		}
		fmt.Fprintf(w, "%s\t%.3e\t%.3e\t%.2f\t%.2f\n", k, res.ErrCoarse, res.ErrFine, res.Ratio, res.Order)
	}
	return w.Flush()
}

func lyapunov(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	lambda, err := analysis.LyapunovExponent(ctx, sc.set, sc.cfg.Integrator, sc.cfg.Dt, span, 1e-8, 10)
	if err != nil {
		return err
	}

	fmt.Printf("largest lyapunov exponent: %.4e /day\n", lambda)
	if lambda > 0 {
		fmt.Printf("e-folding time: %.1f days\n", 1/lambda)
	}
	return nil
}
