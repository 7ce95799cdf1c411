package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodysim/internal/checkpoint"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/sim"
	"github.com/san-kum/nbodysim/internal/storage"
	"github.com/san-kum/nbodysim/internal/stream"
	"github.com/san-kum/nbodysim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	cfg := sc.cfg
	// Headless runs are paced only when asked to.
	if !live && cmd.Flags().Changed("rate") {
		cfg.Rate = rate
	}
	s, err := sc.simulator(cfg)
	if err != nil {
		return err
	}

	recorder := metrics.NewRecorder(sc.set, metrics.Standard()...)
	s.AddObserver(recorder)

	var run *storage.Run
	if record {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		run, err = st.Create(storage.RunMetadata{
			Source:     sc.source,
			Dt:         cfg.Dt,
			EndTime:    cfg.EndTime,
			Integrator: cfg.Integrator.String(),
			Every:      every,
		}, sc.set)
		if err != nil {
			return err
		}
		s.AddObserver(run)
	}

	var result *sim.Result
	if live {
		result, err = runLive(s, sc)
	} else {
		result, err = runHeadless(s)
	}

	if run != nil {
		if cerr := run.Close(result, recorder.Values()); cerr != nil {
			logger.Error("failed to close recording", "err", cerr)
		} else {
			logger.Info("run recorded", "id", run.ID())
		}
	}

	if saveState != "" && result != nil {
		snap := checkpoint.Capture(sc.set, s.Time(), sc.startSteps+s.Steps(), cfg.Dt, cfg.EndTime, s.Kind())
		if serr := checkpoint.Save(saveState, snap); serr != nil {
			logger.Error("failed to save checkpoint", "path", saveState, "err", serr)
		} else {
			logger.Info("checkpoint saved", "path", saveState, "time", s.Time())
		}
	}

	if err != nil {
		return err
	}

	printReport(s, result, recorder)
	return nil
}

// runHeadless runs until the end time or until interrupted. An interrupt is
// a normal way to stop an infinite run.
func runHeadless(s *sim.Simulator) (*sim.Result, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if s.Config().Infinite() {
		logger.Info("running until interrupted", "integrator", s.Kind(), "dt", s.Config().Dt)
	} else {
		logger.Info("running", "integrator", s.Kind(), "dt", s.Config().Dt, "end", s.Config().EndTime)
	}

	result, err := s.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("interrupted", "time", s.Time())
		err = nil
	}
	return result, err
}

func runLive(s *sim.Simulator, sc *scenario) (*sim.Result, error) {
	e0 := s.Energy()
	start := time.Now()
	startSteps := s.Steps()

	final, err := viz.Run(s, viz.Options{
		Rate:        rate,
		FPS:         fps,
		ScaleFactor: sc.settings.ScaleFactor,
		Theme:       theme,
	})
	if err != nil {
		return nil, err
	}

	result := &sim.Result{
		Steps:         s.Steps() - startSteps,
		Time:          s.Time(),
		InitialEnergy: e0,
		FinalEnergy:   s.Energy(),
		Elapsed:       time.Since(start),
	}
	if e0 != 0 {
		result.EnergyDrift = math.Abs(result.FinalEnergy-e0) / math.Abs(e0)
	}
	return result, final.Err()
}

func serveSimulation(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	cfg := sc.cfg
	cfg.Rate = rate
	s, err := sc.simulator(cfg)
	if err != nil {
		return err
	}

	hub := stream.NewHub(sc.set, stream.WithEvery(every), stream.WithLogger(logger))
	s.AddObserver(hub)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	server := &http.Server{Addr: addr, Handler: mux}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()
	logger.Info("streaming", "addr", addr, "path", "/ws", "rate", rate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runDone := make(chan error, 1)
	var result *sim.Result
	go func() {
		var err error
		result, err = s.Run(ctx)
		runDone <- err
	}()

	select {
	case err = <-runDone:
	case err = <-serveErr:
		stop()
		<-runDone
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("shutdown", "err", serr)
	}

	if err != nil {
		return err
	}
	if result != nil {
		logger.Info("finished", "steps", result.Steps, "time", result.Time, "drift", result.EnergyDrift)
	}
	return nil
}

func printReport(s *sim.Simulator, result *sim.Result, recorder *metrics.Recorder) {
	fmt.Printf("completed in %v\n", result.Elapsed.Round(time.Millisecond))
	fmt.Printf("steps: %d\n", result.Steps)
	fmt.Printf("time: %.2f days (%.2f years)\n", result.Time, result.Time/365.25)
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)

	values := recorder.Values()
	fmt.Println("\nmetrics:")
	for _, name := range recorder.Names() {
		fmt.Printf("  %s: %.6e\n", name, values[name])
	}

	set := s.Set()
	if printEndPos {
		fmt.Println()
		for i := 0; i < set.Len(); i++ {
			b := set.At(i)
			fmt.Printf("%s: <%g, %g, %g>\n", b.Name, b.Position[0], b.Position[1], b.Position[2])
		}
	}

	if checkEndPos {
		report := sim.CheckEndPositions(set)
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, e := range report.Bodies {
			if e.Missing {
				fmt.Fprintf(w, "%s:\tno end_position\n", e.Name)
				continue
			}
			fmt.Fprintf(w, "%s:\t%g AU\n", e.Name, e.Error)
		}
		w.Flush()
		fmt.Printf("Total error: %g\n", report.Total)
		fmt.Printf("dt: %g\n", s.Config().Dt)
		fmt.Printf("Integrator: %s\n", s.Kind())
	}
}
