package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodysim/internal/config"
)

var (
	dataDir  string
	logLevel string
	logger   *log.Logger

	configFile  string
	useConfig   bool
	preset      string
	endTime     float64
	dt          float64
	scaleFactor float64
	rate        float64
	integrator  string
	printEndPos bool
	checkEndPos bool

	record    bool
	every     int
	statePath string
	saveState string
	live      bool

	addr  string
	fps   int
	theme string

	span      float64
	bodyIndex int
	axis      string
	svgPath   string
	svgSize   int
)

// main registers the commands and exits with status 1 when one fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "nbodysim",
		Short:         "gravitational n-body simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".nbodysim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&printEndPos, "endPos", false, "print end positions")
	runCmd.Flags().BoolVar(&checkEndPos, "checkEndPos", false, "compare end positions with the config references")
	runCmd.Flags().BoolVar(&record, "record", false, "record the trajectory under --data")
	runCmd.Flags().IntVar(&every, "every", 10, "record every n-th step")
	runCmd.Flags().StringVar(&saveState, "save-state", "", "write a checkpoint when the run ends")
	runCmd.Flags().BoolVar(&live, "live", false, "show the terminal view")
	runCmd.Flags().IntVar(&fps, "fps", 30, "frame rate for the terminal view")
	runCmd.Flags().StringVar(&theme, "theme", "space", "terminal view theme (space, retro, minimal)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with the terminal view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			live = true
			return runSimulation(cmd, args)
		},
	}
	scenarioFlags(liveCmd)
	liveCmd.Flags().BoolVar(&printEndPos, "endPos", false, "print end positions")
	liveCmd.Flags().BoolVar(&checkEndPos, "checkEndPos", false, "compare end positions with the config references")
	liveCmd.Flags().StringVar(&saveState, "save-state", "", "write a checkpoint when the view closes")
	liveCmd.Flags().IntVar(&fps, "fps", 30, "frame rate")
	liveCmd.Flags().StringVar(&theme, "theme", "space", "theme (space, retro, minimal)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream the simulation over websocket",
		Args:  cobra.NoArgs,
		RunE:  serveSimulation,
	}
	scenarioFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&every, "every", 10, "broadcast every n-th step")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integrators on the same scenario",
		RunE:  compareIntegrators,
	}
	scenarioFlags(compareCmd)

	convergeCmd := &cobra.Command{
		Use:   "converge [integrator...]",
		Short: "measure the observed convergence order",
		RunE:  convergence,
	}
	scenarioFlags(convergeCmd)
	convergeCmd.Flags().Float64Var(&span, "span", 60, "integration span in days")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.NoArgs,
		RunE:  lyapunov,
	}
	scenarioFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&span, "span", 3650, "integration span in days")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one body coordinate of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&bodyIndex, "body", 1, "body index")
	plotCmd.Flags().StringVar(&axis, "axis", "x", "coordinate (x, y, z, vx, vy, vz)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&record, "record", false, "record every step under --data")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "count stable runs under random position perturbations",
		Args:  cobra.NoArgs,
		RunE:  monteCarlo,
	}
	scenarioFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-3, "largest position shift per component in AU")
	monteCarloCmd.Flags().Float64Var(&escape, "escape", 50, "escape radius from the centre of mass in AU")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [integrator...]",
		Short: "grid search integrator and dt for the cheapest run within a drift tolerance",
		RunE:  sweep,
	}
	scenarioFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&dtList, "dts", "0.01,0.05,0.1,0.5,1", "comma separated timesteps")
	sweepCmd.Flags().Float64Var(&tolerance, "tol", 1e-6, "largest acceptable relative energy drift")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the recorded orbits as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgPath, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 800, "image size in pixels")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, compareCmd, convergeCmd, lyapunovCmd,
		batchCmd, monteCarloCmd, sweepCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		if logger == nil {
			logger = log.Default()
		}
		logger.Error(err)
		os.Exit(1)
	}
}

// scenarioFlags registers the flags that choose bodies and simulation settings.
func scenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "configfile", "config.json", "path to the config")
	f.BoolVar(&useConfig, "useconfig", true, "take dt, scale, time and integrator from the config")
	f.StringVar(&preset, "preset", "", "use a built-in preset instead of --configfile")
	f.Float64VarP(&endTime, "time", "t", config.DefaultTime, "end time in days (0 runs until interrupted)")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep in days")
	f.Float64Var(&scaleFactor, "scale", config.DefaultScaleFactor, "visual radius scale factor")
	f.Float64Var(&rate, "rate", 10000, "steps per second limit")
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (euler, verlet, rk4)")
	f.StringVar(&statePath, "state", "", "resume from a checkpoint")
}

func setupLogger() error {
	level, err := log.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "nbodysim",
	})
	return nil
}
