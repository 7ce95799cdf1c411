package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodysim/internal/export"
	"github.com/san-kum/nbodysim/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tBODIES\tDT\tINTEG\tSIM DAYS\tFRAMES\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%s\t%.2f\t%d\t%.2e\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Bodies),
			run.Dt,
			run.Integrator,
			run.SimTime,
			run.Frames,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

var axes = map[string]func(s storage.Sample) float64{
	"x":  func(s storage.Sample) float64 { return s.Position[0] },
	"y":  func(s storage.Sample) float64 { return s.Position[1] },
	"z":  func(s storage.Sample) float64 { return s.Position[2] },
	"vx": func(s storage.Sample) float64 { return s.Velocity[0] },
	"vy": func(s storage.Sample) float64 { return s.Velocity[1] },
	"vz": func(s storage.Sample) float64 { return s.Velocity[2] },
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	pick, ok := axes[strings.ToLower(axis)]
	if !ok {
		return fmt.Errorf("unknown axis %q (options: x, y, z, vx, vy, vz)", axis)
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if bodyIndex < 0 || bodyIndex >= len(meta.Bodies) {
		return fmt.Errorf("body index %d out of range (run has %d bodies)", bodyIndex, len(meta.Bodies))
	}

	samples, err := st.LoadTrajectory(runID, bodyIndex)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("integrator: %s, dt: %g\n", meta.Integrator, meta.Dt)
	fmt.Printf("samples: %d (t = %.2f .. %.2f days)\n\n", len(samples), samples[0].Time, samples[len(samples)-1].Time)

	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = pick(s)
	}

	unit := "AU"
	if strings.HasPrefix(axis, "v") {
		unit = "AU/day"
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s %s (%s) vs time", meta.Bodies[bodyIndex], axis, unit)),
	)
	fmt.Println(graph)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportCSV(args[0], os.Stdout)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(args[0], os.Stdout)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	tracks := make([]export.Track, len(meta.Bodies))
	for i, name := range meta.Bodies {
		samples, err := st.LoadTrajectory(runID, i)
		if err != nil {
			return err
		}
		tracks[i] = export.Track{Name: name, Points: make([][2]float64, len(samples))}
		if i < len(meta.Colors) {
			tracks[i].Color = meta.Colors[i]
		}
		for j, s := range samples {
			tracks[i].Points[j] = [2]float64{s.Position[0], s.Position[1]}
		}
	}

	out := os.Stdout
	if svgPath != "" {
		f, err := os.Create(svgPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return export.Orbits(out, tracks, svgSize)
}
