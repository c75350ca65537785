/*
 * main.go, part of gomfi.
 *
 * Copyright 2024 The gomfi Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// gomfi computes free energy surfaces from 2D metadynamics simulations by Mean Force Integration.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/guptarohit/asciigraph"
	mfi "github.com/rmera/gomfi"
	"github.com/rmera/gomfi/archive"
	"github.com/rmera/gomfi/config"
	"github.com/rmera/gomfi/fes"
	"github.com/rmera/gomfi/mfiplot"
	"github.com/rmera/gomfi/plumed"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/mat"
)

// app holds the state shared by the commands.
type app struct {
	cfgFile string
	verbose bool
	noPlot  bool
	hills   string
	colvar  string
	output  string
	method  string

	cfg *config.Config
	log *zap.Logger
	out io.Writer
}

func main() {
	a := &app{out: os.Stdout}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := a.rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gomfi",
		Short: "Mean Force Integration of 2D metadynamics simulations",
		Long: `gomfi reconstructs the free energy surface of a metadynamics simulation
with 2 collective variables, from its HILLS file and the sampled CV positions,
by integrating the mean force estimated on a grid.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.log == nil {
				zc := zap.NewProductionConfig()
				if a.verbose {
					zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
				}
				var err error
				a.log, err = zc.Build()
				if err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
			}
			return a.loadConfig(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "configuration file (yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&a.noPlot, "no-plot", false, "do not write PNG figures")
	pf.StringVarP(&a.output, "output", "o", config.DefaultOutput, "output directory")
	pf.StringVarP(&a.method, "method", "m", config.DefaultMethod, "integration method: fft, cumsum or sparse")

	run := &cobra.Command{
		Use:   "run",
		Short: "analyse a single simulation",
		Args:  cobra.NoArgs,
		RunE:  a.runSingle,
	}
	run.Flags().StringVar(&a.hills, "hills", config.DefaultHills, "HILLS file")
	run.Flags().StringVar(&a.colvar, "colvar", config.DefaultColvar, "COLVAR file with the CV positions")

	walkers := &cobra.Command{
		Use:   "walkers",
		Short: "analyse the walkers of the configuration and patch them",
		Args:  cobra.NoArgs,
		RunE:  a.runWalkers,
	}

	patch := &cobra.Command{
		Use:   "patch [record files]",
		Short: "patch records saved by previous runs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runPatch,
	}

	integrate := &cobra.Command{
		Use:   "integrate [result file]",
		Short: "integrate the mean force of a saved result",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runIntegrate,
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], a.cfg)
		},
	}

	root.AddCommand(run, walkers, patch, integrate, initCmd)
	return root
}

// loadConfig reads the configuration file, if any, and applies the flags that were set on top.
func (a *app) loadConfig(cmd *cobra.Command) error {
	var err error
	if a.cfgFile != "" {
		if a.cfg, err = config.Load(a.cfgFile); err != nil {
			return err
		}
	} else {
		a.cfg = config.DefaultConfig()
	}
	flags := cmd.Flags()
	if flags.Changed("hills") {
		a.cfg.Hills = a.hills
	}
	if flags.Changed("colvar") {
		a.cfg.Colvar = a.colvar
	}
	if flags.Changed("output") {
		a.cfg.Output = a.output
	}
	if flags.Changed("method") {
		a.cfg.FES.Method = a.method
	}
	return a.cfg.Validate()
}

func (a *app) options() *mfi.Options {
	O := a.cfg.Options()
	O.Observer = mfi.LogObserver{L: a.log}
	return O
}

func (a *app) readWalker(name, hills, colvar string) (*mfi.Walker, error) {
	H, err := plumed.ReadHills(hills)
	if err != nil {
		return nil, err
	}
	w := &mfi.Walker{Name: name, Hills: H}
	if f := a.cfg.ColvarFields; len(f) == 2 {
		w.CVX, w.CVY, err = plumed.ReadColvarFields(colvar, f[0], f[1])
	} else {
		w.CVX, w.CVY, err = plumed.ReadColvar(colvar)
	}
	if err != nil {
		return nil, err
	}
	a.log.Debug("walker loaded", zap.String("walker", name), zap.String("hills", hills),
		zap.Int("samples", len(w.CVX)))
	return w, nil
}

func (a *app) runSingle(cmd *cobra.Command, args []string) error {
	g, err := a.cfg.NewGrid()
	if err != nil {
		return err
	}
	w, err := a.readWalker(a.cfg.Name, a.cfg.Hills, a.cfg.Colvar)
	if err != nil {
		return err
	}
	A, err := mfi.NewAccumulator(g, w.Hills, w.CVX, w.CVY, a.options())
	if err != nil {
		return err
	}
	R, err := A.RunContext(cmd.Context())
	if err != nil {
		return err
	}
	a.log.Info("mean force integration done", zap.String("run", a.cfg.Name), zap.Int("hills", A.Total()),
		zap.Float64("mean_force_error", mfi.GridMean(R.Error)))
	return a.finish(g, R, a.cfg.Name, A.HistoryHills())
}

func (a *app) runWalkers(cmd *cobra.Command, args []string) error {
	if len(a.cfg.Walkers) == 0 {
		return fmt.Errorf("no walkers in the configuration")
	}
	g, err := a.cfg.NewGrid()
	if err != nil {
		return err
	}
	walkers := make([]*mfi.Walker, len(a.cfg.Walkers))
	for i, v := range a.cfg.Walkers {
		name := v.Name
		if name == "" {
			name = fmt.Sprintf("walker%d", i)
		}
		if walkers[i], err = a.readWalker(name, v.Hills, v.Colvar); err != nil {
			return err
		}
	}
	results, err := mfi.RunWalkers(cmd.Context(), g, walkers, a.options())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.cfg.Output, 0755); err != nil {
		return err
	}
	for i, R := range results {
		name := filepath.Join(a.cfg.Output, walkers[i].Name+".rec.zst")
		if err := archive.WriteRecord(name, R.Record()); err != nil {
			return err
		}
	}
	rec, errfield, err := mfi.PatchResults(results)
	if err != nil {
		return err
	}
	return a.finish(g, patched(g, rec, errfield), a.cfg.Name+"_patched", nil)
}

func (a *app) runPatch(cmd *cobra.Command, args []string) error {
	g, err := a.cfg.NewGrid()
	if err != nil {
		return err
	}
	records := make([]*mfi.Record, len(args))
	full := true
	for i, name := range args {
		if records[i], err = archive.ReadRecord(name); err != nil {
			return err
		}
		full = full && records[i].Density2 != nil && records[i].OfvX != nil && records[i].OfvY != nil
	}
	var rec *mfi.Record
	var errfield *mat.Dense
	if full {
		rec, errfield, err = mfi.PatchWithError(records)
	} else {
		a.log.Warn("some records lack the error terms, the patched error is not computed")
		rec, err = mfi.Patch(records)
	}
	if err != nil {
		return err
	}
	if err := g.Check(rec.Density); err != nil {
		return fmt.Errorf("records do not fit the configured grid: %w", err)
	}
	return a.finish(g, patched(g, rec, errfield), a.cfg.Name+"_patched", nil)
}

func (a *app) runIntegrate(cmd *cobra.Command, args []string) error {
	g, err := a.cfg.NewGrid()
	if err != nil {
		return err
	}
	R, err := archive.ReadResult(args[0])
	if err != nil {
		return err
	}
	if err := g.Check(R.ForceX); err != nil {
		return fmt.Errorf("result does not fit the configured grid: %w", err)
	}
	if R.X == nil || R.Y == nil {
		R.X, R.Y = g.Mesh()
	}
	return a.finish(g, R, a.cfg.Name, nil)
}

// patched builds a result from a patched record. errfield can be nil.
func patched(g *mfi.Grid, rec *mfi.Record, errfield *mat.Dense) *mfi.Result {
	X, Y := g.Mesh()
	if errfield == nil {
		errfield = g.Zeros()
	}
	return &mfi.Result{
		X: X, Y: Y,
		Density:  rec.Density,
		ForceX:   rec.ForceX,
		ForceY:   rec.ForceY,
		Error:    errfield,
		Density2: rec.Density2,
		OfvX:     rec.OfvX,
		OfvY:     rec.OfvY,
	}
}

// finish integrates the mean force of R and writes the outputs under the name given.
func (a *app) finish(g *mfi.Grid, R *mfi.Result, name string, checkpoints []int) error {
	m, err := a.cfg.Method()
	if err != nil {
		return err
	}
	SO := a.cfg.SparseOptions()
	SO.Log = a.log
	F, err := fes.Integrate(m, R.ForceX, R.ForceY, g, SO)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.cfg.Output, 0755); err != nil {
		return err
	}
	base := filepath.Join(a.cfg.Output, name)
	if err := archive.WriteResult(base+".mfi.zst", R); err != nil {
		return err
	}
	if err := archive.WriteCSVFile(base+".csv", R, F); err != nil {
		return err
	}
	if !a.noPlot {
		if len(R.History) > 0 {
			err = mfiplot.Recap(base+".png", g, R, F, checkpoints)
		} else {
			err = mfiplot.Surface(base+".png", g, F, "Free energy surface")
		}
		if err != nil {
			return err
		}
	}
	a.log.Info("outputs written", zap.String("base", base), zap.Stringer("method", m),
		zap.Float64("fes_max", mat.Max(F)))
	if len(R.History) > 1 {
		fmt.Fprintln(a.out, asciigraph.Plot(R.History,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("mean force error")))
	}
	return nil
}
