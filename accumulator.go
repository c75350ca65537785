/*
 * accumulator.go, part of gomfi.
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

package mfi

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Columns of the hills matrix.
const (
	HillTime = iota
	HillX
	HillY
	HillSigmaX
	HillSigmaY
	HillHeight
	HillGamma //only read from the first hill
	HillColumns
)

// Result contains the output of a Mean Force Integration run.
type Result struct {
	X, Y           *mat.Dense //coordinates of the grid points
	Density        *mat.Dense //total biased probability density
	ForceX, ForceY *mat.Dense //mean force
	Error          *mat.Dense //on-the-fly error of the mean force
	History        []float64  //grid average of the error at each error checkpoint
	//Needed to patch the result with those of other walkers, with error propagation.
	Density2   *mat.Dense
	OfvX, OfvY *mat.Dense
}

// Record returns the patch record of the result. The record shares
// the matrices of the result.
func (R *Result) Record() *Record {
	return &Record{
		Density:  R.Density,
		ForceX:   R.ForceX,
		ForceY:   R.ForceY,
		Density2: R.Density2,
		OfvX:     R.OfvX,
		OfvY:     R.OfvY,
	}
}

// Accumulator replays the hills of a metadynamics simulation, together with the
// sampled CV positions, and accumulates the mean force on a grid.
// An Accumulator is not safe for concurrent use.
type Accumulator struct {
	grid        *Grid
	opts        Options
	hills       *mat.Dense
	cvx, cvy    []float64
	stride      int
	total       int
	gammaFactor float64
	norm        float64
	state       *State
	errSched    Schedule
	logSched    Schedule
	history     []float64
	start       int //hills already in the state when the accumulator was built
	//scratch space, reset for each hill
	pb, fpx, fpy *mat.Dense
	ofe          *mat.Dense
	images       []Point
}

// NewAccumulator returns an Accumulator for the given hills (one row per hill, HillColumns columns)
// and CV positions, on the grid g. The number of positions must be a multiple of the number of hills.
// If O is nil, DefaultOptions are used.
func NewAccumulator(g *Grid, hills *mat.Dense, cvx, cvy []float64, O *Options) (*Accumulator, error) {
	A, err := newAccumulator(g, hills, cvx, cvy, O, nil)
	return A, errDecorate(err, "NewAccumulator")
}

// NewAccumulatorFromState returns an Accumulator that continues the run whose
// running sums are in S. The accumulator uses S itself, not a copy.
func NewAccumulatorFromState(g *Grid, hills *mat.Dense, cvx, cvy []float64, O *Options, S *State) (*Accumulator, error) {
	if S == nil {
		return nil, newError(InvalidInput, "NewAccumulatorFromState", "nil state")
	}
	A, err := newAccumulator(g, hills, cvx, cvy, O, S)
	return A, errDecorate(err, "NewAccumulatorFromState")
}

func newAccumulator(g *Grid, hills *mat.Dense, cvx, cvy []float64, O *Options, S *State) (*Accumulator, error) {
	if O == nil {
		O = DefaultOptions()
	}
	if g == nil || hills == nil {
		return nil, newError(InvalidInput, "newAccumulator", "nil grid or hills")
	}
	if err := O.validate(); err != nil {
		return nil, errDecorate(err, "newAccumulator")
	}
	nh, cols := hills.Dims()
	if cols != HillColumns {
		return nil, newError(ShapeMismatch, "newAccumulator", "hills have %d columns, %d expected", cols, HillColumns)
	}
	if len(cvx) != len(cvy) {
		return nil, newError(ShapeMismatch, "newAccumulator", "%d CV1 positions but %d CV2 positions", len(cvx), len(cvy))
	}
	if len(cvx) == 0 || len(cvx)%nh != 0 {
		return nil, newError(InvalidInput, "newAccumulator", "%d positions is not a positive multiple of %d hills", len(cvx), nh)
	}
	A := &Accumulator{grid: g, opts: *O, hills: hills, cvx: cvx, cvy: cvy}
	if A.opts.Observer == nil {
		A.opts.Observer = NopObserver{}
	}
	A.stride = len(cvx) / nh
	A.total = nh
	if O.NHills > 0 {
		if O.NHills > nh {
			return nil, newError(InvalidInput, "newAccumulator", "%d hills requested, only %d available", O.NHills, nh)
		}
		A.total = O.NHills
	}
	for i := 0; i < A.total; i++ {
		if !(hills.At(i, HillSigmaX) > 0) || !(hills.At(i, HillSigmaY) > 0) {
			return nil, newError(InvalidInput, "newAccumulator", "hill %d has non-positive widths", i)
		}
	}
	A.gammaFactor = 1
	if O.WellTempered {
		gamma := hills.At(0, HillGamma)
		if gamma == 0 || math.IsNaN(gamma) || math.IsInf(gamma, 0) {
			return nil, newError(MissingGamma, "newAccumulator", "well-tempered run requested but the bias factor is %g", gamma)
		}
		A.gammaFactor = (gamma - 1) / gamma
	}
	A.norm = 1 / (O.Bandwidth * math.Sqrt(2*math.Pi) * float64(A.stride))
	logPace := O.LogPace
	if logPace > O.ErrorPace {
		logPace = O.ErrorPace
	}
	A.errSched = NewSchedule(A.total, O.ErrorPace)
	A.logSched = NewSchedule(A.total, logPace)
	if S == nil {
		S = NewState(g)
	} else {
		if err := g.Check(S.fields()...); err != nil {
			return nil, errDecorate(err, "newAccumulator")
		}
		if S.Hills > A.total {
			return nil, newError(InvalidInput, "newAccumulator", "state has %d hills, the run only %d", S.Hills, A.total)
		}
	}
	A.state = S
	A.start = S.Hills
	A.pb, A.fpx, A.fpy = g.Zeros(), g.Zeros(), g.Zeros()
	A.ofe = g.Zeros()
	A.images = make([]Point, 0, 4)
	return A, nil
}

// Grid returns the grid of the accumulator.
func (A *Accumulator) Grid() *Grid { return A.grid }

// Total returns the number of hills the run processes.
func (A *Accumulator) Total() int { return A.total }

// Stride returns the number of position samples per hill.
func (A *Accumulator) Stride() int { return A.stride }

// GammaFactor returns the factor applied to all hill heights.
func (A *Accumulator) GammaFactor() float64 { return A.gammaFactor }

// ErrorSchedule returns the schedule of the error checkpoints. The schedule
// counts from the first hill even for a resumed run. Use HistoryHills to
// get the checkpoints that match the entries of History.
func (A *Accumulator) ErrorSchedule() Schedule { return A.errSched }

// HistoryHills returns the error checkpoints this accumulator goes through, that is,
// those after the hills already in its state when it was built. They are the hills of
// the entries of History, once the run is done.
func (A *Accumulator) HistoryHills() []int { return A.errSched.After(A.start) }

// State returns the running sums of the accumulator (not a copy).
func (A *Accumulator) State() *State { return A.state }

// History returns a copy of the convergence history so far.
func (A *Accumulator) History() []float64 {
	r := make([]float64, len(A.history))
	copy(r, A.history)
	return r
}

// Force returns the current estimate of the mean force.
func (A *Accumulator) Force() (fx, fy *mat.Dense) { return A.state.Force() }

// Error returns the current mean force error field.
func (A *Accumulator) Error() *mat.Dense { return A.state.Error() }

// Done returns true if all the hills of the run have been processed.
func (A *Accumulator) Done() bool { return A.state.Hills >= A.total }

// Step processes the next hill.
func (A *Accumulator) Step() error {
	i := A.state.Hills
	if i >= A.total {
		return newError(InvalidInput, "Step", "all %d hills already processed", A.total)
	}
	A.addBias(i)
	A.sampleDensity(i)
	A.accumulate()
	A.state.Hills++
	n := i + 1
	if A.errSched.At(n) {
		A.state.Error(A.ofe)
		A.history = append(A.history, GridMean(A.ofe))
	}
	if A.logSched.At(n) {
		A.report(n)
	}
	return nil
}

// Replay processes the hills from, from+1, ..., to-1. from must be the number
// of hills already processed.
func (A *Accumulator) Replay(from, to int) error {
	if from != A.state.Hills {
		return newError(InvalidInput, "Replay", "replay must start at hill %d, not %d", A.state.Hills, from)
	}
	if to > A.total || to < from {
		return newError(InvalidInput, "Replay", "can't replay up to hill %d (%d hills in the run)", to, A.total)
	}
	for A.state.Hills < to {
		if err := A.Step(); err != nil {
			return errDecorate(err, "Replay")
		}
	}
	return nil
}

// Run processes all the remaining hills and returns the result.
func (A *Accumulator) Run() (*Result, error) {
	return A.RunContext(context.Background())
}

// RunContext is like Run, but it stops, returning the context's error, if ctx is done.
// The context is checked between hills.
func (A *Accumulator) RunContext(ctx context.Context) (*Result, error) {
	for !A.Done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := A.Step(); err != nil {
			return nil, errDecorate(err, "Run")
		}
	}
	return A.Result(), nil
}

// Result returns the current output of the run. The matrices are copies.
func (A *Accumulator) Result() *Result {
	R := new(Result)
	R.X, R.Y = A.grid.Mesh()
	R.Density = mat.DenseCopyOf(A.state.Den)
	R.ForceX, R.ForceY = A.state.Force()
	R.Error = MeanForceError(A.state.Den, A.state.Den2, R.ForceX, R.ForceY, A.state.OfvX, A.state.OfvY)
	R.History = A.History()
	R.Density2 = mat.DenseCopyOf(A.state.Den2)
	R.OfvX = mat.DenseCopyOf(A.state.OfvX)
	R.OfvY = mat.DenseCopyOf(A.state.OfvY)
	return R
}

func (A *Accumulator) report(n int) {
	var e float64
	if len(A.history) > 0 {
		e = A.history[len(A.history)-1]
	} else {
		e = GridMean(A.state.Error(A.ofe))
	}
	A.opts.Observer.Progress(Progress{Name: A.opts.Name, Hill: n, Total: A.total, MeanError: e})
}

// addBias adds the force of the i-th hill, and its periodic images, to the bias force.
func (A *Accumulator) addBias(i int) {
	sx, sy := A.hills.At(i, HillX), A.hills.At(i, HillY)
	sx2 := math.Pow(A.hills.At(i, HillSigmaX), 2)
	sy2 := math.Pow(A.hills.At(i, HillSigmaY), 2)
	h := A.hills.At(i, HillHeight) * A.gammaFactor
	bx, by := raw(A.state.BiasX), raw(A.state.BiasY)
	xs, ys := A.grid.x, A.grid.y
	nx := len(xs)
	A.images = A.grid.Images(sx, sy, A.images)
	for _, p := range A.images {
		for r, y := range ys {
			dy := y - p[1]
			ey := dy * dy / sy2
			row := r * nx
			for c, x := range xs {
				dx := x - p[0]
				k := h * math.Exp(-0.5*(dx*dx/sx2+ey))
				bx[row+c] += k * dx / sx2
				by[row+c] += k * dy / sy2
			}
		}
	}
}

// sampleDensity builds the biased probability density and its gradient from the positions
// sampled while the i-th hill was the latest one.
func (A *Accumulator) sampleDensity(i int) {
	pb, fpx, fpy := raw(A.pb), raw(A.fpx), raw(A.fpy)
	for j := range pb {
		pb[j], fpx[j], fpy[j] = 0, 0, 0
	}
	bw2 := A.opts.Bandwidth * A.opts.Bandwidth
	fscale := A.opts.KT / bw2
	xs, ys := A.grid.x, A.grid.y
	nx := len(xs)
	for s := i * A.stride; s < (i+1)*A.stride; s++ {
		A.images = A.grid.Images(A.cvx[s], A.cvy[s], A.images)
		for _, p := range A.images {
			for r, y := range ys {
				dy := y - p[1]
				dy2 := dy * dy
				row := r * nx
				for c, x := range xs {
					dx := x - p[0]
					k := A.norm * math.Exp(-(dx*dx+dy2)/(2*bw2))
					pb[row+c] += k
					fpx[row+c] += k * fscale * dx
					fpy[row+c] += k * fscale * dy
				}
			}
		}
	}
}

// accumulate adds the contribution of the current hill to the running sums.
func (A *Accumulator) accumulate() {
	S := A.state
	pb, fpx, fpy := raw(A.pb), raw(A.fpx), raw(A.fpy)
	bx, by := raw(S.BiasX), raw(S.BiasY)
	den, den2 := raw(S.Den), raw(S.Den2)
	numx, numy := raw(S.NumX), raw(S.NumY)
	ofvx, ofvy := raw(S.OfvX), raw(S.OfvY)
	for j, p := range pb {
		dfx := safeDiv(fpx[j], p) + bx[j]
		dfy := safeDiv(fpy[j], p) + by[j]
		den[j] += p
		numx[j] += p * dfx
		numy[j] += p * dfy
		den2[j] += p * p
		ofvx[j] += p * dfx * dfx
		ofvy[j] += p * dfy * dfy
	}
}

// MeanForce runs a complete Mean Force Integration over the given hills and positions.
func MeanForce(g *Grid, hills *mat.Dense, cvx, cvy []float64, O *Options) (*Result, error) {
	A, err := NewAccumulator(g, hills, cvx, cvy, O)
	if err != nil {
		return nil, errDecorate(err, "MeanForce")
	}
	R, err := A.Run()
	return R, errDecorate(err, "MeanForce")
}
