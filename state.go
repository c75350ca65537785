package mfi

import "gonum.org/v1/gonum/mat"

// State holds the running sums of a Mean Force Integration run. It belongs to
// one Accumulator at a time, and must not be shared between concurrent runs.
type State struct {
	Den        *mat.Dense //total biased probability density
	Den2       *mat.Dense //total of the squared density
	NumX, NumY *mat.Dense //numerators of the mean force components
	OfvX, OfvY *mat.Dense //on-the-fly variance accumulators
	//Bias force of all the hills deposited so far.
	BiasX, BiasY *mat.Dense
	Hills        int //number of hills already accumulated
}

// NewState returns an empty state for the grid g.
func NewState(g *Grid) *State {
	return &State{
		Den:   g.Zeros(),
		Den2:  g.Zeros(),
		NumX:  g.Zeros(),
		NumY:  g.Zeros(),
		OfvX:  g.Zeros(),
		OfvY:  g.Zeros(),
		BiasX: g.Zeros(),
		BiasY: g.Zeros(),
	}
}

func (S *State) fields() []*mat.Dense {
	return []*mat.Dense{S.Den, S.Den2, S.NumX, S.NumY, S.OfvX, S.OfvY, S.BiasX, S.BiasY}
}

// Clone returns an independent copy of the state.
func (S *State) Clone() *State {
	f := S.fields()
	c := make([]*mat.Dense, len(f))
	for i, v := range f {
		c[i] = mat.DenseCopyOf(v)
	}
	return &State{Den: c[0], Den2: c[1], NumX: c[2], NumY: c[3], OfvX: c[4], OfvY: c[5], BiasX: c[6], BiasY: c[7], Hills: S.Hills}
}

// Force returns the current estimate of the mean force. If given, dst[0] and dst[1]
// are used to store the x and y components.
func (S *State) Force(dst ...*mat.Dense) (fx, fy *mat.Dense) {
	var dx, dy *mat.Dense
	if len(dst) > 1 {
		dx, dy = dst[0], dst[1]
	}
	fx = SafeDivide(S.NumX, S.Den, dx)
	fy = SafeDivide(S.NumY, S.Den, dy)
	return fx, fy
}

// Error returns the current mean force error field, in dst if given.
func (S *State) Error(dst ...*mat.Dense) *mat.Dense {
	fx, fy := S.Force()
	return MeanForceError(S.Den, S.Den2, fx, fy, S.OfvX, S.OfvY, dst...)
}
