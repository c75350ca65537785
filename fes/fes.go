/*
 * fes.go, part of gomfi.
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

//Package fes reconstructs a free energy surface from its gradient (the mean force)
//on a 2D grid. Three methods are available: FFT integration, cumulative sums along
//an L-shaped path, and the least-squares inversion of a finite-difference gradient
//operator. All of them return a surface shifted so its minimum is exactly zero.
package fes

import (
	"fmt"
	"strings"

	mfi "github.com/rmera/gomfi"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Method selects the integration algorithm.
type Method int

const (
	FFTMethod Method = iota
	CumSumMethod
	SparseMethod
)

func (m Method) String() string {
	switch m {
	case FFTMethod:
		return "fft"
	case CumSumMethod:
		return "cumsum"
	case SparseMethod:
		return "sparse"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod returns the method with the given name ("fft", "cumsum" or "sparse").
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fft":
		return FFTMethod, nil
	case "cumsum", "cumulative":
		return CumSumMethod, nil
	case "sparse", "intgrad", "lsqr":
		return SparseMethod, nil
	}
	return 0, fmt.Errorf("fes: unknown integration method %q", name)
}

// Integrate reconstructs the surface from fx and fy with the method m. O is only used
// by SparseMethod, and can be nil.
func Integrate(m Method, fx, fy *mat.Dense, g *mfi.Grid, O *SparseOptions) (*mat.Dense, error) {
	switch m {
	case FFTMethod:
		return FFT(fx, fy, g)
	case CumSumMethod:
		return CumSum(fx, fy, g)
	case SparseMethod:
		return Sparse(fx, fy, g, O)
	}
	return nil, fmt.Errorf("fes: unknown integration method %v", m)
}

// zeroMin shifts the data so its minimum is zero.
func zeroMin(d []float64) {
	floats.AddConst(-floats.Min(d), d)
}

func check(fx, fy *mat.Dense, g *mfi.Grid) error {
	if g == nil {
		return fmt.Errorf("fes: nil grid")
	}
	return g.Check(fx, fy)
}
