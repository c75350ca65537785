/*
 * sparse.go, part of gomfi.
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

package fes

import (
	"fmt"

	mfi "github.com/rmera/gomfi"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// SparseOptions controls the sparse gradient inversion.
type SparseOptions struct {
	//Periodic, if not nil, gives the periodicity of the CV1 and CV2 axes,
	//overriding that of the grid.
	Periodic []bool
	IntConst float64 //value of the surface at the first grid point, before the shift to zero minimum
	Tol      float64 //relative tolerance of the least squares solver
	MaxIter  int     //maximum iterations. 0 or less means 10 times the number of grid points.
	//Log gets a warning when the solver doesn't converge. If nil, the global zap logger is used.
	Log *zap.Logger
}

// DefaultSparseOptions returns the options used when nil is given.
func DefaultSparseOptions() *SparseOptions {
	return &SparseOptions{Tol: 1e-10}
}

// stencil returns the indexes, along an axis of n points separated by h, and the coefficients
// of the finite-difference derivative for the equation of the point p, and the indexes and
// weights of the force values that form its right hand side. On non-periodic axes inner points
// use centered differences and boundary points second order one-sided differences. On periodic
// axes the equation links p to the next point, across the boundary for the last one, and its right
// hand side is the mean force between both.
func stencil(p, n int, periodic bool, h float64) (ind []int, coef []float64, rind []int, rw []float64) {
	if periodic {
		q := (p + 1) % n
		return []int{p, q}, []float64{-1 / h, 1 / h}, []int{p, q}, []float64{0.5, 0.5}
	}
	c := 1 / (2 * h)
	rind, rw = []int{p}, []float64{1}
	switch {
	case p > 0 && p < n-1:
		return []int{p - 1, p + 1}, []float64{-c, c}, rind, rw
	case p == 0:
		return []int{0, 1, 2}, []float64{-3 * c, 4 * c, -c}, rind, rw
	default:
		return []int{n - 3, n - 2, n - 1}, []float64{c, -4 * c, 3 * c}, rind, rw
	}
}

// gradientSystem returns the 2·nx·ny × nx·ny matrix that maps a surface, flattened in row-major
// order (CV2 rows, CV1 columns), to its CV1 derivatives followed by its CV2 derivatives, and the
// right hand side built from the flattened forces fx and fy. The first equation is replaced by the
// condition that fixes the value of the first point to intconst.
func gradientSystem(fx, fy []float64, nx, ny int, dx, dy float64, periodic [2]bool, intconst float64) (*csr, []float64) {
	N := nx * ny
	A := newCSR(2*N, N, 6*N)
	rhs := make([]float64, 0, 2*N)
	idx := make([]int, 0, 3)
	for i := 0; i < ny; i++ {
		for j := 0; j < nx; j++ {
			if i == 0 && j == 0 {
				A.addRow([]int{0}, []float64{1})
				rhs = append(rhs, intconst)
				continue
			}
			q, val, rq, rw := stencil(j, nx, periodic[0], dx)
			idx = idx[:0]
			for _, v := range q {
				idx = append(idx, i*nx+v)
			}
			A.addRow(idx, val)
			var b float64
			for k, v := range rq {
				b += rw[k] * fx[i*nx+v]
			}
			rhs = append(rhs, b)
		}
	}
	for i := 0; i < ny; i++ {
		for j := 0; j < nx; j++ {
			q, val, rq, rw := stencil(i, ny, periodic[1], dy)
			idx = idx[:0]
			for _, v := range q {
				idx = append(idx, v*nx+j)
			}
			A.addRow(idx, val)
			var b float64
			for k, v := range rq {
				b += rw[k] * fy[v*nx+j]
			}
			rhs = append(rhs, b)
		}
	}
	return A, rhs
}

// Sparse reconstructs the surface as the least squares solution of the linear system
// that matches its finite-difference gradient to fx and fy. It is the most robust of the
// methods against noise in the force, and the most expensive one. O can be nil.
func Sparse(fx, fy *mat.Dense, g *mfi.Grid, O *SparseOptions) (*mat.Dense, error) {
	ret, info, err := sparse(fx, fy, g, O)
	if err != nil {
		return nil, err
	}
	if !info.Converged {
		l := zap.L()
		if O != nil && O.Log != nil {
			l = O.Log
		}
		l.Warn("least squares solver did not converge", zap.Int("iterations", info.Iterations), zap.Float64("residual", info.Residual))
	}
	return ret, nil
}

func sparse(fx, fy *mat.Dense, g *mfi.Grid, O *SparseOptions) (*mat.Dense, lsqrInfo, error) {
	if err := check(fx, fy, g); err != nil {
		return nil, lsqrInfo{}, err
	}
	if O == nil {
		O = DefaultSparseOptions()
	}
	ny, nx := g.Dims()
	if nx < 3 || ny < 3 {
		return nil, lsqrInfo{}, fmt.Errorf("fes: sparse integration needs at least 3 bins per axis, got %dx%d", nx, ny)
	}
	periodic := [2]bool{g.Periodic(0), g.Periodic(1)}
	if O.Periodic != nil {
		if len(O.Periodic) != 2 {
			return nil, lsqrInfo{}, fmt.Errorf("fes: 2 periodicity flags needed, got %d", len(O.Periodic))
		}
		periodic = [2]bool{O.Periodic[0], O.Periodic[1]}
	}
	tol := O.Tol
	if tol <= 0 {
		tol = DefaultSparseOptions().Tol
	}
	N := nx * ny
	maxIter := O.MaxIter
	if maxIter <= 0 {
		maxIter = 10 * N
	}
	A, rhs := gradientSystem(mat.DenseCopyOf(fx).RawMatrix().Data, mat.DenseCopyOf(fy).RawMatrix().Data,
		nx, ny, g.Spacing(0), g.Spacing(1), periodic, O.IntConst)
	f, info := lsqr(A, rhs, tol, maxIter)
	zeroMin(f)
	return mat.NewDense(ny, nx, f), info, nil
}
