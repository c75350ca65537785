/*
 * cumsum.go, part of gomfi.
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
	mfi "github.com/rmera/gomfi"
	"gonum.org/v1/gonum/mat"
)

// CumSum reconstructs the surface by integrating the force along an L-shaped path:
// first along CV2 from the origin of the grid, at the first value of CV1, and then
// along CV1. The running sums use the trapezoidal rule, so a force that changes linearly
// is integrated exactly. On a force that is not linear the result differs by O(h) from
// a plain running sum of the force times the spacing. Periodicity is not assumed, but noise in the force accumulates
// along the path.
func CumSum(fx, fy *mat.Dense, g *mfi.Grid) (*mat.Dense, error) {
	if err := check(fx, fy, g); err != nil {
		return nil, err
	}
	r, c := g.Dims()
	dx, dy := g.Spacing(0), g.Spacing(1)
	sx := mat.NewDense(r, c, nil) //running integral along the rows (CV1)
	sy := mat.NewDense(r, c, nil) //running integral along the columns (CV2)
	for i := 0; i < r; i++ {
		for j := 1; j < c; j++ {
			sx.Set(i, j, sx.At(i, j-1)+0.5*dx*(fx.At(i, j-1)+fx.At(i, j)))
		}
	}
	for j := 0; j < c; j++ {
		for i := 1; i < r; i++ {
			sy.Set(i, j, sy.At(i-1, j)+0.5*dy*(fy.At(i-1, j)+fy.At(i, j)))
		}
	}
	ret := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			ret.Set(i, j, sy.At(i, 0)-sy.At(0, 0)+sx.At(i, j)-sx.At(i, 0))
		}
	}
	zeroMin(ret.RawMatrix().Data)
	return ret, nil
}
