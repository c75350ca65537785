/*
 * ofe.go, part of gomfi.
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
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// raw returns the backing slice of a field. All the fields in this library are
// created with mat.NewDense, so their stride equals their number of columns.
func raw(m *mat.Dense) []float64 {
	rm := m.RawMatrix()
	if rm.Stride != rm.Cols {
		panic("gomfi: non-contiguous field. Views can't be used as fields")
	}
	return rm.Data[:rm.Rows*rm.Cols]
}

func sameShape(m ...*mat.Dense) {
	r, c := m[0].Dims()
	for _, v := range m[1:] {
		vr, vc := v.Dims()
		if vr != r || vc != c {
			panic(ErrShape)
		}
	}
}

// getDst returns dst[0] if given, or a new zero matrix with r rows and c
// columns otherwise.
func getDst(r, c int, dst ...*mat.Dense) *mat.Dense {
	if len(dst) > 0 && dst[0] != nil {
		dr, dc := dst[0].Dims()
		if dr != r || dc != c {
			panic(ErrShape)
		}
		return dst[0]
	}
	return mat.NewDense(r, c, nil)
}

// safeDiv divides a by b, returning 0 if b is 0.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// SafeDivide puts num/den in dst (or in a new matrix, if no dst is given) element-wise,
// and returns it. Elements where den is zero are set to zero, never to NaN or Inf.
// dst can be num or den.
func SafeDivide(num, den *mat.Dense, dst ...*mat.Dense) *mat.Dense {
	sameShape(num, den)
	r, c := num.Dims()
	ret := getDst(r, c, dst...)
	n, d, o := raw(num), raw(den), raw(ret)
	for i := range o {
		o[i] = safeDiv(n[i], d[i])
	}
	return ret
}

// MeanForceError returns the on-the-fly estimate of the standard error of the mean force,
// from the total biased density den, the total of the squared density den2, the mean force
// components fx and fy and the variance accumulators ofvx and ofvy. The result is put in dst,
// if given. No element of the result is ever negative or NaN.
// It panics with ErrShape if the matrices don't all have the same dimensions.
func MeanForceError(den, den2, fx, fy, ofvx, ofvy *mat.Dense, dst ...*mat.Dense) *mat.Dense {
	sameShape(den, den2, fx, fy, ofvx, ofvy)
	r, c := den.Dims()
	ret := getDst(r, c, dst...)
	d, d2 := raw(den), raw(den2)
	x, y := raw(fx), raw(fy)
	vx, vy := raw(ofvx), raw(ofvy)
	o := raw(ret)
	for i := range o {
		ratio := safeDiv(d2[i], d[i]*d[i]-d2[i])
		ex := (safeDiv(vx[i], d[i]) - x[i]*x[i]) * ratio
		ey := (safeDiv(vy[i], d[i]) - y[i]*y[i]) * ratio
		o[i] = math.Sqrt(math.Abs(ex) + math.Abs(ey))
	}
	return ret
}

// GridMean returns the average of all the elements of the field.
func GridMean(m *mat.Dense) float64 {
	d := raw(m)
	return floats.Sum(d) / float64(len(d))
}
