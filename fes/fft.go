/*
 * fft.go, part of gomfi.
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
	"math"

	mfi "github.com/rmera/gomfi"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// zeroFreq replaces the squared norm of the zero frequency, so the
// division is defined. The constant term of the surface is lost anyway.
const zeroFreq = 1e-10

// fftFreq returns the sample frequencies of a DFT of n points separated by d,
// in the usual order: 0, positive frequencies, negative frequencies.
func fftFreq(n int, d float64) []float64 {
	ret := make([]float64, n)
	for k := range ret {
		m := k
		if k > (n-1)/2 {
			m = k - n
		}
		ret[k] = float64(m) / (float64(n) * d)
	}
	return ret
}

// fft2 transforms in place the r×c row-major data, first along the rows, then
// along the columns. If inverse is true, the inverse transform is computed,
// without normalization.
func fft2(data []complex128, r, c int, inverse bool) {
	rows := fourier.NewCmplxFFT(c)
	cols := fourier.NewCmplxFFT(r)
	n := r
	if c > n {
		n = c
	}
	in := make([]complex128, n)
	out := make([]complex128, n)
	for i := 0; i < r; i++ {
		seg := data[i*c : (i+1)*c]
		copy(in[:c], seg)
		if inverse {
			rows.Sequence(seg, in[:c])
		} else {
			rows.Coefficients(seg, in[:c])
		}
	}
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			in[i] = data[i*c+j]
		}
		if inverse {
			cols.Sequence(out[:r], in[:r])
		} else {
			cols.Coefficients(out[:r], in[:r])
		}
		for i := 0; i < r; i++ {
			data[i*c+j] = out[i]
		}
	}
}

// FFT reconstructs the surface by integrating the force in Fourier space.
// It assumes the force is periodic on the grid, with the period being the
// number of points times the spacing, on each axis.
func FFT(fx, fy *mat.Dense, g *mfi.Grid) (*mat.Dense, error) {
	if err := check(fx, fy, g); err != nil {
		return nil, err
	}
	r, c := g.Dims()
	nux := fftFreq(c, g.Spacing(0))
	nuy := fftFreq(r, g.Spacing(1))
	cx := make([]complex128, r*c)
	cy := make([]complex128, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			cx[i*c+j] = complex(fx.At(i, j), 0)
			cy[i*c+j] = complex(fy.At(i, j), 0)
		}
	}
	fft2(cx, r, c, false)
	fft2(cy, r, c, false)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sq := nux[j]*nux[j] + nuy[i]*nuy[i]
			if math.Hypot(nux[j], nuy[i]) == 0 {
				sq = zeroFreq
			}
			den := complex(0, 2*math.Pi*sq)
			k := i*c + j
			cx[k] = (cx[k]*complex(nux[j], 0) + cy[k]*complex(nuy[i], 0)) / den
		}
	}
	fft2(cx, r, c, true)
	ret := mat.NewDense(r, c, nil)
	d := ret.RawMatrix().Data
	norm := 1 / float64(r*c)
	for k, v := range cx {
		d[k] = real(v) * norm
	}
	zeroMin(d)
	return ret, nil
}
