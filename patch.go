/*
 * patch.go, part of gomfi.
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

	"gonum.org/v1/gonum/mat"
)

// Record is the part of the output of a run that is needed to patch it with
// runs of other walkers. Density2, OfvX and OfvY are only needed by PatchWithError,
// and can be nil otherwise.
type Record struct {
	Density        *mat.Dense
	ForceX, ForceY *mat.Dense
	Density2       *mat.Dense
	OfvX, OfvY     *mat.Dense
}

func (R *Record) hasErrorTerms() bool {
	return R.Density2 != nil && R.OfvX != nil && R.OfvY != nil
}

func checkRecords(caller string, records []*Record, full bool) error {
	if len(records) == 0 {
		return newError(InvalidInput, caller, "no records to patch")
	}
	for i, v := range records {
		if v == nil || v.Density == nil || v.ForceX == nil || v.ForceY == nil {
			return newError(InvalidInput, caller, "record %d is incomplete", i)
		}
		if full && !v.hasErrorTerms() {
			return newError(InvalidInput, caller, "record %d lacks the error terms", i)
		}
	}
	r, c := records[0].Density.Dims()
	for i, v := range records {
		fields := []*mat.Dense{v.Density, v.ForceX, v.ForceY}
		if full {
			fields = append(fields, v.Density2, v.OfvX, v.OfvY)
		}
		for _, f := range fields {
			fr, fc := f.Dims()
			if fr != r || fc != c {
				return newError(ShapeMismatch, caller, "record %d has %dx%d fields, record 0 has %dx%d", i, fr, fc, r, c)
			}
		}
	}
	return nil
}

// weightedForce puts in fx, fy the density-weighted averages of the forces of the
// records, and in den the total density. The average is taken as a shift from the
// force of the first record, so one record, or several identical records, give back
// exactly their own forces.
func weightedForce(records []*Record, den, fx, fy *mat.Dense) {
	d, x, y := raw(den), raw(fx), raw(fy)
	x0, y0 := raw(records[0].ForceX), raw(records[0].ForceY)
	sx, sy := make([]float64, len(d)), make([]float64, len(d))
	for _, R := range records {
		rd, rx, ry := raw(R.Density), raw(R.ForceX), raw(R.ForceY)
		for j, p := range rd {
			d[j] += p
			sx[j] += p * (rx[j] - x0[j])
			sy[j] += p * (ry[j] - y0[j])
		}
	}
	for j := range d {
		if d[j] == 0 {
			x[j], y[j] = 0, 0
			continue
		}
		x[j] = x0[j] + sx[j]/d[j]
		y[j] = y0[j] + sy[j]/d[j]
	}
}

// Patch combines the records of independent walkers into one. The density is the sum of the
// densities and the force is the density-weighted average of the forces. Only the Density,
// ForceX and ForceY of the returned record are set.
func Patch(records []*Record) (*Record, error) {
	if err := checkRecords("Patch", records, false); err != nil {
		return nil, err
	}
	r, c := records[0].Density.Dims()
	ret := &Record{Density: mat.NewDense(r, c, nil), ForceX: mat.NewDense(r, c, nil), ForceY: mat.NewDense(r, c, nil)}
	weightedForce(records, ret.Density, ret.ForceX, ret.ForceY)
	return ret, nil
}

// PatchWithError combines the records as Patch does, but it also sums the
// squared densities and variance accumulators, and returns the error of the
// combined mean force. The error is obtained from the spread of the walker forces
// around the combined force.
func PatchWithError(records []*Record) (*Record, *mat.Dense, error) {
	if err := checkRecords("PatchWithError", records, true); err != nil {
		return nil, nil, err
	}
	r, c := records[0].Density.Dims()
	ret := &Record{}
	for _, f := range []**mat.Dense{&ret.Density, &ret.ForceX, &ret.ForceY, &ret.Density2, &ret.OfvX, &ret.OfvY} {
		*f = mat.NewDense(r, c, nil)
	}
	weightedForce(records, ret.Density, ret.ForceX, ret.ForceY)
	d2, vx, vy := raw(ret.Density2), raw(ret.OfvX), raw(ret.OfvY)
	mx, my := make([]float64, len(d2)), make([]float64, len(d2))
	for _, R := range records {
		rd, rx, ry := raw(R.Density), raw(R.ForceX), raw(R.ForceY)
		rd2, rvx, rvy := raw(R.Density2), raw(R.OfvX), raw(R.OfvY)
		for j, p := range rd {
			d2[j] += rd2[j]
			vx[j] += rvx[j]
			vy[j] += rvy[j]
			mx[j] += p * rx[j] * rx[j]
			my[j] += p * ry[j] * ry[j]
		}
	}
	d, x, y := raw(ret.Density), raw(ret.ForceX), raw(ret.ForceY)
	errfield := mat.NewDense(r, c, nil)
	e := raw(errfield)
	for j := range e {
		ratio := safeDiv(d2[j], d[j]*d[j]-d2[j])
		ex := (safeDiv(mx[j], d[j]) - x[j]*x[j]) * ratio
		ey := (safeDiv(my[j], d[j]) - y[j]*y[j]) * ratio
		//nested square root, unlike MeanForceError.
		e[j] = math.Sqrt(math.Sqrt(ex*ex + ey*ey))
	}
	return ret, errfield, nil
}
