/*
 * grid.go, part of gomfi.
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
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Period is the period of periodic CVs (dihedral angles, in radians).
const Period = 2 * math.Pi

// DefaultExtension is the default periodic extension fraction. Points closer than
// DefaultExtension/2 times the axis range to a boundary of a periodic axis are replicated.
const DefaultExtension = 0.5

// Point is a position in the 2D CV space.
type Point [2]float64

// Grid is the 2D mesh on which all the fields are computed. It is immutable
// after construction, so it can be shared by concurrent runs.
//
// Fields on the grid are *mat.Dense with NBins(1) rows and NBins(0) columns, i.e.
// the element (i, j) corresponds to the i-th value of CV2 and the j-th value of CV1.
type Grid struct {
	min, max  [2]float64
	nbins     [2]int
	periodic  [2]bool
	extension float64
	x, y      []float64
}

// NewGrid returns a grid of nbins[0]×nbins[1] points, spanning [min[a], max[a]]
// on each axis a (both ends included). periodic[a] marks the axis a as periodic.
func NewGrid(min, max [2]float64, nbins [2]int, periodic [2]bool) (*Grid, error) {
	for a := 0; a < 2; a++ {
		if nbins[a] < 2 {
			return nil, newError(InvalidInput, "NewGrid", "axis %d has %d bins, at least 2 needed", a, nbins[a])
		}
		if !(max[a] > min[a]) {
			return nil, newError(InvalidInput, "NewGrid", "axis %d: max (%g) must be larger than min (%g)", a, max[a], min[a])
		}
	}
	g := &Grid{min: min, max: max, nbins: nbins, periodic: periodic, extension: DefaultExtension}
	g.x = floats.Span(make([]float64, nbins[0]), min[0], max[0])
	g.y = floats.Span(make([]float64, nbins[1]), min[1], max[1])
	return g, nil
}

// WithExtension returns a copy of the grid with the periodic extension fraction
// set to ext.
func (g *Grid) WithExtension(ext float64) (*Grid, error) {
	if ext < 0 || ext > 1 || math.IsNaN(ext) {
		return nil, newError(InvalidInput, "WithExtension", "extension fraction %g out of [0,1]", ext)
	}
	r := *g
	r.extension = ext
	return &r, nil
}

// Dims returns the dimensions of the fields on this grid (rows, cols), as
// gonum matrices do.
func (g *Grid) Dims() (int, int) {
	return g.nbins[1], g.nbins[0]
}

// NBins returns the number of points on the given axis.
func (g *Grid) NBins(axis int) int { return g.nbins[axis] }

// Min returns the lower bound of the given axis.
func (g *Grid) Min(axis int) float64 { return g.min[axis] }

// Max returns the upper bound of the given axis.
func (g *Grid) Max(axis int) float64 { return g.max[axis] }

// Periodic returns true if the given axis is periodic.
func (g *Grid) Periodic(axis int) bool { return g.periodic[axis] }

// Extension returns the periodic extension fraction.
func (g *Grid) Extension() float64 { return g.extension }

// Spacing returns the distance between neighbouring points along the given axis.
func (g *Grid) Spacing(axis int) float64 {
	return (g.max[axis] - g.min[axis]) / float64(g.nbins[axis]-1)
}

// Size is the total number of points of the grid.
func (g *Grid) Size() int { return g.nbins[0] * g.nbins[1] }

// Coords returns a copy of the coordinates along the given axis.
func (g *Grid) Coords(axis int) []float64 {
	src := g.x
	if axis == 1 {
		src = g.y
	}
	r := make([]float64, len(src))
	copy(r, src)
	return r
}

// Mesh returns the X and Y coordinate matrices of the grid.
func (g *Grid) Mesh() (X, Y *mat.Dense) {
	r, c := g.Dims()
	X = mat.NewDense(r, c, nil)
	Y = mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		X.SetRow(i, g.x)
		for j := 0; j < c; j++ {
			Y.Set(i, j, g.y[i])
		}
	}
	return X, Y
}

// Zeros returns a new zero field with the dimensions of the grid.
func (g *Grid) Zeros() *mat.Dense {
	r, c := g.Dims()
	return mat.NewDense(r, c, nil)
}

// Check returns a ShapeMismatch error if any of the given fields does not
// have the dimensions of the grid.
func (g *Grid) Check(fields ...*mat.Dense) error {
	r, c := g.Dims()
	for i, f := range fields {
		if f == nil {
			return newError(InvalidInput, "Check", "field %d is nil", i)
		}
		fr, fc := f.Dims()
		if fr != r || fc != c {
			return newError(ShapeMismatch, "Check", "field %d is %dx%d, grid is %dx%d", i, fr, fc, r, c)
		}
	}
	return nil
}

func (g *Grid) String() string {
	return fmt.Sprintf("x: [%g, %g] (%d bins, periodic: %v) y: [%g, %g] (%d bins, periodic: %v)",
		g.min[0], g.max[0], g.nbins[0], g.periodic[0], g.min[1], g.max[1], g.nbins[1], g.periodic[1])
}

// Images returns the point (x, y) and its periodic copies that fall close enough to the
// grid to contribute to it. There can be 1 to 4 points: the original, one copy per periodic axis
// for which the point is within the extension margin of a boundary, and a diagonal copy
// if both axes produced one. The points are appended to dst[:0], so the slice can be reused.
func (g *Grid) Images(x, y float64, dst []Point) []Point {
	dst = append(dst[:0], Point{x, y})
	var shift [2]float64
	p := [2]float64{x, y}
	for a := 0; a < 2; a++ {
		if !g.periodic[a] {
			continue
		}
		margin := 0.5 * g.extension * (g.max[a] - g.min[a])
		if p[a] < g.min[a]+margin {
			shift[a] = Period
		} else if p[a] > g.max[a]-margin {
			shift[a] = -Period
		}
	}
	if shift[0] != 0 {
		dst = append(dst, Point{x + shift[0], y})
	}
	if shift[1] != 0 {
		dst = append(dst, Point{x, y + shift[1]})
	}
	if shift[0] != 0 && shift[1] != 0 {
		dst = append(dst, Point{x + shift[0], y + shift[1]})
	}
	return dst
}
