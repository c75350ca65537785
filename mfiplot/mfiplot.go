/*
 * mfiplot.go, part of gomfi.
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

//Package mfiplot draws the fields on a Mean Force Integration grid, and the
//convergence of the error, as PNG figures.
package mfiplot

import (
	"fmt"
	"os"

	mfi "github.com/rmera/gomfi"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Size of a single panel.
const (
	Width  = 12 * vg.Centimeter
	Height = 10 * vg.Centimeter
)

// Number of colors and contour levels in surface plots.
const (
	Colors   = 64
	Contours = 10
)

// fieldGrid adapts a field on a grid to plotter.GridXYZ.
type fieldGrid struct {
	z    *mat.Dense
	x, y []float64
}

func (f fieldGrid) Dims() (c, r int)   { return len(f.x), len(f.y) }
func (f fieldGrid) Z(c, r int) float64 { return f.z.At(r, c) }
func (f fieldGrid) X(c int) float64    { return f.x[c] }
func (f fieldGrid) Y(r int) float64    { return f.y[r] }

// SurfacePlot returns a heat map of the field z on the grid g, with contour lines.
func SurfacePlot(g *mfi.Grid, z *mat.Dense, title string) (*plot.Plot, error) {
	if err := g.Check(z); err != nil {
		return nil, err
	}
	fg := fieldGrid{z: z, x: g.Coords(0), y: g.Coords(1)}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "CV1"
	p.Y.Label.Text = "CV2"
	hm := plotter.NewHeatMap(fg, palette.Heat(Colors, 1))
	d := mat.DenseCopyOf(z).RawMatrix().Data
	min, max := floats.Min(d), floats.Max(d)
	if max == min {
		max = min + 1
	}
	hm.Min, hm.Max = min, max
	p.Add(hm)
	levels := make([]float64, Contours)
	floats.Span(levels, min, max)
	c := plotter.NewContour(fg, levels[1:len(levels)-1], palette.Heat(Contours, 1))
	c.Min, c.Max = min, max
	p.Add(c)
	p.X.Min, p.X.Max = g.Min(0), g.Max(0)
	p.Y.Min, p.Y.Max = g.Min(1), g.Max(1)
	return p, nil
}

// ConvergencePlot returns a line plot of the grid-averaged error history against
// the number of hills at each checkpoint. If hills is nil, checkpoints are numbered from 1.
func ConvergencePlot(history []float64, hills []int, title string) (*plot.Plot, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("mfiplot: empty error history")
	}
	if hills != nil && len(hills) != len(history) {
		return nil, fmt.Errorf("mfiplot: %d checkpoints for %d error values", len(hills), len(history))
	}
	pts := make(plotter.XYs, len(history))
	for i, v := range history {
		pts[i].X = float64(i + 1)
		if hills != nil {
			pts[i].X = float64(hills[i])
		}
		pts[i].Y = v
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Hills"
	p.Y.Label.Text = "Mean error"
	p.Add(plotter.NewGrid())
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	p.Add(l)
	return p, nil
}

func save(p *plot.Plot, name string) error {
	if err := p.Save(Width, Height, name); err != nil {
		return fmt.Errorf("mfiplot: saving %s: %w", name, err)
	}
	return nil
}

// Surface saves a heat map of z in the PNG file name.
func Surface(name string, g *mfi.Grid, z *mat.Dense, title string) error {
	p, err := SurfacePlot(g, z, title)
	if err != nil {
		return err
	}
	return save(p, name)
}

// Convergence saves the error history plot in the PNG file name.
func Convergence(name string, history []float64, hills []int) error {
	p, err := ConvergencePlot(history, hills, "Error convergence")
	if err != nil {
		return err
	}
	return save(p, name)
}

// Recap saves, in the PNG file name, a 2×2 figure with the free energy surface fes,
// the error and the density of R, and the error history. hills are the checkpoints
// of the history, and can be nil.
func Recap(name string, g *mfi.Grid, R *mfi.Result, fes *mat.Dense, hills []int) error {
	panels := []struct {
		z     *mat.Dense
		title string
	}{{fes, "Free energy surface"}, {R.Error, "Mean force error"}, {R.Density, "Biased density"}}
	plots := [][]*plot.Plot{make([]*plot.Plot, 2), make([]*plot.Plot, 2)}
	for k, v := range panels {
		p, err := SurfacePlot(g, v.z, v.title)
		if err != nil {
			return fmt.Errorf("mfiplot: %s: %w", v.title, err)
		}
		plots[k/2][k%2] = p
	}
	p, err := ConvergencePlot(R.History, hills, "Error convergence")
	if err != nil {
		return err
	}
	plots[1][1] = p
	img := vgimg.New(2*Width, 2*Height)
	dc := draw.New(img)
	t := draw.Tiles{
		Rows:      2,
		Cols:      2,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
	canvases := plot.Align(plots, t, dc)
	for i := range plots {
		for j := range plots[i] {
			plots[i][j].Draw(canvases[i][j])
		}
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("mfiplot: writing %s: %w", name, err)
	}
	return f.Close()
}
