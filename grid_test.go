package mfi

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func periodicGrid(Te *testing.T, n int) *Grid {
	g, err := NewGrid([2]float64{-math.Pi, -math.Pi}, [2]float64{math.Pi, math.Pi}, [2]int{n, n}, [2]bool{true, true})
	if err != nil {
		Te.Fatal(err)
	}
	return g
}

func TestNewGrid(Te *testing.T) {
	g, err := NewGrid([2]float64{0, -1}, [2]float64{1, 1}, [2]int{11, 5}, [2]bool{false, true})
	if err != nil {
		Te.Fatal(err)
	}
	if r, c := g.Dims(); r != 5 || c != 11 {
		Te.Errorf("fields should be 5x11, got %dx%d", r, c)
	}
	if s := g.Spacing(0); math.Abs(s-0.1) > 1e-15 {
		Te.Errorf("wrong CV1 spacing %g", s)
	}
	if y := g.Coords(1); !floats.EqualApprox(y, []float64{-1, -0.5, 0, 0.5, 1}, 1e-15) {
		Te.Errorf("wrong CV2 coordinates %v", y)
	}
	X, Y := g.Mesh()
	if X.At(3, 4) != g.Coords(0)[4] || Y.At(3, 4) != 0.5 {
		Te.Errorf("wrong mesh at (3,4): %g %g", X.At(3, 4), Y.At(3, 4))
	}
	if err := g.Check(g.Zeros(), mat.NewDense(11, 5, nil)); !IsKind(err, ShapeMismatch) {
		Te.Errorf("expected a ShapeMismatch error, got %v", err)
	}
	for _, bad := range [][2]int{{1, 5}, {5, 0}} {
		if _, err := NewGrid([2]float64{0, 0}, [2]float64{1, 1}, bad, [2]bool{}); !IsKind(err, InvalidInput) {
			Te.Errorf("bins %v: expected InvalidInput, got %v", bad, err)
		}
	}
	if _, err := NewGrid([2]float64{0, 1}, [2]float64{1, 1}, [2]int{3, 3}, [2]bool{}); err == nil {
		Te.Errorf("expected an error for an empty range")
	}
	if _, err := g.WithExtension(1.5); err == nil {
		Te.Errorf("expected an error for an extension larger than 1")
	}
}

func TestImages(Te *testing.T) {
	g := periodicGrid(Te, 11)
	var buf []Point
	if p := g.Images(0, 0, buf); len(p) != 1 || p[0] != (Point{0, 0}) {
		Te.Errorf("a point at the center has no images, got %v", p)
	}
	x, y := -math.Pi+0.1, -math.Pi+0.2
	p := g.Images(x, y, buf)
	want := []Point{{x, y}, {x + Period, y}, {x, y + Period}, {x + Period, y + Period}}
	if len(p) != 4 {
		Te.Fatalf("a point near the lower corner needs 4 images, got %v", p)
	}
	for i := range want {
		if p[i] != want[i] {
			Te.Errorf("image %d is %v, want %v", i, p[i], want[i])
		}
	}
	//near the upper x boundary only.
	p = g.Images(math.Pi-0.1, 0.3, p)
	if len(p) != 2 || p[1] != (Point{math.Pi - 0.1 - Period, 0.3}) {
		Te.Errorf("wrong images %v", p)
	}
	//no images on non-periodic axes.
	np, _ := NewGrid([2]float64{-math.Pi, -math.Pi}, [2]float64{math.Pi, math.Pi}, [2]int{11, 11}, [2]bool{false, true})
	if p := np.Images(x, y, nil); len(p) != 2 || p[1] != (Point{x, y + Period}) {
		Te.Errorf("only the CV2 image expected, got %v", p)
	}
	//a zero extension turns the images off.
	g0, _ := g.WithExtension(0)
	if p := g0.Images(x, y, nil); len(p) != 1 {
		Te.Errorf("no images expected with a zero extension, got %v", p)
	}
}

func TestSafeDivide(Te *testing.T) {
	num := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	den := mat.NewDense(2, 2, []float64{0, 0, 0, 0})
	r := SafeDivide(num, den)
	if mat.Max(r) != 0 || mat.Min(r) != 0 {
		Te.Errorf("division by zero must give zero, got %v", mat.Formatted(r))
	}
	den.Set(1, 1, 2)
	SafeDivide(num, den, num)
	if num.At(1, 1) != 2 || num.At(0, 0) != 0 {
		Te.Errorf("wrong in-place division %v", mat.Formatted(num))
	}
	defer func() {
		if recover() != ErrShape {
			Te.Errorf("expected an ErrShape panic")
		}
	}()
	SafeDivide(num, mat.NewDense(1, 2, nil))
}

func TestMeanForceErrorNonNegative(Te *testing.T) {
	den := mat.NewDense(1, 4, []float64{0, 1, 2, 2})
	den2 := mat.NewDense(1, 4, []float64{0, 1, 3, 1})
	fx := mat.NewDense(1, 4, []float64{1, -2, 3, 0.5})
	fy := mat.NewDense(1, 4, []float64{0, 1, -1, 0.5})
	ofvx := mat.NewDense(1, 4, []float64{0, 0, 1, 5})
	ofvy := mat.NewDense(1, 4, []float64{0, 3, 0, 0})
	e := MeanForceError(den, den2, fx, fy, ofvx, ofvy)
	for j := 0; j < 4; j++ {
		v := e.At(0, j)
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			Te.Errorf("error element %d is %g", j, v)
		}
	}
	if e.At(0, 0) != 0 {
		Te.Errorf("empty bins must have zero error")
	}
	//den²-den2 = 3: ex = (5/2-0.25)/3, ey = (0-0.25)/3
	if want := math.Sqrt((2.25 + 0.25) / 3); math.Abs(e.At(0, 3)-want) > 1e-12 {
		Te.Errorf("error is %g, want %g", e.At(0, 3), want)
	}
}

func TestSchedule(Te *testing.T) {
	s := NewSchedule(10, 3)
	if s.Every() != 3 {
		Te.Errorf("interval should be 3, got %d", s.Every())
	}
	if h := s.Hills(); len(h) != 4 || h[3] != 10 || h[2] != 9 {
		Te.Errorf("wrong checkpoints %v", h)
	}
	if !s.At(10) || s.At(4) || s.At(0) || s.At(11) {
		Te.Errorf("wrong At answers")
	}
	if h := s.After(4); len(h) != 3 || h[0] != 6 || h[2] != 10 {
		Te.Errorf("wrong checkpoints after hill 4: %v", h)
	}
	if h := s.After(9); len(h) != 1 || h[0] != 10 {
		Te.Errorf("only the last hill comes after hill 9, got %v", h)
	}
	if h := s.After(10); len(h) != 0 {
		Te.Errorf("no checkpoints after the last hill, got %v", h)
	}
	s = NewSchedule(5, 200)
	if s.Every() != 1 || len(s.Hills()) != 5 {
		Te.Errorf("more checkpoints than hills must give one per hill, got %v", s.Hills())
	}
}

func TestErrorDecoration(Te *testing.T) {
	err := errDecorate(newError(MissingGamma, "inner", "no gamma"), "outer")
	if !IsKind(err, MissingGamma) || IsKind(err, InvalidInput) {
		Te.Errorf("wrong kind for %v", err)
	}
	e := err.(*Error)
	if d := e.Decorate(""); len(d) != 2 || d[1] != "outer" {
		Te.Errorf("wrong decoration %v", d)
	}
	if errDecorate(nil, "x") != nil {
		Te.Errorf("nil must stay nil")
	}
}
