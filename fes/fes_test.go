package fes

import (
	"math"
	"testing"

	mfi "github.com/rmera/gomfi"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// sample fills the surface and its gradient on the grid g, with the given functions.
func sample(g *mfi.Grid, f, dfx, dfy func(x, y float64) float64) (F, Fx, Fy *mat.Dense) {
	X, Y := g.Mesh()
	r, c := g.Dims()
	F = mat.NewDense(r, c, nil)
	Fx = mat.NewDense(r, c, nil)
	Fy = mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			x, y := X.At(i, j), Y.At(i, j)
			F.Set(i, j, f(x, y))
			Fx.Set(i, j, dfx(x, y))
			Fy.Set(i, j, dfy(x, y))
		}
	}
	zeroMin(F.RawMatrix().Data)
	return F, Fx, Fy
}

// maxDiff returns the largest deviation between two cells of a and b.
func maxDiff(a, b *mat.Dense) float64 {
	return floats.Distance(mat.DenseCopyOf(a).RawMatrix().Data, mat.DenseCopyOf(b).RawMatrix().Data, math.Inf(1))
}

func trigGrid(Te *testing.T) *mfi.Grid {
	nx, ny := 32, 24
	max := [2]float64{2 * math.Pi * float64(nx-1) / float64(nx), 2 * math.Pi * float64(ny-1) / float64(ny)}
	g, err := mfi.NewGrid([2]float64{0, 0}, max, [2]int{nx, ny}, [2]bool{true, true})
	if err != nil {
		Te.Fatal(err)
	}
	return g
}

func trig(g *mfi.Grid) (F, Fx, Fy *mat.Dense) {
	return sample(g,
		func(x, y float64) float64 { return math.Cos(x) + 0.5*math.Sin(2*y) + 0.3*math.Cos(x+y) },
		func(x, y float64) float64 { return -math.Sin(x) - 0.3*math.Sin(x+y) },
		func(x, y float64) float64 { return math.Cos(2*y) - 0.3*math.Sin(x+y) },
	)
}

func bowlGrid(Te *testing.T) *mfi.Grid {
	g, err := mfi.NewGrid([2]float64{-1, -1.5}, [2]float64{1, 1.5}, [2]int{21, 25}, [2]bool{false, false})
	if err != nil {
		Te.Fatal(err)
	}
	return g
}

func bowl(g *mfi.Grid) (F, Fx, Fy *mat.Dense) {
	return sample(g,
		func(x, y float64) float64 { return (x-0.3)*(x-0.3) + 2*(y+0.2)*(y+0.2) },
		func(x, y float64) float64 { return 2 * (x - 0.3) },
		func(x, y float64) float64 { return 4 * (y + 0.2) },
	)
}

// FFT assumes both axes are periodic, so it is checked on a periodic surface.
// The quadratic bowl, whose gradient jumps at the grid edges, is left to CumSum
// and Sparse.
func TestFFTPeriodic(Te *testing.T) {
	g := trigGrid(Te)
	F, Fx, Fy := trig(g)
	S, err := FFT(Fx, Fy, g)
	if err != nil {
		Te.Fatal(err)
	}
	if d := maxDiff(F, S); d > 1e-8 {
		Te.Errorf("FFT surface deviates by %g from the exact one", d)
	}
	if m := floats.Min(S.RawMatrix().Data); m != 0 {
		Te.Errorf("FFT surface minimum is %g, not 0", m)
	}
}

func TestMaxDiff(Te *testing.T) {
	a := mat.NewDense(2, 3, []float64{1, 1, 1, 0, 0, 0})
	b := mat.NewDense(2, 3, []float64{0.9, 1.1, 0.8, 0, 0, 0.05})
	if d := maxDiff(a, b); math.Abs(d-0.2) > 1e-12 {
		Te.Errorf("largest cell deviation is %g, want 0.2", d)
	}
}

func TestFFTFreq(Te *testing.T) {
	got := fftFreq(5, 0.5)
	want := []float64{0, 0.4, 0.8, -0.8, -0.4}
	if !floats.EqualApprox(got, want, 1e-12) {
		Te.Errorf("odd frequencies: got %v want %v", got, want)
	}
	got = fftFreq(4, 1)
	want = []float64{0, 0.25, -0.5, -0.25}
	if !floats.EqualApprox(got, want, 1e-12) {
		Te.Errorf("even frequencies: got %v want %v", got, want)
	}
}

func TestCumSumQuadratic(Te *testing.T) {
	g := bowlGrid(Te)
	F, Fx, Fy := bowl(g)
	S, err := CumSum(Fx, Fy, g)
	if err != nil {
		Te.Fatal(err)
	}
	if d := maxDiff(F, S); d > 1e-9 {
		Te.Errorf("cumsum surface deviates by %g from the exact one", d)
	}
}

func TestSparseQuadratic(Te *testing.T) {
	g := bowlGrid(Te)
	F, Fx, Fy := bowl(g)
	S, info, err := sparse(Fx, Fy, g, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if !info.Converged {
		Te.Errorf("solver did not converge after %d iterations, residual %g", info.Iterations, info.Residual)
	}
	if d := maxDiff(F, S); d > 1e-6*mat.Max(F) {
		Te.Errorf("sparse surface deviates by %g from the exact one", d)
	}
}

func TestSparsePeriodic(Te *testing.T) {
	g := trigGrid(Te)
	F, Fx, Fy := trig(g)
	S, err := Sparse(Fx, Fy, g, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if d := maxDiff(F, S); d > 2e-2*mat.Max(F) {
		Te.Errorf("sparse surface deviates by %g from the exact one", d)
	}
}

// The methods must agree with each other on a surface they can all handle.
func TestMethodsAgree(Te *testing.T) {
	g := trigGrid(Te)
	_, Fx, Fy := trig(g)
	var surfaces []*mat.Dense
	for _, m := range []Method{FFTMethod, CumSumMethod, SparseMethod} {
		S, err := Integrate(m, Fx, Fy, g, nil)
		if err != nil {
			Te.Fatalf("%v: %v", m, err)
		}
		surfaces = append(surfaces, S)
	}
	ref := mat.Max(surfaces[0])
	for i, S := range surfaces[1:] {
		if d := maxDiff(surfaces[0], S); d > 5e-2*ref {
			Te.Errorf("%v and fft differ by %g", Method(i+1), d)
		}
	}
}

// The gradient operator must reproduce the exact gradient of a quadratic,
// and its least squares solution must match a dense solve.
func TestGradientOperator(Te *testing.T) {
	g, err := mfi.NewGrid([2]float64{-1, -1}, [2]float64{1, 2}, [2]int{5, 4}, [2]bool{false, false})
	if err != nil {
		Te.Fatal(err)
	}
	F, Fx, Fy := bowl(g)
	ny, nx := g.Dims()
	N := nx * ny
	A, want := gradientSystem(Fx.RawMatrix().Data, Fy.RawMatrix().Data, nx, ny, g.Spacing(0), g.Spacing(1), [2]bool{false, false}, F.At(0, 0))
	if r, c := A.Dims(); r != 2*N || c != N || len(want) != 2*N {
		Te.Fatalf("operator is %dx%d (%d equations), want %dx%d", r, c, len(want), 2*N, N)
	}
	grad := make([]float64, 2*N)
	A.mulVec(grad, F.RawMatrix().Data)
	if want[1] != Fx.At(0, 1) || want[N] != Fy.At(0, 0) {
		Te.Errorf("right hand side does not hold the force")
	}
	if !floats.EqualApprox(grad, want, 1e-10) {
		Te.Errorf("gradient operator is not exact for a quadratic:\n got %v\nwant %v", grad, want)
	}
	//a perturbed right hand side, so the system is inconsistent.
	for k := range want {
		want[k] += 0.01 * math.Sin(float64(7*k))
	}
	x, info := lsqr(A, want, 1e-12, 100*N)
	if !info.Converged {
		Te.Errorf("lsqr did not converge")
	}
	var xd mat.VecDense
	if err := xd.SolveVec(mat.DenseCopyOf(A), mat.NewVecDense(2*N, want)); err != nil {
		Te.Fatal(err)
	}
	if !floats.EqualApprox(x, xd.RawVector().Data, 1e-7) {
		Te.Errorf("lsqr and dense least squares disagree:\n%v\n%v", x, xd.RawVector().Data)
	}
}

func TestStencilPeriodic(Te *testing.T) {
	f := make([]float64, 12)
	for k := range f {
		f[k] = float64(k)
	}
	A, rhs := gradientSystem(f, f, 4, 3, 1, 1, [2]bool{true, false}, 0)
	//the x equation of the last point of the first row wraps to the first point.
	if A.At(3, 0) != 1 || A.At(3, 3) != -1 || A.At(3, 2) != 0 {
		Te.Errorf("periodic coefficients are %g %g %g, want 1 -1 0", A.At(3, 0), A.At(3, 3), A.At(3, 2))
	}
	if rhs[3] != 1.5 {
		Te.Errorf("periodic right hand side is %g, want the mean 1.5", rhs[3])
	}
	//y is not periodic: one sided stencil at the first row.
	if v := A.At(12, 0); v != -1.5 {
		Te.Errorf("one sided coefficient is %g, want -1.5", v)
	}
	if A.At(0, 0) != 1 || A.At(0, 1) != 0 || rhs[0] != 0 {
		Te.Errorf("first row must pin the first point")
	}
}

func TestSparseErrors(Te *testing.T) {
	g, _ := mfi.NewGrid([2]float64{0, 0}, [2]float64{1, 1}, [2]int{2, 5}, [2]bool{false, false})
	z := g.Zeros()
	if _, err := Sparse(z, z, g, nil); err == nil {
		Te.Errorf("expected an error for a 2-bin axis")
	}
	g2 := bowlGrid(Te)
	if _, err := Sparse(z, z, g2, nil); err == nil {
		Te.Errorf("expected an error for mismatched shapes")
	}
	z2 := g2.Zeros()
	if _, err := Sparse(z2, z2, g2, &SparseOptions{Periodic: []bool{true}}); err == nil {
		Te.Errorf("expected an error for a single periodicity flag")
	}
	S, err := Sparse(z2, z2, g2, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if mat.Max(S) != 0 {
		Te.Errorf("zero force must give a flat surface")
	}
}

func TestSparseNotConverged(Te *testing.T) {
	g := bowlGrid(Te)
	_, Fx, Fy := bowl(g)
	core, logs := observer.New(zapcore.WarnLevel)
	S, err := Sparse(Fx, Fy, g, &SparseOptions{MaxIter: 2, Log: zap.New(core)})
	if err != nil {
		Te.Fatal(err)
	}
	if S == nil || mat.Min(S) != 0 {
		Te.Errorf("a surface must be returned even without convergence")
	}
	w := logs.FilterMessage("least squares solver did not converge").All()
	if len(w) != 1 {
		Te.Fatalf("expected one warning, got %d", logs.Len())
	}
	if it := w[0].ContextMap()["iterations"]; it != int64(2) {
		Te.Errorf("warning reports %v iterations, want 2", it)
	}
	//converged runs stay quiet.
	if _, err := Sparse(Fx, Fy, g, &SparseOptions{Log: zap.New(core)}); err != nil {
		Te.Fatal(err)
	}
	if logs.Len() != 1 {
		Te.Errorf("unexpected warnings for a converged run: %d", logs.Len())
	}
}

func TestParseMethod(Te *testing.T) {
	for name, want := range map[string]Method{"fft": FFTMethod, " CumSum": CumSumMethod, "intgrad": SparseMethod} {
		m, err := ParseMethod(name)
		if err != nil || m != want {
			Te.Errorf("ParseMethod(%q) = %v, %v", name, m, err)
		}
	}
	if _, err := ParseMethod("simpson"); err == nil {
		Te.Errorf("expected an error for an unknown method")
	}
}
