package fes

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// lsqrInfo describes how an lsqr call ended.
type lsqrInfo struct {
	Iterations int
	Residual   float64 //estimate of |b - Ax|
	Converged  bool
}

// lsqr returns x minimizing |b - Ax|, by the LSQR algorithm of Paige and Saunders
// (ACM TOMS 8, 43, 1982), starting from x = 0. It stops when the residual is below
// tol·|b| (consistent systems) or when the normal-equations residual is below
// tol·|A|·|b - Ax| (inconsistent systems), or after maxIter iterations.
func lsqr(A *csr, b []float64, tol float64, maxIter int) ([]float64, lsqrInfo) {
	m, n := A.Dims()
	x := make([]float64, n)
	u := make([]float64, m)
	copy(u, b)
	beta := floats.Norm(u, 2)
	if beta == 0 {
		return x, lsqrInfo{Converged: true}
	}
	floats.Scale(1/beta, u)
	v := make([]float64, n)
	A.mulVecTrans(v, u)
	alpha := floats.Norm(v, 2)
	if alpha == 0 {
		return x, lsqrInfo{Residual: beta, Converged: true}
	}
	floats.Scale(1/alpha, v)
	w := make([]float64, n)
	copy(w, v)
	bnorm := beta
	phibar, rhobar := beta, alpha
	var anorm float64
	tmpm := make([]float64, m)
	tmpn := make([]float64, n)
	info := lsqrInfo{Residual: beta}
	for it := 1; it <= maxIter; it++ {
		info.Iterations = it
		//bidiagonalization
		A.mulVec(tmpm, v)
		floats.AddScaledTo(u, tmpm, -alpha, u)
		beta = floats.Norm(u, 2)
		anorm = math.Sqrt(anorm*anorm + alpha*alpha + beta*beta)
		if beta > 0 {
			floats.Scale(1/beta, u)
			A.mulVecTrans(tmpn, u)
			floats.AddScaledTo(v, tmpn, -beta, v)
			alpha = floats.Norm(v, 2)
			if alpha > 0 {
				floats.Scale(1/alpha, v)
			}
		}
		//plane rotation
		rho := math.Hypot(rhobar, beta)
		cs := rhobar / rho
		sn := beta / rho
		theta := sn * alpha
		rhobar = -cs * alpha
		phi := cs * phibar
		phibar = sn * phibar
		floats.AddScaled(x, phi/rho, w)
		floats.AddScaledTo(w, v, -theta/rho, w)

		info.Residual = phibar
		arnorm := phibar * alpha * math.Abs(cs)
		if phibar <= tol*bnorm || arnorm <= tol*anorm*phibar {
			info.Converged = true
			break
		}
	}
	return x, info
}
