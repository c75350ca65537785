package fes

import "gonum.org/v1/gonum/mat"

// csr is a sparse matrix in compressed sparse row format. It implements
// mat.Matrix, so it can be printed or copied into a mat.Dense, but the
// solver only uses mulVec and mulVecTrans.
type csr struct {
	rows, cols int
	indptr     []int
	ind        []int
	val        []float64
}

func newCSR(rows, cols, nnz int) *csr {
	m := &csr{rows: rows, cols: cols}
	m.indptr = make([]int, 1, rows+1)
	m.ind = make([]int, 0, nnz)
	m.val = make([]float64, 0, nnz)
	return m
}

// addRow appends the next row, with the coefficients val in the columns ind.
// Repeated columns are summed.
func (m *csr) addRow(ind []int, val []float64) {
	start := len(m.ind)
	for k, c := range ind {
		merged := false
		for l := start; l < len(m.ind); l++ {
			if m.ind[l] == c {
				m.val[l] += val[k]
				merged = true
				break
			}
		}
		if !merged {
			m.ind = append(m.ind, c)
			m.val = append(m.val, val[k])
		}
	}
	m.indptr = append(m.indptr, len(m.ind))
}

func (m *csr) Dims() (int, int) { return m.rows, m.cols }

func (m *csr) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
		if m.ind[k] == j {
			return m.val[k]
		}
	}
	return 0
}

func (m *csr) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// NNZ returns the number of stored coefficients.
func (m *csr) NNZ() int { return len(m.val) }

// mulVec puts m·x in dst.
func (m *csr) mulVec(dst, x []float64) {
	for i := 0; i < m.rows; i++ {
		var s float64
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			s += m.val[k] * x[m.ind[k]]
		}
		dst[i] = s
	}
}

// mulVecTrans puts mᵀ·y in dst.
func (m *csr) mulVecTrans(dst, y []float64) {
	for j := range dst[:m.cols] {
		dst[j] = 0
	}
	for i := 0; i < m.rows; i++ {
		yi := y[i]
		if yi == 0 {
			continue
		}
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			dst[m.ind[k]] += m.val[k] * yi
		}
	}
}
