/*
 * plumed.go, part of gomfi.
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

//Package plumed reads the HILLS and COLVAR files written by PLUMED metadynamics
//runs with 2 collective variables. Files ending in .gz are read as gzip streams,
//and files ending in .zst or .zstd, as zstd streams.
package plumed

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	mfi "github.com/rmera/gomfi"
	"gonum.org/v1/gonum/mat"
)

// Open opens the file name for reading, decompressing it if its extension
// says it is compressed.
func Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	lname := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lname, ".gz"):
		r, err := gzip.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("plumed: gzip stream in %s: %w", name, err)
		}
		return &closer{r, []io.Closer{r, f}}, nil
	case strings.HasSuffix(lname, ".zst"), strings.HasSuffix(lname, ".zstd"):
		d, err := zstd.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("plumed: zstd stream in %s: %w", name, err)
		}
		rc := d.IOReadCloser()
		return &closer{rc, []io.Closer{rc, f}}, nil
	}
	return f, nil
}

// closer closes the decompressor and the underlying file.
type closer struct {
	io.Reader
	c []io.Closer
}

func (c *closer) Close() error {
	var first error
	for _, v := range c.c {
		if err := v.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// table is a whitespace-separated numeric file, with the names in its
// "#! FIELDS" header, if there was one.
type table struct {
	fields []string
	rows   [][]float64
}

// readTable reads r. Lines starting with # or @ are comments, except the FIELDS header.
// All rows must have at least min columns.
func readTable(r io.Reader, min int) (*table, error) {
	t := new(table)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for s.Scan() {
		line++
		str := strings.TrimSpace(s.Text())
		if str == "" {
			continue
		}
		if strings.HasPrefix(str, "#") || strings.HasPrefix(str, "@") {
			f := strings.Fields(str)
			if len(f) > 2 && f[0] == "#!" && f[1] == "FIELDS" {
				t.fields = f[2:]
			}
			continue
		}
		f := strings.Fields(str)
		if len(f) < min {
			return nil, fmt.Errorf("plumed: line %d has %d columns, at least %d needed", line, len(f), min)
		}
		row := make([]float64, len(f))
		for i, v := range f {
			var err error
			row[i], err = strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("plumed: line %d, column %d: %w", line, i+1, err)
			}
		}
		t.rows = append(t.rows, row)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("plumed: %w", err)
	}
	if len(t.rows) == 0 {
		return nil, fmt.Errorf("plumed: no data found")
	}
	return t, nil
}

// ParseHills reads a HILLS file from r, and returns a matrix with one hill per row
// and mfi.HillColumns columns: time, CV1, CV2, sigma1, sigma2, height and bias factor.
// Files with only 6 columns (non well-tempered runs) get a bias factor of 0.
// The first hill is duplicated and the last one dropped, so row i holds the hill deposited
// before the i-th stretch of CV samples, and the height of the first row is set to zero.
func ParseHills(r io.Reader) (*mat.Dense, error) {
	t, err := readTable(r, mfi.HillColumns-1)
	if err != nil {
		return nil, err
	}
	n := len(t.rows)
	H := mat.NewDense(n, mfi.HillColumns, nil)
	for i := 0; i < n; i++ {
		src := t.rows[0]
		if i > 0 {
			src = t.rows[i-1]
		}
		for j := 0; j < mfi.HillColumns && j < len(src); j++ {
			H.Set(i, j, src[j])
		}
	}
	H.Set(0, mfi.HillHeight, 0)
	return H, nil
}

// ReadHills reads the HILLS file name. See ParseHills.
func ReadHills(name string) (*mat.Dense, error) {
	f, err := Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	H, err := ParseHills(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return H, nil
}

// ParseColvar reads a COLVAR file from r and returns the values of the columns
// ix and iy (0-based), except for the last row.
func ParseColvar(r io.Reader, ix, iy int) (cvx, cvy []float64, err error) {
	t, err := readTable(r, 1)
	if err != nil {
		return nil, nil, err
	}
	return t.columns(ix, iy)
}

func (t *table) columns(ix, iy int) (cvx, cvy []float64, err error) {
	n := len(t.rows) - 1
	if n < 1 {
		return nil, nil, fmt.Errorf("plumed: at least 2 rows needed, got %d", len(t.rows))
	}
	cvx = make([]float64, n)
	cvy = make([]float64, n)
	for i, row := range t.rows[:n] {
		if ix >= len(row) || iy >= len(row) || ix < 0 || iy < 0 {
			return nil, nil, fmt.Errorf("plumed: row %d has %d columns, columns %d and %d requested", i, len(row), ix, iy)
		}
		cvx[i] = row[ix]
		cvy[i] = row[iy]
	}
	return cvx, cvy, nil
}

// ReadColvar reads the COLVAR file name and returns its second and third columns,
// except for the last row.
func ReadColvar(name string) (cvx, cvy []float64, err error) {
	f, err := Open(name)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	cvx, cvy, err = ParseColvar(f, 1, 2)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return cvx, cvy, nil
}

// ReadColvarFields reads the COLVAR file name and returns the columns named
// x and y in its "#! FIELDS" header, except for the last row.
func ReadColvarFields(name, x, y string) (cvx, cvy []float64, err error) {
	f, err := Open(name)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	t, err := readTable(f, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	ix, iy := t.index(x), t.index(y)
	if ix < 0 || iy < 0 {
		return nil, nil, fmt.Errorf("%s: fields %q and %q not both found in %v", name, x, y, t.fields)
	}
	return t.columns(ix, iy)
}

func (t *table) index(name string) int {
	for i, v := range t.fields {
		if v == name {
			return i
		}
	}
	return -1
}
