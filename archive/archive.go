/*
 * archive.go, part of gomfi.
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

//Package archive saves and loads the results of Mean Force Integration runs, and the
//records needed to patch them, as zstd-compressed JSON, so walkers that ran separately
//can be combined later. It also exports results as CSV, one row per grid point.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	mfi "github.com/rmera/gomfi"
	"gonum.org/v1/gonum/mat"
)

// Version is written in every archive. Reading an archive with a different version fails.
const Version = 1

// field is the JSON form of a *mat.Dense.
type field struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

func fromDense(m *mat.Dense) *field {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	return &field{Rows: r, Cols: c, Data: mat.DenseCopyOf(m).RawMatrix().Data}
}

func (f *field) dense() (*mat.Dense, error) {
	if f == nil {
		return nil, nil
	}
	if f.Rows <= 0 || f.Cols <= 0 || len(f.Data) != f.Rows*f.Cols {
		return nil, fmt.Errorf("archive: field of %dx%d with %d values", f.Rows, f.Cols, len(f.Data))
	}
	return mat.NewDense(f.Rows, f.Cols, f.Data), nil
}

type recordFile struct {
	Version  int    `json:"version"`
	Kind     string `json:"kind"`
	Density  *field `json:"density"`
	ForceX   *field `json:"force_x"`
	ForceY   *field `json:"force_y"`
	Density2 *field `json:"density2,omitempty"`
	OfvX     *field `json:"ofv_x,omitempty"`
	OfvY     *field `json:"ofv_y,omitempty"`
	//only in results
	X       *field    `json:"x,omitempty"`
	Y       *field    `json:"y,omitempty"`
	Error   *field    `json:"error,omitempty"`
	History []float64 `json:"history,omitempty"`
}

const (
	kindRecord = "record"
	kindResult = "result"
)

func (rf *recordFile) record() (*mfi.Record, error) {
	R := new(mfi.Record)
	var err error
	for _, v := range []struct {
		dst **mat.Dense
		src *field
	}{{&R.Density, rf.Density}, {&R.ForceX, rf.ForceX}, {&R.ForceY, rf.ForceY}, {&R.Density2, rf.Density2}, {&R.OfvX, rf.OfvX}, {&R.OfvY, rf.OfvY}} {
		if *v.dst, err = v.src.dense(); err != nil {
			return nil, err
		}
	}
	if R.Density == nil || R.ForceX == nil || R.ForceY == nil {
		return nil, fmt.Errorf("archive: density or force missing")
	}
	return R, nil
}

func encode(w io.Writer, rf *recordFile) error {
	z, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(z).Encode(rf); err != nil {
		z.Close()
		return err
	}
	return z.Close()
}

func decode(r io.Reader, kind string) (*recordFile, error) {
	z, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer z.Close()
	rf := new(recordFile)
	if err := json.NewDecoder(z).Decode(rf); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	if rf.Version != Version {
		return nil, fmt.Errorf("archive: version %d, expected %d", rf.Version, Version)
	}
	if rf.Kind != kind {
		return nil, fmt.Errorf("archive: found a %s, expected a %s", rf.Kind, kind)
	}
	return rf, nil
}

// EncodeRecord writes R to w.
func EncodeRecord(w io.Writer, R *mfi.Record) error {
	return encode(w, &recordFile{
		Version:  Version,
		Kind:     kindRecord,
		Density:  fromDense(R.Density),
		ForceX:   fromDense(R.ForceX),
		ForceY:   fromDense(R.ForceY),
		Density2: fromDense(R.Density2),
		OfvX:     fromDense(R.OfvX),
		OfvY:     fromDense(R.OfvY),
	})
}

// DecodeRecord reads a record written by EncodeRecord.
func DecodeRecord(r io.Reader) (*mfi.Record, error) {
	rf, err := decode(r, kindRecord)
	if err != nil {
		return nil, err
	}
	return rf.record()
}

// EncodeResult writes R to w.
func EncodeResult(w io.Writer, R *mfi.Result) error {
	return encode(w, &recordFile{
		Version:  Version,
		Kind:     kindResult,
		X:        fromDense(R.X),
		Y:        fromDense(R.Y),
		Density:  fromDense(R.Density),
		ForceX:   fromDense(R.ForceX),
		ForceY:   fromDense(R.ForceY),
		Error:    fromDense(R.Error),
		History:  R.History,
		Density2: fromDense(R.Density2),
		OfvX:     fromDense(R.OfvX),
		OfvY:     fromDense(R.OfvY),
	})
}

// DecodeResult reads a result written by EncodeResult.
func DecodeResult(r io.Reader) (*mfi.Result, error) {
	rf, err := decode(r, kindResult)
	if err != nil {
		return nil, err
	}
	rec, err := rf.record()
	if err != nil {
		return nil, err
	}
	R := &mfi.Result{
		Density:  rec.Density,
		ForceX:   rec.ForceX,
		ForceY:   rec.ForceY,
		Density2: rec.Density2,
		OfvX:     rec.OfvX,
		OfvY:     rec.OfvY,
		History:  rf.History,
	}
	for _, v := range []struct {
		dst **mat.Dense
		src *field
	}{{&R.X, rf.X}, {&R.Y, rf.Y}, {&R.Error, rf.Error}} {
		if *v.dst, err = v.src.dense(); err != nil {
			return nil, err
		}
	}
	return R, nil
}

func create(name string, enc func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := enc(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	return f.Close()
}

// WriteRecord saves R in the file name.
func WriteRecord(name string, R *mfi.Record) error {
	return create(name, func(w io.Writer) error { return EncodeRecord(w, R) })
}

// ReadRecord loads a record saved by WriteRecord.
func ReadRecord(name string) (*mfi.Record, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	R, err := DecodeRecord(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return R, nil
}

// WriteResult saves R in the file name.
func WriteResult(name string, R *mfi.Result) error {
	return create(name, func(w io.Writer) error { return EncodeResult(w, R) })
}

// ReadResult loads a result saved by WriteResult.
func ReadResult(name string) (*mfi.Result, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	R, err := DecodeResult(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return R, nil
}
