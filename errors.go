/*
 * errors.go, part of gomfi.
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
	"errors"
	"fmt"
	"strings"
)

// ErrorKind tells apart the different contract violations the
// library reports.
type ErrorKind int

const (
	//ShapeMismatch means that grids, or input arrays, that should have
	//the same dimensions don't.
	ShapeMismatch ErrorKind = iota
	//InvalidInput is any other malformed input (non-positive bandwidth, a number
	//of position samples that is not a multiple of the number of hills, etc.)
	InvalidInput
	//MissingGamma means that a well-tempered run was requested, but the
	//bias factor in the first hill is zero or not a number.
	MissingGamma
)

func (k ErrorKind) String() string {
	switch k {
	case ShapeMismatch:
		return "shape mismatch"
	case InvalidInput:
		return "invalid input"
	case MissingGamma:
		return "missing well-tempered bias factor"
	default:
		return "unknown error"
	}
}

// Error is the error type returned by all the functions in this package.
// Decorate allows to add the names of the functions the error passed through,
// without changing its type.
type Error struct {
	message string
	kind    ErrorKind
	deco    []string
}

func newError(kind ErrorKind, caller, format string, a ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, a...), kind: kind, deco: []string{caller}}
}

func (err *Error) Error() string {
	return fmt.Sprintf("gomfi %s: %s (%s)", err.kind, err.message, strings.Join(err.deco, " < "))
}

// Kind returns the kind of the error.
func (err *Error) Kind() ErrorKind { return err.kind }

// Decorate adds deco to the list of callers of the error, and returns the list.
// An empty string only returns the current list.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// IsKind returns true if err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}

// errDecorate decorates err with caller if err is an *Error. Other errors
// are returned unchanged.
func errDecorate(err error, caller string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

// ErrShape is the panic value for the pure grid functions when given
// matrices of different dimensions. That is always a bug in the caller.
var ErrShape = errors.New("gomfi: grids with different dimensions")
