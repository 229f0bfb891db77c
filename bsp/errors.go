// Copyright (C) 2022-2023, VigilantDoomer
//
// This file is part of VigilantBSP program.
//
// VigilantBSP is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// VigilantBSP is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VigilantBSP.  If not, see <https://www.gnu.org/licenses/>.
package bsp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Threading errors up and down the recursive partitioning would add a ton of
// complexity to the code. Instead, broken invariants panic with InternalError
// and Build recovers it to return an error.

// InternalError means the working set of half-edges got corrupt and no
// correct tree can be produced from it
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Msg
}

// Panic with an InternalError
func fatalf(format string, args ...interface{}) {
	panic(&InternalError{Msg: fmt.Sprintf(format, args...)})
}

// Converts InternalError panic into error, any other panic is not ours and
// gets re-raised
func handleBuildPanicRecover(r interface{}) error {
	if r == nil {
		return nil
	}
	if ie, ok := r.(*InternalError); ok {
		return errors.WithStack(ie)
	}
	panic(r)
}

// IsInternalError reports whether err was caused by a broken invariant of
// the nodes builder
func IsInternalError(err error) bool {
	_, ok := errors.Cause(err).(*InternalError)
	return ok
}
