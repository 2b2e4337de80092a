//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoMapper.
//
// GoMapper is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoMapper is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoMapper. If not, see https://www.gnu.org/licenses/.

package mapper

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by the engine. Match with errors.Is.
var (
	// ErrInvalidDirection reports a Direction argument that is neither
	// DirectionApp nor DirectionExt.
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrUnknownField reports a single-value transform for a key with no
	// registered definition in the requested direction.
	ErrUnknownField = errors.New("unknown field")
)

// MapperError provides structured error information for mapper operations.
type MapperError struct {
	Op  string // Operation that failed (e.g., "to", "to_value", "to_batch")
	Key string // Field key involved, if any
	Err error  // Underlying error
}

func (e *MapperError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("mapper %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("mapper %s: %v", e.Op, e.Err)
}

func (e *MapperError) Unwrap() error {
	return e.Err
}
