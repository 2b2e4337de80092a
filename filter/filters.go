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

package filter

import (
	"context"

	"github.com/aaronlmathis/gomapper"
	"github.com/aaronlmathis/gomapper/mapper"
)

// Package filter provides mapper-aware record filters for pipelines.

// HasMappedFields creates a filter that passes records carrying at least one
// registered field. dir names the representation the records are in. Useful
// for dropping rows that would map to an empty record.
func HasMappedFields(m *mapper.Mapper, dir mapper.Direction) gomapper.Filter {
	names := m.Map(dir)
	return gomapper.FilterFunc(func(ctx context.Context, record gomapper.Record) (bool, error) {
		for key := range names {
			if _, exists := record[key]; exists {
				return true, nil
			}
		}
		return false, nil
	})
}

// Complete creates a filter that passes only records carrying every
// registered field with a non-nil value. dir names the representation the
// records are in.
func Complete(m *mapper.Mapper, dir mapper.Direction) gomapper.Filter {
	names := m.Map(dir)
	return gomapper.FilterFunc(func(ctx context.Context, record gomapper.Record) (bool, error) {
		for key := range names {
			value, exists := record[key]
			if !exists || value == nil {
				return false, nil
			}
		}
		return true, nil
	})
}
