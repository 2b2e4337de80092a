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

package transform

import (
	"context"

	"github.com/aaronlmathis/gomapper"
	"github.com/aaronlmathis/gomapper/mapper"
)

// Package transform adapts a mapper.Mapper into gomapper.Transformer
// implementations so field mapping runs as an ordinary pipeline step.

// ToApp creates a transformer that maps each record into the application
// representation.
func ToApp(m *mapper.Mapper) gomapper.Transformer {
	return ApplyTo(m, mapper.DirectionApp)
}

// ToExt creates a transformer that maps each record into the external
// representation.
func ToExt(m *mapper.Mapper) gomapper.Transformer {
	return ApplyTo(m, mapper.DirectionExt)
}

// ApplyTo creates a transformer that maps each record into the given
// direction.
func ApplyTo(m *mapper.Mapper, dir mapper.Direction) gomapper.Transformer {
	return gomapper.TransformFunc(func(ctx context.Context, record gomapper.Record) (gomapper.Record, error) {
		return m.To(dir, record)
	})
}

// ConvertField creates a transformer that converts a single field's value in
// place without renaming it. key is the field's name in the origin
// representation; records missing the field pass through unchanged.
func ConvertField(m *mapper.Mapper, dir mapper.Direction, key string) gomapper.Transformer {
	return gomapper.TransformFunc(func(ctx context.Context, record gomapper.Record) (gomapper.Record, error) {
		value, exists := record[key]
		if !exists {
			return record, nil
		}
		converted, err := m.ToValue(dir, key, value)
		if err != nil {
			return nil, err
		}
		result := make(gomapper.Record, len(record))
		for k, v := range record {
			result[k] = v
		}
		result[key] = converted
		return result, nil
	})
}

// Project creates a transformer that keeps only the fields the mapper knows
// about, plus virtual fields. dir names the representation the records are
// in. No renaming or conversion is applied.
func Project(m *mapper.Mapper, dir mapper.Direction) gomapper.Transformer {
	keep := make(map[string]bool)
	for key := range m.Map(dir) {
		keep[key] = true
	}
	return gomapper.TransformFunc(func(ctx context.Context, record gomapper.Record) (gomapper.Record, error) {
		result := make(gomapper.Record, len(record))
		for k, v := range record {
			if keep[k] || m.IsVirtual(k) {
				result[k] = v
			}
		}
		return result, nil
	})
}
