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

// Option configures a Mapper during construction. Options are applied in
// order, so a later Field for the same app/ext pair replaces an earlier one.
type Option func(*Mapper)

// Field registers a logical field with no value conversion: a pure rename
// between the application name and the external name.
func Field(appKey, extKey string) Option {
	return func(m *Mapper) {
		m.Define(appKey, extKey, nil, nil)
	}
}

// FieldConv registers a logical field with a converter per direction.
// A nil converter means identity for that direction.
func FieldConv(appKey, extKey string, toApp, toExt Converter) Option {
	return func(m *Mapper) {
		m.Define(appKey, extKey, toApp, toExt)
	}
}

// FieldArgs registers a logical field with converters and the extra
// positional arguments passed to each converter after the value.
func FieldArgs(appKey, extKey string, toApp, toExt Converter, appArgs, extArgs []interface{}) Option {
	return func(m *Mapper) {
		m.DefineArgs(appKey, extKey, toApp, toExt, appArgs, extArgs)
	}
}

// DateField registers a date field: time.Time in the application
// representation, a "2006-01-02 15:04:05" string in the external one.
func DateField(appKey, extKey string) Option {
	return func(m *Mapper) {
		m.DefineDate(appKey, extKey)
	}
}

// DateFieldLayout is DateField with a custom time layout for the external
// string representation.
func DateFieldLayout(appKey, extKey, layout string) Option {
	return func(m *Mapper) {
		m.DefineDateLayout(appKey, extKey, layout)
	}
}

// JSONField registers a JSON field: a decoded structure in the application
// representation, its JSON-encoded string in the external one.
func JSONField(appKey, extKey string) Option {
	return func(m *Mapper) {
		m.DefineJSON(appKey, extKey)
	}
}

// MaskField registers a bitmask field: a list of flag names in the
// application representation, an integer bitmask in the external one.
// mask maps each flag name to its bit position.
func MaskField(appKey, extKey string, mask map[string]uint) Option {
	return func(m *Mapper) {
		m.DefineMask(appKey, extKey, mask)
	}
}

// Virtual marks the given keys as passthrough fields.
func Virtual(keys ...string) Option {
	return func(m *Mapper) {
		for _, key := range keys {
			m.DefineVirtual(key)
		}
	}
}

// BeforeApp sets the hook run on the raw input record before mapping into
// the application direction.
func BeforeApp(h Hook) Option {
	return func(m *Mapper) { m.before[DirectionApp] = h }
}

// AfterApp sets the hook run on the assembled output record after mapping
// into the application direction.
func AfterApp(h Hook) Option {
	return func(m *Mapper) { m.after[DirectionApp] = h }
}

// BeforeExt sets the hook run on the raw input record before mapping into
// the external direction.
func BeforeExt(h Hook) Option {
	return func(m *Mapper) { m.before[DirectionExt] = h }
}

// AfterExt sets the hook run on the assembled output record after mapping
// into the external direction.
func AfterExt(h Hook) Option {
	return func(m *Mapper) { m.after[DirectionExt] = h }
}
