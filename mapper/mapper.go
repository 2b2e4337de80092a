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
	"fmt"

	"github.com/aaronlmathis/gomapper"
)

// Package mapper implements the bidirectional field-mapping engine.
//
// A Mapper holds a definition registry: for every logical field it knows the
// field's name in the application representation, its name in the external
// representation, and an optional value converter per direction. Records,
// single values, and batches of records can be translated in either direction;
// the registry can be introspected for the registered key sets.
//
// A Mapper is populated once at construction time and is read-only afterwards,
// so concurrent translation calls are safe once setup has completed.

// Direction identifies which of the two record representations a transform
// targets: the in-memory application representation or the external/storage
// representation.
type Direction int

const (
	// DirectionApp targets the application representation.
	DirectionApp Direction = iota
	// DirectionExt targets the external/storage representation.
	DirectionExt
)

// String returns a human-readable name for the direction.
func (d Direction) String() string {
	switch d {
	case DirectionApp:
		return "app"
	case DirectionExt:
		return "ext"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

func (d Direction) valid() bool {
	return d == DirectionApp || d == DirectionExt
}

func (d Direction) opposite() Direction {
	if d == DirectionApp {
		return DirectionExt
	}
	return DirectionApp
}

// Converter is a caller-supplied pure conversion function. It receives the
// field value and the extra arguments registered with the definition, and
// returns the converted value. Errors returned by a Converter propagate to
// the caller unmodified; the engine never catches them.
type Converter func(value interface{}, args ...interface{}) (interface{}, error)

// Hook rewrites a whole record before or after the per-field mapping loop.
// The default hook is identity.
type Hook func(record gomapper.Record) (gomapper.Record, error)

// FieldDef describes how one field is translated when moving into a given
// direction: the field's name in the destination representation, its name in
// the origin representation, and the optional converter with its trailing
// arguments.
type FieldDef struct {
	TargetKey string
	SourceKey string
	Convert   Converter
	Args      []interface{}
}

// Mapper is the bidirectional field-mapping engine. Its only state is the
// definition registry, the virtual-field set, and the per-direction hooks,
// all populated at construction time.
type Mapper struct {
	// defs holds, per direction, the definitions for transforming into that
	// direction, keyed by the field's name in the opposite representation.
	defs    [2]map[string]*FieldDef
	order   [2][]string
	virtual map[string]struct{}
	before  [2]Hook
	after   [2]Hook
}

// New creates a Mapper and applies the given declarative options.
//
//	m := mapper.New(
//	    mapper.Field("id", "post_id"),
//	    mapper.FieldConv("views", "view_count", mapper.ToInt, nil),
//	    mapper.Virtual("revision"),
//	)
func New(opts ...Option) *Mapper {
	m := &Mapper{
		virtual: make(map[string]struct{}),
	}
	m.defs[DirectionApp] = make(map[string]*FieldDef)
	m.defs[DirectionExt] = make(map[string]*FieldDef)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Define registers a logical field: its name in the application
// representation, its name in the external representation, and an optional
// converter per direction (nil means identity). Registering the same
// app/ext pair again replaces the prior definition; last write wins.
func (m *Mapper) Define(appKey, extKey string, toApp, toExt Converter) {
	m.DefineArgs(appKey, extKey, toApp, toExt, nil, nil)
}

// DefineArgs is Define with extra positional arguments passed to each
// converter after the value.
func (m *Mapper) DefineArgs(appKey, extKey string, toApp, toExt Converter, appArgs, extArgs []interface{}) {
	m.insert(DirectionApp, extKey, &FieldDef{
		TargetKey: appKey,
		SourceKey: extKey,
		Convert:   toApp,
		Args:      appArgs,
	})
	m.insert(DirectionExt, appKey, &FieldDef{
		TargetKey: extKey,
		SourceKey: appKey,
		Convert:   toExt,
		Args:      extArgs,
	})
}

// DefineVirtual marks key as a passthrough field: copied unchanged in either
// direction and excluded from key introspection. Idempotent.
func (m *Mapper) DefineVirtual(key string) {
	m.virtual[key] = struct{}{}
}

// IsVirtual reports whether key is registered as a passthrough field.
func (m *Mapper) IsVirtual(key string) bool {
	_, ok := m.virtual[key]
	return ok
}

func (m *Mapper) insert(dir Direction, key string, def *FieldDef) {
	if _, exists := m.defs[dir][key]; !exists {
		m.order[dir] = append(m.order[dir], key)
	}
	m.defs[dir][key] = def
}

// To transforms a whole record into the given direction.
//
// Fields with a registered definition are renamed and converted; virtual
// fields are copied unchanged; all other fields are dropped. A nil or empty
// input short-circuits to an empty record before the hooks run. The pre-hook
// may rewrite the input record before mapping and the post-hook may rewrite
// the assembled output.
func (m *Mapper) To(dir Direction, record gomapper.Record) (gomapper.Record, error) {
	if !dir.valid() {
		return nil, &MapperError{Op: "to", Err: fmt.Errorf("%w: %s", ErrInvalidDirection, dir)}
	}
	if len(record) == 0 {
		return gomapper.Record{}, nil
	}

	rec := record
	if h := m.before[dir]; h != nil {
		var err error
		if rec, err = h(rec); err != nil {
			return nil, err
		}
	}

	out := make(gomapper.Record, len(rec))
	for key, value := range rec {
		if def, ok := m.defs[dir][key]; ok {
			converted := value
			if def.Convert != nil {
				var err error
				if converted, err = def.Convert(value, def.Args...); err != nil {
					return nil, err
				}
			}
			out[def.TargetKey] = converted
			continue
		}
		if _, ok := m.virtual[key]; ok {
			out[key] = value
		}
	}

	if h := m.after[dir]; h != nil {
		var err error
		if out, err = h(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ToValue transforms a single raw value for one field into the given
// direction. key is the field's name in the origin representation. The
// converted value is returned directly, not wrapped in a record. An
// unregistered key fails with ErrUnknownField before any conversion runs.
func (m *Mapper) ToValue(dir Direction, key string, value interface{}) (interface{}, error) {
	if !dir.valid() {
		return nil, &MapperError{Op: "to_value", Err: fmt.Errorf("%w: %s", ErrInvalidDirection, dir)}
	}
	def, ok := m.defs[dir][key]
	if !ok {
		return nil, &MapperError{Op: "to_value", Key: key, Err: ErrUnknownField}
	}
	if def.Convert == nil {
		return value, nil
	}
	return def.Convert(value, def.Args...)
}

// ToBatch transforms a sequence of records into the given direction,
// preserving order and length. The first failing record aborts the whole
// batch.
func (m *Mapper) ToBatch(dir Direction, records []gomapper.Record) ([]gomapper.Record, error) {
	if !dir.valid() {
		return nil, &MapperError{Op: "to_batch", Err: fmt.Errorf("%w: %s", ErrInvalidDirection, dir)}
	}
	out := make([]gomapper.Record, len(records))
	for i, record := range records {
		mapped, err := m.To(dir, record)
		if err != nil {
			return nil, err
		}
		out[i] = mapped
	}
	return out, nil
}

// ToApp transforms a record into the application representation.
func (m *Mapper) ToApp(record gomapper.Record) (gomapper.Record, error) {
	return m.To(DirectionApp, record)
}

// ToExt transforms a record into the external representation.
func (m *Mapper) ToExt(record gomapper.Record) (gomapper.Record, error) {
	return m.To(DirectionExt, record)
}

// ToAppValue transforms a single value into the application representation.
// key is the field's external name.
func (m *Mapper) ToAppValue(key string, value interface{}) (interface{}, error) {
	return m.ToValue(DirectionApp, key, value)
}

// ToExtValue transforms a single value into the external representation.
// key is the field's application name.
func (m *Mapper) ToExtValue(key string, value interface{}) (interface{}, error) {
	return m.ToValue(DirectionExt, key, value)
}

// ToAppBatch transforms a batch of records into the application representation.
func (m *Mapper) ToAppBatch(records []gomapper.Record) ([]gomapper.Record, error) {
	return m.ToBatch(DirectionApp, records)
}

// ToExtBatch transforms a batch of records into the external representation.
func (m *Mapper) ToExtBatch(records []gomapper.Record) ([]gomapper.Record, error) {
	return m.ToBatch(DirectionExt, records)
}

// Keys returns the field names a record must carry to be transformed into
// dir, in registration order. These are the origin-side names: Keys for the
// application direction returns the external names (e.g., the column list to
// select before mapping rows to application records). Virtual fields are
// excluded. A non-empty prefix is prepended to every returned name, which is
// useful for qualifying column names in a query ("t." -> "t.post_id").
// An invalid direction yields nil.
func (m *Mapper) Keys(dir Direction, prefix string) []string {
	if !dir.valid() {
		return nil
	}
	keys := make([]string, 0, len(m.order[dir]))
	for _, key := range m.order[dir] {
		keys = append(keys, prefix+key)
	}
	return keys
}

// KeysApp returns the external-side field names, in registration order.
func (m *Mapper) KeysApp(prefix string) []string {
	return m.Keys(DirectionApp, prefix)
}

// KeysExt returns the application-side field names, in registration order.
func (m *Mapper) KeysExt(prefix string) []string {
	return m.Keys(DirectionExt, prefix)
}

// Map returns, for every registered logical field, the field's name in dir
// mapped to its counterpart name in the opposite direction. An invalid
// direction yields nil.
func (m *Mapper) Map(dir Direction) map[string]string {
	if !dir.valid() {
		return nil
	}
	opp := dir.opposite()
	out := make(map[string]string, len(m.defs[opp]))
	for key, def := range m.defs[opp] {
		out[key] = def.TargetKey
	}
	return out
}

// Key looks up the counterpart name of a single field. key is the field's
// name in dir; the returned name is its counterpart in the opposite
// direction. The second return value reports whether the field is registered.
func (m *Mapper) Key(dir Direction, key string) (string, bool) {
	if !dir.valid() {
		return "", false
	}
	def, ok := m.defs[dir.opposite()][key]
	if !ok {
		return "", false
	}
	return def.TargetKey, true
}

// KeyApp maps an application field name to its external name.
func (m *Mapper) KeyApp(key string) (string, bool) {
	return m.Key(DirectionApp, key)
}

// KeyExt maps an external field name to its application name.
func (m *Mapper) KeyExt(key string) (string, bool) {
	return m.Key(DirectionExt, key)
}
