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
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// This file provides the built-in field kinds (date, JSON, bitmask) as
// declarative configurations of Define, plus a few general-purpose
// converters for common scalar coercions.

// DateLayout is the canonical external string layout for date fields.
const DateLayout = "2006-01-02 15:04:05"

// DefineDate registers a date field using the canonical DateLayout.
func (m *Mapper) DefineDate(appKey, extKey string) {
	m.DefineDateLayout(appKey, extKey, DateLayout)
}

// DefineDateLayout registers a date field with a custom external layout.
// The layout travels as a converter argument, so both directions share it.
func (m *Mapper) DefineDateLayout(appKey, extKey, layout string) {
	args := []interface{}{layout}
	m.DefineArgs(appKey, extKey, ParseDate, FormatDate, args, args)
}

// DefineJSON registers a JSON field: the application side holds the decoded
// structure, the external side its JSON-encoded string.
func (m *Mapper) DefineJSON(appKey, extKey string) {
	m.Define(appKey, extKey, DecodeJSON, EncodeJSON)
}

// DefineMask registers a bitmask field. mask maps each flag name to its bit
// position. The application side holds a list of flag names, the external
// side an int64 bitmask.
//
// Encoding a flag name absent from mask is an error; decoding ignores bits
// with no registered name. The empty flag set encodes to 0 and 0 decodes to
// the empty set.
func (m *Mapper) DefineMask(appKey, extKey string, mask map[string]uint) {
	args := []interface{}{mask}
	m.DefineArgs(appKey, extKey, DecodeMask, EncodeMask, args, args)
}

// ParseDate converts an external date string into a time.Time. args[0], if
// present, is the time layout; DateLayout otherwise. nil passes through and
// an existing time.Time is returned as-is.
func ParseDate(value interface{}, args ...interface{}) (interface{}, error) {
	layout := layoutArg(args)
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v, nil
	case string:
		parsed, err := time.Parse(layout, v)
		if err != nil {
			return nil, err
		}
		return parsed, nil
	case []byte:
		parsed, err := time.Parse(layout, string(v))
		if err != nil {
			return nil, err
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("cannot parse %T as date", value)
	}
}

// FormatDate converts a time.Time into its external string representation.
// args[0], if present, is the time layout. nil passes through and a string
// is assumed to be formatted already.
func FormatDate(value interface{}, args ...interface{}) (interface{}, error) {
	layout := layoutArg(args)
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v.Format(layout), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.Format(layout), nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("cannot format %T as date", value)
	}
}

func layoutArg(args []interface{}) string {
	if len(args) > 0 {
		if layout, ok := args[0].(string); ok && layout != "" {
			return layout
		}
	}
	return DateLayout
}

// DecodeJSON converts a JSON-encoded string into its decoded structure.
// JSON objects decode to map[string]interface{}, preserving associative
// semantics. Values that are not strings or byte slices are assumed to be
// decoded already and pass through.
func DecodeJSON(value interface{}, args ...interface{}) (interface{}, error) {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		raw = []byte(v)
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		raw = v
	default:
		return value, nil
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeJSON converts a decoded structure into its JSON-encoded string.
// nil passes through unencoded.
func EncodeJSON(value interface{}, args ...interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// EncodeMask converts a list of flag names into an int64 bitmask using the
// map[string]uint supplied as args[0]. Flag names absent from the mask are
// an error. An empty or nil list encodes to 0.
func EncodeMask(value interface{}, args ...interface{}) (interface{}, error) {
	mask, err := maskArg(args)
	if err != nil {
		return nil, err
	}

	var names []string
	switch v := value.(type) {
	case nil:
		return int64(0), nil
	case []string:
		names = v
	case []interface{}:
		names = make([]string, 0, len(v))
		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("cannot encode %T as mask flag", item)
			}
			names = append(names, name)
		}
	default:
		return nil, fmt.Errorf("cannot encode %T as mask", value)
	}

	var bits int64
	for _, name := range names {
		bit, ok := mask[name]
		if !ok {
			return nil, fmt.Errorf("unknown mask flag %q", name)
		}
		bits |= 1 << bit
	}
	return bits, nil
}

// DecodeMask converts an integer bitmask into the matching flag names using
// the map[string]uint supplied as args[0]. Bits with no registered name are
// ignored. Names are returned in bit-position order; 0 decodes to the empty
// list.
func DecodeMask(value interface{}, args ...interface{}) (interface{}, error) {
	mask, err := maskArg(args)
	if err != nil {
		return nil, err
	}

	bits, err := maskBits(value)
	if err != nil {
		return nil, err
	}

	byBit := make(map[uint]string, len(mask))
	positions := make([]uint, 0, len(mask))
	for name, bit := range mask {
		byBit[bit] = name
		positions = append(positions, bit)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })

	names := make([]string, 0, len(positions))
	for _, bit := range positions {
		if bits&(1<<bit) != 0 {
			names = append(names, byBit[bit])
		}
	}
	return names, nil
}

func maskArg(args []interface{}) (map[string]uint, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("mask converter requires a map[string]uint argument")
	}
	mask, ok := args[0].(map[string]uint)
	if !ok {
		return nil, fmt.Errorf("mask converter argument must be map[string]uint, got %T", args[0])
	}
	return mask, nil
}

func maskBits(value interface{}) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("cannot decode %T as mask", value)
	}
}

// ToInt coerces a scalar value to int. Useful as an application-direction
// converter for identifiers stored as strings.
func ToInt(value interface{}, args ...interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		return parsed, nil
	case []byte:
		parsed, err := strconv.Atoi(strings.TrimSpace(string(v)))
		if err != nil {
			return nil, err
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to int", value)
	}
}

// ToString coerces a value to its string representation. Useful as an
// external-direction converter for columns typed as text.
func ToString(value interface{}, args ...interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return fmt.Sprintf("%v", value), nil
	}
}

// ToFloat coerces a scalar value to float64.
func ToFloat(value interface{}, args ...interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, err
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to float64", value)
	}
}

// ToBool coerces a scalar value to bool.
func ToBool(value interface{}, args ...interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to bool", value)
	}
}
