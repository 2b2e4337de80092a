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
	"testing"
	"time"

	"github.com/aaronlmathis/gomapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateField_RoundTrip(t *testing.T) {
	m := New(DateField("created", "post_created"))

	app, err := m.ToApp(gomapper.Record{"post_created": "2025-03-14 09:26:53"})
	require.NoError(t, err)

	created, ok := app["created"].(time.Time)
	require.True(t, ok, "expected time.Time, got %T", app["created"])
	assert.Equal(t, 2025, created.Year())
	assert.Equal(t, time.March, created.Month())
	assert.Equal(t, 53, created.Second())

	ext, err := m.ToExt(app)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14 09:26:53", ext["post_created"])
}

func TestDateField_CustomLayout(t *testing.T) {
	m := New(DateFieldLayout("day", "day_str", "2006-01-02"))

	ext, err := m.ToExt(gomapper.Record{
		"day": time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-08-30", ext["day_str"])

	app, err := m.ToApp(gomapper.Record{"day_str": "2025-08-30"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC), app["day"])
}

func TestDateField_InvalidInput(t *testing.T) {
	m := New(DateField("created", "post_created"))

	_, err := m.ToApp(gomapper.Record{"post_created": "not a date"})
	assert.Error(t, err)

	_, err = m.ToExt(gomapper.Record{"created": 12345})
	assert.Error(t, err)
}

func TestDateField_NilPassesThrough(t *testing.T) {
	m := New(DateField("created", "post_created"))

	app, err := m.ToApp(gomapper.Record{"post_created": nil})
	require.NoError(t, err)
	assert.Nil(t, app["created"])

	ext, err := m.ToExt(gomapper.Record{"created": nil})
	require.NoError(t, err)
	assert.Nil(t, ext["post_created"])
}

func TestJSONField_RoundTrip(t *testing.T) {
	m := New(JSONField("settings", "settings_json"))

	app, err := m.ToApp(gomapper.Record{
		"settings_json": `{"theme":"dark","tabs":[1,2,3]}`,
	})
	require.NoError(t, err)

	settings, ok := app["settings"].(map[string]interface{})
	require.True(t, ok, "expected map[string]interface{}, got %T", app["settings"])
	assert.Equal(t, "dark", settings["theme"])

	ext, err := m.ToExt(app)
	require.NoError(t, err)
	encoded, ok := ext["settings_json"].(string)
	require.True(t, ok)
	assert.Contains(t, encoded, `"theme":"dark"`)
}

func TestJSONField_ScalarAndArray(t *testing.T) {
	m := New(JSONField("data", "data_json"))

	app, err := m.ToApp(gomapper.Record{"data_json": `[1,"two",null]`})
	require.NoError(t, err)
	data, ok := app["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 3)

	ext, err := m.ToExt(gomapper.Record{"data": 42})
	require.NoError(t, err)
	assert.Equal(t, "42", ext["data_json"])
}

func TestJSONField_EmptyAndInvalid(t *testing.T) {
	m := New(JSONField("data", "data_json"))

	app, err := m.ToApp(gomapper.Record{"data_json": ""})
	require.NoError(t, err)
	assert.Nil(t, app["data"])

	_, err = m.ToApp(gomapper.Record{"data_json": `{"broken`})
	assert.Error(t, err)
}

func TestMaskField_RoundTrip(t *testing.T) {
	mask := map[string]uint{"read": 0, "write": 1, "exec": 2}
	m := New(MaskField("flags", "flag_bits", mask))

	ext, err := m.ToExt(gomapper.Record{"flags": []string{"read", "exec"}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), ext["flag_bits"])

	app, err := m.ToApp(gomapper.Record{"flag_bits": int64(5)})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"read", "exec"}, app["flags"])
}

func TestMaskField_EmptySet(t *testing.T) {
	mask := map[string]uint{"read": 0, "write": 1}
	m := New(MaskField("flags", "flag_bits", mask))

	ext, err := m.ToExt(gomapper.Record{"flags": []string{}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), ext["flag_bits"])

	app, err := m.ToApp(gomapper.Record{"flag_bits": 0})
	require.NoError(t, err)
	assert.Equal(t, []string{}, app["flags"])
}

func TestMaskField_UnknownFlagNameFails(t *testing.T) {
	mask := map[string]uint{"read": 0}
	m := New(MaskField("flags", "flag_bits", mask))

	_, err := m.ToExt(gomapper.Record{"flags": []string{"read", "admin"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin")
}

func TestMaskField_UnknownBitsIgnored(t *testing.T) {
	mask := map[string]uint{"read": 0, "write": 1}
	m := New(MaskField("flags", "flag_bits", mask))

	// Bit 5 has no registered flag name
	app, err := m.ToApp(gomapper.Record{"flag_bits": int64(1 | 1<<5)})
	require.NoError(t, err)
	assert.Equal(t, []string{"read"}, app["flags"])
}

func TestMaskField_InputShapes(t *testing.T) {
	mask := map[string]uint{"read": 0, "write": 1}
	m := New(MaskField("flags", "flag_bits", mask))

	// External values arrive as different integer widths depending on the source
	for _, raw := range []interface{}{int(3), int64(3), float64(3), "3"} {
		app, err := m.ToApp(gomapper.Record{"flag_bits": raw})
		require.NoError(t, err)
		assert.Equal(t, []string{"read", "write"}, app["flags"], "input %T", raw)
	}

	// Decoded JSON arrays arrive as []interface{}
	ext, err := m.ToExt(gomapper.Record{"flags": []interface{}{"write"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), ext["flag_bits"])
}

func TestScalarConverters(t *testing.T) {
	v, err := ToInt("12", nil)
	require.NoError(t, err)
	assert.Equal(t, 12, v)

	v, err = ToString(12)
	require.NoError(t, err)
	assert.Equal(t, "12", v)

	v, err = ToFloat("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	v, err = ToBool("true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = ToInt(struct{}{})
	assert.Error(t, err)
}
