/*
SPDX-License-Identifier: Apache-2.0

Copyright 2026 The Virtugrid Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package csvimport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestImportBasicCSV(t *testing.T) {
	csvData := `name,age,active
Alice,30,yes
Bob,25,no
Charlie,35,yes`

	res, err := ImportFromReader(strings.NewReader(csvData), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age", "active"}, res.Columns)
	assert.Equal(t, []ColumnType{ColumnTypeString, ColumnTypeNumber, ColumnTypeBool}, res.Types)
	require.Len(t, res.Rows, 3)

	first := res.Rows[0].GetFields()
	assert.Equal(t, "Alice", first["name"].GetStringValue())
	assert.Equal(t, 30.0, first["age"].GetNumberValue())
	assert.True(t, first["active"].GetBoolValue())
	assert.False(t, res.Rows[1].GetFields()["active"].GetBoolValue())
}

func TestImportWithoutHeader(t *testing.T) {
	opts := DefaultOptions()
	opts.HasHeader = false

	res, err := ImportFromReader(strings.NewReader("a,1\nb,2\n"), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"column_1", "column_2"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, 2.0, res.Rows[1].GetFields()["column_2"].GetNumberValue())
}

func TestImportCustomDelimiter(t *testing.T) {
	opts := DefaultOptions()
	opts.Delimiter = ';'

	res, err := ImportFromReader(strings.NewReader("x;y\n1.5;hello\n"), opts)
	require.NoError(t, err)
	assert.Equal(t, 1.5, res.Rows[0].GetFields()["x"].GetNumberValue())
	assert.Equal(t, "hello", res.Rows[0].GetFields()["y"].GetStringValue())
}

func TestImportEmptyCells(t *testing.T) {
	res, err := ImportFromReader(strings.NewReader("id,note\n1,\n2,short\n3\n"), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)

	_, isNull := res.Rows[0].GetFields()["note"].GetKind().(*structpb.Value_NullValue)
	assert.True(t, isNull)
	_, isNull = res.Rows[2].GetFields()["note"].GetKind().(*structpb.Value_NullValue)
	assert.True(t, isNull, "short records pad with nulls")
}

func TestColumnSources(t *testing.T) {
	opts := DefaultOptions()
	opts.ColumnSources["zip"] = ColumnSource{Name: "postal_code", Type: ColumnTypeString}

	res, err := ImportFromReader(strings.NewReader("zip,count\n02134,4\n"), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"postal_code", "count"}, res.Columns)
	assert.Equal(t, "02134", res.Rows[0].GetFields()["postal_code"].GetStringValue())
}

func TestTypeDetectionUsesSample(t *testing.T) {
	opts := DefaultOptions()
	opts.SampleSize = 2

	res, err := ImportFromReader(strings.NewReader("v\n1\n2\nthree\n"), opts)
	require.NoError(t, err)

	assert.Equal(t, ColumnTypeNumber, res.Types[0])
	// values outside the sample that do not parse stay strings
	assert.Equal(t, "three", res.Rows[2].GetFields()["v"].GetStringValue())
}

func TestImportErrors(t *testing.T) {
	_, err := ImportFromReader(strings.NewReader(""), DefaultOptions())
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ImportFromReader(strings.NewReader("only,header\n"), DefaultOptions())
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ImportFromReader(strings.NewReader("a\n\"unterminated\n"), DefaultOptions())
	assert.Error(t, err)

	_, err = ImportFromFile(filepath.Join(t.TempDir(), "missing.csv"), DefaultOptions())
	assert.Error(t, err)
}

func TestImportFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,flag\n7,true\n"), 0o644))

	res, err := ImportFromFile(path, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 7.0, res.Rows[0].GetFields()["id"].GetNumberValue())
	assert.True(t, res.Rows[0].GetFields()["flag"].GetBoolValue())
}
