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


// Package csvimport reads CSV files into rows the grid can display. Each
// record becomes a structpb.Struct keyed by column name, with numeric and
// boolean columns detected from a sample of the data.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
)

// ErrEmpty is returned for input without any data rows.
var ErrEmpty = errors.New("csv has no data rows")

// ColumnType specifies the data type for a column
type ColumnType int

const (
	// ColumnTypeAuto detects the type from the data (default)
	ColumnTypeAuto ColumnType = iota
	ColumnTypeString
	ColumnTypeNumber
	ColumnTypeBool
)

func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "string"
	case ColumnTypeNumber:
		return "number"
	case ColumnTypeBool:
		return "bool"
	default:
		return "auto"
	}
}

// ColumnSource defines how a column is imported.
type ColumnSource struct {
	// Name replaces the header name as the field name.
	Name string
	Type ColumnType
}

// ImportOptions configures CSV import behavior
type ImportOptions struct {
	// HasHeader indicates whether the first row contains column headers
	HasHeader bool
	// Delimiter is the field delimiter (defaults to comma)
	Delimiter rune
	// ColumnSources configures specific columns by header name
	ColumnSources map[string]ColumnSource
	// SampleSize is the number of rows to sample for type detection (default: 100)
	SampleSize int
}

// DefaultOptions returns default import options
func DefaultOptions() ImportOptions {
	return ImportOptions{
		HasHeader:     true,
		Delimiter:     ',',
		ColumnSources: make(map[string]ColumnSource),
		SampleSize:    100,
	}
}

// Result is an imported CSV file.
type Result struct {
	// Columns holds field names in file order.
	Columns []string
	Types   []ColumnType
	Rows    []*structpb.Struct
}

// ImportFromFile imports a CSV file.
func ImportFromFile(path string, options ImportOptions) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ImportFromReader(file, options)
}

// ImportFromReader imports CSV data from r. Empty cells become null values.
// Cells of a number or bool column that do not parse are kept as strings.
func ImportFromReader(r io.Reader, options ImportOptions) (*Result, error) {
	reader := csv.NewReader(r)
	if options.Delimiter != 0 {
		reader.Comma = options.Delimiter
	}
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	var headers []string
	dataRows := records
	if options.HasHeader {
		headers = records[0]
		dataRows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
	}
	if len(dataRows) == 0 {
		return nil, ErrEmpty
	}

	sampleSize := options.SampleSize
	if sampleSize <= 0 {
		sampleSize = 100
	}
	res := &Result{
		Columns: make([]string, len(headers)),
		Types:   detectColumnTypes(headers, dataRows, sampleSize, options.ColumnSources),
		Rows:    make([]*structpb.Struct, 0, len(dataRows)),
	}
	for i, header := range headers {
		res.Columns[i] = strings.TrimSpace(header)
		if src, ok := options.ColumnSources[header]; ok && src.Name != "" {
			res.Columns[i] = src.Name
		}
	}

	for _, record := range dataRows {
		fields := make(map[string]*structpb.Value, len(headers))
		for i, name := range res.Columns {
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			fields[name] = parseValue(value, res.Types[i])
		}
		res.Rows = append(res.Rows, &structpb.Struct{Fields: fields})
	}
	return res, nil
}

func parseValue(value string, t ColumnType) *structpb.Value {
	if value == "" {
		return structpb.NewNullValue()
	}
	switch t {
	case ColumnTypeNumber:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return structpb.NewNumberValue(f)
		}
	case ColumnTypeBool:
		if b, err := parseBool(value); err == nil {
			return structpb.NewBoolValue(b)
		}
	}
	return structpb.NewStringValue(value)
}

// parseBool accepts the spellings spreadsheets commonly export.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid bool %q", s)
}

// detectColumnTypes samples data rows to pick a type for every column
// without an explicit one. Columns with only empty samples are strings.
func detectColumnTypes(headers []string, dataRows [][]string, sampleSize int, configs map[string]ColumnSource) []ColumnType {
	types := make([]ColumnType, len(headers))
	rowsToSample := min(sampleSize, len(dataRows))

	for i, header := range headers {
		if src, ok := configs[header]; ok && src.Type != ColumnTypeAuto {
			types[i] = src.Type
			continue
		}

		isNumber, isBool, hasNonEmpty := true, true, false
		for j := 0; j < rowsToSample && (isNumber || isBool); j++ {
			if i >= len(dataRows[j]) {
				continue
			}
			value := strings.TrimSpace(dataRows[j][i])
			if value == "" {
				continue
			}
			hasNonEmpty = true
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				isNumber = false
			}
			if _, err := parseBool(value); err != nil {
				isBool = false
			}
		}

		switch {
		case !hasNonEmpty:
			types[i] = ColumnTypeString
		case isNumber:
			types[i] = ColumnTypeNumber
		case isBool:
			types[i] = ColumnTypeBool
		default:
			types[i] = ColumnTypeString
		}
	}
	return types
}
