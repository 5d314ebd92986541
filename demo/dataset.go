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

package demo

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/virtugrid/core/csvimport"
)

// Order data
var (
	orderStatuses   = []string{"Pending", "Processing", "Shipped", "Delivered", "Cancelled"}
	orderRegions    = []string{"North", "South", "East", "West", "Central"}
	orderCategories = []string{"Books", "Electronics", "Garden", "Grocery", "Toys", "Apparel"}
	customers       = []string{"Acme Corp", "Globex", "Initech", "Umbrella", "Hooli", "Vandelay", "Stark", "Wayne"}
	noteWords       = strings.Fields(`customer asked for delivery before noon and a signed receipt
		the parcel was repacked after inspection found a damaged corner
		invoice follows separately gift wrap requested leave at reception
		backordered item ships later partial refund approved by support`)
)

// Orders generates n synthetic orders. The same seed always yields the same
// rows. Notes vary from a few words to a paragraph so detail panels have
// different heights.
func Orders(n int, seed uint64) []*structpb.Struct {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rows := make([]*structpb.Struct, 0, max(n, 0))
	for i := 0; i < n; i++ {
		row, err := structpb.NewStruct(map[string]any{
			"id":       i,
			"customer": customers[r.IntN(len(customers))],
			"status":   orderStatuses[r.IntN(len(orderStatuses))],
			"region":   orderRegions[r.IntN(len(orderRegions))],
			"category": orderCategories[r.IntN(len(orderCategories))],
			"amount":   float64(r.IntN(100_000)) / 100,
			"note":     note(r, 3+r.IntN(60)),
		})
		if err != nil {
			panic(fmt.Sprintf("order %d: %v", i, err))
		}
		rows = append(rows, row)
	}
	return rows
}

func note(r *rand.Rand, words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = noteWords[r.IntN(len(noteWords))]
	}
	return strings.Join(parts, " ")
}

// LoadRows reads rows from a CSV file (.csv) or from a file holding a
// google.protobuf.ListValue of structs, as protojson (.json) or text format
// (anything else).
func LoadRows(path string) ([]*structpb.Struct, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		res, err := csvimport.ImportFromFile(path, csvimport.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to import %s: %w", path, err)
		}
		return res.Rows, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	list := &structpb.ListValue{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = protojson.Unmarshal(data, list)
	} else {
		err = prototext.Unmarshal(data, list)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse rows in %s: %w", path, err)
	}
	rows := make([]*structpb.Struct, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("row %d in %s is not a struct", i, path)
		}
		rows = append(rows, s)
	}
	return rows, nil
}
