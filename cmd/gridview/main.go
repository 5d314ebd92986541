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

// Command gridview scrolls demo orders in the terminal using the same height
// cache as the web demo, measured in lines.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/google/virtugrid/demo"
)

func main() {
	rows := flag.Int("rows", 10_000, "number of generated demo orders")
	seed := flag.Uint64("seed", 1, "seed for generated demo orders")
	data := flag.String("data", "", "load rows from a CSV file or a ListValue file (.json or text format) instead of generating them")
	noColor := flag.Bool("no-color", false, "Disable ANSI colors")
	flag.Parse()

	if *noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	orders := demo.Orders(*rows, *seed)
	if *data != "" {
		loaded, err := demo.LoadRows(*data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gridview: %v\n", err)
			os.Exit(1)
		}
		orders = loaded
	}

	p := tea.NewProgram(newModel(orders), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "gridview: %v\n", err)
		os.Exit(1)
	}
}
