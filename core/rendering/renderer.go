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

// Package rendering turns view models into HTML with safehtml templates.
// Every page shares the partials in templates/partials.html; the "rows"
// partial can also be rendered alone for clients that splice freshly
// scrolled rows into a page they already hold.
package rendering

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/google/safehtml/template"

	"github.com/google/virtugrid/core/views"
)

//go:embed templates/*
var templateFS embed.FS

const (
	pageWindow  = "window.html"
	pageLanding = "landing.html"
	partials    = "templates/partials.html"
	rowsPartial = "rows"
)

var funcs = template.FuncMap{
	"px": px,
}

// px formats a pixel length with at most one decimal.
func px(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64) + "px"
}

// WindowRenderer renders window and landing pages. Output is buffered, so
// a failing template never leaves a half written page behind.
type WindowRenderer struct {
	pages map[string]*template.Template
}

// NewWindowRenderer parses the embedded templates.
func NewWindowRenderer() (*WindowRenderer, error) {
	trustedFS := template.TrustedFSFromEmbed(templateFS)
	r := &WindowRenderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{pageWindow, pageLanding} {
		t, err := template.New(page).Funcs(funcs).ParseFS(trustedFS, "templates/"+page, partials)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

func (r *WindowRenderer) execute(w io.Writer, page, name string, data any) error {
	var buf bytes.Buffer
	if err := r.pages[page].ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Render writes the full window page.
func (r *WindowRenderer) Render(w io.Writer, vm views.WindowViewModel) error {
	return r.execute(w, pageWindow, pageWindow, vm)
}

// RenderRows writes only the rendered rows of the window, without spacers
// or page chrome.
func (r *WindowRenderer) RenderRows(w io.Writer, vm views.WindowViewModel) error {
	return r.execute(w, pageWindow, rowsPartial, vm)
}

// RenderLanding writes the table list.
func (r *WindowRenderer) RenderLanding(w io.Writer, vm views.LandingViewModel) error {
	return r.execute(w, pageLanding, pageLanding, vm)
}
