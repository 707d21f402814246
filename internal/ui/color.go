// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui renders human-readable repolift output.
//
// Colors follow one scheme: red for failures, yellow for warnings, green
// for success, cyan for information and bold for headers. They are off when
// --no-color is given, NO_COLOR is set, or the output is not a terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Pre-configured colors. They honor color.NoColor at call time.
var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors disables colors when noColor is set. Call it once after flag
// parsing; fatih/color already handles NO_COLOR and non-TTY output.
func InitColors(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Printer writes prefixed, colored lines to one writer.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer. A nil writer means stdout.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w}
}

var std = NewPrinter(nil)

// Writer returns the destination.
func (p *Printer) Writer() io.Writer { return p.w }

// Success prints "✓ msg" in green.
func (p *Printer) Success(msg string) { _, _ = Green.Fprintln(p.w, "✓ "+msg) }

// Warning prints "⚠ msg" in yellow.
func (p *Printer) Warning(msg string) { _, _ = Yellow.Fprintln(p.w, "⚠ "+msg) }

// Error prints "✗ msg" in red.
func (p *Printer) Error(msg string) { _, _ = Red.Fprintln(p.w, "✗ "+msg) }

// Info prints "ℹ msg" in cyan.
func (p *Printer) Info(msg string) { _, _ = Cyan.Fprintln(p.w, "ℹ "+msg) }

// Header prints a bold line underlined with '='.
func (p *Printer) Header(text string) {
	_, _ = Bold.Fprintln(p.w, text)
	fmt.Fprintln(p.w, strings.Repeat("=", len([]rune(text))))
}

// SubHeader prints a bold line.
func (p *Printer) SubHeader(text string) { _, _ = Bold.Fprintln(p.w, text) }

// Field prints "label value" with a bold label.
func (p *Printer) Field(label, value string) {
	fmt.Fprintf(p.w, "%s %s\n", Label(label), value)
}

// Line prints text unchanged.
func (p *Printer) Line(text string) { fmt.Fprintln(p.w, text) }

// Success prints a success line to stdout.
func Success(msg string) { std.Success(msg) }

// Successf is the formatted form of Success.
func Successf(format string, args ...any) { std.Success(fmt.Sprintf(format, args...)) }

// Warning prints a warning line to stdout.
func Warning(msg string) { std.Warning(msg) }

// Error prints an error line to stdout.
func Error(msg string) { std.Error(msg) }

// Info prints an informational line to stdout.
func Info(msg string) { std.Info(msg) }

// Infof is the formatted form of Info.
func Infof(format string, args ...any) { std.Info(fmt.Sprintf(format, args...)) }

// Header prints an underlined header to stdout.
func Header(text string) { std.Header(text) }

// Label returns text in bold.
func Label(text string) string { return Bold.Sprint(text) }

// DimText returns text dimmed, for paths and IDs.
func DimText(text string) string { return Dim.Sprint(text) }

// CountText returns a count in cyan.
func CountText(count int) string { return Cyan.Sprint(count) }
