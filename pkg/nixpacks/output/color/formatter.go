/*
Copyright 2026 The Nixpacks Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package color writes colored text to terminals and plain text elsewhere.
package color

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Color is an ANSI foreground color code.
type Color int

var (
	Default = Color(0)
	Red     = Color(31)
	Green   = Color(32)
	Yellow  = Color(33)
	Blue    = Color(34)
	Purple  = Color(35)
	Cyan    = Color(36)
)

// Sprint formats the operands like fmt.Sprint and wraps them in the escape codes of c.
func (c Color) Sprint(a ...interface{}) string {
	if c == Default {
		return fmt.Sprint(a...)
	}
	return fmt.Sprintf("\033[%dm%s\033[0m", c, fmt.Sprint(a...))
}

// Sprintf formats like fmt.Sprintf and wraps the result in the escape codes of c.
func (c Color) Sprintf(format string, a ...interface{}) string {
	return c.Sprint(fmt.Sprintf(format, a...))
}

// IsTerminal will check if the specified output stream is a terminal. This can be changed
// for testing to an arbitrary method.
var IsTerminal = isTerminal

func wrapTextIfTerminal(out io.Writer, c Color, a ...interface{}) string {
	if IsTerminal(out) {
		return c.Sprint(a...)
	}
	return fmt.Sprint(a...)
}

// Fprint wraps the operands in the color ANSI escape codes, and outputs the result to
// out. If out is not a terminal, the escape codes will not be added.
func Fprint(out io.Writer, c Color, a ...interface{}) (n int, err error) {
	return fmt.Fprint(out, wrapTextIfTerminal(out, c, a...))
}

// Fprintln is Fprint followed by a newline.
func Fprintln(out io.Writer, c Color, a ...interface{}) (n int, err error) {
	return fmt.Fprintln(out, wrapTextIfTerminal(out, c, a...))
}

// Fprintf applies the format, wraps the result in the color ANSI escape codes
// when out is a terminal and writes it to out.
func Fprintf(out io.Writer, c Color, format string, a ...interface{}) (n int, err error) {
	var t string
	if IsTerminal(out) {
		t = c.Sprintf(format, a...)
	} else {
		t = fmt.Sprintf(format, a...)
	}
	return fmt.Fprint(out, t)
}

func isTerminal(w io.Writer) bool {
	switch v := w.(type) {
	case *os.File:
		return term.IsTerminal(int(v.Fd()))
	default:
		return false
	}
}
