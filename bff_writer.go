// Copyright 2020 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bffgen

import (
	"io"
	"strings"
	"unicode"
)

const lineWidth = 80

var dividerString = "// " + strings.Repeat("-", lineWidth-len("// ")) + "\n"

// bffWriter emits the textual build-description dialect: commands with an
// optional argument, ".name = value" assignments, arrays, and nested
// scopes delimited by {} (plain) or [] (struct).  Indentation is one tab
// per open scope, tracked by the writer so callers never pass depth.
type bffWriter struct {
	writer io.StringWriter

	prefix  string // current indentation
	closers []byte // closing delimiters of open scopes

	justDidBlankLine bool // true if the last operation was a BlankLine
}

func newBffWriter(writer io.StringWriter) *bffWriter {
	return &bffWriter{
		writer: writer,
	}
}

// Comment writes a "//" comment, wrapping it at the line width.  Wrapping
// happens at whitespace only; a single overlong token is left intact.
func (w *bffWriter) Comment(comment string) error {
	w.justDidBlankLine = false

	lineHeader := w.prefix + "// "
	maxLineLen := lineWidth - len(lineHeader)

	var lineStart, lastSplitPoint int
	for i, r := range comment {
		if unicode.IsSpace(r) {
			// We know we can safely split the line here.
			lastSplitPoint = i + 1
		}

		var line string
		var writeLine bool
		switch {
		case r == '\n':
			line = strings.TrimRightFunc(comment[lineStart:i], unicode.IsSpace)
			writeLine = true

		case (i-lineStart > maxLineLen) && (lastSplitPoint > lineStart):
			// The line has grown too long and is splittable.  Split it at
			// the last split point.
			line = strings.TrimSpace(comment[lineStart:lastSplitPoint])
			writeLine = true
		}

		if writeLine {
			line = strings.TrimRightFunc(lineHeader+line, unicode.IsSpace) + "\n"
			_, err := w.writer.WriteString(line)
			if err != nil {
				return err
			}
			lineStart = lastSplitPoint
		}
	}

	if lineStart != len(comment) {
		line := strings.TrimSpace(comment[lineStart:])
		_, err := w.writer.WriteString(lineHeader + line + "\n")
		if err != nil {
			return err
		}
	}

	return nil
}

// Divider writes a full-width comment rule.
func (w *bffWriter) Divider() error {
	w.justDidBlankLine = false
	_, err := w.writer.WriteString(w.prefix + dividerString)
	return err
}

// SectionHeader writes a blank line followed by a comment between two
// dividers.  Empty comments produce no output.
func (w *bffWriter) SectionHeader(comment string) error {
	if comment == "" {
		return nil
	}
	if err := w.BlankLine(); err != nil {
		return err
	}
	if err := w.Divider(); err != nil {
		return err
	}
	if err := w.Comment(comment); err != nil {
		return err
	}
	return w.Divider()
}

// Command writes a dialect function invocation: Name or Name(arg).
func (w *bffWriter) Command(name, arg string) error {
	w.justDidBlankLine = false
	line := w.prefix + name
	if arg != "" {
		line += "(" + arg + ")"
	}
	_, err := w.writer.WriteString(line + "\n")
	return err
}

// Variable writes a ".name = value" assignment at the current scope.
func (w *bffWriter) Variable(name, value string) error {
	return w.variable(name, value, "=")
}

// AppendVariable writes a ".name + value" append operation.
func (w *bffWriter) AppendVariable(name, value string) error {
	return w.variable(name, value, "+")
}

func (w *bffWriter) variable(name, value, operation string) error {
	w.justDidBlankLine = false
	line := w.prefix + "." + name + " " + operation
	if value != "" {
		line += " " + value
	}
	_, err := w.writer.WriteString(line + "\n")
	return err
}

// Array writes a ".name = { ... }" assignment with one element per line.
func (w *bffWriter) Array(name string, values []string) error {
	if err := w.Variable(name, ""); err != nil {
		return err
	}
	if err := w.PushScope(); err != nil {
		return err
	}
	for i, value := range values {
		line := w.prefix + value
		if i < len(values)-1 {
			line += ","
		}
		if _, err := w.writer.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return w.PopScope()
}

// PushScope opens a {} scope and indents subsequent writes.
func (w *bffWriter) PushScope() error {
	return w.pushScope('{', '}')
}

// PushStruct opens a [] struct scope and indents subsequent writes.
func (w *bffWriter) PushStruct() error {
	return w.pushScope('[', ']')
}

func (w *bffWriter) pushScope(begin, end byte) error {
	w.justDidBlankLine = false
	_, err := w.writer.WriteString(w.prefix + string(begin) + "\n")
	if err != nil {
		return err
	}
	w.prefix += "\t"
	w.closers = append(w.closers, end)
	return nil
}

// PopScope closes the innermost open scope.
func (w *bffWriter) PopScope() error {
	if len(w.closers) == 0 {
		panic("PopScope on writer with no open scope")
	}
	w.justDidBlankLine = false
	w.prefix = w.prefix[:len(w.prefix)-1]
	end := w.closers[len(w.closers)-1]
	w.closers = w.closers[:len(w.closers)-1]
	_, err := w.writer.WriteString(w.prefix + string(end) + "\n")
	return err
}

func (w *bffWriter) BlankLine() (err error) {
	// We don't output multiple blank lines in a row.
	if !w.justDidBlankLine {
		w.justDidBlankLine = true
		_, err = w.writer.WriteString("\n")
	}
	return err
}

// quote wraps a name in the dialect's single quotes.  Empty strings stay
// empty so optional values can be passed through unconditionally.
func quote(s string) string {
	if s == "" {
		return ""
	}
	return "'" + s + "'"
}

// quoteList quotes each name and joins them with commas for use inside a
// brace-enclosed list.
func quoteList(names []string) []string {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		if name != "" {
			quoted = append(quoted, quote(name))
		}
	}
	return quoted
}

// quoteSet renders names as an inline "{ 'a', 'b' }" list.
func quoteSet(names []string) string {
	quoted := quoteList(names)
	if len(quoted) == 0 {
		return "{ }"
	}
	return "{ " + strings.Join(quoted, ", ") + " }"
}
