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
	"bytes"
	"strings"
	"testing"
)

func ck(err error) {
	if err != nil {
		panic(err)
	}
}

var bffWriterTestCases = []struct {
	input  func(w *bffWriter)
	output string
}{
	{
		input: func(w *bffWriter) {
			ck(w.Comment("foo"))
		},
		output: "// foo\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.Comment(strings.Repeat("foo ", 30)))
		},
		output: "// foo foo foo foo foo foo foo foo foo foo foo foo foo foo foo foo foo foo foo\n" +
			"// foo foo foo foo foo foo foo foo foo foo foo\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.Command("Alias", "'all'"))
		},
		output: "Alias('all')\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.Command("Using", ".CompilerCXXDebugfoo"))
		},
		output: "Using(.CompilerCXXDebugfoo)\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.Variable("Compiler", "'CXX'"))
		},
		output: ".Compiler = 'CXX'\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.AppendVariable("CompilerOptions", "' -fPIC'"))
		},
		output: ".CompilerOptions + ' -fPIC'\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.Variable("Targets", ""))
		},
		output: ".Targets =\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.Array("CompilerInputFiles", []string{"'a.cpp'", "'b.cpp'"}))
		},
		output: ".CompilerInputFiles =\n{\n\t'a.cpp',\n\t'b.cpp'\n}\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.Array("Targets", nil))
		},
		output: ".Targets =\n{\n}\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.Command("Compiler", "'CXX'"))
			ck(w.PushScope())
			ck(w.Variable("Executable", "'/usr/bin/g++'"))
			ck(w.PopScope())
		},
		output: "Compiler('CXX')\n{\n\t.Executable = '/usr/bin/g++'\n}\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.Variable("CompilerDebug", ""))
			ck(w.PushStruct())
			ck(w.Variable("Compiler", "'CXX'"))
			ck(w.PopScope())
		},
		output: ".CompilerDebug =\n[\n\t.Compiler = 'CXX'\n]\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.PushScope())
			ck(w.PushStruct())
			ck(w.Variable("x", "'y'"))
			ck(w.PopScope())
			ck(w.PopScope())
		},
		output: "{\n\t[\n\t\t.x = 'y'\n\t]\n}\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.BlankLine())
			ck(w.BlankLine())
			ck(w.Comment("foo"))
			ck(w.BlankLine())
		},
		output: "\n// foo\n\n",
	},
	{
		input: func(w *bffWriter) {
			ck(w.SectionHeader(""))
		},
		output: "",
	},
	{
		input: func(w *bffWriter) {
			ck(w.SectionHeader("mylib : Debug"))
		},
		output: "\n" + dividerString + "// mylib : Debug\n" + dividerString,
	},
}

func TestBffWriter(t *testing.T) {
	for _, testCase := range bffWriterTestCases {
		buf := bytes.NewBuffer(nil)
		w := newBffWriter(buf)
		testCase.input(w)

		if buf.String() != testCase.output {
			t.Errorf("incorrect output:\n  expected: %q\n       got: %q",
				testCase.output, buf.String())
		}
	}
}

func TestQuote(t *testing.T) {
	if got := quote("foo"); got != "'foo'" {
		t.Errorf(`quote("foo") = %q, want "'foo'"`, got)
	}
	if got := quote(""); got != "" {
		t.Errorf(`quote("") = %q, want ""`, got)
	}
	if got := quoteSet([]string{"a", "", "b"}); got != "{ 'a', 'b' }" {
		t.Errorf(`quoteSet = %q, want "{ 'a', 'b' }"`, got)
	}
	if got := quoteSet(nil); got != "{ }" {
		t.Errorf(`quoteSet(nil) = %q, want "{ }"`, got)
	}
}
