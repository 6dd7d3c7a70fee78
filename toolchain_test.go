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
	"strings"
	"testing"
)

func TestFamily(t *testing.T) {
	tests := []struct {
		id   string
		want Family
	}{
		{"MSVC", FamilyMSVC},
		{"GNU", FamilyUnix},
		{"Clang", FamilyUnix},
		{"AppleClang", FamilyUnix},
		{"Intel", FamilyUnknown},
		{"", FamilyUnknown},
	}
	for _, test := range tests {
		tc := &Toolchain{CompilerID: test.id}
		if got := tc.Family(); got != test.want {
			t.Errorf("Family(%q) = %v, want %v", test.id, got, test.want)
		}
	}
}

func TestCompileOptions(t *testing.T) {
	gnu := &Toolchain{CompilerID: "GNU"}
	clang := &Toolchain{CompilerID: "Clang"}
	msvc := &Toolchain{CompilerID: "MSVC"}

	if got := gnu.compileOptions("CXX"); !strings.Contains(got, `-MT "%2"`) {
		t.Errorf("GNU options missing -MT: %q", got)
	}
	if got := clang.compileOptions("CXX"); strings.Contains(got, "-MT") {
		t.Errorf("Clang options should not carry -MT: %q", got)
	}
	if got := msvc.compileOptions("CXX"); !strings.Contains(got, "/FS") {
		t.Errorf("MSVC options missing /FS: %q", got)
	}
	// The resource compiler template is family-independent.
	if gnu.compileOptions("RC") != msvc.compileOptions("RC") {
		t.Error("RC options differ between families")
	}
}

func TestObjectExtension(t *testing.T) {
	gnu := &Toolchain{CompilerID: "GNU"}
	msvc := &Toolchain{CompilerID: "MSVC"}

	tests := []struct {
		tc   *Toolchain
		lang string
		want string
	}{
		{gnu, "CXX", ".cpp.o"},
		{gnu, "C", ".c.o"},
		{msvc, "CXX", ".cpp.obj"},
		{msvc, "RC", ".rc.res"},
		{gnu, "RC", ".rc.res"},
	}
	for _, test := range tests {
		if got := test.tc.objectExtension(test.lang); got != test.want {
			t.Errorf("%s objectExtension(%s) = %q, want %q",
				test.tc.CompilerID, test.lang, got, test.want)
		}
	}
}

func TestLinkerCommand(t *testing.T) {
	gnu := &Toolchain{
		CompilerID: "GNU",
		Compilers:  map[string]string{"CXX": "/usr/bin/g++"},
		Linker:     "/usr/bin/ld",
	}
	if got := gnu.linkerCommand("CXX"); got != "/usr/bin/g++" {
		t.Errorf("Unix family links through %q, want the compiler driver", got)
	}

	msvc := &Toolchain{
		CompilerID: "MSVC",
		Compilers:  map[string]string{"CXX": "cl.exe"},
		Linker:     "link.exe",
	}
	if got := msvc.linkerCommand("CXX"); got != "link.exe" {
		t.Errorf("MSVC family links through %q, want the linker", got)
	}
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		version      string
		major, minor int
		want         bool
	}{
		{"19.28.29915", 19, 20, true},
		{"19.16.27048", 19, 20, false},
		{"19.16.27048", 19, 10, true},
		{"19.0.24215", 19, 0, true},
		{"18.0", 19, 0, false},
		{"20.0", 19, 20, true},
		{"19", 19, 0, false},
		{"garbage", 19, 0, false},
	}
	for _, test := range tests {
		got := versionAtLeast(test.version, test.major, test.minor)
		if got != test.want {
			t.Errorf("versionAtLeast(%q, %d, %d) = %v, want %v",
				test.version, test.major, test.minor, got, test.want)
		}
	}
}

func TestCompilerExtraFiles(t *testing.T) {
	gnu := &Toolchain{CompilerID: "GNU", CompilerVersion: "9.3.0"}
	if files := gnu.compilerExtraFiles(); files != nil {
		t.Errorf("non-MSVC toolchain has extra files: %v", files)
	}

	vs2019 := &Toolchain{CompilerID: "MSVC", CompilerVersion: "19.28.29915", Architecture: "x64"}
	files := vs2019.compilerExtraFiles()
	if len(files) == 0 {
		t.Fatal("VS2019 toolchain has no extra files")
	}
	found := false
	for _, f := range files {
		if f == "$Root$/vcruntime140_1.dll" {
			found = true
		}
	}
	if !found {
		t.Error("VS2019 x64 list is missing vcruntime140_1.dll")
	}

	vs2015 := &Toolchain{CompilerID: "MSVC", CompilerVersion: "19.0.24215", Architecture: "x86"}
	for _, f := range vs2015.compilerExtraFiles() {
		if strings.Contains(f, "msvcp140_atomic_wait") {
			t.Error("VS2015 list carries a VS2019 runtime file")
		}
	}
}
