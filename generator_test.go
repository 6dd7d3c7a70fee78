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

func src(path, flags string) Source {
	ext := ""
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		ext = path[i+1:]
	}
	return Source{Path: path, Extension: ext, ObjectPath: path, Flags: flags}
}

func TestGroupSources(t *testing.T) {
	s, _ := newTestSession(t)

	tests := []struct {
		name    string
		sources []Source
		// sizes is the file count per expected group.
		sizes []int
	}{
		{
			name: "uniform settings collapse to one group",
			sources: []Source{
				src("a.cpp", "-O2"), src("b.cpp", "-O2"), src("c.cpp", "-O2"),
			},
			sizes: []int{3},
		},
		{
			name: "a recurring setting starts a new group",
			sources: []Source{
				src("a.cpp", "-O2"), src("b.cpp", "-O2"),
				src("c.cpp", "-O0"),
				src("d.cpp", "-O2"),
			},
			sizes: []int{2, 1, 1},
		},
		{
			name: "extension change splits",
			sources: []Source{
				src("a.cpp", "-O2"), src("b.c", "-O2"), src("c.cpp", "-O2"),
			},
			sizes: []int{1, 1, 1},
		},
		{
			name: "object subdirectory change splits",
			sources: []Source{
				{Path: "a.cpp", Extension: "cpp", ObjectPath: "a.cpp"},
				{Path: "b.cpp", Extension: "cpp", ObjectPath: "gen/b.cpp"},
			},
			sizes: []int{1, 1},
		},
		{
			name:  "no sources",
			sizes: nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			target := &testTarget{name: "x", typ: Executable, lang: "CXX", sources: test.sources}
			groups := s.groupSources(target, "CXX", "Debug")
			if len(groups) != len(test.sizes) {
				t.Fatalf("got %d groups, want %d", len(groups), len(test.sizes))
			}
			for i, size := range test.sizes {
				if len(groups[i].files) != size {
					t.Errorf("group %d has %d files, want %d", i, len(groups[i].files), size)
				}
			}
		})
	}
}

func TestGroupSourcesCrossFamily(t *testing.T) {
	s, _ := newTestSession(t)

	target := &testTarget{
		name: "x", typ: Executable, lang: "CXX",
		sources: []Source{src("a.cpp", ""), src("b.c", "")},
	}
	groups := s.groupSources(target, "CXX", "Debug")
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].lang != "CXX" {
		t.Errorf("group 0 language = %q, want CXX", groups[0].lang)
	}
	if groups[1].lang != "C" {
		t.Errorf("group 1 language = %q, want C", groups[1].lang)
	}
}

func TestDefineEscapesStrippedForUnixNaming(t *testing.T) {
	s, _ := newTestSession(t)

	target := &testTarget{
		name: "x", typ: Executable, lang: "CXX",
		sources: []Source{{Path: "a.cpp", Extension: "cpp", ObjectPath: "a.cpp",
			Defines: `-DCONFIG=\"Debug\"`}},
	}
	groups := s.groupSources(target, "CXX", "Debug")
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if !strings.Contains(groups[0].options, `-DCONFIG="Debug"`) {
		t.Errorf("escapes not stripped: %q", groups[0].options)
	}
}

func TestSharedLibraryGeneration(t *testing.T) {
	s, buf := newTestSession(t)

	shared := &testTarget{
		name:   "zip",
		typ:    SharedLibrary,
		lang:   "CXX",
		output: "libzip.so",
		sources: []Source{
			src("zip.cpp", ""),
		},
	}
	addOK(t, s, shared)
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	// The companion archive precedes the dynamic link block.
	for _, want := range []string{
		".Objzip_obj_1 =",
		".Libzip_slib =",
		".LibrarianOutput = 'lib/zip.a'",
		".Dllzip_dll =",
		".LinkerOutput = 'bin/libzip.so'",
		"DLL('zip_dll')",
		".Libraries = { 'zip_slib' }",
		".PreBuildDependencies = { 'zip_slib' }",
		"Alias('zip_dll_deps')",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q", want)
		}
	}
	if strings.LastIndex(out, ".Libzip_slib =") > strings.Index(out, ".Dllzip_dll =") {
		t.Error("companion archive is not defined before the dynamic link block")
	}

	if s.ledger[targetKey("zip", "Debug")].artifactName != "zip_dll" {
		t.Errorf("artifact name = %q, want zip_dll",
			s.ledger[targetKey("zip", "Debug")].artifactName)
	}
}

func TestSharedLinkFlagApplied(t *testing.T) {
	s, buf := newTestSession(t)

	shared := &testTarget{
		name: "zip", typ: SharedLibrary, lang: "CXX", output: "libzip.so",
		sources: []Source{src("zip.cpp", "")},
	}
	addOK(t, s, shared)
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "-shared") {
		t.Error("dynamic link options are missing the shared flag")
	}
}

func TestObjectLibraryGeneration(t *testing.T) {
	s, buf := newTestSession(t)

	objLib := &testTarget{
		name: "parts", typ: ObjectLibrary, lang: "CXX",
		sources: []Source{src("a.cpp", ""), src("b.cpp", "")},
	}
	addOK(t, s, objLib)
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "ObjectList('parts_obj_1')") {
		t.Error("output is missing the ObjectList invocation")
	}
	if !strings.Contains(out, "Alias('parts_obj_deps')") {
		t.Error("output is missing the aggregate alias")
	}
	if strings.Contains(out, "Library('parts") {
		t.Error("object library produced a Library invocation")
	}
}

func TestNonGenerableTargetPlaceholder(t *testing.T) {
	s, buf := newTestSession(t)

	utility := &testTarget{name: "docs", typ: UtilityTarget, lang: "CXX"}
	addOK(t, s, utility)
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "NOT YET AVAILABLE : UTILITY : docs") {
		t.Error("output is missing the unsupported-type placeholder")
	}
	if strings.Contains(buf.String(), "Executable('docs") {
		t.Error("non-generable target produced an invocation")
	}

	// Dependents of a non-generable target must still unblock.
	if !s.ledger[targetKey("docs", "Debug")].finished {
		t.Error("non-generable target did not finish")
	}
}

func TestCompilerDeclaredOnce(t *testing.T) {
	s, buf := newTestSession(t)

	addOK(t, s, testLib("alpha"))
	addOK(t, s, testLib("beta"))

	if got := strings.Count(buf.String(), "Compiler('CXX')"); got != 1 {
		t.Errorf("Compiler('CXX') declared %d times, want 1", got)
	}
}

func TestExecutableLinksTrackedDependencies(t *testing.T) {
	s, buf := newTestSession(t)

	addOK(t, s, testLib("alpha"))
	addOK(t, s, testExe("app", "libalpha.a", "/usr/lib/libm.so"))
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	// The tracked dependency is an input; the external one is not.
	if !strings.Contains(out, ".Libraries = { 'app_obj_1', 'alpha_lib' }") {
		t.Error("Executable inputs are wrong")
	}
	if strings.Contains(out, "m_dll") {
		t.Error("external library leaked into tracked inputs")
	}
}

func TestMsvcImportLibraryOption(t *testing.T) {
	buf := &strings.Builder{}
	s, err := NewSession(Options{
		Toolchain: &Toolchain{
			CompilerID:      "MSVC",
			CompilerVersion: "19.0.1",
			Compilers:       map[string]string{"CXX": `C:/VC/bin/cl.exe`},
			Linker:          `C:/VC/bin/link.exe`,
			Archiver:        `C:/VC/bin/lib.exe`,
		},
		Configs: []string{"Debug"},
		Output:  buf,
	})
	if err != nil {
		t.Fatal(err)
	}

	shared := &testTarget{
		name: "zip", typ: SharedLibrary, lang: "CXX", output: "zip.dll",
		sources: []Source{src("zip.cpp", "")},
	}
	if err := s.AddTarget(shared, "Debug"); err != nil {
		t.Fatal(err)
	}
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "/implib:lib/zip.lib") {
		t.Error("link options are missing the import library")
	}
	if !strings.Contains(out, " /dll") {
		t.Error("link options are missing the dll flag")
	}
	if !strings.Contains(out, ".Root = 'C:/VC/bin/'") {
		t.Error("compiler declaration is missing the distribution root")
	}
}
