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
	"strconv"
	"strings"
)

// A Family is the broad category of command-line conventions a toolchain
// follows.  Flag spellings, object-file extensions and archive naming all
// key off the family, never off the raw compiler identifier.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyMSVC
	FamilyUnix
)

func (f Family) String() string {
	switch f {
	case FamilyMSVC:
		return "msvc"
	case FamilyUnix:
		return "unix"
	default:
		return "unknown"
	}
}

// A Toolchain describes the resolved compiler/linker identities for a
// generation pass.  It is provided by the upstream project model and
// consumed read-only.
type Toolchain struct {
	// CompilerID is the upstream compiler identifier, e.g. "MSVC", "GNU"
	// or "Clang".
	CompilerID string

	// CompilerVersion is the upstream version string, e.g. "19.28.1".
	CompilerVersion string

	// Architecture is the target architecture identifier, e.g. "x64".
	Architecture string

	// Compilers maps a language name ("C", "CXX", "RC", ...) to the
	// compiler executable path.  Languages without an entry have no
	// compiler resolved.
	Compilers map[string]string

	// Linker is the standalone linker executable, used by the MSVC family.
	Linker string

	// Archiver creates static archives.
	Archiver string

	// ExtraLinkFlags holds link options resolved project-wide by upstream.
	ExtraLinkFlags string
}

// Family returns the command-line convention family for the toolchain.
// This is the single place compiler identifiers are matched; everything
// else dispatches on the returned Family.
func (t *Toolchain) Family() Family {
	switch t.CompilerID {
	case "MSVC":
		return FamilyMSVC
	case "GNU", "Clang", "AppleClang":
		return FamilyUnix
	default:
		return FamilyUnknown
	}
}

// Compiler returns the executable for lang, or "" if none is resolved.
func (t *Toolchain) Compiler(lang string) string {
	return t.Compilers[lang]
}

// compileOptions returns the family's compile option template for lang.
// "%1" and "%2" are the build executor's input and output placeholders.
func (t *Toolchain) compileOptions(lang string) string {
	if lang == "RC" {
		return ` /nologo /fo "%2" "%1" `
	}
	switch t.Family() {
	case FamilyMSVC:
		// /FS so concurrent compiler processes can share one PDB.
		return ` /nologo /c "%1" /Fo"%2" /FS `
	case FamilyUnix:
		flags := ` -c "%1" -o "%2" -MD `
		if t.CompilerID == "GNU" {
			flags += `-MT "%2" `
		}
		flags += `-MF "%2.d" `
		return flags
	}
	return " "
}

// linkOptions returns the family's base link option template.
func (t *Toolchain) linkOptions() string {
	switch t.Family() {
	case FamilyMSVC:
		return `"%1" /OUT:"%2" /nologo `
	case FamilyUnix:
		return `"%1" -o "%2" `
	}
	return " "
}

// librarianOptions returns the flags passed to the archiver.
func (t *Toolchain) librarianOptions() string {
	switch t.Family() {
	case FamilyUnix:
		return `qc "%2" "%1"`
	default:
		return `"%1" /OUT:"%2" /nologo `
	}
}

// sharedLinkFlag is the linker flag that turns a link into a shared
// library or loadable module link.
func (t *Toolchain) sharedLinkFlag() string {
	switch t.Family() {
	case FamilyMSVC:
		return " /dll"
	case FamilyUnix:
		return " -shared"
	}
	return ""
}

// linkerCommand returns the executable that drives the final link for a
// target linked with lang.  The Unix family links through the compiler
// driver; the MSVC family invokes the linker directly.
func (t *Toolchain) linkerCommand(lang string) string {
	if t.Family() == FamilyUnix {
		return t.Compiler(lang)
	}
	return t.Linker
}

// objectExtension returns the object-file extension for a source of lang,
// prefixed with the language's own extension so objects from different
// languages in one output directory cannot collide.  Resource-compiler
// inputs produce ".res" regardless of family.
func (t *Toolchain) objectExtension(lang string) string {
	ext := ".obj"
	if t.Family() == FamilyUnix {
		ext = ".o"
	}
	if lang == "RC" {
		ext = ".res"
	}
	if prefix := languageExtension(lang); prefix != "" {
		ext = "." + prefix + ext
	}
	return ext
}

// staticExtension is the import-library / archive extension for the family.
func (t *Toolchain) staticExtension() string {
	if t.Family() == FamilyUnix {
		return ".a"
	}
	return ".lib"
}

// languageExtension maps a language name to its canonical source extension.
func languageExtension(lang string) string {
	switch lang {
	case "C":
		return "c"
	case "CXX":
		return "cpp"
	case "RC":
		return "rc"
	}
	return ""
}

// languageForExtension is the reverse mapping, used to pick a compiler for
// sources whose family differs from the target's link language.
func languageForExtension(ext string) string {
	switch ext {
	case "c":
		return "C"
	case "cpp", "cc", "cxx":
		return "CXX"
	case "rc":
		return "RC"
	}
	return ""
}

// compilerExtraFiles returns the distribution files the MSVC compiler
// needs alongside the main executable when compilation is distributed.
// The list is gated on the compiler version; other families need none.
func (t *Toolchain) compilerExtraFiles() []string {
	if t.Family() != FamilyMSVC {
		return nil
	}

	common := []string{
		"$Root$/c1.dll",
		"$Root$/c1xx.dll",
		"$Root$/c2.dll",
		"$Root$/atlprov.dll",
		"$Root$/msobj140.dll",
		"$Root$/mspdb140.dll",
		"$Root$/mspdbcore.dll",
		"$Root$/mspdbsrv.exe",
		"$Root$/mspft140.dll",
	}

	switch {
	case versionAtLeast(t.CompilerVersion, 19, 20): // VS 2019
		files := append(common,
			"$Root$/msvcp140.dll",
			"$Root$/msvcp140_atomic_wait.dll",
			"$Root$/tbbmalloc.dll",
			"$Root$/vcruntime140.dll",
			"$Root$/1033/mspft140ui.dll",
			"$Root$/1033/clui.dll")
		if t.Architecture == "x64" {
			files = append(files, "$Root$/vcruntime140_1.dll")
		}
		return files
	case versionAtLeast(t.CompilerVersion, 19, 10): // VS 2017
		return append(common,
			"$Root$/msvcp140.dll",
			"$Root$/vcruntime140.dll",
			"$Root$/1033/mspft140ui.dll",
			"$Root$/1033/clui.dll")
	case versionAtLeast(t.CompilerVersion, 19, 0): // VS 2015
		redist := "$Root$/../redist/" + t.Architecture + "/Microsoft.VC140.CRT"
		if t.Architecture == "x64" {
			redist = "$Root$/../../redist/" + t.Architecture + "/Microsoft.VC140.CRT"
		}
		return append(common,
			"$Root$/1033/clui.dll",
			redist+"/msvcp140.dll",
			redist+"/vccorlib140.dll",
			redist+"/vcruntime140.dll")
	}
	return nil
}

// versionAtLeast reports whether a dotted version string is >= major.minor.
func versionAtLeast(version string, major, minor int) bool {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return false
	}
	maj, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	if maj != major {
		return maj > major
	}
	return min >= minor
}
