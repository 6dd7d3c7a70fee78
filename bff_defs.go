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
	"github.com/pkg/errors"
)

// A compilerDef describes a Compiler() declaration.  Compilers are
// declared once per language and referenced by name from compiler-config
// structs.
type compilerDef struct {
	Name       string
	Executable string
	// Family is set for compilers the build executor has no built-in
	// support for ("custom").
	Family string
	// Root and ExtraFiles describe the files shipped to remote workers
	// when compilation is distributed.
	Root       string
	ExtraFiles []string
}

func (d *compilerDef) WriteTo(w *bffWriter) error {
	if d.Executable == "" {
		return errors.Errorf("compiler %q has no executable", d.Name)
	}

	if err := w.SectionHeader("Compiler " + quote(d.Name)); err != nil {
		return err
	}
	if err := w.Command("Compiler", quote(d.Name)); err != nil {
		return err
	}
	if err := w.PushScope(); err != nil {
		return err
	}
	if err := w.Variable("Executable", quote(d.Executable)); err != nil {
		return err
	}
	if d.Family != "" {
		if err := w.Variable("CompilerFamily", quote(d.Family)); err != nil {
			return err
		}
	}
	if d.Root != "" {
		if err := w.Variable("Root", quote(d.Root)); err != nil {
			return err
		}
	}
	if len(d.ExtraFiles) > 0 {
		if err := w.Array("ExtraFiles", quoteList(d.ExtraFiles)); err != nil {
			return err
		}
	}
	return w.PopScope()
}

// A compilerConfigDef is the per-target struct variable carrying the
// compile/link tool settings the target's blocks pull in with Using().
type compilerConfigDef struct {
	VarName          string
	Compiler         string
	CompilerOptions  string
	Librarian        string
	LibrarianOptions string
	Linker           string
	LinkerOptions    string
}

func (d *compilerConfigDef) WriteTo(w *bffWriter) error {
	if d.VarName == "" {
		return errors.New("compiler config with no variable name")
	}

	if err := w.SectionHeader("Info Compilers"); err != nil {
		return err
	}
	if err := w.Variable(d.VarName, ""); err != nil {
		return err
	}
	if err := w.PushStruct(); err != nil {
		return err
	}
	vars := []struct{ name, value string }{
		{"Compiler", quote(d.Compiler)},
		{"CompilerOptions", quote(d.CompilerOptions)},
		{"Librarian", quote(d.Librarian)},
		{"LibrarianOptions", quote(d.LibrarianOptions)},
		{"Linker", quote(d.Linker)},
		{"LinkerOptions", quote(d.LinkerOptions)},
	}
	for _, v := range vars {
		if err := w.Variable(v.name, v.value); err != nil {
			return err
		}
	}
	return w.PopScope()
}

// An objectListDef describes one object group: the struct variable backing
// an ObjectList() invocation for a contiguous run of sources compiled with
// identical settings.
type objectListDef struct {
	VarName string

	// Either Compiler (with Options) or UsingVar is set: cross-family
	// sources get an explicit compiler, everything else pulls in the
	// target's compiler-config struct.
	Compiler string
	Options  string
	UsingVar string

	// ExtraOptions are appended to the options the Using struct brought
	// into scope.
	ExtraOptions string

	InputFiles      []string
	OutputPath      string
	OutputExtension string
}

func (d *objectListDef) WriteTo(w *bffWriter) error {
	if d.VarName == "" {
		return errors.New("object list with no variable name")
	}
	if d.Compiler == "" && d.UsingVar == "" {
		return errors.Errorf("object list %q has neither compiler nor config struct", d.VarName)
	}

	if err := w.Variable(d.VarName, ""); err != nil {
		return err
	}
	if err := w.PushStruct(); err != nil {
		return err
	}
	if d.Compiler != "" {
		if err := w.Variable("Compiler", quote(d.Compiler)); err != nil {
			return err
		}
	}
	if d.UsingVar != "" {
		if err := w.Command("Using", "."+d.UsingVar); err != nil {
			return err
		}
	}
	if d.Options != "" {
		if err := w.Variable("CompilerOptions", quote(d.Options)); err != nil {
			return err
		}
	}
	if d.ExtraOptions != "" {
		if err := w.AppendVariable("CompilerOptions", quote(d.ExtraOptions)); err != nil {
			return err
		}
	}
	if err := w.Array("CompilerInputFiles", quoteList(d.InputFiles)); err != nil {
		return err
	}
	if err := w.Variable("CompilerOutputPath", quote(d.OutputPath)); err != nil {
		return err
	}
	if err := w.Variable("CompilerOutputExtension", quote(d.OutputExtension)); err != nil {
		return err
	}
	return w.PopScope()
}

// A linkerDef is the struct variable behind an Executable() or DLL()
// invocation.
type linkerDef struct {
	VarName  string
	UsingVar string
	Linker   string
	Output   string
	Options  string
}

func (d *linkerDef) WriteTo(w *bffWriter) error {
	if d.VarName == "" {
		return errors.New("linker block with no variable name")
	}
	if d.Output == "" {
		return errors.Errorf("linker block %q has no output", d.VarName)
	}

	if err := w.Variable(d.VarName, ""); err != nil {
		return err
	}
	if err := w.PushStruct(); err != nil {
		return err
	}
	if d.UsingVar != "" {
		if err := w.Command("Using", "."+d.UsingVar); err != nil {
			return err
		}
	}
	if err := w.Variable("Linker", quote(d.Linker)); err != nil {
		return err
	}
	if err := w.Variable("LinkerOutput", quote(d.Output)); err != nil {
		return err
	}
	if err := w.Variable("LinkerOptions", quote(d.Options)); err != nil {
		return err
	}
	return w.PopScope()
}

// A librarianDef is the struct variable behind a Library() invocation.
type librarianDef struct {
	VarName  string
	UsingVar string
	Output   string
	// Librarian and Options override what the Using struct brought in;
	// usually empty.
	Librarian string
	Options   string
}

func (d *librarianDef) WriteTo(w *bffWriter) error {
	if d.VarName == "" {
		return errors.New("librarian block with no variable name")
	}
	if d.Output == "" {
		return errors.Errorf("librarian block %q has no output", d.VarName)
	}

	if err := w.Variable(d.VarName, ""); err != nil {
		return err
	}
	if err := w.PushStruct(); err != nil {
		return err
	}
	if d.UsingVar != "" {
		if err := w.Command("Using", "."+d.UsingVar); err != nil {
			return err
		}
	}
	if err := w.Variable("LibrarianOutput", quote(d.Output)); err != nil {
		return err
	}
	if d.Librarian != "" {
		if err := w.Variable("Librarian", quote(d.Librarian)); err != nil {
			return err
		}
	}
	if d.Options != "" {
		if err := w.Variable("LibrarianOptions", quote(d.Options)); err != nil {
			return err
		}
	}
	return w.PopScope()
}

// A functionKind selects which build-description function a deferred
// record invokes.
type functionKind int

const (
	funcObjectList functionKind = iota
	funcExecutable
	funcLibrary
	funcDLL
)

func (k functionKind) String() string {
	switch k {
	case funcObjectList:
		return "ObjectList"
	case funcExecutable:
		return "Executable"
	case funcLibrary:
		return "Library"
	case funcDLL:
		return "DLL"
	default:
		return "Unknown"
	}
}

// A functionDef is a deferred function invocation.  Struct variables are
// written inline during target generation; the invocations that consume
// them are collected on the session and flushed at end of pass, in
// generation order.
type functionDef struct {
	Kind     functionKind
	Name     string
	UsingVar string
	// Inputs are the object groups (executables), the companion archive
	// (dynamic libraries) or the librarian inputs (static libraries).
	Inputs []string
	// PreBuild names targets that must exist before this one builds.
	PreBuild []string
	Config   string
}

func (d *functionDef) WriteTo(w *bffWriter) error {
	if d.Name == "" {
		return errors.Errorf("%s invocation with no name", d.Kind)
	}

	if err := w.Command(d.Kind.String(), quote(d.Name)); err != nil {
		return err
	}
	if err := w.PushScope(); err != nil {
		return err
	}
	if d.UsingVar != "" {
		if err := w.Command("Using", "."+d.UsingVar); err != nil {
			return err
		}
	}
	switch d.Kind {
	case funcExecutable, funcDLL:
		if err := w.Variable("Libraries", quoteSet(d.Inputs)); err != nil {
			return err
		}
	case funcLibrary:
		if len(d.Inputs) > 0 {
			if err := w.Variable("LibrarianAdditionalInputs", quoteSet(d.Inputs)); err != nil {
				return err
			}
		}
	}
	if len(d.PreBuild) > 0 {
		if err := w.Variable("PreBuildDependencies", quoteSet(d.PreBuild)); err != nil {
			return err
		}
	}
	return w.PopScope()
}

// An aliasDef maps a convenience name to concrete target names.  Aliases
// accumulate during generation and are flushed once at end of pass;
// ExcludeFromAll keeps an alias out of the synthesized "all" alias.
type aliasDef struct {
	Name           string
	Targets        []string
	Config         string
	ExcludeFromAll bool
}

func (d *aliasDef) WriteTo(w *bffWriter) error {
	if d.Name == "" {
		return errors.New("alias with no name")
	}

	if err := w.Command("Alias", quote(d.Name)); err != nil {
		return err
	}
	if err := w.PushScope(); err != nil {
		return err
	}
	if err := w.Variable("Targets", quoteSet(d.Targets)); err != nil {
		return err
	}
	return w.PopScope()
}
