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

import "fmt"

// A TargetType classifies a buildable unit.  Only the first five types
// produce build statements; the remainder are declared by the project
// model but have no backing in this backend.
type TargetType int

const (
	Executable TargetType = iota
	StaticLibrary
	SharedLibrary
	ModuleLibrary
	ObjectLibrary
	InterfaceLibrary
	UtilityTarget
	GlobalTarget
	UnknownTarget
)

func (t TargetType) String() string {
	switch t {
	case Executable:
		return "executable"
	case StaticLibrary:
		return "static library"
	case SharedLibrary:
		return "shared library"
	case ModuleLibrary:
		return "module library"
	case ObjectLibrary:
		return "object library"
	case InterfaceLibrary:
		return "interface library"
	case UtilityTarget:
		return "utility"
	case GlobalTarget:
		return "global target"
	default:
		return fmt.Sprintf("unknown target type %d", int(t))
	}
}

// generable reports whether the type produces build statements.
func (t TargetType) generable() bool {
	switch t {
	case Executable, StaticLibrary, SharedLibrary, ModuleLibrary, ObjectLibrary:
		return true
	}
	return false
}

// A Source is one source file of a target together with its fully resolved
// per-source compile settings.  Flag resolution happens upstream; the
// engine only compares the resolved strings when partitioning sources into
// object groups.
type Source struct {
	// Path is the full path to the source file.
	Path string

	// Extension is the source file extension without the dot ("c", "cpp",
	// "rc", ...).
	Extension string

	// ObjectPath is the object file path relative to the target's object
	// directory.  Its directory component decides grouping.
	ObjectPath string

	// Flags, Defines and Includes are the resolved compile settings for
	// this source, already rendered as command-line fragments.
	Flags    string
	Defines  string
	Includes string
}

// A Target is a buildable unit owned by the upstream project model.  All
// methods are read-only queries; the returned data must stay stable for
// the lifetime of a generation pass.  Per-configuration queries take the
// configuration name.
type Target interface {
	// Name returns the project-level target name.
	Name() string

	// Type returns the target classification.
	Type() TargetType

	// LinkerLanguage returns the language whose toolchain drives the final
	// link, or "" if upstream could not determine one.
	LinkerLanguage(config string) string

	// Sources returns the target's source files in project order with
	// resolved per-source settings.
	Sources(config string) []Source

	// LinkDependencies returns the link-time dependency list as file
	// paths (other targets' artifacts or external libraries).
	LinkDependencies(config string) []string

	// LinkFlags returns the resolved target-level linker flags.
	LinkFlags(config string) string

	// LinkLibraries returns the resolved link-libraries command fragment.
	LinkLibraries(config string) string

	// OutputDir returns the directory the final artifact lands in.
	OutputDir(config string) string

	// OutputName returns the full artifact file name, extension included.
	OutputName(config string) string

	// ObjectDir returns the directory object files are written under.
	ObjectDir(config string) string

	// ImportLibraryDir returns the directory for import libraries and
	// archives produced alongside shared artifacts.
	ImportLibraryDir(config string) string

	// PreBuildDependencies returns names of generated-source producers
	// that must run before this target compiles.
	PreBuildDependencies(config string) []string
}
