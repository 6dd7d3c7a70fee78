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
	"fmt"
	"strings"

	"github.com/go-kit/kit/log/level"
	"github.com/google/bffgen/nametools"
)

// generateTarget emits every block for one ready ledger entry: compiler
// declarations (once per language), the per-target compiler-config struct,
// the object groups, and the type-specific artifact block with its
// aliases.  All writes for the entry happen within this call, so blocks of
// different targets never interleave.
func (s *Session) generateTarget(e *ledgerEntry) error {
	t := e.target
	config := e.config
	lang := t.LinkerLanguage(config)

	if err := s.writeCompilerBlocks(t, lang, config); err != nil {
		return err
	}

	if !t.Type().generable() {
		header := fmt.Sprintf("NOT YET AVAILABLE : %s : %s",
			strings.ToUpper(t.Type().String()), t.Name())
		return s.writerFor(config).SectionHeader(header)
	}

	short := s.shortName(t, config)

	var err error
	switch t.Type() {
	case Executable:
		var groups []string
		groups, err = s.writeObjectGroups(e, short, false)
		if err == nil {
			err = s.writeExecutable(e, short, groups)
		}
	case StaticLibrary:
		var groups []string
		groups, err = s.writeObjectGroups(e, short, false)
		if err == nil {
			_, err = s.writeStaticLibrary(e, short, groups, false)
		}
	case SharedLibrary:
		err = s.writeSharedLibrary(e, short, "")
	case ModuleLibrary:
		note := "NOT TOTALLY AVAILABLE : MODULE LIBRARY : " + t.Name()
		err = s.writeSharedLibrary(e, short, note)
	case ObjectLibrary:
		_, err = s.writeObjectGroups(e, short, true)
	}
	if err != nil {
		return err
	}

	level.Debug(s.logger).Log("msg", "generated target", "target", e.key)
	return nil
}

// shortName derives the identifier stem for a target's blocks from its
// artifact file name.  On Unix-convention toolchains the "lib" file
// prefix of library artifacts is not part of the name.
func (s *Session) shortName(t Target, config string) string {
	name := t.OutputName(config)
	if name == "" {
		name = t.Name()
	}
	name = nametools.BaseName(name)
	if s.toolchain.Family() == FamilyUnix {
		switch t.Type() {
		case StaticLibrary, SharedLibrary, ModuleLibrary:
			name = strings.TrimPrefix(name, "lib")
		}
	}
	return nametools.SanitizeIdentifier(name)
}

// decoratedName appends the block-kind suffix and, for multi-configuration
// builds, the configuration name.
func (s *Session) decoratedName(short, kind, config string) string {
	name := short + "_" + kind
	if s.multiConfig {
		name += "_" + config
	}
	return name
}

// compilerVarName names the per-target compiler-config struct variable.
func (s *Session) compilerVarName(t Target, lang, config string) string {
	return "Compiler" + lang + config + nametools.SanitizeIdentifier(t.Name())
}

// writeCompilerBlocks declares the compilers a target needs and its
// compiler-config struct.  Compiler declarations are memoized per
// language; C, CXX and RC are declared eagerly when resolved, because
// sources of those families can appear in targets of any link language.
func (s *Session) writeCompilerBlocks(t Target, lang, config string) error {
	w := s.rulesWriter()

	for _, eager := range []string{"C", "CXX", "RC"} {
		if s.compilersWritten[eager] {
			continue
		}
		executable := s.toolchain.Compiler(eager)
		if executable == "" {
			continue
		}
		def := compilerDef{Name: eager, Executable: executable}
		if eager == "RC" {
			// The build executor has no built-in resource compiler
			// support.
			def.Family = "custom"
		} else if s.toolchain.Family() == FamilyMSVC {
			def.Root = nametools.DirPrefix(executable)
			def.ExtraFiles = s.toolchain.compilerExtraFiles()
		}
		if err := def.WriteTo(w); err != nil {
			return err
		}
		s.compilersWritten[eager] = true
	}

	if !s.compilersWritten[lang] {
		def := compilerDef{Name: lang, Executable: s.toolchain.Compiler(lang)}
		if err := def.WriteTo(w); err != nil {
			return err
		}
		s.compilersWritten[lang] = true
	}

	cfg := compilerConfigDef{
		VarName:          s.compilerVarName(t, lang, config),
		Compiler:         lang,
		CompilerOptions:  s.toolchain.compileOptions(lang),
		Librarian:        s.toolchain.Archiver,
		LibrarianOptions: s.toolchain.librarianOptions(),
		Linker:           s.toolchain.Linker,
		LinkerOptions:    s.toolchain.linkOptions() + s.toolchain.ExtraLinkFlags,
	}
	return cfg.WriteTo(w)
}

// An objectGroup is a contiguous run of a target's sources sharing
// identical resolved compile settings, output subdirectory and source
// extension.
type objectGroup struct {
	options string
	subdir  string
	ext     string
	lang    string
	files   []string
}

// groupSources partitions a target's sources into object groups.  The
// partition is order-preserving: settings recurring after an intervening
// different source start a fresh group rather than merging with the
// earlier one.
func (s *Session) groupSources(t Target, lang, config string) []objectGroup {
	unixNaming := s.toolchain.Family() == FamilyUnix

	var groups []objectGroup
	for _, src := range t.Sources(config) {
		defines := src.Defines
		if unixNaming {
			defines = nametools.StripDefineEscapes(defines)
		}
		options := src.Flags + " " + defines + " " + src.Includes
		subdir := nametools.DirPrefix(src.ObjectPath)

		srcLang := lang
		if l := languageForExtension(src.Extension); l != "" && l != lang {
			srcLang = l
		}

		n := len(groups)
		if n == 0 || groups[n-1].options != options ||
			groups[n-1].subdir != subdir || groups[n-1].ext != src.Extension {
			groups = append(groups, objectGroup{
				options: options,
				subdir:  subdir,
				ext:     src.Extension,
				lang:    srcLang,
			})
			n++
		}
		groups[n-1].files = append(groups[n-1].files, src.Path)
	}
	return groups
}

// writeObjectGroups emits one object-list block per group and returns the
// group names.  Object libraries additionally get an aggregate deps alias
// since they have no artifact block of their own.
func (s *Session) writeObjectGroups(e *ledgerEntry, short string, isObjectLibrary bool) ([]string, error) {
	t := e.target
	config := e.config
	w := s.writerFor(config)
	lang := t.LinkerLanguage(config)

	header := t.Name()
	if s.multiConfig {
		header = t.Name() + " : " + config
	}
	if err := w.SectionHeader(header); err != nil {
		return nil, err
	}

	objBase := s.decoratedName(short, "obj", config)
	preBuild := t.PreBuildDependencies(config)

	var names []string
	for i, group := range s.groupSources(t, lang, config) {
		name := fmt.Sprintf("%s_%d", objBase, i+1)
		def := objectListDef{
			VarName:         "Obj" + name,
			InputFiles:      group.files,
			OutputPath:      t.ObjectDir(config) + group.subdir,
			OutputExtension: s.toolchain.objectExtension(group.lang),
		}
		if group.lang != lang {
			// A source whose family differs from the link language
			// compiles with that family's compiler and default options
			// instead of the target's compiler config.
			def.Compiler = group.lang
			def.Options = s.toolchain.compileOptions(group.lang)
		} else {
			def.UsingVar = s.compilerVarName(t, lang, config)
			def.ExtraOptions = group.options
		}
		if err := def.WriteTo(w); err != nil {
			return nil, err
		}
		s.addFunction(&functionDef{
			Kind:     funcObjectList,
			Name:     name,
			UsingVar: "Obj" + name,
			PreBuild: preBuild,
			Config:   config,
		})
		names = append(names, name)
	}

	if isObjectLibrary {
		s.addAlias(objBase+"_deps", names, config, false)
		e.artifactName = objBase
	}
	return names, nil
}

// linkTargetNames resolves a target's link dependencies to the artifact
// names of the tracked targets producing them.  Dependencies without a
// ledger entry are external libraries; they reach the link line through
// the resolved link-libraries fragment, not as tracked inputs.
func (s *Session) linkTargetNames(t Target, config string) []string {
	unixNaming := s.toolchain.Family() == FamilyUnix

	var names []string
	for _, dep := range t.LinkDependencies(config) {
		key := nametools.DependencyKey(dep, unixNaming, config)
		entry := s.ledger[key]
		if entry == nil {
			continue
		}
		name := entry.artifactName
		if name == "" {
			// Forced generation can run while a cyclic prerequisite has
			// not generated; derive the name it would carry.
			name = nametools.LibraryTargetName(dep, unixNaming, s.multiConfig, config)
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return nametools.FirstUniqueNames(names)
}

// depsAliases maps artifact names to their deps-alias names.
func depsAliases(names []string) []string {
	aliases := make([]string, 0, len(names))
	for _, name := range names {
		aliases = append(aliases, name+"_deps")
	}
	return aliases
}

// linkOptions builds the final link option string for a target: the family
// template, the import-library spelling for the MSVC family, the resolved
// target flags and libraries, and the shared flag when linking a dynamic
// artifact.
func (s *Session) linkOptions(t Target, config, short string, shared bool) string {
	options := s.toolchain.linkOptions()
	if s.toolchain.Family() == FamilyMSVC {
		implib := t.ImportLibraryDir(config) + "/" + short + s.toolchain.staticExtension()
		options += "/implib:" + implib + " "
	}
	options += t.LinkFlags(config) + " " + t.LinkLibraries(config)
	if shared {
		options += s.toolchain.sharedLinkFlag()
	}
	if s.toolchain.ExtraLinkFlags != "" {
		options += " " + s.toolchain.ExtraLinkFlags
	}
	return options
}

// writeExecutable emits the link block for an executable plus its two
// alias records: the unconditional per-target deps alias, and for the
// default (or only) configuration the canonical-name alias pointing at the
// artifact.
func (s *Session) writeExecutable(e *ledgerEntry, short string, groups []string) error {
	t := e.target
	config := e.config
	w := s.writerFor(config)
	lang := t.LinkerLanguage(config)

	exeName := s.decoratedName(short, "exe", config)
	deps := s.linkTargetNames(t, config)

	def := linkerDef{
		VarName:  "Exe" + exeName,
		UsingVar: s.compilerVarName(t, lang, config),
		Linker:   s.toolchain.linkerCommand(lang),
		Output:   t.OutputDir(config) + "/" + t.OutputName(config),
		Options:  s.linkOptions(t, config, short, false),
	}
	if err := def.WriteTo(w); err != nil {
		return err
	}

	inputs := append(append([]string(nil), groups...), deps...)
	preBuild := append(append([]string(nil), t.PreBuildDependencies(config)...), deps...)
	s.addFunction(&functionDef{
		Kind:     funcExecutable,
		Name:     exeName,
		UsingVar: "Exe" + exeName,
		Inputs:   inputs,
		PreBuild: preBuild,
		Config:   config,
	})

	aliasTargets := append(depsAliases(deps), exeName)
	s.addAlias(exeName+"_deps", aliasTargets, config, false)
	if !s.multiConfig || config == s.defaultConfig {
		s.addAlias(t.Name(), []string{exeName}, config, true)
	}

	e.artifactName = exeName
	return nil
}

// writeStaticLibrary emits the librarian block.  For a static-library
// target it also records the deps alias chaining the dependency aliases
// plus the library itself; as the companion step of a dynamic link it only
// produces the archive.
func (s *Session) writeStaticLibrary(e *ledgerEntry, short string, groups []string, companion bool) (string, error) {
	t := e.target
	config := e.config
	w := s.writerFor(config)
	lang := t.LinkerLanguage(config)

	kind := "lib"
	if companion {
		kind = "slib"
	}
	libName := s.decoratedName(short, kind, config)

	output := t.ImportLibraryDir(config) + "/" + t.OutputName(config)
	if companion {
		output = t.ImportLibraryDir(config) + "/" + short + s.toolchain.staticExtension()
	}

	def := librarianDef{
		VarName:  "Lib" + libName,
		UsingVar: s.compilerVarName(t, lang, config),
		Output:   output,
	}
	if err := def.WriteTo(w); err != nil {
		return "", err
	}

	deps := s.linkTargetNames(t, config)
	preBuild := append(append([]string(nil), t.PreBuildDependencies(config)...), deps...)
	s.addFunction(&functionDef{
		Kind:     funcLibrary,
		Name:     libName,
		UsingVar: "Lib" + libName,
		Inputs:   groups,
		PreBuild: preBuild,
		Config:   config,
	})

	if !companion {
		aliasTargets := append(depsAliases(deps), libName)
		s.addAlias(libName+"_deps", aliasTargets, config, false)
		e.artifactName = libName
	}
	return libName, nil
}

// writeSharedLibrary emits a dynamic artifact: the object groups, the
// companion archive via the librarian path, and the dynamic-link block
// layering in the family's shared flag.  note, when non-empty, is written
// ahead of everything for types with partial support.
func (s *Session) writeSharedLibrary(e *ledgerEntry, short string, note string) error {
	t := e.target
	config := e.config
	w := s.writerFor(config)
	lang := t.LinkerLanguage(config)

	if note != "" {
		if err := w.SectionHeader(note); err != nil {
			return err
		}
	}

	groups, err := s.writeObjectGroups(e, short, false)
	if err != nil {
		return err
	}
	libName, err := s.writeStaticLibrary(e, short, groups, true)
	if err != nil {
		return err
	}

	dllName := s.decoratedName(short, "dll", config)
	deps := s.linkTargetNames(t, config)

	def := linkerDef{
		VarName: "Dll" + dllName,
		Linker:  s.toolchain.linkerCommand(lang),
		Output:  t.OutputDir(config) + "/" + t.OutputName(config),
		Options: s.linkOptions(t, config, short, true),
	}
	if err := def.WriteTo(w); err != nil {
		return err
	}

	preBuild := append(append([]string(nil), t.PreBuildDependencies(config)...), deps...)
	preBuild = append(preBuild, libName)
	s.addFunction(&functionDef{
		Kind:     funcDLL,
		Name:     dllName,
		UsingVar: "Dll" + dllName,
		Inputs:   []string{libName},
		PreBuild: preBuild,
		Config:   config,
	})

	aliasTargets := append(depsAliases(deps), dllName)
	s.addAlias(dllName+"_deps", aliasTargets, config, false)

	e.artifactName = dllName
	return nil
}
