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

// genbff reads a YAML project description and writes the FASTBuild build
// description file(s) for it.
package main

import (
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v2"

	"github.com/google/bffgen"
)

var (
	projectFile = kingpin.Flag("project", "Path to the YAML project description.").
			Required().ExistingFile()
	outputFile = kingpin.Flag("output", "Output file.  Multi-configuration projects write one file per configuration, suffixed with the configuration name.").
			Default("fbuild.bff").String()
	logLevel = kingpin.Flag("log.level", "Log messages with the given severity or above.  One of: [debug, info, warn, error]").
			Default("info").Enum("debug", "info", "warn", "error")
)

func main() {
	kingpin.Version("genbff 1.0.0")
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = levelFilter(logger, *logLevel)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	if err := run(logger, *projectFile, *outputFile); err != nil {
		level.Error(logger).Log("msg", "generation failed", "err", err)
		os.Exit(1)
	}
}

func levelFilter(logger log.Logger, lvl string) log.Logger {
	switch lvl {
	case "debug":
		return level.NewFilter(logger, level.AllowDebug())
	case "warn":
		return level.NewFilter(logger, level.AllowWarn())
	case "error":
		return level.NewFilter(logger, level.AllowError())
	default:
		return level.NewFilter(logger, level.AllowInfo())
	}
}

func run(logger log.Logger, projectPath, outputPath string) error {
	project, err := loadProject(projectPath)
	if err != nil {
		return err
	}

	options := bffgen.Options{
		Toolchain:     project.toolchain(),
		Configs:       project.Configs,
		DefaultConfig: project.DefaultConfig,
		MultiConfig:   len(project.Configs) > 1,
		Logger:        logger,
	}

	common, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	defer common.Close()
	options.Output = common

	var configFiles []*os.File
	if options.MultiConfig {
		options.ConfigOutputs = make(map[string]io.StringWriter, len(project.Configs))
		for _, config := range project.Configs {
			f, err := os.Create(configFileName(outputPath, config))
			if err != nil {
				return errors.Wrapf(err, "creating output file for %s", config)
			}
			configFiles = append(configFiles, f)
			options.ConfigOutputs[config] = f
		}
	}
	defer func() {
		for _, f := range configFiles {
			f.Close()
		}
	}()

	session, err := bffgen.NewSession(options)
	if err != nil {
		return err
	}

	for _, config := range project.Configs {
		for i := range project.Targets {
			// Per-target failures are collected by the session; they
			// spoil the exit status but not the remaining targets.
			session.AddTarget(&project.Targets[i], config)
		}
	}
	if err := session.Finalize(); err != nil {
		return err
	}

	if errs := session.Errors(); len(errs) > 0 {
		return errors.Errorf("%d target(s) failed to generate", len(errs))
	}

	level.Info(logger).Log("msg", "wrote build description", "file", outputPath,
		"targets", len(project.Targets), "configs", len(project.Configs))
	return nil
}

// configFileName inserts the configuration name ahead of the extension.
func configFileName(path, config string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 && !strings.ContainsAny(path[i:], "/\\") {
		return path[:i] + "-" + config + path[i:]
	}
	return path + "-" + config
}

// A project is the YAML description genbff consumes: one toolchain, the
// configuration list, and a flat target list.
type project struct {
	Compiler struct {
		ID           string            `yaml:"id"`
		Version      string            `yaml:"version"`
		Architecture string            `yaml:"architecture"`
		Languages    map[string]string `yaml:"languages"`
		Linker       string            `yaml:"linker"`
		Archiver     string            `yaml:"archiver"`
		LinkFlags    string            `yaml:"link_flags"`
	} `yaml:"compiler"`

	Configs       []string        `yaml:"configs"`
	DefaultConfig string          `yaml:"default_config"`
	Targets       []projectTarget `yaml:"targets"`
}

func (p *project) toolchain() *bffgen.Toolchain {
	return &bffgen.Toolchain{
		CompilerID:      p.Compiler.ID,
		CompilerVersion: p.Compiler.Version,
		Architecture:    p.Compiler.Architecture,
		Compilers:       p.Compiler.Languages,
		Linker:          p.Compiler.Linker,
		Archiver:        p.Compiler.Archiver,
		ExtraLinkFlags:  p.Compiler.LinkFlags,
	}
}

func loadProject(path string) (*project, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading project description")
	}
	var p project
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, errors.Wrap(err, "parsing project description")
	}
	if len(p.Configs) == 0 {
		p.Configs = []string{""}
	}
	for i := range p.Targets {
		if p.Targets[i].TargetName == "" {
			return nil, errors.Errorf("target %d has no name", i)
		}
		if _, err := parseTargetType(p.Targets[i].TargetType); err != nil {
			return nil, errors.Wrapf(err, "target %s", p.Targets[i].TargetName)
		}
	}
	return &p, nil
}

// A projectSource mirrors one source-file entry.  ObjectPath carries an
// optional subdirectory prefix for the object file, e.g. "gen/lexer.cpp".
type projectSource struct {
	Path       string `yaml:"path"`
	ObjectPath string `yaml:"object_path"`
	Flags      string `yaml:"flags"`
	Defines    string `yaml:"defines"`
	Includes   string `yaml:"includes"`
}

// A projectTarget is one YAML target entry.  The description is
// configuration-independent; the same settings apply to every
// configuration of the pass.
type projectTarget struct {
	TargetName string          `yaml:"name"`
	TargetType string          `yaml:"type"`
	Language   string          `yaml:"language"`
	SourceList []projectSource `yaml:"sources"`
	DependsOn  []string        `yaml:"dependencies"`
	PreBuild   []string        `yaml:"prebuild"`
	Flags      string          `yaml:"link_flags"`
	Libraries  string          `yaml:"link_libraries"`
	Output     string          `yaml:"output_name"`
	OutDir     string          `yaml:"output_dir"`
	ObjDir     string          `yaml:"object_dir"`
	LibDir     string          `yaml:"library_dir"`
}

func parseTargetType(s string) (bffgen.TargetType, error) {
	switch s {
	case "executable":
		return bffgen.Executable, nil
	case "static_library":
		return bffgen.StaticLibrary, nil
	case "shared_library":
		return bffgen.SharedLibrary, nil
	case "module_library":
		return bffgen.ModuleLibrary, nil
	case "object_library":
		return bffgen.ObjectLibrary, nil
	case "interface_library":
		return bffgen.InterfaceLibrary, nil
	case "utility":
		return bffgen.UtilityTarget, nil
	default:
		return bffgen.UnknownTarget, errors.Errorf("unknown target type %q", s)
	}
}

func (t *projectTarget) Name() string { return t.TargetName }

func (t *projectTarget) Type() bffgen.TargetType {
	typ, err := parseTargetType(t.TargetType)
	if err != nil {
		return bffgen.UnknownTarget
	}
	return typ
}

func (t *projectTarget) LinkerLanguage(config string) string {
	if t.Language != "" {
		return t.Language
	}
	// Infer from the first source extension.
	for _, src := range t.SourceList {
		ext := src.Path
		if i := strings.LastIndexByte(ext, '.'); i >= 0 {
			ext = ext[i+1:]
		}
		switch ext {
		case "c":
			return "C"
		case "cc", "cpp", "cxx":
			return "CXX"
		}
	}
	return ""
}

func (t *projectTarget) Sources(config string) []bffgen.Source {
	sources := make([]bffgen.Source, 0, len(t.SourceList))
	for _, src := range t.SourceList {
		ext := ""
		if i := strings.LastIndexByte(src.Path, '.'); i >= 0 {
			ext = src.Path[i+1:]
		}
		objectPath := src.ObjectPath
		if objectPath == "" {
			objectPath = src.Path
		}
		sources = append(sources, bffgen.Source{
			Path:       src.Path,
			Extension:  ext,
			ObjectPath: objectPath,
			Flags:      expandConfig(src.Flags, config),
			Defines:    expandConfig(src.Defines, config),
			Includes:   expandConfig(src.Includes, config),
		})
	}
	return sources
}

func (t *projectTarget) LinkDependencies(config string) []string { return t.DependsOn }

func (t *projectTarget) LinkFlags(config string) string {
	return expandConfig(t.Flags, config)
}

func (t *projectTarget) LinkLibraries(config string) string {
	return expandConfig(t.Libraries, config)
}

func (t *projectTarget) OutputDir(config string) string {
	return expandConfig(defaulted(t.OutDir, "bin"), config)
}

func (t *projectTarget) OutputName(config string) string {
	return defaulted(t.Output, t.TargetName)
}

func (t *projectTarget) ObjectDir(config string) string {
	return expandConfig(defaulted(t.ObjDir, "obj"), config)
}

func (t *projectTarget) ImportLibraryDir(config string) string {
	return expandConfig(defaulted(t.LibDir, "lib"), config)
}

func (t *projectTarget) PreBuildDependencies(config string) []string { return t.PreBuild }

// expandConfig substitutes $CONFIG so configuration-dependent paths and
// flags can be written once in the description.
func expandConfig(s, config string) string {
	return strings.ReplaceAll(s, "$CONFIG", config)
}

func defaulted(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

var _ bffgen.Target = (*projectTarget)(nil)
