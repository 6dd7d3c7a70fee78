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

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// Options configures a generation session.
type Options struct {
	// Toolchain describes the resolved compiler/linker identities.
	Toolchain *Toolchain

	// Configs lists the build configurations of this pass.
	Configs []string

	// DefaultConfig selects which configuration owns canonical-name
	// aliases in multi-configuration builds.
	DefaultConfig string

	// MultiConfig selects one output stream per configuration instead of
	// a single shared stream.
	MultiConfig bool

	// Output receives compiler declarations and, for single-configuration
	// builds, all target blocks.
	Output io.StringWriter

	// ConfigOutputs maps each configuration to its output stream.
	// Required when MultiConfig is set.
	ConfigOutputs map[string]io.StringWriter

	// Logger receives diagnostics.  Defaults to a nop logger.
	Logger log.Logger
}

// A Session owns all mutable state of one generation pass: the dependency
// ledger, the per-language compiler memo, accumulated aliases and deferred
// function records, and the output writers.  Sessions are not safe for
// concurrent use; the whole pass runs synchronously.
type Session struct {
	toolchain     *Toolchain
	configs       []string
	defaultConfig string
	multiConfig   bool
	logger        log.Logger

	common   *bffWriter
	byConfig map[string]*bffWriter

	// ledger is keyed by target name + config.  ledgerOrder keeps
	// registration order for deterministic iteration.
	ledger      map[string]*ledgerEntry
	ledgerOrder []string

	// compilersWritten memoizes which languages already have a Compiler
	// declaration; declarations are emitted once per language.
	compilersWritten map[string]bool

	functions []*functionDef

	aliases    map[string]*aliasDef
	aliasOrder []string

	readyQueue           []string
	unregisteredResolved bool
	finalized            bool

	targetErrs []error
}

// NewSession creates a session for one generation pass.
func NewSession(options Options) (*Session, error) {
	if options.Toolchain == nil {
		return nil, errors.New("session requires a toolchain")
	}
	if options.Output == nil {
		return nil, errors.New("session requires an output stream")
	}
	if len(options.Configs) == 0 {
		return nil, errors.New("session requires at least one configuration")
	}

	s := &Session{
		toolchain:        options.Toolchain,
		configs:          options.Configs,
		defaultConfig:    options.DefaultConfig,
		multiConfig:      options.MultiConfig,
		logger:           options.Logger,
		common:           newBffWriter(options.Output),
		byConfig:         make(map[string]*bffWriter),
		ledger:           make(map[string]*ledgerEntry),
		compilersWritten: make(map[string]bool),
		aliases:          make(map[string]*aliasDef),
	}
	if s.logger == nil {
		s.logger = log.NewNopLogger()
	}
	if s.defaultConfig == "" {
		s.defaultConfig = options.Configs[0]
	}

	if options.MultiConfig {
		for _, config := range options.Configs {
			out, ok := options.ConfigOutputs[config]
			if !ok {
				return nil, errors.Errorf("multi-config session missing output stream for %q", config)
			}
			s.byConfig[config] = newBffWriter(out)
		}
	}

	return s, nil
}

// writerFor returns the stream a configuration's target blocks go to.
func (s *Session) writerFor(config string) *bffWriter {
	if s.multiConfig {
		return s.byConfig[config]
	}
	return s.common
}

// rulesWriter returns the stream compiler declarations go to.
func (s *Session) rulesWriter() *bffWriter {
	return s.common
}

// AddTarget registers a target for a configuration and generates it
// immediately if all its prerequisites have finished.  Completion cascades
// into generation of any dependent that becomes ready.
//
// A target whose linker language cannot be determined is rejected with an
// error and produces no blocks; the session remains usable for other
// targets.
func (s *Session) AddTarget(t Target, config string) error {
	if s.finalized {
		return errors.New("AddTarget after Finalize")
	}

	if t.LinkerLanguage(config) == "" {
		err := errors.Errorf("can not determine linker language for target: %s", t.Name())
		level.Error(s.logger).Log("msg", "skipping target", "target", t.Name(), "config", config, "err", err)
		s.targetErrs = append(s.targetErrs, err)
		return err
	}

	key := s.register(t, config)
	if !s.canGenerate(key) {
		return nil
	}

	if err := s.generateTarget(s.ledger[key]); err != nil {
		return err
	}
	s.markFinished(key)
	return s.drainReady()
}

// Finalize runs the catch-up sweeps, flushes the deferred function
// invocations and aliases, and reports every entry that never finished.
// It must be called exactly once, after all AddTarget calls.
func (s *Session) Finalize() error {
	if s.finalized {
		return errors.New("Finalize called twice")
	}
	s.finalized = true

	s.resolveUnregisteredDependencies()
	if err := s.forceRemaining(); err != nil {
		return err
	}

	if err := s.writeFunctions(); err != nil {
		return errors.Wrap(err, "writing function invocations")
	}
	if err := s.writeAliases(); err != nil {
		return errors.Wrap(err, "writing aliases")
	}
	return s.reportUnfinished()
}

// Errors returns the per-target diagnostics recorded during the pass.
func (s *Session) Errors() []error {
	return s.targetErrs
}

func (s *Session) addFunction(def *functionDef) {
	s.functions = append(s.functions, def)
}

// addAlias records an alias; the first registration of a name wins.
func (s *Session) addAlias(name string, targets []string, config string, excludeFromAll bool) {
	if _, present := s.aliases[name]; present {
		return
	}
	s.aliases[name] = &aliasDef{
		Name:           name,
		Targets:        targets,
		Config:         config,
		ExcludeFromAll: excludeFromAll,
	}
	s.aliasOrder = append(s.aliasOrder, name)
}

// writeFunctions flushes the deferred function invocations in generation
// order, each to its configuration's stream.
func (s *Session) writeFunctions() error {
	headerDone := make(map[*bffWriter]bool)
	for _, def := range s.functions {
		w := s.writerFor(def.Config)
		if !headerDone[w] {
			if err := w.SectionHeader("Build targets"); err != nil {
				return err
			}
			headerDone[w] = true
		}
		if err := def.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

// writeAliases flushes the accumulated aliases plus the synthesized "all"
// and "other" aliases.  With multi-configuration output each stream gets
// its own configuration's aliases.
func (s *Session) writeAliases() error {
	if !s.multiConfig {
		w := s.common
		if err := w.SectionHeader("Target aliases"); err != nil {
			return err
		}
		var all, other []string
		for _, name := range s.aliasOrder {
			alias := s.aliases[name]
			if err := alias.WriteTo(w); err != nil {
				return err
			}
			if alias.ExcludeFromAll {
				other = append(other, name)
			} else {
				all = append(all, name)
			}
		}
		return s.writeSummaryAliases(w, all, other)
	}

	for _, config := range s.configs {
		w := s.byConfig[config]
		if err := w.SectionHeader("Target aliases : " + config); err != nil {
			return err
		}
		var all, other []string
		for _, name := range s.aliasOrder {
			alias := s.aliases[name]
			if alias.Config != config {
				continue
			}
			if err := alias.WriteTo(w); err != nil {
				return err
			}
			if alias.ExcludeFromAll {
				other = append(other, name)
			} else {
				all = append(all, name)
			}
		}
		if err := s.writeSummaryAliases(w, all, other); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) writeSummaryAliases(w *bffWriter, all, other []string) error {
	allAlias := aliasDef{Name: "all", Targets: all}
	if err := allAlias.WriteTo(w); err != nil {
		return err
	}
	if len(other) > 0 {
		otherAlias := aliasDef{Name: "other", Targets: other}
		return otherAlias.WriteTo(w)
	}
	return nil
}
