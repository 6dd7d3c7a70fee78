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

import "github.com/google/bffgen/nametools"

// A ledgerEntry tracks one (target, configuration) pair through the pass:
// which prerequisites it declared, how many of them are still unfinished,
// and whether its own generation has run.  Entries are created once at
// registration and never destroyed; outstanding and finished are the only
// fields mutated afterwards, exclusively by the scheduler.
type ledgerEntry struct {
	key    string
	config string

	// dependencyNames holds the canonicalized, deduplicated keys of the
	// targets this entry must wait for.
	dependencyNames []string

	// outstanding counts prerequisites not yet finished.  Until the
	// unregistered-dependency sweep runs it is an upper bound: a
	// dependency with no ledger entry is counted optimistically on the
	// assumption it may still register.
	outstanding int

	finished bool

	target Target

	// artifactName is the emitted name of the entry's final artifact
	// block, filled in by the generator.  Dependents use it to reference
	// the artifact and its deps alias.
	artifactName string
}

// targetKey builds the ledger key for a target name and configuration.
func targetKey(name, config string) string {
	return name + config
}

// register creates the ledger entry for (t, config) and returns its key.
// Repeated registration of the same key is a no-op preserving the first
// registration's prerequisite list.
func (s *Session) register(t Target, config string) string {
	key := targetKey(t.Name(), config)
	if _, present := s.ledger[key]; present {
		return key
	}

	unixNaming := s.toolchain.Family() == FamilyUnix
	var depNames []string
	for _, dep := range t.LinkDependencies(config) {
		depNames = append(depNames, nametools.DependencyKey(dep, unixNaming, config))
	}
	depNames = nametools.SortedUniqueNames(depNames)

	entry := &ledgerEntry{
		key:             key,
		config:          config,
		dependencyNames: depNames,
		target:          t,
	}
	entry.outstanding = s.countUnfinished(key, depNames)

	s.ledger[key] = entry
	s.ledgerOrder = append(s.ledgerOrder, key)
	return key
}

// countUnfinished computes the initial outstanding count for an entry with
// the given dependency keys.  Registered, unfinished dependencies count;
// unregistered dependencies also count, optimistically, since they may be
// registered later in the pass (the unregistered-dependency sweep corrects
// the ones that never are).  A dependency on the entry's own key is
// ignored so a self-referential target cannot deadlock the pass.
func (s *Session) countUnfinished(key string, depNames []string) int {
	count := 0
	for _, dep := range depNames {
		if dep == key {
			continue
		}
		if entry, present := s.ledger[dep]; present {
			if !entry.finished {
				count++
			}
		} else {
			count++
		}
	}
	return count
}
