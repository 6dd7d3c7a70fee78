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
)

// canGenerate reports whether an entry exists, has no outstanding
// prerequisites, and has not generated yet.
func (s *Session) canGenerate(key string) bool {
	entry := s.ledger[key]
	return entry != nil && entry.outstanding == 0 && !entry.finished
}

// markFinished records completion of key and decrements the outstanding
// count of every dependent, once per occurrence of key in its dependency
// list.  Entries that reach zero are queued for generation; the queue is
// drained by the caller so completion never recurses into generation.
func (s *Session) markFinished(key string) {
	entry := s.ledger[key]
	if entry == nil || entry.finished {
		return
	}
	entry.finished = true

	for _, otherKey := range s.ledgerOrder {
		if otherKey == key {
			continue
		}
		other := s.ledger[otherKey]
		for _, dep := range other.dependencyNames {
			if dep == key {
				other.outstanding--
			}
		}
	}

	for _, otherKey := range s.ledgerOrder {
		if s.canGenerate(otherKey) {
			s.readyQueue = append(s.readyQueue, otherKey)
		}
	}
}

// drainReady generates queued entries until no more become ready.  A key
// may be queued more than once when several completions ready it; the
// readiness re-check on pop makes the extra passes no-ops, so each entry
// generates at most once.
func (s *Session) drainReady() error {
	for len(s.readyQueue) > 0 {
		key := s.readyQueue[0]
		s.readyQueue = s.readyQueue[1:]

		if !s.canGenerate(key) {
			continue
		}
		if err := s.generateTarget(s.ledger[key]); err != nil {
			return err
		}
		s.markFinished(key)
	}
	return nil
}

// resolveUnregisteredDependencies removes the optimistic count for every
// dependency that never registered in the ledger: such a name refers to
// something outside the tracked target set (an external library, or a
// target excluded from this configuration) and cannot gate generation.
// Runs exactly once, after the organic cascade has stabilized.
func (s *Session) resolveUnregisteredDependencies() {
	if s.unregisteredResolved {
		return
	}
	s.unregisteredResolved = true

	for _, key := range s.ledgerOrder {
		entry := s.ledger[key]
		if entry.finished {
			continue
		}
		for _, dep := range entry.dependencyNames {
			if _, present := s.ledger[dep]; !present {
				entry.outstanding--
			}
		}
	}
}

// forceRemaining generates every entry the unregistered-dependency sweep
// made ready.  This is the backstop that guarantees every target that can
// legally generate, does, regardless of the order targets were added in.
// Entries still blocked afterwards stay unfinished and are reported at end
// of pass.
func (s *Session) forceRemaining() error {
	for _, key := range s.ledgerOrder {
		if !s.canGenerate(key) {
			continue
		}
		if err := s.generateTarget(s.ledger[key]); err != nil {
			return err
		}
		s.markFinished(key)
		if err := s.drainReady(); err != nil {
			return err
		}
	}
	return nil
}

// An UnfinishedTarget describes a ledger entry that never generated:
// either a participant in a dependency cycle among registered targets, or
// a dependent of a target that failed.
type UnfinishedTarget struct {
	Key         string
	Config      string
	Outstanding int
	// Unresolved lists the dependency keys still blocking the entry.
	Unresolved []string
}

// UnfinishedTargets returns every entry that did not finish, in
// registration order.
func (s *Session) UnfinishedTargets() []UnfinishedTarget {
	var result []UnfinishedTarget
	for _, key := range s.ledgerOrder {
		entry := s.ledger[key]
		if entry.finished {
			continue
		}
		var unresolved []string
		for _, dep := range entry.dependencyNames {
			if depEntry, present := s.ledger[dep]; !present || !depEntry.finished {
				unresolved = append(unresolved, dep)
			}
		}
		result = append(result, UnfinishedTarget{
			Key:         key,
			Config:      entry.config,
			Outstanding: entry.outstanding,
			Unresolved:  unresolved,
		})
	}
	return result
}

// reportUnfinished surfaces every unfinished entry as a logged warning and
// a comment block in the output.  Cycles among registered targets are not
// fatal; they leave their participants permanently unfinished and this is
// where they become visible.
func (s *Session) reportUnfinished() error {
	for _, u := range s.UnfinishedTargets() {
		level.Warn(s.logger).Log(
			"msg", "target never became ready",
			"target", u.Key,
			"outstanding", u.Outstanding,
			"unresolved", strings.Join(u.Unresolved, ","),
		)

		w := s.writerFor(u.Config)
		header := fmt.Sprintf("WARNING : %s : outstanding dependencies : %d", u.Key, u.Outstanding)
		if err := w.SectionHeader(header); err != nil {
			return err
		}
		for _, dep := range u.Unresolved {
			if err := w.Comment("unresolved dependency : " + dep); err != nil {
				return err
			}
		}
	}
	return nil
}
