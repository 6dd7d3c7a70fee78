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

// Package bffgen emits FASTBuild build description (.bff) files from a set
// of build targets and their dependency relationships.
//
// The package is organized around a Session.  Callers feed it targets one
// at a time through AddTarget, in whatever order the targets are
// discovered.  The session keeps a ledger counting each target's
// unfinished dependencies and only generates a target's blocks once every
// dependency it declares has generated, so the output file always defines
// compiler configs, object lists, libraries and executables before
// anything referring to them.  Finalize flushes everything still pending:
// dependencies that were never registered are assumed to be produced
// outside the build and discounted, any remaining ready targets are
// generated, and targets still blocked (dependency cycles) are reported
// as warnings in the output rather than failing the run.
//
// Each generated target contributes a compiler-config struct, one object
// list per run of sources sharing compile settings, a link or librarian
// block matching its type, and alias records.  Function invocations and
// aliases are buffered as records during generation and written after the
// last target in a single pass, ending with the "all" and "other" summary
// aliases.
//
// Output can be a single stream, or one stream per build configuration
// when the session is created with multiple configurations.
package bffgen
