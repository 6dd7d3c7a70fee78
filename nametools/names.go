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

// Package nametools provides the pure string functions used to derive
// FASTBuild identifiers from file paths and target metadata.  All functions
// are stateless and accept paths using either separator family.
package nametools

import (
	"sort"
	"strings"
)

// BaseName returns the last path component of path with everything from the
// first dot onward removed.  Truncating at the first dot rather than the
// last collapses version-suffixed names like "libz.so.1" to "libz".
func BaseName(path string) string {
	name := lastComponent(path)
	if dot := strings.Index(name, "."); dot != -1 {
		name = name[:dot]
	}
	return name
}

// LibraryTargetName derives the build-description target name for a link
// dependency given as a file path.  Static archives (".lib", ".a") map to a
// "_lib" suffix and shared objects (".so") to "_dll".  Unix archive naming
// conventions prepend "lib" to the file name, which does not appear in
// target names, so the prefix is stripped when unixNaming is set.  When the
// build produces multiple configurations simultaneously the configuration
// name is appended to keep per-config names distinct.  Manifest files are
// not linkable targets and map to "".
func LibraryTargetName(path string, unixNaming bool, multiConfig bool, config string) string {
	name := lastComponent(path)

	target := name
	if dot := strings.LastIndex(name, "."); dot != -1 {
		target = name[:dot]
		switch {
		case strings.HasSuffix(name, ".manifest"):
			return ""
		case strings.HasSuffix(name, ".lib") || strings.HasSuffix(name, ".a"):
			target += "_lib"
		case strings.Contains(name, ".so"):
			// Shared objects may carry version suffixes after ".so".
			if so := strings.Index(name, ".so"); so != -1 {
				target = name[:so]
			}
			target += "_dll"
		}
	}

	if unixNaming {
		target = strings.TrimPrefix(target, "lib")
	}

	if multiConfig {
		target += "_" + config
	}
	return SanitizeIdentifier(target)
}

// DependencyKey canonicalizes a link-dependency file path into the ledger
// key its producing target would have registered under: the base name with
// the Unix "lib" prefix stripped when that naming convention is active,
// concatenated with the configuration name.
func DependencyKey(path string, unixNaming bool, config string) string {
	name := BaseName(path)
	if unixNaming {
		name = strings.TrimPrefix(name, "lib")
	}
	return name + config
}

// SanitizeIdentifier replaces characters that are illegal in build-
// description identifiers.  The dialect's grammar does not allow "-" in
// names, which is common in project target names.
func SanitizeIdentifier(name string) string {
	return strings.Replace(name, "-", "__", -1)
}

// StripDefineEscapes removes the backslash from `\"` sequences.  Upstream
// hands over defines escaped for shell consumption (e.g. CMAKE_INTDIR =
// \"Release\") but the build description wants the bare quotes.
func StripDefineEscapes(s string) string {
	return strings.Replace(s, `\"`, `"`, -1)
}

// DirPrefix returns everything up to and including the final path
// separator, or "" if path has no directory component.
func DirPrefix(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i != -1 {
		return path[:i+1]
	}
	return ""
}

// FirstUniqueNames returns names with duplicates removed, keeping the first
// occurrence of each name in its original position.
func FirstUniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	var result []string
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	return result
}

// SortedUniqueNames returns the distinct elements of names in sorted order.
// Used where the order of a deduplicated list is not significant but must
// be deterministic.
func SortedUniqueNames(names []string) []string {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	result := make([]string, 0, len(set))
	for name := range set {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

func lastComponent(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i != -1 {
		return path[i+1:]
	}
	return path
}
