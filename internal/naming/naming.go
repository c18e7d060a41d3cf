// Package naming holds the pure string helpers for package names:
// suffix recognition and architecture-token insertion.
package naming

import (
	"iter"
	"strings"
)

// knownSuffixes is the closed set of trailing segments SplitPackageName
// recognizes.
var knownSuffixes = map[string]bool{
	"devel":     true,
	"doc":       true,
	"source":    true,
	"debuginfo": true,
}

// SplitPackageName splits a package name into base and known suffix.
// The suffix is the trailing underscore-delimited segment; if it is not one
// of the known suffixes, the whole name is returned as base with an empty
// suffix.
func SplitPackageName(name string) (base, suffix string) {
	i := strings.LastIndex(name, "_")
	if i < 0 {
		return name, ""
	}
	if s := name[i+1:]; knownSuffixes[s] {
		return name[:i], s
	}
	return name, ""
}

// CandidateNamesForArchitecture yields the architecture-qualified variants
// of name, in resolution order. The architecture token is first inserted
// before the trailing underscore segment, then one segment further toward
// the front per step; the plain name_arch form comes last. A name without
// underscores yields nothing. Callers stop at the first candidate that
// resolves.
func CandidateNamesForArchitecture(name, arch string) iter.Seq[string] {
	return func(yield func(string) bool) {
		head := name
		tail := ""
		for {
			i := strings.LastIndex(head, "_")
			if i < 0 {
				break
			}
			if tail == "" {
				tail = head[i+1:]
			} else {
				tail = head[i+1:] + "_" + tail
			}
			head = head[:i]
			if !yield(head + "_" + arch + "_" + tail) {
				return
			}
		}
		if head != name {
			yield(name + "_" + arch)
		}
	}
}
