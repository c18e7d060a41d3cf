package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPackageName(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		suffix string
	}{
		{"libpng_devel", "libpng", "devel"},
		{"libpng_doc", "libpng", "doc"},
		{"gcc_source", "gcc", "source"},
		{"gcc_debuginfo", "gcc", "debuginfo"},
		{"libpng", "libpng", ""},
		{"libpng_extra", "libpng_extra", ""},
		{"a_b_devel", "a_b", "devel"},
		{"devel", "devel", ""},
	}

	for _, tt := range tests {
		base, suffix := SplitPackageName(tt.name)
		assert.Equal(t, tt.base, base, "base of %q", tt.name)
		assert.Equal(t, tt.suffix, suffix, "suffix of %q", tt.name)
	}
}

func collect(name, arch string) []string {
	var out []string
	for c := range CandidateNamesForArchitecture(name, arch) {
		out = append(out, c)
	}
	return out
}

func TestCandidatesOrder(t *testing.T) {
	assert.Equal(t,
		[]string{"foo_x86_devel", "foo_devel_x86"},
		collect("foo_devel", "x86"))

	assert.Equal(t,
		[]string{"a_b_x86_c", "a_x86_b_c", "a_b_c_x86"},
		collect("a_b_c", "x86"))
}

func TestCandidatesSecondaryArchFirstHit(t *testing.T) {
	// The first candidate is the one with the token inserted closest to
	// the end of the name; resolution must try it first.
	got := collect("libpng_devel", "x86_gcc2")
	if len(got) == 0 {
		t.Fatal("expected candidates for libpng_devel")
	}
	assert.Equal(t, "libpng_x86_gcc2_devel", got[0])
}

func TestCandidatesSingleSegment(t *testing.T) {
	// No underscore to peel: the sequence is empty and resolution falls
	// through to the exact-name check.
	assert.Empty(t, collect("libpng", "x86"))
}

func TestCandidatesEarlyStop(t *testing.T) {
	var seen []string
	for c := range CandidateNamesForArchitecture("a_b_c_d", "x86") {
		seen = append(seen, c)
		break
	}
	assert.Equal(t, []string{"a_b_c_x86_d"}, seen)
}
