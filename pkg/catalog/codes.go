package catalog

import (
	"regexp"
	"strings"
)

// BaseCode strips the variant suffix from a part code: everything after the
// first space, then everything after the first '+'.
func BaseCode(code string) string {
	base, _, _ := strings.Cut(code, " ")
	base, _, _ = strings.Cut(base, "+")
	return base
}

var (
	warmWhite    = regexp.MustCompile(`UWW(R?)`)
	neutralWhite = regexp.MustCompile(`NW(R?)`)
)

// ResourceCode maps a part code to the code its 3D model is stored under.
// Color temperature variants share the warm white model.
func ResourceCode(code string) string {
	if warmWhite.MatchString(code) {
		return warmWhite.ReplaceAllString(code, "WW$1")
	}
	return neutralWhite.ReplaceAllString(code, "WW$1")
}
