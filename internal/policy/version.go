package policy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is a parsed tool or package version: up to three dot-separated
// numeric components. Missing minor/patch components default to zero, so
// "10.2" parses as 10.2.0.
type Version struct {
	Major int
	Minor int
	Patch int
	Raw   string
}

// versionRegex matches the leading numeric run of a version string: one to
// three dot-separated non-negative integers, with everything after them
// captured as a suffix ("-rc1", "b2", "+build5").
var versionRegex = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?(.*)$`)

// ParseVersion extracts a comparable version from a raw tool-output string.
//
// Package managers decorate their versions: "Homebrew 4.2.21", "conda 25.9.1",
// "Python 3.12.5", "v1.2.3", "1.28.0-rc1". A leading non-numeric prefix and a
// trailing pre-release or build suffix are ignored. Parsing is conservative:
// a string with no digits, an out-of-range component, or more than three
// dot-separated numeric components reports ok=false, which callers classify
// as unknown rather than guessing. Never panics.
func ParseVersion(raw string) (Version, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Version{}, false
	}

	// Skip the non-numeric prefix ("v", "Python ", "conda ").
	start := strings.IndexFunc(s, isASCIIDigit)
	if start == -1 {
		return Version{}, false
	}

	m := versionRegex.FindStringSubmatch(s[start:])
	if m == nil {
		return Version{}, false
	}

	// A suffix continuing ".<digit>" is a fourth numeric component
	// ("1.2.3.4"); the magnitude of such a change is ambiguous.
	suffix := m[4]
	if len(suffix) >= 2 && suffix[0] == '.' && isASCIIDigit(rune(suffix[1])) {
		return Version{}, false
	}

	v := Version{Raw: raw}
	var err error
	if v.Major, err = strconv.Atoi(m[1]); err != nil {
		return Version{}, false
	}
	if m[2] != "" {
		if v.Minor, err = strconv.Atoi(m[2]); err != nil {
			return Version{}, false
		}
	}
	if m[3] != "" {
		if v.Patch, err = strconv.Atoi(m[3]); err != nil {
			return Version{}, false
		}
	}
	return v, true
}

// String returns the canonical three-component form, e.g. "3.12.5".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
