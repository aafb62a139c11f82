// Package policy classifies version changes and decides what level of
// operator confirmation an upgrade needs before any mutating command runs.
// Everything here is pure: no subprocesses, no I/O, no prompts.
package policy

// Classification describes the magnitude of a version change.
type Classification int

const (
	// ClassUnknown means one or both versions failed to parse, so the
	// magnitude of the change cannot be determined.
	ClassUnknown Classification = iota
	// ClassNone means current and latest are numerically identical.
	ClassNone
	// ClassPatch means only the patch component differs.
	ClassPatch
	// ClassMinor means the minor component differs (major equal).
	ClassMinor
	// ClassMajor means the major component differs.
	ClassMajor
)

// String returns the log/record name of the classification.
func (c Classification) String() string {
	switch c {
	case ClassNone:
		return "no-change"
	case ClassPatch:
		return "patch"
	case ClassMinor:
		return "minor"
	case ClassMajor:
		return "major"
	default:
		return "unknown"
	}
}

// Action is what the upgrade flow must do before issuing a mutating command.
type Action int

const (
	// ActionNone: nothing to run (no change, or the tool is off-limits).
	ActionNone Action = iota
	// ActionAuto: proceed without asking.
	ActionAuto
	// ActionConfirm: ask a yes/no question, default no.
	ActionConfirm
	// ActionManualReview: show the full version delta and require the
	// operator to type the review phrase; a bare "y" is not enough.
	ActionManualReview
)

// String returns the log/record name of the action.
func (a Action) String() string {
	switch a {
	case ActionAuto:
		return "auto_approve"
	case ActionConfirm:
		return "confirm_required"
	case ActionManualReview:
		return "manual_review_required"
	default:
		return "no_action"
	}
}

// Classify reports the magnitude of the change between two raw version
// strings. Comparison is most-significant-first: any major difference is
// major even if minor and patch also differ. Unparseable input yields
// ClassUnknown, never an error.
func Classify(current, latest string) Classification {
	cur, okCur := ParseVersion(current)
	next, okNext := ParseVersion(latest)
	if !okCur || !okNext {
		return ClassUnknown
	}
	switch {
	case cur.Major != next.Major:
		return ClassMajor
	case cur.Minor != next.Minor:
		return ClassMinor
	case cur.Patch != next.Patch:
		return ClassPatch
	default:
		return ClassNone
	}
}

// Delta is a classified version change.
type Delta struct {
	Class     Classification
	Downgrade bool // latest is numerically older than current
	Current   Version
	Latest    Version
}

// Assess classifies the change between two raw version strings and flags
// downgrades. Magnitude rules are symmetric: 2.0.0 → 1.9.9 is a major
// change that happens to be a downgrade.
func Assess(current, latest string) Delta {
	d := Delta{Class: Classify(current, latest)}
	if d.Class == ClassUnknown {
		return d
	}
	d.Current, _ = ParseVersion(current)
	d.Latest, _ = ParseVersion(latest)
	d.Downgrade = versionLess(d.Latest, d.Current)
	return d
}

func versionLess(a, b Version) bool {
	if a.Major != b.Major {
		return a.Major < b.Major
	}
	if a.Minor != b.Minor {
		return a.Minor < b.Minor
	}
	return a.Patch < b.Patch
}

// Decide maps a classification to the required action:
//
//	patch     → auto_approve
//	minor     → confirm_required
//	major     → manual_review_required
//	unknown   → confirm_required (magnitude could not be determined)
//	no-change → no_action
func Decide(c Classification) Action {
	switch c {
	case ClassPatch:
		return ActionAuto
	case ClassMinor, ClassUnknown:
		return ActionConfirm
	case ClassMajor:
		return ActionManualReview
	default:
		return ActionNone
	}
}

// DecideFor applies the manageability veto on top of Decide. A tool devup
// must not manage (a system Python, an interpreter of unknown origin) gets
// ActionNone regardless of how its versions classify.
func DecideFor(c Classification, manageable bool) Action {
	if !manageable {
		return ActionNone
	}
	return Decide(c)
}

// Reason returns the operator-facing explanation for a delta, used in
// prompts, log entries, and decision records.
func Reason(d Delta) string {
	var s string
	switch d.Class {
	case ClassNone:
		s = "already up to date"
	case ClassPatch:
		s = "patch update, safe to auto-approve"
	case ClassMinor:
		s = "minor version change, confirmation required"
	case ClassMajor:
		s = "major version change, manual review required"
	default:
		s = "could not determine upgrade magnitude, confirmation required"
	}
	if d.Downgrade {
		s += " (downgrade)"
	}
	return s
}
