// Package resolver decides whether two catalog parts may connect.
//
// Every function here is pure and total: an incompatible pair, an unknown
// family or an out-of-range junction index yields -1 or an empty string,
// never an error, because the handle scan calls these in tight loops.
package resolver

import (
	"github.com/chazu/luxframe/pkg/catalog"
)

// Rejection reasons reported for incompatible pairs.
const (
	ReasonNoGroup     = "no matching junction group"
	ReasonFamilies    = "incompatible families"
	ReasonVertical    = "cannot be mounted on a vertical profile"
	ReasonBadJunction = "no such junction"
)

// Verdict is the outcome of a compatibility check. Index is the junction of
// the candidate part that would be used, or -1.
type Verdict struct {
	Index  int
	Reason string
}

// OK reports whether the pair is compatible.
func (v Verdict) OK() bool {
	return v.Index >= 0
}

func reject(reason string) Verdict {
	return Verdict{Index: -1, Reason: reason}
}

// incompatibleFamilies lists family display names that look alike but use
// different mounting standards.
var incompatibleFamilies = [][2]string{
	{"Profili superficiali", "Profili superficiali 35mm"},
}

// FamiliesConnect reports whether parts from the two entries' families may
// be joined at all. Parts without a family are unrestricted.
func FamiliesConnect(a, b *catalog.Entry) bool {
	if a.Family == "" || b.Family == "" {
		return true
	}
	for _, pair := range incompatibleFamilies {
		if (a.Family == pair[0] && b.Family == pair[1]) ||
			(a.Family == pair[1] && b.Family == pair[0]) {
			return false
		}
	}
	return true
}

// PointVerdict checks whether candidate a can attach to junction bJunction
// of b.
func PointVerdict(a, b *catalog.Entry, bJunction int) Verdict {
	if bJunction < 0 || bJunction >= len(b.Juncts) {
		return reject(ReasonBadJunction)
	}
	if !FamiliesConnect(a, b) {
		return reject(ReasonFamilies)
	}
	group := b.Juncts[bJunction].Group
	for i, j := range a.Juncts {
		if j.Group == group {
			return Verdict{Index: i}
		}
	}
	return reject(ReasonNoGroup)
}

// PointCompatible returns the index into a.Juncts that matches junction
// bJunction of b, or -1.
func PointCompatible(a, b *catalog.Entry, bJunction int) int {
	return PointVerdict(a, b, bJunction).Index
}

// CurveVerdict checks whether candidate a can ride curve bCurve of b.
func CurveVerdict(a, b *catalog.Entry, bCurve int) Verdict {
	if bCurve < 0 || bCurve >= len(b.LineJuncts) {
		return reject(ReasonBadJunction)
	}
	if !FamiliesConnect(a, b) {
		return reject(ReasonFamilies)
	}
	curve := b.LineJuncts[bCurve]
	idx := -1
	for i, j := range a.Juncts {
		if j.Group == curve.Group {
			idx = i
			break
		}
	}
	if idx < 0 {
		return reject(ReasonNoGroup)
	}
	// A profile counts as vertical by its first curve, whichever one a rides.
	if b.LineJuncts[0].Vertical() && catalog.VetoedOnVertical(a.Code) {
		return reject(ReasonVertical)
	}
	return Verdict{Index: idx}
}

// CurveCompatible returns the index into a.Juncts that matches curve bCurve
// of b, or -1.
func CurveCompatible(a, b *catalog.Entry, bCurve int) int {
	return CurveVerdict(a, b, bCurve).Index
}
