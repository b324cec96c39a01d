package catalog

import "strings"

// The catalog schema carries no explicit structural flags, so the rules in
// this file derive them from codes and family names. Each rule is applied
// exactly once, in New; callers read the resulting Entry fields.

// rotatingConnectors are the connector codes whose orientation is ambiguous
// at a glance.
var rotatingConnectors = map[string]bool{
	"XNS01SRC": true,
	"XNS01LRC": true,
}

// verticalLightVeto lists light code fragments that cannot be mounted on a
// vertical curve.
var verticalLightVeto = []string{"XNRS11", "XNRS14", "XNRS15", "XNRS16"}

// spacingRules maps a code fragment to the minimum normalized distance a
// light keeps from its neighbours on a curve. First match wins.
var spacingRules = []struct {
	fragment string
	spacing  float64
}{
	{"XNRS01", 0.08},
	{"XNRS14", 0.10},
	{"XNRS31", 0.12},
	{"SP", 0.10},
}

// DefaultSpacing applies to lights that match no spacing rule.
const DefaultSpacing = 0.08

// IsLightCode reports whether code is a light. Inferred: any code containing
// "XNRS" or "SP". This also matches the XNet auto connectors (XNRS0xLC).
func IsLightCode(code string) bool {
	return strings.Contains(code, "XNRS") || strings.Contains(code, "SP")
}

// TurnsMountedLights reports whether lights mounted on a curve of a part
// with this code face along the tangent rather than across it. Inferred:
// the full code contains 'C' anywhere. This is looser than Entry.Curved,
// which also requires a profile whose base code ends in 'C', and is kept
// apart so light orientation follows the code alone.
func TurnsMountedLights(code string) bool {
	return strings.Contains(code, "C")
}

// IsRotatingConnector reports whether code is a connector whose next
// rotation step should be visualised.
func IsRotatingConnector(code string) bool {
	return rotatingConnectors[code] ||
		strings.Contains(code, "SRC") ||
		strings.Contains(code, "LRC")
}

// VetoedOnVertical reports whether a light code may not ride a vertical
// curve.
func VetoedOnVertical(code string) bool {
	for _, frag := range verticalLightVeto {
		if strings.Contains(code, frag) {
			return true
		}
	}
	return false
}

// inferCurved: the base code ends in 'C'.
func inferCurved(code string) bool {
	return strings.HasSuffix(BaseCode(code), "C")
}

// inferVertical: the family display name mentions "verticale".
func inferVertical(f *Family) bool {
	return strings.Contains(strings.ToLower(f.DisplayName), "verticale")
}

// inferAskForLeds: suspension families ask for LEDs on the invoice.
func inferAskForLeds(f *Family) bool {
	return strings.Contains(f.DisplayName, "sospensione")
}

func inferCategory(e *Entry) Category {
	switch {
	case IsLightCode(e.Code):
		return CategoryLight
	case strings.Contains(e.FamilyGroup, "Profili"):
		return CategoryProfile
	case strings.Contains(e.FamilyGroup, "Conness"), IsRotatingConnector(e.Code):
		return CategoryConnector
	}
	return CategoryOther
}

func inferMinSpacing(code string) float64 {
	if !IsLightCode(code) {
		return 0
	}
	for _, r := range spacingRules {
		if strings.Contains(code, r.fragment) {
			return r.spacing
		}
	}
	return DefaultSpacing
}

// ---------------------------------------------------------------------------
// Colors
// ---------------------------------------------------------------------------

// ColorRank orders colors from light to dark. Unknown colors rank lowest.
func ColorRank(color string) int {
	c := strings.ToLower(strings.TrimSpace(color))
	switch {
	case isBlack(c):
		return 3
	case c == "grey" || c == "gray" || c == "grigio" || c == "antracite" || c == "sgr":
		return 2
	case c == "white" || c == "bianco" || c == "#ffffff" || c == "#fff" || c == "swh":
		return 1
	}
	return 0
}

func isBlack(color string) bool {
	switch strings.ToLower(color) {
	case "#000000", "black", "#000", "nero", "sbk":
		return true
	}
	return false
}
