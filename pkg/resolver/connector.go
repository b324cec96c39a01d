package resolver

import (
	"strings"

	"github.com/chazu/luxframe/pkg/catalog"
)

// Part is what the connector rules need to know about one side of a joint.
type Part struct {
	Code   string
	Family string // family group, e.g. "Profili"
	System string
	Color  string
}

// PartOf describes a catalog entry for connector lookup.
func PartOf(e *catalog.Entry) Part {
	return Part{
		Code:   e.Code,
		Family: e.FamilyGroup,
		System: e.System,
		Color:  e.Color,
	}
}

// ConnectorRule picks the connector for two profiles of the same system and
// family. An empty result means none is needed.
type ConnectorRule interface {
	Connector(a, b Part) string
}

// FixedConnector always requires the same part.
type FixedConnector string

func (f FixedConnector) Connector(a, b Part) string { return string(f) }

// CurvatureConnector picks by whether either base code is curved.
type CurvatureConnector struct {
	Straight string
	Curved   string
}

func (c CurvatureConnector) Connector(a, b Part) string {
	if isCurved(a.Code) || isCurved(b.Code) {
		return c.Curved
	}
	return c.Straight
}

// isCurved is inferred from the base code; it deliberately ignores the
// catalog's Curved flag so connector selection works on bare parts.
func isCurved(code string) bool {
	return strings.HasSuffix(catalog.BaseCode(code), "C")
}

// ColorConnector picks the variant matching the darker of the two parts.
// Equal ranks resolve to the same code, so the outcome never depends on
// argument order.
type ColorConnector struct {
	ByRank   map[int]string
	Fallback string
}

func (c ColorConnector) Connector(a, b Part) string {
	rank := catalog.ColorRank(a.Color)
	if r := catalog.ColorRank(b.Color); r > rank {
		rank = r
	}
	if code, ok := c.ByRank[rank]; ok {
		return code
	}
	return c.Fallback
}

// ConnectorRules maps a system name to its rule.
type ConnectorRules map[string]ConnectorRule

// DefaultConnectorRules is the rule table shipped with the product line.
var DefaultConnectorRules = ConnectorRules{
	"XNet":    CurvatureConnector{Straight: "XNRS02LC", Curved: "XNRS01LC"},
	"XFree S": FixedConnector("FES35CK"),
	"XLine": ColorConnector{
		ByRank: map[int]string{
			3: "XLJ01B",
			2: "XLJ01G",
			1: "XLJ01W",
		},
		Fallback: "XLJ01W",
	},
}

// Required returns the connector to insert between a and b, or "".
func (r ConnectorRules) Required(a, b Part) string {
	if !strings.Contains(a.Family, "Profili") || !strings.Contains(b.Family, "Profili") {
		return ""
	}
	if a.Family != b.Family || a.System != b.System {
		return ""
	}
	rule, ok := r[a.System]
	if !ok {
		return ""
	}
	return rule.Connector(a, b)
}

// RequiredConnector applies DefaultConnectorRules.
func RequiredConnector(a, b Part) string {
	return DefaultConnectorRules.Required(a, b)
}
