package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chazu/luxframe/pkg/geom"
)

// ---------------------------------------------------------------------------
// Junctions
// ---------------------------------------------------------------------------

// Junction is a discrete connection point. Angle is the facing of the
// connection face around the vertical axis, in degrees.
type Junction struct {
	Offset geom.Vec `yaml:"offset" json:"offset"`
	Angle  float64  `yaml:"angle" json:"angle"`
	Group  string   `yaml:"group" json:"group"`
}

// LineJunction is a quadratic Bézier along which parts may slide.
type LineJunction struct {
	Point1 geom.Vec `yaml:"point1" json:"point1"`
	PointC geom.Vec `yaml:"pointc" json:"pointC"`
	Point2 geom.Vec `yaml:"point2" json:"point2"`
	Group  string   `yaml:"group" json:"group"`
}

// Curve returns the local-space curve.
func (l LineJunction) Curve() *geom.Bezier {
	return geom.NewBezier(l.Point1, l.PointC, l.Point2)
}

// Vertical reports whether the curve runs predominantly along Y.
func (l LineJunction) Vertical() bool {
	return geom.IsVertical(l.Point2.Sub(l.Point1))
}

// ---------------------------------------------------------------------------
// Entries
// ---------------------------------------------------------------------------

// Category is the structural role of a part.
type Category int

const (
	CategoryOther Category = iota
	CategoryProfile
	CategoryLight
	CategoryConnector
)

// String returns the human-readable name of a Category.
func (c Category) String() string {
	switch c {
	case CategoryProfile:
		return "profile"
	case CategoryLight:
		return "light"
	case CategoryConnector:
		return "connector"
	default:
		return "other"
	}
}

// Entry is the immutable description of one part code. The fields below the
// blank line are derived once when the catalog is built.
type Entry struct {
	Code       string         `yaml:"code" json:"code"`
	System     string         `yaml:"system" json:"system"`
	PriceCents int            `yaml:"price_cents" json:"priceCents"`
	Power      float64        `yaml:"power" json:"power"`
	Juncts     []Junction     `yaml:"juncts" json:"juncts"`
	LineJuncts []LineJunction `yaml:"line_juncts" json:"lineJuncts"`

	Family      string   `yaml:"-" json:"family"`
	FamilyGroup string   `yaml:"-" json:"familyGroup"`
	Color       string   `yaml:"-" json:"color"`
	Category    Category `yaml:"-" json:"category"`
	Curved      bool     `yaml:"-" json:"curved"`
	Vertical    bool     `yaml:"-" json:"vertical"`
	AskForLeds  bool     `yaml:"-" json:"askForLeds"`
	MinSpacing  float64  `yaml:"-" json:"minSpacing"`
}

// IsLight reports whether the part is subject to curve spacing rules.
func (e *Entry) IsLight() bool {
	return e.Category == CategoryLight
}

// IsProfile reports whether the part belongs to a profile family.
func (e *Entry) IsProfile() bool {
	return e.Category == CategoryProfile
}

// ---------------------------------------------------------------------------
// Families
// ---------------------------------------------------------------------------

// FamilyItem is one orderable variant inside a family.
type FamilyItem struct {
	Code        string  `yaml:"code" json:"code"`
	Deg         float64 `yaml:"deg" json:"deg"`
	Len         float64 `yaml:"len" json:"len"`
	Radius      float64 `yaml:"radius" json:"radius"`
	Color       string  `yaml:"color" json:"color"`
	Desc1       string  `yaml:"desc1" json:"desc1"`
	Desc2       string  `yaml:"desc2" json:"desc2"`
	TotalLength float64 `yaml:"total_length" json:"totalLength"`
}

// Straight reports whether the item has no bend.
func (it FamilyItem) Straight() bool {
	return it.Deg == 0 || it.Deg == -1
}

// Family groups interchangeable items under one display name.
type Family struct {
	Code              string       `yaml:"code" json:"code"`
	DisplayName       string       `yaml:"display_name" json:"displayName"`
	Group             string       `yaml:"group" json:"group"`
	System            string       `yaml:"system" json:"system"`
	LedFamily         string       `yaml:"led_family" json:"ledFamily"`
	Visible           bool         `yaml:"visible" json:"visible"`
	IsLed             bool         `yaml:"is_led" json:"isLed"`
	ArbitraryLength   bool         `yaml:"arbitrary_length" json:"arbitraryLength"`
	NeedsColorConfig  bool         `yaml:"needs_color_config" json:"needsColorConfig"`
	NeedsCurveConfig  bool         `yaml:"needs_curve_config" json:"needsCurveConfig"`
	NeedsLengthConfig bool         `yaml:"needs_length_config" json:"needsLengthConfig"`
	NeedsLedConfig    bool         `yaml:"needs_led_config" json:"needsLedConfig"`
	Items             []FamilyItem `yaml:"items" json:"items"`
}

// Item returns the item with the given code.
func (f *Family) Item(code string) (FamilyItem, bool) {
	for _, it := range f.Items {
		if it.Code == code {
			return it, true
		}
	}
	return FamilyItem{}, false
}

// ClosestLength returns the item whose catalog length is nearest to the
// requested custom length.
func (f *Family) ClosestLength(length float64) (FamilyItem, bool) {
	var best FamilyItem
	found := false
	bestDiff := 0.0
	for _, it := range f.Items {
		if it.Len <= 0 {
			continue
		}
		d := it.Len - length
		if d < 0 {
			d = -d
		}
		if !found || d < bestDiff {
			best, bestDiff, found = it, d, true
		}
	}
	return best, found
}

// Joiner is a hidden part added to the bill of materials whenever two parts
// meet at a junction of the given group.
type Joiner struct {
	Group string `yaml:"group" json:"group"`
	Code  string `yaml:"code" json:"code"`
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// Catalog indexes entries, families and joiners. It is immutable after New.
type Catalog struct {
	entries  map[string]*Entry
	codes    []string
	families map[string]*Family
	famOrder []string
	familyOf map[string]*Family
	joiners  map[string][]Joiner
}

// New builds a catalog, deriving per-entry properties and the code-to-family
// index. Families are consulted in order; the first family listing a code
// owns it.
func New(entries []Entry, families []Family, joiners []Joiner) (*Catalog, error) {
	c := &Catalog{
		entries:  make(map[string]*Entry, len(entries)),
		families: make(map[string]*Family, len(families)),
		familyOf: make(map[string]*Family),
		joiners:  make(map[string][]Joiner),
	}

	for i := range entries {
		e := entries[i]
		if e.Code == "" {
			return nil, fmt.Errorf("catalog: entry %d has no code", i)
		}
		if _, dup := c.entries[e.Code]; dup {
			return nil, fmt.Errorf("catalog: duplicate entry %q", e.Code)
		}
		e.Juncts = append([]Junction(nil), e.Juncts...)
		e.LineJuncts = append([]LineJunction(nil), e.LineJuncts...)
		c.entries[e.Code] = &e
		c.codes = append(c.codes, e.Code)
	}
	sort.Strings(c.codes)

	for i, src := range families {
		if src.Code == "" {
			return nil, fmt.Errorf("catalog: family %d has no code", i)
		}
		// A family row may stand for several family codes joined by '+'.
		for _, code := range strings.Split(src.Code, "+") {
			f := src
			f.Code = code
			if _, dup := c.families[code]; dup {
				return nil, fmt.Errorf("catalog: duplicate family %q", code)
			}
			f.Items = append([]FamilyItem(nil), src.Items...)
			for j := range f.Items {
				if f.Items[j].TotalLength == 0 {
					f.Items[j].TotalLength = totalLength(f.Items[j])
				}
			}
			sortItems(&f)
			c.families[code] = &f
			c.famOrder = append(c.famOrder, code)
		}
	}

	for _, code := range c.famOrder {
		f := c.families[code]
		for _, it := range f.Items {
			e, ok := c.entries[it.Code]
			if !ok {
				continue
			}
			if inferAskForLeds(f) {
				e.AskForLeds = true
			}
			if _, seen := c.familyOf[it.Code]; seen {
				continue
			}
			c.familyOf[it.Code] = f
			e.Family = f.DisplayName
			e.FamilyGroup = f.Group
			e.Color = it.Color
			e.Vertical = inferVertical(f)
		}
	}

	for _, e := range c.entries {
		e.Category = inferCategory(e)
		e.Curved = e.Category == CategoryProfile && inferCurved(e.Code)
		e.MinSpacing = inferMinSpacing(e.Code)
	}

	for _, j := range joiners {
		c.joiners[j.Group] = append(c.joiners[j.Group], j)
	}
	return c, nil
}

// Entry returns the entry for code.
func (c *Catalog) Entry(code string) (*Entry, bool) {
	e, ok := c.entries[code]
	return e, ok
}

// Codes returns all entry codes in lexical order.
func (c *Catalog) Codes() []string {
	return append([]string(nil), c.codes...)
}

// Family returns the family registered under code.
func (c *Catalog) Family(code string) (*Family, bool) {
	f, ok := c.families[code]
	return f, ok
}

// Families returns all families in load order.
func (c *Catalog) Families() []*Family {
	out := make([]*Family, 0, len(c.famOrder))
	for _, code := range c.famOrder {
		out = append(out, c.families[code])
	}
	return out
}

// FamilyOf returns the family that owns an entry code.
func (c *Catalog) FamilyOf(code string) (*Family, bool) {
	f, ok := c.familyOf[code]
	return f, ok
}

// ItemOf returns the family item describing code.
func (c *Catalog) ItemOf(code string) (FamilyItem, bool) {
	f, ok := c.familyOf[code]
	if !ok {
		return FamilyItem{}, false
	}
	return f.Item(code)
}

// Joiners returns the joiners required for a junction group.
func (c *Catalog) Joiners(group string) []Joiner {
	return c.joiners[group]
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// totalLength is the developed length of an item: arc length for bends and
// the radius column for straight items.
func totalLength(it FamilyItem) float64 {
	if it.Radius <= 0 {
		return 0
	}
	if it.Straight() {
		return it.Radius
	}
	return it.Deg * math.Pi * it.Radius / 180
}

// sortItems orders a family's items for presentation: straight before bent,
// black before other colors, then by length.
func sortItems(f *Family) {
	items := f.Items
	byColorAndBend := strings.EqualFold(f.System, "xnet") || f.NeedsCurveConfig
	switch {
	case byColorAndBend:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]
			if a.Straight() != b.Straight() {
				return a.Straight()
			}
			if ab, bb := isBlack(a.Color), isBlack(b.Color); ab != bb {
				return ab
			}
			return a.Len < b.Len
		})
	case f.NeedsColorConfig:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]
			if ab, bb := isBlack(a.Color), isBlack(b.Color); ab != bb {
				return ab
			}
			if a.Len != -1 && b.Len != -1 {
				return a.Len < b.Len
			}
			return false
		})
	case f.NeedsLengthConfig:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Len < items[j].Len })
	default:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	}
}
