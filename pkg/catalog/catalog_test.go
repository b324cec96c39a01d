package catalog_test

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/luxframe/pkg/catalog"
	"github.com/chazu/luxframe/pkg/catalog/catalogtest"
	"github.com/chazu/luxframe/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixtureLoads(t *testing.T) {
	c := catalogtest.New(t)
	assert.Greater(t, c.Len(), 20)

	p2 := catalogtest.Entry(t, c, "P2")
	require.Len(t, p2.Juncts, 2)
	assert.Equal(t, geom.V(1, 0, 0), p2.Juncts[1].Offset)
	assert.Equal(t, 0.0, p2.Juncts[1].Angle)
	assert.Equal(t, "B", p2.Juncts[1].Group)

	codes := c.Codes()
	assert.True(t, sortedStrings(codes), "Codes() must be sorted")
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}

func TestDerivedFields(t *testing.T) {
	c := catalogtest.New(t)

	tests := []struct {
		code     string
		category catalog.Category
		curved   bool
		vertical bool
		spacing  float64
		family   string
	}{
		{"XNP100", catalog.CategoryProfile, false, false, 0, "Profili XNet"},
		{"XNP090C", catalog.CategoryProfile, true, false, 0, "Profili XNet"},
		{"XNPV100", catalog.CategoryProfile, false, true, 0, "Profili XNet verticale"},
		{"XNRS01", catalog.CategoryLight, false, false, 0.08, "Luci XNet"},
		{"XNRS14", catalog.CategoryLight, false, false, 0.10, "Luci XNet"},
		{"XNRS31", catalog.CategoryLight, false, false, 0.12, "Luci XNet"},
		{"XNSP05", catalog.CategoryLight, false, false, 0.10, "Luci XNet"},
		{"XNS01SRC", catalog.CategoryConnector, false, false, 0, "Connettori XNet"},
		{"PSU100", catalog.CategoryOther, false, false, 0, ""},
		{"XNPC100", catalog.CategoryOther, false, false, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e := catalogtest.Entry(t, c, tt.code)
			assert.Equal(t, tt.category, e.Category, "category")
			assert.Equal(t, tt.curved, e.Curved, "curved")
			assert.Equal(t, tt.vertical, e.Vertical, "vertical")
			assert.InDelta(t, tt.spacing, e.MinSpacing, 1e-12, "spacing")
			assert.Equal(t, tt.family, e.Family, "family")
		})
	}
}

func TestSplitFamilyCodes(t *testing.T) {
	c := catalogtest.New(t)
	light, ok := c.Family("XNLIGHT")
	require.True(t, ok)
	spot, ok := c.Family("XNSPOT")
	require.True(t, ok)
	assert.Equal(t, light.DisplayName, spot.DisplayName)

	// First family listing a code owns it.
	f, ok := c.FamilyOf("XNRS01")
	require.True(t, ok)
	assert.Equal(t, "XNLIGHT", f.Code)
}

func TestItemOrderingAndLength(t *testing.T) {
	c := catalogtest.New(t)

	xn, ok := c.Family("XNPROF")
	require.True(t, ok)
	require.Len(t, xn.Items, 2)
	assert.Equal(t, "XNP100", xn.Items[0].Code, "straight items sort first")
	assert.InDelta(t, 1000, xn.Items[0].TotalLength, 1e-9)
	assert.InDelta(t, 90*math.Pi*1000/180, xn.Items[1].TotalLength, 1e-9)

	xl, ok := c.Family("XLINE")
	require.True(t, ok)
	assert.Equal(t, "XL10B", xl.Items[0].Code, "black sorts first")

	it, ok := c.ItemOf("XNP090C")
	require.True(t, ok)
	assert.Equal(t, 90.0, it.Deg)
}

func TestClosestLength(t *testing.T) {
	c := catalogtest.New(t)
	f, _ := c.Family("TEST")
	it, ok := f.ClosestLength(800)
	require.True(t, ok)
	assert.Equal(t, "P2", it.Code)
	it, _ = f.ClosestLength(300)
	assert.Equal(t, "P3", it.Code)
}

func TestJoiners(t *testing.T) {
	c := catalogtest.New(t)
	j := c.Joiners("XN")
	require.Len(t, j, 1)
	assert.Equal(t, "JXN01", j[0].Code)
	assert.Empty(t, c.Joiners("A"))
}

func TestLineJunction(t *testing.T) {
	c := catalogtest.New(t)
	v := catalogtest.Entry(t, c, "XNPV100")
	require.Len(t, v.LineJuncts, 1)
	assert.True(t, v.LineJuncts[0].Vertical())

	h := catalogtest.Entry(t, c, "XNP100")
	curve := h.LineJuncts[0].Curve()
	assert.InDelta(t, 1.0, curve.Length(), 1e-6)
	assert.False(t, h.LineJuncts[0].Vertical())
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := catalog.New([]catalog.Entry{{Code: "A"}, {Code: "A"}}, nil, nil)
	assert.ErrorContains(t, err, "duplicate entry")

	_, err = catalog.New([]catalog.Entry{{}}, nil, nil)
	assert.ErrorContains(t, err, "no code")

	_, err = catalog.New(nil, []catalog.Family{{Code: "F+F"}}, nil)
	assert.ErrorContains(t, err, "duplicate family")
}

func TestLoadYAMLUnknownField(t *testing.T) {
	_, err := catalog.LoadYAML(strings.NewReader("entries:\n  - code: A\n    colour: red\n"))
	assert.Error(t, err)
}

func TestPredicates(t *testing.T) {
	assert.True(t, catalog.IsLightCode("XNRS02LC"))
	assert.False(t, catalog.IsLightCode("XNP100"))
	assert.True(t, catalog.IsRotatingConnector("XNS01LRC"))
	assert.True(t, catalog.VetoedOnVertical("XNRS15 3000K"))
	assert.False(t, catalog.VetoedOnVertical("XNRS01"))
	assert.True(t, catalog.TurnsMountedLights("XNPC100"))
	assert.True(t, catalog.TurnsMountedLights("XNP090C"))
	assert.False(t, catalog.TurnsMountedLights("XNP100"))
}

func TestColorRank(t *testing.T) {
	assert.Equal(t, 3, catalog.ColorRank("Black"))
	assert.Equal(t, 3, catalog.ColorRank("#000"))
	assert.Equal(t, 2, catalog.ColorRank("grigio"))
	assert.Equal(t, 1, catalog.ColorRank(" white "))
	assert.Equal(t, 0, catalog.ColorRank("copper"))
}

func TestCodes(t *testing.T) {
	tests := []struct {
		code, base, resource string
	}{
		{"XNRS01 UWW", "XNRS01", "XNRS01 WW"},
		{"XNRS01+DIM", "XNRS01", "XNRS01+DIM"},
		{"XNRS31NWR", "XNRS31NWR", "XNRS31WWR"},
		{"XNP090C", "XNP090C", "XNP090C"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.base, catalog.BaseCode(tt.code), tt.code)
		assert.Equal(t, tt.resource, catalog.ResourceCode(tt.code), tt.code)
	}
}
