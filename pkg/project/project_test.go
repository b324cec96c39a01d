package project_test

import (
	"context"
	"io"
	"log"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/luxframe/pkg/assets"
	"github.com/chazu/luxframe/pkg/catalog/catalogtest"
	"github.com/chazu/luxframe/pkg/geom"
	"github.com/chazu/luxframe/pkg/project"
	"github.com/chazu/luxframe/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) *scene.Session {
	t.Helper()
	zero := geom.Box{}
	return scene.New(catalogtest.New(t), assets.Static{Default: &zero},
		scene.WithLogger(log.New(io.Discard, "", 0)))
}

func add(t *testing.T, s *scene.Session, code string) scene.ObjectID {
	t.Helper()
	id, err := s.AddObject(context.Background(), code)
	require.NoError(t, err)
	return id
}

func mm(v float64) *float64 { return &v }

func codes(objs []project.SavedObject) []string {
	var out []string
	for _, so := range objs {
		out = append(out, so.Code)
	}
	return out
}

// chain places two XNet profiles, the second attached to the first.
func chain(t *testing.T) (*scene.Session, *project.Project, scene.ObjectID, scene.ObjectID) {
	t.Helper()
	s := newSession(t)
	p := project.New()
	a := add(t, s, "XNP100")
	require.NoError(t, p.Finish(s, a, project.Edit{
		Family: "XNPROF", Item: "XNP100", Led: "LED10", Length: 1000,
	}))
	b := add(t, s, "XNP100")
	require.NoError(t, p.Finish(s, b, project.Edit{
		Family:    "XNPROF",
		Item:      "XNP100",
		Reference: &scene.Reference{Kind: scene.RefPoint, Host: a, HostSlot: 1, ChildSlot: 0},
	}))
	return s, p, a, b
}

func TestFinishBuildsBillOfMaterials(t *testing.T) {
	s, p, a, b := chain(t)

	assert.Equal(t, []string{"XNP100", "JXN01", "XNP100", "XNRS02LC"}, codes(p.Objects))

	first := p.Objects[0]
	assert.Equal(t, a, first.Object)
	assert.False(t, first.Hidden)
	assert.Equal(t, "Profile 1m", first.Desc1)
	require.Len(t, first.Subobjects, 1)
	assert.Equal(t, "LED10", first.Subobjects[0].Code)
	require.NotNil(t, first.Subobjects[0].Length)
	assert.Equal(t, 975.0, *first.Subobjects[0].Length)

	joiner := p.Objects[1]
	assert.True(t, joiner.Hidden)
	assert.False(t, joiner.IsAutoConnector)
	assert.Equal(t, []scene.ObjectID{b}, joiner.ConnectedTo)

	auto := p.Objects[3]
	assert.True(t, auto.Hidden)
	assert.True(t, auto.IsAutoConnector)
	assert.Equal(t, mm(0), auto.Length)
	assert.Equal(t, mm(0), joiner.Length)
	assert.Equal(t, mm(1000), first.Length)
	assert.Nil(t, p.Objects[2].Length, "no length requested")
	assert.Equal(t, project.AutoConnectorDesc, auto.Desc1)
	assert.ElementsMatch(t, []scene.ObjectID{a, b}, auto.ConnectedTo)

	o, _ := s.Object(b)
	assert.Equal(t, scene.StateAttached, o.State())
	assert.Len(t, p.Visible(), 2)
}

func TestFinishCurvedNeighbourConnector(t *testing.T) {
	s := newSession(t)
	p := project.New()
	a := add(t, s, "XNP090C")
	require.NoError(t, p.Finish(s, a, project.Edit{Family: "XNPROF", Item: "XNP090C"}))
	b := add(t, s, "XNP100")
	require.NoError(t, p.Finish(s, b, project.Edit{
		Family:    "XNPROF",
		Item:      "XNP100",
		Reference: &scene.Reference{Kind: scene.RefPoint, Host: a, HostSlot: 1, ChildSlot: 0},
	}))
	assert.Equal(t, "XNRS01LC", p.Objects[len(p.Objects)-1].Code)
}

func TestFinishAlreadyAttachedKeepsGroup(t *testing.T) {
	s := newSession(t)
	p := project.New()
	a := add(t, s, "XNP100")
	b := add(t, s, "XNP100")
	group, err := s.Attach(a, b, scene.AttachOptions{})
	require.NoError(t, err)

	require.NoError(t, p.Finish(s, b, project.Edit{
		Family:    "XNPROF",
		Item:      "XNP100",
		Group:     group,
		Reference: &scene.Reference{Kind: scene.RefPoint, Host: a, HostSlot: 1, ChildSlot: 1},
	}))
	// a was never finished, so there is no neighbour line to pair with.
	assert.Equal(t, []string{"JXN01", "XNP100"}, codes(p.Objects))
	ha, _ := s.Object(a)
	assert.Equal(t, 1, ha.Occupied(), "reference ignored")
}

func TestFinishCustomLength(t *testing.T) {
	s := newSession(t)
	p := project.New()
	id := add(t, s, "FES10")
	require.NoError(t, p.Finish(s, id, project.Edit{
		Family: "XFREE", Item: "FES10", Length: 2500, CustomLength: true,
	}))
	o, _ := s.Object(id)
	assert.InDelta(t, 2.5, o.Transform().Scale.X, 1e-12)
	assert.Equal(t, 1.0, o.Transform().Scale.Y)
	assert.True(t, p.Objects[0].CustomLength)
}

func TestFinishRejections(t *testing.T) {
	s := newSession(t)
	p := project.New()
	a := add(t, s, "P1")
	b := add(t, s, "P3")

	tests := []struct {
		name string
		id   scene.ObjectID
		edit project.Edit
		want error
	}{
		{"unknown family", b, project.Edit{Family: "NOPE", Item: "P3"}, project.ErrUnknownFamily},
		{"unknown item", b, project.Edit{Family: "TEST", Item: "NOPE"}, project.ErrUnknownItem},
		{"no led family", b, project.Edit{Family: "TEST", Item: "P3", Led: "LED10"}, project.ErrUnknownFamily},
		{"unknown led", a, project.Edit{Family: "XNPROF", Item: "XNP100", Led: "NOPE"}, project.ErrUnknownItem},
		{"unknown object", "ghost", project.Edit{Family: "TEST", Item: "P3"}, scene.ErrUnknownObject},
		{"attach fails", b, project.Edit{
			Family:    "TEST",
			Item:      "P3",
			Reference: &scene.Reference{Kind: scene.RefPoint, Host: a, HostSlot: 0, ChildSlot: 0},
		}, scene.ErrNoCompatibleJunction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Snapshot()
			err := p.Finish(s, tt.id, tt.edit)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, p.Objects)
			assert.Equal(t, before, s.Snapshot())
		})
	}

	require.NoError(t, p.Finish(s, a, project.Edit{Family: "TEST", Item: "P1"}))
	assert.ErrorIs(t, p.Finish(s, a, project.Edit{Family: "TEST", Item: "P1"}), project.ErrAlreadySaved)
}

func TestRemoveCascades(t *testing.T) {
	s, p, a, b := chain(t)

	require.NoError(t, p.Remove(s, b))
	assert.Equal(t, []string{"XNP100"}, codes(p.Objects))
	assert.Equal(t, 1, s.Len())
	o, _ := s.Object(a)
	assert.Equal(t, scene.StateFree, o.State())

	assert.ErrorIs(t, p.Remove(s, b), scene.ErrUnknownObject)
}

func TestPowerBudget(t *testing.T) {
	cat := catalogtest.New(t)
	objs := []project.SavedObject{
		{Code: "XNP100", Length: mm(2000), Subobjects: []project.SavedObject{{Code: "LED10", Length: mm(1975)}}},
		{Code: "PSU100"},
		{Code: "PSU100", Length: mm(0)},
		{Code: "XNRS01"},
		{Code: "UNKNOWN"},
	}
	assert.InDelta(t, -20+100-6, project.PowerBudget(cat, objs), 1e-9)
	assert.Zero(t, project.PowerBudget(cat, nil))
}

func TestPowerBudgetZeroLengthLines(t *testing.T) {
	s, p, _, _ := chain(t)

	// The joiner and the automatic connector are stored with length 0 and
	// must not fall back to the default length.
	for i := range p.Objects {
		if p.Objects[i].Hidden {
			p.Objects[i].Code = "PSU100"
		}
	}
	// Only the LED strip under the first 1000 mm profile draws power.
	assert.InDelta(t, -10, project.PowerBudget(s.Catalog(), p.Objects), 1e-9)
}

func TestTotalLength(t *testing.T) {
	cat := catalogtest.New(t)
	objs := []project.SavedObject{
		{Code: "XNP100"},
		{Code: "XNP090C"},
		{Code: "JXN01", Hidden: true},
	}
	assert.InDelta(t, 1000+500*math.Pi, project.TotalLength(cat, objs), 1e-9)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	st, err := project.Open(filepath.Join(t.TempDir(), "db", "projects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s, p, _, _ := chain(t)
	doc := p.Document(s)
	require.NoError(t, st.Save(ctx, "kitchen", doc))
	require.NoError(t, st.Save(ctx, "attic", project.Document{}))

	got, err := st.Load(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, codes(doc.Objects), codes(got.Objects))
	assert.Len(t, got.Scene.Objects, 2)

	list, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "attic", list[0].Name)
	assert.Equal(t, "kitchen", list[1].Name)
	assert.Equal(t, 4, list[1].Objects)
	assert.WithinDuration(t, time.Now(), list[1].UpdatedAt, time.Minute)

	// Saving again replaces the document.
	require.NoError(t, st.Save(ctx, "attic", doc))
	got, err = st.Load(ctx, "attic")
	require.NoError(t, err)
	assert.Len(t, got.Objects, 4)

	require.NoError(t, st.Delete(ctx, "attic"))
	_, err = st.Load(ctx, "attic")
	assert.ErrorIs(t, err, project.ErrNotFound)
	assert.ErrorIs(t, st.Delete(ctx, "attic"), project.ErrNotFound)
	assert.Error(t, st.Save(ctx, "", doc))
}

func TestDocumentRestore(t *testing.T) {
	src, p, a, b := chain(t)
	doc := p.Document(src)

	dst := newSession(t)
	q := project.New()
	require.NoError(t, q.Restore(context.Background(), dst, doc))
	assert.Equal(t, codes(p.Objects), codes(q.Objects))
	assert.Equal(t, 2, dst.Len())
	assert.Empty(t, dst.Validate())

	// The restored project still cascades removals.
	require.NoError(t, q.Remove(dst, b))
	assert.Equal(t, []string{"XNP100"}, codes(q.Objects))
	_, ok := dst.Object(a)
	assert.True(t, ok)

	bad := doc
	bad.Scene.Objects = append([]scene.ObjectState(nil), doc.Scene.Objects...)
	bad.Scene.Objects[0].Code = "NOPE"
	assert.Error(t, project.New().Restore(context.Background(), newSession(t), bad))
}
