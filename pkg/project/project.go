// Package project keeps the bill of materials built while the user
// assembles a scene, and persists it together with the scene snapshot.
package project

import (
	"errors"
	"fmt"

	"github.com/chazu/luxframe/pkg/catalog"
	"github.com/chazu/luxframe/pkg/resolver"
	"github.com/chazu/luxframe/pkg/scene"
)

// AutoConnectorDesc is the description given to connectors added by Finish.
const AutoConnectorDesc = "Connettore automatico"

// DefaultLength is the length, in millimetres, assumed for lines that carry
// none when computing the power budget.
const DefaultLength = 1000.0

var (
	ErrUnknownFamily = errors.New("project: unknown family")
	ErrUnknownItem   = errors.New("project: unknown family item")
	ErrAlreadySaved  = errors.New("project: object already finished")
)

// SavedObject is one line of the bill of materials.
type SavedObject struct {
	Code         string  `json:"code"`
	Desc1        string  `json:"desc1"`
	Desc2        string  `json:"desc2"`
	Length       *float64 `json:"length,omitempty"` // millimetres, nil = catalog length
	CustomLength bool     `json:"customLength,omitempty"`

	// Subobjects is empty unless the line is sold as several parts, such as
	// a profile with its LED strip.
	Subobjects []SavedObject `json:"subobjects"`

	// Hidden lines are not listed in the sidebar: joiners and automatic
	// connectors.
	Hidden          bool `json:"hidden,omitempty"`
	IsAutoConnector bool `json:"isAutoConnector,omitempty"`

	// ConnectedTo lists the scene objects a hidden line exists for. It is
	// removed together with any of them.
	ConnectedTo []scene.ObjectID `json:"connectedTo,omitempty"`
	// Object is the scene object a visible line describes.
	Object scene.ObjectID `json:"object,omitempty"`
}

// Edit is the configuration chosen for a part before it is committed.
type Edit struct {
	Family string
	Item   string
	// Reference is where the part goes. It is ignored when the object is
	// already attached.
	Reference *scene.Reference
	// Group is the junction group of an attachment made before Finish.
	Group string
	// Led is the LED strip code from the family's LED family, if any.
	Led string
	// Length is the requested length in millimetres.
	Length       float64
	CustomLength bool
}

// Project is the ordered bill of materials.
type Project struct {
	Objects []SavedObject
}

// New returns an empty project.
func New() *Project {
	return &Project{}
}

// Finish commits a placed object: it attaches it at ed.Reference, records
// the joiners for the shared junction group, adds the LED strip and the
// object itself, scales custom lengths, and adds any connector the
// catalog requires between it and its neighbours.
func (p *Project) Finish(s *scene.Session, id scene.ObjectID, ed Edit) error {
	cat := s.Catalog()
	fam, ok := cat.Family(ed.Family)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFamily, ed.Family)
	}
	item, ok := fam.Item(ed.Item)
	if !ok {
		return fmt.Errorf("%w: %q in %s", ErrUnknownItem, ed.Item, ed.Family)
	}
	var subobjects []SavedObject
	if ed.Led != "" {
		led, err := ledItem(cat, fam, ed.Led)
		if err != nil {
			return err
		}
		sub := SavedObject{Code: led.Code, Desc1: led.Desc1, Desc2: led.Desc2}
		if ed.Length > 0 {
			sub.Length = millimetres(ed.Length - led.Radius)
		}
		subobjects = append(subobjects, sub)
	}
	o, ok := s.Object(id)
	if !ok {
		return fmt.Errorf("%w: %s", scene.ErrUnknownObject, id.Short())
	}
	if _, done := p.Saved(id); done {
		return fmt.Errorf("%w: %s", ErrAlreadySaved, id.Short())
	}

	group := ed.Group
	if ed.Reference != nil && o.State() != scene.StateAttached {
		g, err := s.Apply(*ed.Reference, id)
		if err != nil {
			return err
		}
		group = g
	}

	if group != "" {
		for _, j := range cat.Joiners(group) {
			p.Objects = append(p.Objects, SavedObject{
				Code:        j.Code,
				Length:      millimetres(0),
				Hidden:      true,
				ConnectedTo: []scene.ObjectID{id},
			})
		}
	}

	if ed.CustomLength && ed.Length > 0 && item.Len > 0 {
		if err := s.Scale(id, ed.Length/item.Len); err != nil {
			return err
		}
	}

	line := SavedObject{
		Code:         ed.Item,
		Desc1:        item.Desc1,
		Desc2:        item.Desc2,
		CustomLength: ed.CustomLength,
		Subobjects:   subobjects,
		Object:       id,
	}
	if ed.Length > 0 {
		line.Length = millimetres(ed.Length)
	}
	p.Objects = append(p.Objects, line)

	self := resolver.PartOf(o.Entry())
	for _, nid := range o.Junctions() {
		if nid == "" {
			continue
		}
		saved, ok := p.Saved(nid)
		if !ok {
			continue
		}
		e, ok := cat.Entry(saved.Code)
		if !ok {
			continue
		}
		code := resolver.RequiredConnector(resolver.PartOf(e), self)
		if code == "" {
			continue
		}
		p.Objects = append(p.Objects, SavedObject{
			Code:            code,
			Desc1:           AutoConnectorDesc,
			Length:          millimetres(0),
			Hidden:          true,
			IsAutoConnector: true,
			ConnectedTo:     []scene.ObjectID{nid, id},
		})
	}
	return nil
}

func millimetres(v float64) *float64 { return &v }

func ledItem(cat *catalog.Catalog, fam *catalog.Family, code string) (catalog.FamilyItem, error) {
	leds, ok := cat.Family(fam.LedFamily)
	if !ok {
		return catalog.FamilyItem{}, fmt.Errorf("%w: %s has no LED family", ErrUnknownFamily, fam.Code)
	}
	led, ok := leds.Item(code)
	if !ok {
		return catalog.FamilyItem{}, fmt.Errorf("%w: %q in %s", ErrUnknownItem, code, leds.Code)
	}
	return led, nil
}

// Saved returns the visible line describing a scene object.
func (p *Project) Saved(id scene.ObjectID) (SavedObject, bool) {
	for _, so := range p.Objects {
		if so.Object == id {
			return so, true
		}
	}
	return SavedObject{}, false
}

// Remove deletes a scene object together with its line and every hidden
// line that exists because of it.
func (p *Project) Remove(s *scene.Session, id scene.ObjectID) error {
	if err := s.Remove(id); err != nil {
		return err
	}
	kept := p.Objects[:0]
	for _, so := range p.Objects {
		if so.Object == id || references(so, id) {
			continue
		}
		kept = append(kept, so)
	}
	p.Objects = kept
	return nil
}

func references(so SavedObject, id scene.ObjectID) bool {
	for _, c := range so.ConnectedTo {
		if c == id {
			return true
		}
	}
	return false
}

// Visible returns the lines shown in the sidebar.
func (p *Project) Visible() []SavedObject {
	var out []SavedObject
	for _, so := range p.Objects {
		if !so.Hidden {
			out = append(out, so)
		}
	}
	return out
}

// PowerBudget sums power × length over the lines and their subobjects, in
// watts. Subobjects take their parent's length; lines without a length
// count as DefaultLength, while a zero length (joiners, connectors)
// contributes nothing. Codes missing from the catalog contribute nothing.
func PowerBudget(cat *catalog.Catalog, objs []SavedObject) float64 {
	total := 0.0
	for _, so := range objs {
		length := DefaultLength
		if so.Length != nil {
			length = *so.Length
		}
		if e, ok := cat.Entry(so.Code); ok {
			total += e.Power * length / 1000
		}
		for _, sub := range so.Subobjects {
			if e, ok := cat.Entry(sub.Code); ok {
				total += e.Power * length / 1000
			}
		}
	}
	return total
}

// TotalLength sums the developed length of every line whose code belongs
// to a family.
func TotalLength(cat *catalog.Catalog, objs []SavedObject) float64 {
	total := 0.0
	for _, so := range objs {
		if it, ok := cat.ItemOf(so.Code); ok {
			total += it.TotalLength
		}
	}
	return total
}
