package scene

import (
	"fmt"
	"math"
)

// Severity indicates whether a finding breaks an invariant or is advisory.
type Severity int

const (
	SeverityError   Severity = iota // a structural invariant is broken
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single finding.
type ValidationError struct {
	Object   ObjectID // which object has the problem (empty if scene-level)
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	if e.Object == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] object %s: %s", e.Severity, e.Object.Short(), e.Message)
}

// Validate checks the structural invariants of the session. It never
// mutates state; an empty result means the scene is consistent.
func (s *Session) Validate() []ValidationError {
	var errs []ValidationError
	for _, id := range s.order {
		o := s.objects[id]
		errs = append(errs, validateShape(o)...)
		errs = append(errs, s.validateLinks(o)...)
		errs = append(errs, s.validateCurves(o)...)
	}
	return errs
}

func finding(o *Object, sev Severity, format string, args ...any) ValidationError {
	return ValidationError{Object: o.ID, Message: fmt.Sprintf(format, args...), Severity: sev}
}

// validateShape checks that occupancy arrays mirror the catalog entry.
func validateShape(o *Object) []ValidationError {
	var errs []ValidationError
	if len(o.junctions) != len(o.entry.Juncts) {
		errs = append(errs, finding(o, SeverityError,
			"%d junction occupants for %d junctions", len(o.junctions), len(o.entry.Juncts)))
	}
	if len(o.lineJunctions) != len(o.entry.LineJuncts) {
		errs = append(errs, finding(o, SeverityError,
			"%d curve occupant lists for %d curves", len(o.lineJunctions), len(o.entry.LineJuncts)))
	}
	if !o.placed {
		if o.attached() {
			errs = append(errs, finding(o, SeverityError, "unplaced object has connections"))
		} else {
			errs = append(errs, finding(o, SeverityWarning, "%s was reserved but never placed", o.Code()))
		}
	}
	return errs
}

// validateLinks checks that every reference resolves and is mirrored.
func (s *Session) validateLinks(o *Object) []ValidationError {
	var errs []ValidationError
	seen := make(map[ObjectID]int)
	for i, id := range o.junctions {
		if id == "" {
			continue
		}
		if prev, dup := seen[id]; dup {
			errs = append(errs, finding(o, SeverityError,
				"junctions %d and %d both hold %s", prev, i, id.Short()))
		}
		seen[id] = i

		p, ok := s.objects[id]
		if !ok {
			errs = append(errs, finding(o, SeverityError, "junction %d holds unknown object %s", i, id.Short()))
			continue
		}
		if !contains(p.junctions, o.ID) && onCurve(p, o.ID) < 0 {
			errs = append(errs, finding(o, SeverityError,
				"junction %d holds %s but %s does not hold it back", i, id.Short(), p.Code()))
		}
	}

	for c, occ := range o.lineJunctions {
		onThis := make(map[ObjectID]bool)
		for _, id := range occ {
			if onThis[id] {
				errs = append(errs, finding(o, SeverityError, "curve %d lists %s twice", c, id.Short()))
			}
			onThis[id] = true
			p, ok := s.objects[id]
			if !ok {
				errs = append(errs, finding(o, SeverityError, "curve %d holds unknown object %s", c, id.Short()))
				continue
			}
			if !contains(p.junctions, o.ID) {
				errs = append(errs, finding(o, SeverityError,
					"curve %d holds %s but %s does not hold it back", c, id.Short(), p.Code()))
			}
		}
	}
	return errs
}

// validateCurves checks positions and light spacing on o's curves.
func (s *Session) validateCurves(o *Object) []ValidationError {
	var errs []ValidationError
	for c, occ := range o.lineJunctions {
		var lights []*Object
		for _, id := range occ {
			p, ok := s.objects[id]
			if !ok {
				continue
			}
			if p.curvePosition < MoveMin-spacingTolerance || p.curvePosition > MoveMax+spacingTolerance {
				errs = append(errs, finding(p, SeverityError,
					"curve position %.3f outside [%.2f, %.2f]", p.curvePosition, MoveMin, MoveMax))
			}
			if p.entry.IsLight() {
				lights = append(lights, p)
			}
		}
		for i := 0; i < len(lights); i++ {
			for j := i + 1; j < len(lights); j++ {
				a, b := lights[i], lights[j]
				req := math.Max(a.entry.MinSpacing, b.entry.MinSpacing)
				if d := math.Abs(a.curvePosition - b.curvePosition); d < req-spacingTolerance {
					errs = append(errs, finding(o, SeverityError,
						"lights %s and %s on curve %d are %.3f apart, need %.3f",
						a.ID.Short(), b.ID.Short(), c, d, req))
				}
			}
		}
	}
	return errs
}

func contains(ids []ObjectID, id ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
