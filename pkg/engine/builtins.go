package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/chazu/luxframe/pkg/geom"
	"github.com/chazu/luxframe/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene script source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: attach-line -> attach_line
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpPart wraps a scene object so it can be passed between builtins.
type sexpPart struct {
	id   scene.ObjectID
	code string
	name string // script name for error messages
}

func (p *sexpPart) SexpString(ps *zygo.PrintState) string {
	if p.name != "" {
		return fmt.Sprintf("(part %q)", p.name)
	}
	return fmt.Sprintf("(part %s %s)", p.code, p.id.Short())
}
func (p *sexpPart) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a geom.Vec.
type sexpVec3 struct {
	vec geom.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as a flag.
				result.kw[name] = &zygo.SexpBool{Val: true}
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false and treats nil as false.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return false, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toPart extracts an object reference.
func toPart(s zygo.Sexp) (*sexpPart, error) {
	if p, ok := s.(*sexpPart); ok {
		return p, nil
	}
	return nil, fmt.Errorf("expected part, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a vector from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// arg returns the n-th positional argument or an error naming the
// builtin.
func (pa kwArgs) arg(builtin string, n int, what string) (zygo.Sexp, error) {
	if n >= len(pa.positional) {
		return nil, fmt.Errorf("%s requires %s as argument %d", builtin, what, n+1)
	}
	return pa.positional[n], nil
}

func (pa kwArgs) part(builtin string, n int, what string) (*sexpPart, error) {
	v, err := pa.arg(builtin, n, what)
	if err != nil {
		return nil, err
	}
	p, err := toPart(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", builtin, what, err)
	}
	return p, nil
}

// optInt returns the keyword value as *int, or nil when absent.
func (pa kwArgs) optInt(builtin, key string) (*int, error) {
	v, ok := pa.kw[key]
	if !ok {
		return nil, nil
	}
	n, err := toInt(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", builtin, key, err)
	}
	return &n, nil
}

func (pa kwArgs) optBool(builtin, key string) (bool, error) {
	v, ok := pa.kw[key]
	if !ok {
		return false, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %s: %w", builtin, key, err)
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// script is the state shared by the builtins of one evaluation.
type script struct {
	ctx     context.Context
	session *scene.Session
	result  *Result
}

func (sc *script) created(id scene.ObjectID, code, name string) (zygo.Sexp, error) {
	sc.result.Placed = append(sc.result.Placed, id)
	if name != "" {
		if _, dup := sc.result.Parts[name]; dup {
			return zygo.SexpNull, fmt.Errorf("a part named %q already exists", name)
		}
		sc.result.Parts[name] = id
	}
	return &sexpPart{id: id, code: code, name: name}, nil
}

func (sc *script) optName(builtin string, pa kwArgs) (string, error) {
	v, ok := pa.kw["name"]
	if !ok {
		return "", nil
	}
	n, err := toString(v)
	if err != nil {
		return "", fmt.Errorf("%s: name: %w", builtin, err)
	}
	return n, nil
}

// registerBuiltins installs the scene builtins into a zygomys environment.
// They operate on sc.session, mutating it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
// Kebab-case builtins are registered with underscores for the same reason.
func registerBuiltins(env *zygo.Zlisp, sc *script) {
	s := sc.session

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: geom.V(x, y, z)}, nil
	})

	// -----------------------------------------------------------------------
	// (place "XNP100" :name "left" :at (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, err := pa.arg("place", 0, "a catalog code")
		if err != nil {
			return zygo.SexpNull, err
		}
		code, err := toString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: code: %w", err)
		}
		partName, err := sc.optName("place", pa)
		if err != nil {
			return zygo.SexpNull, err
		}

		id, err := s.AddObject(sc.ctx, code)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}
		if v, ok := pa.kw["at"]; ok {
			at, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			o, _ := s.Object(id)
			delta := at.Sub(o.Transform().Position)
			if err := s.MoveConfiguration([]scene.ObjectID{id}, delta); err != nil {
				return zygo.SexpNull, fmt.Errorf("place: %w", err)
			}
		}
		return sc.created(id, code, partName)
	})

	// -----------------------------------------------------------------------
	// (extruded "XNP100" 2.5 :name "run")
	// -----------------------------------------------------------------------
	env.AddFunction("extruded", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, err := pa.arg("extruded", 0, "a catalog code")
		if err != nil {
			return zygo.SexpNull, err
		}
		code, err := toString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extruded: code: %w", err)
		}
		v, err = pa.arg("extruded", 1, "a length")
		if err != nil {
			return zygo.SexpNull, err
		}
		length, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extruded: length: %w", err)
		}
		partName, err := sc.optName("extruded", pa)
		if err != nil {
			return zygo.SexpNull, err
		}

		id, err := s.AddExtruded(code, length)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extruded: %w", err)
		}
		return sc.created(id, code, partName)
	})

	// -----------------------------------------------------------------------
	// (part "left")
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}

		id, ok := sc.result.Parts[partName]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
		}
		o, ok := s.Object(id)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("part: %q was removed", partName)
		}
		return &sexpPart{id: id, code: o.Code(), name: partName}, nil
	})

	// -----------------------------------------------------------------------
	// (attach host child :host-slot 1 :child-slot 0 :no-frame true)
	// -----------------------------------------------------------------------
	env.AddFunction("attach", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		host, err := pa.part("attach", 0, "a host part")
		if err != nil {
			return zygo.SexpNull, err
		}
		child, err := pa.part("attach", 1, "a child part")
		if err != nil {
			return zygo.SexpNull, err
		}

		var opts scene.AttachOptions
		if opts.HostSlot, err = pa.optInt("attach", "host-slot"); err != nil {
			return zygo.SexpNull, err
		}
		if opts.OtherSlot, err = pa.optInt("attach", "child-slot"); err != nil {
			return zygo.SexpNull, err
		}
		if opts.NoFrame, err = pa.optBool("attach", "no-frame"); err != nil {
			return zygo.SexpNull, err
		}

		group, err := s.Attach(host.id, child.id, opts)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("attach: %w", err)
		}
		return &zygo.SexpStr{S: group}, nil
	})

	// -----------------------------------------------------------------------
	// (attach-line host child (vec3 0.5 0 0) :curve 0 :force true)
	// -----------------------------------------------------------------------
	env.AddFunction("attach_line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		host, err := pa.part("attach-line", 0, "a host part")
		if err != nil {
			return zygo.SexpNull, err
		}
		child, err := pa.part("attach-line", 1, "a child part")
		if err != nil {
			return zygo.SexpNull, err
		}
		v, err := pa.arg("attach-line", 2, "a target point")
		if err != nil {
			return zygo.SexpNull, err
		}
		target, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("attach-line: target: %w", err)
		}

		var opts scene.LineOptions
		curve, err := pa.optInt("attach-line", "curve")
		if err != nil {
			return zygo.SexpNull, err
		}
		if curve != nil {
			opts.Curve = *curve
		}
		if opts.Force, err = pa.optBool("attach-line", "force"); err != nil {
			return zygo.SexpNull, err
		}

		group, err := s.AttachLine(host.id, child.id, target, opts)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("attach-line: %w", err)
		}
		return &zygo.SexpStr{S: group}, nil
	})

	// -----------------------------------------------------------------------
	// (detach a b)
	// -----------------------------------------------------------------------
	env.AddFunction("detach", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		a, err := pa.part("detach", 0, "a part")
		if err != nil {
			return zygo.SexpNull, err
		}
		b, err := pa.part("detach", 1, "a part")
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := s.Detach(a.id, b.id); err != nil {
			return zygo.SexpNull, fmt.Errorf("detach: %w", err)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (detach-all a)
	// -----------------------------------------------------------------------
	env.AddFunction("detach_all", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p, err := pa.part("detach-all", 0, "a part")
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := s.DetachAll(p.id); err != nil {
			return zygo.SexpNull, fmt.Errorf("detach-all: %w", err)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (rotate-part connector)
	// -----------------------------------------------------------------------
	env.AddFunction("rotate_part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p, err := pa.part("rotate-part", 0, "a part")
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := s.Rotate(p.id); err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate-part: %w", err)
		}
		return p, nil
	})

	// -----------------------------------------------------------------------
	// (move-light light 0.3)
	// -----------------------------------------------------------------------
	env.AddFunction("move_light", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p, err := pa.part("move-light", 0, "a light")
		if err != nil {
			return zygo.SexpNull, err
		}
		v, err := pa.arg("move-light", 1, "a curve position")
		if err != nil {
			return zygo.SexpNull, err
		}
		pos, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("move-light: position: %w", err)
		}
		group, err := s.RelocateLight(p.id, pos)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("move-light: %w", err)
		}
		return &zygo.SexpStr{S: group}, nil
	})

	// -----------------------------------------------------------------------
	// (remove-part p)
	// -----------------------------------------------------------------------
	env.AddFunction("remove_part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p, err := pa.part("remove-part", 0, "a part")
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := s.Remove(p.id); err != nil {
			return zygo.SexpNull, fmt.Errorf("remove-part: %w", err)
		}
		if p.name != "" {
			delete(sc.result.Parts, p.name)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (curve-position light)
	// -----------------------------------------------------------------------
	env.AddFunction("curve_position", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p, err := pa.part("curve-position", 0, "a part")
		if err != nil {
			return zygo.SexpNull, err
		}
		o, ok := s.Object(p.id)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("curve-position: %w: %s", scene.ErrUnknownObject, p.id.Short())
		}
		return &zygo.SexpFloat{Val: o.CurvePosition()}, nil
	})

	// -----------------------------------------------------------------------
	// (group-of p 0)
	// -----------------------------------------------------------------------
	env.AddFunction("group_of", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p, err := pa.part("group-of", 0, "a part")
		if err != nil {
			return zygo.SexpNull, err
		}
		v, err := pa.arg("group-of", 1, "a junction index")
		if err != nil {
			return zygo.SexpNull, err
		}
		slot, err := toInt(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group-of: junction: %w", err)
		}
		o, ok := s.Object(p.id)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("group-of: %w: %s", scene.ErrUnknownObject, p.id.Short())
		}
		juncts := o.Entry().Juncts
		if slot < 0 || slot >= len(juncts) {
			return zygo.SexpNull, fmt.Errorf("group-of: %s has no junction %d", o.Code(), slot)
		}
		return &zygo.SexpStr{S: juncts[slot].Group}, nil
	})
}
