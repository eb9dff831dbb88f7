package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/facet"
	"github.com/chazu/ellipsoid/pkg/intercept"
	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpEllipsoid wraps the parameters built by `ellipsoid`.
type sexpEllipsoid struct {
	params ellipsoid.Parameters
}

func (e *sexpEllipsoid) SexpString(ps *zygo.PrintState) string {
	p := e.params
	return fmt.Sprintf("(ellipsoid %g %g %g %d %d)", p.A, p.B, p.C, p.NTheta, p.NPhi)
}
func (e *sexpEllipsoid) Type() *zygo.RegisteredType { return nil }

// sexpObjectRef names an object already added to the scene.
type sexpObjectRef struct {
	name string
}

func (o *sexpObjectRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(object %q)", o.name)
}
func (o *sexpObjectRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps an r3.Vec.
type sexpVec3 struct {
	vec r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Trailing keyword with no value.
			result.kw[name] = zygo.SexpNull
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

// toInt extracts an integer, truncating floats toward zero.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// toBool accepts true/false or a number, which is true when positive, the
// same rule the host applies to flag slots.
func toBool(s zygo.Sexp) (bool, error) {
	if v, ok := s.(*zygo.SexpBool); ok {
		return v.Val, nil
	}
	f, err := toFloat64(s)
	if err != nil {
		return false, fmt.Errorf("expected boolean or number, got %T (%s)", s, s.SexpString(nil))
	}
	return f > 0, nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts an r3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (r3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toObjectName accepts an object reference or a plain object name.
func toObjectName(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *sexpObjectRef:
		return v.name, nil
	case *zygo.SexpStr:
		return v.S, nil
	}
	return "", fmt.Errorf("expected object reference, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// ellipsoidFloats and ellipsoidInts map keywords accepted by `ellipsoid` to
// their parameter fields.
var (
	ellipsoidFloats = map[string]func(*ellipsoid.Parameters) *float64{
		"a": func(p *ellipsoid.Parameters) *float64 { return &p.A },
		"b": func(p *ellipsoid.Parameters) *float64 { return &p.B },
		"c": func(p *ellipsoid.Parameters) *float64 { return &p.C },
	}
	ellipsoidInts = map[string]func(*ellipsoid.Parameters) *int{
		"n-theta": func(p *ellipsoid.Parameters) *int { return &p.NTheta },
		"n-phi":   func(p *ellipsoid.Parameters) *int { return &p.NPhi },
	}
	ellipsoidBools = map[string]func(*ellipsoid.Parameters) *bool{
		"volume":     func(p *ellipsoid.Parameters) *bool { return &p.Volume },
		"reflective": func(p *ellipsoid.Parameters) *bool { return &p.Reflective },
	}
)

// registerBuiltins installs the scene builtins into a zygomys environment.
// The builtins populate scene during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, scene *Scene) {

	// -----------------------------------------------------------------------
	// (ellipsoid :a 2 :b 1 :c 1 :n-theta 12 :n-phi 16 :volume true :reflective false)
	// Unset keywords take the default parameter values.
	// -----------------------------------------------------------------------
	env.AddFunction("ellipsoid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p := ellipsoid.Defaults()

		for kw, v := range pa.kw {
			switch {
			case ellipsoidFloats[kw] != nil:
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("ellipsoid: %s: %w", kw, err)
				}
				*ellipsoidFloats[kw](&p) = f
			case ellipsoidInts[kw] != nil:
				n, err := toInt(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("ellipsoid: %s: %w", kw, err)
				}
				*ellipsoidInts[kw](&p) = n
			case ellipsoidBools[kw] != nil:
				b, err := toBool(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("ellipsoid: %s: %w", kw, err)
				}
				*ellipsoidBools[kw](&p) = b
			default:
				return zygo.SexpNull, fmt.Errorf("ellipsoid: unknown keyword :%s", kw)
			}
		}

		return &sexpEllipsoid{params: p}, nil
	})

	// -----------------------------------------------------------------------
	// (defobject "name" (ellipsoid ...))
	// -----------------------------------------------------------------------
	env.AddFunction("defobject", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("defobject requires a name and a body expression")
		}

		objName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defobject: name: %w", err)
		}
		body, ok := args[1].(*sexpEllipsoid)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("defobject: expected ellipsoid expression, got %T", args[1])
		}

		obj := &Object{Name: objName, Params: body.params.Validate()}
		if _, err := obj.Params.CheckTriangles(0); err != nil {
			return zygo.SexpNull, fmt.Errorf("defobject %q: %w", objName, err)
		}
		if err := scene.AddObject(obj); err != nil {
			return zygo.SexpNull, fmt.Errorf("defobject: %w", err)
		}
		return &sexpObjectRef{name: objName}, nil
	})

	// -----------------------------------------------------------------------
	// (object "name")
	// -----------------------------------------------------------------------
	env.AddFunction("object", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("object requires a name argument")
		}

		objName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("object: name: %w", err)
		}
		if scene.Lookup(objName) == nil {
			return zygo.SexpNull, fmt.Errorf("object: no object named %q", objName)
		}
		return &sexpObjectRef{name: objName}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		var c [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: r3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (probe "name" (object "lens") :from (vec3 0 0 5) :dir (vec3 0 0 -1) :group 1)
	// :group defaults to the ellipsoid exact group.
	// -----------------------------------------------------------------------
	env.AddFunction("probe", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("probe requires a name and an object reference")
		}

		probeName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("probe: name: %w", err)
		}
		objName, err := toObjectName(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("probe: object: %w", err)
		}
		if scene.Lookup(objName) == nil {
			return zygo.SexpNull, fmt.Errorf("probe: no object named %q", objName)
		}

		ray := intercept.Ray{ExactGroup: facet.ExactEllipsoid}
		if v, ok := pa.kw["from"]; ok {
			if ray.Origin, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("probe: from: %w", err)
			}
		}
		v, ok := pa.kw["dir"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("probe: :dir is required")
		}
		if ray.Dir, err = toVec3(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("probe: dir: %w", err)
		}
		if v, ok := pa.kw["group"]; ok {
			if ray.ExactGroup, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("probe: group: %w", err)
			}
		}

		scene.Probes = append(scene.Probes, &Probe{Name: probeName, Object: objName, Ray: ray})
		return zygo.SexpNull, nil
	})
}
