// Package facet packs and unpacks the six-digit attribute word that
// accompanies every triangle handed to the host.
//
// The word is laid out in decimal, least significant first:
//
//	ones               invisible edges (bitset, 0-7)
//	tens               reflective flag (0 or 1)
//	hundreds/thousands coat/scatter group (0-99)
//	ten-thousands and up exact group (0-99)
//
// so 030212 is exact group 3, coat group 2, reflective, edge 2-3 hidden.
package facet

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Exact groups understood by the intercept solver.
const (
	// ExactFlat means the flat facet is itself the exact surface.
	ExactFlat = 0
	// ExactEllipsoid selects Newton refinement onto the ellipsoid.
	ExactEllipsoid = 1
)

// SupportedCoatGroups is the number of coat/scatter groups the host honours.
// The word reserves two digits, so larger values encode but carry no meaning.
const SupportedCoatGroups = 4

// MaxWord is the largest encodable attribute word.
const MaxWord Word = 999999

var (
	// ErrInvalidAttribute reports a sub-field outside its domain.
	ErrInvalidAttribute = errors.New("facet: invalid attribute")
	// ErrInvalidWord reports a word that does not decode to valid sub-fields.
	ErrInvalidWord = errors.New("facet: invalid attribute word")
)

// Edges is the invisible-edge bitset of a triangle. A set bit means the edge
// is not drawn on layout plots; it has no effect on tracing.
type Edges uint8

const (
	EdgeAB Edges = 1 << iota // vertex 1 -> vertex 2
	EdgeBC                   // vertex 2 -> vertex 3
	EdgeCA                   // vertex 3 -> vertex 1

	NoEdges  Edges = 0
	AllEdges       = EdgeAB | EdgeBC | EdgeCA
)

// Hidden reports whether every edge in e is marked invisible.
func (s Edges) Hidden(e Edges) bool {
	return s&e == e
}

func (s Edges) String() string {
	if s == NoEdges {
		return "none"
	}
	var parts []string
	if s.Hidden(EdgeAB) {
		parts = append(parts, "1-2")
	}
	if s.Hidden(EdgeBC) {
		parts = append(parts, "2-3")
	}
	if s.Hidden(EdgeCA) {
		parts = append(parts, "3-1")
	}
	return strings.Join(parts, ",")
}

// Attribute is the unpacked form of a Word.
type Attribute struct {
	Invisible  Edges
	Reflective bool
	CoatGroup  int
	ExactGroup int
}

// Validate checks every sub-field against its digit range.
func (a Attribute) Validate() error {
	if a.Invisible > AllEdges {
		return fmt.Errorf("%w: invisible edges %d out of range 0-7", ErrInvalidAttribute, a.Invisible)
	}
	if a.CoatGroup < 0 || a.CoatGroup > 99 {
		return fmt.Errorf("%w: coat group %d out of range 0-99", ErrInvalidAttribute, a.CoatGroup)
	}
	if a.ExactGroup < 0 || a.ExactGroup > 99 {
		return fmt.Errorf("%w: exact group %d out of range 0-99", ErrInvalidAttribute, a.ExactGroup)
	}
	return nil
}

// Encode packs a into a word. The result is only meaningful for attributes
// that pass Validate.
func (a Attribute) Encode() Word {
	w := Word(a.ExactGroup)*10000 + Word(a.CoatGroup)*100 + Word(a.Invisible)
	if a.Reflective {
		w += 10
	}
	return w
}

// Word is a packed attribute.
type Word uint32

// Invisible returns the hidden-edge bitset.
func (w Word) Invisible() Edges { return Edges(w % 10) }

// Reflective reports whether the facet reflects rather than refracts.
func (w Word) Reflective() bool { return (w/10)%10 == 1 }

// CoatGroup returns the coat/scatter group.
func (w Word) CoatGroup() int { return int((w / 100) % 100) }

// ExactGroup returns the exact-surface group.
func (w Word) ExactGroup() int { return int((w / 10000) % 100) }

// Attribute unpacks w without validation.
func (w Word) Attribute() Attribute {
	return Attribute{
		Invisible:  w.Invisible(),
		Reflective: w.Reflective(),
		CoatGroup:  w.CoatGroup(),
		ExactGroup: w.ExactGroup(),
	}
}

// Float returns w as stored in the host's triangle buffer.
func (w Word) Float() float64 { return float64(w) }

func (w Word) String() string { return fmt.Sprintf("%06d", uint32(w)) }

// Decode unpacks w, rejecting words whose digits fall outside their domain.
func Decode(w Word) (Attribute, error) {
	if w > MaxWord {
		return Attribute{}, fmt.Errorf("%w: %d exceeds six digits", ErrInvalidWord, w)
	}
	if d := w % 10; d > Word(AllEdges) {
		return Attribute{}, fmt.Errorf("%w: %s has invisible digit %d", ErrInvalidWord, w, d)
	}
	if d := (w / 10) % 10; d > 1 {
		return Attribute{}, fmt.Errorf("%w: %s has reflective digit %d", ErrInvalidWord, w, d)
	}
	return w.Attribute(), nil
}

// FromFloat converts a value read from the host's triangle buffer.
func FromFloat(f float64) (Word, error) {
	if math.IsNaN(f) || f < 0 || f > float64(MaxWord) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidWord, f)
	}
	w := Word(f)
	if _, err := Decode(w); err != nil {
		return 0, err
	}
	return w, nil
}
