package engine

import (
	"fmt"

	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/host"
	"github.com/chazu/ellipsoid/pkg/intercept"
)

// Object is a named ellipsoid declared with defobject.
type Object struct {
	Name   string               `json:"name" yaml:"name"`
	Params ellipsoid.Parameters `json:"params" yaml:"params"`
}

// Probe is a named ray aimed at an object, declared with probe.
type Probe struct {
	Name   string        `json:"name"`
	Object string        `json:"object"`
	Ray    intercept.Ray `json:"ray"`
}

// Scene is the output of a script: objects in declaration order and the
// probes fired at them.
type Scene struct {
	Objects []*Object
	Probes  []*Probe

	index map[string]*Object
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{index: make(map[string]*Object)}
}

// AddObject appends o. Object names are unique within a scene.
func (s *Scene) AddObject(o *Object) error {
	if _, ok := s.index[o.Name]; ok {
		return fmt.Errorf("duplicate object name %q", o.Name)
	}
	s.index[o.Name] = o
	s.Objects = append(s.Objects, o)
	return nil
}

// Lookup returns the object with the given name, or nil.
func (s *Scene) Lookup(name string) *Object {
	return s.index[name]
}

// ObjectCount returns the number of declared objects.
func (s *Scene) ObjectCount() int {
	return len(s.Objects)
}

// ProbeResult is the outcome of firing one probe.
type ProbeResult struct {
	Probe  *Probe
	Result intercept.Result
	Err    error
}

// Trace fires every probe at its object through p.
func (s *Scene) Trace(p *host.Provider) []ProbeResult {
	out := make([]ProbeResult, 0, len(s.Probes))
	for _, pr := range s.Probes {
		r := ProbeResult{Probe: pr}
		obj := s.Lookup(pr.Object)
		if obj == nil {
			r.Err = fmt.Errorf("probe %q: no object named %q", pr.Name, pr.Object)
			out = append(out, r)
			continue
		}
		resp, err := p.Intercept(obj.Params, pr.Ray)
		r.Result, r.Err = resp.Result, err
		out = append(out, r)
	}
	return out
}

// Report is a serialisable summary of a traced scene.
type Report struct {
	Objects []ObjectReport `json:"objects"`
	Probes  []ProbeReport  `json:"probes"`
}

// ObjectReport is one object with its facet count. Error is set when the
// provider refused to count it.
type ObjectReport struct {
	Name      string               `json:"name"`
	Params    ellipsoid.Parameters `json:"params"`
	Triangles int                  `json:"triangles"`
	Solid     bool                 `json:"solid"`
	Error     string               `json:"error,omitempty"`
}

// ProbeReport is one fired probe. Result is nil when the probe failed.
type ProbeReport struct {
	Name   string            `json:"name"`
	Object string            `json:"object"`
	Result *intercept.Result `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Report counts every object and fires every probe through p.
func (s *Scene) Report(p *host.Provider) *Report {
	r := &Report{
		Objects: make([]ObjectReport, 0, len(s.Objects)),
		Probes:  make([]ProbeReport, 0, len(s.Probes)),
	}
	for _, o := range s.Objects {
		rep := ObjectReport{Name: o.Name, Params: o.Params}
		if c, err := p.Count(o.Params); err != nil {
			rep.Error = err.Error()
		} else {
			rep.Triangles, rep.Solid = c.Triangles, c.Solid
		}
		r.Objects = append(r.Objects, rep)
	}
	for _, pr := range s.Trace(p) {
		rep := ProbeReport{Name: pr.Probe.Name, Object: pr.Probe.Object}
		if pr.Err != nil {
			rep.Error = pr.Err.Error()
		} else {
			rep.Result = &pr.Result
		}
		r.Probes = append(r.Probes, rep)
	}
	return r
}
