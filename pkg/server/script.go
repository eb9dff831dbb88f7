package server

import (
	"github.com/chazu/ellipsoid/pkg/engine"
)

// ScriptResult is the reply to a script message. Script errors are part of
// the result rather than a failed reply.
type ScriptResult struct {
	*engine.Report
	Errors []engine.EvalError `json:"errors,omitempty"`
}

// runScript evaluates src in a fresh engine, so concurrent connections
// never supersede each other's evaluations.
func (s *Server) runScript(src string) (*ScriptResult, error) {
	scene, evalErrs, err := engine.NewEngine().Evaluate(src)
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		return &ScriptResult{Errors: evalErrs}, nil
	}
	return &ScriptResult{Report: scene.Report(s.provider)}, nil
}
