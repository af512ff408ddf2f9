// Package health tracks server readiness and serves the probe endpoints for
// the HTTP transport.
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// State is a lifecycle phase of the server.
type State string

// Lifecycle phases.
const (
	StateStarting State = "starting"
	StateServing  State = "serving"
	StateDraining State = "draining"
)

// Checker tracks the server lifecycle phase. It is safe for concurrent use.
type Checker struct {
	state atomic.Value // State
}

// NewChecker creates a Checker in the starting phase.
func NewChecker() *Checker {
	c := &Checker{}
	c.state.Store(StateStarting)
	return c
}

// SetReady marks the server as serving traffic.
func (c *Checker) SetReady() {
	c.state.Store(StateServing)
}

// SetDraining marks the server as shutting down.
func (c *Checker) SetDraining() {
	c.state.Store(StateDraining)
}

// State returns the current lifecycle phase.
func (c *Checker) State() State {
	return c.state.Load().(State)
}

// IsReady reports whether the server is serving traffic.
func (c *Checker) IsReady() bool {
	return c.State() == StateServing
}

type probeResponse struct {
	Status State `json:"status"`
}

// LivenessHandler responds 200 regardless of phase; a running process is
// alive. Wire this to /healthz.
func (*Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, http.StatusOK, probeResponse{Status: "ok"})
	}
}

// ReadinessHandler responds 200 while serving and 503 while starting or
// draining. Wire this to /readyz.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		state := c.State()
		code := http.StatusServiceUnavailable
		if state == StateServing {
			code = http.StatusOK
		}
		writeProbe(w, code, probeResponse{Status: state})
	}
}

func writeProbe(w http.ResponseWriter, code int, resp probeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
