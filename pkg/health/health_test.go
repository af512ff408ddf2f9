package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckerStartsInStartingPhase(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, StateStarting, c.State())
	assert.False(t, c.IsReady())
}

func TestPhaseTransitions(t *testing.T) {
	c := NewChecker()

	c.SetReady()
	assert.Equal(t, StateServing, c.State())
	assert.True(t, c.IsReady())

	c.SetDraining()
	assert.Equal(t, StateDraining, c.State())
	assert.False(t, c.IsReady())

	c.SetReady()
	assert.True(t, c.IsReady())
}

func probe(t *testing.T, h http.HandlerFunc, path string) (int, probeResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))

	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var resp probeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w.Code, resp
}

func TestLivenessHandlerAlwaysOK(t *testing.T) {
	c := NewChecker()

	for _, setup := range []func(){func() {}, c.SetReady, c.SetDraining} {
		setup()
		code, resp := probe(t, c.LivenessHandler(), "/healthz")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, State("ok"), resp.Status)
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*Checker)
		wantCode int
		want     State
	}{
		{"starting", func(*Checker) {}, http.StatusServiceUnavailable, StateStarting},
		{"serving", (*Checker).SetReady, http.StatusOK, StateServing},
		{"draining", (*Checker).SetDraining, http.StatusServiceUnavailable, StateDraining},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			tt.setup(c)

			code, resp := probe(t, c.ReadinessHandler(), "/readyz")
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewChecker()

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(3)
		go func() { defer wg.Done(); c.SetReady() }()
		go func() { defer wg.Done(); c.SetDraining() }()
		go func() { defer wg.Done(); _ = c.IsReady() }()
	}
	wg.Wait()

	assert.Contains(t, []State{StateServing, StateDraining}, c.State())
}
