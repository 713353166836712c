package handlers

import (
	"net/http"
	"sync"
)

// StartupStatus tracks initialization and holds back the API until it is done.
// It is the server's root handler: /api/health always reports progress, and
// every other request gets 503 until MarkReady installs the real router.
type StartupStatus struct {
	mu      sync.RWMutex
	ready   bool
	current string
	steps   []StartupStep
	handler http.Handler
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type startupView struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

// NewStartupStatus creates a tracker for the named steps
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{current: "Initializing..."}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
			break
		}
	}
}

// MarkReady starts routing requests to handler
func (s *StartupStatus) MarkReady(handler http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.current = "Server ready"
	s.handler = handler
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *StartupStatus) view() startupView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := startupView{Ready: s.ready, Current: s.current, Steps: append([]StartupStep(nil), s.steps...)}
	switch {
	case s.ready:
		v.Progress = 100
	case len(s.steps) > 0:
		completed := 0
		for _, step := range s.steps {
			if step.Completed {
				completed++
			}
		}
		v.Progress = completed * 100 / len(s.steps)
	}
	return v
}

func (s *StartupStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/health" {
		v := s.view()
		status := http.StatusOK
		if !v.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, v)
		return
	}

	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()
	if handler == nil {
		w.Header().Set("Retry-After", "2")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "server is starting up"})
		return
	}
	handler.ServeHTTP(w, r)
}
