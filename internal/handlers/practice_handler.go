package handlers

import (
	"context"
	"net/http"
	"sync"

	"mathdrill/internal/logger"
	"mathdrill/internal/models"
	"mathdrill/internal/service"
)

// SessionStarter opens practice sessions
type SessionStarter interface {
	Start(ctx context.Context, settings service.SessionSettings) (*service.PracticeSession, error)
}

// PracticeHandler drives the learner's practice session over HTTP.
// At most one session is active; starting a new one abandons the old.
type PracticeHandler struct {
	starter SessionStarter
	log     *logger.Logger

	mu      sync.Mutex
	session *service.PracticeSession
	last    *service.SessionSummary
}

// NewPracticeHandler creates a new practice handler
func NewPracticeHandler(starter SessionStarter, log *logger.Logger) *PracticeHandler {
	return &PracticeHandler{starter: starter, log: log}
}

type startRequest struct {
	SkillID string `json:"skillId"`
	Level   string `json:"level"`
	Target  int    `json:"target"`
	Mode    string `json:"mode"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type nextResponse struct {
	Finished bool                    `json:"finished"`
	Session  *service.SessionView    `json:"session,omitempty"`
	Summary  *service.SessionSummary `json:"summary,omitempty"`
}

// StartPractice opens a new session and returns its first question
func (h *PracticeHandler) StartPractice(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	session, err := h.starter.Start(r.Context(), service.SessionSettings{
		SkillID: req.SkillID,
		Level:   models.Level(req.Level),
		Target:  req.Target,
		Mode:    service.SessionMode(req.Mode),
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.mu.Lock()
	if h.session != nil {
		h.session.Close()
	}
	h.session = session
	h.last = nil
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, session.View())
}

// GetPractice returns the active session's state
func (h *PracticeHandler) GetPractice(w http.ResponseWriter, r *http.Request) {
	session, ok := h.active(w)
	if !ok {
		return
	}
	view := session.View()
	if view.Finished {
		// The auto-advance timer can end a session without a request.
		if summary := session.Summary(); summary != nil {
			h.finish(session, summary)
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// SubmitAnswer checks an answer against the current question
func (h *PracticeHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.active(w)
	if !ok {
		return
	}
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	result, err := session.Submit(r.Context(), req.Answer)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// NextQuestion advances past an answered question, ending the session after the last one
func (h *PracticeHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	session, ok := h.active(w)
	if !ok {
		return
	}
	summary, err := session.Next(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if summary != nil {
		h.finish(session, summary)
		writeJSON(w, http.StatusOK, nextResponse{Finished: true, Summary: summary})
		return
	}
	view := session.View()
	writeJSON(w, http.StatusOK, nextResponse{Session: &view})
}

// EndPractice finishes the session early and saves its stats
func (h *PracticeHandler) EndPractice(w http.ResponseWriter, r *http.Request) {
	session, ok := h.active(w)
	if !ok {
		return
	}
	summary, err := session.End(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	h.finish(session, summary)
	writeJSON(w, http.StatusOK, summary)
}

// ExitPractice abandons the session without saving stats
func (h *PracticeHandler) ExitPractice(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.session != nil {
		h.session.Close()
		h.session = nil
	}
	h.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// GetSummary returns the summary of the most recently finished session
func (h *PracticeHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	summary := h.last
	if summary == nil && h.session != nil {
		// Ended by the auto-advance timer before anyone looked.
		summary = h.session.Summary()
		h.last = summary
	}
	h.mu.Unlock()

	if summary == nil {
		writeServiceError(w, h.log, service.ErrNoSession)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Close abandons any active session
func (h *PracticeHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session != nil {
		h.session.Close()
		h.session = nil
	}
}

func (h *PracticeHandler) active(w http.ResponseWriter) (*service.PracticeSession, bool) {
	h.mu.Lock()
	session := h.session
	h.mu.Unlock()
	if session == nil {
		writeServiceError(w, h.log, service.ErrNoSession)
		return nil, false
	}
	return session, true
}

// finish records a summary if the session is still the active one
func (h *PracticeHandler) finish(session *service.PracticeSession, summary *service.SessionSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == session {
		h.last = summary
	}
}
