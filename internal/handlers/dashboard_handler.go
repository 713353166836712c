package handlers

import (
	"net/http"
	"time"

	"mathdrill/internal/logger"
	"mathdrill/internal/models"
	"mathdrill/internal/repository"
	"mathdrill/internal/service"
	"mathdrill/internal/validation"
)

// DashboardHandler serves the learner's overview and settings
type DashboardHandler struct {
	dashboard    *service.DashboardService
	reviews      *service.ReviewService
	achievements *service.AchievementService
	prefs        *service.PrefsService
	skills       service.SkillStore
	log          *logger.Logger
	now          func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *service.DashboardService, reviews *service.ReviewService,
	achievements *service.AchievementService, prefs *service.PrefsService, skills service.SkillStore, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard:    dashboard,
		reviews:      reviews,
		achievements: achievements,
		prefs:        prefs,
		skills:       skills,
		log:          log,
		now:          time.Now,
	}
}

// GetDashboard returns stats, history, per-skill accuracy and badges
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboard.Summary(r.Context())
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "Failed to load dashboard", "", err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// GetDueReviews lists review items due now
func (h *DashboardHandler) GetDueReviews(w http.ResponseWriter, r *http.Request) {
	items, err := h.reviews.DueItems(r.Context(), h.now())
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "Failed to load reviews", "", err)
		return
	}
	if items == nil {
		items = []models.ReviewItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// GetAchievements lists unlocked badges, newest first
func (h *DashboardHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.achievements.List(r.Context())
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "Failed to load achievements", "", err)
		return
	}
	if achievements == nil {
		achievements = []models.Achievement{}
	}
	writeJSON(w, http.StatusOK, achievements)
}

// GetSkills lists skills in display order, optionally for one grade band
func (h *DashboardHandler) GetSkills(w http.ResponseWriter, r *http.Request) {
	var (
		skills []models.Skill
		err    error
	)
	if band := r.URL.Query().Get("gradeBand"); band != "" {
		if err := validation.ValidateGradeBand(band); err != nil {
			writeServiceError(w, h.log, err)
			return
		}
		skills, err = h.skills.ListByGradeBand(r.Context(), models.GradeBand(band))
	} else {
		skills, err = h.skills.List(r.Context(), repository.ListOptions{Sort: "sortOrder"})
	}
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "Failed to load skills", "", err)
		return
	}
	if skills == nil {
		skills = []models.Skill{}
	}
	writeJSON(w, http.StatusOK, skills)
}

// GetPrefs returns the learner preferences
func (h *DashboardHandler) GetPrefs(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.prefs.Get(r.Context())
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "Failed to load preferences", "", err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// UpdatePrefs saves the learner preferences
func (h *DashboardHandler) UpdatePrefs(w http.ResponseWriter, r *http.Request) {
	var prefs models.UserPrefs
	if err := decodeJSON(w, r, &prefs); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	saved, err := h.prefs.Update(r.Context(), prefs)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
