package handlers

import (
	"net/http"

	"mathdrill/internal/logger"
)

// Routes bundles the handlers mounted by NewRouter
type Routes struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Practice   *PracticeHandler
	Dashboard  *DashboardHandler
	Admin      *AdminHandler
	Events     *EventsHandler
}

// NewRouter mounts the JSON API
func NewRouter(rt Routes, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()
	m := rt.Middleware

	mux.HandleFunc("POST /api/login", m.RateLimit(rt.Auth.Login))
	mux.HandleFunc("POST /api/logout", rt.Auth.Logout)

	mux.HandleFunc("POST /api/practice/start", m.RequireAuth(rt.Practice.StartPractice))
	mux.HandleFunc("GET /api/practice", m.RequireAuth(rt.Practice.GetPractice))
	mux.HandleFunc("POST /api/practice/answer", m.RequireAuth(rt.Practice.SubmitAnswer))
	mux.HandleFunc("POST /api/practice/next", m.RequireAuth(rt.Practice.NextQuestion))
	mux.HandleFunc("POST /api/practice/end", m.RequireAuth(rt.Practice.EndPractice))
	mux.HandleFunc("POST /api/practice/exit", m.RequireAuth(rt.Practice.ExitPractice))
	mux.HandleFunc("GET /api/practice/summary", m.RequireAuth(rt.Practice.GetSummary))

	mux.HandleFunc("GET /api/dashboard", m.RequireAuth(rt.Dashboard.GetDashboard))
	mux.HandleFunc("GET /api/reviews/due", m.RequireAuth(rt.Dashboard.GetDueReviews))
	mux.HandleFunc("GET /api/achievements", m.RequireAuth(rt.Dashboard.GetAchievements))
	mux.HandleFunc("GET /api/skills", m.RequireAuth(rt.Dashboard.GetSkills))
	mux.HandleFunc("GET /api/prefs", m.RequireAuth(rt.Dashboard.GetPrefs))
	mux.HandleFunc("PUT /api/prefs", m.RequireAuth(rt.Dashboard.UpdatePrefs))
	mux.HandleFunc("GET /api/events", m.RequireAuth(rt.Events.Stream))

	mux.HandleFunc("GET /api/admin/backup", m.RequireAuth(rt.Admin.ExportDatabase))
	mux.HandleFunc("POST /api/admin/backup", m.RequireAuth(rt.Admin.ImportDatabase))
	mux.HandleFunc("POST /api/admin/demo", m.RequireAuth(rt.Admin.SeedDemo))
	mux.HandleFunc("POST /api/admin/reset-content", m.RequireAuth(rt.Admin.ResetContent))

	return Logging(log, mux)
}
