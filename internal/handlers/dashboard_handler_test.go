package handlers

import (
	"net/http"
	"testing"

	"mathdrill/internal/models"
	"mathdrill/internal/service"
)

func TestDashboardEndpoints(t *testing.T) {
	srv := newTestServer(t, "", true)

	dashboard := decode[service.Dashboard](t, srv.do(http.MethodGet, "/api/dashboard", nil))
	if dashboard.Stats.TotalAnswers != 0 || len(dashboard.History) != 14 {
		t.Errorf("fresh dashboard = %+v", dashboard)
	}

	skills := decode[[]models.Skill](t, srv.do(http.MethodGet, "/api/skills", nil))
	if len(skills) == 0 {
		t.Fatal("expected seeded skills")
	}
	for i := 1; i < len(skills); i++ {
		if skills[i-1].SortOrder > skills[i].SortOrder {
			t.Fatalf("skills out of order at %d", i)
		}
	}

	band := decode[[]models.Skill](t, srv.do(http.MethodGet, "/api/skills?gradeBand=K-2", nil))
	for _, s := range band {
		if s.GradeBand != models.GradeBandK2 {
			t.Errorf("skill %q has band %q", s.Name, s.GradeBand)
		}
	}
	if rec := srv.do(http.MethodGet, "/api/skills?gradeBand=9-12", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown band status = %d, want 400", rec.Code)
	}

	if reviews := decode[[]models.ReviewItem](t, srv.do(http.MethodGet, "/api/reviews/due", nil)); len(reviews) != 0 {
		t.Errorf("due reviews = %d, want 0", len(reviews))
	}
	if achievements := decode[[]models.Achievement](t, srv.do(http.MethodGet, "/api/achievements", nil)); len(achievements) != 0 {
		t.Errorf("achievements = %d, want 0", len(achievements))
	}
}

func TestPrefsEndpoints(t *testing.T) {
	srv := newTestServer(t, "", false)

	prefs := decode[models.UserPrefs](t, srv.do(http.MethodGet, "/api/prefs", nil))
	if prefs.GradeBand != models.DefaultGradeBand || prefs.Timezone != "UTC" {
		t.Errorf("default prefs = %+v", prefs)
	}

	tests := []struct {
		name  string
		prefs models.UserPrefs
		want  int
		field string
	}{
		{"valid", models.UserPrefs{GradeBand: models.GradeBand68, DailyGoal: 30, Theme: "light", Timezone: "Europe/London"}, http.StatusOK, ""},
		{"goal too small", models.UserPrefs{GradeBand: models.GradeBand68, DailyGoal: 0}, http.StatusBadRequest, "dailyGoal"},
		{"bad band", models.UserPrefs{GradeBand: "college", DailyGoal: 10}, http.StatusBadRequest, "gradeBand"},
		{"bad timezone", models.UserPrefs{GradeBand: models.GradeBandK2, DailyGoal: 10, Timezone: "Mars/Base"}, http.StatusBadRequest, "timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodPut, "/api/prefs", tt.prefs)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.field != "" {
				if got := decode[errorResponse](t, rec); got.Field != tt.field {
					t.Errorf("field = %q, want %q", got.Field, tt.field)
				}
			}
		})
	}

	saved := decode[models.UserPrefs](t, srv.do(http.MethodGet, "/api/prefs", nil))
	if saved.GradeBand != models.GradeBand68 || saved.DailyGoal != 30 || saved.Timezone != "Europe/London" {
		t.Errorf("saved prefs = %+v", saved)
	}
}
