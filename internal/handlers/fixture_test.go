package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"mathdrill/internal/database"
	"mathdrill/internal/logger"
	"mathdrill/internal/models"
	"mathdrill/internal/repository"
	"mathdrill/internal/service"
)

type testServer struct {
	t        *testing.T
	db       *database.DB
	hub      *service.Hub
	practice *PracticeHandler
	handler  http.Handler
}

// newTestServer wires the full API over a fresh sqlite file. A non-empty
// passcodeHash turns authentication on.
func newTestServer(t *testing.T, passcodeHash string, seed bool) *testServer {
	t.Helper()
	return newTestServerWithDelay(t, passcodeHash, seed, 0)
}

// newTestServerWithDelay is newTestServer with auto-advance after feedbackDelay
func newTestServerWithDelay(t *testing.T, passcodeHash string, seed bool, feedbackDelay time.Duration) *testServer {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	seeder := service.NewSeedService(db, log)
	if seed {
		if _, err := seeder.SeedContent(ctx); err != nil {
			t.Fatalf("Failed to seed content: %v", err)
		}
	}

	stores := service.PracticeStores{
		Skills:    repository.NewSkillRepository(db),
		Questions: repository.NewQuestionRepository(db),
		Attempts:  repository.NewAttemptRepository(db),
		Stats:     repository.NewStatsRepository(db),
		Prefs:     repository.NewPrefsRepository(db),
	}
	hub := service.NewHub(log)
	reviews := service.NewReviewService(repository.NewReviewRepository(db))
	achievements := service.NewAchievementService(repository.NewAchievementRepository(db), hub, log)
	opts := service.DefaultPracticeOptions()
	opts.FeedbackDelay = feedbackDelay
	opts.DefaultTimezone = "UTC"
	practiceService := service.NewPracticeService(stores, reviews, achievements, hub, opts, log)
	authService := service.NewAuthService(passcodeHash, "test-secret-with-enough-length", 0)

	practice := NewPracticeHandler(practiceService, log)
	t.Cleanup(practice.Close)
	routes := Routes{
		Middleware: NewMiddleware(authService, nil, log),
		Auth:       NewAuthHandler(authService, log),
		Practice:   practice,
		Dashboard: NewDashboardHandler(
			service.NewDashboardService(stores, reviews, achievements, "UTC"),
			reviews, achievements,
			service.NewPrefsService(repository.NewPrefsRepository(db), "UTC"),
			stores.Skills, log),
		Admin:  NewAdminHandler(service.NewBackupService(db, log), seeder, practice.Close, log),
		Events: NewEventsHandler(hub, log),
	}
	return &testServer{t: t, db: db, hub: hub, practice: practice, handler: NewRouter(routes, log)}
}

func (s *testServer) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// answers maps question ids to their correct answers
func (s *testServer) answers() map[string]string {
	s.t.Helper()
	questions, err := repository.NewQuestionRepository(s.db).Filter(context.Background(), models.QuestionFilter{})
	if err != nil {
		s.t.Fatalf("load questions: %v", err)
	}
	out := make(map[string]string, len(questions))
	for _, q := range questions {
		out[q.ID] = q.CorrectAnswer
	}
	return out
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}
