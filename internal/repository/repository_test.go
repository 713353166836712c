package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mathdrill/internal/database"
	"mathdrill/internal/models"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func seedSkill(t *testing.T, db *database.DB) models.Skill {
	t.Helper()
	skill := models.Skill{Name: "Addition", GradeBand: models.GradeBand35, Category: "Operations", SortOrder: 1}
	if err := NewSkillRepository(db).Create(context.Background(), &skill); err != nil {
		t.Fatalf("Failed to create skill: %v", err)
	}
	return skill
}

func TestSkillRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewSkillRepository(db)

	skills := []models.Skill{
		{Name: "Subtraction", GradeBand: models.GradeBandK2, SortOrder: 2},
		{Name: "Addition", GradeBand: models.GradeBandK2, SortOrder: 1},
		{Name: "Fractions", GradeBand: models.GradeBand35, SortOrder: 1},
	}
	if err := repo.BulkCreate(ctx, skills); err != nil {
		t.Fatalf("BulkCreate failed: %v", err)
	}
	for _, s := range skills {
		if s.ID == "" {
			t.Fatal("expected BulkCreate to assign ids")
		}
	}

	k2, err := repo.ListByGradeBand(ctx, models.GradeBandK2)
	if err != nil {
		t.Fatalf("ListByGradeBand failed: %v", err)
	}
	if len(k2) != 2 || k2[0].Name != "Addition" || k2[1].Name != "Subtraction" {
		t.Errorf("ListByGradeBand = %+v, want Addition then Subtraction", k2)
	}

	got, err := repo.GetByID(ctx, skills[2].ID)
	if err != nil || got == nil || got.Name != "Fractions" {
		t.Errorf("GetByID = %+v, %v", got, err)
	}
	missing, err := repo.GetByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetByID(missing) = %+v, %v; want nil, nil", missing, err)
	}

	byName, err := repo.List(ctx, ListOptions{Sort: "-name", Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byName) != 2 || byName[0].Name != "Subtraction" {
		t.Errorf("List(-name, 2) = %+v", byName)
	}

	if err := repo.BulkDelete(ctx, []string{skills[0].ID, skills[1].ID}); err != nil {
		t.Fatalf("BulkDelete failed: %v", err)
	}
	rest, _ := repo.List(ctx, ListOptions{})
	if len(rest) != 1 {
		t.Errorf("expected 1 skill after BulkDelete, got %d", len(rest))
	}
}

func TestQuestionRepositoryFilter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	skill := seedSkill(t, db)
	repo := NewQuestionRepository(db)

	questions := []models.Question{
		{SkillID: skill.ID, Level: models.LevelEasy, Prompt: "1 + 1", CorrectAnswer: "2", Format: models.FormatNumeric},
		{SkillID: skill.ID, Level: models.LevelMedium, Prompt: "12 + 9", CorrectAnswer: "21", Format: models.FormatNumeric},
		{SkillID: skill.ID, Level: models.LevelMedium, Prompt: "Pick 7 + 8", CorrectAnswer: "15",
			Format: models.FormatMultipleChoice, Choices: []string{"14", "15", "16", "17"}, Explain: "7 + 8 = 15"},
	}
	if err := repo.BulkCreate(ctx, questions); err != nil {
		t.Fatalf("BulkCreate failed: %v", err)
	}

	tests := []struct {
		name   string
		filter models.QuestionFilter
		want   int
	}{
		{"all", models.QuestionFilter{}, 3},
		{"by skill", models.QuestionFilter{SkillIDs: []string{skill.ID}}, 3},
		{"by skill and level", models.QuestionFilter{SkillIDs: []string{skill.ID}, Level: models.LevelMedium}, 2},
		{"unknown skill", models.QuestionFilter{SkillIDs: []string{"other"}}, 0},
		{"empty skill set", models.QuestionFilter{SkillIDs: []string{}}, 0},
		{"by ids", models.QuestionFilter{IDs: []string{questions[0].ID, questions[2].ID}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Filter(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Filter failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Filter returned %d questions, want %d", len(got), tt.want)
			}
		})
	}

	mc, err := repo.Filter(ctx, models.QuestionFilter{IDs: []string{questions[2].ID}})
	if err != nil || len(mc) != 1 {
		t.Fatalf("Filter by id = %v, %v", mc, err)
	}
	if len(mc[0].Choices) != 4 || mc[0].Choices[1] != "15" || mc[0].Explain != "7 + 8 = 15" {
		t.Errorf("multiple choice question did not round trip: %+v", mc[0])
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 3 {
		t.Errorf("Count = %d, %v; want 3", count, err)
	}
}

func TestAttemptRepositoryFilter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewAttemptRepository(db)

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	attempts := []models.Attempt{
		{QuestionID: "q1", SkillID: "add", LevelAtAttempt: models.LevelMedium, Answer: "2", Correct: true, SessionID: "s1", CreatedAt: base},
		{QuestionID: "q2", SkillID: "add", LevelAtAttempt: models.LevelMedium, Answer: "5", Correct: false, SessionID: "s1", CreatedAt: base.Add(time.Minute)},
		{QuestionID: "q3", SkillID: "sub", LevelAtAttempt: models.LevelEasy, Answer: "1", Correct: true, SessionID: "s2", CreatedAt: base.Add(48 * time.Hour)},
	}
	if err := repo.BulkCreate(ctx, attempts); err != nil {
		t.Fatalf("BulkCreate failed: %v", err)
	}

	tests := []struct {
		name   string
		filter models.AttemptFilter
		want   []string
	}{
		{"session", models.AttemptFilter{SessionID: "s1"}, []string{"q1", "q2"}},
		{"skill", models.AttemptFilter{SkillID: "sub"}, []string{"q3"}},
		{"since", models.AttemptFilter{Since: base.Add(time.Hour)}, []string{"q3"}},
		{"none", models.AttemptFilter{SessionID: "missing"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Filter(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Filter failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Filter returned %d attempts, want %d", len(got), len(tt.want))
			}
			for i, a := range got {
				if a.QuestionID != tt.want[i] {
					t.Errorf("attempt %d = %s, want %s", i, a.QuestionID, tt.want[i])
				}
			}
		})
	}

	latest, err := repo.List(ctx, ListOptions{Limit: 1})
	if err != nil || len(latest) != 1 || latest[0].QuestionID != "q3" {
		t.Errorf("List(limit 1) = %+v, %v; want newest attempt q3", latest, err)
	}
	if !latest[0].CreatedAt.Equal(attempts[2].CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", latest[0].CreatedAt, attempts[2].CreatedAt)
	}
}

func TestReviewRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewReviewRepository(db)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	items := []models.ReviewItem{
		{QuestionID: "q1", SkillID: "add", NextDueDate: now.Add(-2 * time.Hour), Interval: 1},
		{QuestionID: "q2", SkillID: "add", NextDueDate: now.Add(-time.Hour), Interval: 1},
		{QuestionID: "q3", SkillID: "add", NextDueDate: now.Add(time.Hour), Interval: 1},
		{QuestionID: "q4", SkillID: "add", NextDueDate: now.Add(-time.Hour), Interval: 4, CorrectStreak: 3, Mastered: true},
	}
	if err := repo.BulkCreate(ctx, items); err != nil {
		t.Fatalf("BulkCreate failed: %v", err)
	}

	due, err := repo.ListDue(ctx, now)
	if err != nil {
		t.Fatalf("ListDue failed: %v", err)
	}
	if len(due) != 2 || due[0].QuestionID != "q1" || due[1].QuestionID != "q2" {
		t.Errorf("ListDue = %+v, want q1 then q2", due)
	}
	count, err := repo.CountDue(ctx, now)
	if err != nil || count != 2 {
		t.Errorf("CountDue = %d, %v; want 2", count, err)
	}

	dup := models.ReviewItem{QuestionID: "q1", SkillID: "add", NextDueDate: now, Interval: 1}
	if err := repo.Create(ctx, &dup); !errors.Is(err, database.ErrDuplicate) {
		t.Errorf("second item for q1: err = %v, want ErrDuplicate", err)
	}

	item, err := repo.FindByQuestion(ctx, "q3")
	if err != nil || item == nil {
		t.Fatalf("FindByQuestion = %v, %v", item, err)
	}
	item.NextDueDate = now.Add(-time.Minute)
	item.CorrectStreak = 1
	if err := repo.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	reloaded, _ := repo.GetByID(ctx, item.ID)
	if reloaded.CorrectStreak != 1 || !reloaded.IsDue(now) {
		t.Errorf("Update did not persist: %+v", reloaded)
	}

	none, err := repo.FindByQuestion(ctx, "missing")
	if err != nil || none != nil {
		t.Errorf("FindByQuestion(missing) = %v, %v", none, err)
	}
}

func TestStatsAndPrefsRepositories(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	stats := NewStatsRepository(db)
	got, err := stats.Get(ctx)
	if err != nil || got != nil {
		t.Fatalf("Get on empty table = %v, %v", got, err)
	}
	record := &models.UserStats{TotalAnswers: 20, CorrectAnswers: 18, CurrentStreak: 1, BestStreak: 1, LastAnsweredDate: "2026-03-10"}
	if err := stats.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	record.CurrentStreak = 2
	record.BestStreak = 2
	if err := stats.Update(ctx, record); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ = stats.Get(ctx)
	if got == nil || got.CurrentStreak != 2 || got.LastAnsweredDate != "2026-03-10" {
		t.Errorf("Get = %+v", got)
	}

	prefs := NewPrefsRepository(db)
	if p, err := prefs.Get(ctx); err != nil || p != nil {
		t.Fatalf("Get on empty prefs = %v, %v", p, err)
	}
	p := models.DefaultPrefs("UTC")
	if err := prefs.Save(ctx, &p); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	p.DailyGoal = 30
	p.ID = ""
	if err := prefs.Save(ctx, &p); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	stored, _ := prefs.Get(ctx)
	if stored == nil || stored.DailyGoal != 30 || !stored.SoundOn || stored.GradeBand != models.GradeBand35 {
		t.Errorf("prefs = %+v", stored)
	}
	var rows int
	db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_prefs").Scan(&rows)
	if rows != 1 {
		t.Errorf("expected a single prefs row, got %d", rows)
	}
}

func TestAchievementRepositoryUniqueName(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewAchievementRepository(db)
	now := time.Now()

	first := &models.Achievement{Name: "First 100", Description: "Completed 100 practice questions", BadgeIcon: "Target", UnlockedDate: now}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	again := &models.Achievement{Name: "First 100", UnlockedDate: now}
	if err := repo.Create(ctx, again); !errors.Is(err, database.ErrDuplicate) {
		t.Errorf("duplicate name: err = %v, want ErrDuplicate", err)
	}

	found, err := repo.FindByName(ctx, "First 100")
	if err != nil || found == nil || found.BadgeIcon != "Target" {
		t.Errorf("FindByName = %+v, %v", found, err)
	}
	list, err := repo.List(ctx, ListOptions{})
	if err != nil || len(list) != 1 {
		t.Errorf("List = %+v, %v; want one achievement", list, err)
	}
}
