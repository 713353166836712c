package service

import (
	"context"
	"errors"
	"testing"

	"mathdrill/internal/models"
)

func TestPrefsServiceGetDefaults(t *testing.T) {
	svc := NewPrefsService(&fakePrefsStore{}, "Europe/Paris")
	prefs, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want := models.DefaultPrefs("Europe/Paris")
	if prefs != want {
		t.Errorf("Get = %+v, want %+v", prefs, want)
	}
}

func TestPrefsServiceUpdate(t *testing.T) {
	tests := []struct {
		name      string
		prefs     models.UserPrefs
		wantField string
	}{
		{
			name:  "valid settings",
			prefs: models.UserPrefs{GradeBand: models.GradeBand68, DailyGoal: 30, Theme: "light", Timezone: "America/New_York"},
		},
		{
			name:      "zero goal",
			prefs:     models.UserPrefs{GradeBand: models.GradeBand35, DailyGoal: 0},
			wantField: "dailyGoal",
		},
		{
			name:      "unknown band",
			prefs:     models.UserPrefs{GradeBand: "9-12", DailyGoal: 10},
			wantField: "gradeBand",
		},
		{
			name:      "bad timezone",
			prefs:     models.UserPrefs{GradeBand: models.GradeBandK2, DailyGoal: 10, Timezone: "Nowhere/Special"},
			wantField: "timezone",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakePrefsStore{}
			svc := NewPrefsService(store, "UTC")
			got, err := svc.Update(context.Background(), tt.prefs)

			if tt.wantField != "" {
				var verr *ValidationError
				if !errors.As(err, &verr) || verr.Field != tt.wantField {
					t.Fatalf("err = %v, want ValidationError on %s", err, tt.wantField)
				}
				if store.prefs != nil {
					t.Error("invalid prefs were saved")
				}
				return
			}
			if err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			if store.prefs == nil || *store.prefs != got {
				t.Errorf("stored %+v, returned %+v", store.prefs, got)
			}
		})
	}
}

func TestPrefsServiceUpdateFillsDefaults(t *testing.T) {
	store := &fakePrefsStore{}
	got, err := NewPrefsService(store, "UTC").Update(context.Background(), models.UserPrefs{GradeBand: models.GradeBand35, DailyGoal: 12})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Theme != models.DefaultTheme || got.Timezone != "UTC" {
		t.Errorf("Update = %+v, want default theme and timezone", got)
	}
}

func TestPrefsServiceSaveFailure(t *testing.T) {
	store := &fakePrefsStore{saveErr: errStore}
	_, err := NewPrefsService(store, "UTC").Update(context.Background(), models.UserPrefs{GradeBand: models.GradeBand35, DailyGoal: 12})
	var perr *PersistenceError
	if !errors.As(err, &perr) || !errors.Is(err, errStore) {
		t.Errorf("err = %v, want PersistenceError wrapping errStore", err)
	}
}
