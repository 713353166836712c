package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mathdrill/internal/logger"
	"mathdrill/internal/service"
)

// Backups exports and restores the record store
type Backups interface {
	ExportToWriter(ctx context.Context, w io.Writer) error
	ImportFromReader(ctx context.Context, r io.Reader) error
}

// Seeder fills the record store with content and demo history
type Seeder interface {
	SeedDemoData(ctx context.Context) error
	ResetContent(ctx context.Context) (int, error)
}

// AdminHandler handles the settings screen's data management actions
type AdminHandler struct {
	backups Backups
	seeder  Seeder
	log     *logger.Logger
	// onChange runs before the record store is rewritten
	onChange func()
}

// NewAdminHandler creates a new admin handler. onChange may be nil.
func NewAdminHandler(backups Backups, seeder Seeder, onChange func(), log *logger.Logger) *AdminHandler {
	if onChange == nil {
		onChange = func() {}
	}
	return &AdminHandler{backups: backups, seeder: seeder, onChange: onChange, log: log}
}

// ExportDatabase streams a JSON backup as a file download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("mathdrill_backup_%s.json", timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.backups.ExportToWriter(r.Context(), w); err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "Failed to export database", "Error exporting database", err)
		return
	}
	h.log.Info("Database exported", "file", filename)
}

// ImportDatabase replaces the record store with an uploaded backup. The backup
// arrives either as the "backup_file" form field or as the raw request body.
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = http.MaxBytesReader(w, r.Body, maxBackupBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBackupBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidBackup})
			return
		}
		file, _, err := r.FormFile("backup_file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Please select a backup file", Field: "backup_file"})
			return
		}
		defer file.Close()
		body = file
	}

	h.onChange()
	if err := h.backups.ImportFromReader(r.Context(), body); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	h.log.Info("Database imported")
	w.WriteHeader(http.StatusNoContent)
}

// SeedDemo adds a few weeks of plausible practice history
func (h *AdminHandler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	h.onChange()
	if err := h.seeder.SeedDemoData(r.Context()); err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "Failed to seed demo data", "Error seeding demo data", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resetResponse struct {
	Questions int `json:"questions"`
}

// ResetContent regenerates skills and questions, keeping the learner's history
func (h *AdminHandler) ResetContent(w http.ResponseWriter, r *http.Request) {
	h.onChange()
	n, err := h.seeder.ResetContent(r.Context())
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "Failed to reset content", "Error resetting content", err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{Questions: n})
}

var _ Backups = (*service.BackupService)(nil)
var _ Seeder = (*service.SeedService)(nil)
