package handlers

import "time"

const (
	ErrAuthRequired        = "authentication required"
	ErrInternalServerError = "Internal server error"
	ErrInvalidBackup       = "Invalid backup file"

	maxBodyBytes   = 1 << 20
	maxBackupBytes = 32 << 20

	eventHeartbeat = 15 * time.Second
)
