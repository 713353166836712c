package models

import "time"

// Achievement is an unlocked badge. Name is unique across all records.
type Achievement struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	BadgeIcon    string    `json:"badgeIcon"`
	UnlockedDate time.Time `json:"unlockedDate"`
}
