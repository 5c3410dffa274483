// Package model defines the persisted records of the slot machine.
package model

import "time"

// HighScore is the best coin balance ever reached, stored under a key.
type HighScore struct {
	Key       string    `db:"key"`
	Value     int64     `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DefaultHighScoreKey is the storage key used when none is configured.
const DefaultHighScoreKey = "highScore"
