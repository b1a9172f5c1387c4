package models

import "time"

// Activity is a synthetic history entry shown on a user's detail view.
// Activities are generated on demand and never stored.
type Activity struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}
