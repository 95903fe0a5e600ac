// Package model defines the data structures shared by the store, the services
// and the HTTP layer.
package model

import "time"

// User is a tracker account. It is created the first time a username is seen
// and never deleted.
//
// Points is the authoritative balance: it only changes through atomic
// increments and is never recomputed from history. It is not clamped, so a
// run of car trips can take it below zero.
type User struct {
	ID          string    `json:"id"          db:"id"`
	Username    string    `json:"username"    db:"username"`
	DisplayName string    `json:"displayName" db:"display_name"` // empty means "use Username"
	Bio         string    `json:"bio"         db:"bio"`
	Avatar      string    `json:"avatar"      db:"avatar"` // data URI or URL, stored as text
	Points      int       `json:"points"      db:"points"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Profile is the display-ready view of a User.
type Profile struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
	Avatar      string `json:"avatar,omitempty"`
	Points      int    `json:"points"`
}

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Points      int    `json:"points"`
}
