package model

import "time"

// Achievement is a badge earned by a user. A user holds each name at most once.
type Achievement struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	EarnedAt time.Time `json:"earnedAt"`
}

// BusRide is a logged ride on a catalog route. Recording one also credits
// PointsEarned to the user.
type BusRide struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	RouteName     string    `json:"routeName"`
	DistanceMiles float64   `json:"distanceMiles"`
	PointsEarned  int       `json:"pointsEarned"`
	CreatedAt     time.Time `json:"createdAt"`
}
