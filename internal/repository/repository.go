// Package repository defines the storage abstraction the services depend on.
// Concrete backends live in the sqlite and postgres sub-packages.
package repository

import (
	"context"

	"github.com/sakif/carbon-tracker/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	FindUserByName(ctx context.Context, username string) (*model.User, error)
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	// UpdateUserPoints atomically adds delta to the balance and returns the
	// new balance.
	UpdateUserPoints(ctx context.Context, userID string, delta int) (int, error)
	UpdateUserProfile(ctx context.Context, user *model.User) error
	// ListTopUsersByPoints orders by points descending, then username ascending.
	ListTopUsersByPoints(ctx context.Context, limit int) ([]model.User, error)
}

type ActivityRepository interface {
	InsertActivity(ctx context.Context, activity *model.Activity) error
	// ListActivitiesByUser returns newest first. A zero Limit means all.
	ListActivitiesByUser(ctx context.Context, userID string, opts ListOptions) ([]model.Activity, error)
}

type RewardRepository interface {
	// InsertAchievement is insert-if-absent on (user, name). inserted is false
	// when the user already held the achievement.
	InsertAchievement(ctx context.Context, achievement *model.Achievement) (inserted bool, err error)
	ListAchievementsByUser(ctx context.Context, userID string) ([]model.Achievement, error)
	InsertBusRide(ctx context.Context, ride *model.BusRide) error
	// ListBusRidesByUser returns newest first.
	ListBusRidesByUser(ctx context.Context, userID string) ([]model.BusRide, error)
}

// Store is everything one request may read or write.
type Store interface {
	UserRepository
	ActivityRepository
	RewardRepository
}

// Handle is a Store scoped to one request. Close must be called exactly once
// when the request ends.
type Handle interface {
	Store
	// WithTx runs fn against a transactional view of the store, committing
	// when fn returns nil.
	WithTx(ctx context.Context, fn func(Store) error) error
	Close() error
}

// Provider hands out request-scoped handles.
type Provider interface {
	Open(ctx context.Context) (Handle, error)
	Close() error
}
