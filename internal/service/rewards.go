package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/catalog"
	"github.com/sakif/carbon-tracker/internal/gamification"
	"github.com/sakif/carbon-tracker/internal/model"
	"github.com/sakif/carbon-tracker/internal/repository"
	"github.com/sakif/carbon-tracker/internal/rewardmap"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// BusRideResult is a recorded ride and the award it produced.
type BusRideResult struct {
	Ride model.BusRide `json:"ride"`
	AwardResult
}

// Rewards handles bus rides, community activities, store tiers, the
// leaderboard and achievements.
type Rewards struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewRewards returns a Rewards backed by cat. now defaults to time.Now.
func NewRewards(cat *catalog.Catalog, logger *slog.Logger, now func() time.Time) *Rewards {
	if now == nil {
		now = time.Now
	}
	return &Rewards{catalog: cat, logger: logger, now: now}
}

// RecordBusRide logs a ride on a catalog route, earning the route's points.
func (r *Rewards) RecordBusRide(ctx context.Context, h repository.Handle, sess *SessionContext, routeName string) (*BusRideResult, error) {
	route, ok := r.catalog.Route(strings.TrimSpace(routeName))
	if !ok {
		return nil, apperror.ValidationFailed("routeName", fmt.Sprintf("unknown bus route %q", routeName))
	}
	return r.RecordBusRideManual(ctx, h, sess, route.Name, route.DistanceMiles, route.PointsPerRide)
}

// RecordBusRideManual logs a ride with explicit distance and points. The
// ride and its point increment commit together.
func (r *Rewards) RecordBusRideManual(ctx context.Context, h repository.Handle, sess *SessionContext, routeName string, distanceMiles float64, points int) (*BusRideResult, error) {
	routeName = strings.TrimSpace(routeName)
	if routeName == "" {
		return nil, apperror.ValidationFailed("routeName", "route name is required")
	}
	if distanceMiles < 0 {
		return nil, apperror.ValidationFailed("distanceMiles", "distance must not be negative")
	}
	if points < 0 {
		return nil, apperror.ValidationFailed("pointsEarned", "points must not be negative")
	}

	ride := model.BusRide{
		UserID:        sess.UserID,
		RouteName:     routeName,
		DistanceMiles: distanceMiles,
		PointsEarned:  points,
		CreatedAt:     r.now().UTC(),
	}
	var balance int
	err := h.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.InsertBusRide(ctx, &ride); err != nil {
			return err
		}
		var err error
		balance, err = tx.UpdateUserPoints(ctx, sess.UserID, points)
		return err
	})
	if err != nil {
		r.logger.Error("failed to record bus ride",
			slog.String("userID", sess.UserID),
			slog.String("route", routeName),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/rewards: recording bus ride: %w", err)
	}

	sess.Balance = balance

	r.logger.Info("bus ride recorded",
		slog.String("userID", sess.UserID),
		slog.String("route", routeName),
		slog.Int("points", points),
	)

	res := &BusRideResult{Ride: ride, AwardResult: AwardResult{PointsAwarded: points, Balance: sess.Balance}}
	if res.NewAchievements, err = grantThresholds(ctx, h, r.logger, sess); err != nil {
		return nil, fmt.Errorf("service/rewards: %w", err)
	}
	return res, nil
}

// BusRides returns the user's rides, newest first.
func (r *Rewards) BusRides(ctx context.Context, st repository.Store, sess *SessionContext) ([]model.BusRide, error) {
	rides, err := st.ListBusRidesByUser(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/rewards: listing bus rides: %w", err)
	}
	return rides, nil
}

// JoinLocalActivity credits the points a catalog community activity is worth.
func (r *Rewards) JoinLocalActivity(ctx context.Context, st repository.Store, sess *SessionContext, name string) (*AwardResult, error) {
	activity, ok := r.catalog.LocalActivity(strings.TrimSpace(name))
	if !ok {
		return nil, apperror.ValidationFailed("name", fmt.Sprintf("unknown local activity %q", name))
	}

	if err := credit(ctx, st, sess, activity.Points); err != nil {
		return nil, fmt.Errorf("service/rewards: %w", err)
	}
	r.logger.Info("local activity joined",
		slog.String("userID", sess.UserID),
		slog.String("activity", activity.Name),
		slog.Int("points", activity.Points),
	)

	res := &AwardResult{PointsAwarded: activity.Points, Balance: sess.Balance}
	var err error
	if res.NewAchievements, err = grantThresholds(ctx, st, r.logger, sess); err != nil {
		return nil, fmt.Errorf("service/rewards: %w", err)
	}
	return res, nil
}

// Stores lists the partner store tiers for the session's balance.
func (r *Rewards) Stores(sess *SessionContext) []rewardmap.StoreMarker {
	return rewardmap.StoreStates(r.catalog, sess.Balance)
}

// Map builds the rewards map layers for the session's balance.
func (r *Rewards) Map(sess *SessionContext) rewardmap.Layers {
	return rewardmap.Build(r.catalog, sess.Balance, r.now())
}

// Leaderboard returns the top users by points. limit defaults to
// DefaultLeaderboardLimit and is capped at MaxLeaderboardLimit.
func (r *Rewards) Leaderboard(ctx context.Context, st repository.Store, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	users, err := st.ListTopUsersByPoints(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service/rewards: loading leaderboard: %w", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, model.LeaderboardEntry{
			Rank:        i + 1,
			Username:    u.Username,
			DisplayName: u.Name(),
			Points:      u.Points,
		})
	}
	return entries, nil
}

// Achievements returns every catalog achievement with the user's unlock state.
func (r *Rewards) Achievements(ctx context.Context, st repository.Store, sess *SessionContext) ([]gamification.UnlockState, error) {
	user, err := st.FindUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/rewards: loading %s: %w", sess.UserID, err)
	}
	sess.Balance = user.Points

	earned, err := st.ListAchievementsByUser(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/rewards: listing achievements: %w", err)
	}

	names := make([]string, 0, len(earned))
	for _, a := range earned {
		names = append(names, a.Name)
	}
	return gamification.UnlockStates(sess.Balance, names), nil
}
