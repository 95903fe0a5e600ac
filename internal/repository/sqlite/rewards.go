package sqlite

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/model"
	"github.com/sakif/carbon-tracker/internal/repository"
)

var _ repository.RewardRepository = (*store)(nil)

// InsertAchievement grants the achievement unless the user already holds it.
// The UNIQUE(user_id, name) constraint makes concurrent grants safe.
func (s *store) InsertAchievement(ctx context.Context, achievement *model.Achievement) (bool, error) {
	achievement.ID = xid.New().String()
	if achievement.EarnedAt.IsZero() {
		achievement.EarnedAt = time.Now().UTC()
	}

	result, err := s.q.ExecContext(ctx,
		`INSERT INTO achievements (id, user_id, name, earned_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, name) DO NOTHING`,
		achievement.ID,
		achievement.UserID,
		achievement.Name,
		achievement.EarnedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, apperror.NotFound("user", achievement.UserID)
		}
		return false, storageErr("inserting achievement", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, storageErr("checking rows affected", err)
	}
	return n == 1, nil
}

// ListAchievementsByUser returns achievements in the order they were earned.
func (s *store) ListAchievementsByUser(ctx context.Context, userID string) ([]model.Achievement, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, name, earned_at
		 FROM achievements
		 WHERE user_id = ?
		 ORDER BY earned_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, storageErr("listing achievements", err)
	}
	defer rows.Close()

	var achievements []model.Achievement
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.EarnedAt); err != nil {
			return nil, storageErr("scanning achievement row", err)
		}
		achievements = append(achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating achievements", err)
	}
	return achievements, nil
}

func (s *store) InsertBusRide(ctx context.Context, ride *model.BusRide) error {
	ride.ID = xid.New().String()
	if ride.CreatedAt.IsZero() {
		ride.CreatedAt = time.Now().UTC()
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO bus_rides (id, user_id, route_name, distance_miles, points_earned, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ride.ID,
		ride.UserID,
		ride.RouteName,
		ride.DistanceMiles,
		ride.PointsEarned,
		ride.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", ride.UserID)
		}
		return storageErr("inserting bus ride", err)
	}
	return nil
}

func (s *store) ListBusRidesByUser(ctx context.Context, userID string) ([]model.BusRide, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, route_name, distance_miles, points_earned, created_at
		 FROM bus_rides
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, storageErr("listing bus rides", err)
	}
	defer rows.Close()

	var rides []model.BusRide
	for rows.Next() {
		var r model.BusRide
		if err := rows.Scan(&r.ID, &r.UserID, &r.RouteName, &r.DistanceMiles, &r.PointsEarned, &r.CreatedAt); err != nil {
			return nil, storageErr("scanning bus ride row", err)
		}
		rides = append(rides, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating bus rides", err)
	}
	return rides, nil
}
