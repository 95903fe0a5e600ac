package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/model"
	"github.com/sakif/carbon-tracker/internal/repository"
)

var _ repository.Store = (*store)(nil)

func (s *store) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.Points = 0
	user.CreatedAt = now
	user.UpdatedAt = now

	row := userRow{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Bio:         user.Bio,
		Avatar:      user.Avatar,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("user", user.Username)
		}
		return storageErr("creating user", err)
	}
	return nil
}

func (s *store) FindUserByName(ctx context.Context, username string) (*model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&row).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, storageErr("getting user", err)
	}
	return row.toModel(), nil
}

func (s *store) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, storageErr("getting user", err)
	}
	return row.toModel(), nil
}

// UpdateUserPoints increments in one UPDATE ... RETURNING statement.
func (s *store) UpdateUserPoints(ctx context.Context, userID string, delta int) (int, error) {
	var row userRow
	result := s.db.WithContext(ctx).
		Model(&row).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "points"}}}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"points":     gorm.Expr("points + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, storageErr("updating points", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, apperror.NotFound("user", userID)
	}
	return row.Points, nil
}

func (s *store) UpdateUserProfile(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&userRow{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"display_name": user.DisplayName,
			"bio":          user.Bio,
			"avatar":       user.Avatar,
			"updated_at":   user.UpdatedAt,
		})
	if result.Error != nil {
		return storageErr("updating profile", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

func (s *store) ListTopUsersByPoints(ctx context.Context, limit int) ([]model.User, error) {
	var rows []userRow
	err := s.db.WithContext(ctx).
		Order("points DESC").
		Order("username ASC").
		Limit(limitArg(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, storageErr("listing leaderboard", err)
	}

	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, *r.toModel())
	}
	return users, nil
}

func (s *store) InsertActivity(ctx context.Context, activity *model.Activity) error {
	details, err := json.Marshal(activity.Details)
	if err != nil {
		return fmt.Errorf("postgres: encoding activity details: %w", err)
	}

	activity.ID = xid.New().String()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	row := activityRow{
		ID:          activity.ID,
		UserID:      activity.UserID,
		Category:    activity.Category,
		Details:     string(details),
		EmissionsKg: activity.EmissionsKg,
		CreatedAt:   activity.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return apperror.NotFound("user", activity.UserID)
		}
		return storageErr("inserting activity", err)
	}
	return nil
}

func (s *store) ListActivitiesByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Activity, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limitArg(opts.Limit))
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	var rows []activityRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, storageErr("listing activities", err)
	}

	activities := make([]model.Activity, 0, len(rows))
	for _, r := range rows {
		a := model.Activity{
			ID:          r.ID,
			UserID:      r.UserID,
			Category:    r.Category,
			EmissionsKg: r.EmissionsKg,
			CreatedAt:   r.CreatedAt,
		}
		if err := json.Unmarshal([]byte(r.Details), &a.Details); err != nil {
			return nil, fmt.Errorf("postgres: decoding details of activity %s: %w", r.ID, err)
		}
		activities = append(activities, a)
	}
	return activities, nil
}

// InsertAchievement relies on the (user_id, name) unique index; a conflicting
// insert affects no rows.
func (s *store) InsertAchievement(ctx context.Context, achievement *model.Achievement) (bool, error) {
	achievement.ID = xid.New().String()
	if achievement.EarnedAt.IsZero() {
		achievement.EarnedAt = time.Now().UTC()
	}

	row := achievementRow{
		ID:       achievement.ID,
		UserID:   achievement.UserID,
		Name:     achievement.Name,
		EarnedAt: achievement.EarnedAt,
	}
	result := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return false, apperror.NotFound("user", achievement.UserID)
		}
		return false, storageErr("inserting achievement", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *store) ListAchievementsByUser(ctx context.Context, userID string) ([]model.Achievement, error) {
	var rows []achievementRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storageErr("listing achievements", err)
	}

	achievements := make([]model.Achievement, 0, len(rows))
	for _, r := range rows {
		achievements = append(achievements, model.Achievement{ID: r.ID, UserID: r.UserID, Name: r.Name, EarnedAt: r.EarnedAt})
	}
	return achievements, nil
}

func (s *store) InsertBusRide(ctx context.Context, ride *model.BusRide) error {
	ride.ID = xid.New().String()
	if ride.CreatedAt.IsZero() {
		ride.CreatedAt = time.Now().UTC()
	}

	row := busRideRow{
		ID:            ride.ID,
		UserID:        ride.UserID,
		RouteName:     ride.RouteName,
		DistanceMiles: ride.DistanceMiles,
		PointsEarned:  ride.PointsEarned,
		CreatedAt:     ride.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return apperror.NotFound("user", ride.UserID)
		}
		return storageErr("inserting bus ride", err)
	}
	return nil
}

func (s *store) ListBusRidesByUser(ctx context.Context, userID string) ([]model.BusRide, error) {
	var rows []busRideRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, storageErr("listing bus rides", err)
	}

	rides := make([]model.BusRide, 0, len(rows))
	for _, r := range rows {
		rides = append(rides, model.BusRide{
			ID:            r.ID,
			UserID:        r.UserID,
			RouteName:     r.RouteName,
			DistanceMiles: r.DistanceMiles,
			PointsEarned:  r.PointsEarned,
			CreatedAt:     r.CreatedAt,
		})
	}
	return rides, nil
}

func (r *userRow) toModel() *model.User {
	return &model.User{
		ID:          r.ID,
		Username:    r.Username,
		DisplayName: r.DisplayName,
		Bio:         r.Bio,
		Avatar:      r.Avatar,
		Points:      r.Points,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
