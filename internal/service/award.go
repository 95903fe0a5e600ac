package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/carbon-tracker/internal/gamification"
	"github.com/sakif/carbon-tracker/internal/model"
	"github.com/sakif/carbon-tracker/internal/repository"
)

// AwardResult reports the effect of an award-triggering call.
type AwardResult struct {
	PointsAwarded   int      `json:"pointsAwarded"`
	Balance         int      `json:"balance"`
	NewAchievements []string `json:"newAchievements"`
}

// credit adds points to the user's balance and refreshes sess from the
// value the store returns.
func credit(ctx context.Context, st repository.Store, sess *SessionContext, points int) error {
	balance, err := st.UpdateUserPoints(ctx, sess.UserID, points)
	if err != nil {
		return fmt.Errorf("crediting %d points to %s: %w", points, sess.UserID, err)
	}
	sess.Balance = balance
	return nil
}

// grant inserts each named achievement if the user lacks it and returns the
// ones that were new.
func grant(ctx context.Context, st repository.Store, logger *slog.Logger, sess *SessionContext, names ...string) ([]string, error) {
	var granted []string
	for _, name := range names {
		inserted, err := st.InsertAchievement(ctx, &model.Achievement{UserID: sess.UserID, Name: name})
		if err != nil {
			return granted, fmt.Errorf("granting %q to %s: %w", name, sess.UserID, err)
		}
		if inserted {
			logger.Info("achievement unlocked",
				slog.String("userID", sess.UserID),
				slog.String("achievement", name),
			)
			granted = append(granted, name)
		}
	}
	return granted, nil
}

// grantThresholds grants every threshold achievement the current balance
// reaches, followed by any event achievements.
func grantThresholds(ctx context.Context, st repository.Store, logger *slog.Logger, sess *SessionContext, events ...string) ([]string, error) {
	names := append(gamification.Thresholds(sess.Balance), events...)
	return grant(ctx, st, logger, sess, names...)
}
