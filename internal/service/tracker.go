package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/emission"
	"github.com/sakif/carbon-tracker/internal/gamification"
	"github.com/sakif/carbon-tracker/internal/ledger"
	"github.com/sakif/carbon-tracker/internal/model"
	"github.com/sakif/carbon-tracker/internal/repository"
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100

	// Upper bounds on a single logged activity.
	MaxDistanceMiles = 10_000.0
	MaxPortions      = 100
	MaxKWh           = 100_000.0
)

// ActivityResult is a recorded activity and the award it produced.
type ActivityResult struct {
	Activity model.Activity `json:"activity"`
	AwardResult
}

// Tracker records activities and reports on a user's emissions.
type Tracker struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewTracker returns a Tracker. now defaults to time.Now.
func NewTracker(logger *slog.Logger, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{logger: logger, now: now}
}

// LogTransport records a trip. Positive awards for walk, bike and bus also
// grant Green Commuter; car trips never evaluate thresholds.
func (t *Tracker) LogTransport(ctx context.Context, h repository.Handle, sess *SessionContext, mode string, distanceMiles float64) (*ActivityResult, error) {
	mode = normalize(mode)
	switch {
	case math.IsNaN(distanceMiles) || distanceMiles < 0:
		return nil, apperror.ValidationFailed("distanceMiles", "distance must not be negative")
	case distanceMiles > MaxDistanceMiles:
		return nil, apperror.ValidationFailed("distanceMiles", fmt.Sprintf("distance must not exceed %g miles", MaxDistanceMiles))
	}
	if !emission.KnownTransportMode(mode) {
		t.logger.Warn("unknown transport mode, using zero coefficients",
			slog.String("userID", sess.UserID),
			slog.String("mode", mode),
		)
	}

	emissions, signal := emission.Transport(mode, distanceMiles)
	// The bonus signal doubles as the saving: a 10 mile bus ride earns 150+15.
	points := gamification.Award(gamification.AwardInput{
		Category:       model.CategoryTransport,
		EmissionsSaved: signal,
		BonusSignal:    signal,
		Mode:           mode,
	})
	res, err := t.record(ctx, h, sess, model.CategoryTransport,
		model.ActivityDetails{Mode: mode, DistanceMiles: distanceMiles}, emissions, &points)
	if err != nil {
		return nil, err
	}

	if gamification.EvaluatesThresholds(mode) {
		var events []string
		if gamification.CommuterMode(mode) && res.PointsAwarded > 0 {
			events = append(events, gamification.GreenCommuter)
		}
		if res.NewAchievements, err = grantThresholds(ctx, h, t.logger, sess, events...); err != nil {
			return nil, fmt.Errorf("service/tracker: %w", err)
		}
	}

	return res, nil
}

// LogFood records a meal. Only vegetarian and vegan meals earn points,
// scored by the saving against the same number of meat portions.
func (t *Tracker) LogFood(ctx context.Context, h repository.Handle, sess *SessionContext, foodType string, portions int) (*ActivityResult, error) {
	foodType = normalize(foodType)
	switch {
	case portions <= 0:
		return nil, apperror.ValidationFailed("portions", "portions must be at least 1")
	case portions > MaxPortions:
		return nil, apperror.ValidationFailed("portions", fmt.Sprintf("portions must not exceed %d", MaxPortions))
	}
	if !emission.KnownFoodType(foodType) {
		t.logger.Warn("unknown food type, using zero coefficient",
			slog.String("userID", sess.UserID),
			slog.String("foodType", foodType),
		)
	}

	details := model.ActivityDetails{FoodType: foodType, Portions: portions}
	emissions := emission.Food(foodType, portions)
	if !gamification.PlantBased(foodType) {
		return t.record(ctx, h, sess, model.CategoryFood, details, emissions, nil)
	}

	points := gamification.Award(gamification.AwardInput{
		Category:       model.CategoryFood,
		EmissionsSaved: emission.FoodSaved(foodType, portions),
	})
	res, err := t.record(ctx, h, sess, model.CategoryFood, details, emissions, &points)
	if err != nil {
		return nil, err
	}

	if res.NewAchievements, err = grantThresholds(ctx, h, t.logger, sess, gamification.PlantBasedPioneer); err != nil {
		return nil, fmt.Errorf("service/tracker: %w", err)
	}
	return res, nil
}

// LogEnergy records electricity use. Usage under gamification.LowEnergyKWh
// earns points and Energy Saver.
func (t *Tracker) LogEnergy(ctx context.Context, h repository.Handle, sess *SessionContext, kwh float64) (*ActivityResult, error) {
	switch {
	case math.IsNaN(kwh) || kwh < 0:
		return nil, apperror.ValidationFailed("kwh", "usage must not be negative")
	case kwh > MaxKWh:
		return nil, apperror.ValidationFailed("kwh", fmt.Sprintf("usage must not exceed %g kWh", MaxKWh))
	}

	emissions := emission.Energy(kwh)
	details := model.ActivityDetails{KWh: kwh}
	if !gamification.LowEnergy(kwh) {
		return t.record(ctx, h, sess, model.CategoryEnergy, details, emissions, nil)
	}

	// The emitted amount is scored as if it were saved, so lower usage
	// below the threshold earns fewer points.
	points := gamification.Award(gamification.AwardInput{
		Category:       model.CategoryEnergy,
		EmissionsSaved: emissions,
	})
	res, err := t.record(ctx, h, sess, model.CategoryEnergy, details, emissions, &points)
	if err != nil {
		return nil, err
	}

	if res.NewAchievements, err = grantThresholds(ctx, h, t.logger, sess, gamification.EnergySaver); err != nil {
		return nil, fmt.Errorf("service/tracker: %w", err)
	}
	return res, nil
}

// record inserts the activity and, when points is non-nil, credits the award
// in the same transaction. sess.Balance changes only after commit.
func (t *Tracker) record(ctx context.Context, h repository.Handle, sess *SessionContext, category string, details model.ActivityDetails, emissions float64, points *int) (*ActivityResult, error) {
	activity := model.Activity{
		UserID:      sess.UserID,
		Category:    category,
		Details:     details,
		EmissionsKg: emissions,
		CreatedAt:   t.now().UTC(),
	}

	balance := sess.Balance
	err := h.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.InsertActivity(ctx, &activity); err != nil {
			return err
		}
		if points == nil {
			return nil
		}
		var err error
		balance, err = tx.UpdateUserPoints(ctx, sess.UserID, *points)
		if err != nil {
			return fmt.Errorf("crediting %d points to %s: %w", *points, sess.UserID, err)
		}
		return nil
	})
	if err != nil {
		t.logger.Error("failed to record activity",
			slog.String("userID", sess.UserID),
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/tracker: recording %s activity: %w", category, err)
	}

	sess.Balance = balance

	t.logger.Info("activity recorded",
		slog.String("userID", sess.UserID),
		slog.String("category", category),
		slog.Float64("emissionsKg", emissions),
	)
	res := &ActivityResult{Activity: activity, AwardResult: AwardResult{Balance: sess.Balance}}
	if points != nil {
		res.PointsAwarded = *points
	}
	return res, nil
}

// Summary totals the user's emissions over the daily, weekly and monthly
// windows ending now.
func (t *Tracker) Summary(ctx context.Context, st repository.Store, sess *SessionContext) (model.EmissionsSummary, error) {
	activities, err := st.ListActivitiesByUser(ctx, sess.UserID, repository.ListOptions{})
	if err != nil {
		return model.EmissionsSummary{}, fmt.Errorf("service/tracker: loading activities: %w", err)
	}
	return ledger.Summarize(activities, t.now()), nil
}

// Trend returns the user's emissions as a chronological series.
func (t *Tracker) Trend(ctx context.Context, st repository.Store, sess *SessionContext) ([]model.TrendPoint, error) {
	activities, err := st.ListActivitiesByUser(ctx, sess.UserID, repository.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("service/tracker: loading activities: %w", err)
	}
	return ledger.Trend(activities), nil
}

// Activities returns a page of the user's activities, newest first, skipping
// the offset most recent ones.
func (t *Tracker) Activities(ctx context.Context, st repository.Store, sess *SessionContext, limit, offset int) ([]model.Activity, error) {
	if offset < 0 {
		return nil, apperror.ValidationFailed("offset", "offset must not be negative")
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}

	activities, err := st.ListActivitiesByUser(ctx, sess.UserID, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("service/tracker: listing activities: %w", err)
	}
	return activities, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
