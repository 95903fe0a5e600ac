package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/catalog"
	"github.com/sakif/carbon-tracker/internal/gamification"
)

const route2 = "Route 2 - Waikiki-School-Middle St."

func newTestRewards() *Rewards {
	return NewRewards(catalog.Default(), discardLogger(), func() time.Time {
		return time.Date(2026, 5, 30, 9, 0, 0, 0, time.UTC)
	})
}

func TestRecordBusRide(t *testing.T) {
	st := newFakeStore()
	sess := beginSession(t, st, "alice")

	res, err := newTestRewards().RecordBusRide(context.Background(), st, sess, route2)
	require.NoError(t, err)

	assert.Equal(t, 50, res.PointsAwarded)
	assert.Equal(t, 50, sess.Balance)
	assert.Equal(t, 3.5, res.Ride.DistanceMiles)
	assert.Empty(t, res.NewAchievements)

	rides, err := newTestRewards().BusRides(context.Background(), st, sess)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, route2, rides[0].RouteName)
}

func TestRecordBusRide_GrantsThresholds(t *testing.T) {
	st := newFakeStore()
	sess := beginSession(t, st, "alice")
	rewards := newTestRewards()
	ctx := context.Background()

	rewards.RecordBusRide(ctx, st, sess, route2)
	res, err := rewards.RecordBusRide(ctx, st, sess, route2)
	require.NoError(t, err)

	assert.Equal(t, 100, sess.Balance)
	assert.Equal(t, []string{gamification.GreenStarter}, res.NewAchievements)
}

func TestRecordBusRide_UnknownRoute(t *testing.T) {
	st := newFakeStore()
	sess := beginSession(t, st, "alice")

	_, err := newTestRewards().RecordBusRide(context.Background(), st, sess, "Route 99")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestRecordBusRide_RollsBackWhenCreditFails(t *testing.T) {
	st := newFakeStore()
	sess := beginSession(t, st, "alice")
	st.failOn = "UpdateUserPoints"

	_, err := newTestRewards().RecordBusRide(context.Background(), st, sess, route2)
	assert.ErrorIs(t, err, apperror.ErrStorage)
	assert.Empty(t, st.rides)
	assert.Equal(t, 0, sess.Balance)
}

func TestRecordBusRideManual_Validation(t *testing.T) {
	st := newFakeStore()
	sess := beginSession(t, st, "alice")
	rewards := newTestRewards()
	ctx := context.Background()

	_, err := rewards.RecordBusRideManual(ctx, st, sess, " ", 1, 1)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = rewards.RecordBusRideManual(ctx, st, sess, "Route 8", -1, 1)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = rewards.RecordBusRideManual(ctx, st, sess, "Route 8", 1, -1)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	res, err := rewards.RecordBusRideManual(ctx, st, sess, "Route 8", 4.2, 60)
	require.NoError(t, err)
	assert.Equal(t, 60, res.Balance)
}

func TestJoinLocalActivity(t *testing.T) {
	st := newFakeStore()
	sess := beginSession(t, st, "alice")

	res, err := newTestRewards().JoinLocalActivity(context.Background(), st, sess, "Tree Planting")
	require.NoError(t, err)

	assert.Equal(t, 150, res.PointsAwarded)
	assert.Equal(t, 150, sess.Balance)
	assert.Equal(t, []string{gamification.GreenStarter}, res.NewAchievements)

	_, err = newTestRewards().JoinLocalActivity(context.Background(), st, sess, "Volcano Tour")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLeaderboardScenario(t *testing.T) {
	st := newFakeStore()
	ctx := context.Background()
	alice := beginSession(t, st, "alice")
	bob := beginSession(t, st, "bob")
	st.UpdateUserPoints(ctx, alice.UserID, 165)
	st.UpdateUserPoints(ctx, bob.UserID, 500)

	board, err := newTestRewards().Leaderboard(ctx, st, 0)
	require.NoError(t, err)
	require.Len(t, board, 2)

	assert.Equal(t, "bob", board[0].Username)
	assert.Equal(t, 500, board[0].Points)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "alice", board[1].Username)
	assert.Equal(t, 165, board[1].Points)
	assert.Equal(t, 2, board[1].Rank)
}

func TestLeaderboard_LimitIsClamped(t *testing.T) {
	st := newFakeStore()
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		beginSession(t, st, name)
	}

	board, err := newTestRewards().Leaderboard(context.Background(), st, -5)
	require.NoError(t, err)
	assert.Len(t, board, DefaultLeaderboardLimit)

	board, err = newTestRewards().Leaderboard(context.Background(), st, 1000)
	require.NoError(t, err)
	assert.Len(t, board, 12)
}

func TestAchievements(t *testing.T) {
	st := newFakeStore()
	sess := beginSession(t, st, "alice")
	ctx := context.Background()

	NewTracker(discardLogger(), nil).LogTransport(ctx, st, sess, "bus", 10)

	states, err := newTestRewards().Achievements(ctx, st, sess)
	require.NoError(t, err)
	require.Len(t, states, len(gamification.Catalog()))

	unlocked := map[string]bool{}
	for _, s := range states {
		unlocked[s.Name] = s.Unlocked
	}
	assert.True(t, unlocked[gamification.GreenStarter])
	assert.True(t, unlocked[gamification.GreenCommuter])
	assert.False(t, unlocked[gamification.EcoWarrior])
}

func TestStoresAndMap(t *testing.T) {
	sess := &SessionContext{UserID: "u", Balance: 750}
	rewards := newTestRewards()

	stores := rewards.Stores(sess)
	require.Len(t, stores, 3)
	assert.True(t, stores[0].Unlocked)
	assert.True(t, stores[1].Unlocked)
	assert.False(t, stores[2].Unlocked)

	layers := rewards.Map(sess)
	assert.Len(t, layers.Routes, 2)
	assert.Equal(t, "2026-06-01", layers.Activities[0].Date)
}
