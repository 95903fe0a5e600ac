package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/model"
	"github.com/sakif/carbon-tracker/internal/repository"
)

// fakeStore is an in-memory repository.Handle. Set failOn to make the named
// method return a storage error.
type fakeStore struct {
	mu           sync.Mutex
	users        map[string]*model.User
	activities   []model.Activity
	achievements []model.Achievement
	rides        []model.BusRide
	nextID       int
	failOn       string
	closed       bool
}

var _ repository.Handle = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*model.User)}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fakeStore) id() string {
	f.nextID++
	return fmt.Sprintf("fake-%d", f.nextID)
}

func (f *fakeStore) fail(method string) error {
	if f.failOn == method {
		return apperror.Storage(method, fmt.Errorf("fake: %s failed", method))
	}
	return nil
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateUser"); err != nil {
		return err
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	user.ID = f.id()
	user.Points = 0
	user.CreatedAt = time.Now()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeStore) FindUserByName(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("FindUserByName"); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeStore) FindUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("FindUserByID"); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	c := *u
	return &c, nil
}

func (f *fakeStore) UpdateUserPoints(_ context.Context, userID string, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateUserPoints"); err != nil {
		return 0, err
	}
	u, ok := f.users[userID]
	if !ok {
		return 0, apperror.NotFound("user", userID)
	}
	u.Points += delta
	return u.Points, nil
}

func (f *fakeStore) UpdateUserProfile(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateUserProfile"); err != nil {
		return err
	}
	u, ok := f.users[user.ID]
	if !ok {
		return apperror.NotFound("user", user.ID)
	}
	u.DisplayName, u.Bio, u.Avatar = user.DisplayName, user.Bio, user.Avatar
	return nil
}

func (f *fakeStore) ListTopUsersByPoints(_ context.Context, limit int) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListTopUsersByPoints"); err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Points != users[j].Points {
			return users[i].Points > users[j].Points
		}
		return users[i].Username < users[j].Username
	})
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (f *fakeStore) InsertActivity(_ context.Context, a *model.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertActivity"); err != nil {
		return err
	}
	if _, ok := f.users[a.UserID]; !ok {
		return apperror.NotFound("user", a.UserID)
	}
	a.ID = f.id()
	f.activities = append(f.activities, *a)
	return nil
}

func (f *fakeStore) ListActivitiesByUser(_ context.Context, userID string, opts repository.ListOptions) ([]model.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListActivitiesByUser"); err != nil {
		return nil, err
	}
	var out []model.Activity
	for i := len(f.activities) - 1; i >= 0; i-- {
		if f.activities[i].UserID == userID {
			out = append(out, f.activities[i])
		}
	}
	if opts.Offset >= len(out) {
		return nil, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeStore) InsertAchievement(_ context.Context, a *model.Achievement) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertAchievement"); err != nil {
		return false, err
	}
	if _, ok := f.users[a.UserID]; !ok {
		return false, apperror.NotFound("user", a.UserID)
	}
	for _, have := range f.achievements {
		if have.UserID == a.UserID && have.Name == a.Name {
			return false, nil
		}
	}
	a.ID = f.id()
	f.achievements = append(f.achievements, *a)
	return true, nil
}

func (f *fakeStore) ListAchievementsByUser(_ context.Context, userID string) ([]model.Achievement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Achievement
	for _, a := range f.achievements {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertBusRide(_ context.Context, r *model.BusRide) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertBusRide"); err != nil {
		return err
	}
	if _, ok := f.users[r.UserID]; !ok {
		return apperror.NotFound("user", r.UserID)
	}
	r.ID = f.id()
	f.rides = append(f.rides, *r)
	return nil
}

func (f *fakeStore) ListBusRidesByUser(_ context.Context, userID string) ([]model.BusRide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.BusRide
	for i := len(f.rides) - 1; i >= 0; i-- {
		if f.rides[i].UserID == userID {
			out = append(out, f.rides[i])
		}
	}
	return out, nil
}

// WithTx snapshots the mutable state and restores it if fn fails.
func (f *fakeStore) WithTx(_ context.Context, fn func(repository.Store) error) error {
	f.mu.Lock()
	users := make(map[string]model.User, len(f.users))
	for id, u := range f.users {
		users[id] = *u
	}
	rides, activities := len(f.rides), len(f.activities)
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		for id, u := range users {
			*f.users[id] = u
		}
		f.rides = f.rides[:rides]
		f.activities = f.activities[:activities]
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}
