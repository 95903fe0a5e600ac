package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/model"
	"github.com/sakif/carbon-tracker/internal/repository"
)

var _ repository.UserRepository = (*store)(nil)

const userColumns = `id, username, display_name, bio, avatar, points, created_at, updated_at`

// CreateUser inserts a new user with a generated ID and zero points.
// Returns apperror.ErrConflict if the username is taken.
func (s *store) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.Points = 0
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.DisplayName,
		user.Bio,
		user.Avatar,
		user.Points,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return storageErr("creating user", err)
	}
	return nil
}

// FindUserByName returns apperror.ErrNotFound if no user has that username.
func (s *store) FindUserByName(ctx context.Context, username string) (*model.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row, username)
}

// FindUserByID returns apperror.ErrNotFound if no user has that ID.
func (s *store) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row, id)
}

// UpdateUserPoints adds delta in a single statement so concurrent awards
// never lose an update.
func (s *store) UpdateUserPoints(ctx context.Context, userID string, delta int) (int, error) {
	var points int
	err := s.q.QueryRowContext(ctx,
		`UPDATE users SET points = points + ?, updated_at = ?
		 WHERE id = ?
		 RETURNING points`,
		delta,
		time.Now().UTC(),
		userID,
	).Scan(&points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperror.NotFound("user", userID)
		}
		return 0, storageErr("updating points", err)
	}
	return points, nil
}

// UpdateUserProfile overwrites display name, bio and avatar. Points and
// username are left alone.
func (s *store) UpdateUserProfile(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	result, err := s.q.ExecContext(ctx,
		`UPDATE users SET display_name = ?, bio = ?, avatar = ?, updated_at = ?
		 WHERE id = ?`,
		user.DisplayName,
		user.Bio,
		user.Avatar,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return storageErr("updating profile", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return storageErr("checking rows affected", err)
	}
	if n == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

func (s *store) ListTopUsersByPoints(ctx context.Context, limit int) ([]model.User, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 ORDER BY points DESC, username ASC
		 LIMIT ?`,
		limitArg(limit),
	)
	if err != nil {
		return nil, storageErr("listing leaderboard", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.DisplayName, &u.Bio, &u.Avatar,
			&u.Points, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, storageErr("scanning user row", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating users", err)
	}
	return users, nil
}

func scanUser(row *sql.Row, key string) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Username, &u.DisplayName, &u.Bio, &u.Avatar,
		&u.Points, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, storageErr("getting user", err)
	}
	return &u, nil
}
