package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/model"
	"github.com/sakif/carbon-tracker/internal/repository"
)

var _ repository.ActivityRepository = (*store)(nil)

// InsertActivity appends an entry to the user's ledger. CreatedAt is kept if
// the caller set it. Returns apperror.ErrNotFound if the user does not exist.
func (s *store) InsertActivity(ctx context.Context, activity *model.Activity) error {
	details, err := json.Marshal(activity.Details)
	if err != nil {
		return fmt.Errorf("sqlite: encoding activity details: %w", err)
	}

	activity.ID = xid.New().String()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	_, err = s.q.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, category, details, emissions_kg, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		activity.ID,
		activity.UserID,
		activity.Category,
		string(details),
		activity.EmissionsKg,
		activity.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", activity.UserID)
		}
		return storageErr("inserting activity", err)
	}
	return nil
}

func (s *store) ListActivitiesByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Activity, error) {
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, category, details, emissions_kg, created_at
		 FROM activities
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID,
		limitArg(opts.Limit),
		offset,
	)
	if err != nil {
		return nil, storageErr("listing activities", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		var (
			a       model.Activity
			details string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Category, &details, &a.EmissionsKg, &a.CreatedAt); err != nil {
			return nil, storageErr("scanning activity row", err)
		}
		if err := json.Unmarshal([]byte(details), &a.Details); err != nil {
			return nil, fmt.Errorf("sqlite: decoding details of activity %s: %w", a.ID, err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating activities", err)
	}
	return activities, nil
}
