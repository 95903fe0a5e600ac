package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/model"
	"github.com/sakif/carbon-tracker/internal/repository"
)

const (
	MaxDisplayNameLength = 50
	MaxBioLength         = 500
	MaxAvatarBytes       = 2 << 20

	// DefaultBio is shown for users who never wrote one.
	DefaultBio = "No description provided"
)

// ProfileUpdate carries the fields to change. Nil or blank fields are left
// as they are, so a field cannot be cleared once set.
type ProfileUpdate struct {
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
	Avatar      *string `json:"avatar"`
}

type Profiles struct {
	logger *slog.Logger
}

func NewProfiles(logger *slog.Logger) *Profiles {
	return &Profiles{logger: logger}
}

// Get returns the display-ready profile and refreshes sess.Balance.
func (p *Profiles) Get(ctx context.Context, st repository.Store, sess *SessionContext) (*model.Profile, error) {
	user, err := st.FindUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: loading %s: %w", sess.UserID, err)
	}
	sess.Balance = user.Points
	return toProfile(user), nil
}

func (p *Profiles) Update(ctx context.Context, st repository.Store, sess *SessionContext, upd ProfileUpdate) (*model.Profile, error) {
	user, err := st.FindUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: loading %s: %w", sess.UserID, err)
	}

	if v, ok := provided(upd.DisplayName); ok {
		if utf8.RuneCountInString(v) > MaxDisplayNameLength {
			return nil, apperror.ValidationFailed("displayName",
				fmt.Sprintf("display name must be %d characters or less", MaxDisplayNameLength))
		}
		user.DisplayName = v
	}
	if v, ok := provided(upd.Bio); ok {
		if utf8.RuneCountInString(v) > MaxBioLength {
			return nil, apperror.ValidationFailed("bio",
				fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
		}
		user.Bio = v
	}
	if v, ok := provided(upd.Avatar); ok {
		if len(v) > MaxAvatarBytes {
			return nil, apperror.ValidationFailed("avatar", "avatar must be 2 MiB or less")
		}
		user.Avatar = v
	}

	if err := st.UpdateUserProfile(ctx, user); err != nil {
		p.logger.Error("failed to update profile",
			slog.String("userID", sess.UserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/profile: updating %s: %w", sess.UserID, err)
	}

	p.logger.Info("profile updated", slog.String("userID", sess.UserID))
	sess.Balance = user.Points
	return toProfile(user), nil
}

func provided(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}

func toProfile(u *model.User) *model.Profile {
	bio := u.Bio
	if bio == "" {
		bio = DefaultBio
	}
	return &model.Profile{
		Username:    u.Username,
		DisplayName: u.Name(),
		Bio:         bio,
		Avatar:      u.Avatar,
		Points:      u.Points,
	}
}
