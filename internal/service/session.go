// Package service holds the tracker's business operations. Every call takes
// the request's store explicitly along with a *SessionContext describing the
// signed-in user; no state survives between requests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/model"
	"github.com/sakif/carbon-tracker/internal/repository"
)

const MaxUsernameLength = 64

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// SessionContext identifies the user a request acts for. Balance is the
// point balance as of the last store read or increment; services update it
// after every mutation.
type SessionContext struct {
	UserID   string
	Username string
	Balance  int
}

func newSessionContext(u *model.User) *SessionContext {
	return &SessionContext{UserID: u.ID, Username: u.Username, Balance: u.Points}
}

type Sessions struct {
	logger *slog.Logger
}

func NewSessions(logger *slog.Logger) *Sessions {
	return &Sessions{logger: logger}
}

// Begin signs in as username, creating the user on first sight.
func (s *Sessions) Begin(ctx context.Context, st repository.Store, username string) (*SessionContext, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	user, err := st.FindUserByName(ctx, username)
	if err == nil {
		return newSessionContext(user), nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/session: finding user %q: %w", username, err)
	}

	user = &model.User{Username: username}
	if err := st.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent first sign-in.
		if errors.Is(err, apperror.ErrConflict) {
			if user, err = st.FindUserByName(ctx, username); err == nil {
				return newSessionContext(user), nil
			}
		}
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/session: creating user %q: %w", username, err)
	}

	s.logger.Info("user created",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return newSessionContext(user), nil
}

// Resume rebuilds the session for a user ID taken from a token.
func (s *Sessions) Resume(ctx context.Context, st repository.Store, userID string) (*SessionContext, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userID", "user ID is required")
	}
	user, err := st.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/session: resuming %s: %w", userID, err)
	}
	return newSessionContext(user), nil
}

func validateUsername(username string) error {
	if username == "" {
		return apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if !usernamePattern.MatchString(username) {
		return apperror.ValidationFailed("username",
			"username may only contain letters, digits, '.', '_' and '-'")
	}
	return nil
}

// UsernameFrom turns an external login into a valid username by replacing
// unsupported characters and truncating.
func UsernameFrom(login string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(login) {
		if r < 128 && usernamePattern.MatchString(string(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		if b.Len() == MaxUsernameLength {
			break
		}
	}
	return b.String()
}
