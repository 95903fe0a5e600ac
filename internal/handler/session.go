package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/auth"
	"github.com/sakif/carbon-tracker/internal/middleware"
	"github.com/sakif/carbon-tracker/internal/model"
	"github.com/sakif/carbon-tracker/internal/repository"
	"github.com/sakif/carbon-tracker/internal/service"
)

const stateCookie = "oauth_state"

type SessionHandler struct {
	sessions *service.Sessions
	profiles *service.Profiles
	tokens   *auth.TokenService
	github   *auth.GitHubProvider // nil when GitHub sign-in is not configured
	logger   *slog.Logger
}

func NewSessionHandler(
	sessions *service.Sessions,
	profiles *service.Profiles,
	tokens *auth.TokenService,
	github *auth.GitHubProvider,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		profiles: profiles,
		tokens:   tokens,
		github:   github,
		logger:   logger,
	}
}

type beginRequest struct {
	Username string `json:"username"`
}

type SessionResponse struct {
	Token   string         `json:"token"`
	Profile *model.Profile `json:"profile"`
}

// HandleBegin signs in with a bare username, creating the user on first use.
func (h *SessionHandler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	st, ok := middleware.StoreFrom(r.Context())
	if !ok {
		writeNoScope(w)
		return
	}

	var req beginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	resp, err := h.signIn(r, st, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, resp.Token)
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) signIn(r *http.Request, st repository.Store, username string) (*SessionResponse, error) {
	sess, err := h.sessions.Begin(r.Context(), st, username)
	if err != nil {
		return nil, err
	}
	profile, err := h.profiles.Get(r.Context(), st, sess)
	if err != nil {
		return nil, err
	}
	token, err := h.tokens.Generate(sess.UserID)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{Token: token, Profile: profile}, nil
}

func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleGitHubLogin redirects to GitHub's consent page.
func (h *SessionHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: apperror.CodeNotFound, Message: "GitHub sign-in is not configured"})
		return
	}

	state, err := auth.NewState()
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback finishes the OAuth flow. The GitHub login becomes the
// tracker username.
func (h *SessionHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: apperror.CodeNotFound, Message: "GitHub sign-in is not configured"})
		return
	}
	st, ok := middleware.StoreFrom(r.Context())
	if !ok {
		writeNoScope(w)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("github callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: apperror.CodeValidation, Message: "invalid OAuth state"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if denied := r.URL.Query().Get("error"); denied != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", denied))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: apperror.CodeValidation, Message: "missing OAuth code"})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: apperror.CodeUpstream, Message: "GitHub authentication failed"})
		return
	}

	resp, err := h.signIn(r, st, service.UsernameFrom(ghUser.Login))
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("user signed in via GitHub", slog.String("login", ghUser.Login))
	h.setTokenCookie(w, resp.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *SessionHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
