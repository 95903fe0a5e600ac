package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/carbon-tracker/internal/middleware"
	"github.com/sakif/carbon-tracker/internal/rewardmap"
	"github.com/sakif/carbon-tracker/internal/service"
)

type RewardsHandler struct {
	rewards  *service.Rewards
	renderer rewardmap.Renderer
	logger   *slog.Logger
}

// NewRewardsHandler returns a RewardsHandler. A nil renderer serves the map
// layers as JSON.
func NewRewardsHandler(rewards *service.Rewards, renderer rewardmap.Renderer, logger *slog.Logger) *RewardsHandler {
	if renderer == nil {
		renderer = rewardmap.Passthrough{}
	}
	return &RewardsHandler{rewards: rewards, renderer: renderer, logger: logger}
}

type busRideRequest struct {
	RouteName string `json:"routeName"`
}

func (h *RewardsHandler) HandleRecordBusRide(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	var req busRideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.rewards.RecordBusRide(r.Context(), st, sess, req.RouteName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *RewardsHandler) HandleListBusRides(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	rides, err := h.rewards.BusRides(r.Context(), st, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rides)
}

func (h *RewardsHandler) HandleJoinLocalActivity(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	res, err := h.rewards.JoinLocalActivity(r.Context(), st, sess, chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RewardsHandler) HandleMap(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	out, err := h.renderer.Render(r.Context(), h.rewards.Map(sess))
	if err != nil {
		h.logger.Error("failed to render rewards map", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RewardsHandler) HandleStores(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}
	writeJSON(w, http.StatusOK, h.rewards.Stores(sess))
}

func (h *RewardsHandler) HandleAchievements(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	states, err := h.rewards.Achievements(r.Context(), st, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, states)
}

// HandleLeaderboard is public; ?limit= defaults to 10.
func (h *RewardsHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	st, ok := middleware.StoreFrom(r.Context())
	if !ok {
		writeNoScope(w)
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	board, err := h.rewards.Leaderboard(r.Context(), st, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
