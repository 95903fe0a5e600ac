package handler

import (
	"net/http"
	"strconv"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/service"
)

type ActivityHandler struct {
	tracker *service.Tracker
}

func NewActivityHandler(tracker *service.Tracker) *ActivityHandler {
	return &ActivityHandler{tracker: tracker}
}

type transportRequest struct {
	Mode          string  `json:"mode"`
	DistanceMiles float64 `json:"distanceMiles"`
}

type foodRequest struct {
	FoodType string `json:"foodType"`
	Portions int    `json:"portions"`
}

type energyRequest struct {
	KWh float64 `json:"kwh"`
}

func (h *ActivityHandler) HandleTransport(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	var req transportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.tracker.LogTransport(r.Context(), st, sess, req.Mode, req.DistanceMiles)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ActivityHandler) HandleFood(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	var req foodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.tracker.LogFood(r.Context(), st, sess, req.FoodType, req.Portions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ActivityHandler) HandleEnergy(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	var req energyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.tracker.LogEnergy(r.Context(), st, sess, req.KWh)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleList returns recent activities; ?limit= defaults to 20 and ?offset=
// skips that many of the newest.
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	activities, err := h.tracker.Activities(r.Context(), st, sess, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	summary, err := h.tracker.Summary(r.Context(), st, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *ActivityHandler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	trend, err := h.tracker.Trend(r.Context(), st, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return v, nil
}
