package handler

import (
	"net/http"

	"github.com/sakif/carbon-tracker/internal/service"
)

type ProfileHandler struct {
	profiles *service.Profiles
}

func NewProfileHandler(profiles *service.Profiles) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	profile, err := h.profiles.Get(r.Context(), st, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleUpdate applies a partial update; omitted or blank fields are kept.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	st, sess, ok := scope(r)
	if !ok {
		writeNoScope(w)
		return
	}

	var upd service.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.profiles.Update(r.Context(), st, sess, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
