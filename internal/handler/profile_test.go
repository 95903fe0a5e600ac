package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/carbon-tracker/internal/model"
	"github.com/sakif/carbon-tracker/internal/service"
)

func TestHandleProfile(t *testing.T) {
	st := newTestHandle(t)
	sess := beginSession(t, st, "alice")
	h := NewProfileHandler(service.NewProfiles(testLogger()))

	rec := serve(h.HandleGet, request(http.MethodGet, "/api/me", "", st, sess, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeBody[model.Profile](t, rec)
	assert.Equal(t, "alice", profile.DisplayName)
	assert.Equal(t, service.DefaultBio, profile.Bio)

	rec = serve(h.HandleUpdate, request(http.MethodPatch, "/api/me",
		`{"displayName":"Alice K.","bio":"  "}`, st, sess, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	profile = decodeBody[model.Profile](t, rec)
	assert.Equal(t, "Alice K.", profile.DisplayName)
	assert.Equal(t, service.DefaultBio, profile.Bio, "blank fields are ignored")
}

func TestHandleProfileUpdate_TooLong(t *testing.T) {
	st := newTestHandle(t)
	sess := beginSession(t, st, "alice")
	h := NewProfileHandler(service.NewProfiles(testLogger()))

	body := `{"displayName":"` + strings.Repeat("x", service.MaxDisplayNameLength+1) + `"}`
	rec := serve(h.HandleUpdate, request(http.MethodPatch, "/api/me", body, st, sess, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "displayName", decodeBody[ErrorResponse](t, rec).Field)
}
