package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/grid"
)

type EnergyHandler struct {
	feed   grid.Feed
	logger *slog.Logger
}

func NewEnergyHandler(feed grid.Feed, logger *slog.Logger) *EnergyHandler {
	return &EnergyHandler{feed: feed, logger: logger}
}

func (h *EnergyHandler) HandleGrid(w http.ResponseWriter, r *http.Request) {
	reading, err := h.feed.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("grid feed failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: apperror.CodeUpstream, Message: "grid data is unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, reading)
}
