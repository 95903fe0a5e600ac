package handler

import (
	"net/http"
	"time"

	"github.com/sakif/carbon-tracker/internal/catalog"
	"github.com/sakif/carbon-tracker/internal/emission"
	"github.com/sakif/carbon-tracker/internal/gamification"
)

// CatalogHandler serves the static reference data. None of it needs a session.
type CatalogHandler struct {
	catalog *catalog.Catalog
	now     func() time.Time
}

func NewCatalogHandler(cat *catalog.Catalog, now func() time.Time) *CatalogHandler {
	if now == nil {
		now = time.Now
	}
	return &CatalogHandler{catalog: cat, now: now}
}

func (h *CatalogHandler) HandleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Routes)
}

func (h *CatalogHandler) HandleStores(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Stores)
}

// HandleTips returns every category, or one with ?category=.
func (h *CatalogHandler) HandleTips(w http.ResponseWriter, r *http.Request) {
	if category := r.URL.Query().Get("category"); category != "" {
		writeJSON(w, http.StatusOK, catalog.TipSet{Category: category, Tips: h.catalog.TipsFor(category)})
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.Tips)
}

func (h *CatalogHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Recommendations)
}

func (h *CatalogHandler) HandleLocalActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.ScheduledActivities(h.now()))
}

type choicesResponse struct {
	TransportModes []string                  `json:"transportModes"`
	FoodTypes      []string                  `json:"foodTypes"`
	Achievements   []gamification.Definition `json:"achievements"`
}

// HandleChoices lists the options the activity forms offer.
func (h *CatalogHandler) HandleChoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, choicesResponse{
		TransportModes: emission.TransportModes(),
		FoodTypes:      emission.FoodTypes(),
		Achievements:   gamification.Catalog(),
	})
}
