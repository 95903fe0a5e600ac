// Package rewardmap assembles the layers of the rewards map: bus routes,
// local activities and partner stores, with each store marked locked or
// unlocked against the user's balance. Drawing the map is left to a Renderer.
package rewardmap

import (
	"context"
	"time"

	"github.com/sakif/carbon-tracker/internal/catalog"
)

// Oahu view.
var (
	DefaultCenter = catalog.Point{Lat: 21.4389, Lng: -157.9243}
	DefaultZoom   = 11
	DefaultTiles  = "cartodb positron"
)

const (
	ColorUnlocked = "green"
	ColorLocked   = "red"
	ColorRoute    = "blue"
	ColorActivity = "green"
)

type RouteLayer struct {
	Name          string          `json:"name"`
	Path          []catalog.Point `json:"path"`
	Color         string          `json:"color"`
	DistanceMiles float64         `json:"distanceMiles"`
	PointsPerRide int             `json:"pointsPerRide"`
}

type ActivityMarker struct {
	Name     string        `json:"name"`
	Location catalog.Point `json:"location"`
	Date     string        `json:"date"`
	Points   int           `json:"points"`
	Impact   string        `json:"impact"`
	Color    string        `json:"color"`
}

type StoreMarker struct {
	Name           string        `json:"name"`
	Location       catalog.Point `json:"location"`
	PointsRequired int           `json:"pointsRequired"`
	Discount       string        `json:"discount"`
	Description    string        `json:"description"`
	Unlocked       bool          `json:"unlocked"`
	Color          string        `json:"color"`
}

// Layers is everything a map renderer needs.
type Layers struct {
	Center     catalog.Point    `json:"center"`
	Zoom       int              `json:"zoom"`
	Tiles      string           `json:"tiles"`
	Routes     []RouteLayer     `json:"routes"`
	Activities []ActivityMarker `json:"activities"`
	Stores     []StoreMarker    `json:"stores"`
}

// Renderer draws Layers. The result is opaque to the tracker.
type Renderer interface {
	Render(ctx context.Context, layers Layers) (any, error)
}

// Build lays out cat for a user holding points. Activities without
// coordinates are left off the map.
func Build(cat *catalog.Catalog, points int, now time.Time) Layers {
	l := Layers{
		Center:     DefaultCenter,
		Zoom:       DefaultZoom,
		Tiles:      DefaultTiles,
		Routes:     make([]RouteLayer, 0, len(cat.Routes)),
		Activities: make([]ActivityMarker, 0, len(cat.LocalActivities)),
		Stores:     StoreStates(cat, points),
	}

	for _, r := range cat.Routes {
		l.Routes = append(l.Routes, RouteLayer{
			Name:          r.Name,
			Path:          r.Path,
			Color:         ColorRoute,
			DistanceMiles: r.DistanceMiles,
			PointsPerRide: r.PointsPerRide,
		})
	}

	for _, a := range cat.LocalActivities {
		if a.Coordinates == nil {
			continue
		}
		l.Activities = append(l.Activities, ActivityMarker{
			Name:     a.Name,
			Location: *a.Coordinates,
			Date:     a.DateFrom(now),
			Points:   a.Points,
			Impact:   a.Impact,
			Color:    ColorActivity,
		})
	}

	return l
}

// StoreStates marks each store unlocked when points reaches its requirement.
func StoreStates(cat *catalog.Catalog, points int) []StoreMarker {
	out := make([]StoreMarker, 0, len(cat.Stores))
	for _, s := range cat.Stores {
		unlocked := points >= s.PointsRequired
		color := ColorLocked
		if unlocked {
			color = ColorUnlocked
		}
		out = append(out, StoreMarker{
			Name:           s.Name,
			Location:       s.Location,
			PointsRequired: s.PointsRequired,
			Discount:       s.Discount,
			Description:    s.Description,
			Unlocked:       unlocked,
			Color:          color,
		})
	}
	return out
}

// Passthrough is the Renderer for JSON clients that draw the map themselves.
type Passthrough struct{}

func (Passthrough) Render(_ context.Context, layers Layers) (any, error) {
	return layers, nil
}
