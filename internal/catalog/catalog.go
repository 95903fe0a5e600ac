// Package catalog holds the static reference data the tracker ships with:
// bus routes, partner store tiers, tips, tourist recommendations and local
// community activities. The default catalog is embedded at build time; a
// replacement can be loaded from a YAML file with the same layout.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// DateLayout formats scheduled local-activity dates.
const DateLayout = "2006-01-02"

type Point struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lng float64 `yaml:"lng" json:"lng"`
}

type Route struct {
	Name          string  `yaml:"name"            json:"name"`
	DistanceMiles float64 `yaml:"distance_miles"  json:"distanceMiles"`
	PointsPerRide int     `yaml:"points_per_ride" json:"pointsPerRide"`
	Path          []Point `yaml:"path"            json:"path"`
}

// Store is a partner store that unlocks a discount at PointsRequired.
type Store struct {
	Name           string `yaml:"name"            json:"name"`
	Location       Point  `yaml:"location"        json:"location"`
	PointsRequired int    `yaml:"points_required" json:"pointsRequired"`
	Discount       string `yaml:"discount"        json:"discount"`
	Description    string `yaml:"description"     json:"description"`
}

type TipSet struct {
	Category string   `yaml:"category" json:"category"`
	Tips     []string `yaml:"tips"     json:"tips"`
}

type Recommendation struct {
	Section string   `yaml:"section" json:"section"`
	Items   []string `yaml:"items"   json:"items"`
}

// LocalActivity is a community event. It either happens DayOffset days
// from today or on a Recurring schedule described in words.
type LocalActivity struct {
	Name        string `yaml:"name"        json:"name"`
	Location    string `yaml:"location"    json:"location"`
	Coordinates *Point `yaml:"coordinates" json:"coordinates,omitempty"`
	DayOffset   *int   `yaml:"day_offset"  json:"-"`
	Recurring   string `yaml:"recurring"   json:"-"`
	Impact      string `yaml:"impact"      json:"impact"`
	Points      int    `yaml:"points"      json:"points"`
}

// ScheduledActivity is a LocalActivity with its date resolved.
type ScheduledActivity struct {
	LocalActivity
	Date string `json:"date"`
}

type Catalog struct {
	Routes          []Route          `yaml:"routes"`
	Stores          []Store          `yaml:"stores"`
	Tips            []TipSet         `yaml:"tips"`
	Recommendations []Recommendation `yaml:"recommendations"`
	LocalActivities []LocalActivity  `yaml:"local_activities"`
}

var loadDefault = sync.OnceValue(func() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
	}
	return c
})

// Default returns the embedded catalog. Callers must not modify it.
func Default() *Catalog {
	return loadDefault()
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that names are present and unique and that every amount
// is non-negative.
func (c *Catalog) Validate() error {
	var errs []error

	routes := make(map[string]bool, len(c.Routes))
	for i, r := range c.Routes {
		switch {
		case r.Name == "":
			errs = append(errs, fmt.Errorf("routes[%d]: name is required", i))
		case routes[r.Name]:
			errs = append(errs, fmt.Errorf("routes[%d]: duplicate name %q", i, r.Name))
		}
		routes[r.Name] = true
		if r.DistanceMiles < 0 || r.PointsPerRide < 0 {
			errs = append(errs, fmt.Errorf("route %q: distance and points must not be negative", r.Name))
		}
	}

	for i, s := range c.Stores {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("stores[%d]: name is required", i))
		}
		if s.PointsRequired < 0 {
			errs = append(errs, fmt.Errorf("store %q: points_required must not be negative", s.Name))
		}
	}

	activities := make(map[string]bool, len(c.LocalActivities))
	for i, a := range c.LocalActivities {
		switch {
		case a.Name == "":
			errs = append(errs, fmt.Errorf("local_activities[%d]: name is required", i))
		case activities[a.Name]:
			errs = append(errs, fmt.Errorf("local_activities[%d]: duplicate name %q", i, a.Name))
		}
		activities[a.Name] = true
		if (a.DayOffset == nil) == (a.Recurring == "") {
			errs = append(errs, fmt.Errorf("local activity %q: exactly one of day_offset and recurring is required", a.Name))
		}
		if a.Points < 0 {
			errs = append(errs, fmt.Errorf("local activity %q: points must not be negative", a.Name))
		}
	}

	return errors.Join(errs...)
}

// Route looks up a bus route by name.
func (c *Catalog) Route(name string) (Route, bool) {
	i := slices.IndexFunc(c.Routes, func(r Route) bool { return r.Name == name })
	if i < 0 {
		return Route{}, false
	}
	return c.Routes[i], true
}

// LocalActivity looks up a local activity by name.
func (c *Catalog) LocalActivity(name string) (LocalActivity, bool) {
	i := slices.IndexFunc(c.LocalActivities, func(a LocalActivity) bool { return a.Name == name })
	if i < 0 {
		return LocalActivity{}, false
	}
	return c.LocalActivities[i], true
}

// TipsFor returns the tips of one category, or nil.
func (c *Catalog) TipsFor(category string) []string {
	for _, t := range c.Tips {
		if t.Category == category {
			return slices.Clone(t.Tips)
		}
	}
	return nil
}

// ScheduledActivities resolves every local activity's date relative to now.
func (c *Catalog) ScheduledActivities(now time.Time) []ScheduledActivity {
	out := make([]ScheduledActivity, 0, len(c.LocalActivities))
	for _, a := range c.LocalActivities {
		out = append(out, ScheduledActivity{LocalActivity: a, Date: a.DateFrom(now)})
	}
	return out
}

// DateFrom returns the activity's date as DateLayout, or its recurring label.
func (a LocalActivity) DateFrom(now time.Time) string {
	if a.DayOffset == nil {
		return a.Recurring
	}
	return now.AddDate(0, 0, *a.DayOffset).Format(DateLayout)
}
