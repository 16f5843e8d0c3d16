package dispatch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/avelot/fleetdispatch/core/logger"
	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/core/store"
)

// DefaultMaxDistanceKm bounds the geodistance search when the caller sets no
// explicit radius.
const DefaultMaxDistanceKm = 25.0

const (
	searchBaseScore     = 10.0
	ratingWeight        = 15.0
	loadWeight          = 25.0
	proximityWeight     = 50.0
	proximityKmPenalty  = 5.0
	maxSearchAlternates = 3
)

// SearchPreferences constrain and shape the geodistance search. Zero values
// mean "no constraint"; the Use flags toggle score contributions.
type SearchPreferences struct {
	MaxDistanceKm  float64
	PreferredZones []string
	MinRating      float64
	UseRating      bool
	UseLoad        bool
	UseProximity   bool
}

// Search ranks drivers by great-circle distance to the order's dropoff,
// factoring rating and current load. It is the alternate candidate path used
// when precise customer coordinates are known.
type Search struct {
	backend store.Backend
	timeout time.Duration
	log     logger.Logger
}

// NewSearch creates a Search. A zero timeout defaults to five seconds.
func NewSearch(backend store.Backend, timeout time.Duration, log logger.Logger) *Search {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Search{backend: backend, timeout: timeout, log: log}
}

// FindBestDriver returns the best-ranked driver for the order's dropoff plus
// up to three alternatives. When a filtering stage empties the pool, the
// result carries a typed reason and the alternatives that survived the prior
// stage.
func (s *Search) FindBestDriver(ctx context.Context, order model.Order, prefs SearchPreferences) (model.SearchResult, error) {
	if order.Dropoff == nil {
		return model.SearchResult{}, fmt.Errorf("dispatch: order %s has no dropoff coordinates", order.ID)
	}
	maxDist := prefs.MaxDistanceKm
	if maxDist <= 0 {
		maxDist = DefaultMaxDistanceKm
	}

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	statuses, err := s.backend.ListDriverStatuses(sctx, store.StatusFilter{OnlyOnline: true})
	cancel()
	if err != nil {
		return model.SearchResult{}, err
	}

	pool := make([]model.ScoredDriver, 0, len(statuses))
	inRange := make([]model.ScoredDriver, 0, len(statuses))
	for _, st := range statuses {
		if st.Status != model.DriverAvailable || st.Location == nil {
			continue
		}
		d := st.Location.DistanceKm(*order.Dropoff)
		sd := model.ScoredDriver{Driver: st, DistanceKm: d}
		pool = append(pool, sd)
		if d <= maxDist {
			inRange = append(inRange, sd)
		}
	}
	if len(inRange) == 0 {
		s.log.Debugf("no available drivers within %.1f km of order %s", maxDist, order.ID)
		return model.SearchResult{
			Reason:       model.ReasonNoAvailableDrivers,
			Alternatives: s.rank(pool, prefs)[:capAlt(len(pool))],
		}, nil
	}

	matching := inRange
	if prefs.MinRating > 0 || len(prefs.PreferredZones) > 0 {
		matching, err = s.applyFilters(ctx, inRange, prefs)
		if err != nil {
			return model.SearchResult{}, err
		}
	}
	if len(matching) == 0 {
		ranked := s.rank(inRange, prefs)
		return model.SearchResult{
			Reason:       model.ReasonNoMatchingDrivers,
			Alternatives: ranked[:capAlt(len(ranked))],
		}, nil
	}

	ranked := s.rank(matching, prefs)
	best := ranked[0]
	rest := ranked[1:]
	return model.SearchResult{
		Success:      true,
		Best:         &best,
		Alternatives: rest[:capAlt(len(rest))],
	}, nil
}

func capAlt(n int) int {
	if n > maxSearchAlternates {
		return maxSearchAlternates
	}
	return n
}

// applyFilters drops drivers below the minimum rating or outside every
// preferred zone. Zone membership counts the driver's current zone and, when
// the backend supports it, any active zone assignment.
func (s *Search) applyFilters(ctx context.Context, pool []model.ScoredDriver, prefs SearchPreferences) ([]model.ScoredDriver, error) {
	var assigned map[string]map[string]bool
	if len(prefs.PreferredZones) > 0 {
		if ar, ok := s.backend.(store.AssignmentReader); ok {
			actx, cancel := context.WithTimeout(ctx, s.timeout)
			rows, err := ar.ListDriverZones(actx, store.AssignmentFilter{ActiveOnly: true})
			cancel()
			if err != nil {
				return nil, err
			}
			assigned = make(map[string]map[string]bool)
			for _, row := range rows {
				if assigned[row.DriverID] == nil {
					assigned[row.DriverID] = make(map[string]bool)
				}
				assigned[row.DriverID][row.ZoneID] = true
			}
		}
	}

	res := make([]model.ScoredDriver, 0, len(pool))
	for _, sd := range pool {
		if prefs.MinRating > 0 && sd.Driver.Rating < prefs.MinRating {
			continue
		}
		if len(prefs.PreferredZones) > 0 && !inPreferredZone(sd.Driver, assigned, prefs.PreferredZones) {
			continue
		}
		res = append(res, sd)
	}
	return res, nil
}

func inPreferredZone(d model.DriverStatusRecord, assigned map[string]map[string]bool, zones []string) bool {
	for _, z := range zones {
		if d.CurrentZoneID == z {
			return true
		}
		if assigned != nil && assigned[d.DriverID][z] {
			return true
		}
	}
	return false
}

// rank computes the composite score for each driver and sorts descending.
// Ties break on distance, then on driver id.
func (s *Search) rank(pool []model.ScoredDriver, prefs SearchPreferences) []model.ScoredDriver {
	ranked := make([]model.ScoredDriver, len(pool))
	copy(ranked, pool)
	for i := range ranked {
		ranked[i].Score = searchScore(ranked[i], prefs)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].Driver.DriverID < ranked[j].Driver.DriverID
	})
	return ranked
}

func searchScore(sd model.ScoredDriver, prefs SearchPreferences) float64 {
	score := searchBaseScore
	if prefs.UseRating {
		score += sd.Driver.Rating * ratingWeight
	}
	if prefs.UseLoad {
		cap := float64(sd.Driver.Capacity())
		load := float64(sd.Driver.ActiveOrders)
		if load > cap {
			load = cap
		}
		score += (1 - load/cap) * loadWeight
	}
	if prefs.UseProximity {
		prox := proximityWeight - sd.DistanceKm*proximityKmPenalty
		if prox > 0 {
			score += prox
		}
	}
	return score
}
