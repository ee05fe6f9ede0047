package kmb

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/kmb/pkg/model"
)

// ProgressFunc receives the number of route numbers of a stop, then the number
// of routes left to look at each time one is done
type ProgressFunc func(remaining int)

// candidate is a variant with all of its stops, fetched while resolving a stop
type candidate struct {
	variant model.Variant
	stops   []model.Stop
}

// GetStopRoutes finds every variant calling at the pole of the given stop, grouped by route bound.
// Unless allVariants is set only the main service, the lowest service type, of each route bound is returned.
func (c *Client) GetStopRoutes(ctx context.Context, ref model.StopRef, allVariants bool, progress ProgressFunc) (model.StopRouteGroups, error) {
	logger := log.With().
		Str("lookup", uuid.NewString()).
		Str("stop", ref.ID()).
		Logger()

	groups, err := c.resolveStopRoutes(ctx, ref, progress, logger)
	if err != nil {
		return nil, err
	}

	if allVariants {
		return groups, nil
	}

	return groups.MainVariants(), nil
}

func (c *Client) resolveStopRoutes(ctx context.Context, ref model.StopRef, progress ProgressFunc, logger zerolog.Logger) (model.StopRouteGroups, error) {
	key := c.storageKey(ref.ID())

	cached, exists, err := c.stopRouteStorage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Debug().Msg("Stop routes found in storage")
		return c.decodeStopRoutes(ctx, cached)
	}

	candidates, err := c.fetchCandidates(ctx, ref.ID(), progress, logger)
	if err != nil {
		return nil, err
	}

	stop, complete := ref.Complete()
	if !complete {
		var found bool
		stop, found = firstExactMatch(candidates, ref.ID())
		if !found {
			logger.Debug().Msg("No variant calls at stop")
			return model.StopRouteGroups{}, nil
		}
	}

	stopRoutes := matchStopRoutes(candidates, stop)
	if len(stopRoutes) == 0 {
		logger.Debug().Msg("No variant calls at stop")
		return model.StopRouteGroups{}, nil
	}

	encoded, err := encodeStopRoutes(stopRoutes)
	if err != nil {
		return nil, err
	}
	if err := c.stopRouteStorage.Set(ctx, key, encoded); err != nil {
		return nil, err
	}

	logger.Debug().
		Int("candidates", len(candidates)).
		Int("stopRoutes", len(stopRoutes)).
		Msg("Resolved stop routes")

	return model.GroupStopRoutes(stopRoutes), nil
}

// fetchCandidates walks route numbers, bounds and variants of a stop concurrently.
// Every branch writes to its own slot so the result keeps the order the endpoint listed things in.
func (c *Client) fetchCandidates(ctx context.Context, id string, progress ProgressFunc, logger zerolog.Logger) ([]candidate, error) {
	numbers, err := c.GetStopRouteNumbers(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.Debug().Strs("routes", numbers).Msg("Fetching variants of routes at stop")

	routeDone := newProgressReporter(progress, len(numbers))
	routeCandidates := make([][]candidate, len(numbers))

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError().WithFirstError()
	for i, number := range numbers {
		p.Go(func(ctx context.Context) error {
			candidates, err := c.routeCandidates(ctx, number)
			if err != nil {
				return err
			}

			routeCandidates[i] = candidates
			routeDone()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return flatten(routeCandidates), nil
}

func (c *Client) routeCandidates(ctx context.Context, number string) ([]candidate, error) {
	routes, err := c.GetRoutes(ctx, number)
	if err != nil {
		return nil, err
	}

	boundCandidates := make([][]candidate, len(routes))

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError().WithFirstError()
	for i, route := range routes {
		p.Go(func(ctx context.Context) error {
			candidates, err := c.boundCandidates(ctx, route)
			if err != nil {
				return err
			}

			boundCandidates[i] = candidates
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return flatten(boundCandidates), nil
}

func (c *Client) boundCandidates(ctx context.Context, route model.RouteID) ([]candidate, error) {
	variants, err := c.GetVariants(ctx, route)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, len(variants))

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError().WithFirstError()
	for i, variant := range variants {
		p.Go(func(ctx context.Context) error {
			stops, err := c.GetStops(ctx, variant)
			if err != nil {
				return err
			}

			candidates[i] = candidate{variant: variant, stops: stops}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return candidates, nil
}

func firstExactMatch(candidates []candidate, id string) (model.Stop, bool) {
	for _, candidate := range candidates {
		for _, stop := range candidate.stops {
			if stop.ID == id {
				return stop, true
			}
		}
	}

	return model.Stop{}, false
}

func matchStopRoutes(candidates []candidate, target model.Stop) []model.StopRoute {
	var stopRoutes []model.StopRoute
	for _, candidate := range candidates {
		for _, stop := range candidate.stops {
			if !samePole(stop, target) {
				continue
			}

			stopRoutes = append(stopRoutes, model.StopRoute{
				Stop:     stop,
				Variant:  candidate.variant,
				Sequence: stop.Sequence,
			})
		}
	}

	return stopRoutes
}

// samePole tells whether stop is the pole of target. Poles on the same street in the same
// direction are one pole when they share a name, terminus poles even when they do not.
func samePole(stop model.Stop, target model.Stop) bool {
	if stop.ID == target.ID {
		return true
	}

	return (target.StreetDirection() == model.StreetDirectionTerminus || stop.Name == target.Name) &&
		stop.StreetID() == target.StreetID() &&
		stop.StreetDirection() == target.StreetDirection()
}

func newProgressReporter(progress ProgressFunc, total int) func() {
	if progress == nil {
		return func() {}
	}

	var mutex sync.Mutex
	remaining := total
	progress(remaining)

	return func() {
		mutex.Lock()
		defer mutex.Unlock()

		remaining--
		progress(remaining)
	}
}

func flatten[T any](parts [][]T) []T {
	var flat []T
	for _, part := range parts {
		flat = append(flat, part...)
	}

	return flat
}
