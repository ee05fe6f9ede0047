package model

// StopRoute associates a pole with a variant: the stop is number Sequence on the variant
type StopRoute struct {
	Stop     Stop    `json:"stop" groups:"cache,detail"`
	Variant  Variant `json:"variant" groups:"cache,detail"`
	Sequence int     `json:"sequence" groups:"cache,detail"`
}

type StopRouteGroup struct {
	RouteBound string      `json:"routeBound" groups:"detail"`
	StopRoutes []StopRoute `json:"stopRoutes" groups:"detail"`
}

// StopRouteGroups is keyed by route bound, keeping the order the routes were listed in
type StopRouteGroups []StopRouteGroup

func (g StopRouteGroups) Get(routeBound string) []StopRoute {
	for _, group := range g {
		if group.RouteBound == routeBound {
			return group.StopRoutes
		}
	}

	return nil
}

func (g StopRouteGroups) Keys() []string {
	keys := make([]string, 0, len(g))
	for _, group := range g {
		keys = append(keys, group.RouteBound)
	}

	return keys
}

func (g StopRouteGroups) All() []StopRoute {
	var stopRoutes []StopRoute
	for _, group := range g {
		stopRoutes = append(stopRoutes, group.StopRoutes...)
	}

	return stopRoutes
}

// GroupStopRoutes buckets the stop routes by route bound, in order of first appearance
func GroupStopRoutes(stopRoutes []StopRoute) StopRouteGroups {
	groups := StopRouteGroups{}
	index := map[string]int{}

	for _, stopRoute := range stopRoutes {
		routeBound := stopRoute.Variant.Route.RouteBound()

		i, exists := index[routeBound]
		if !exists {
			i = len(groups)
			index[routeBound] = i
			groups = append(groups, StopRouteGroup{RouteBound: routeBound})
		}

		groups[i].StopRoutes = append(groups[i].StopRoutes, stopRoute)
	}

	return groups
}

// MainVariants keeps, for every route bound, only the stop routes of the lowest service type seen
func (g StopRouteGroups) MainVariants() StopRouteGroups {
	filtered := make(StopRouteGroups, 0, len(g))

	for _, group := range g {
		if len(group.StopRoutes) == 0 {
			continue
		}

		minimum := group.StopRoutes[0].Variant.ServiceType
		for _, stopRoute := range group.StopRoutes {
			if stopRoute.Variant.ServiceType < minimum {
				minimum = stopRoute.Variant.ServiceType
			}
		}

		var stopRoutes []StopRoute
		for _, stopRoute := range group.StopRoutes {
			if stopRoute.Variant.ServiceType == minimum {
				stopRoutes = append(stopRoutes, stopRoute)
			}
		}

		filtered = append(filtered, StopRouteGroup{
			RouteBound: group.RouteBound,
			StopRoutes: stopRoutes,
		})
	}

	return filtered
}
