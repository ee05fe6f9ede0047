package model

import "fmt"

// Variant is one itinerary of a route bound. Lower service types are the more
// frequent services, 1 being the main one.
type Variant struct {
	Route       RouteID `json:"route" groups:"cache,detail"`
	ServiceType int     `json:"serviceType" groups:"cache,detail"`
	Origin      string  `json:"origin" groups:"cache,detail"`
	Destination string  `json:"destination" groups:"cache,detail"`
	Description string  `json:"description" groups:"cache,detail"`
}

func (v Variant) OriginDestination() string {
	return fmt.Sprintf("%s → %s", v.Origin, v.Destination)
}
