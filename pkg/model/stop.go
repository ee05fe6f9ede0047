package model

import "strings"

const StreetDirectionTerminus = "T"

// StreetID returns the street part of a stop id, e.g. CA07 for CA07-S-2800-0
func StreetID(id string) string {
	return idSegment(id, 0)
}

// StreetDirection returns the direction part of a stop id, e.g. S for CA07-S-2800-0.
// N/E/S/W are compass directions, K/C loop roads and T a terminus.
func StreetDirection(id string) string {
	return idSegment(id, 1)
}

func idSegment(id string, index int) string {
	segments := strings.Split(id, "-")
	if index >= len(segments) {
		return ""
	}

	return segments[index]
}

// Stop is a pole as listed on a variant, with its name already resolved
type Stop struct {
	ID             string `json:"id" groups:"cache,detail"`
	Name           string `json:"name" groups:"detail"`
	RouteDirection string `json:"routeDirection" groups:"cache,detail"`
	Sequence       int    `json:"sequence" groups:"cache,detail"`
}

func (s Stop) StreetID() string {
	return StreetID(s.ID)
}

func (s Stop) StreetDirection() string {
	return StreetDirection(s.ID)
}

// StopRef is either an incomplete stop, where only the id is known, or a complete Stop
type StopRef struct {
	id   string
	stop *Stop
}

func Incomplete(id string) StopRef {
	return StopRef{id: id}
}

func Complete(stop Stop) StopRef {
	return StopRef{id: stop.ID, stop: &stop}
}

func (r StopRef) ID() string {
	return r.id
}

func (r StopRef) Complete() (Stop, bool) {
	if r.stop == nil {
		return Stop{}, false
	}

	return *r.stop, true
}

func (r StopRef) String() string {
	return r.id
}
