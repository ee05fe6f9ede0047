package kmb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/travigo/kmb/pkg/gateway"
	"github.com/travigo/kmb/pkg/model"
	"github.com/travigo/kmb/pkg/util"
)

func (c *Client) call(ctx context.Context, action string, params gateway.Query, result any) error {
	data, err := c.gateway.Call(ctx, action, params)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode %s: %w", action, err)
	}

	return nil
}

// GetStopRouteNumbers lists the route numbers the endpoint associates with a stop id
func (c *Client) GetStopRouteNumbers(ctx context.Context, id string) ([]string, error) {
	var numbers []string
	if err := c.call(ctx, "getRoutesInStop", gateway.Query{}.Add("bsiCode", id), &numbers); err != nil {
		return nil, err
	}

	for i := range numbers {
		numbers[i] = strings.TrimSpace(numbers[i])
	}

	return util.RemoveDuplicateStrings(numbers, nil), nil
}

// GetRoutes lists the bounds of a route number
func (c *Client) GetRoutes(ctx context.Context, number string) ([]model.RouteID, error) {
	var records []routeBoundRecord
	if err := c.call(ctx, "getroutebound", gateway.Query{}.Add("route", number), &records); err != nil {
		return nil, err
	}

	routes := []model.RouteID{}
	seen := map[int]bool{}
	for _, record := range records {
		bound := int(record.Bound)
		if seen[bound] {
			continue
		}
		seen[bound] = true

		routes = append(routes, model.RouteID{Number: number, Bound: bound})
	}

	return routes, nil
}

func (c *Client) GetVariants(ctx context.Context, route model.RouteID) ([]model.Variant, error) {
	params := gateway.Query{}.
		Add("route", route.Number).
		Add("bound", strconv.Itoa(route.Bound))

	var response specialRouteResponse
	if err := c.call(ctx, "getSpecialRoute", params, &response); err != nil {
		return nil, err
	}

	variants := make([]model.Variant, 0, len(response.Routes))
	for _, record := range response.Routes {
		variants = append(variants, model.Variant{
			Route:       route,
			ServiceType: int(record.ServiceType),
			Origin:      normaliseName(c.language.pick(record.OriginEng, record.OriginChi)),
			Destination: normaliseName(c.language.pick(record.DestinationEng, record.DestinationChi)),
			Description: util.ConvertHkscs(c.language.pick(record.DescEng, record.DescChi)),
		})
	}

	return variants, nil
}

// GetStops lists the stops of a variant in order, remembering the name of each of them
func (c *Client) GetStops(ctx context.Context, variant model.Variant) ([]model.Stop, error) {
	params := gateway.Query{}.
		Add("route", variant.Route.Number).
		Add("bound", strconv.Itoa(variant.Route.Bound)).
		Add("serviceType", strconv.Itoa(variant.ServiceType))

	var response stopsResponse
	if err := c.call(ctx, "getstops", params, &response); err != nil {
		return nil, err
	}

	stops := make([]model.Stop, 0, len(response.RouteStops))
	for _, record := range response.RouteStops {
		stop, err := c.NewStop(
			ctx,
			strings.TrimSpace(record.BSICode),
			normaliseName(c.language.stopName(record)),
			strings.TrimSpace(record.Direction),
			int(record.Seq),
		)
		if err != nil {
			return nil, err
		}

		stops = append(stops, stop)
	}

	return stops, nil
}

// NewStop builds a stop and stores its name, so stop routes read back from storage can be named
func (c *Client) NewStop(ctx context.Context, id string, name string, routeDirection string, sequence int) (model.Stop, error) {
	if err := c.stopStorage.Set(ctx, c.storageKey(id), name); err != nil {
		return model.Stop{}, fmt.Errorf("store name of %s: %w", id, err)
	}

	return model.Stop{
		ID:             id,
		Name:           name,
		RouteDirection: routeDirection,
		Sequence:       sequence,
	}, nil
}

// StopName returns the stored name of a stop in the client language
func (c *Client) StopName(ctx context.Context, id string) (string, bool, error) {
	return c.stopStorage.Get(ctx, c.storageKey(id))
}

func normaliseName(name string) string {
	return util.ToTitleCase(util.ConvertHkscs(strings.TrimSpace(name)))
}
