package kmb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/travigo/kmb/pkg/gateway"
	"github.com/travigo/kmb/pkg/storage"
)

type fakeStop struct {
	id   string
	name string
}

type fakeVariant struct {
	number      string
	bound       int
	serviceType int
	stops       []fakeStop
}

// fakeGateway answers search actions from a small route network
type fakeGateway struct {
	mutex        sync.Mutex
	routesInStop map[string][]string
	variants     []fakeVariant
	delays       map[string]time.Duration
	err          error
	calls        atomic.Int32

	etaRecords []gateway.EtaRecord
	etaQueries []gateway.Query
	etaPosts   []etaRequest

	// etaFailures is the number of ETA requests answered with a server error before succeeding
	etaFailures int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		routesInStop: map[string][]string{},
		delays:       map[string]time.Duration{},
	}
}

func (g *fakeGateway) addVariant(number string, bound int, serviceType int, stops ...fakeStop) {
	g.variants = append(g.variants, fakeVariant{
		number:      number,
		bound:       bound,
		serviceType: serviceType,
		stops:       stops,
	})
}

func (g *fakeGateway) Call(ctx context.Context, action string, params gateway.Query) (json.RawMessage, error) {
	g.calls.Add(1)

	if g.err != nil {
		return nil, g.err
	}

	if delay := g.delays[params.Get("route")]; delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var data any

	switch action {
	case "getRoutesInStop":
		data = g.routesInStop[params.Get("bsiCode")]
	case "getroutebound":
		records := []map[string]any{}
		for _, variant := range g.variants {
			if variant.number == params.Get("route") {
				records = append(records, map[string]any{
					"ROUTE":        variant.number,
					"BOUND":        variant.bound,
					"SERVICE_TYPE": variant.serviceType,
				})
			}
		}
		data = records
	case "getSpecialRoute":
		routes := []map[string]any{}
		for _, variant := range g.matching(params) {
			routes = append(routes, map[string]any{
				"ServiceType":     fmt.Sprintf("%02d   ", variant.serviceType),
				"Bound":           strconv.Itoa(variant.bound),
				"Origin_ENG":      "TSIM SHA TSUI (CIRCULAR)",
				"Origin_CHI":      "尖沙咀(循環線)",
				"Destination_ENG": "SHAM SHUI PO",
				"Destination_CHI": "深水\ue88c",
				"Desc_ENG":        "",
				"Desc_CHI":        "",
			})
		}
		data = map[string]any{"routes": routes}
	case "getstops":
		routeStops := []map[string]any{}
		for _, variant := range g.matching(params) {
			if strconv.Itoa(variant.serviceType) != params.Get("serviceType") {
				continue
			}
			for seq, stop := range variant.stops {
				routeStops = append(routeStops, map[string]any{
					"BSICode":   stop.id,
					"Direction": strconv.Itoa(variant.bound),
					"Seq":       strconv.Itoa(seq),
					"EName":     stop.name,
					"CName":     stop.name,
					"SCName":    stop.name,
				})
			}
		}
		data = map[string]any{"routeStops": routeStops}
	default:
		return nil, fmt.Errorf("unexpected action %s", action)
	}

	return json.Marshal(data)
}

func (g *fakeGateway) matching(params gateway.Query) []fakeVariant {
	var variants []fakeVariant
	for _, variant := range g.variants {
		if variant.number == params.Get("route") && strconv.Itoa(variant.bound) == params.Get("bound") {
			variants = append(variants, variant)
		}
	}

	return variants
}

func (g *fakeGateway) GetEta(_ context.Context, query gateway.Query) ([]gateway.EtaRecord, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.etaQueries = append(g.etaQueries, query)
	return g.etaResponse(len(g.etaQueries) + len(g.etaPosts))
}

func (g *fakeGateway) PostEta(_ context.Context, d string, ctr int) ([]gateway.EtaRecord, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.etaPosts = append(g.etaPosts, etaRequest{D: d, Ctr: ctr})
	return g.etaResponse(len(g.etaQueries) + len(g.etaPosts))
}

func (g *fakeGateway) etaResponse(request int) ([]gateway.EtaRecord, error) {
	if request <= g.etaFailures {
		return nil, &gateway.StatusError{StatusCode: 500, URL: gateway.DefaultEtaURL}
	}

	return g.etaRecords, nil
}

type etaRequest struct {
	D   string
	Ctr int
}

var testNow = time.Date(2020, 10, 18, 14, 21, 57, 0, hongKong)

type testClient struct {
	*Client
	gateway          *fakeGateway
	stopStorage      *storage.MemoryStorage
	stopRouteStorage *storage.MemoryStorage
}

func newTestClient(t *testing.T, language Language) testClient {
	return newTestClientWithClock(t, language, func() time.Time { return testNow })
}

func newTestClientWithClock(t *testing.T, language Language, now func() time.Time) testClient {
	fake := newFakeGateway()
	stopStorage := storage.NewMemoryStorage()
	stopRouteStorage := storage.NewMemoryStorage()

	client, err := NewClient(context.Background(), Options{
		Language:         language,
		Gateway:          fake,
		StopStorage:      stopStorage,
		StopRouteStorage: stopRouteStorage,
		Now:              now,
	})
	require.NoError(t, err)

	return testClient{
		Client:           client,
		gateway:          fake,
		stopStorage:      stopStorage,
		stopRouteStorage: stopRouteStorage,
	}
}
