package kmb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/kmb/pkg/model"
)

const thisStopID = "YY88-Y-8888-8"

var thisStop = model.Stop{ID: thisStopID, Name: "This Stop", RouteDirection: "1", Sequence: 0}

func stopRouteSummary(groups model.StopRouteGroups) map[string][][2]any {
	summary := map[string][][2]any{}
	for _, group := range groups {
		for _, stopRoute := range group.StopRoutes {
			summary[group.RouteBound] = append(summary[group.RouteBound], [2]any{stopRoute.Stop.ID, stopRoute.Variant.ServiceType})
		}
	}

	return summary
}

func TestGetStopRoutes(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(g *fakeGateway)
		input       model.StopRef
		allVariants bool
		expected    map[string][][2]any
	}{
		{
			name: "simple",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{thisStopID, "THIS STOP"}, fakeStop{"YY88-Y-9999-8", "NEXT STOP"})
			},
			input:    model.Complete(thisStop),
			expected: map[string][][2]any{"1A-1": {{thisStopID, 1}}},
		},
		{
			name: "incomplete stop",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{"YY88-Y-7777-8", "PREVIOUS STOP"}, fakeStop{thisStopID, "THIS STOP"})
			},
			input:    model.Incomplete(thisStopID),
			expected: map[string][][2]any{"1A-1": {{thisStopID, 1}}},
		},
		{
			name: "different stops on the same street with the same name",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{thisStopID, "THIS STOP"})
				g.addVariant("1B", 1, 1, fakeStop{"YY88-Y-8899-8", "THIS STOP"})
			},
			input: model.Incomplete(thisStopID),
			expected: map[string][][2]any{
				"1A-1": {{thisStopID, 1}},
				"1B-1": {{"YY88-Y-8899-8", 1}},
			},
		},
		{
			name: "different names at a terminus",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{"YY88-T-8888-8", "THIS STOP"})
				g.addVariant("1B", 1, 1, fakeStop{"YY88-T-8899-8", "THIS TERMINUS"})
			},
			input: model.Incomplete("YY88-T-8888-8"),
			expected: map[string][][2]any{
				"1A-1": {{"YY88-T-8888-8", 1}},
				"1B-1": {{"YY88-T-8899-8", 1}},
			},
		},
		{
			name: "different names at a terminus from the other pole",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{"YY88-T-8888-8", "THIS STOP"})
				g.addVariant("1B", 1, 1, fakeStop{"YY88-T-8899-8", "THIS TERMINUS"})
			},
			input: model.Incomplete("YY88-T-8899-8"),
			expected: map[string][][2]any{
				"1A-1": {{"YY88-T-8888-8", 1}},
				"1B-1": {{"YY88-T-8899-8", 1}},
			},
		},
		{
			name: "different names away from a terminus",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{thisStopID, "THIS STOP"})
				g.addVariant("1B", 1, 1, fakeStop{"YY88-Y-8899-8", "ANOTHER STOP"})
			},
			input:    model.Incomplete(thisStopID),
			expected: map[string][][2]any{"1A-1": {{thisStopID, 1}}},
		},
		{
			name: "stopping twice at the same pole",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{thisStopID, "THIS STOP"}, fakeStop{"YY88-Y-9999-8", "NEXT STOP"}, fakeStop{thisStopID, "THIS STOP"})
			},
			input:    model.Complete(thisStop),
			expected: map[string][][2]any{"1A-1": {{thisStopID, 1}, {thisStopID, 1}}},
		},
		{
			name: "stopping twice at different poles with the same name",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{thisStopID, "THIS STOP"}, fakeStop{"YY88-Y-8899-8", "THIS STOP"})
			},
			input:    model.Complete(thisStop),
			expected: map[string][][2]any{"1A-1": {{thisStopID, 1}, {"YY88-Y-8899-8", 1}}},
		},
		{
			name: "different street direction",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{thisStopID, "THIS STOP"})
				g.addVariant("1B", 1, 1, fakeStop{"YY88-X-8888-8", "THIS STOP"})
			},
			input:    model.Complete(thisStop),
			expected: map[string][][2]any{"1A-1": {{thisStopID, 1}}},
		},
		{
			name: "different street",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{thisStopID, "THIS STOP"})
				g.addVariant("1B", 1, 1, fakeStop{"ZZ88-Y-8888-8", "THIS STOP"})
			},
			input:    model.Complete(thisStop),
			expected: map[string][][2]any{"1A-1": {{thisStopID, 1}}},
		},
		{
			name: "two variants at the same pole",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 3, fakeStop{thisStopID, "THIS STOP"})
				g.addVariant("1A", 1, 2, fakeStop{thisStopID, "THIS STOP"})
			},
			input:    model.Complete(thisStop),
			expected: map[string][][2]any{"1A-1": {{thisStopID, 2}}},
		},
		{
			name: "two variants at the same pole with all variants",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 3, fakeStop{thisStopID, "THIS STOP"})
				g.addVariant("1A", 1, 2, fakeStop{thisStopID, "THIS STOP"})
			},
			input:       model.Complete(thisStop),
			allVariants: true,
			expected:    map[string][][2]any{"1A-1": {{thisStopID, 3}, {thisStopID, 2}}},
		},
		{
			name: "two variants at different poles",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{thisStopID, "THIS STOP"})
				g.addVariant("1A", 1, 2, fakeStop{"YY88-Y-8899-8", "THIS STOP"})
			},
			input:    model.Complete(thisStop),
			expected: map[string][][2]any{"1A-1": {{thisStopID, 1}}},
		},
		{
			name: "opposite direction",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{thisStopID, "THIS STOP"})
				g.addVariant("1A", 2, 1, fakeStop{"YY88-X-8888-8", "THIS STOP"}, fakeStop{thisStopID, "THIS STOP"})
			},
			input: model.Complete(thisStop),
			expected: map[string][][2]any{
				"1A-1": {{thisStopID, 1}},
				"1A-2": {{thisStopID, 1}},
			},
		},
		{
			name: "two routes",
			setup: func(g *fakeGateway) {
				g.addVariant("1A", 1, 1, fakeStop{thisStopID, "THIS STOP"})
				g.addVariant("1B", 2, 3, fakeStop{"YY88-Y-0000-8", "FIRST STOP"}, fakeStop{"YY88-Y-1111-8", "SECOND STOP"}, fakeStop{"YY88-Y-2222-8", "THIRD STOP"}, fakeStop{"YY88-Y-3333-8", "FOURTH STOP"}, fakeStop{"YY88-Y-4444-8", "FIFTH STOP"}, fakeStop{thisStopID, "THIS STOP"})
			},
			input: model.Complete(thisStop),
			expected: map[string][][2]any{
				"1A-1": {{thisStopID, 1}},
				"1B-2": {{thisStopID, 3}},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, English)
			tc.setup(client.gateway)
			for _, variant := range client.gateway.variants {
				client.gateway.routesInStop[tc.input.ID()] = appendUnique(client.gateway.routesInStop[tc.input.ID()], variant.number)
			}

			groups, err := client.GetStopRoutes(context.Background(), tc.input, tc.allVariants, nil)
			require.NoError(t, err)

			assert.Equal(t, tc.expected, stopRouteSummary(groups))
		})
	}
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}

	return append(list, value)
}

func TestGetStopRoutesSequence(t *testing.T) {
	client := newTestClient(t, English)
	client.gateway.routesInStop[thisStopID] = []string{"1B"}
	client.gateway.addVariant("1B", 2, 3, fakeStop{"YY88-Y-0000-8", "FIRST STOP"}, fakeStop{"YY88-Y-1111-8", "SECOND STOP"}, fakeStop{thisStopID, "THIS STOP"})

	groups, err := client.GetStopRoutes(context.Background(), model.Incomplete(thisStopID), false, nil)
	require.NoError(t, err)

	stopRoutes := groups.Get("1B-2")
	require.Len(t, stopRoutes, 1)
	assert.Equal(t, model.StopRoute{
		Stop: model.Stop{ID: thisStopID, Name: "This Stop", RouteDirection: "2", Sequence: 2},
		Variant: model.Variant{
			Route:       model.RouteID{Number: "1B", Bound: 2},
			ServiceType: 3,
			Origin:      "Tsim Sha Tsui (Circular)",
			Destination: "Sham Shui Po",
		},
		Sequence: 2,
	}, stopRoutes[0])
}

func TestGetStopRoutesKeepsGatewayOrder(t *testing.T) {
	client := newTestClient(t, English)
	client.gateway.routesInStop[thisStopID] = []string{"N260", "1A", "2"}
	client.gateway.delays["N260"] = 50 * time.Millisecond
	client.gateway.addVariant("1A", 1, 1, fakeStop{thisStopID, "THIS STOP"})
	client.gateway.addVariant("2", 2, 1, fakeStop{thisStopID, "THIS STOP"})
	client.gateway.addVariant("N260", 1, 1, fakeStop{thisStopID, "THIS STOP"})
	client.gateway.addVariant("2", 1, 1, fakeStop{thisStopID, "THIS STOP"})

	groups, err := client.GetStopRoutes(context.Background(), model.Incomplete(thisStopID), false, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"N260-1", "1A-1", "2-2", "2-1"}, groups.Keys())
}

func TestGetStopRoutesUsesStorage(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, English)
	client.gateway.routesInStop[thisStopID] = []string{"1A"}
	client.gateway.addVariant("1A", 1, 3, fakeStop{thisStopID, "THIS STOP"})
	client.gateway.addVariant("1A", 1, 2, fakeStop{thisStopID, "THIS STOP"})

	first, err := client.GetStopRoutes(ctx, model.Incomplete(thisStopID), false, nil)
	require.NoError(t, err)
	calls := client.gateway.calls.Load()

	second, err := client.GetStopRoutes(ctx, model.Incomplete(thisStopID), false, nil)
	require.NoError(t, err)
	assert.Equal(t, calls, client.gateway.calls.Load())
	assert.Equal(t, first, second)

	// every variant is stored, the main variant filter runs on the way out
	all, err := client.GetStopRoutes(ctx, model.Complete(thisStop), true, nil)
	require.NoError(t, err)
	assert.Equal(t, calls, client.gateway.calls.Load())
	assert.Len(t, all.Get("1A-1"), 2)
}

func TestGetStopRoutesFromStorage(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, TraditionalChinese)
	client.gateway.err = errors.New("gateway should not be called")

	stopRoutes := []model.StopRoute{
		{
			Stop:     model.Stop{ID: thisStopID, Name: "本站", RouteDirection: "1", Sequence: 0},
			Variant:  model.Variant{Route: model.RouteID{Number: "1A", Bound: 1}, ServiceType: 1, Origin: "尖沙咀", Destination: "深水埗"},
			Sequence: 0,
		},
	}

	encoded, err := encodeStopRoutes(stopRoutes)
	require.NoError(t, err)
	assert.NotContains(t, encoded, "本站")

	require.NoError(t, client.stopRouteStorage.Set(ctx, thisStopID+"_zh-hant", encoded))
	require.NoError(t, client.stopStorage.Set(ctx, thisStopID+"_zh-hant", "本站"))

	groups, err := client.GetStopRoutes(ctx, model.Incomplete(thisStopID), false, nil)
	require.NoError(t, err)
	assert.Equal(t, model.GroupStopRoutes(stopRoutes), groups)
}

func TestGetStopRoutesCacheCorruption(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, English)

	encoded, err := encodeStopRoutes([]model.StopRoute{{Stop: model.Stop{ID: thisStopID}}})
	require.NoError(t, err)
	require.NoError(t, client.stopRouteStorage.Set(ctx, thisStopID+"_en", encoded))

	_, err = client.GetStopRoutes(ctx, model.Incomplete(thisStopID), false, nil)
	assert.ErrorIs(t, err, ErrCacheCorruption)
}

func TestGetStopRoutesNoMatch(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, English)
	client.gateway.routesInStop[thisStopID] = []string{"1A"}
	client.gateway.addVariant("1A", 1, 1, fakeStop{"YY88-Y-9999-8", "ANOTHER STOP"})

	groups, err := client.GetStopRoutes(ctx, model.Incomplete(thisStopID), false, nil)
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, exists, err := client.stopRouteStorage.Get(ctx, thisStopID+"_en")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetStopRoutesGatewayError(t *testing.T) {
	gatewayError := errors.New("connection reset")

	client := newTestClient(t, English)
	client.gateway.err = gatewayError

	_, err := client.GetStopRoutes(context.Background(), model.Incomplete(thisStopID), false, nil)
	assert.ErrorIs(t, err, gatewayError)
}

func TestGetStopRoutesProgress(t *testing.T) {
	client := newTestClient(t, English)
	client.gateway.routesInStop[thisStopID] = []string{"1A", "1B", "2"}
	client.gateway.addVariant("1A", 1, 1, fakeStop{thisStopID, "THIS STOP"})
	client.gateway.addVariant("1B", 1, 1, fakeStop{thisStopID, "THIS STOP"})
	client.gateway.addVariant("2", 1, 1, fakeStop{thisStopID, "THIS STOP"})

	var mutex sync.Mutex
	var reported []int
	progress := func(remaining int) {
		mutex.Lock()
		defer mutex.Unlock()
		reported = append(reported, remaining)
	}

	_, err := client.GetStopRoutes(context.Background(), model.Incomplete(thisStopID), false, progress)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 2, 1, 0}, reported)
}

func TestSamePole(t *testing.T) {
	assert.True(t, samePole(model.Stop{ID: thisStopID, Name: "A"}, model.Stop{ID: thisStopID, Name: "B"}))
	assert.True(t, samePole(model.Stop{ID: "YY88-Y-1-8", Name: "A"}, model.Stop{ID: thisStopID, Name: "A"}))
	assert.False(t, samePole(model.Stop{ID: "YY88-Y-1-8", Name: "B"}, model.Stop{ID: thisStopID, Name: "A"}))
	assert.True(t, samePole(model.Stop{ID: "YY88-T-1-8", Name: "B"}, model.Stop{ID: "YY88-T-8888-8", Name: "A"}))
	assert.False(t, samePole(model.Stop{ID: "YY89-T-1-8", Name: "A"}, model.Stop{ID: "YY88-T-8888-8", Name: "A"}))
}

func TestGetStopRoutesManyRoutesConcurrently(t *testing.T) {
	client := newTestClient(t, English)

	var numbers []string
	for i := 0; i < 40; i++ {
		number := fmt.Sprintf("%d", 100+i)
		numbers = append(numbers, number)

		client.gateway.addVariant(number, 1, 1, fakeStop{"YY88-Y-0000-8", "FIRST STOP"}, fakeStop{thisStopID, "THIS STOP"})
		client.gateway.addVariant(number, 2, 1, fakeStop{thisStopID, "THIS STOP"}, fakeStop{"YY88-Y-9999-8", "LAST STOP"})
	}
	client.gateway.routesInStop[thisStopID] = numbers

	groups, err := client.GetStopRoutes(context.Background(), model.Complete(thisStop), false, nil)
	require.NoError(t, err)
	require.Len(t, groups, 80)

	for i, number := range numbers {
		assert.Equal(t, number+"-1", groups[2*i].RouteBound)
		assert.Equal(t, number+"-2", groups[2*i+1].RouteBound)
	}

	for _, stopRoute := range groups.All() {
		assert.Equal(t, "This Stop", stopRoute.Stop.Name)
		assert.Equal(t, "Tsim Sha Tsui (Circular)", stopRoute.Variant.Origin)
		assert.Equal(t, "Sham Shui Po", stopRoute.Variant.Destination)
	}

	for _, id := range []string{"YY88-Y-0000-8", thisStopID, "YY88-Y-9999-8"} {
		name, exists, err := client.StopName(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.NotEqual(t, "", name)
	}
}
