package kmb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/liip/sheriff"
	"github.com/travigo/kmb/pkg/model"
)

// encodeStopRoutes stores stop routes as a flat list without stop names, those live in the stop storage
func encodeStopRoutes(stopRoutes []model.StopRoute) (string, error) {
	reduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"cache"},
	}, stopRoutes)
	if err != nil {
		return "", err
	}

	encoded, err := json.Marshal(reduced)
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

func (c *Client) decodeStopRoutes(ctx context.Context, encoded string) (model.StopRouteGroups, error) {
	var stopRoutes []model.StopRoute
	if err := json.Unmarshal([]byte(encoded), &stopRoutes); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCacheCorruption, err)
	}

	names := map[string]string{}
	for i := range stopRoutes {
		id := stopRoutes[i].Stop.ID

		name, known := names[id]
		if !known {
			var exists bool
			var err error
			name, exists, err = c.StopName(ctx, id)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, fmt.Errorf("%w: no name stored for stop %s", ErrCacheCorruption, id)
			}
			names[id] = name
		}

		stopRoutes[i].Stop.Name = name
	}

	return model.GroupStopRoutes(stopRoutes), nil
}
