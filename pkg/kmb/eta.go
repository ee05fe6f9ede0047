package kmb

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/travigo/kmb/pkg/gateway"
	"github.com/travigo/kmb/pkg/model"
	"github.com/travigo/kmb/pkg/secret"
	"github.com/travigo/kmb/pkg/util"
)

const DefaultEtaRetries = 5

// Arrival times are given as time of day only. One further in the past than etaLookBehind
// belongs to the next day, one further in the future than etaLookAhead to the previous day.
const (
	etaLookBehind = 2 * time.Hour
	etaLookAhead  = 6 * time.Hour
)

type EtaMethod string

const (
	EtaMethodGet  EtaMethod = "GET"
	EtaMethodPost EtaMethod = "POST"
)

// EtaFetcher makes a single signed ETA request
type EtaFetcher func(ctx context.Context, stopRoute model.StopRoute) ([]gateway.EtaRecord, error)

var etaTimePattern = regexp.MustCompile(`^(\d\d):(\d\d)`)

func (c *Client) GetEtas(ctx context.Context, stopRoute model.StopRoute, retries int, method EtaMethod) ([]model.Eta, error) {
	fetcher, err := c.EtaFetcher(method)
	if err != nil {
		return nil, err
	}

	return c.GetEtasWithFetcher(ctx, stopRoute, retries, fetcher)
}

func (c *Client) EtaFetcher(method EtaMethod) (EtaFetcher, error) {
	switch method {
	case EtaMethodGet, "":
		return c.getEtaRecords, nil
	case EtaMethodPost:
		return c.postEtaRecords, nil
	}

	return nil, fmt.Errorf("unknown ETA method %q", method)
}

// GetEtasWithFetcher runs the fetcher until it succeeds, at most retries+1 times in a row.
// When every attempt fails the error of the last one is returned.
func (c *Client) GetEtasWithFetcher(ctx context.Context, stopRoute model.StopRoute, retries int, fetcher EtaFetcher) ([]model.Eta, error) {
	if retries < 0 {
		retries = 0
	}

	logger := log.With().
		Str("lookup", uuid.NewString()).
		Str("route", stopRoute.Variant.Route.RouteBound()).
		Int("serviceType", stopRoute.Variant.ServiceType).
		Int("sequence", stopRoute.Sequence).
		Logger()

	attempts := 0
	operation := func() ([]gateway.EtaRecord, error) {
		attempts++
		return fetcher(ctx, stopRoute)
	}
	notify := func(err error, _ time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempts).Msg("ETA request failed, retrying")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(retries)), ctx)

	records, err := backoff.RetryNotifyWithData(operation, policy, notify)
	if err != nil {
		logger.Warn().Err(err).Int("attempts", attempts).Msg("Giving up on ETA request")
		return nil, err
	}

	etas := parseEtas(stopRoute, records, c.now())

	logger.Debug().Int("records", len(records)).Int("etas", len(etas)).Msg("Fetched ETAs")

	return etas, nil
}

// etaQuery signs the current time and builds the query of an ETA request, in the order the endpoint expects
func (c *Client) etaQuery(stopRoute model.StopRoute) (gateway.Query, secret.Secret) {
	token := secret.GetSecret(c.now().UTC().Format("2006-01-02T15:04:05Z"))

	query := gateway.Query{}.
		Add("lang", c.language.etaLanguage()).
		Add("route", stopRoute.Variant.Route.Number).
		Add("bound", strconv.Itoa(stopRoute.Variant.Route.Bound)).
		Add("stop_seq", strconv.Itoa(stopRoute.Sequence)).
		Add("service_type", strconv.Itoa(stopRoute.Variant.ServiceType)).
		Add("vendor_id", secret.VendorID).
		Add("apiKey", token.APIKey).
		Add("ctr", strconv.Itoa(token.Ctr))

	return query, token
}

func (c *Client) getEtaRecords(ctx context.Context, stopRoute model.StopRoute) ([]gateway.EtaRecord, error) {
	query, _ := c.etaQuery(stopRoute)

	return c.gateway.GetEta(ctx, query)
}

// postEtaRecords encrypts the whole query a second time with the counter of the first pass
func (c *Client) postEtaRecords(ctx context.Context, stopRoute model.StopRoute) ([]gateway.EtaRecord, error) {
	query, token := c.etaQuery(stopRoute)
	encrypted := secret.GetSecret("?"+query.Encode(), token.Ctr)

	return c.gateway.PostEta(ctx, encrypted.APIKey, encrypted.Ctr)
}

func parseEtas(stopRoute model.StopRoute, records []gateway.EtaRecord, now time.Time) []model.Eta {
	etas := []model.Eta{}

	for _, record := range records {
		match := etaTimePattern.FindStringSubmatch(record.Time)
		if match == nil {
			continue
		}

		hour, _ := strconv.Atoi(match[1])
		minute, _ := strconv.Atoi(match[2])
		timeOfDay := time.Date(0, 1, 1, hour, minute, 0, 0, now.Location())

		eta := model.Eta{
			StopRoute: stopRoute,
			Time:      util.ClosestDateForTime(now, timeOfDay, etaLookBehind, etaLookAhead),
			Remark:    strings.TrimSpace(record.Time[len(match[0]):]),
		}

		if distance, ok := record.Distance.(float64); ok {
			eta.Distance = &distance
			eta.RealTime = true
		}

		etas = append(etas, eta)
	}

	return etas
}
