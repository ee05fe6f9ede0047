package lookup

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/travigo/kmb/pkg/config"
	"github.com/travigo/kmb/pkg/kmb"
	"github.com/travigo/kmb/pkg/model"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slices"
)

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to a YAML config file",
			EnvVars: []string{"KMB_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "language",
			Usage: "en, zh-hant or zh-hans, overrides the config",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "table, json, csv or pretty",
			Value: string(FormatTable),
		},
	}
}

func RegisterCLI() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "routes",
			Usage:     "list the bounds and variants of a route number",
			ArgsUsage: "<route>",
			Action:    routesAction,
		},
		{
			Name:      "stops",
			Usage:     "list the stops of a variant",
			ArgsUsage: "<route> <bound> <serviceType>",
			Action:    stopsAction,
		},
		{
			Name:      "stop-routes",
			Usage:     "list the routes calling at a stop",
			ArgsUsage: "<stopId>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "all-variants",
					Usage: "include every variant, not only the main service of each route bound",
				},
			},
			Action: stopRoutesAction,
		},
		{
			Name:      "eta",
			Usage:     "list the next arrivals of a variant at a stop",
			ArgsUsage: "<route> <bound> <serviceType> <sequence>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "method",
					Usage: "GET or POST, overrides the config",
				},
				&cli.IntFlag{
					Name:  "retries",
					Usage: "attempts after the first failed one, overrides the config",
					Value: -1,
				},
			},
			Action: etaAction,
		},
		{
			Name:  "cache",
			Usage: "manage stored stop names and stop routes",
			Subcommands: []*cli.Command{
				{
					Name:  "clear",
					Usage: "remove everything stored",
					Action: func(c *cli.Context) error {
						client, _, err := setup(c)
						if err != nil {
							return err
						}

						if err := client.ClearCache(c.Context); err != nil {
							return err
						}

						log.Info().Msg("Cache cleared")
						return nil
					},
				},
			},
		},
	}
}

func setup(c *cli.Context) (*kmb.Client, config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, config.Config{}, err
	}

	if language := c.String("language"); language != "" {
		cfg.Language = language
	}

	if err := cfg.Validate(); err != nil {
		return nil, config.Config{}, err
	}

	client, err := NewClient(c.Context, cfg)
	if err != nil {
		return nil, config.Config{}, err
	}

	return client, cfg, nil
}

func output(c *cli.Context, detail any, rows any) error {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	return Write(c.App.Writer, format, detail, rows)
}

func intArg(c *cli.Context, index int, name string) (int, error) {
	n, err := strconv.Atoi(c.Args().Get(index))
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", name, err)
	}

	return n, nil
}

func requireArgs(c *cli.Context, count int) error {
	if c.NArg() != count {
		return fmt.Errorf("expected %d arguments, usage: %s %s", count, c.Command.Name, c.Command.ArgsUsage)
	}

	return nil
}

type variantRow struct {
	Route       string `csv:"route"`
	Bound       int    `csv:"bound"`
	ServiceType int    `csv:"serviceType"`
	Origin      string `csv:"origin"`
	Destination string `csv:"destination"`
	Description string `csv:"description"`
}

func routesAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}

	client, _, err := setup(c)
	if err != nil {
		return err
	}

	routes, err := client.GetRoutes(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	slices.SortFunc(routes, model.CompareRoutes)

	variants := []model.Variant{}
	rows := []variantRow{}
	for _, route := range routes {
		routeVariants, err := client.GetVariants(c.Context, route)
		if err != nil {
			return err
		}

		for _, variant := range routeVariants {
			variants = append(variants, variant)
			rows = append(rows, variantRow{
				Route:       variant.Route.Number,
				Bound:       variant.Route.Bound,
				ServiceType: variant.ServiceType,
				Origin:      variant.Origin,
				Destination: variant.Destination,
				Description: variant.Description,
			})
		}
	}

	return output(c, variants, rows)
}

type stopRow struct {
	Sequence  int    `csv:"sequence"`
	ID        string `csv:"id"`
	Name      string `csv:"name"`
	Direction string `csv:"direction"`
}

func stopsAction(c *cli.Context) error {
	if err := requireArgs(c, 3); err != nil {
		return err
	}

	bound, err := intArg(c, 1, "bound")
	if err != nil {
		return err
	}
	serviceType, err := intArg(c, 2, "serviceType")
	if err != nil {
		return err
	}

	client, _, err := setup(c)
	if err != nil {
		return err
	}

	variant := model.Variant{
		Route:       model.RouteID{Number: c.Args().First(), Bound: bound},
		ServiceType: serviceType,
	}

	stops, err := client.GetStops(c.Context, variant)
	if err != nil {
		return err
	}

	rows := make([]stopRow, 0, len(stops))
	for _, stop := range stops {
		rows = append(rows, stopRow{
			Sequence:  stop.Sequence,
			ID:        stop.ID,
			Name:      stop.Name,
			Direction: stop.RouteDirection,
		})
	}

	return output(c, stops, rows)
}

type stopRouteRow struct {
	Route       string `csv:"route"`
	ServiceType int    `csv:"serviceType"`
	Sequence    int    `csv:"sequence"`
	StopID      string `csv:"stopId"`
	StopName    string `csv:"stopName"`
	Direction   string `csv:"direction"`
}

func stopRoutesAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}

	client, _, err := setup(c)
	if err != nil {
		return err
	}

	progress := func(remaining int) {
		log.Debug().Int("remaining", remaining).Msg("Looking up routes at stop")
	}

	groups, err := client.GetStopRoutes(c.Context, model.Incomplete(c.Args().First()), c.Bool("all-variants"), progress)
	if err != nil {
		return err
	}

	rows := []stopRouteRow{}
	for _, stopRoute := range groups.All() {
		rows = append(rows, stopRouteRow{
			Route:       stopRoute.Variant.Route.RouteBound(),
			ServiceType: stopRoute.Variant.ServiceType,
			Sequence:    stopRoute.Sequence,
			StopID:      stopRoute.Stop.ID,
			StopName:    stopRoute.Stop.Name,
			Direction:   stopRoute.Variant.OriginDestination(),
		})
	}

	return output(c, groups, rows)
}

type etaRow struct {
	Time     string `csv:"time"`
	Distance string `csv:"distance"`
	Remark   string `csv:"remark"`
	RealTime bool   `csv:"realTime"`
}

func etaAction(c *cli.Context) error {
	if err := requireArgs(c, 4); err != nil {
		return err
	}

	bound, err := intArg(c, 1, "bound")
	if err != nil {
		return err
	}
	serviceType, err := intArg(c, 2, "serviceType")
	if err != nil {
		return err
	}
	sequence, err := intArg(c, 3, "sequence")
	if err != nil {
		return err
	}

	client, cfg, err := setup(c)
	if err != nil {
		return err
	}

	method := kmb.EtaMethod(cfg.Eta.Method)
	if c.String("method") != "" {
		method = kmb.EtaMethod(c.String("method"))
	}

	retries := cfg.Eta.Retries
	if c.Int("retries") >= 0 {
		retries = c.Int("retries")
	}

	stopRoute := model.StopRoute{
		Variant: model.Variant{
			Route:       model.RouteID{Number: c.Args().First(), Bound: bound},
			ServiceType: serviceType,
		},
		Sequence: sequence,
	}

	etas, err := client.GetEtas(c.Context, stopRoute, retries, method)
	if err != nil {
		return err
	}
	model.SortEtas(etas)

	rows := make([]etaRow, 0, len(etas))
	for _, eta := range etas {
		row := etaRow{
			Time:     eta.Time.Format("15:04"),
			Remark:   eta.Remark,
			RealTime: eta.RealTime,
		}
		if eta.Distance != nil {
			row.Distance = strconv.FormatFloat(*eta.Distance, 'f', -1, 64)
		}

		rows = append(rows, row)
	}

	return output(c, etas, rows)
}
