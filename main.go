// Package main provides the weatherbit command line client.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/devskill-org/weatherbit/archive"
	"github.com/devskill-org/weatherbit/config"
	"github.com/devskill-org/weatherbit/sun"
	"github.com/devskill-org/weatherbit/weatherbit"
)

// Call names, also used as the archive call column
const (
	callForecast = "forecast"
	callCurrent  = "current"
	callUsage    = "usage"
)

const maxHistoryLimit = 1000

// locationFlags select a location mode; any of them replaces the config file location
var locationFlags = []string{"lat", "lon", "city", "country", "city-id", "city-ids", "postal-code", "ip", "station", "stations"}

func main() {
	logger := log.New(os.Stderr, "[WEATHERBIT] ", log.LstdFlags)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := newApp(logger)
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func newApp(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:    "weatherbit",
		Usage:   "Query the Weatherbit v2.0 API",
		Version: weatherbit.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Configuration file path"},
			&cli.StringFlag{Name: "key", Aliases: []string{"k"}, Usage: "Weatherbit API key", Sources: cli.EnvVars("WEATHERBIT_API_KEY")},
			&cli.StringFlag{Name: "lang", Usage: "2 letter response language code"},
			&cli.StringFlag{Name: "units", Usage: "Units: M (metric), S (scientific), I (imperial)"},
			&cli.StringFlag{Name: "lat", Usage: "Latitude"},
			&cli.StringFlag{Name: "lon", Usage: "Longitude"},
			&cli.StringFlag{Name: "city", Usage: "City name"},
			&cli.StringFlag{Name: "country", Usage: "2 letter country code, used with --city"},
			&cli.StringFlag{Name: "city-id", Usage: "Weatherbit city ID"},
			&cli.StringSliceFlag{Name: "city-ids", Usage: "Comma separated Weatherbit city IDs"},
			&cli.StringFlag{Name: "postal-code", Usage: "Postal code"},
			&cli.StringFlag{Name: "ip", Usage: "IP address, or auto"},
			&cli.StringFlag{Name: "station", Usage: "Weather station ID"},
			&cli.StringSliceFlag{Name: "stations", Usage: "Comma separated weather station IDs"},
			&cli.StringFlag{Name: "archive", Usage: "PostgreSQL connection string for the snapshot archive", Sources: cli.EnvVars("WEATHERBIT_ARCHIVE_DSN")},
			&cli.StringFlag{Name: "base-url", Usage: "Override the API endpoint prefix"},
		},
		Commands: []*cli.Command{
			{
				Name:  callForecast,
				Usage: "Daily forecast for 1 to 16 days",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: weatherbit.DefaultForecastDays, Usage: "Number of days to forecast (1-16)"},
				},
				Action: callAction(callForecast, logger),
			},
			{
				Name:   callCurrent,
				Usage:  "Current observation",
				Action: callAction(callCurrent, logger),
			},
			{
				Name:   callUsage,
				Usage:  "API usage summary of the key (ignores the location)",
				Action: callAction(callUsage, logger),
			},
			{
				Name:  "history",
				Usage: "List archived responses",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "call", Usage: "Only show forecast, current or usage snapshots"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 10, Usage: "Maximum number of snapshots"},
					&cli.BoolFlag{Name: "payload", Usage: "Print the archived payloads"},
				},
				Action: historyAction,
			},
			{
				Name:  "daylight",
				Usage: "Sunrise, sunset and sun position for --lat/--lon",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "at", Usage: "Instant in RFC 3339 format (default: now)"},
				},
				Action: daylightAction,
			},
		},
	}
}

// loadConfig reads the optional config file and applies flag overrides
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if cmd.IsSet("key") {
		cfg.APIKey = cmd.String("key")
	}
	if cmd.IsSet("lang") {
		cfg.Language = cmd.String("lang")
	}
	if cmd.IsSet("units") {
		cfg.Units = cmd.String("units")
	}
	if cmd.IsSet("archive") {
		cfg.PostgresConnString = cmd.String("archive")
	}
	if cmd.IsSet("base-url") {
		cfg.BaseURL = cmd.String("base-url")
	}
	if cmd.IsSet("days") {
		days, err := forecastDays(cmd.Int("days"))
		if err != nil {
			return nil, callError(err)
		}
		cfg.ForecastDays = days
	}

	for _, name := range locationFlags {
		if cmd.IsSet(name) {
			cfg.Location = config.Location{
				Latitude:   cmd.String("lat"),
				Longitude:  cmd.String("lon"),
				City:       cmd.String("city"),
				Country:    cmd.String("country"),
				CityID:     cmd.String("city-id"),
				CityIDs:    cmd.StringSlice("city-ids"),
				PostalCode: cmd.String("postal-code"),
				IP:         cmd.String("ip"),
				Station:    cmd.String("station"),
				Stations:   cmd.StringSlice("stations"),
			}
			break
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func callAction(call string, logger *log.Logger) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		out := cmd.Root().Writer
		client := weatherbit.NewClient()
		if err := cfg.Apply(client); err != nil {
			return callError(err)
		}

		var data map[string]any
		switch call {
		case callForecast:
			data, err = client.GetDailyForecast(ctx, cfg.ForecastDays)
		case callCurrent:
			data, err = client.GetCurrent(ctx)
		case callUsage:
			data, err = client.GetUsage(ctx)
		default:
			return fmt.Errorf("invalid call type: %s", call)
		}

		if u := client.URL(); u != "" {
			fmt.Fprintf(out, "API Call URL: %s\n", u)
		}
		if err != nil {
			return callError(err)
		}

		if err := printJSON(out, data); err != nil {
			return err
		}

		if cfg.PostgresConnString != "" {
			archiveSnapshot(ctx, logger, cfg.PostgresConnString, archive.Snapshot{
				Call:      call,
				URL:       client.URL(),
				FetchedAt: time.Now(),
				Payload:   data,
			})
		}
		return nil
	}
}

// archiveSnapshot stores a response; failures are logged and do not fail the call
func archiveSnapshot(ctx context.Context, logger *log.Logger, connString string, snap archive.Snapshot) {
	store, err := archive.Open(connString)
	if err != nil {
		logger.Printf("Archive unavailable: %v", err)
		return
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Printf("Archive unavailable: %v", err)
		return
	}

	id, err := store.Save(ctx, snap)
	if err != nil {
		logger.Printf("Failed to archive %s response: %v", snap.Call, err)
		return
	}
	logger.Printf("Archived %s response as snapshot %d", snap.Call, id)
}

func historyAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.PostgresConnString == "" {
		return fmt.Errorf("history requires --archive or postgres_conn_string")
	}

	limit := cmd.Int("limit")
	if limit < 1 || limit > maxHistoryLimit {
		return fmt.Errorf("--limit must be between 1 and %d, got: %d", maxHistoryLimit, limit)
	}

	store, err := archive.Open(cfg.PostgresConnString)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshots, err := store.Recent(ctx, cmd.String("call"), int(limit))
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if len(snapshots) == 0 {
		fmt.Fprintln(out, "No snapshots found")
		return nil
	}
	for _, snap := range snapshots {
		fmt.Fprintf(out, "#%d  %-8s  %s  %s\n", snap.ID, snap.Call, snap.FetchedAt.Format(time.RFC3339), snap.URL)
		if cmd.Bool("payload") {
			if err := printJSON(out, snap.Payload); err != nil {
				return err
			}
		}
	}
	return nil
}

func daylightAction(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Location.Mode() != config.ModeLatLon {
		return fmt.Errorf("daylight requires a lat/lon location")
	}

	at := time.Now()
	if s := cmd.String("at"); s != "" {
		if at, err = time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	d, err := sun.ForLocation(cfg.Location.Latitude, cfg.Location.Longitude, at)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	loc := at.Location()
	fmt.Fprintf(out, "Sunrise:    %s\n", d.Sunrise.In(loc).Format(time.RFC3339))
	fmt.Fprintf(out, "Solar noon: %s\n", d.SolarNoon.In(loc).Format(time.RFC3339))
	fmt.Fprintf(out, "Sunset:     %s\n", d.Sunset.In(loc).Format(time.RFC3339))
	fmt.Fprintf(out, "Day length: %s\n", d.Length().Round(time.Minute))
	fmt.Fprintf(out, "Altitude:   %.2f°\n", d.Altitude)
	fmt.Fprintf(out, "Azimuth:    %.2f°\n", d.Azimuth)
	return nil
}

// forecastDays narrows the --days flag; the range check happens on the int64
// so an out-of-range value cannot wrap into 1..16
func forecastDays(days int64) (int, error) {
	if days < weatherbit.MinForecastDays || days > weatherbit.MaxForecastDays {
		return 0, &weatherbit.ValidationError{
			Field:   "days",
			Message: fmt.Sprintf("forecast days must be between %d and %d, got %d", weatherbit.MinForecastDays, weatherbit.MaxForecastDays, days),
		}
	}
	return int(days), nil
}

// callError prefixes a client error with its kind
func callError(err error) error {
	return fmt.Errorf("%s: %w", weatherbit.KindOf(err), err)
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}
