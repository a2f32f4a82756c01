package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/lox/weatherdash/internal/dashboard"
	"github.com/lox/weatherdash/internal/fetch"
	"github.com/lox/weatherdash/internal/geolocate"
	"github.com/lox/weatherdash/internal/store"
	"github.com/lox/weatherdash/internal/weatherapi"
)

type CLI struct {
	EnvFile string `name:"env-file" default:".env" help:"Path to .env file loaded before flags are resolved."`

	APIKey           string        `name:"api-key" env:"WEATHER_API_KEY" help:"WeatherAPI.com API key."`
	BaseURL          string        `name:"base-url" env:"WEATHER_API_BASE_URL" default:"https://api.weatherapi.com/v1" help:"WeatherAPI.com base URL."`
	DB               string        `name:"db" env:"WEATHERDASH_DB" default:"data/weatherdash.db" help:"Path to SQLite database."`
	Rate             float64       `name:"rate" env:"WEATHER_API_RATE" default:"2" help:"Max API requests per second (0 = unlimited)."`
	Burst            int           `name:"burst" env:"WEATHER_API_BURST" default:"4" help:"API request burst size."`
	BreakerCooldown  time.Duration `name:"breaker-cooldown" env:"WEATHER_API_BREAKER_COOLDOWN" default:"30s" help:"How long to stop calling the API after repeated failures."`
	CacheTTL         time.Duration `name:"cache-ttl" env:"WEATHERDASH_CACHE_TTL" default:"0s" help:"Reuse fetched snapshots for this long (0 disables)."`
	RememberSearches bool          `name:"remember-searches" env:"WEATHERDASH_REMEMBER_SEARCHES" help:"Save successfully searched locations."`
	Position         string        `name:"position" env:"WEATHERDASH_POSITION" placeholder:"LAT,LON" help:"Fixed position used instead of IP geolocation."`
	IPLookupURL      string        `name:"ip-lookup-url" default:"http://ip-api.com/json/" help:"IP geolocation endpoint."`

	Serve     ServeCmd     `cmd:"" help:"Run the web dashboard."`
	Show      ShowCmd      `cmd:"" help:"Fetch weather once and print it."`
	Watch     WatchCmd     `cmd:"" help:"Print weather for a location and keep refreshing it."`
	Locations LocationsCmd `cmd:"" help:"Manage saved locations."`
	Fetches   FetchesCmd   `cmd:"" help:"Show the fetch audit log."`
}

func main() {
	if err := loadEnvFile(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "weatherdash: %v\n", err)
		os.Exit(1)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("weatherdash"),
		kong.Description("Current conditions and 7-day forecasts from WeatherAPI.com."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}

// loadEnvFile loads --env-file (default .env) into the environment so that
// env-backed flags see it. Existing variables win. A missing default file
// is not an error; a missing explicit one is.
func loadEnvFile(args []string) error {
	path, explicit := ".env", false
	for i, arg := range args {
		if v, ok := strings.CutPrefix(arg, "--env-file="); ok {
			path, explicit = v, true
			break
		}
		if arg == "--env-file" && i+1 < len(args) {
			path, explicit = args[i+1], true
			break
		}
	}

	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *CLI) openStore() (*store.Store, func(), error) {
	if dir := filepath.Dir(c.DB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", c.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return st, func() { db.Close() }, nil
}

func (c *CLI) newController(st *store.Store) (*dashboard.Controller, error) {
	if c.APIKey == "" {
		return nil, errors.New("WEATHER_API_KEY (or --api-key) is required")
	}

	client := weatherapi.NewClient(c.APIKey,
		weatherapi.WithBaseURL(c.BaseURL),
		weatherapi.WithRateLimit(c.Rate, c.Burst),
		weatherapi.WithBreakerTimeout(c.BreakerCooldown),
	)
	var fetcher fetch.Interface = fetch.New(client)
	if c.CacheTTL > 0 {
		fetcher = fetch.NewCache(fetcher, c.CacheTTL)
	}

	locator, err := c.locator()
	if err != nil {
		return nil, err
	}

	return dashboard.New(fetcher, dashboard.Options{
		Store:            st,
		Recorder:         st,
		Locator:          locator,
		RememberSearches: c.RememberSearches,
	}), nil
}

func (c *CLI) locator() (geolocate.Locator, error) {
	if c.Position == "" {
		return geolocate.NewIPLocator(c.IPLookupURL), nil
	}
	latText, lonText, ok := strings.Cut(c.Position, ",")
	if !ok {
		return nil, fmt.Errorf("--position must be LAT,LON, got %q", c.Position)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return nil, fmt.Errorf("--position latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		return nil, fmt.Errorf("--position longitude: %w", err)
	}
	return geolocate.StaticLocator{Position: geolocate.Position{Lat: lat, Lon: lon}}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// loadTarget points ctrl at what the user asked for: a search query, a saved
// location id, or the initial location when neither is given.
func loadTarget(ctx context.Context, ctrl *dashboard.Controller, st *store.Store, query, id string) error {
	switch {
	case id != "":
		locs, err := st.LoadLocations()
		if err != nil {
			return err
		}
		for _, l := range locs {
			if l.ID != id {
				continue
			}
			if l.ID == store.CurrentPlaceholderID {
				return ctrl.Locate(ctx)
			}
			ctrl.Select(ctx, l)
			return nil
		}
		return fmt.Errorf("no saved location with id %q", id)
	case query != "":
		return ctrl.Search(ctx, query)
	default:
		ctrl.Mount(ctx)
		return nil
	}
}
