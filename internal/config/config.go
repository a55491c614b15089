package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/xyzmos/hass-weather-baidu/internal/setup"
)

// AppConfig holds service-level configuration. Instance configuration
// (API key, location selector, interval) lives in the entry store.
type AppConfig struct {
	Port   string
	DBPath string

	// HTTPTimeout bounds outbound vendor calls at the transport level.
	HTTPTimeout time.Duration

	// Home is the default position offered by the location branch of the
	// setup wizard.
	Home setup.Zone

	// Zones are additional named positions, from ZONES
	// ("Name:lat:lon;Name2:lat:lon").
	Zones []setup.Zone
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}

	cfg := &AppConfig{}
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.DBPath = getenvDefault("DB_PATH", "entries.db")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Home = setup.Zone{
		Name:      "Home",
		Latitude:  getenvFloat("HOME_LATITUDE", 0),
		Longitude: getenvFloat("HOME_LONGITUDE", 0),
	}

	zones, err := parseZones(os.Getenv("ZONES"))
	if err != nil {
		return nil, err
	}
	cfg.Zones = zones

	return cfg, nil
}

// parseZones parses "Name:lat:lon" entries separated by semicolons.
func parseZones(raw string) ([]setup.Zone, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var zones []setup.Zone
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("invalid zone %q: want Name:lat:lon", part)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid zone latitude in %q: %w", part, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid zone longitude in %q: %w", part, err)
		}
		zones = append(zones, setup.Zone{
			Name:      strings.TrimSpace(fields[0]),
			Latitude:  lat,
			Longitude: lon,
		})
	}
	return zones, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
