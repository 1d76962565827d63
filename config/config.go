// Package config loads the settings the weatherbit CLI passes to the API client.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devskill-org/weatherbit/weatherbit"
)

// Location modes, as reported by Location.Mode
const (
	ModeLatLon     = "lat/lon"
	ModeCity       = "city"
	ModeCityID     = "city_id"
	ModeCityIDs    = "city_ids"
	ModePostalCode = "postal_code"
	ModeIP         = "ip"
	ModeStation    = "station"
	ModeStations   = "stations"
)

// Config represents the configuration for the weatherbit CLI
type Config struct {
	// API settings
	APIKey   string `json:"api_key"`            // Weatherbit API access key
	Language string `json:"language,omitempty"` // 2 letter language code, empty = provider default
	Units    string `json:"units,omitempty"`    // M, S or I, empty = provider default
	BaseURL  string `json:"base_url,omitempty"` // Override of the API endpoint prefix

	// Daily forecast length
	ForecastDays int `json:"forecast_days"`

	// Location, at most one mode may be set
	Location Location `json:"location"`

	// Snapshot archive
	PostgresConnString string `json:"postgres_conn_string,omitempty"` // PostgreSQL connection string, empty = disabled
}

// Location holds the raw location values; the client validates them
type Location struct {
	Latitude   string   `json:"lat,omitempty"`
	Longitude  string   `json:"lon,omitempty"`
	City       string   `json:"city,omitempty"`
	Country    string   `json:"country,omitempty"` // only used together with City
	CityID     string   `json:"city_id,omitempty"`
	CityIDs    []string `json:"city_ids,omitempty"`
	PostalCode string   `json:"postal_code,omitempty"`
	IP         string   `json:"ip,omitempty"` // "auto" geolocates the caller
	Station    string   `json:"station,omitempty"`
	Stations   []string `json:"stations,omitempty"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      weatherbit.DefaultBaseURL,
		ForecastDays: weatherbit.DefaultForecastDays,
	}
}

// LoadConfig reads a weatherbit config file. Keys missing from the file keep
// their DefaultConfig values.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("weatherbit config: %w", err)
	}

	config, err := LoadConfigFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("weatherbit config %s: %w", filename, err)
	}
	return config, nil
}

// LoadConfigFromReader decodes a single JSON config document. Unknown keys
// are rejected so a misspelled api_key does not silently fall back to the
// environment.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	config := DefaultConfig()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("malformed config: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("malformed config: trailing data after JSON object")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the config to filename. The file holds the API key and
// is created readable by the owner only.
func (c *Config) SaveConfig(filename string) error {
	var buf bytes.Buffer
	if err := c.SaveConfigToWriter(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("weatherbit config: %w", err)
	}
	return nil
}

// SaveConfigToWriter writes the config as indented JSON
func (c *Config) SaveConfigToWriter(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// Validate checks the structure of the configuration. Value rules such as
// code lengths and the forecast range belong to the client and are not
// repeated here.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}

	modes := c.Location.modes()
	if len(modes) > 1 {
		return fmt.Errorf("location must use a single mode, got: %s", strings.Join(modes, ", "))
	}

	if c.Location.Country != "" && c.Location.City == "" {
		return fmt.Errorf("location.country requires location.city")
	}

	return nil
}

// Mode returns the selected location mode, or "" when no location is set
func (l Location) Mode() string {
	if modes := l.modes(); len(modes) > 0 {
		return modes[0]
	}
	return ""
}

func (l Location) modes() []string {
	var modes []string
	if l.Latitude != "" || l.Longitude != "" {
		modes = append(modes, ModeLatLon)
	}
	if l.City != "" {
		modes = append(modes, ModeCity)
	}
	if l.CityID != "" {
		modes = append(modes, ModeCityID)
	}
	if len(l.CityIDs) > 0 {
		modes = append(modes, ModeCityIDs)
	}
	if l.PostalCode != "" {
		modes = append(modes, ModePostalCode)
	}
	if l.IP != "" {
		modes = append(modes, ModeIP)
	}
	if l.Station != "" {
		modes = append(modes, ModeStation)
	}
	if len(l.Stations) > 0 {
		modes = append(modes, ModeStations)
	}
	return modes
}

// Apply passes the configuration to the client through its setters. The
// first error reported by the client is returned unchanged.
func (c *Config) Apply(client *weatherbit.Client) error {
	client.SetBaseURL(c.BaseURL)

	if err := client.SetKey(c.APIKey); err != nil {
		return err
	}
	if c.Language != "" {
		if err := client.SetLanguage(c.Language); err != nil {
			return err
		}
	}
	if c.Units != "" {
		if err := client.SetUnits(c.Units); err != nil {
			return err
		}
	}

	l := c.Location
	switch l.Mode() {
	case ModeLatLon:
		return client.SetLocationByLatLon(l.Latitude, l.Longitude)
	case ModeCity:
		return client.SetLocationByCity(l.City, l.Country)
	case ModeCityID:
		return client.SetLocationByCityID(l.CityID)
	case ModeCityIDs:
		return client.SetLocationByCityIDs(l.CityIDs)
	case ModePostalCode:
		return client.SetLocationByPostalCode(l.PostalCode)
	case ModeIP:
		return client.SetLocationByIP(l.IP)
	case ModeStation:
		return client.SetLocationByStation(l.Station)
	case ModeStations:
		return client.SetLocationByStations(l.Stations)
	}
	return nil
}
