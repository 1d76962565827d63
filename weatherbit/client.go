package weatherbit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

const (
	// Version of this wrapper, reported in the User-Agent header
	Version = "2.1.1"

	// UserAgent is sent with every API request
	UserAgent = "WeatherbitApiWrapper/" + Version

	// DefaultBaseURL is the Weatherbit API endpoint prefix
	DefaultBaseURL = "https://api.weatherbit.io/v2.0"

	PathForecastDaily = "/forecast/daily"
	PathCurrent       = "/current"
	PathUsage         = "/subscription/usage"

	DefaultForecastDays = 10
	MinForecastDays     = 1
	MaxForecastDays     = 16
)

// param is a single name/value pair of the query string
type param struct {
	name  string
	value string
}

// Client represents a client for the Weatherbit v2.0 API.
//
// A Client holds mutable configuration and the last request URL. It is not
// safe for concurrent use; callers sharing one must synchronize access.
type Client struct {
	http    *resty.Client
	baseURL string

	key      string
	language string
	units    string
	location []param
	url      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client used for requests
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = newTransport(httpClient)
	}
}

// WithBaseURL overrides the API endpoint prefix (useful for testing)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates a new client for the Weatherbit API
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:    newTransport(nil),
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newTransport(httpClient *http.Client) *resty.Client {
	var r *resty.Client
	if httpClient != nil {
		r = resty.NewWithClient(httpClient)
	} else {
		r = resty.New()
	}
	return r.
		SetLogger(quietLogger{}).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "application/json")
}

// quietLogger keeps resty from writing to stderr; errors reach the caller instead
type quietLogger struct{}

func (quietLogger) Errorf(string, ...interface{}) {}
func (quietLogger) Warnf(string, ...interface{}) {}
func (quietLogger) Debugf(string, ...interface{}) {}

// SetBaseURL sets the base URL for the API (useful for testing)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// SetKey sets the Weatherbit API access key
func (c *Client) SetKey(key string) error {
	if key == "" {
		return &ValidationError{Field: "key", Message: "missing API key"}
	}
	c.key = key
	return nil
}

// SetLanguage sets the 2 letter language code of the response
func (c *Client) SetLanguage(code string) error {
	if utf8.RuneCountInString(code) != 2 {
		return &ValidationError{Field: "lang", Message: "invalid language code " + strconv.Quote(code)}
	}
	c.language = code
	return nil
}

// SetUnits sets the response units: M (metric), S (scientific) or I (imperial)
func (c *Client) SetUnits(code string) error {
	switch code {
	case "M", "S", "I":
		c.units = code
		return nil
	default:
		return &ValidationError{Field: "units", Message: "invalid units " + strconv.Quote(code) + ", use M, S or I"}
	}
}

// SetLocationByLatLon selects a location by latitude and longitude
func (c *Client) SetLocationByLatLon(lat, lon string) error {
	if lat == "" || lon == "" {
		return &ValidationError{Field: "lat/lon", Message: "missing latitude and/or longitude"}
	}
	c.location = []param{{"lat", lat}, {"lon", lon}}
	return nil
}

// SetLocationByCity selects a location by city name, optionally narrowed by a
// 2 letter country code. An empty country is omitted from the request.
func (c *Client) SetLocationByCity(city, country string) error {
	if city == "" {
		return &ValidationError{Field: "city", Message: "missing city"}
	}
	if country != "" && utf8.RuneCountInString(country) != 2 {
		return &ValidationError{Field: "country", Message: "invalid country code " + strconv.Quote(country)}
	}
	loc := []param{{"city", city}}
	if country != "" {
		loc = append(loc, param{"country", country})
	}
	c.location = loc
	return nil
}

// SetLocationByCityID selects a location by Weatherbit city ID
func (c *Client) SetLocationByCityID(id string) error {
	return c.setSingleLocation("city_id", id)
}

// SetLocationByCityIDs selects a list of cities by ID
func (c *Client) SetLocationByCityIDs(ids []string) error {
	return c.setListLocation("cities", ids)
}

// SetLocationByPostalCode selects a location by postal code
func (c *Client) SetLocationByPostalCode(code string) error {
	return c.setSingleLocation("postal_code", code)
}

// SetLocationByIP selects a location by IP address. An empty address means
// "auto", letting the API geolocate the caller.
func (c *Client) SetLocationByIP(ip string) error {
	if ip == "" {
		ip = "auto"
	}
	return c.setSingleLocation("ip", ip)
}

// SetLocationByStation selects a location by weather station ID
func (c *Client) SetLocationByStation(id string) error {
	return c.setSingleLocation("station", id)
}

// SetLocationByStations selects a list of weather stations
func (c *Client) SetLocationByStations(ids []string) error {
	return c.setListLocation("stations", ids)
}

func (c *Client) setSingleLocation(name, value string) error {
	if value == "" {
		return &ValidationError{Field: name, Message: "missing value"}
	}
	c.location = []param{{name, value}}
	return nil
}

func (c *Client) setListLocation(name string, values []string) error {
	if len(values) == 0 {
		return &ValidationError{Field: name, Message: "empty list"}
	}
	for i, v := range values {
		if v == "" {
			return &ValidationError{Field: name, Message: "empty value at index " + strconv.Itoa(i)}
		}
	}
	c.location = []param{{name, strings.Join(values, ",")}}
	return nil
}

// GetDailyForecast retrieves a daily forecast for 1 to 16 days
func (c *Client) GetDailyForecast(ctx context.Context, days int) (map[string]any, error) {
	if days < MinForecastDays || days > MaxForecastDays {
		return nil, &ValidationError{Field: "days", Message: "forecast days must be between 1 and 16, got " + strconv.Itoa(days)}
	}
	if err := c.buildURL(PathForecastDaily, param{"days", strconv.Itoa(days)}); err != nil {
		return nil, err
	}
	return c.get(ctx)
}

// GetCurrent retrieves the current observation for the configured location
func (c *Client) GetCurrent(ctx context.Context) (map[string]any, error) {
	if err := c.buildURL(PathCurrent); err != nil {
		return nil, err
	}
	return c.get(ctx)
}

// GetUsage retrieves the API usage summary for the configured key.
//
// Usage is account scoped, so the configured location is discarded and stays
// cleared for later calls on this Client.
func (c *Client) GetUsage(ctx context.Context) (map[string]any, error) {
	c.location = nil
	if err := c.buildURL(PathUsage); err != nil {
		return nil, err
	}
	return c.get(ctx)
}

// URL returns the most recently assembled request URL, or "" before the first call
func (c *Client) URL() string {
	return c.url
}

// buildURL assembles the request URL. Parameter order is significant and
// must not change: key, lang, units, location, then extra.
func (c *Client) buildURL(path string, extra ...param) error {
	if c.key == "" {
		return ErrMissingKey
	}

	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString(path)
	b.WriteString("?key=")
	b.WriteString(url.QueryEscape(c.key))

	if c.language != "" {
		writeParam(&b, param{"lang", c.language})
	}
	if c.units != "" {
		writeParam(&b, param{"units", c.units})
	}
	for _, p := range c.location {
		writeParam(&b, p)
	}
	for _, p := range extra {
		writeParam(&b, p)
	}

	c.url = b.String()
	return nil
}

func writeParam(b *strings.Builder, p param) {
	if p.value == "" {
		return
	}
	b.WriteByte('&')
	b.WriteString(p.name)
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(p.value))
}

// get performs the request for the assembled URL and decodes the response
func (c *Client) get(ctx context.Context) (map[string]any, error) {
	if c.url == "" {
		return nil, ErrMissingURL
	}

	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.url)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redactedPath(urlErr.URL)
		}
		return nil, &NetworkError{Operation: "GET " + redactedPath(c.url), Err: err}
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Body:       string(body),
		}
	}

	if len(body) == 0 {
		return nil, ErrEmptyResponse
	}

	// Parser errors are deliberately dropped; every malformed or non-object
	// body is reported as ErrDecodeFailure.
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil || data == nil {
		return nil, ErrDecodeFailure
	}

	return data, nil
}

// redactedPath strips the query string so the key never ends up in an error message
func redactedPath(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
