package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devskill-org/weatherbit/weatherbit"
)

// runApp runs the CLI with args and returns what it printed to stdout
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	app := newApp(log.New(io.Discard, "", 0))
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard

	err := app.Run(context.Background(), append([]string{"weatherbit"}, args...))
	return out.String(), err
}

func newAPIServer(t *testing.T, status int, body string) (*httptest.Server, *[]string) {
	t.Helper()
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &queries
}

func TestCurrentCommand(t *testing.T) {
	server, queries := newAPIServer(t, http.StatusOK, `{"count":1}`)

	out, err := runApp(t, "--key", "ABC", "--base-url", server.URL, "--city", "Paris", "--country", "FR", "current")
	require.NoError(t, err)

	assert.Contains(t, out, "API Call URL: "+server.URL+"/current?key=ABC&city=Paris&country=FR\n")
	assert.Contains(t, out, `"count": 1`)
	assert.Equal(t, []string{"/current?key=ABC&city=Paris&country=FR"}, *queries)
}

func TestForecastCommandDays(t *testing.T) {
	server, queries := newAPIServer(t, http.StatusOK, `{"data":[]}`)

	_, err := runApp(t, "--key", "ABC", "--base-url", server.URL, "--city-ids", "100,200,300", "forecast", "--days", "3")
	require.NoError(t, err)

	assert.Equal(t, []string{"/forecast/daily?key=ABC&cities=100%2C200%2C300&days=3"}, *queries)
}

func TestForecastCommandDefaultDays(t *testing.T) {
	server, queries := newAPIServer(t, http.StatusOK, `{}`)

	_, err := runApp(t, "--key", "ABC", "--base-url", server.URL, "forecast")
	require.NoError(t, err)

	assert.Equal(t, []string{"/forecast/daily?key=ABC&days=10"}, *queries)
}

func TestForecastCommandInvalidDays(t *testing.T) {
	server, queries := newAPIServer(t, http.StatusOK, `{}`)

	_, err := runApp(t, "--key", "ABC", "--base-url", server.URL, "forecast", "--days", "17")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "InvalidConfig")
	assert.Empty(t, *queries)
}

func TestForecastCommandHugeDays(t *testing.T) {
	server, queries := newAPIServer(t, http.StatusOK, `{}`)

	// 2^32 + 3 would read as 3 if truncated to 32 bits
	_, err := runApp(t, "--key", "ABC", "--base-url", server.URL, "forecast", "--days", "4294967299")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "InvalidConfig")
	assert.Contains(t, err.Error(), "got 4294967299")
	assert.Empty(t, *queries)
}

func TestForecastDays(t *testing.T) {
	days, err := forecastDays(16)
	require.NoError(t, err)
	assert.Equal(t, 16, days)

	for _, v := range []int64{0, -1, 17, math.MaxInt64} {
		_, err := forecastDays(v)
		assert.ErrorIs(t, err, weatherbit.ErrInvalidConfig, "days=%d", v)
	}
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	for _, limit := range []string{"0", "-5", "4294967297"} {
		_, err := runApp(t, "--archive", "postgres://localhost/none?sslmode=disable", "history", "--limit="+limit)
		require.Error(t, err, "limit=%s", limit)
		assert.Contains(t, err.Error(), "--limit must be between 1 and 1000")
	}
}

func TestUsageCommandIgnoresLocation(t *testing.T) {
	server, queries := newAPIServer(t, http.StatusOK, `{"calls_remaining":10}`)

	_, err := runApp(t, "--key", "ABC", "--base-url", server.URL, "--units", "I", "--lat", "1", "--lon", "2", "usage")
	require.NoError(t, err)

	assert.Equal(t, []string{"/subscription/usage?key=ABC&units=I"}, *queries)
}

func TestCommandReportsErrorKind(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		args     []string
		expected string
	}{
		{"missing key", http.StatusOK, `{}`, []string{"current"}, "InvalidConfig"},
		{"bad units", http.StatusOK, `{}`, []string{"--key", "ABC", "--units", "X", "current"}, "InvalidConfig"},
		{"not found", http.StatusNotFound, "not found", []string{"--key", "ABC", "current"}, "TransportFailure: API error 404: not found"},
		{"not json", http.StatusOK, "not json", []string{"--key", "ABC", "current"}, "DecodeFailure"},
		{"empty", http.StatusOK, "", []string{"--key", "ABC", "current"}, "EmptyResponse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WEATHERBIT_API_KEY", "")
			server, _ := newAPIServer(t, tt.status, tt.body)

			args := append([]string{"--base-url", server.URL}, tt.args...)
			_, err := runApp(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestFailedCallStillPrintsURL(t *testing.T) {
	server, _ := newAPIServer(t, http.StatusForbidden, "bad key")

	out, err := runApp(t, "--key", "ABC", "--base-url", server.URL, "current")
	require.Error(t, err)
	assert.Equal(t, "API Call URL: "+server.URL+"/current?key=ABC\n", out)
}

func TestKeyFromEnvironment(t *testing.T) {
	t.Setenv("WEATHERBIT_API_KEY", "FROMENV")
	server, queries := newAPIServer(t, http.StatusOK, `{}`)

	_, err := runApp(t, "--base-url", server.URL, "current")
	require.NoError(t, err)
	assert.Equal(t, []string{"/current?key=FROMENV"}, *queries)
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	server, queries := newAPIServer(t, http.StatusOK, `{}`)

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"api_key": "FILEKEY", "language": "de", "forecast_days": 5, "location": {"postal_code": "10115"}, "base_url": "` + server.URL + `"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := runApp(t, "--config", path, "forecast")
	require.NoError(t, err)

	_, err = runApp(t, "--config", path, "--lang", "fr", "--station", "KRDU", "forecast", "--days", "2")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/forecast/daily?key=FILEKEY&lang=de&postal_code=10115&days=5",
		"/forecast/daily?key=FILEKEY&lang=fr&station=KRDU&days=2",
	}, *queries)
}

func TestConflictingLocationFlags(t *testing.T) {
	_, err := runApp(t, "--key", "ABC", "--city", "Paris", "--postal-code", "75001", "current")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single mode")
}

func TestHistoryRequiresArchive(t *testing.T) {
	t.Setenv("WEATHERBIT_ARCHIVE_DSN", "")

	_, err := runApp(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history requires --archive")
}

func TestDaylightCommand(t *testing.T) {
	out, err := runApp(t, "--lat", "56.9496", "--lon", "24.1052", "daylight", "--at", "2026-06-21T12:00:00+03:00")
	require.NoError(t, err)

	assert.Contains(t, out, "Sunrise:    2026-06-21T04:")
	assert.Contains(t, out, "Sunset:     2026-06-21T22:")
	assert.Contains(t, out, "Day length: 17h")
}

func TestDaylightRequiresLatLon(t *testing.T) {
	_, err := runApp(t, "--city", "Riga", "daylight")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lat/lon")
}
