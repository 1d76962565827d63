// Package main provides an example of using the weatherbit client to fetch weather data.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/devskill-org/weatherbit/weatherbit"
)

func main() {
	client := weatherbit.NewClient()

	if err := client.SetKey(os.Getenv("WEATHERBIT_API_KEY")); err != nil {
		log.Fatalf("Set WEATHERBIT_API_KEY: %v", err)
	}

	// Riga, Latvia
	if err := client.SetLocationByLatLon("56.9496", "24.1052"); err != nil {
		log.Fatalf("Invalid location: %v", err)
	}
	if err := client.SetUnits("M"); err != nil {
		log.Fatalf("Invalid units: %v", err)
	}

	ctx := context.Background()

	forecast, err := client.GetDailyForecast(ctx, 3)
	fmt.Printf("API Call URL: %s\n", client.URL())
	if err != nil {
		var apiErr *weatherbit.APIError
		switch {
		case errors.As(err, &apiErr):
			log.Fatalf("API error %d: %s", apiErr.StatusCode, apiErr.Body)
		default:
			log.Fatalf("%s: %v", weatherbit.KindOf(err), err)
		}
	}

	fmt.Printf("City: %v\n", forecast["city_name"])
	if days, ok := forecast["data"].([]any); ok {
		for _, d := range days {
			day, ok := d.(map[string]any)
			if !ok {
				continue
			}
			fmt.Printf("  %v: %v°C - %v°C\n", day["valid_date"], day["min_temp"], day["max_temp"])
		}
	}

	// Usage is account scoped; the location set above is dropped.
	usage, err := client.GetUsage(ctx)
	if err != nil {
		log.Fatalf("%s: %v", weatherbit.KindOf(err), err)
	}
	fmt.Printf("\nCalls remaining: %v\n", usage["calls_remaining"])
}
