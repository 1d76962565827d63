// Package weatherbit provides a Go client library for the Weatherbit v2.0 API.
//
// The client is configured through validating setters, then one of three call
// operations assembles the request URL, performs a single GET and decodes the
// JSON object into a generic map. The payload is returned as is; no fields are
// extracted.
//
// Basic Usage:
//
//	client := weatherbit.NewClient()
//
//	if err := client.SetKey("your-api-key"); err != nil {
//		log.Fatal(err)
//	}
//	if err := client.SetLocationByCity("Paris", "FR"); err != nil {
//		log.Fatal(err)
//	}
//
//	forecast, err := client.GetDailyForecast(ctx, 7)
//	if err != nil {
//		log.Fatalf("%s: %v", weatherbit.KindOf(err), err)
//	}
//	fmt.Println(client.URL(), forecast["city_name"])
//
// API Endpoints:
//
// - GetDailyForecast(): /forecast/daily, 1 to 16 days
// - GetCurrent(): /current
// - GetUsage(): /subscription/usage, location is cleared
//
// Errors can be classified with errors.Is against the Err* sentinels or with
// KindOf. Non-200 responses are reported as *APIError carrying the status code
// and raw body.
//
// For more information about the API, visit: https://www.weatherbit.io/api
package weatherbit
