// Package main provides an example of using sun calculations for sunrise/sunset times.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/devskill-org/weatherbit/sun"
)

func main() {
	// Riga, Latvia
	d, err := sun.ForLocation("56.9496", "24.1052", time.Now())
	if err != nil {
		log.Fatalf("Invalid location: %v", err)
	}

	fmt.Printf("Azimuth: %.2f°, Altitude: %.2f°\n", d.Azimuth, d.Altitude)
	fmt.Println("Sunrise:", d.Sunrise)
	fmt.Println("Sunset:", d.Sunset)
	fmt.Println("Daylight:", d.Length().Round(time.Minute))
}
