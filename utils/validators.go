// File: /utils/validators.go
package utils

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail checks if the email format is valid
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// IsValidPassword checks password requirements (minimum 8 characters)
func IsValidPassword(password string) bool {
	return len(password) >= 8
}

// IsValidLatitude checks if latitude is within valid range
func IsValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// IsValidLongitude checks if longitude is within valid range
func IsValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

// IsValidCoordinate checks both components of a GPS fix
func IsValidCoordinate(lat, lng float64) bool {
	return IsValidLatitude(lat) && IsValidLongitude(lng)
}
