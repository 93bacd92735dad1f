package validation

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	// Ugandan MSISDN without the plus: country code 256 followed by
	// nine digits, the only phone shape accounts register with.
	phoneRegex = regexp.MustCompile(`^256[0-9]{9}$`)
)

func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && emailRegex.MatchString(email) && len(email) <= 200
}

func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(strings.TrimSpace(phone))
}

func ValidateName(name string) bool {
	name = strings.TrimSpace(name)
	return len(name) >= 2 && len(name) <= 200
}

func ValidatePassword(password string) bool {
	return len(password) >= 6 && len(password) <= 100
}

// ValidateCoords checks a [lng, lat] (or [lat, lng]) pair is two
// finite-range ordinates.
func ValidateCoords(coords []float64) bool {
	if len(coords) != 2 {
		return false
	}
	for _, c := range coords {
		if c < -180 || c > 180 {
			return false
		}
	}
	return true
}
