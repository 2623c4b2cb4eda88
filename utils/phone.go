package utils

import (
	"os"
	"strings"

	"github.com/ttacon/libphonenumber"
)

func defaultPhoneRegion() string {
	if region := strings.TrimSpace(os.Getenv("PHONE_REGION")); region != "" {
		return region
	}
	return "AE"
}

// NormalizePhoneNumber formats a free-form phone number as E.164 when it
// parses as a valid number for the configured region. Anything else is kept
// verbatim; remote vendor records carry arbitrary text here.
func NormalizePhoneNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	p, err := libphonenumber.Parse(raw, defaultPhoneRegion())
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return raw
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}
