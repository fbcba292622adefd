package schedule

import "time"

// windowsZoneAliases maps Windows-style zone names that mentors configured on
// older clients to their IANA equivalents.
var windowsZoneAliases = map[string]string{
	"Turkey Standard Time":       "Europe/Istanbul",
	"GTB Standard Time":          "Europe/Bucharest",
	"W. Europe Standard Time":    "Europe/Berlin",
	"Central Europe Standard Time": "Europe/Budapest",
	"Romance Standard Time":      "Europe/Paris",
	"GMT Standard Time":          "Europe/London",
	"Russian Standard Time":      "Europe/Moscow",
	"Arabian Standard Time":      "Asia/Dubai",
	"Eastern Standard Time":      "America/New_York",
	"Central Standard Time":      "America/Chicago",
	"Pacific Standard Time":      "America/Los_Angeles",
	"Tokyo Standard Time":        "Asia/Tokyo",
	"China Standard Time":        "Asia/Shanghai",
	"India Standard Time":        "Asia/Kolkata",
}

// fallbackZone stands in when a configured zone id resolves nowhere. UTC+3 is
// the platform's primary market offset; defaulting to UTC instead would shift
// every generated slot by hours.
var fallbackZone = time.FixedZone("UTC+3", 3*60*60)

// ResolveLocation resolves a mentor-configured zone id through the fallback
// chain: IANA id, Windows alias, synthetic fixed-offset zone.
func ResolveLocation(zoneID string) *time.Location {
	if zoneID != "" {
		if loc, err := time.LoadLocation(zoneID); err == nil {
			return loc
		}
		if iana, ok := windowsZoneAliases[zoneID]; ok {
			if loc, err := time.LoadLocation(iana); err == nil {
				return loc
			}
		}
	}
	return fallbackZone
}
