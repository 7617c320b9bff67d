package shared

import "strings"

// Platform identifies an external marketplace destination
type Platform string

const (
	PlatformVinted    Platform = "vinted"
	PlatformLeboncoin Platform = "leboncoin"
)

// AllPlatforms returns every supported marketplace
func AllPlatforms() []Platform {
	return []Platform{PlatformVinted, PlatformLeboncoin}
}

// ParsePlatform converts a string to a Platform
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformVinted:
		return PlatformVinted, nil
	case PlatformLeboncoin:
		return PlatformLeboncoin, nil
	default:
		return "", NewDomainError("UNKNOWN_PLATFORM", "Unknown platform: "+s)
	}
}

// String returns the platform identifier
func (p Platform) String() string {
	return string(p)
}

// RequiresCategory reports whether the platform rejects listings without a
// resolved taxonomy leaf. Vinted refuses submissions that lack one, so the
// orchestrator must run the classifier before publishing there.
func (p Platform) RequiresCategory() bool {
	return p == PlatformVinted
}
