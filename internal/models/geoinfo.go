package models

import (
	"crypto/sha256"
	"encoding/base64"
)

// UnknownGeolocation is stored when an address cannot be resolved.
const UnknownGeolocation = "Not Known"

// GeoInfo is a sighting of a player from an IP address.
// The hash identifies the row; the raw address is kept for display.
type GeoInfo struct {
	IP          string `json:"ip"`
	IPHash      string `json:"ip_hash"`
	Geolocation string `json:"geolocation"`
	LastUsed    int64  `json:"last_used"`
}

// NewGeoInfo builds a record with a computed IP hash.
func NewGeoInfo(ip, geolocation string, lastUsed int64) GeoInfo {
	if geolocation == "" {
		geolocation = UnknownGeolocation
	}

	return GeoInfo{
		IP:          ip,
		IPHash:      HashIP(ip),
		Geolocation: geolocation,
		LastUsed:    lastUsed,
	}
}

// HashIP returns the base64 SHA-256 digest of an address.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return base64.StdEncoding.EncodeToString(sum[:])
}
