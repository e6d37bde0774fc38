package geoip

import (
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
)

// Provider resolves addresses to country names with a GeoLite2 database.
// A nil Provider resolves nothing. It is safe for concurrent use.
type Provider struct {
	mu sync.RWMutex
	db *geoip2.Reader
}

// Open initializes the GeoIP database reader from a specific file path.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	return &Provider{db: db}, nil
}

// Reload swaps in the database at path, closing the previous one.
func (p *Provider) Reload(path string) error {
	db, err := geoip2.Open(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	old := p.db
	p.db = db
	p.mu.Unlock()

	return old.Close()
}

// Close closes the underlying GeoIP database reader.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.db.Close()
}

// Geolocation returns the English country name of an address, or
// models.UnknownGeolocation when it cannot be resolved.
func (p *Provider) Geolocation(ipStr string) string {
	if p == nil {
		return models.UnknownGeolocation
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return models.UnknownGeolocation
	}

	p.mu.RLock()
	record, err := p.db.Country(ip)
	p.mu.RUnlock()
	if err != nil {
		return models.UnknownGeolocation
	}

	name := record.Country.Names["en"]
	if name == "" {
		return models.UnknownGeolocation
	}

	return name
}

// GeoInfo builds the record of a sighting of ip at the given time.
func (p *Provider) GeoInfo(ip string, at int64) models.GeoInfo {
	return models.NewGeoInfo(ip, p.Geolocation(ip), at)
}
