package clientinfo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const namesLocale = "en"

// Locator resolves an IP address to a coarse location, or nil when unknown.
type Locator interface {
	Locate(ip string) *entity.Geo
	Close() error
}

// GeoIPLocator looks addresses up in a MaxMind City database.
type GeoIPLocator struct {
	db *geoip2.Reader
}

// OpenGeoIP opens the City database at path.
func OpenGeoIP(path string) (*GeoIPLocator, error) {
	const op = "adapter.clientinfo.OpenGeoIP"

	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open geoip database: %w", op, err)
	}

	return &GeoIPLocator{db: db}, nil
}

func (l *GeoIPLocator) Locate(ip string) *entity.Geo {
	addr := net.ParseIP(ip)
	if addr == nil {
		return nil
	}

	record, err := l.db.City(addr)
	if err != nil {
		return nil
	}

	return geoFromCity(record)
}

func (l *GeoIPLocator) Close() error {
	return l.db.Close()
}

func geoFromCity(record *geoip2.City) *entity.Geo {
	country := record.Country.Names[namesLocale]
	if country == "" {
		country = record.Country.IsoCode
	}
	if country == "" {
		return nil
	}

	geo := &entity.Geo{
		Country: country,
		City:    record.City.Names[namesLocale],
	}
	if len(record.Subdivisions) > 0 {
		geo.Region = record.Subdivisions[0].Names[namesLocale]
	}

	return geo
}

// NopLocator never knows where a visitor is.
type NopLocator struct{}

func (NopLocator) Locate(string) *entity.Geo { return nil }

func (NopLocator) Close() error { return nil }
