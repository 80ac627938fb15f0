package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	logpkg "github.com/haukened/nfblock/internal/nfblock/common/log"
	"github.com/haukened/nfblock/internal/nfblock/domain"
)

// countryReader is the subset of *geoip2.Reader the locator uses.
type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

// Locator resolves IPv4 addresses to ISO country codes from a MaxMind
// country or city database.
type Locator struct {
	db     countryReader
	logger logpkg.Logger
}

// Open loads the database at path. Errors wrap domain.ErrConfig.
func Open(path string, logger logpkg.Logger) (*Locator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open geoip database %s: %w", domain.ErrConfig, path, err)
	}
	return newLocator(db, logger), nil
}

func newLocator(db countryReader, logger logpkg.Logger) *Locator {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	return &Locator{db: db, logger: logger}
}

// Country returns the ISO code for addr. Unparseable addresses, lookup
// failures and addresses missing from the database yield "".
func (l *Locator) Country(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil {
		return ""
	}
	rec, err := l.db.Country(ip)
	if err != nil {
		l.logger.Debug(map[string]any{"ip": addr, "error": err.Error()}, "geoip_lookup_failed")
		return ""
	}
	if rec == nil {
		return ""
	}
	if rec.Country.IsoCode != "" {
		return rec.Country.IsoCode
	}
	return rec.RegisteredCountry.IsoCode
}

// Close releases the database.
func (l *Locator) Close() error {
	return l.db.Close()
}
