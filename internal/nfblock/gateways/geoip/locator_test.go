package geoip

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/nfblock/internal/nfblock/domain"
)

type fakeReader struct {
	records map[string]*geoip2.Country
	err     error
	closed  bool
}

func (f *fakeReader) Country(ip net.IP) (*geoip2.Country, error) {
	if f.err != nil {
		return nil, f.err
	}
	if rec, ok := f.records[ip.String()]; ok {
		return rec, nil
	}
	return &geoip2.Country{}, nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func country(code string) *geoip2.Country {
	rec := &geoip2.Country{}
	rec.Country.IsoCode = code
	return rec
}

func TestLocator_Country(t *testing.T) {
	registered := &geoip2.Country{}
	registered.RegisteredCountry.IsoCode = "NL"

	reader := &fakeReader{records: map[string]*geoip2.Country{
		"1.2.3.4": country("AU"),
		"5.6.7.8": registered,
	}}
	l := newLocator(reader, nil)

	tests := []struct {
		addr string
		want string
	}{
		{"1.2.3.4", "AU"},
		{"5.6.7.8", "NL"},
		{"10.0.0.1", ""},
		{"999.1.1.1", ""},
		{"not an ip", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.Country(tt.addr), tt.addr)
	}

	require.NoError(t, l.Close())
	assert.True(t, reader.closed)
}

func TestLocator_CountryLookupError(t *testing.T) {
	l := newLocator(&fakeReader{err: errors.New("corrupt record")}, nil)
	assert.Equal(t, "", l.Country("1.2.3.4"))
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "GeoLite2-Country.mmdb"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestOpen_NotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GeoLite2-Country.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a maxmind database"), 0o600))

	_, err := Open(path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfig)
}
