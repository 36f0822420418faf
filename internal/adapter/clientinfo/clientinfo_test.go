package clientinfo

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

func TestParseUserAgent(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   entity.ClientMeta
	}{
		{
			name:   "empty",
			header: "",
			want:   entity.ClientMeta{},
		},
		{
			name:   "desktop firefox",
			header: "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0",
			want:   entity.ClientMeta{Browser: "Firefox", Device: DeviceDesktop},
		},
		{
			name:   "mobile safari",
			header: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			want:   entity.ClientMeta{Browser: "Safari", Device: DeviceMobile},
		},
		{
			name:   "tablet",
			header: "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			want:   entity.ClientMeta{Browser: "Safari", Device: DeviceTablet},
		},
		{
			name:   "bot",
			header: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			want:   entity.ClientMeta{Device: DeviceBot},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseUserAgent(tc.header)

			assert.Equal(t, tc.want.Device, got.Device)
			if tc.want.Browser != "" {
				assert.Equal(t, tc.want.Browser, got.Browser)
			}
			if tc.header != "" {
				assert.NotEmpty(t, got.Browser)
			}
		})
	}
}

func TestParseUserAgent_LongProductTokens(t *testing.T) {
	headers := []string{
		strings.Repeat("A", 100) + "/1.0",
		"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 " + strings.Repeat("B", 90) + "/125.0",
		strings.Repeat("Ж", 80) + "/2.0",
	}

	for _, header := range headers {
		got := ParseUserAgent(header)

		assert.LessOrEqual(t, utf8.RuneCountInString(got.Browser), MaxBrowserLen)
		assert.LessOrEqual(t, utf8.RuneCountInString(got.OS), MaxOSLen)
		assert.True(t, utf8.ValidString(got.Browser))
		assert.NotEmpty(t, got.Device)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "ЖЖ", truncate("ЖЖЖЖ", 2))
}

func TestHostIP(t *testing.T) {
	assert.Equal(t, "203.0.113.7", HostIP("203.0.113.7:5123"))
	assert.Equal(t, "2001:db8::1", HostIP("[2001:db8::1]:443"))
	assert.Equal(t, "203.0.113.7", HostIP("203.0.113.7"))
}

func cityRecord(t testing.TB, raw string) *geoip2.City {
	t.Helper()

	var record geoip2.City
	require.NoError(t, json.Unmarshal([]byte(raw), &record))
	return &record
}

func TestGeoFromCity(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		record := cityRecord(t, `{
			"Country": {"IsoCode": "DE", "Names": {"en": "Germany"}},
			"Subdivisions": [{"Names": {"en": "Berlin"}}],
			"City": {"Names": {"en": "Berlin"}}
		}`)

		assert.Equal(t, &entity.Geo{Country: "Germany", Region: "Berlin", City: "Berlin"}, geoFromCity(record))
	})

	t.Run("iso code only", func(t *testing.T) {
		record := cityRecord(t, `{"Country": {"IsoCode": "FR"}}`)

		assert.Equal(t, &entity.Geo{Country: "FR"}, geoFromCity(record))
	})

	t.Run("unknown country", func(t *testing.T) {
		assert.Nil(t, geoFromCity(cityRecord(t, `{}`)))
	})
}

func TestOpenGeoIP_MissingFile(t *testing.T) {
	locator, err := OpenGeoIP("testdata/missing.mmdb")

	assert.Error(t, err)
	assert.Nil(t, locator)
}

func TestNopLocator(t *testing.T) {
	var l Locator = NopLocator{}

	assert.Nil(t, l.Locate("203.0.113.7"))
	assert.NoError(t, l.Close())
}
