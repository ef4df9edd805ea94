package generator

import (
	// Go Internal Packages
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	// External Packages
	"github.com/tidwall/gjson"
)

// NominatimGeocoder reverse geocodes through a Nominatim compatible HTTP endpoint.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewNominatimGeocoder(baseURL, userAgent string) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ReverseState returns the two letter state code of the coordinate, or the state name when
// the response has no ISO subdivision.
func (g *NominatimGeocoder) ReverseState(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: unexpected status %d", resp.StatusCode)
	}

	address := gjson.GetBytes(body, "address")
	if !address.Exists() {
		return "", fmt.Errorf("reverse geocode: no address for %v,%v", lat, lng)
	}
	if iso := address.Get(`ISO3166-2-lvl4`).String(); iso != "" {
		return strings.TrimPrefix(iso, "BR-"), nil
	}
	return address.Get("state").String(), nil
}
