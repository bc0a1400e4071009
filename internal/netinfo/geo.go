package netinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/Bahjat/phishguard/backend/internal/model"
)

var errGeoLookup = errors.New("geolocation lookup failed")

// geoResponse is the ip-api.com JSON shape.
type geoResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	ISP        string  `json:"isp"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// GeoClient looks up IP geolocation from an ip-api.com compatible endpoint.
type GeoClient struct {
	baseURL string
	client  *http.Client
}

// NewGeoClient returns a GeoClient for baseURL. A nil client gets a default
// one with a short timeout.
func NewGeoClient(baseURL string, client *http.Client) *GeoClient {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &GeoClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Locate returns the location of addr.
func (g *GeoClient) Locate(ctx context.Context, addr netip.Addr) (*model.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/json/"+addr.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errGeoLookup, resp.StatusCode)
	}

	var gr geoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&gr); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", errGeoLookup, err)
	}
	if gr.Status != "success" {
		return nil, fmt.Errorf("%w: %s", errGeoLookup, gr.Message)
	}

	return &model.Location{
		Country: gr.Country,
		Region:  gr.RegionName,
		City:    gr.City,
		ISP:     gr.ISP,
		Lat:     formatCoord(gr.Lat),
		Lon:     formatCoord(gr.Lon),
	}, nil
}

func formatCoord(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
