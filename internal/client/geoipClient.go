package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// GeoIPClient resolves an IP address to an ISO country code via an external
// lookup service (ip-api.com style). Callers treat any error as "no signal"
// and fall through to the configured default region; there are no retries.
type GeoIPClient interface {
	CountryCode(ctx context.Context, ip string) (string, error)
}

type geoipClientImpl struct {
	httpClient *http.Client
	baseURL    string
}

func NewGeoIPClient(baseURL string) GeoIPClient {
	return &geoipClientImpl{
		httpClient: &http.Client{
			Timeout: 3 * time.Second,
		},
		baseURL: baseURL,
	}
}

func (c *geoipClientImpl) CountryCode(ctx context.Context, ip string) (string, error) {
	url := fmt.Sprintf("%s/%s?fields=status,countryCode", c.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geoip lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geoip error %d", resp.StatusCode)
	}

	var result struct {
		Status      string `json:"status"`
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode geoip response: %w", err)
	}

	if result.Status != "success" || result.CountryCode == "" {
		return "", fmt.Errorf("geoip lookup unresolved for %s", ip)
	}

	return result.CountryCode, nil
}
