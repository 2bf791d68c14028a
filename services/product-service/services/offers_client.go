package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/groceazy/backend/pkg/catalog"
)

// OffersClient calls the promotion-service HTTP API.
type OffersClient struct {
	baseURL string
	client  *http.Client
}

// NewOffersClient creates a new OffersClient.
func NewOffersClient(baseURL string, timeout time.Duration) *OffersClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OffersClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ActiveOffers fetches GET /offers/active.
func (oc *OffersClient) ActiveOffers(ctx context.Context) ([]catalog.Offer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oc.baseURL+"/offers/active", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := oc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("promotion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("promotion active offers returned status %d", resp.StatusCode)
	}

	var body struct {
		Offers []catalog.Offer `json:"offers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode active offers: %w", err)
	}
	if body.Offers == nil {
		body.Offers = []catalog.Offer{}
	}
	return body.Offers, nil
}
