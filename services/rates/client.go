// File: services/rates/client.go
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"guestara/models"

	"go.uber.org/zap"
)

// Provider fetches all available rate options for a property and date range.
type Provider interface {
	// GetRates takes ISO dates (YYYY-MM-DD) and returns every offered rate.
	GetRates(ctx context.Context, hotelCode, checkInDate, checkOutDate string, adults, children int) ([]models.Rate, error)
}

// AZDSClient talks to the AZDS hotel rates API.
type AZDSClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewAZDSClient(baseURL string, logger *zap.Logger) *AZDSClient {
	return &AZDSClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type ratesResponse struct {
	Rates []models.Rate `json:"rates"`
}

func (c *AZDSClient) GetRates(ctx context.Context, hotelCode, checkInDate, checkOutDate string, adults, children int) ([]models.Rate, error) {
	// The API expects MM/DD/YYYY.
	from, err := convertDate(checkInDate)
	if err != nil {
		return nil, fmt.Errorf("invalid check-in date %q: %w", checkInDate, err)
	}
	to, err := convertDate(checkOutDate)
	if err != nil {
		return nil, fmt.Errorf("invalid check-out date %q: %w", checkOutDate, err)
	}

	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)
	params.Set("adults", fmt.Sprintf("%d", adults))
	params.Set("children", fmt.Sprintf("%d", children))
	params.Set("lang", "en")

	reqURL := fmt.Sprintf("%s/%s/rates?%s", c.baseURL, hotelCode, params.Encode())
	c.logger.Info("Calling rates API", zap.String("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates API returned status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode rates response: %w", err)
	}

	c.logger.Info("Rates API returned rates", zap.Int("count", len(body.Rates)))
	return body.Rates, nil
}

func convertDate(isoDate string) (string, error) {
	t, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return "", err
	}
	return t.Format("01/02/2006"), nil
}
