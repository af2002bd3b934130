package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/shopspring/decimal"
	"resty.dev/v3"

	"coinwatch/internal/models"
	"coinwatch/internal/source"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

const (
	defaultRetryCount       = 2
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 5 * time.Second
)

// Client implements source.Provider against the CoinGecko REST API.
type Client struct {
	http       *resty.Client
	vsCurrency string
}

func New(baseURL string, timeout time.Duration, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		DisableRetryDefaultConditions().
		AddRetryConditions(retryCondition)
	if apiKey != "" {
		client.SetHeader("x-cg-demo-api-key", apiKey)
	}
	return &Client{http: client, vsCurrency: "usd"}
}

func (c *Client) Name() string { return "coingecko" }

// Do not retry on 429: upstream quota handling belongs to the fetch gate,
// and hammering the API after a rate-limit response only makes it worse.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return r.StatusCode() >= 500
}

type simplePriceEntry struct {
	USD           *float64 `json:"usd"`
	USDMarketCap  *float64 `json:"usd_market_cap"`
	USD24hVol     *float64 `json:"usd_24h_vol"`
	LastUpdatedAt *int64   `json:"last_updated_at"`
}

// FetchCurrent calls /simple/price for the asset. When upstream reports
// last_updated_at, that timestamp wins over the process clock.
func (c *Client) FetchCurrent(ctx context.Context, assetID string) (models.PriceSample, error) {
	var result map[string]simplePriceEntry

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":                     assetID,
			"vs_currencies":           c.vsCurrency,
			"include_market_cap":      "true",
			"include_24hr_vol":        "true",
			"include_last_updated_at": "true",
		}).
		SetResult(&result).
		Get("/simple/price")
	if err != nil {
		return models.PriceSample{}, classifyTransportError(err)
	}
	if !resp.IsSuccess() {
		return models.PriceSample{}, source.ClassifyStatus(resp.StatusCode())
	}

	entry, ok := result[assetID]
	if !ok {
		return models.PriceSample{}, source.NewMalformedError(
			fmt.Sprintf("asset %q missing from response", assetID), nil)
	}
	if entry.USD == nil {
		return models.PriceSample{}, source.NewMalformedError("price missing from response", nil)
	}

	observed := time.Now().UTC()
	if entry.LastUpdatedAt != nil && *entry.LastUpdatedAt > 0 {
		observed = time.Unix(*entry.LastUpdatedAt, 0).UTC()
	}

	return models.PriceSample{
		AssetID:    assetID,
		Price:      decimal.NewFromFloat(*entry.USD),
		MarketCap:  entry.USDMarketCap,
		Volume24h:  entry.USD24hVol,
		ObservedAt: observed,
	}, nil
}

type marketChartResponse struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// FetchRange calls /coins/{id}/market_chart/range. Market caps and volumes
// are aligned to price points by index, which is how upstream emits them.
func (c *Client) FetchRange(ctx context.Context, assetID string, from, to time.Time) ([]models.PriceSample, error) {
	var result marketChartResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", assetID).
		SetQueryParams(map[string]string{
			"vs_currency": c.vsCurrency,
			"from":        fmt.Sprintf("%d", from.Unix()),
			"to":          fmt.Sprintf("%d", to.Unix()),
		}).
		SetResult(&result).
		Get("/coins/{id}/market_chart/range")
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if !resp.IsSuccess() {
		return nil, source.ClassifyStatus(resp.StatusCode())
	}

	samples := make([]models.PriceSample, 0, len(result.Prices))
	for i, point := range result.Prices {
		if len(point) < 2 {
			return nil, source.NewMalformedError("price point missing fields", nil)
		}
		sample := models.PriceSample{
			AssetID:    assetID,
			Price:      decimal.NewFromFloat(point[1]),
			ObservedAt: time.UnixMilli(int64(point[0])).UTC(),
		}
		if i < len(result.MarketCaps) && len(result.MarketCaps[i]) >= 2 {
			v := result.MarketCaps[i][1]
			sample.MarketCap = &v
		}
		if i < len(result.TotalVolumes) && len(result.TotalVolumes[i]) >= 2 {
			v := result.TotalVolumes[i][1]
			sample.Volume24h = &v
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return source.NewTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return source.NewTimeoutError(err)
	}
	return source.NewUnreachableError(err)
}
