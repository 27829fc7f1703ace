// Package climate fetches daily climate history from the Open-Meteo
// archive API for a configured farm location.
package climate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"agronexus/internal/config"
	"agronexus/internal/dataset"
	"agronexus/internal/infrastructure"
)

// History is the parsed daily climate history for a location.
type History struct {
	TempMax  *dataset.Series
	Rainfall *dataset.Series
	From     time.Time
	To       time.Time
}

// dailyResponse mirrors the Open-Meteo archive payload. Null cells come
// through as nil pointers and are treated as missing.
type dailyResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Daily     struct {
		Time             []string   `json:"time"`
		TemperatureMax   []*float64 `json:"temperature_2m_max"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
	Reason string `json:"reason,omitempty"`
}

// Client talks to the Open-Meteo archive endpoint.
type Client struct {
	baseURL    string
	latitude   float64
	longitude  float64
	timezone   string
	maxRetries int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a climate client from the source configuration
func NewClient(cfg config.SourcesConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    cfg.ClimateBaseURL,
		latitude:   cfg.Latitude,
		longitude:  cfg.Longitude,
		timezone:   cfg.Timezone,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logger.With("component", "climate_client"),
	}
}

// FetchHistory pulls daily max temperature and precipitation for the
// given date range. Retries transient failures up to the configured limit.
func (c *Client) FetchHistory(ctx context.Context, from, to time.Time) (*History, error) {
	reqURL := c.buildURL(from, to)
	log := c.logger
	if traceID := infrastructure.GetTraceID(ctx); traceID != "" {
		log = log.With("trace_id", traceID)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
			log.Debug("retrying climate fetch", "attempt", attempt)
		}

		hist, err := c.fetchOnce(ctx, reqURL, from, to)
		if err == nil {
			log.Info("climate history fetched",
				"days", hist.TempMax.Len(),
				"from", from.Format("2006-01-02"),
				"to", to.Format("2006-01-02"))
			return hist, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	log.Warn("climate fetch failed", "error", lastErr, "retries", c.maxRetries)
	return nil, fmt.Errorf("fetch climate history: %w", lastErr)
}

func (c *Client) buildURL(from, to time.Time) string {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", c.latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", c.longitude))
	q.Set("start_date", from.Format("2006-01-02"))
	q.Set("end_date", to.Format("2006-01-02"))
	q.Set("daily", "temperature_2m_max,precipitation_sum")
	q.Set("timezone", c.timezone)
	return c.baseURL + "?" + q.Encode()
}

func (c *Client) fetchOnce(ctx context.Context, reqURL string, from, to time.Time) (*History, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var payload dailyResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if payload.Reason != "" {
			return nil, fmt.Errorf("archive API status %d: %s", resp.StatusCode, payload.Reason)
		}
		return nil, fmt.Errorf("archive API status %d", resp.StatusCode)
	}

	return c.parseDaily(payload, from, to)
}

func (c *Client) parseDaily(payload dailyResponse, from, to time.Time) (*History, error) {
	daily := payload.Daily
	if len(daily.Time) == 0 {
		return nil, fmt.Errorf("archive API returned no daily data")
	}
	if len(daily.TemperatureMax) != len(daily.Time) || len(daily.PrecipitationSum) != len(daily.Time) {
		return nil, fmt.Errorf("mismatched daily arrays: %d dates, %d temps, %d rains",
			len(daily.Time), len(daily.TemperatureMax), len(daily.PrecipitationSum))
	}

	hist := &History{
		TempMax:  dataset.NewSeries(dataset.ColTempMax),
		Rainfall: dataset.NewSeries(dataset.ColRainfall),
		From:     from,
		To:       to,
	}
	for i, ds := range daily.Time {
		d, err := time.Parse("2006-01-02", ds)
		if err != nil {
			return nil, fmt.Errorf("bad date %q at index %d: %w", ds, i, err)
		}
		if v := daily.TemperatureMax[i]; v != nil {
			hist.TempMax.Set(d, *v)
		}
		if v := daily.PrecipitationSum[i]; v != nil {
			hist.Rainfall.Set(d, *v)
		}
	}
	return hist, nil
}

// Ping checks source reachability with a one-day probe request.
func (c *Client) Ping(ctx context.Context) error {
	day := time.Now().UTC().AddDate(0, 0, -7)
	_, err := c.FetchHistory(ctx, day, day)
	return err
}
