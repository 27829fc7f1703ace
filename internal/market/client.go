// Package market fetches daily commodity price series from a public
// quotes chart API.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"agronexus/internal/config"
	"agronexus/internal/dataset"
	"agronexus/internal/infrastructure"
)

// Quotes is a parsed daily close-price series for a symbol.
type Quotes struct {
	Symbol   string
	Currency string
	Close    *dataset.Series
}

// chartResponse mirrors the quotes chart payload. Closes may contain null
// cells for non-trading days.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Client talks to the quotes chart endpoint.
type Client struct {
	baseURL    string
	symbol     string
	maxRetries int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a market client from the source configuration. A cookie
// jar helps against endpoints that bounce cookie-less clients to consent
// pages.
func NewClient(cfg config.SourcesConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:    cfg.QuotesBaseURL,
		symbol:     cfg.CommoditySymbol,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout, Jar: jar},
		logger:     logger.With("component", "market_client"),
	}
}

// FetchQuotes pulls the daily close series for the configured symbol over
// the given window in years.
func (c *Client) FetchQuotes(ctx context.Context, windowYears int) (*Quotes, error) {
	if windowYears <= 0 {
		windowYears = 1
	}
	reqURL := c.buildURL(windowYears)
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
			log.Debug("retrying quotes fetch", "attempt", attempt)
		}

		q, err := c.fetchOnce(ctx, reqURL)
		if err == nil {
			log.Info("quotes fetched", "symbol", q.Symbol, "points", q.Close.Len())
			return q, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	log.Warn("quotes fetch failed", "symbol", c.symbol, "error", lastErr)
	return nil, fmt.Errorf("fetch quotes for %s: %w", c.symbol, lastErr)
}

func (c *Client) buildURL(windowYears int) string {
	q := url.Values{}
	q.Set("range", fmt.Sprintf("%dy", windowYears))
	q.Set("interval", "1d")
	return c.baseURL + "/" + url.PathEscape(c.symbol) + "?" + q.Encode()
}

func (c *Client) fetchOnce(ctx context.Context, reqURL string) (*Quotes, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	// browser-like headers reduce HTML error pages from public endpoints
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.7")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response (status %d)", resp.StatusCode)
	}

	// recover JSON embedded inside an HTML error page when possible
	ct := resp.Header.Get("Content-Type")
	if trimmed[0] == '<' || strings.Contains(strings.ToLower(ct), "text/html") {
		recovered, rerr := extractJSON(trimmed)
		if rerr != nil {
			return nil, fmt.Errorf("HTML response with no embedded JSON (status %d)", resp.StatusCode)
		}
		trimmed = recovered
	}

	var payload chartResponse
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error %s: %s",
			payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart API status %d", resp.StatusCode)
	}

	return c.parseChart(payload)
}

func (c *Client) parseChart(payload chartResponse) (*Quotes, error) {
	results := payload.Chart.Result
	if len(results) == 0 {
		return nil, errors.New("chart API returned no result")
	}
	r := results[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, errors.New("chart result has no quote indicator")
	}
	closes := r.Indicators.Quote[0].Close
	if len(closes) != len(r.Timestamp) {
		return nil, fmt.Errorf("mismatched chart arrays: %d timestamps, %d closes",
			len(r.Timestamp), len(closes))
	}

	q := &Quotes{
		Symbol:   r.Meta.Symbol,
		Currency: r.Meta.Currency,
		Close:    dataset.NewSeries(dataset.ColPriceClose),
	}
	if q.Symbol == "" {
		q.Symbol = c.symbol
	}
	for i, ts := range r.Timestamp {
		if closes[i] == nil {
			continue
		}
		q.Close.Set(time.Unix(ts, 0).UTC(), *closes[i])
	}
	return q, nil
}

// Ping checks source reachability with a minimal one-day window.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/"+url.PathEscape(c.symbol)+"?range=1d&interval=1d", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("chart API status %d", resp.StatusCode)
	}
	return nil
}

// extractJSON finds the first balanced JSON object or array inside b.
func extractJSON(b []byte) ([]byte, error) {
	start := bytes.IndexAny(b, "{[")
	if start == -1 {
		return nil, errors.New("no JSON start delimiter found")
	}

	open := b[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(b); i++ {
		c := b[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return b[start : i+1], nil
			}
		}
	}
	return nil, errors.New("no matching JSON end delimiter")
}
