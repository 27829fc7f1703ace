package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agronexus/internal/config"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(config.SourcesConfig{
		QuotesBaseURL:   baseURL,
		CommoditySymbol: "ZS=F",
		HTTPTimeout:     5 * time.Second,
		MaxRetries:      0,
	}, nil)
}

func chartBody(timestamps []int64, closes []string) string {
	ts := ""
	for i, v := range timestamps {
		if i > 0 {
			ts += ","
		}
		ts += fmt.Sprintf("%d", v)
	}
	cl := ""
	for i, v := range closes {
		if i > 0 {
			cl += ","
		}
		cl += v
	}
	return fmt.Sprintf(`{"chart":{"result":[{
		"meta":{"symbol":"ZS=F","currency":"USD"},
		"timestamp":[%s],
		"indicators":{"quote":[{"close":[%s]}]}
	}],"error":null}}`, ts, cl)
}

func TestFetchQuotes(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day3 := day1.AddDate(0, 0, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ZS=F", r.URL.Path)
		assert.Equal(t, "3y", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chartBody(
			[]int64{day1.Unix(), day2.Unix(), day3.Unix()},
			[]string{"1180.5", "null", "1195.25"}))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	q, err := c.FetchQuotes(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, "ZS=F", q.Symbol)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, 2, q.Close.Len(), "null closes are skipped")

	v, ok := q.Close.Get(day1)
	require.True(t, ok)
	assert.Equal(t, 1180.5, v)
}

func TestFetchQuotesHTMLWrappedJSON(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body><pre>%s</pre></body></html>",
			chartBody([]int64{day.Unix()}, []string{"1200.0"}))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	q, err := c.FetchQuotes(context.Background(), 1)
	require.NoError(t, err, "JSON embedded in an HTML page is recovered")
	assert.Equal(t, 1, q.Close.Len())
}

func TestFetchQuotesHTMLWithoutJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "<html><body>Too many requests</body></html>")
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.FetchQuotes(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedded JSON")
}

func TestFetchQuotesChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.FetchQuotes(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestFetchQuotesEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.FetchQuotes(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestFetchQuotesMismatchedArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{
			"meta":{"symbol":"ZS=F"},
			"timestamp":[1709251200,1709337600],
			"indicators":{"quote":[{"close":[1180.5]}]}
		}],"error":null}}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.FetchQuotes(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatched chart arrays")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, false},
		{"object in html", `<html>{"a":{"b":2}}</html>`, `{"a":{"b":2}}`, false},
		{"array in html", `<p>[1,2,3]</p>`, `[1,2,3]`, false},
		{"braces in strings", `<x>{"a":"}{"}</x>`, `{"a":"}{"}`, false},
		{"no json", `<html>plain</html>`, "", true},
		{"unbalanced", `<html>{"a":1</html>`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}
