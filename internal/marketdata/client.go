// Package marketdata provides the client for the external daily price
// provider. The provider serves at most 90 calendar days per request and
// rate-limits aggressively; rate-limit responses are surfaced as
// apperrors.ErrRateLimited so callers can degrade gracefully.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/dateutil"
)

// MaxWindowDays is the provider's per-request window limit in calendar days.
const MaxWindowDays = 90

// yfSuffix is appended to SET symbols for the provider's symbol space.
const yfSuffix = ".BK"

// Client fetches daily price data from the provider's chart API.
// A shared rate limiter spaces out consecutive requests; this is deliberate
// throttling against provider quotas, not a correctness requirement.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a provider client. minInterval is the minimum spacing
// between consecutive requests; token may be empty for the public endpoint.
func NewClient(baseURL, token string, minInterval time.Duration) *Client {
	if minInterval <= 0 {
		minInterval = time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// FetchDaily retrieves daily bars for symbol in [from,to], ascending by date.
// The window must not exceed MaxWindowDays. Timestamps are normalized to
// calendar dates before they leave this package.
func (c *Client) FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	from = dateutil.Normalize(from)
	to = dateutil.Normalize(to)
	if from.After(to) {
		return nil, fmt.Errorf("%w: from %s after to %s", apperrors.ErrInvalidDateRange,
			from.Format(dateutil.DayFormat), to.Format(dateutil.DayFormat))
	}
	if (dateutil.Range{From: from, To: to}).Days() > MaxWindowDays {
		return nil, fmt.Errorf("window exceeds provider limit of %d days", MaxWindowDays)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// period2 is exclusive and the provider rejects period1 == period2, so
	// always widen by one day; parseBars drops any padded trailing rows.
	url := fmt.Sprintf(
		"%s/v8/finance/chart/%s%s?interval=1d&period1=%d&period2=%d",
		c.baseURL, symbol, yfSuffix, from.Unix(), to.AddDate(0, 0, 1).Unix(),
	)

	resp, err := c.query(ctx, url)
	if err != nil {
		return nil, err
	}

	return parseBars(resp, to)
}

// query executes one HTTP request against the provider and decodes the raw
// chart response. HTTP 429 maps to apperrors.ErrRateLimited; any other
// provider failure propagates as a plain error.
func (c *Client) query(ctx context.Context, url string) (chartResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return chartResponse{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return chartResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return chartResponse{}, apperrors.ErrRateLimited
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return chartResponse{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return chartResponse{}, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(data))
	}

	var response chartResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return chartResponse{}, fmt.Errorf("failed to decode provider response: %w", err)
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("provider error %s: %s",
			response.Chart.Error.Code, response.Chart.Error.Description)
	}

	return response, nil
}

// parseBars converts a raw chart response into normalized bars, validating
// that the data arrays line up. Rows dated after the requested end (the
// provider pads trailing days when the window is widened) are dropped.
func parseBars(resp chartResponse, to time.Time) ([]Bar, error) {
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}
	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data returned")
	}
	quote := result.Indicators.Quote[0]
	if len(quote.Close) != len(result.Timestamp) {
		return nil, fmt.Errorf("mismatched data lengths")
	}

	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		date := dateutil.Normalize(time.Unix(ts, 0))
		if date.After(to) {
			continue
		}
		bars = append(bars, Bar{
			Date:   date,
			Open:   deref(quote.Open, i),
			High:   deref(quote.High, i),
			Low:    deref(quote.Low, i),
			Close:  deref(quote.Close, i),
			Volume: derefInt(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func deref(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func derefInt(vals []*int64, i int) int64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}
