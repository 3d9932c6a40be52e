// Package boc fetches daily exchange-rate observations from a Valet-style
// JSON feed such as the Bank of Canada's.
package boc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/SscSPs/fx_expense_reconciler/internal/apperrors"
	"github.com/SscSPs/fx_expense_reconciler/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DefaultSeries is the USD to CAD daily series.
const DefaultSeries = "FXUSDCAD"

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the timeout of every request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithSeries selects the series key read from each observation.
func WithSeries(series string) ClientOption {
	return func(c *Client) { c.series = series }
}

// WithHTTPClient replaces the underlying http.Client; the timeout option is then ignored.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// Client implements ports.RateFetcher.
type Client struct {
	baseURL string
	series  string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a feed client. The request URL is baseURL followed by the start date.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		series:  DefaultSeries,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

type observation map[string]json.RawMessage

type value struct {
	V *decimal.Decimal `json:"v"`
}

type response struct {
	Observations []observation `json:"observations"`
}

// FetchRates retrieves every observation published on or after start, ordered by date.
func (c *Client) FetchRates(ctx context.Context, start domain.Date) ([]domain.RateObservation, error) {
	url := c.baseURL + start.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %w", apperrors.ErrFetch, url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request %s: %w", apperrors.ErrFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: unexpected status %s from %s: %s", apperrors.ErrDecode, resp.Status, url, body)
	}

	var raw response
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode json: %w", apperrors.ErrDecode, err)
	}
	return c.decode(raw)
}

func (c *Client) decode(raw response) ([]domain.RateObservation, error) {
	if raw.Observations == nil {
		return nil, fmt.Errorf("%w: response has no observations list", apperrors.ErrDecode)
	}

	rates := make([]domain.RateObservation, 0, len(raw.Observations))
	for i, obs := range raw.Observations {
		var day string
		if err := json.Unmarshal(obs["d"], &day); err != nil {
			return nil, fmt.Errorf("%w: observation %d: missing or invalid date: %w", apperrors.ErrDecode, i, err)
		}
		date, err := domain.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("%w: observation %d: %w", apperrors.ErrDecode, i, err)
		}

		series, ok := obs[c.series]
		if !ok {
			return nil, fmt.Errorf("%w: observation %s has no %s value", apperrors.ErrDecode, date, c.series)
		}
		var v value
		if err := json.Unmarshal(series, &v); err != nil {
			return nil, fmt.Errorf("%w: observation %s: invalid %s value: %w", apperrors.ErrDecode, date, c.series, err)
		}
		if v.V == nil {
			return nil, fmt.Errorf("%w: observation %s has no %s value", apperrors.ErrDecode, date, c.series)
		}

		rates = append(rates, domain.RateObservation{Date: date, Rate: *v.V})
	}

	slices.SortStableFunc(rates, func(a, b domain.RateObservation) int {
		return a.Date.Compare(b.Date)
	})
	return rates, nil
}
