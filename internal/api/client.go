// Package api is a thin client for the read-only HateWatch API. It performs
// no retries, backoff or caching; every failure is returned to the caller.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hatewatch-dashboard/internal/config"
	"hatewatch-dashboard/internal/metrics"
	"hatewatch-dashboard/internal/model"
	"hatewatch-dashboard/internal/util"
)

const basePath = "/api"

// ErrStatus is wrapped by every non-2xx response error.
var ErrStatus = errors.New("unexpected http status")

// StatusError carries the status code and the head of the response body.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: http %d", e.Endpoint, e.Code)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Endpoint, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

type Client struct {
	BaseURL   string // upstream origin, without the /api prefix
	PublicURL string // browser-facing origin for export links; empty means relative
	HTTP      *http.Client
	Metrics   *metrics.Metrics
}

func NewClient(cfg config.API) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		PublicURL: strings.TrimRight(cfg.PublicURL, "/"),
		HTTP:      util.NewHTTPClient(cfg.Timeout, cfg.UserAgent),
	}
}

// Countries returns the country labels known to the API.
func (c *Client) Countries(ctx context.Context) ([]string, error) {
	var resp struct {
		Countries []string `json:"countries"`
	}
	if err := c.get(ctx, "countries", "/countries", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Countries, nil
}

// Stats returns the 24h overview, optionally for a single country.
func (c *Client) Stats(ctx context.Context, country string) (model.Stats, error) {
	q := url.Values{}
	setIf(q, "country", country)
	var s model.Stats
	if err := c.get(ctx, "stats", "/stats", q, &s); err != nil {
		return model.Stats{}, err
	}
	return s, nil
}

// Alerts returns alerts in API order.
func (c *Client) Alerts(ctx context.Context, activeOnly bool, country string) ([]model.Alert, error) {
	q := url.Values{}
	q.Set("active_only", strconv.FormatBool(activeOnly))
	setIf(q, "country", country)
	var alerts []model.Alert
	if err := c.get(ctx, "alerts", "/alerts", q, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// Alert returns a single alert with all of its posts.
func (c *Client) Alert(ctx context.Context, id int64) (model.AlertDetail, error) {
	var a model.AlertDetail
	if err := c.get(ctx, "alert", "/alerts/"+strconv.FormatInt(id, 10), nil, &a); err != nil {
		return model.AlertDetail{}, err
	}
	return a, nil
}

// Timeline returns per-day toxicity averages for the last days days.
func (c *Client) Timeline(ctx context.Context, channelID, country string, days int) (model.Timeline, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	setIf(q, "channel_id", channelID)
	setIf(q, "country", country)
	var tl model.Timeline
	if err := c.get(ctx, "timeline", "/timeline", q, &tl); err != nil {
		return model.Timeline{}, err
	}
	return tl, nil
}

// Posts returns recent posts.
func (c *Client) Posts(ctx context.Context, channelID string, hateSpeechOnly bool, limit int) ([]model.Post, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("hate_speech_only", strconv.FormatBool(hateSpeechOnly))
	setIf(q, "channel_id", channelID)
	var posts []model.Post
	if err := c.get(ctx, "posts", "/posts", q, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ExportURL builds the browser download link for an alert's evidence CSV.
// Nothing is fetched.
func (c *Client) ExportURL(id int64) string {
	return c.PublicURL + basePath + "/export/" + strconv.FormatInt(id, 10)
}

func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	u := c.BaseURL + basePath + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Metrics.ObserveRequest(endpoint, "transport_error")
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.Metrics.ObserveRequest(endpoint, strconv.Itoa(resp.StatusCode))
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.Metrics.ObserveRequest(endpoint, "decode_error")
		return fmt.Errorf("%s: decode: %w", endpoint, err)
	}
	c.Metrics.ObserveRequest(endpoint, "ok")
	return nil
}

func setIf(q url.Values, key, val string) {
	if val != "" {
		q.Set(key, val)
	}
}
