package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Stats is what the external problem tracker reports for a handle.
// Calendar maps a YYYY-MM-DD day in the client's location to the submissions made that day; days without
// submissions are absent.
type Stats struct {
	Valid          bool           `json:"valid"`
	Message        string         `json:"message,omitempty"`
	TotalSolved    int            `json:"total_solved"`
	EasySolved     int            `json:"easy_solved"`
	MediumSolved   int            `json:"medium_solved"`
	HardSolved     int            `json:"hard_solved"`
	Ranking        int            `json:"ranking"`
	AcceptanceRate float64        `json:"acceptance_rate"`
	Calendar       map[string]int `json:"calendar"`
}

// CalendarDays returns the calendar's days in ascending order.
func (s Stats) CalendarDays() []string {
	days := make([]string, 0, len(s.Calendar))
	for d := range s.Calendar {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// Gateway fetches cumulative stats for a handle. Any failure is reported as Valid=false.
// FetchStats may answer from a cache; FetchLiveStats always asks the source.
type Gateway interface {
	FetchStats(ctx context.Context, handle string) Stats
	FetchLiveStats(ctx context.Context, handle string) Stats
}

// ByteCache is a TTL cache for serialized gateway responses.
type ByteCache interface {
	GetBytes(key string) ([]byte, bool)
	SetBytes(key string, b []byte, ttl time.Duration)
	Delete(key string)
}

// LeetCodeClient talks to a leetcode-stats style HTTP API.
type LeetCodeClient struct {
	baseURL  string
	client   *http.Client
	cache    ByteCache
	cacheTTL time.Duration
	loc      *time.Location
	logger   *zap.Logger
	flight   singleflight.Group
}

// LeetCodeOption customizes a LeetCodeClient.
type LeetCodeOption func(*LeetCodeClient)

// WithCache caches valid responses for ttl.
func WithCache(cache ByteCache, ttl time.Duration) LeetCodeOption {
	return func(c *LeetCodeClient) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) LeetCodeOption {
	return func(c *LeetCodeClient) { c.client = hc }
}

// WithGatewayLogger sets the logger used for failed lookups.
func WithGatewayLogger(l *zap.Logger) LeetCodeOption {
	return func(c *LeetCodeClient) { c.logger = l }
}

// WithLocation sets the zone used to bucket calendar submissions into days. It must match the streak zone.
func WithLocation(loc *time.Location) LeetCodeOption {
	return func(c *LeetCodeClient) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// NewLeetCodeClient builds a client for baseURL, e.g. https://leetcode-stats-api.herokuapp.com.
func NewLeetCodeClient(baseURL string, timeout time.Duration, opts ...LeetCodeOption) *LeetCodeClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &LeetCodeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		loc:     time.UTC,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type leetCodeResp struct {
	Status             string          `json:"status"`
	Message            string          `json:"message"`
	TotalSolved        int             `json:"totalSolved"`
	EasySolved         int             `json:"easySolved"`
	MediumSolved       int             `json:"mediumSolved"`
	HardSolved         int             `json:"hardSolved"`
	AcceptanceRate     float64         `json:"acceptanceRate"`
	Ranking            int             `json:"ranking"`
	SubmissionCalendar json.RawMessage `json:"submissionCalendar"`
}

func statsCacheKey(handle string) string {
	return "cache:leetcode:stats:" + strings.ToLower(handle)
}

// FetchStats returns the handle's stats. Concurrent lookups of one handle share a single request.
func (c *LeetCodeClient) FetchStats(ctx context.Context, handle string) Stats {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return Stats{Message: "empty handle"}
	}
	if c.cache != nil && c.cacheTTL > 0 {
		if b, ok := c.cache.GetBytes(statsCacheKey(handle)); ok {
			var st Stats
			if err := json.Unmarshal(b, &st); err == nil && st.Valid {
				gatewayRequestsTotal.WithLabelValues("cache_hit").Inc()
				return st
			}
		}
	}
	return c.load(ctx, handle)
}

// FetchLiveStats drops any cached entry for handle and asks the source. A valid answer refreshes the cache.
func (c *LeetCodeClient) FetchLiveStats(ctx context.Context, handle string) Stats {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return Stats{Message: "empty handle"}
	}
	if c.cache != nil {
		c.cache.Delete(statsCacheKey(handle))
	}
	return c.load(ctx, handle)
}

func (c *LeetCodeClient) load(ctx context.Context, handle string) Stats {
	v, _, _ := c.flight.Do(handle, func() (any, error) {
		return c.fetch(ctx, handle), nil
	})
	st := v.(Stats)
	if st.Valid && c.cache != nil && c.cacheTTL > 0 {
		if b, err := json.Marshal(st); err == nil {
			c.cache.SetBytes(statsCacheKey(handle), b, c.cacheTTL)
		}
	}
	return st
}

func (c *LeetCodeClient) fetch(ctx context.Context, handle string) Stats {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(handle), nil)
	if err != nil {
		return c.invalid(handle, "error", "could not build request", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return c.invalid(handle, "error", "could not verify user, API might be down", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return c.invalid(handle, "invalid", "user not found", nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.invalid(handle, "error", "could not verify user, API might be down", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	var body leetCodeResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return c.invalid(handle, "error", "malformed stats response", err)
	}
	if body.Status == "error" || body.Message == "user does not exist" {
		return c.invalid(handle, "invalid", "user not found", nil)
	}
	calendar, err := parseSubmissionCalendar(body.SubmissionCalendar, c.loc)
	if err != nil {
		return c.invalid(handle, "error", "malformed submission calendar", err)
	}
	gatewayRequestsTotal.WithLabelValues("ok").Inc()
	return Stats{
		Valid:          true,
		TotalSolved:    body.TotalSolved,
		EasySolved:     body.EasySolved,
		MediumSolved:   body.MediumSolved,
		HardSolved:     body.HardSolved,
		Ranking:        body.Ranking,
		AcceptanceRate: body.AcceptanceRate,
		Calendar:       calendar,
	}
}

func (c *LeetCodeClient) invalid(handle, result, msg string, err error) Stats {
	gatewayRequestsTotal.WithLabelValues(result).Inc()
	if err != nil {
		c.logger.Warn("stats gateway lookup failed", zap.String("handle", handle), zap.Error(err))
	}
	return Stats{Valid: false, Message: msg}
}

// parseSubmissionCalendar accepts the calendar either as a JSON object or as a JSON-encoded string of one.
// Keys are unix seconds; counts landing on the same day in loc are summed.
func parseSubmissionCalendar(raw json.RawMessage, loc *time.Location) (map[string]int, error) {
	if loc == nil {
		loc = time.UTC
	}
	out := map[string]int{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if strings.TrimSpace(s) == "" {
			return out, nil
		}
		raw = json.RawMessage(s)
	}
	var entries map[string]int
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	for ts, count := range entries {
		secs, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("calendar key %q: %w", ts, err)
		}
		out[time.Unix(secs, 0).In(loc).Format(dayLayout)] += count
	}
	return out, nil
}
