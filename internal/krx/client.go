// Package krx fetches report pages from the exchange's statistics portal
// and normalizes the raw rows through data-declared report schemas.
package krx

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/openkrx/krxsnap/internal/dates"
)

// rangeWindowDays bounds one ranged request to two years of results; the
// endpoint truncates larger result sets without saying so.
const rangeWindowDays = 730

// Options configures the report client.
type Options struct {
	BaseURL   string
	Referer   string
	UserAgent string
	Timeout   time.Duration
	Rate      rate.Limit
	Burst     int
}

// Client issues POST form requests against the report endpoint. It never
// retries: a transport or decode failure aborts the whole run, because a
// silent retry could mask a remote schema change.
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Rate == 0 {
		opts.Rate = 2
	}
	if opts.Burst == 0 {
		opts.Burst = 1
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(opts.Rate, opts.Burst),
	}
}

// Fetch requests one page of rows for the schema's report. params carry
// the report-specific filters (trade date, market id, instrument code).
// Returns the raw rows and the server timestamp.
func (c *Client) Fetch(ctx context.Context, sch Schema, params map[string]string) ([]Row, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", eris.Wrap(err, "krx: rate limiter wait")
	}

	form := url.Values{}
	form.Set("bld", sch.BLD)
	for k, v := range params {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", eris.Wrap(err, "krx: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Referer", c.opts.Referer)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", eris.Wrapf(err, "krx: fetch %s", sch.Name)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, "", eris.Errorf("krx: fetch %s: unexpected status %d", sch.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", eris.Wrapf(err, "krx: read %s response", sch.Name)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, "", eris.Wrapf(err, "krx: decode %s response", sch.Name)
	}
	block, ok := raw[sch.Block]
	if !ok {
		return nil, "", eris.Errorf("krx: fetch %s: response has no %q block", sch.Name, sch.Block)
	}

	var rows []Row
	if err := json.Unmarshal(block, &rows); err != nil {
		return nil, "", eris.Wrapf(err, "krx: decode %s rows", sch.Name)
	}

	var timestamp string
	if ts, ok := raw["CURRENT_DATETIME"]; ok {
		_ = json.Unmarshal(ts, &timestamp)
	}
	return rows, timestamp, nil
}

// FetchRange requests [start, end] split into two-year windows, issued
// oldest-first. Each window comes back most-recent-first, so prepending
// the windows in request order keeps the merged result most-recent-first
// end to end, matching the per-artifact convention.
func (c *Client) FetchRange(ctx context.Context, sch Schema, params map[string]string, start, end dates.Date) ([]Row, error) {
	log := zap.L().With(zap.String("report", sch.Name))

	var merged []Row
	remain := dates.DiffDay(start, end)
	cursor := start

	for remain > 0 {
		window := min(remain, rangeWindowDays)

		// Both bounds are inclusive, so a window covers window+1 days.
		windowEnd := cursor.AddDay(window)

		p := make(map[string]string, len(params)+2)
		for k, v := range params {
			p[k] = v
		}
		p["strtDd"] = cursor.Marshal("")
		p["endDd"] = windowEnd.Marshal("")

		rows, _, err := c.Fetch(ctx, sch, p)
		if err != nil {
			return nil, err
		}
		log.Info("fetched range window",
			zap.String("start", string(cursor)),
			zap.String("end", string(windowEnd)),
			zap.Int("rows", len(rows)),
		)

		merged = append(rows, merged...)

		remain -= window + 1
		cursor = windowEnd.AddDay(1)

		if remain > 0 {
			if err := c.windowPause(ctx, len(rows) > 0); err != nil {
				return nil, err
			}
		}
	}

	return merged, nil
}

// windowPause sleeps between consecutive window requests. The interval
// is randomized so the call pattern does not look mechanical; empty
// windows get only a token pause.
func (c *Client) windowPause(ctx context.Context, hadRows bool) error {
	d := 100 * time.Millisecond
	if hadRows {
		d = time.Duration(500+rand.Int63n(500)) * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "krx: window pause")
	case <-t.C:
		return nil
	}
}
