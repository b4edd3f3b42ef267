// Package edgar resolves tickers to CIK numbers and downloads filing
// documents from SEC EDGAR.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	tickerIndexURL = "https://www.sec.gov/files/company_tickers.json"
	submissionsURL = "https://data.sec.gov/submissions/CIK%s.json"
	archivesURL    = "https://www.sec.gov/Archives/edgar/data/%d/%s/%s"
)

// Options configures the EDGAR client. SEC requires a declared User-Agent
// identifying the caller.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
}

// Client downloads filing metadata and documents with per-host rate limiting
// honoring SEC's fair-access limits.
type Client struct {
	http     *http.Client
	opts     Options
	limiters map[string]*rate.Limiter

	// Endpoint templates and retry pacing, overridable in tests.
	tickerIndexURL string
	submissionsURL string
	archivesURL    string
	backoffBase    time.Duration
}

// NewClient creates an EDGAR client.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "filing-cli/1.0"
	}
	return &Client{
		http: &http.Client{Timeout: opts.Timeout},
		opts: opts,
		limiters: map[string]*rate.Limiter{
			"www.sec.gov":  rate.NewLimiter(10, 10),
			"data.sec.gov": rate.NewLimiter(10, 10),
		},
		tickerIndexURL: tickerIndexURL,
		submissionsURL: submissionsURL,
		archivesURL:    archivesURL,
		backoffBase:    time.Second,
	}
}

// CIKForTicker resolves a stock ticker to its 10-digit zero-padded CIK via
// the SEC ticker index.
func (c *Client) CIKForTicker(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToLower(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", eris.New("edgar: empty ticker")
	}

	body, err := c.get(ctx, c.tickerIndexURL)
	if err != nil {
		return "", eris.Wrap(err, "edgar: fetch ticker index")
	}
	defer body.Close()

	// The index is a JSON object keyed by arbitrary row numbers.
	var index map[string]struct {
		CIK    int64  `json:"cik_str"`
		Ticker string `json:"ticker"`
	}
	if err := json.NewDecoder(body).Decode(&index); err != nil {
		return "", eris.Wrap(err, "edgar: decode ticker index")
	}

	for _, row := range index {
		if strings.ToLower(row.Ticker) == ticker {
			return fmt.Sprintf("%010d", row.CIK), nil
		}
	}
	return "", eris.Errorf("edgar: ticker %q not found in SEC index", ticker)
}

// Filing identifies one filing document on EDGAR.
type Filing struct {
	Form            string
	AccessionNumber string
	PrimaryDocument string
	URL             string
}

// LatestFiling returns the most recent filing of the given form type (e.g.
// "10-K") for a 10-digit CIK.
func (c *Client) LatestFiling(ctx context.Context, cik, form string) (*Filing, error) {
	body, err := c.get(ctx, fmt.Sprintf(c.submissionsURL, cik))
	if err != nil {
		return nil, eris.Wrapf(err, "edgar: fetch submissions for CIK %s", cik)
	}
	defer body.Close()

	var subs struct {
		Filings struct {
			Recent struct {
				Form            []string `json:"form"`
				AccessionNumber []string `json:"accessionNumber"`
				PrimaryDocument []string `json:"primaryDocument"`
			} `json:"recent"`
		} `json:"filings"`
	}
	if err := json.NewDecoder(body).Decode(&subs); err != nil {
		return nil, eris.Wrap(err, "edgar: decode submissions")
	}

	recent := subs.Filings.Recent
	for i, f := range recent.Form {
		if f != form || i >= len(recent.AccessionNumber) || i >= len(recent.PrimaryDocument) {
			continue
		}
		accNo := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		var cikNum int64
		if _, err := fmt.Sscanf(cik, "%d", &cikNum); err != nil {
			return nil, eris.Wrapf(err, "edgar: parse CIK %s", cik)
		}
		return &Filing{
			Form:            f,
			AccessionNumber: recent.AccessionNumber[i],
			PrimaryDocument: recent.PrimaryDocument[i],
			URL:             fmt.Sprintf(c.archivesURL, cikNum, accNo, recent.PrimaryDocument[i]),
		}, nil
	}
	return nil, eris.Errorf("edgar: no %s filing found for CIK %s", form, cik)
}

// Download fetches a filing document and returns its raw bytes.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "edgar: download %s", rawURL)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrap(err, "edgar: read document body")
	}
	return data, nil
}

// get issues a rate-limited GET with bounded retries. 403 and 429 responses
// back off and retry; EDGAR serves 403 when a client exceeds its fair-access
// allowance.
func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	var lastErr error
	for attempt := range c.opts.MaxRetries {
		if err := c.limiterFor(rawURL).Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}

		resp, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			c.backoff(ctx, attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp.Body, nil
		case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			_ = resp.Body.Close()
			lastErr = eris.Errorf("http %d from %s", resp.StatusCode, rawURL)
			zap.L().Warn("edgar request throttled or failed, retrying",
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
		default:
			_ = resp.Body.Close()
			return nil, eris.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
		}
	}
	return nil, eris.Wrap(lastErr, "all retries exhausted")
}

func (c *Client) limiterFor(rawURL string) *rate.Limiter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rate.NewLimiter(10, 10)
	}
	if lim, ok := c.limiters[u.Host]; ok {
		return lim
	}
	return rate.NewLimiter(10, 10)
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	d := time.Duration(float64(c.backoffBase) * math.Pow(2, float64(attempt)))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
