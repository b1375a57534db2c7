// Package article fetches interview articles over HTTP and reduces
// them to plain text.
package article

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRequestsPer = 2 // requests per second across all fetches
)

// Interview sites tend to reject default Go user agents, so requests
// carry ordinary browser headers.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

// Config holds configuration for the article connector.
type Config struct {
	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// MaxRetries is the number of attempts per article (default: 3).
	MaxRetries int

	// RequestsPerSecond limits the fetch rate (default: 2).
	RequestsPerSecond float64
}

// Connector fetches articles and extracts their readable text.
type Connector struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewConnector creates a new article connector.
func NewConnector(cfg Config) *Connector {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPer
	}

	return &Connector{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		maxRetries: cfg.MaxRetries,
	}
}

// Type returns the source variant this connector serves.
func (c *Connector) Type() domain.SourceType {
	return domain.SourceArticle
}

// Fetch downloads an article and extracts its readable text.
func (c *Connector) Fetch(ctx context.Context, spec domain.SourceSpec) (*domain.RawSource, error) {
	doc, err := c.fetchDocument(ctx, spec.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	title := spec.Title
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	text := extractText(doc)
	if text == "" {
		return nil, fmt.Errorf("%w: no readable text at %s", domain.ErrSourceUnavailable, spec.URL)
	}

	return &domain.RawSource{
		Ref: domain.SourceRef{
			Type:  domain.SourceArticle,
			URL:   spec.URL,
			Title: title,
		},
		Text: text,
	}, nil
}

// fetchDocument gets the page with retries, honoring the rate limiter
// on every attempt.
func (c *Connector) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		doc, retryable, err := c.fetchOnce(ctx, url)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (c *Connector) fetchOnce(ctx context.Context, url string) (*goquery.Document, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Server errors are worth retrying; client errors are not.
		retryable := resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("status %d fetching %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("parse html: %w", err)
	}
	return doc, false, nil
}

// extractText pulls readable text out of the page: the <article>
// element when present, otherwise the body with boilerplate removed.
func extractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}

	var parts []string
	root.Find("h1, h2, h3, p, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	// Pages with no structural markup at all still get their flat text.
	if len(parts) == 0 {
		return strings.TrimSpace(root.Text())
	}
	return strings.Join(parts, "\n")
}
