package mangadex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mangasync/internal/closing"
	"mangasync/internal/logging"
	"mangasync/internal/services"
)

// DefaultBaseURL is the production catalog endpoint.
const DefaultBaseURL = "https://api.mangadex.org"

const (
	pageSize       = 100
	groupChunkSize = 50
	extraRetries   = 3
	userAgent      = "mangasync/1.0"

	// Metadata requests are rate limited upstream; page content is not.
	defaultMetadataDelay = 1500 * time.Millisecond
	// Some MangaDex@Home servers really are this slow.
	requestTimeout = 300 * time.Second
)

// HTTPDoer describes the HTTP client used by the catalog service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the catalog and page-server endpoints. Every metadata call
// waits the fixed delay first and checks the shutdown token before any
// network I/O.
type Client struct {
	baseURL string
	http    HTTPDoer
	token   *closing.Token
	delay   time.Duration
	logger  *slog.Logger
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient injects the HTTP doer (used in tests).
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.http = doer }
}

// WithBaseURL points the client at a different catalog endpoint.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithMetadataDelay overrides the fixed delay before metadata fetches.
func WithMetadataDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// NewClient constructs a catalog client bound to the given shutdown token.
func NewClient(token *closing.Token, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: requestTimeout},
		token:   token,
		delay:   defaultMetadataDelay,
		logger:  logging.NewComponentLogger(logger, "mangadex"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Manga fetches the catalog record for one manga id.
func (c *Client) Manga(ctx context.Context, id string) (Manga, error) {
	var envelope mangaEnvelope
	if err := c.jsonGet(ctx, c.baseURL+"/manga/"+id, &envelope); err != nil {
		return Manga{}, err
	}
	return envelope.Data, nil
}

// Chapter fetches the catalog record for one chapter id.
func (c *Client) Chapter(ctx context.Context, id string) (Chapter, error) {
	var envelope chapterEnvelope
	if err := c.jsonGet(ctx, c.baseURL+"/chapter/"+id, &envelope); err != nil {
		return Chapter{}, err
	}
	return envelope.Data, nil
}

// MangaChapters walks the paginated chapter feed for one manga in the given
// translated language. A page that contradicts the declared total aborts the
// enumeration with a pagination error.
func (c *Client) MangaChapters(ctx context.Context, mangaID, language string) ([]Chapter, error) {
	var chapters []Chapter
	total := 1

	for offset := 0; offset < total; offset += pageSize {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageSize))
		query.Set("offset", strconv.Itoa(offset))
		query.Add("translatedLanguage[]", language)
		query.Set("order[chapter]", "desc")

		var page chapterList
		if err := c.jsonGet(ctx, c.baseURL+"/manga/"+mangaID+"/feed?"+query.Encode(), &page); err != nil {
			return nil, err
		}

		total = page.Total
		if len(page.Data) != pageSize && offset+len(page.Data) < total {
			return nil, services.Wrap(
				services.ErrPagination,
				"mangadex",
				"list chapters",
				fmt.Sprintf("manga %s: requested %d chapters at offset %d with %d total but got %d",
					mangaID, pageSize, offset, total, len(page.Data)),
				nil,
			)
		}
		chapters = append(chapters, page.Data...)
	}

	return chapters, nil
}

// AtHome resolves the page-server locator set for one chapter.
func (c *Client) AtHome(ctx context.Context, chapterID string) (AtHome, error) {
	var response AtHome
	if err := c.jsonGet(ctx, c.baseURL+"/at-home/server/"+chapterID, &response); err != nil {
		return AtHome{}, err
	}
	return response, nil
}

// Groups resolves scanlation group records for the given ids, batching the
// lookups into chunks to bound URL length.
func (c *Client) Groups(ctx context.Context, ids []string) ([]Group, error) {
	var groups []Group
	for len(ids) > 0 {
		chunk := ids
		if len(chunk) > groupChunkSize {
			chunk = chunk[:groupChunkSize]
		}
		ids = ids[len(chunk):]

		query := url.Values{}
		query.Set("limit", strconv.Itoa(groupChunkSize))
		for _, id := range chunk {
			query.Add("ids[]", id)
		}

		var page groupList
		if err := c.jsonGet(ctx, c.baseURL+"/group?"+query.Encode(), &page); err != nil {
			return nil, err
		}
		groups = append(groups, page.Data...)
	}
	return groups, nil
}

// Page issues a single page-content request with no delay and no retries;
// the download pipeline owns the retry loop. The caller closes the body.
func (c *Client) Page(ctx context.Context, pageURL string) (*http.Response, error) {
	if err := c.token.Err(); err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, pageURL)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "mangadex", "get page", pageURL, err)
	}
	return resp, nil
}

func (c *Client) jsonGet(ctx context.Context, rawURL string, target any) error {
	if err := c.token.Err(); err != nil {
		return err
	}
	if err := c.sleep(ctx); err != nil {
		return err
	}

	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return services.Wrap(services.ErrTransient, "mangadex", "decode response", rawURL, err)
	}
	return nil
}

// get retries failed requests up to three additional times with no backoff.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= extraRetries; attempt++ {
		if err := c.token.Err(); err != nil {
			return nil, err
		}
		resp, err := c.do(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt < extraRetries {
			c.logger.Debug("retrying request after failure",
				logging.String("url", rawURL),
				logging.Int("attempt", attempt+1),
				logging.Error(err),
			)
		}
	}
	if err := c.token.Err(); err != nil {
		return nil, err
	}
	return nil, services.Wrap(services.ErrTransient, "mangadex", "get", rawURL, lastErr)
}

// do issues one GET and treats any non-2xx status as an error.
func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) sleep(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
