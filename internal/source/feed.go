package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ppiankov/persona/internal/extract"
	"github.com/ppiankov/persona/internal/model"
	"github.com/ppiankov/persona/internal/util"
)

// FeedClient reads the user's Atom feeds. Feeds are not paginated, so each
// stream yields a single page.
type FeedClient struct {
	req     *requester
	opts    Options
	baseURL string
	parser  *gofeed.Parser
}

// NewFeedClient creates a feed-backed client
func NewFeedClient(opts Options) *FeedClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &FeedClient{
		req: &requester{
			client:    baseHTTPClient(opts),
			limiter:   util.NewLimiter(opts.RequestInterval, 1),
			userAgent: opts.UserAgent,
			logger:    logger,
		},
		opts:    opts,
		baseURL: strings.TrimRight(baseURL, "/"),
		parser:  gofeed.NewParser(),
	}
}

// FetchPosts reads /user/{u}/submitted/.rss
func (c *FeedClient) FetchPosts(ctx context.Context, user, cursor string, limit int) (*Page, error) {
	return c.fetch(ctx, user, "submitted", model.KindPost, cursor, limit)
}

// FetchComments reads /user/{u}/comments/.rss
func (c *FeedClient) FetchComments(ctx context.Context, user, cursor string, limit int) (*Page, error) {
	return c.fetch(ctx, user, "comments", model.KindComment, cursor, limit)
}

func (c *FeedClient) fetch(ctx context.Context, user, stream string, kind model.ItemKind, cursor string, limit int) (*Page, error) {
	if user == "" {
		return nil, errors.Wrap(ErrInvalidUsername, "empty user")
	}
	if cursor != "" {
		return &Page{}, nil
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.opts.pageLimit(limit)))
	rawURL := fmt.Sprintf("%s/user/%s/%s/.rss?%s", c.baseURL, url.PathEscape(user), stream, q.Encode())

	body, err := c.req.get(ctx, rawURL, "application/atom+xml, application/rss+xml;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s feed of %s", stream, user)
	}

	feed, err := c.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s feed of %s", stream, user)
	}

	page := &Page{Items: make([]model.Item, 0, len(feed.Items))}
	for _, entry := range feed.Items {
		if item, ok := feedItem(entry, kind); ok {
			page.Items = append(page.Items, item)
		}
	}

	if len(page.Items) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "no public %s for %s", stream, user)
	}
	return page, nil
}

func feedItem(entry *gofeed.Item, kind model.ItemKind) (model.Item, bool) {
	id := entry.GUID
	for _, prefix := range []string{"t3_", "t1_"} {
		id = strings.TrimPrefix(id, prefix)
	}
	if id == "" {
		return model.Item{}, false
	}

	created := time.Time{}
	switch {
	case entry.PublishedParsed != nil:
		created = entry.PublishedParsed.UTC()
	case entry.UpdatedParsed != nil:
		created = entry.UpdatedParsed.UTC()
	}

	content := entry.Content
	if content == "" {
		content = entry.Description
	}

	item := model.Item{
		ID:         id,
		Kind:       kind,
		Body:       extract.Text(content),
		CreatedUTC: created,
		Permalink:  entry.Link,
	}
	if kind == model.KindPost {
		item.Title = entry.Title
	}
	if len(entry.Categories) > 0 {
		item.Subreddit = strings.TrimPrefix(entry.Categories[0], "r/")
	}
	return item, true
}
