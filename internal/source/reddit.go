package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ppiankov/persona/internal/model"
	"github.com/ppiankov/persona/internal/util"
)

// RedditClient reads user listings from the Reddit JSON API
type RedditClient struct {
	req      *requester
	opts     Options
	baseURL  string
	suffix   string // ".json" for public listings
	robots   *util.RobotsChecker
	linkBase string
}

// NewOAuthClient creates a client using app-only OAuth against oauth.reddit.com
func NewOAuthClient(opts Options) (*RedditClient, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, errors.Wrap(ErrUnauthorized, "client id and secret are required")
	}

	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}

	base := baseHTTPClient(opts)
	cc := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	// Token requests go through base, so they carry the User-Agent and proxy
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = base.Timeout

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = oauthBaseURL
	}
	return newRedditClient(opts, client, baseURL, ""), nil
}

// NewPublicClient creates a client for the unauthenticated www.reddit.com listings.
// Requests are gated by robots.txt and follow its crawl-delay.
func NewPublicClient(opts Options) *RedditClient {
	client := baseHTTPClient(opts)

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := newRedditClient(opts, client, baseURL, ".json")
	c.robots = util.NewRobotsChecker(client, opts.UserAgent)
	return c
}

func newRedditClient(opts Options, client *http.Client, baseURL, suffix string) *RedditClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	linkBase := defaultBaseURL
	if opts.BaseURL != "" {
		linkBase = opts.BaseURL
	}
	return &RedditClient{
		req: &requester{
			client:    client,
			limiter:   util.NewLimiter(opts.RequestInterval, 1),
			userAgent: opts.UserAgent,
			logger:    logger,
		},
		opts:     opts,
		baseURL:  strings.TrimRight(baseURL, "/"),
		suffix:   suffix,
		linkBase: strings.TrimRight(linkBase, "/"),
	}
}

func baseHTTPClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := util.NewHTTPClient(timeout, opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy)
	client.Transport = &util.UserAgentTransport{Base: client.Transport, UserAgent: opts.UserAgent}
	return client
}

// FetchPosts lists the user's submissions
func (c *RedditClient) FetchPosts(ctx context.Context, user, cursor string, limit int) (*Page, error) {
	return c.fetch(ctx, user, "submitted", cursor, limit)
}

// FetchComments lists the user's comments
func (c *RedditClient) FetchComments(ctx context.Context, user, cursor string, limit int) (*Page, error) {
	return c.fetch(ctx, user, "comments", cursor, limit)
}

func (c *RedditClient) fetch(ctx context.Context, user, stream, cursor string, limit int) (*Page, error) {
	if user == "" {
		return nil, errors.Wrap(ErrInvalidUsername, "empty user")
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.opts.pageLimit(limit)))
	q.Set("raw_json", "1")
	if cursor != "" {
		q.Set("after", cursor)
	}
	rawURL := fmt.Sprintf("%s/user/%s/%s%s?%s", c.baseURL, url.PathEscape(user), stream, c.suffix, q.Encode())

	if c.robots != nil {
		allowed, delay, err := c.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, errors.Wrap(err, "robots.txt")
		}
		if !allowed {
			return nil, errors.Wrapf(ErrUnauthorized, "robots.txt disallows %s", rawURL)
		}
		if delay > 0 {
			if u, err := url.Parse(rawURL); err == nil {
				c.req.limiter.SetHostInterval(u.Host, delay)
			}
		}
	}

	body, err := c.req.get(ctx, rawURL, "application/json")
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s of %s", stream, user)
	}

	page, err := parseListing(body, c.linkBase)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s of %s", stream, user)
	}

	if cursor == "" && len(page.Items) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "no public %s for %s", stream, user)
	}

	c.req.logger.Debug("fetched page",
		zap.String("user", user),
		zap.String("stream", stream),
		zap.String("cursor", cursor),
		zap.Int("items", len(page.Items)),
		zap.String("next", page.Next))

	return page, nil
}

// listing is the envelope of /user/{u}/submitted and /comments
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string `json:"kind"`
	Data struct {
		ID         string  `json:"id"`
		Title      string  `json:"title"`
		Selftext   string  `json:"selftext"`
		Body       string  `json:"body"`
		Subreddit  string  `json:"subreddit"`
		Permalink  string  `json:"permalink"`
		CreatedUTC float64 `json:"created_utc"`
	} `json:"data"`
}

func parseListing(body []byte, linkBase string) (*Page, error) {
	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, err
	}
	if l.Kind != "" && l.Kind != "Listing" {
		return nil, errors.Errorf("unexpected kind %q", l.Kind)
	}

	page := &Page{Next: l.Data.After, Items: make([]model.Item, 0, len(l.Data.Children))}
	for _, child := range l.Data.Children {
		d := child.Data
		item := model.Item{
			ID:         d.ID,
			Subreddit:  d.Subreddit,
			CreatedUTC: time.Unix(int64(d.CreatedUTC), 0).UTC(),
			Permalink:  absolutePermalink(linkBase, d.Permalink),
		}
		switch child.Kind {
		case "t3":
			item.Kind = model.KindPost
			item.Title = d.Title
			item.Body = d.Selftext
		case "t1":
			item.Kind = model.KindComment
			item.Body = d.Body
		default:
			continue
		}
		if item.ID == "" {
			continue
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

func absolutePermalink(base, permalink string) string {
	if permalink == "" || strings.HasPrefix(permalink, "http") {
		return permalink
	}
	return base + permalink
}
