package source

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ppiankov/persona/internal/model"
)

// Client lists a user's recent activity one page at a time.
// cursor "" requests the first page; limit <= 0 uses the configured page size.
type Client interface {
	FetchPosts(ctx context.Context, user, cursor string, limit int) (*Page, error)
	FetchComments(ctx context.Context, user, cursor string, limit int) (*Page, error)
}

// Page is one page of items, most recent first
type Page struct {
	Items []model.Item
	Next  string // "" when the stream is exhausted
}

const (
	maxPageSize     = 100
	maxBodyBytes    = 8 << 20
	defaultBaseURL  = "https://www.reddit.com"
	oauthBaseURL    = "https://oauth.reddit.com"
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
)

// Options configures Reddit-backed clients
type Options struct {
	ClientID        string
	ClientSecret    string
	UserAgent       string
	PageSize        int
	RequestInterval time.Duration
	Timeout         time.Duration
	HTTPProxy       string
	HTTPSProxy      string
	NoProxy         string

	// BaseURL and TokenURL override Reddit endpoints
	BaseURL  string
	TokenURL string

	Logger *zap.Logger
}

// OptionsFromConfig maps runtime configuration onto client options
func OptionsFromConfig(cfg *model.Config, logger *zap.Logger) Options {
	return Options{
		ClientID:        cfg.Reddit.ClientID,
		ClientSecret:    cfg.Reddit.ClientSecret,
		UserAgent:       cfg.Reddit.UserAgent,
		PageSize:        cfg.Reddit.PageSize,
		RequestInterval: cfg.Reddit.RequestInterval,
		Timeout:         cfg.HTTP.Timeout,
		HTTPProxy:       cfg.HTTP.HTTPProxy,
		HTTPSProxy:      cfg.HTTP.HTTPSProxy,
		NoProxy:         cfg.HTTP.NoProxy,
		Logger:          logger,
	}
}

// New creates the client selected by cfg.Reddit.Mode.
// OAuth mode without credentials falls back to public listings.
func New(cfg *model.Config, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := OptionsFromConfig(cfg, logger)

	switch cfg.Reddit.Mode {
	case model.ModeOAuth, "":
		if opts.ClientID == "" || opts.ClientSecret == "" {
			logger.Warn("reddit credentials not set, using public listings",
				zap.String("hint", "set REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET"))
			return NewPublicClient(opts), nil
		}
		return NewOAuthClient(opts)
	case model.ModePublic:
		return NewPublicClient(opts), nil
	case model.ModeFeed:
		return NewFeedClient(opts), nil
	default:
		return nil, errors.Errorf("unknown reddit mode: %s (use oauth, public or feed)", cfg.Reddit.Mode)
	}
}

func (o Options) pageLimit(limit int) int {
	size := o.PageSize
	if size <= 0 || size > maxPageSize {
		size = maxPageSize
	}
	if limit > 0 && limit < size {
		return limit
	}
	return size
}
