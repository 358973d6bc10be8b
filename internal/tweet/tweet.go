// Package tweet looks up the latest post of a Twitter account through the v2
// API.
package tweet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/JakeFAU/cityhall/internal/autolink"
	"github.com/JakeFAU/cityhall/internal/content"
	"github.com/JakeFAU/cityhall/internal/metrics"
)

const (
	defaultBaseURL = "https://api.twitter.com"
	defaultTimeout = 5 * time.Second
	// maxResults is the lookup page size; only the newest post is used.
	maxResults = 5
)

// ErrNoTweets is returned when the account has no eligible posts.
var ErrNoTweets = errors.New("no tweets")

// Config controls the client.
type Config struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
}

// Client implements content.TweetLookup.
type Client struct {
	http    *http.Client
	baseURL string
	linker  *autolink.Linker
	logger  *zap.Logger
}

// Noop is the lookup used when no credentials are configured.
type Noop struct{}

// Latest always reports no tweets.
func (Noop) Latest(context.Context, string) (*content.Tweet, error) {
	return nil, ErrNoTweets
}

// New returns a Client, or Noop when cfg carries no bearer token.
func New(cfg Config, logger *zap.Logger) content.TweetLookup {
	if strings.TrimSpace(cfg.BearerToken) == "" {
		return Noop{}
	}
	return NewClient(cfg, logger)
}

// NewClient builds a Client that authenticates every request with the
// configured bearer token.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.BearerToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = cfg.Timeout
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		linker:  autolink.New(autolink.WithHashtags("")),
		logger:  logger.Named("tweet"),
	}
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type userResponse struct {
	Data *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}

type timelineResponse struct {
	Data []struct {
		ID        string    `json:"id"`
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}

// Latest returns the newest post of handle, excluding replies and reposts.
func (c *Client) Latest(ctx context.Context, handle string) (*content.Tweet, error) {
	t, err := c.latest(ctx, handle)
	switch {
	case err == nil:
		metrics.ObserveTweetLookup("ok")
	case errors.Is(err, ErrNoTweets):
		metrics.ObserveTweetLookup("empty")
	default:
		metrics.ObserveTweetLookup("error")
	}
	return t, err
}

func (c *Client) latest(ctx context.Context, handle string) (*content.Tweet, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return nil, errors.New("tweet: empty handle")
	}

	var user userResponse
	if err := c.get(ctx, "/2/users/by/username/"+url.PathEscape(handle), nil, &user); err != nil {
		return nil, err
	}
	if user.Data == nil {
		return nil, fmt.Errorf("tweet: user %q: %s", handle, describe(user.Errors))
	}

	q := url.Values{}
	q.Set("max_results", fmt.Sprint(maxResults))
	q.Set("exclude", "replies,retweets")
	q.Set("tweet.fields", "created_at")
	var timeline timelineResponse
	if err := c.get(ctx, "/2/users/"+url.PathEscape(user.Data.ID)+"/tweets", q, &timeline); err != nil {
		return nil, err
	}
	if len(timeline.Data) == 0 {
		return nil, ErrNoTweets
	}

	newest := timeline.Data[0]
	date := newest.CreatedAt.UTC()
	c.logger.Debug("fetched latest tweet", zap.String("handle", user.Data.Username), zap.String("id", newest.ID))
	return &content.Tweet{
		Handle:        user.Data.Username,
		Body:          c.linker.Link(newest.Text),
		Date:          date,
		FormattedDate: FormatDate(date),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("tweet: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tweet: get %s: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("tweet: read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tweet: get %s: status %d", path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("tweet: decode %s: %w", path, err)
	}
	return nil
}

func describe(errs []apiError) string {
	if len(errs) == 0 {
		return "not found"
	}
	if errs[0].Detail != "" {
		return errs[0].Detail
	}
	return errs[0].Title
}

// FormatDate renders t as "Mar 5th".
func FormatDate(t time.Time) string {
	return t.Format("Jan") + " " + humanize.Ordinal(t.Day())
}
