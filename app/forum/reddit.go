package forum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL = "https://www.reddit.com/api/v1/access_token"
	DefaultAPIURL  = "https://oauth.reddit.com"
)

var _ Client = (*RedditClient)(nil)

// RedditClient talks to the Reddit OAuth API using the password grant.
type RedditClient struct {
	AuthURL    string
	APIURL     string
	HTTPClient *http.Client
	creds      Credentials

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

func NewRedditClient(creds Credentials, httpClient *http.Client) *RedditClient {
	return &RedditClient{
		AuthURL:    DefaultAuthURL,
		APIURL:     DefaultAPIURL,
		HTTPClient: httpClient,
		creds:      creds,
	}
}

// passwordTokenSource requests a fresh token with the password grant.
// Reddit issues no refresh token for this grant.
type passwordTokenSource struct {
	ctx      context.Context
	config   *oauth2.Config
	username string
	password string
}

func (s passwordTokenSource) Token() (*oauth2.Token, error) {
	return s.config.PasswordCredentialsToken(s.ctx, s.username, s.password)
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

func (c *RedditClient) newTokenSource() oauth2.TokenSource {
	base := c.HTTPClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	tokenClient := &http.Client{
		Timeout:   c.HTTPClient.Timeout,
		Transport: userAgentTransport{base: base, userAgent: c.creds.UserAgent},
	}

	config := &oauth2.Config{
		ClientID:     c.creds.ClientID,
		ClientSecret: c.creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.AuthURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	src := passwordTokenSource{
		ctx:      context.WithValue(context.Background(), oauth2.HTTPClient, tokenClient),
		config:   config,
		username: c.creds.Username,
		password: c.creds.Password,
	}
	// treated as expired one minute ahead of the server's deadline
	return oauth2.ReuseTokenSourceWithExpiry(nil, src, time.Minute)
}

// Authenticate drops any cached token and requests a new one.
func (c *RedditClient) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	c.tokens = c.newTokenSource()
	c.mu.Unlock()

	tok, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	slog.Info("Authenticated with forum", "user", c.creds.Username, "expires", tok.Expiry)
	return nil
}

func (c *RedditClient) accessToken(ctx context.Context) (*oauth2.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.tokens == nil {
		c.tokens = c.newTokenSource()
	}
	tokens := c.tokens
	c.mu.Unlock()

	tok, err := tokens.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && (retrieveErr.ErrorCode != "" ||
			retrieveErr.Response != nil && retrieveErr.Response.StatusCode == http.StatusUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("failed to request token: %w", err)
	}
	return tok, nil
}

func (c *RedditClient) do(ctx context.Context, method, path string, query, form url.Values, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	endpoint := c.APIURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("User-Agent", c.creds.UserAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		c.tokens = nil
		c.mu.Unlock()
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

type listing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data thing  `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type thing struct {
	ID         string  `json:"id"`
	Subreddit  string  `json:"subreddit"`
	Author     string  `json:"author"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Body       string  `json:"body"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}

func (c *RedditClient) Newest(ctx context.Context, kind Kind, subreddits []string, limit int) ([]Item, error) {
	path := "/r/" + strings.Join(subreddits, "+") + "/new"
	if kind == KindComment {
		path = "/r/" + strings.Join(subreddits, "+") + "/comments"
	}
	query := url.Values{
		"limit":    {strconv.Itoa(limit)},
		"raw_json": {"1"},
	}

	var l listing
	if err := c.do(ctx, http.MethodGet, path, query, nil, &l); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		items = append(items, child.Data.toItem(kind))
	}
	return items, nil
}

func (t thing) toItem(kind Kind) Item {
	sec := int64(t.CreatedUTC)
	nsec := int64((t.CreatedUTC - float64(sec)) * float64(time.Second))
	return Item{
		Kind:      kind,
		ID:        t.ID,
		Subreddit: t.Subreddit,
		Author:    t.Author,
		Title:     t.Title,
		SelfText:  t.Selftext,
		Body:      t.Body,
		Permalink: t.Permalink,
		CreatedAt: time.Unix(sec, nsec),
	}
}

type apiResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"data"`
	} `json:"json"`
}

func (r apiResponse) err() error {
	if len(r.JSON.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("forum API error: %v", r.JSON.Errors[0])
}

func (c *RedditClient) Reply(ctx context.Context, item Item, text string) error {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {item.Fullname()},
		"text":     {text},
	}
	var resp apiResponse
	if err := c.do(ctx, http.MethodPost, "/api/comment", nil, form, &resp); err != nil {
		return fmt.Errorf("failed to reply to %s: %w", item.Fullname(), err)
	}
	return resp.err()
}

func (c *RedditClient) Submit(ctx context.Context, subreddit, title, body string) (Submission, error) {
	form := url.Values{
		"api_type": {"json"},
		"kind":     {"self"},
		"sr":       {subreddit},
		"title":    {title},
		"text":     {body},
	}
	var resp apiResponse
	if err := c.do(ctx, http.MethodPost, "/api/submit", nil, form, &resp); err != nil {
		return Submission{}, fmt.Errorf("failed to submit to r/%s: %w", subreddit, err)
	}
	if err := resp.err(); err != nil {
		return Submission{}, err
	}
	return Submission{
		ID:       resp.JSON.Data.ID,
		Fullname: resp.JSON.Data.Name,
		URL:      resp.JSON.Data.URL,
	}, nil
}

func (c *RedditClient) Pin(ctx context.Context, submission Submission) error {
	form := url.Values{
		"api_type": {"json"},
		"id":       {submission.Fullname},
		"state":    {"true"},
		"num":      {"1"},
	}
	var resp apiResponse
	if err := c.do(ctx, http.MethodPost, "/api/set_subreddit_sticky", nil, form, &resp); err != nil {
		return fmt.Errorf("failed to pin %s: %w", submission.Fullname, err)
	}
	return resp.err()
}
