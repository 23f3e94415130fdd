package forum

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const (
	DefaultFeedURL = "https://www.reddit.com"

	submittedBy = "submitted by"
)

var _ Client = (*AtomReader)(nil)

// AtomReader fetches the newest items from the public Atom listings and
// delegates every write (reply, submit, pin) to an authenticated Client.
type AtomReader struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Writer     Client
	parser     *gofeed.Parser
}

func NewAtomReader(writer Client, userAgent string, httpClient *http.Client) *AtomReader {
	return &AtomReader{
		BaseURL:    DefaultFeedURL,
		UserAgent:  userAgent,
		HTTPClient: httpClient,
		Writer:     writer,
		parser:     gofeed.NewParser(),
	}
}

func (r *AtomReader) Authenticate(ctx context.Context) error {
	return r.Writer.Authenticate(ctx)
}

func (r *AtomReader) Newest(ctx context.Context, kind Kind, subreddits []string, limit int) ([]Item, error) {
	listing := "new"
	if kind == KindComment {
		listing = "comments"
	}
	endpoint := fmt.Sprintf("%s/r/%s/%s/.rss?%s", r.BaseURL, strings.Join(subreddits, "+"), listing,
		url.Values{"limit": {strconv.Itoa(limit)}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	feed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, r.normalizeEntry(kind, entry))
	}
	return items, nil
}

func (r *AtomReader) normalizeEntry(kind Kind, entry *gofeed.Item) Item {
	item := Item{
		Kind:      kind,
		ID:        stripFullnamePrefix(entry.GUID),
		Permalink: entry.Link,
	}

	if entry.Author != nil {
		item.Author = strings.TrimPrefix(entry.Author.Name, "/u/")
	} else if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		item.Author = strings.TrimPrefix(entry.Authors[0].Name, "/u/")
	}

	switch {
	case entry.PublishedParsed != nil:
		item.CreatedAt = *entry.PublishedParsed
	case entry.UpdatedParsed != nil:
		item.CreatedAt = *entry.UpdatedParsed
	}

	text := htmlToText(entry.Content)
	if kind == KindComment {
		item.Body = text
	} else {
		item.Title = entry.Title
		item.SelfText = text
	}
	return item
}

func (r *AtomReader) Reply(ctx context.Context, item Item, text string) error {
	return r.Writer.Reply(ctx, item, text)
}

func (r *AtomReader) Submit(ctx context.Context, subreddit, title, body string) (Submission, error) {
	return r.Writer.Submit(ctx, subreddit, title, body)
}

func (r *AtomReader) Pin(ctx context.Context, submission Submission) error {
	return r.Writer.Pin(ctx, submission)
}

func stripFullnamePrefix(id string) string {
	if len(id) > 3 && id[0] == 't' && id[2] == '_' {
		return id[3:]
	}
	return id
}

// htmlToText returns the text of the markdown body in a listing entry.
// Entries without a body (link posts) carry only the "submitted by" trailer,
// which is cut so the author's name never reaches the matcher.
func htmlToText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	if body := doc.Find("div.md"); body.Length() > 0 {
		return strings.TrimSpace(body.Text())
	}

	text := doc.Text()
	if i := strings.Index(text, submittedBy); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
