package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
)

const (
	DefaultBaseURL = "https://api.tvmaze.com"
	// DefaultShowID is "My Name Is Earl" on TVmaze.
	DefaultShowID = "678"
)

type Episode struct {
	ID      int    `json:"id"`
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Name    string `json:"name"`
	Airdate string `json:"airdate"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

type Client interface {
	Episodes(ctx context.Context, showID string) ([]Episode, error)
}

var _ Client = (*TVMaze)(nil)

type TVMaze struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

func NewTVMaze(userAgent string, httpClient *http.Client) *TVMaze {
	return &TVMaze{
		BaseURL:    DefaultBaseURL,
		UserAgent:  userAgent,
		HTTPClient: httpClient,
	}
}

func (c *TVMaze) Episodes(ctx context.Context, showID string) ([]Episode, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/shows/%s/episodes", c.BaseURL, showID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch episodes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var episodes []Episode
	if err := json.NewDecoder(resp.Body).Decode(&episodes); err != nil {
		return nil, fmt.Errorf("failed to decode episodes: %w", err)
	}
	return episodes, nil
}

// Sort orders episodes by season, then number.
func Sort(episodes []Episode) {
	slices.SortStableFunc(episodes, func(a, b Episode) int {
		if a.Season != b.Season {
			return a.Season - b.Season
		}
		return a.Number - b.Number
	})
}

// NextAfter returns the first episode strictly after season/episode in
// catalog order. Episodes must already be sorted.
func NextAfter(episodes []Episode, season, episode int) (Episode, bool) {
	for _, ep := range episodes {
		if ep.Season > season || (ep.Season == season && ep.Number > episode) {
			return ep, true
		}
	}
	return Episode{}, false
}
