package state

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidProgress = errors.New("invalid progress")

// Progress is the last published season and episode. Episode 0 means
// nothing from the season has been published yet.
type Progress struct {
	Season  int `json:"currentSeason"`
	Episode int `json:"currentEpisode"`
}

var DefaultProgress = Progress{Season: 1, Episode: 0}

func (p Progress) Validate() error {
	if p.Season < 1 {
		return fmt.Errorf("%w: season must be at least 1, got %d", ErrInvalidProgress, p.Season)
	}
	if p.Episode < 0 {
		return fmt.Errorf("%w: episode must not be negative, got %d", ErrInvalidProgress, p.Episode)
	}
	return nil
}

// Less orders progress by season, then episode.
func (p Progress) Less(o Progress) bool {
	if p.Season != o.Season {
		return p.Season < o.Season
	}
	return p.Episode < o.Episode
}

func (p Progress) String() string {
	return fmt.Sprintf("S%dE%d", p.Season, p.Episode)
}

type ProgressStore interface {
	LoadProgress(ctx context.Context) (Progress, error)
	SaveProgress(ctx context.Context, p Progress) error
}
