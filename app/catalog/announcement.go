package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const announcementTemplate = `
**My Name Is Earl - 20th Anniversary Rewatch**

## S%[1]dE%[2]d: %[3]s

📅 **Original Air Date:** %[4]s

📝 **Summary:** %[5]s

---

*This is part of our weekly episode discussion series for the show's 20th anniversary.*
`

// FormatAnnouncement renders the discussion post for an episode.
func FormatAnnouncement(ep Episode) (title, body string) {
	title = fmt.Sprintf("Episode Discussion: %s (S%dE%d)", ep.Name, ep.Season, ep.Number)
	body = fmt.Sprintf(announcementTemplate, ep.Season, ep.Number, ep.Name, FormatAirdate(ep.Airdate), StripTags(ep.Summary))
	return title, body
}

// FormatAirdate turns a YYYY-MM-DD calendar date into MM-DD-YYYY.
// Anything unparseable is returned as given.
func FormatAirdate(airdate string) string {
	d, err := time.Parse(time.DateOnly, airdate)
	if err != nil {
		return airdate
	}
	return d.Format("01-02-2006")
}

// StripTags removes markup from an HTML summary, decoding entities.
func StripTags(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}
