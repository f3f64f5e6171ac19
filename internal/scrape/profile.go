package scrape

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/isaacgw/parkrun-sync/internal/clock"
)

const (
	totalsHeadingMarker = "parkruns total"
	ageCategoryMarker   = "Most recent age category was"
	eventDateLayout     = "02/01/2006"
)

// ExtractSnapshot parses a runner profile document.
//
// A missing heading, table or anchor leaves the corresponding field nil.
// The only hard failure is a date string that does not parse: every
// downstream decision hangs off the date comparison, so a silently absent
// date would turn a corrupt page into a permanent no-op.
func ExtractSnapshot(doc *goquery.Document) (RunnerSnapshot, error) {
	snap := RunnerSnapshot{
		TotalParkruns: extractTotal(doc),
		Gender:        extractGender(doc),
	}

	location, dateText, link := extractRecentRow(doc)
	snap.RecentLocation = location

	if dateText != nil {
		date, err := time.ParseInLocation(eventDateLayout, *dateText, clock.Location())
		if err != nil {
			return RunnerSnapshot{}, fmt.Errorf("parse recent event date %q: %w", *dateText, err)
		}
		snap.RecentDate = &date
		snap.RecentResultsLink = link
	}

	return snap, nil
}

// extractTotal reads the lifetime count from the totals heading: the
// first whitespace token of the h3 containing "parkruns total".
func extractTotal(doc *goquery.Document) *string {
	var total *string
	doc.Find("h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, totalsHeadingMarker) {
			return true
		}
		fields := strings.Fields(text)
		if len(fields) > 0 {
			total = &fields[0]
		}
		return false
	})
	return total
}

// extractRecentRow reads the first data row of the recent-results table.
// Row 0 is the header.
func extractRecentRow(doc *goquery.Document) (location, dateText, link *string) {
	rows := doc.Find("table.sortable").First().Find("tr")
	if rows.Length() < 2 {
		return nil, nil, nil
	}
	cells := rows.Eq(1).Find("td")
	if cells.Length() == 0 {
		return nil, nil, nil
	}

	loc := strings.ReplaceAll(strings.TrimSpace(cells.Eq(0).Text()), " parkrun", "")
	if loc != "" {
		location = &loc
	}

	if cells.Length() < 2 {
		return location, nil, nil
	}
	anchor := cells.Eq(1).Find(`a[href][target="_top"]`).First()
	if anchor.Length() == 0 {
		return location, nil, nil
	}
	text := strings.TrimSpace(anchor.Text())
	if text == "" {
		return location, nil, nil
	}
	dateText = &text
	if href, ok := anchor.Attr("href"); ok && href != "" {
		link = &href
	}
	return location, dateText, link
}

// extractGender classifies the runner from the age-category sentence.
// Senior category codes start with SM (men) or SW (women); anything
// else, including a missing sentence, is Unknown.
func extractGender(doc *goquery.Document) Gender {
	var text string
	for _, root := range doc.Selection.Nodes {
		if found := findText(root, ageCategoryMarker); found != "" {
			text = found
			break
		}
	}
	if text == "" {
		return GenderUnknown
	}
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return GenderUnknown
	}
	category := fields[len(fields)-1]
	switch {
	case strings.HasPrefix(category, "SM"):
		return GenderMale
	case strings.HasPrefix(category, "SW"):
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// findText walks the node tree for a text node containing substr.
func findText(n *html.Node, substr string) string {
	if n.Type == html.TextNode && strings.Contains(n.Data, substr) {
		return n.Data
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findText(child, substr); found != "" {
			return found
		}
	}
	return ""
}
