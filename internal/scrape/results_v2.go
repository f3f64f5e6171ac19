package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// resultsV2 parses the older plain-table results markup: a single
// `table.results` with one cell per column and no embedded data blob.
// Column order: position, runner, time, age category, age grade, gender,
// gender position, club, note. Gender counts do not exist in this
// generation, so the gender field size stays absent.
type resultsV2 struct{}

func (resultsV2) Name() string { return "results-v2" }

func (resultsV2) Detect(doc *goquery.Document) bool {
	return doc.Find("table.results").Length() > 0
}

func (resultsV2) ExtractResult(doc *goquery.Document, runnerID string, _ Gender) (ResultRecord, error) {
	rows := doc.Find("table.results tbody tr")
	if rows.Length() == 0 {
		return ResultRecord{}, nil
	}

	rec := ResultRecord{
		FieldSize: atoiPtr(strings.TrimSpace(rows.Last().Find("td").First().Text())),
	}

	var row *goquery.Selection
	rows.EachWithBreak(func(_ int, r *goquery.Selection) bool {
		if v2RowMatches(r, runnerID) {
			row = r
			return false
		}
		return true
	})
	if row == nil {
		return rec, nil
	}

	cells := row.Find("td")
	rec.Position = atoiPtr(cellText(cells, 0))
	if t := cellText(cells, 2); t != "" {
		rec.ElapsedTime = &t
	}
	if grade := ageGradePattern.FindString(cellText(cells, 4)); grade != "" {
		rec.AgeGrade = &grade
	}
	rec.GenderPosition = atoiPtr(cellText(cells, 6))
	rec.IsPersonalBest = strings.Contains(cellText(cells, 8), "New PB!")

	return rec, nil
}

// v2RowMatches reports whether the row's athlete link refers to the
// runner. The old markup linked athletehistory?athleteNumber=N; some
// mirrors used the modern /parkrunner/N path.
func v2RowMatches(row *goquery.Selection, runnerID string) bool {
	matched := false
	row.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.Contains(href, "athleteNumber="+runnerID) ||
			strings.Contains(href, "/parkrunner/"+runnerID) {
			matched = true
			return false
		}
		return true
	})
	return matched
}

func cellText(cells *goquery.Selection, i int) string {
	if i >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(i).Text())
}
