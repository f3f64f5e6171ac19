package scrape

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const resultsDataMarker = "var parkrunResultsData"

var ageGradePattern = regexp.MustCompile(`[0-9.]+%`)

// resultsV3 parses the current results markup: one tr per finisher with
// data-name/data-position attributes, a nested "compact"/"detailed" cell
// layout, and a script-embedded JSON blob carrying gender counts.
type resultsV3 struct{}

func (resultsV3) Name() string { return "results-v3" }

func (resultsV3) Detect(doc *goquery.Document) bool {
	if doc.Find("tr[data-name]").Length() > 0 {
		return true
	}
	_, ok := resultsDataScript(doc)
	return ok
}

func (resultsV3) ExtractResult(doc *goquery.Document, runnerID string, _ Gender) (ResultRecord, error) {
	script, ok := resultsDataScript(doc)
	if !ok {
		// Documented degraded mode: without the data blob the page is a
		// shape we cannot trust, so report nothing rather than guess.
		return ResultRecord{}, nil
	}

	counts, err := parseGenderCounts(script)
	if err != nil {
		return ResultRecord{}, err
	}

	rec := ResultRecord{
		MaleRunners:   counts.male,
		FemaleRunners: counts.female,
		// The field size comes from the DOM, not the blob. The two
		// sources are never reconciled.
		FieldSize: lastRowPosition(doc),
	}

	row := findRunnerRow(doc, runnerID)
	if row == nil {
		return rec, nil
	}

	if pos, ok := row.Attr("data-position"); ok {
		rec.Position = atoiPtr(pos)
	}
	rec.ElapsedTime = elapsedTimeFrom(row)
	rec.AgeGrade = ageGradeFrom(row)
	rec.GenderPosition = genderPositionFrom(row)
	if achievement, ok := row.Attr("data-achievement"); ok && achievement == "New PB!" {
		rec.IsPersonalBest = true
	}

	return rec, nil
}

// resultsDataScript returns the text of the script element embedding the
// results data blob.
func resultsDataScript(doc *goquery.Document) (string, bool) {
	var content string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.Contains(text, resultsDataMarker) {
			content = text
			return false
		}
		return true
	})
	return content, content != ""
}

type genderCounts struct {
	male   *int
	female *int
}

// parseGenderCounts isolates the JSON object assigned to the marker
// variable. Malformed JSON after a found marker is document corruption
// and propagates as a hard failure.
func parseGenderCounts(script string) (genderCounts, error) {
	_, after, ok := strings.Cut(script, resultsDataMarker+" = ")
	if !ok {
		return genderCounts{}, fmt.Errorf("results data assignment not found in script")
	}
	if idx := strings.LastIndex(after, ";"); idx >= 0 {
		after = after[:idx]
	}

	var blob struct {
		GenderCounts map[string]int `json:"genderCounts"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(after)), &blob); err != nil {
		return genderCounts{}, fmt.Errorf("parse results data blob: %w", err)
	}

	counts := genderCounts{}
	if v, ok := blob.GenderCounts["Male"]; ok {
		counts.male = &v
	}
	if v, ok := blob.GenderCounts["Female"]; ok {
		counts.female = &v
	}
	return counts, nil
}

// lastRowPosition reads the position cell of the final results row. Rows
// are in finishing order, so the last position is the field size.
func lastRowPosition(doc *goquery.Document) *int {
	rows := doc.Find("tr.Results-table-row")
	if rows.Length() == 0 {
		return nil
	}
	text := rows.Last().Find("td.Results-table-td--position").First().Text()
	return atoiPtr(strings.TrimSpace(text))
}

// findRunnerRow scans the data-name rows for the one whose profile link
// contains the runner identity. Rows are assumed unique per runner; the
// first match wins.
func findRunnerRow(doc *goquery.Document, runnerID string) *goquery.Selection {
	var match *goquery.Selection
	needle := "/parkrunner/" + runnerID
	doc.Find("tr[data-name]").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		found := false
		row.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if strings.Contains(href, needle) {
				found = true
				return false
			}
			return true
		})
		if found {
			match = row
			return false
		}
		return true
	})
	return match
}

func elapsedTimeFrom(row *goquery.Selection) *string {
	cell := row.Find("td.Results-table-td--time").First()
	if cell.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(cell.Find("div.compact").First().Text())
	if text == "" {
		fields := strings.Fields(cell.Text())
		if len(fields) == 0 {
			return nil
		}
		text = fields[0]
	}
	return &text
}

func ageGradeFrom(row *goquery.Selection) *string {
	detail := row.Find("div.detailed").First()
	if detail.Length() == 0 {
		return nil
	}
	grade := ageGradePattern.FindString(detail.Text())
	if grade == "" {
		return nil
	}
	return &grade
}

// genderPositionFrom extracts the first purely-numeric token of the text
// immediately following the gender marker span.
//
// This is the most brittle heuristic in the extractor: it depends on the
// marker span's class name and on the position rendering as a bare text
// sibling. Kept narrowly scoped here so an upstream markup change breaks
// exactly one function.
func genderPositionFrom(row *goquery.Selection) *int {
	span := row.Find("div.detailed span.Results-table--M").First()
	if span.Length() == 0 {
		return nil
	}
	sibling := span.Nodes[0].NextSibling
	if sibling == nil || sibling.Type != html.TextNode {
		return nil
	}
	fields := strings.Fields(sibling.Data)
	if len(fields) == 0 {
		return nil
	}
	return atoiPtr(fields[0])
}

// atoiPtr converts an all-digit token, treating anything else as absent.
func atoiPtr(s string) *int {
	if s == "" {
		return nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
