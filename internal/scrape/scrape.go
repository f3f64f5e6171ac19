// Package scrape turns parkrun HTML documents into structured records.
//
// This is the fragile heart of the service. The markup it parses is
// undocumented and has changed shape several times over the years, so the
// results-page extraction is organized as a set of versioned strategies
// behind a probe (see MarkupVersion). Extraction follows one rule
// throughout: a missing element yields an absent field and processing
// continues; only corruption that downstream control flow cannot survive
// (a malformed date, a broken data blob) is a hard error.
package scrape

import (
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Gender is the runner's gender category inferred from the profile page.
type Gender int

// Gender categories. Unknown is used when the age-category label is
// missing or has an unrecognized prefix.
const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
)

// String implements fmt.Stringer.
func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	default:
		return "Unknown"
	}
}

// RunnerSnapshot is the normalized summary of a runner's profile page.
// Constructed fresh from each parse, never mutated.
type RunnerSnapshot struct {
	// TotalParkruns is the lifetime completion count, kept as the raw
	// token from the page heading.
	TotalParkruns *string
	// RecentDate is the date of the most recent event, at midnight in
	// the event's civil timezone.
	RecentDate *time.Time
	// RecentLocation is the event location with the trailing qualifier
	// stripped.
	RecentLocation *string
	// RecentResultsLink is the href of the most recent results page.
	// Invariant: non-nil only when RecentDate is non-nil.
	RecentResultsLink *string
	// Gender is inferred from the age-category label.
	Gender Gender
}

// ResultRecord is the normalized extraction of one runner's row from an
// event results page. When the runner's row is not located, every field
// is nil and IsPersonalBest is false.
type ResultRecord struct {
	Position       *int
	FieldSize      *int
	GenderPosition *int
	MaleRunners    *int
	FemaleRunners  *int
	ElapsedTime    *string
	AgeGrade       *string
	IsPersonalBest bool
}

// MarkupVersion is one strategy for parsing a known generation of the
// results-page markup. Detect probes the document shape; ExtractResult
// is only called when Detect reported true.
type MarkupVersion interface {
	Name() string
	Detect(doc *goquery.Document) bool
	ExtractResult(doc *goquery.Document, runnerID string, gender Gender) (ResultRecord, error)
}

// resultVersions is probed in order, newest first.
var resultVersions = []MarkupVersion{
	resultsV3{},
	resultsV2{},
}

// ExtractResult dispatches to the first markup version whose probe
// matches the document. Unrecognized markup degrades to an all-absent
// record rather than failing the run.
func ExtractResult(doc *goquery.Document, runnerID string, gender Gender) (ResultRecord, error) {
	for _, v := range resultVersions {
		if v.Detect(doc) {
			return v.ExtractResult(doc, runnerID, gender)
		}
	}
	return ResultRecord{}, nil
}
