// Package compose renders the activity title and description from the
// extracted records. No I/O.
package compose

import (
	"fmt"
	"strings"

	"github.com/isaacgw/parkrun-sync/internal/scrape"
)

const attributionLine = "👦 Automated statistics powered by Isaac"

// Narrative builds the activity title and the five-line description.
//
// The title deliberately uses the lifetime count and location from the
// profile snapshot rather than the event-specific values from the
// results page; that asymmetry is long-standing published behavior.
func Narrative(snap scrape.RunnerSnapshot, rec scrape.ResultRecord) (title, description string) {
	title = fmt.Sprintf("Parkrun #%s (%s)", strOr(snap.TotalParkruns), strOr(snap.RecentLocation))

	timeLine := fmt.Sprintf("🕒 Official time: %s", strOr(rec.ElapsedTime))
	if rec.IsPersonalBest {
		timeLine += " | Course PB 🚨"
	}

	lines := []string{
		timeLine,
		fmt.Sprintf("🏁 Overall position: %s/%s", intOr(rec.Position), intOr(rec.FieldSize)),
		fmt.Sprintf("🚹 Gender position: %s/%s", intOr(rec.GenderPosition), intOr(genderField(snap.Gender, rec))),
		fmt.Sprintf("🎯 Age grade: %s", strOr(rec.AgeGrade)),
		attributionLine,
	}
	return title, strings.Join(lines, "\n")
}

// MergeDescription appends the composed block to an activity's existing
// description, separated by a blank line.
func MergeDescription(existing, composed string) string {
	if existing == "" {
		return composed
	}
	return existing + "\n\n" + composed
}

// genderField picks the denominator for the gender-position line.
func genderField(g scrape.Gender, rec scrape.ResultRecord) *int {
	switch g {
	case scrape.GenderMale:
		return rec.MaleRunners
	case scrape.GenderFemale:
		return rec.FemaleRunners
	default:
		// TODO: Unknown has always fallen through to the female count;
		// confirm the intended denominator before changing it, since a
		// change rewrites published descriptions.
		return rec.FemaleRunners
	}
}

func strOr(s *string) string {
	if s == nil {
		return "?"
	}
	return *s
}

func intOr(n *int) string {
	if n == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *n)
}
