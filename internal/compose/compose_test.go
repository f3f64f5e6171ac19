package compose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaacgw/parkrun-sync/internal/scrape"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func sampleSnapshot(g scrape.Gender) scrape.RunnerSnapshot {
	return scrape.RunnerSnapshot{
		TotalParkruns:  strPtr("150"),
		RecentLocation: strPtr("Bushy"),
		Gender:         g,
	}
}

func sampleRecord() scrape.ResultRecord {
	return scrape.ResultRecord{
		Position:       intPtr(30),
		FieldSize:      intPtr(300),
		GenderPosition: intPtr(10),
		MaleRunners:    intPtr(150),
		FemaleRunners:  intPtr(140),
		ElapsedTime:    strPtr("22:10"),
		AgeGrade:       strPtr("65.2%"),
		IsPersonalBest: true,
	}
}

func TestNarrativeTitleUsesProfileValues(t *testing.T) {
	title, _ := Narrative(sampleSnapshot(scrape.GenderMale), sampleRecord())
	assert.Equal(t, "Parkrun #150 (Bushy)", title)
}

func TestNarrativeDescription(t *testing.T) {
	_, desc := Narrative(sampleSnapshot(scrape.GenderMale), sampleRecord())

	lines := strings.Split(desc, "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "22:10")
	assert.Contains(t, lines[0], "| Course PB 🚨")
	assert.Equal(t, "🏁 Overall position: 30/300", lines[1])
	assert.Equal(t, "🚹 Gender position: 10/150", lines[2])
	assert.Equal(t, "🎯 Age grade: 65.2%", lines[3])
	assert.Equal(t, attributionLine, lines[4])
}

func TestNarrativeNoPersonalBest(t *testing.T) {
	rec := sampleRecord()
	rec.IsPersonalBest = false

	_, desc := Narrative(sampleSnapshot(scrape.GenderMale), rec)
	assert.Equal(t, "🕒 Official time: 22:10", strings.Split(desc, "\n")[0])
}

func TestNarrativeGenderDenominator(t *testing.T) {
	tests := []struct {
		name   string
		gender scrape.Gender
		want   string
	}{
		{name: "male", gender: scrape.GenderMale, want: "🚹 Gender position: 10/150"},
		{name: "female", gender: scrape.GenderFemale, want: "🚹 Gender position: 10/140"},
		// Unknown falls through to the female count.
		{name: "unknown", gender: scrape.GenderUnknown, want: "🚹 Gender position: 10/140"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, desc := Narrative(sampleSnapshot(tt.gender), sampleRecord())
			assert.Equal(t, tt.want, strings.Split(desc, "\n")[2])
		})
	}
}

func TestNarrativeAbsentFields(t *testing.T) {
	_, desc := Narrative(sampleSnapshot(scrape.GenderMale), scrape.ResultRecord{})

	lines := strings.Split(desc, "\n")
	assert.Equal(t, "🏁 Overall position: ?/?", lines[1])
	assert.Equal(t, "🚹 Gender position: ?/?", lines[2])
}

func TestMergeDescription(t *testing.T) {
	assert.Equal(t, "new", MergeDescription("", "new"))
	assert.Equal(t, "morning run\n\nnew", MergeDescription("morning run", "new"))
}
