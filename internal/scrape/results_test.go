package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runnerID = "1234567"

func TestExtractResultV3Golden(t *testing.T) {
	rec, err := ExtractResult(loadDoc(t, "results_v3.html"), runnerID, GenderMale)
	require.NoError(t, err)

	require.NotNil(t, rec.Position)
	assert.Equal(t, 30, *rec.Position)
	require.NotNil(t, rec.FieldSize)
	assert.Equal(t, 580, *rec.FieldSize)
	require.NotNil(t, rec.GenderPosition)
	assert.Equal(t, 10, *rec.GenderPosition)
	require.NotNil(t, rec.MaleRunners)
	assert.Equal(t, 300, *rec.MaleRunners)
	require.NotNil(t, rec.FemaleRunners)
	assert.Equal(t, 280, *rec.FemaleRunners)
	require.NotNil(t, rec.ElapsedTime)
	assert.Equal(t, "22:10", *rec.ElapsedTime)
	require.NotNil(t, rec.AgeGrade)
	assert.Equal(t, "65.21%", *rec.AgeGrade)
	assert.True(t, rec.IsPersonalBest)
}

func TestExtractResultV3RunnerAbsent(t *testing.T) {
	rec, err := ExtractResult(loadDoc(t, "results_v3.html"), "9999999", GenderMale)
	require.NoError(t, err)

	assert.Nil(t, rec.Position)
	assert.Nil(t, rec.GenderPosition)
	assert.Nil(t, rec.ElapsedTime)
	assert.Nil(t, rec.AgeGrade)
	assert.False(t, rec.IsPersonalBest)
	// Document-level values are still extracted.
	require.NotNil(t, rec.FieldSize)
	assert.Equal(t, 580, *rec.FieldSize)
	require.NotNil(t, rec.MaleRunners)
	assert.Equal(t, 300, *rec.MaleRunners)
}

// The DOM-walked field size and the JSON-blob gender counts are
// independent sources; when they disagree, both are reported as-is.
func TestExtractResultSourcesNotReconciled(t *testing.T) {
	rec, err := ExtractResult(loadDoc(t, "results_v3_disagree.html"), runnerID, GenderMale)
	require.NoError(t, err)

	require.NotNil(t, rec.FieldSize)
	assert.Equal(t, 612, *rec.FieldSize)
	require.NotNil(t, rec.MaleRunners)
	require.NotNil(t, rec.FemaleRunners)
	assert.Equal(t, 300, *rec.MaleRunners)
	assert.Equal(t, 280, *rec.FemaleRunners)
	assert.NotEqual(t, *rec.FieldSize, *rec.MaleRunners+*rec.FemaleRunners)
}

func TestExtractResultMissingBlobDegrades(t *testing.T) {
	// Rows exist but the data blob is gone: degraded mode, not an error.
	rec, err := ExtractResult(docFromString(t, `
<table><tbody>
<tr class="Results-table-row" data-name="John RUNNER" data-position="30">
  <td class="Results-table-td--position">30</td>
  <td><a href="/parkrunner/1234567/all/">John RUNNER</a></td>
</tr>
</tbody></table>`), runnerID, GenderMale)
	require.NoError(t, err)

	assert.Equal(t, ResultRecord{}, rec)
}

func TestExtractResultMalformedBlobFails(t *testing.T) {
	_, err := ExtractResult(docFromString(t, `
<script>var parkrunResultsData = {"genderCounts": oops};</script>`), runnerID, GenderMale)
	require.Error(t, err)
}

func TestExtractResultUnknownMarkupDegrades(t *testing.T) {
	rec, err := ExtractResult(docFromString(t, "<html><body><h1>maintenance</h1></body></html>"), runnerID, GenderMale)
	require.NoError(t, err)
	assert.Equal(t, ResultRecord{}, rec)
}

func TestExtractResultV2Golden(t *testing.T) {
	rec, err := ExtractResult(loadDoc(t, "results_v2.html"), runnerID, GenderMale)
	require.NoError(t, err)

	require.NotNil(t, rec.Position)
	assert.Equal(t, 27, *rec.Position)
	require.NotNil(t, rec.FieldSize)
	assert.Equal(t, 412, *rec.FieldSize)
	require.NotNil(t, rec.GenderPosition)
	assert.Equal(t, 22, *rec.GenderPosition)
	require.NotNil(t, rec.ElapsedTime)
	assert.Equal(t, "22:44", *rec.ElapsedTime)
	require.NotNil(t, rec.AgeGrade)
	assert.Equal(t, "63.56%", *rec.AgeGrade)
	assert.True(t, rec.IsPersonalBest)
	// The old markup has no gender counts at all.
	assert.Nil(t, rec.MaleRunners)
	assert.Nil(t, rec.FemaleRunners)
}

func TestExtractResultV2RunnerAbsent(t *testing.T) {
	rec, err := ExtractResult(loadDoc(t, "results_v2.html"), "9999999", GenderFemale)
	require.NoError(t, err)

	assert.Nil(t, rec.Position)
	assert.False(t, rec.IsPersonalBest)
	require.NotNil(t, rec.FieldSize)
	assert.Equal(t, 412, *rec.FieldSize)
}

func TestMarkupVersionProbeOrder(t *testing.T) {
	// A document carrying both generations of markup must resolve to the
	// newest strategy.
	assert.Equal(t, "results-v3", resultVersions[0].Name())
	assert.Equal(t, "results-v2", resultVersions[1].Name())

	doc := loadDoc(t, "results_v3.html")
	assert.True(t, resultVersions[0].Detect(doc))

	legacy := loadDoc(t, "results_v2.html")
	assert.False(t, resultVersions[0].Detect(legacy))
	assert.True(t, resultVersions[1].Detect(legacy))
}
