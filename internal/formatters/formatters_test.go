package formatters

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"resumescore/internal/scoring"
	"resumescore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleScore() types.ScoreReport {
	eval := scoring.NewEngine(nil).Evaluate("python sql machine learning project 30% experience b.tech")
	return types.NewScoreReport(eval)
}

func sampleReport(withFeedback bool) types.AnalysisReport {
	report := types.AnalysisReport{
		ID:        "2d1f6a3e-0000-4000-8000-000000000001",
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Status:    types.StatusComplete,
		Document:  types.DocumentInfo{Name: "cv.pdf", MIMEType: "application/pdf", Format: "pdf", Pages: 2},
		Score:     sampleScore(),
	}
	if withFeedback {
		rating := 7
		report.Feedback = &types.Feedback{
			Strengths:     []string{"Quantified impact"},
			Weaknesses:    []string{"No summary"},
			Suggestions:   []string{"Add a summary section"},
			MissingSkills: []string{"Kubernetes"},
			OverallRating: &rating,
		}
	} else {
		report.Status = types.StatusPartial
		report.FeedbackWarning = "Feedback timed out."
	}
	return report
}

func TestAnalysisTextFormatter(t *testing.T) {
	out, err := NewFormatterRegistry().Format(sampleReport(true), "text")
	require.NoError(t, err)

	for _, want := range []string{
		"=== RESUME ANALYSIS ===",
		"Document: cv.pdf (pdf, 2 pages)",
		"Domain: tech",
		"Keyword Match",
		"keyword_relevance",
		"Overall Rating: 7/10",
		"- Quantified impact",
		"Missing Skills:",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Warning:")
}

func TestAnalysisFormattersShowWarningInPlaceOfFeedback(t *testing.T) {
	registry := NewFormatterRegistry()
	report := sampleReport(false)

	text, err := registry.Format(report, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "Warning: Feedback timed out.")
	assert.Contains(t, text, "Overall Score:")

	md, err := registry.Format(&report, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "> **Warning:** Feedback timed out.")
	assert.Contains(t, md, "| Keyword Match |")
}

func TestAnalysisSkippedFeedback(t *testing.T) {
	report := sampleReport(false)
	report.FeedbackWarning = ""
	report.FeedbackSkipped = true

	out, err := NewFormatterRegistry().Format(report, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Feedback was not requested.")
}

func TestScoreFormatters(t *testing.T) {
	registry := NewFormatterRegistry()
	score := sampleScore()

	text, err := registry.Format(score, "text")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "=== RESUME SCORE ==="))
	assert.Contains(t, text, "Matched keywords: python, sql, machine learning")

	md, err := registry.Format(&score, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "# Resume Score")
	assert.Contains(t, md, "| Formatting | 10 | 10 |")
}

func TestJSONAndYAMLFormatters(t *testing.T) {
	registry := NewFormatterRegistry()
	report := sampleReport(true)

	out, err := registry.Format(&report, "json")
	require.NoError(t, err)
	var decoded types.AnalysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, report.Score.Total, decoded.Score.Total)
	assert.Equal(t, report.Feedback.Strengths, decoded.Feedback.Strengths)

	out, err = registry.Format(report, "yaml")
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &generic))
	assert.Equal(t, "complete", generic["status"])
	assert.Contains(t, out, "keywordRelevance:")
}

func TestFeedbackFormatters(t *testing.T) {
	registry := NewFormatterRegistry()
	report := types.FeedbackReport{
		Domain:    "tech",
		Truncated: true,
		Feedback:  types.Feedback{Strengths: []string{"Clear"}, Weaknesses: []string{}, Suggestions: []string{"Shorten"}},
	}

	text, err := registry.Format(report, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "Domain: tech")
	assert.Contains(t, text, "only the beginning")
	assert.Contains(t, text, "Weaknesses:\n- (none)")

	md, err := registry.Format(report, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "### Suggestions\n\n- Shorten")
}

func TestDomainListFormatters(t *testing.T) {
	registry := NewFormatterRegistry()
	list := types.DomainList{Domains: scoring.DefaultProfiles().Profiles()}

	text, err := registry.Format(list, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "1. tech")
	assert.Contains(t, text, "3. business")

	md, err := registry.Format(list, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "| medical |")
}

func TestFormatErrors(t *testing.T) {
	registry := NewFormatterRegistry()

	_, err := registry.Format(sampleScore(), "xml")
	assert.Error(t, err)

	_, err = registry.Format(map[string]int{"a": 1}, "text")
	assert.ErrorContains(t, err, "no formatter found")

	_, err = (&ScoreTextFormatter{}).Format("not a report")
	assert.ErrorContains(t, err, "expected ScoreReport")
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "markdown", "text", "yaml"}, NewFormatterRegistry().GetSupportedFormats())
}
