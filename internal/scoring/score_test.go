package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func techProfile(t *testing.T) DomainProfile {
	t.Helper()
	p, ok := DefaultProfiles().Lookup("tech")
	require.True(t, ok, "tech profile must be built in")
	return p
}

func TestScore_EmptyTextScoresBaseline(t *testing.T) {
	res := Score("", techProfile(t))

	assert.Equal(t, EducationFallback+FormattingBaseline, res.Total)
	assert.Equal(t, 15, res.Total)
	assert.Equal(t, ScoreBreakdown{Education: 5, Formatting: 10}, res.Breakdown)
	assert.Empty(t, res.Signals.MatchedKeywords)
	assert.Equal(t, "tech", res.Domain)
}

func TestScore_KeywordRelevanceScenario(t *testing.T) {
	res := Score("Skills: Python, Machine Learning, SQL", techProfile(t))

	assert.Equal(t, 6, res.Breakdown.KeywordRelevance)
	assert.Equal(t, []string{"python", "sql", "machine learning"}, res.Signals.MatchedKeywords)
	assert.Equal(t, 6+EducationFallback+FormattingBaseline, res.Total)
}

func TestScore_ProjectsCapped(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("project ", 10))
	res := Score(text, techProfile(t))

	assert.Equal(t, 10, res.Signals.ProjectMentions)
	assert.Equal(t, ProjectCap, res.Breakdown.Projects)
	assert.Equal(t, 20, res.Breakdown.Projects)
}

func TestScore_EducationBonus(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "b.tech", text: "B.Tech in Computer Science", expected: EducationBonus},
		{name: "mbbs", text: "MBBS, 2019", expected: EducationBonus},
		{name: "phd lowercase", text: "phd candidate", expected: EducationBonus},
		{name: "degree word", text: "Bachelor's degree", expected: EducationBonus},
		{name: "no degree", text: "self taught developer", expected: EducationFallback},
		{name: "empty", text: "", expected: EducationFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score(tt.text, techProfile(t))
			assert.Equal(t, tt.expected, res.Breakdown.Education)
		})
	}
}

func TestScore_EveryDegreeMarkerEarnsBonus(t *testing.T) {
	markers := DegreeMarkers()
	require.NotEmpty(t, markers)

	for _, marker := range markers {
		t.Run(marker, func(t *testing.T) {
			text := "Graduated with " + strings.ToUpper(marker) + " in 2020"
			assert.Equal(t, EducationBonus, Score(text, techProfile(t)).Breakdown.Education)
		})
	}

	markers[0] = "changed"
	assert.NotEqual(t, "changed", DegreeMarkers()[0])
}

func TestScore_EducationIgnoresOtherContent(t *testing.T) {
	noisy := strings.Repeat("project experience 40% kubernetes ", 50) + " b.tech "
	assert.Equal(t, EducationBonus, Score(noisy, techProfile(t)).Breakdown.Education)
	assert.Equal(t, EducationBonus, Score("b.tech", techProfile(t)).Breakdown.Education)
}

func TestScore_Achievements(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		matches int
		score   int
	}{
		{name: "none", text: "increased revenue significantly", matches: 0, score: 0},
		{name: "single", text: "cut latency by 30%", matches: 1, score: 2},
		{name: "several", text: "10% 20% and 300%", matches: 3, score: 6},
		{name: "bare numbers ignored", text: "served 5000+ users across 12 regions", matches: 0, score: 0},
		{name: "double percent", text: "100%%", matches: 1, score: 2},
		{name: "capped", text: strings.Repeat("5% ", 40), matches: 40, score: AchievementCap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score(tt.text, techProfile(t))
			assert.Equal(t, tt.matches, res.Signals.Achievements)
			assert.Equal(t, tt.score, res.Breakdown.Achievements)
		})
	}
}

func TestScore_KeywordsCountedOnce(t *testing.T) {
	res := Score("python python PYTHON Python", techProfile(t))

	assert.Equal(t, []string{"python"}, res.Signals.MatchedKeywords)
	assert.Equal(t, KeywordWeight, res.Breakdown.KeywordRelevance)
}

func TestScore_KeywordCap(t *testing.T) {
	p := techProfile(t)
	res := Score(strings.Join(p.Keywords, " "), p)

	require.Greater(t, len(res.Signals.MatchedKeywords)*KeywordWeight, KeywordCap)
	assert.Equal(t, KeywordCap, res.Breakdown.KeywordRelevance)
}

func TestScore_Monotonic(t *testing.T) {
	categories := []struct {
		name string
		unit string
		cap  int
		get  func(ScoreBreakdown) int
	}{
		{"projects", "project ", ProjectCap, func(b ScoreBreakdown) int { return b.Projects }},
		{"experience", "experience ", ExperienceCap, func(b ScoreBreakdown) int { return b.Experience }},
		{"achievements", "7% ", AchievementCap, func(b ScoreBreakdown) int { return b.Achievements }},
	}

	for _, c := range categories {
		t.Run(c.name, func(t *testing.T) {
			prev := -1
			for n := 0; n <= 30; n++ {
				got := c.get(Score(strings.Repeat(c.unit, n), techProfile(t)).Breakdown)
				assert.GreaterOrEqual(t, got, prev, "sub-score decreased at n=%d", n)
				assert.LessOrEqual(t, got, c.cap, "sub-score exceeded cap at n=%d", n)
				prev = got
			}
			assert.Equal(t, c.cap, prev, "large input should reach the cap")
		})
	}
}

func TestScore_ExtremeInputStaysBounded(t *testing.T) {
	p := techProfile(t)
	text := strings.Repeat("project experience 99% b.tech "+strings.Join(p.Keywords, " ")+" ", 1000)

	res := Score(text, p)

	assert.Equal(t, MaxTotal, res.Total)
	assert.Equal(t, ProjectCap, res.Breakdown.Projects)
	assert.Equal(t, ExperienceCap, res.Breakdown.Experience)
	assert.Equal(t, AchievementCap, res.Breakdown.Achievements)
	assert.Equal(t, KeywordCap, res.Breakdown.KeywordRelevance)
}

func TestScore_TotalAlwaysInRange(t *testing.T) {
	inputs := []string{
		"",
		" ",
		"\x00\x01\x02",
		"\xff\xfe\xfd project",
		strings.Repeat("project", 100000),
		strings.Repeat("%", 5000),
		"日本語のレジュメ experience プロジェクト",
		"EXPERIENCE PROJECT 50% MBA",
	}

	for _, in := range inputs {
		res := Score(in, techProfile(t))
		assert.GreaterOrEqual(t, res.Total, 0)
		assert.LessOrEqual(t, res.Total, MaxTotal)
		assert.Equal(t, min(res.Breakdown.Sum(), MaxTotal), res.Total)
	}
}

func TestScore_InvalidUTF8(t *testing.T) {
	res := Score("\xff\xfe project \xc3", techProfile(t))

	assert.Equal(t, 1, res.Signals.ProjectMentions)
	assert.Equal(t, ProjectWeight, res.Breakdown.Projects)
}

func TestScore_Deterministic(t *testing.T) {
	text := "Senior engineer, 8 years experience. Led project X (40% faster). Python, Docker, AWS. M.Tech."
	p := techProfile(t)

	first := Score(text, p)
	for range 10 {
		assert.Equal(t, first, Score(text, p))
	}
}

func TestScore_NormalizesExternalProfile(t *testing.T) {
	p := DomainProfile{Name: "custom", Keywords: []string{"  GoLang ", "golang", ""}}

	res := Score("I write Golang daily", p)

	assert.Equal(t, []string{"golang"}, res.Signals.MatchedKeywords)
	assert.Equal(t, KeywordWeight, res.Breakdown.KeywordRelevance)
}

func TestCapped(t *testing.T) {
	assert.Equal(t, 0, capped(0, 2, 25))
	assert.Equal(t, 0, capped(-3, 2, 25))
	assert.Equal(t, 24, capped(12, 2, 25))
	assert.Equal(t, 25, capped(13, 2, 25))
	assert.Equal(t, 25, capped(1<<62, 2, 25))
}

func BenchmarkScore(b *testing.B) {
	p, _ := DefaultProfiles().Lookup("tech")
	text := strings.Repeat("Built a data pipeline project in Python with 35% cost savings. 5 years experience. ", 200)

	for b.Loop() {
		Score(text, p)
	}
}
